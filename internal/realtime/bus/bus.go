package bus

import (
	"context"
	"os"
	"strings"

	"github.com/comptrack/comptrack-backend/internal/platform/logger"
	"github.com/comptrack/comptrack-backend/internal/realtime"
)

// Bus decouples event producers from the hub so multiple server instances
// can share one realtime stream. Producers publish; exactly one forwarder
// per process pushes received messages into the local hub.
type Bus interface {
	Publish(ctx context.Context, msg realtime.Message) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error
	Close() error
}

// New picks the redis-backed bus when REDIS_ADDR is set and falls back to
// the in-process loopback otherwise.
func New(log *logger.Logger) (Bus, error) {
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		return NewRedisBus(log)
	}
	return NewInprocBus(log), nil
}
