package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/comptrack/comptrack-backend/internal/platform/logger"
	"github.com/comptrack/comptrack-backend/internal/realtime"
)

// inprocBus loops published messages straight back to the local forwarder.
// Single-instance deployments and tests need no redis.
type inprocBus struct {
	log *logger.Logger

	mu     sync.Mutex
	onMsg  func(m realtime.Message)
	closed bool
}

func NewInprocBus(log *logger.Logger) Bus {
	return &inprocBus{log: log.With("service", "InprocEventBus")}
}

func (b *inprocBus) Publish(ctx context.Context, msg realtime.Message) error {
	b.mu.Lock()
	onMsg := b.onMsg
	closed := b.closed
	b.mu.Unlock()

	if closed {
		return fmt.Errorf("bus closed")
	}
	if onMsg != nil {
		onMsg(msg)
	}
	return nil
}

func (b *inprocBus) StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	b.mu.Lock()
	b.onMsg = onMsg
	b.mu.Unlock()
	return nil
}

func (b *inprocBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.onMsg = nil
	b.mu.Unlock()
	return nil
}
