package realtime

import (
	"testing"

	"github.com/google/uuid"

	"github.com/comptrack/comptrack-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func drain(c *Client) []Message {
	var out []Message
	for {
		select {
		case msg := <-c.Outbound:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestHubBroadcastToSubscribers(t *testing.T) {
	hub := NewHub(testLogger(t))

	subscriber := hub.NewClient(uuid.New())
	bystander := hub.NewClient(uuid.New())
	hub.Subscribe(subscriber, ChannelGlobal)
	hub.Subscribe(bystander, "other")
	drain(subscriber)
	drain(bystander)

	hub.Broadcast(Message{Channel: ChannelGlobal, Event: EventComponentUpdate, Data: "payload"})

	got := drain(subscriber)
	if len(got) != 1 || got[0].Event != EventComponentUpdate {
		t.Errorf("subscriber got %v, want one component_update", got)
	}
	if got := drain(bystander); len(got) != 0 {
		t.Errorf("bystander on another channel got %v, want nothing", got)
	}
}

func TestHubConnectionCount(t *testing.T) {
	hub := NewHub(testLogger(t))

	a := hub.NewClient(uuid.New())
	b := hub.NewClient(uuid.New())
	hub.Subscribe(a, ChannelGlobal)
	hub.Subscribe(b, ChannelGlobal)
	hub.Subscribe(b, "extra")

	if n := hub.ConnectionCount(); n != 2 {
		t.Errorf("ConnectionCount = %d, want 2 distinct clients", n)
	}

	hub.CloseClient(b)
	if n := hub.ConnectionCount(); n != 1 {
		t.Errorf("ConnectionCount after close = %d, want 1", n)
	}
}

func TestHubSubscribeAnnouncesConnectionCount(t *testing.T) {
	hub := NewHub(testLogger(t))

	watcher := hub.NewClient(uuid.New())
	hub.Subscribe(watcher, ChannelGlobal)
	drain(watcher)

	other := hub.NewClient(uuid.New())
	hub.Subscribe(other, "uploads")

	got := drain(watcher)
	if len(got) != 1 || got[0].Event != EventConnectionCount {
		t.Fatalf("watcher got %v, want a connection_count announcement", got)
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(testLogger(t))

	slow := hub.NewClient(uuid.New())
	hub.Subscribe(slow, ChannelGlobal)
	drain(slow)

	for i := 0; i < cap(slow.Outbound)+5; i++ {
		hub.Broadcast(Message{Channel: ChannelGlobal, Event: EventActivityUpdate, Data: i})
	}

	if got := drain(slow); len(got) != cap(slow.Outbound) {
		t.Errorf("slow client got %d messages, want buffer cap %d with the rest dropped",
			len(got), cap(slow.Outbound))
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub(testLogger(t))

	client := hub.NewClient(uuid.New())
	hub.Subscribe(client, "uploads")
	hub.Unsubscribe(client, "uploads")

	hub.Broadcast(Message{Channel: "uploads", Event: EventUploadProgress})
	if got := drain(client); len(got) != 0 {
		t.Errorf("unsubscribed client got %v, want nothing", got)
	}
}
