package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/comptrack/comptrack-backend/internal/platform/logger"
)

type Event string

const (
	EventComponentUpdate Event = "component_update"
	EventActivityUpdate  Event = "activity_update"
	EventUploadProgress  Event = "upload_progress"
	EventConnectionCount Event = "connection_count"
)

// ChannelGlobal carries tracker-wide events every dashboard subscribes to.
const ChannelGlobal = "global"

type Message struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
	Data    any    `json:"data,omitempty"`
}

type Client struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Channels map[string]bool
	Outbound chan Message
	done     chan struct{}
}

// Hub fans messages out to subscribed SSE clients. It owns all connection
// state; nothing else in the system tracks who is listening.
type Hub struct {
	mu            sync.RWMutex
	log           *logger.Logger
	subscriptions map[string]map[*Client]bool
}

func NewHub(baseLog *logger.Logger) *Hub {
	return &Hub{
		log:           baseLog.With("component", "RealtimeHub"),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) NewClient(userID uuid.UUID) *Client {
	return &Client{
		ID:       uuid.New(),
		UserID:   userID,
		Channels: make(map[string]bool),
		Outbound: make(chan Message, 16),
		done:     make(chan struct{}),
	}
}

func (h *Hub) Subscribe(client *Client, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}

	h.mu.Lock()
	client.Channels[channel] = true
	clients, ok := h.subscriptions[channel]
	if !ok {
		clients = make(map[*Client]bool)
		h.subscriptions[channel] = clients
	}
	clients[client] = true
	h.mu.Unlock()

	h.log.Debug("client subscribed", "client_id", client.ID, "channel", channel)
	h.broadcastConnectionCount()
}

func (h *Hub) Unsubscribe(client *Client, channel string) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return
	}

	h.mu.Lock()
	delete(client.Channels, channel)
	if clients, ok := h.subscriptions[channel]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.subscriptions, channel)
		}
	}
	h.mu.Unlock()

	h.log.Debug("client unsubscribed", "client_id", client.ID, "channel", channel)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	for ch := range client.Channels {
		if clients, ok := h.subscriptions[ch]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.subscriptions, ch)
			}
		}
	}
	client.Channels = make(map[string]bool)
	h.mu.Unlock()
}

// Broadcast delivers to every subscriber of the message's channel. Slow
// consumers whose buffer is full lose the message rather than block the
// sender.
func (h *Hub) Broadcast(msg Message) {
	if msg.Channel == "" {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.subscriptions[msg.Channel]
	if !ok {
		return
	}
	for c := range clients {
		select {
		case c.Outbound <- msg:
		default:
			h.log.Warn("dropping message, outbound buffer full", "client_id", c.ID)
		}
	}
}

// ConnectionCount reports how many distinct clients hold a subscription.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Client]bool)
	for _, clients := range h.subscriptions {
		for c := range clients {
			seen[c] = true
		}
	}
	return len(seen)
}

func (h *Hub) broadcastConnectionCount() {
	h.Broadcast(Message{
		Channel: ChannelGlobal,
		Event:   EventConnectionCount,
		Data: map[string]any{
			"count":     h.ConnectionCount(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// ServeHTTP streams a client's outbound queue as server-sent events until
// the request context ends or the client is closed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request, client *Client) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.log.Debug("client context done", "client_id", client.ID, "error", ctx.Err())
			return
		case <-client.done:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg := <-client.Outbound:
			raw, err := json.Marshal(msg)
			if err != nil {
				h.log.Warn("failed to marshal message", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", raw)
			flusher.Flush()
		}
	}
}

func (h *Hub) CloseClient(client *Client) {
	close(client.done)
	h.removeClient(client)
	close(client.Outbound)
	h.broadcastConnectionCount()
}
