// Package notifications delivers live feed events to websocket clients.
package notifications

import (
	"context"
	"errors"
	"sync"

	"fileshare/internal/models"
	"fileshare/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const maxTotalConns = 10000

// ErrConnectionLimit is returned by Register when the hub is full.
var ErrConnectionLimit = errors.New("server connection limit reached")

// ErrHubClosed is returned by Register after Shutdown.
var ErrHubClosed = errors.New("hub is shut down")

// FeedHub fans post events out to every connected feed client.
type FeedHub struct {
	mu       sync.RWMutex
	clients  map[*Client]struct{}
	notifier *Notifier
	closed   bool
}

// NewFeedHub creates a hub. A nil notifier or one without Redis delivers locally only.
func NewFeedHub(notifier *Notifier) *FeedHub {
	return &FeedHub{
		clients:  make(map[*Client]struct{}),
		notifier: notifier,
	}
}

// Name returns a human-readable identifier for this hub.
func (h *FeedHub) Name() string { return "feed hub" }

// Register adds a connection to the hub.
func (h *FeedHub) Register(conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if len(h.clients) >= maxTotalConns {
		return nil, ErrConnectionLimit
	}

	client := NewClient(h, conn)
	h.clients[client] = struct{}{}
	observability.WebSocketConnections.Inc()
	return client, nil
}

// UnregisterClient removes a client and closes its send channel. Safe to call twice.
func (h *FeedHub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
	observability.WebSocketConnections.Dec()
}

// Count returns the number of connected clients.
func (h *FeedHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastAll sends message to every connected client.
func (h *FeedHub) BroadcastAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.TrySend(message)
	}
}

// PublishPost announces a new post. With Redis the event goes through the
// broadcast channel and reaches local clients via StartWiring; otherwise it is
// delivered directly.
func (h *FeedHub) PublishPost(ctx context.Context, post *models.Post) {
	payload, err := PostCreatedEvent(post)
	if err != nil {
		observability.Logger.ErrorContext(ctx, "failed to encode post event", "post_id", post.ID, "error", err)
		return
	}

	if h.notifier.Enabled() {
		err := h.notifier.PublishBroadcast(ctx, string(payload))
		if err == nil {
			return
		}
		observability.Logger.WarnContext(ctx, "feed publish failed, delivering locally", "error", err)
	}
	h.BroadcastAll(payload)
}

// StartWiring subscribes the hub to the Redis broadcast channel.
func (h *FeedHub) StartWiring(ctx context.Context) error {
	if !h.notifier.Enabled() {
		return nil
	}
	return h.notifier.StartSubscriber(ctx, func(payload string) {
		h.BroadcastAll([]byte(payload))
	})
}

// Shutdown closes every connection with a going-away frame.
func (h *FeedHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	for client := range h.clients {
		if client.Conn != nil {
			_ = client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down"))
			if err := client.Conn.Close(); err != nil {
				observability.Logger.Warn("failed to close feed websocket", "client", client.ID, "error", err)
			}
		}
		close(client.Send)
		observability.WebSocketConnections.Dec()
	}
	h.clients = make(map[*Client]struct{})
	return nil
}
