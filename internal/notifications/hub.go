package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"newsdesk/internal/middleware"
	"newsdesk/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerArticle = 500
	maxTotalConns      = 10000
)

var (
	ErrHubClosed        = errors.New("live feed is shutting down")
	ErrArticleConnLimit = errors.New("article connection limit reached")
	ErrServerConnLimit  = errors.New("server connection limit reached")
)

// ArticleHub maps article id to the live-feed clients watching it.
type ArticleHub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
}

// NewArticleHub creates an empty hub.
func NewArticleHub() *ArticleHub {
	return &ArticleHub{conns: make(map[uint]map[*Client]struct{})}
}

// Name returns a human-readable identifier for this hub.
func (h *ArticleHub) Name() string { return "article live feed" }

// Register adds a connection watching articleID.
func (h *ArticleHub) Register(articleID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.totalConns >= maxTotalConns {
		return nil, ErrServerConnLimit
	}
	m, ok := h.conns[articleID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[articleID] = m
	}
	if len(m) >= maxConnsPerArticle {
		return nil, ErrArticleConnLimit
	}

	client := &Client{hub: h, Conn: conn, ArticleID: articleID, Send: make(chan []byte, sendBuffer)}
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnections.Inc()
	return client, nil
}

// Unregister removes the client and closes its send queue. Safe to call twice.
func (h *ArticleHub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[c.ArticleID]
	if !ok {
		return
	}
	if _, exists := m[c]; !exists {
		return
	}
	delete(m, c)
	close(c.Send)
	h.totalConns--
	observability.WebSocketConnections.Dec()
	if len(m) == 0 {
		delete(h.conns, c.ArticleID)
	}
}

// Broadcast sends message to every client watching articleID and returns how many accepted it.
func (h *ArticleHub) Broadcast(articleID uint, message string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	data := []byte(message)
	for c := range h.conns[articleID] {
		if c.TrySend(data) {
			delivered++
		}
	}
	return delivered
}

// Count returns the number of clients watching articleID.
func (h *ArticleHub) Count(articleID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[articleID])
}

// StartWiring subscribes to article channels and forwards each event to local clients.
func (h *ArticleHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartArticleSubscriber(ctx, func(channel, payload string) {
		articleID, ok := ParseArticleChannel(channel)
		if !ok {
			middleware.Logger.Warn("invalid article channel", slog.String("channel", channel))
			return
		}
		h.Broadcast(articleID, payload)
	})
}

// Shutdown closes every client's send queue; the write pumps then send a
// close frame and exit.
func (h *ArticleHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for articleID, clients := range h.conns {
		for c := range clients {
			close(c.Send)
			observability.WebSocketConnections.Dec()
		}
		delete(h.conns, articleID)
	}
	h.totalConns = 0
	return nil
}
