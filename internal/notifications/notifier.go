// Package notifications fans article events out through Redis pub/sub to
// live websocket subscribers.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"

	"newsdesk/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const articleChannelPrefix = "article:events:"

// Event type constants prevent typos in event names.
const (
	EventReactionUpdated = "reaction_updated"
	EventCommentCreated  = "comment_created"
	EventCommentUpdated  = "comment_updated"
	EventCommentDeleted  = "comment_deleted"
	EventArticleUpdated  = "article_updated"
	EventArticleDeleted  = "article_deleted"
)

// Event is the envelope published on article channels.
type Event struct {
	Type      string      `json:"type"`
	ArticleID uint        `json:"article_id"`
	Payload   interface{} `json:"payload"`
}

// Notifier publishes article events into Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier. A nil client makes every call a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// ArticleChannel derives the Redis channel name for an article.
func ArticleChannel(articleID uint) string {
	return articleChannelPrefix + strconv.FormatUint(uint64(articleID), 10)
}

// ParseArticleChannel extracts the article id from an article channel name.
func ParseArticleChannel(channel string) (uint, bool) {
	rest, ok := strings.CutPrefix(channel, articleChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// PublishArticleEvent publishes an event for subscribers of articleID.
func (n *Notifier) PublishArticleEvent(ctx context.Context, articleID uint, eventType string, payload interface{}) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	body, err := json.Marshal(Event{Type: eventType, ArticleID: articleID, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return n.rdb.Publish(ctx, ArticleChannel(articleID), body).Err()
}

// StartArticleSubscriber subscribes to all article channels and calls
// onMessage for each message until ctx is cancelled.
func (n *Notifier) StartArticleSubscriber(ctx context.Context, onMessage func(channel string, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, articleChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe article events: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in article subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
