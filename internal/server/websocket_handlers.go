package server

import (
	"log/slog"

	"newsdesk/internal/featureflags"
	"newsdesk/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ArticleFeedUpgrade admits websocket upgrades for articles the caller can see.
func (s *Server) ArticleFeedUpgrade(c *fiber.Ctx) error {
	userID, caps := callerOf(c)
	if !s.flags.Enabled(featureflags.LiveFeed, userID) {
		return fiber.ErrNotFound
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	articleID, err := s.parseID(c, "articleId")
	if err != nil {
		return nil
	}
	if _, err := s.articleService.GetArticle(c.UserContext(), articleID, userID, caps); err != nil {
		return s.respondError(c, err)
	}

	c.Locals("articleID", articleID)
	return c.Next()
}

// ArticleFeedHandler streams reaction and comment events of one article to the client.
func (s *Server) ArticleFeedHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		articleID, _ := conn.Locals("articleID").(uint)

		client, err := s.articleHub.Register(articleID, conn)
		if err != nil {
			middleware.Logger.Warn("live feed registration rejected",
				slog.Uint64("article_id", uint64(articleID)),
				slog.String("error", err.Error()),
			)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// GetFeatureFlags returns the configured flags and their state for the caller.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID, _ := callerOf(c)
	return c.JSON(fiber.Map{
		"raw":       s.flags.Raw(),
		"evaluated": s.flags.Evaluate(userID),
	})
}
