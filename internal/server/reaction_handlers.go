package server

import (
	"newsdesk/internal/models"

	"github.com/gofiber/fiber/v2"
)

type reactionRequest struct {
	ReactionType *int `json:"reaction_type" form:"reaction_type"`
}

// ReactToArticle toggles the caller's like or dislike on an article (protected)
func (s *Server) ReactToArticle(c *fiber.Ctx) error {
	articleID, err := s.parseID(c, "articleId")
	if err != nil {
		return nil
	}
	return s.react(c, models.ArticleTarget(articleID))
}

// ReactToComment toggles the caller's like or dislike on a comment (protected)
func (s *Server) ReactToComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	return s.react(c, models.CommentTarget(commentID))
}

func (s *Server) react(c *fiber.Ctx, target models.Target) error {
	ctx := c.UserContext()
	userID, caps := callerOf(c)

	var req reactionRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	kind := models.ReactionNone
	if req.ReactionType != nil {
		kind = models.ReactionKind(*req.ReactionType)
	}

	result, err := s.reactionService.ApplyReaction(ctx, target, userID, kind, caps)
	if err != nil {
		return s.respondError(c, err)
	}
	if wantsHTML(c) {
		return redirectToArticle(c, result.ArticleID)
	}
	return c.JSON(result)
}
