package server

import (
	"newsdesk/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Content  string `json:"content" form:"content"`
	ParentID *uint  `json:"parent_id" form:"parent_id"`
}

// GetComments returns the published comments of an article, newest first (public)
func (s *Server) GetComments(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, caps := callerOf(c)

	articleID, err := s.parseID(c, "articleId")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPageSize)

	comments, err := s.commentService.ListComments(ctx, service.ListCommentsInput{
		ArticleID: articleID,
		Limit:     page.Limit,
		Offset:    page.Offset,
		ViewerID:  userID,
		Caps:      caps,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment adds a comment or a reply to an article (protected)
func (s *Server) CreateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, caps := callerOf(c)

	articleID, err := s.parseID(c, "articleId")
	if err != nil {
		return nil
	}

	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.ParentID != nil && *req.ParentID == 0 {
		req.ParentID = nil
	}

	created, err := s.commentService.CreateComment(ctx, service.CreateCommentInput{
		UserID:    userID,
		ArticleID: articleID,
		ParentID:  req.ParentID,
		Content:   req.Content,
	}, caps)
	if err != nil {
		return s.respondError(c, err)
	}
	if wantsHTML(c) {
		return redirectToArticle(c, created.ArticleID)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// UpdateComment edits a comment (author only)
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, _ := callerOf(c)

	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	updated, err := s.commentService.UpdateComment(ctx, service.UpdateCommentInput{
		UserID:    userID,
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	if wantsHTML(c) {
		return redirectToArticle(c, updated.ArticleID)
	}
	return c.JSON(updated)
}

// DeleteComment removes a comment and its replies (author or admin)
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, caps := callerOf(c)

	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	deleted, err := s.commentService.DeleteComment(ctx, service.DeleteCommentInput{
		UserID:    userID,
		CommentID: commentID,
	}, caps)
	if err != nil {
		return s.respondError(c, err)
	}
	if wantsHTML(c) {
		return redirectToArticle(c, deleted.ArticleID)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
