package server

import (
	"strings"
	"time"

	"newsdesk/internal/models"
	"newsdesk/internal/service"

	"github.com/gofiber/fiber/v2"
)

type articleRequest struct {
	Title       string  `json:"title" form:"title"`
	ImageURL    *string `json:"image_url" form:"image_url"`
	PublishedAt string  `json:"published_at" form:"published_at"`
	IsPublished *bool   `json:"is_published" form:"is_published"`
}

func (r articleRequest) toInput() (service.ArticleInput, error) {
	in := service.ArticleInput{
		Title:       r.Title,
		ImageURL:    r.ImageURL,
		IsPublished: r.IsPublished,
	}
	if raw := strings.TrimSpace(r.PublishedAt); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return in, models.NewValidationError("published_at must be an RFC3339 timestamp")
		}
		in.PublishedAt = &at
	}
	return in, nil
}

// GetArticles lists visible articles, newest first (public)
func (s *Server) GetArticles(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, caps := callerOf(c)
	page := parsePagination(c, defaultPageSize)

	articles, err := s.articleService.ListArticles(ctx, service.ListArticlesInput{
		Query:    c.Query("query"),
		Limit:    page.Limit,
		Offset:   page.Offset,
		ViewerID: userID,
		Caps:     caps,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(articles)
}

// GetArticle returns a single article with its blocks (public)
func (s *Server) GetArticle(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, caps := callerOf(c)

	articleID, err := s.parseID(c, "articleId")
	if err != nil {
		return nil
	}

	article, err := s.articleService.GetArticle(ctx, articleID, userID, caps)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(article)
}

// CreateArticle creates an article (admin)
func (s *Server) CreateArticle(c *fiber.Ctx) error {
	ctx := c.UserContext()
	_, caps := callerOf(c)

	var req articleRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	in, err := req.toInput()
	if err != nil {
		return s.respondError(c, err)
	}

	article, err := s.articleService.CreateArticle(ctx, in, caps)
	if err != nil {
		return s.respondError(c, err)
	}
	if wantsHTML(c) {
		return redirectToArticle(c, article.ID)
	}
	return c.Status(fiber.StatusCreated).JSON(article)
}

// UpdateArticle edits an article (admin)
func (s *Server) UpdateArticle(c *fiber.Ctx) error {
	ctx := c.UserContext()
	_, caps := callerOf(c)

	articleID, err := s.parseID(c, "articleId")
	if err != nil {
		return nil
	}

	var req articleRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	in, err := req.toInput()
	if err != nil {
		return s.respondError(c, err)
	}

	article, err := s.articleService.UpdateArticle(ctx, articleID, in, caps)
	if err != nil {
		return s.respondError(c, err)
	}
	if wantsHTML(c) {
		return redirectToArticle(c, article.ID)
	}
	return c.JSON(article)
}

// DeleteArticle removes an article with its blocks, comments and reactions (admin)
func (s *Server) DeleteArticle(c *fiber.Ctx) error {
	ctx := c.UserContext()
	_, caps := callerOf(c)

	articleID, err := s.parseID(c, "articleId")
	if err != nil {
		return nil
	}

	if err := s.articleService.DeleteArticle(ctx, articleID, caps); err != nil {
		return s.respondError(c, err)
	}
	if wantsHTML(c) {
		return c.Redirect("/articles", fiber.StatusSeeOther)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
