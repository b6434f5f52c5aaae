package server

import (
	"newsdesk/internal/service"

	"github.com/gofiber/fiber/v2"
)

type blockRequest struct {
	Title           string `json:"title" form:"title"`
	Content         string `json:"content" form:"content"`
	ImageURL        string `json:"image_url" form:"image_url"`
	Order           *int   `json:"order" form:"order"`
	BackgroundColor string `json:"background_color" form:"background_color"`
}

func (r blockRequest) toInput() service.BlockInput {
	return service.BlockInput{
		Title:           r.Title,
		Content:         r.Content,
		ImageURL:        r.ImageURL,
		Order:           r.Order,
		BackgroundColor: r.BackgroundColor,
	}
}

// GetBlocks returns the blocks of an article in display order (public)
func (s *Server) GetBlocks(c *fiber.Ctx) error {
	ctx := c.UserContext()
	_, caps := callerOf(c)

	articleID, err := s.parseID(c, "articleId")
	if err != nil {
		return nil
	}

	blocks, err := s.blockService.ListBlocks(ctx, articleID, caps)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(blocks)
}

// CreateBlock appends a block to an article (admin)
func (s *Server) CreateBlock(c *fiber.Ctx) error {
	ctx := c.UserContext()
	_, caps := callerOf(c)

	articleID, err := s.parseID(c, "articleId")
	if err != nil {
		return nil
	}

	var req blockRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	block, err := s.blockService.CreateBlock(ctx, articleID, req.toInput(), caps)
	if err != nil {
		return s.respondError(c, err)
	}
	if wantsHTML(c) {
		return redirectToArticle(c, block.ArticleID)
	}
	return c.Status(fiber.StatusCreated).JSON(block)
}

// UpdateBlock edits a block in place; its article cannot change (admin)
func (s *Server) UpdateBlock(c *fiber.Ctx) error {
	ctx := c.UserContext()
	_, caps := callerOf(c)

	blockID, err := s.parseID(c, "blockId")
	if err != nil {
		return nil
	}

	var req blockRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	block, err := s.blockService.UpdateBlock(ctx, blockID, req.toInput(), caps)
	if err != nil {
		return s.respondError(c, err)
	}
	if wantsHTML(c) {
		return redirectToArticle(c, block.ArticleID)
	}
	return c.JSON(block)
}

// DeleteBlock removes a block (admin)
func (s *Server) DeleteBlock(c *fiber.Ctx) error {
	ctx := c.UserContext()
	_, caps := callerOf(c)

	blockID, err := s.parseID(c, "blockId")
	if err != nil {
		return nil
	}

	if err := s.blockService.DeleteBlock(ctx, blockID, caps); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
