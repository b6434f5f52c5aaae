// Package service holds the business rules between the HTTP layer and the repositories.
package service

import (
	"context"
	"time"

	"newsdesk/internal/models"
	"newsdesk/internal/repository"
)

// visibleArticle loads an article and hides it from callers who may not see it.
// Hidden and missing articles are indistinguishable to the caller.
func visibleArticle(ctx context.Context, repo repository.ArticleRepository, id uint, caps models.Capabilities, now time.Time) (*models.Article, error) {
	article, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !article.VisibleTo(caps, now) {
		return nil, models.NewNotFoundError("Article", id)
	}
	return article, nil
}

// visibleComment loads a comment that is visible itself and whose article is visible.
func visibleComment(ctx context.Context, comments repository.CommentRepository, articles repository.ArticleRepository, id uint, caps models.Capabilities, now time.Time) (*models.Comment, error) {
	comment, err := comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !comment.VisibleTo(caps, now) {
		return nil, models.NewNotFoundError("Comment", id)
	}
	if _, err := visibleArticle(ctx, articles, comment.ArticleID, caps, now); err != nil {
		if models.IsNotFound(err) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, err
	}
	return comment, nil
}

func requireAdmin(caps models.Capabilities) error {
	if !caps.IsAdmin {
		return models.NewForbiddenError("Admin access required")
	}
	return nil
}
