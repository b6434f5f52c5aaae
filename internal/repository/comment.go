package repository

import (
	"context"
	"time"

	"newsdesk/internal/models"

	"gorm.io/gorm"
)

// CommentListFilter narrows a comment listing for one article.
type CommentListFilter struct {
	ArticleID     uint
	Page          Page
	ViewerID      uint
	IncludeHidden bool
	Now           time.Time
}

// CommentRepository defines interface for comment operations.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByArticle(ctx context.Context, f CommentListFilter) ([]*models.Comment, error)
	Update(ctx context.Context, comment *models.Comment) error
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("User", "Replies", "Reactions").Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).
		Select("comments.*, "+reactionCountsSelect("comments", "comment_id")).
		Preload("User").
		First(&comment, id).Error
	if err != nil {
		return nil, notFoundOr(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) ListByArticle(ctx context.Context, f CommentListFilter) ([]*models.Comment, error) {
	page := f.Page.normalized()

	sel := "comments.*, " + reactionCountsSelect("comments", "comment_id")
	q := r.db.WithContext(ctx).Model(&models.Comment{})
	if f.ViewerID != 0 {
		q = q.Select(sel+", "+myReactionSelect("comments", "comment_id"), f.ViewerID)
	} else {
		q = q.Select(sel)
	}

	q = q.Where("comments.article_id = ?", f.ArticleID)
	if !f.IncludeHidden {
		now := f.Now
		if now.IsZero() {
			now = time.Now()
		}
		q = q.Where("comments.is_published = ? AND comments.published_at <= ?", true, now.UTC())
	}

	var comments []*models.Comment
	err := q.Preload("User").
		Order("comments.published_at DESC, comments.id DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// Update writes the author-editable columns.
func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	res := r.db.WithContext(ctx).Model(comment).
		Select("content", "is_published", "updated_at").
		Updates(comment)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", comment.ID)
	}
	return nil
}

// Delete removes the comment; replies and reactions go with it through ON DELETE CASCADE.
func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}
