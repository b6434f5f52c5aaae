package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"newsdesk/internal/cache"
	"newsdesk/internal/middleware"
	"newsdesk/internal/models"
	"newsdesk/internal/notifications"
	"newsdesk/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	articleRepo repository.ArticleRepository
	notifier    *notifications.Notifier
	now         func() time.Time
}

type ListCommentsInput struct {
	ArticleID uint
	Limit     int
	Offset    int
	ViewerID  uint
	Caps      models.Capabilities
}

type CreateCommentInput struct {
	UserID    uint
	ArticleID uint
	ParentID  *uint
	Content   string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	articleRepo repository.ArticleRepository,
	notifier *notifications.Notifier,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		articleRepo: articleRepo,
		notifier:    notifier,
		now:         time.Now,
	}
}

func validateCommentContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", models.NewValidationError("Content is required")
	}
	if len(content) > maxCommentLen {
		return "", models.NewValidationError("Comment too long (max 10000 characters)")
	}
	return content, nil
}

// ListComments returns published comments of a visible article, newest first.
func (s *CommentService) ListComments(ctx context.Context, in ListCommentsInput) ([]*models.Comment, error) {
	now := s.now()
	if _, err := visibleArticle(ctx, s.articleRepo, in.ArticleID, in.Caps, now); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByArticle(ctx, repository.CommentListFilter{
		ArticleID:     in.ArticleID,
		Page:          repository.Page{Limit: in.Limit, Offset: in.Offset},
		ViewerID:      in.ViewerID,
		IncludeHidden: in.Caps.IsAdmin,
		Now:           now,
	})
}

// GetComment returns a comment if both it and its article are visible.
func (s *CommentService) GetComment(ctx context.Context, id uint, caps models.Capabilities) (*models.Comment, error) {
	return visibleComment(ctx, s.commentRepo, s.articleRepo, id, caps, s.now())
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput, caps models.Capabilities) (*models.Comment, error) {
	content, err := validateCommentContent(in.Content)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if _, err := visibleArticle(ctx, s.articleRepo, in.ArticleID, caps, now); err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		parent, err := visibleComment(ctx, s.commentRepo, s.articleRepo, *in.ParentID, caps, now)
		if err != nil {
			if models.IsNotFound(err) {
				return nil, models.NewValidationError("parent_id does not reference a comment")
			}
			return nil, err
		}
		if parent.ArticleID != in.ArticleID {
			return nil, models.NewValidationError("parent_id must reference a comment on the same article")
		}
	}

	comment := &models.Comment{
		Content:     content,
		UserID:      in.UserID,
		ArticleID:   in.ArticleID,
		ParentID:    in.ParentID,
		PublishedAt: now,
		IsPublished: true,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	created, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, created.ArticleID, notifications.EventCommentCreated, created)
	return created, nil
}

// UpdateComment edits the content. Only the author may do this.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own comments")
	}
	content, err := validateCommentContent(in.Content)
	if err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	updated, err := s.commentRepo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, updated.ArticleID, notifications.EventCommentUpdated, updated)
	return updated, nil
}

// DeleteComment removes the comment and its replies. Authors and admins may do this.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput, caps models.Capabilities) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != in.UserID && !caps.IsAdmin {
		return nil, models.NewForbiddenError("You can only delete your own comments")
	}

	if err := s.commentRepo.Delete(ctx, in.CommentID); err != nil {
		return nil, err
	}
	s.publish(ctx, comment.ArticleID, notifications.EventCommentDeleted, map[string]interface{}{"comment_id": comment.ID})
	return comment, nil
}

// publish drops the cached article detail, whose comments_count just changed,
// and announces the event on the article feed.
func (s *CommentService) publish(ctx context.Context, articleID uint, eventType string, payload interface{}) {
	cache.InvalidateArticle(ctx, articleID)
	if err := s.notifier.PublishArticleEvent(ctx, articleID, eventType, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish comment event",
			slog.String("event", eventType),
			slog.Uint64("article_id", uint64(articleID)),
			slog.String("error", err.Error()),
		)
	}
}
