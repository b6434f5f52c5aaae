package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"newsdesk/internal/middleware"
	"newsdesk/internal/models"
	"newsdesk/internal/notifications"
	"newsdesk/internal/repository"
)

const (
	maxTitleLen    = 400
	maxImageURLLen = 500
)

type ArticleService struct {
	articleRepo  repository.ArticleRepository
	reactionRepo repository.ReactionRepository
	notifier     *notifications.Notifier
	now          func() time.Time
}

type ListArticlesInput struct {
	Query    string
	Limit    int
	Offset   int
	ViewerID uint
	Caps     models.Capabilities
}

// ArticleInput carries the editable article fields. Nil pointers keep the
// current value on update and take the default on create.
type ArticleInput struct {
	Title       string
	ImageURL    *string
	PublishedAt *time.Time
	IsPublished *bool
}

func NewArticleService(
	articleRepo repository.ArticleRepository,
	reactionRepo repository.ReactionRepository,
	notifier *notifications.Notifier,
) *ArticleService {
	return &ArticleService{
		articleRepo:  articleRepo,
		reactionRepo: reactionRepo,
		notifier:     notifier,
		now:          time.Now,
	}
}

func (s *ArticleService) ListArticles(ctx context.Context, in ListArticlesInput) ([]*models.Article, error) {
	return s.articleRepo.List(ctx, repository.ArticleListFilter{
		Query:         strings.TrimSpace(in.Query),
		Page:          repository.Page{Limit: in.Limit, Offset: in.Offset},
		ViewerID:      in.ViewerID,
		IncludeHidden: in.Caps.IsAdmin,
		Now:           s.now(),
	})
}

// GetArticle returns the article with its blocks and counts, plus viewerID's
// reaction. Unpublished or scheduled articles are NotFound for non-admins.
func (s *ArticleService) GetArticle(ctx context.Context, id, viewerID uint, caps models.Capabilities) (*models.Article, error) {
	article, err := visibleArticle(ctx, s.articleRepo, id, caps, s.now())
	if err != nil {
		return nil, err
	}
	if viewerID != 0 && s.reactionRepo != nil {
		existing, err := s.reactionRepo.FindByArticle(ctx, viewerID, id)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if existing != nil {
			article.MyReaction = existing.Kind
		}
	}
	return article, nil
}

func validateArticleInput(in ArticleInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 400 characters)")
	}
	if in.ImageURL != nil && len(*in.ImageURL) > maxImageURLLen {
		return models.NewValidationError("image_url too long (max 500 characters)")
	}
	return nil
}

func (s *ArticleService) CreateArticle(ctx context.Context, in ArticleInput, caps models.Capabilities) (*models.Article, error) {
	if err := requireAdmin(caps); err != nil {
		return nil, err
	}
	if err := validateArticleInput(in); err != nil {
		return nil, err
	}

	article := &models.Article{
		Title:       strings.TrimSpace(in.Title),
		PublishedAt: s.now(),
		IsPublished: true,
	}
	if in.ImageURL != nil {
		article.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.PublishedAt != nil {
		article.PublishedAt = *in.PublishedAt
	}
	if in.IsPublished != nil {
		article.IsPublished = *in.IsPublished
	}

	if err := s.articleRepo.Create(ctx, article); err != nil {
		return nil, err
	}
	return s.articleRepo.GetByID(ctx, article.ID)
}

func (s *ArticleService) UpdateArticle(ctx context.Context, id uint, in ArticleInput, caps models.Capabilities) (*models.Article, error) {
	if err := requireAdmin(caps); err != nil {
		return nil, err
	}
	article, err := s.articleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title == "" {
		in.Title = article.Title
	}
	if err := validateArticleInput(in); err != nil {
		return nil, err
	}

	article.Title = strings.TrimSpace(in.Title)
	if in.ImageURL != nil {
		article.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if in.PublishedAt != nil {
		article.PublishedAt = *in.PublishedAt
	}
	if in.IsPublished != nil {
		article.IsPublished = *in.IsPublished
	}

	if err := s.articleRepo.Update(ctx, article); err != nil {
		return nil, err
	}
	s.publish(ctx, id, notifications.EventArticleUpdated, map[string]interface{}{"title": article.Title})
	return s.articleRepo.GetByID(ctx, id)
}

// DeleteArticle removes the article with its blocks, comments and reactions.
func (s *ArticleService) DeleteArticle(ctx context.Context, id uint, caps models.Capabilities) error {
	if err := requireAdmin(caps); err != nil {
		return err
	}
	if err := s.articleRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, id, notifications.EventArticleDeleted, nil)
	return nil
}

func (s *ArticleService) publish(ctx context.Context, articleID uint, eventType string, payload interface{}) {
	if err := s.notifier.PublishArticleEvent(ctx, articleID, eventType, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish article event",
			slog.String("event", eventType),
			slog.Uint64("article_id", uint64(articleID)),
			slog.String("error", err.Error()),
		)
	}
}
