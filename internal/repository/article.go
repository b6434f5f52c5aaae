package repository

import (
	"context"
	"time"

	"newsdesk/internal/cache"
	"newsdesk/internal/models"

	"gorm.io/gorm"
)

// ArticleListFilter narrows an article listing.
type ArticleListFilter struct {
	Query string
	Page  Page
	// ViewerID fills my_reaction when non-zero
	ViewerID uint
	// IncludeHidden lists unpublished and scheduled articles too
	IncludeHidden bool
	Now           time.Time
}

// ArticleRepository defines persistence operations for articles.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, id uint) (*models.Article, error)
	List(ctx context.Context, f ArticleListFilter) ([]*models.Article, error)
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id uint) error
}

type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository creates a new ArticleRepository.
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) withCounts(db *gorm.DB, viewerID uint) *gorm.DB {
	sel := "articles.*, " + reactionCountsSelect("articles", "article_id") +
		", (SELECT COUNT(*) FROM comments WHERE comments.article_id = articles.id AND comments.is_published = ?) AS comments_count"
	if viewerID != 0 {
		return db.Select(sel+", "+myReactionSelect("articles", "article_id"), true, viewerID)
	}
	return db.Select(sel, true)
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	if err := r.db.WithContext(ctx).Omit("Blocks", "Comments", "Reactions").Create(article).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetByID loads the article with its counts and ordered blocks. The result is
// viewer-independent, so it is served through the cache; MyReaction is always zero.
func (r *articleRepository) GetByID(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	err := cache.Aside(ctx, cache.ArticleKey(id), &article, cache.ArticleTTL, func() error {
		err := r.withCounts(r.db.WithContext(ctx), 0).
			Preload("Blocks", func(db *gorm.DB) *gorm.DB {
				return db.Order("sort_order ASC, created_at ASC, id ASC")
			}).
			First(&article, id).Error
		if err != nil {
			return notFoundOr(err, "Article", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) List(ctx context.Context, f ArticleListFilter) ([]*models.Article, error) {
	page := f.Page.normalized()
	q := r.withCounts(r.db.WithContext(ctx).Model(&models.Article{}), f.ViewerID)

	if !f.IncludeHidden {
		now := f.Now
		if now.IsZero() {
			now = time.Now()
		}
		q = q.Where("articles.is_published = ? AND articles.published_at <= ?", true, now.UTC())
	}
	if f.Query != "" {
		q = q.Where(`LOWER(articles.title) LIKE ? ESCAPE '\'`, likePattern(f.Query))
	}

	var articles []*models.Article
	err := q.Order("articles.published_at DESC, articles.id DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&articles).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return articles, nil
}

// Update writes the editable columns only; counts and blocks are left alone.
func (r *articleRepository) Update(ctx context.Context, article *models.Article) error {
	res := r.db.WithContext(ctx).Model(article).
		Select("title", "image_url", "published_at", "is_published", "updated_at").
		Updates(article)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Article", article.ID)
	}
	cache.InvalidateArticle(ctx, article.ID)
	return nil
}

func (r *articleRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Article{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Article", id)
	}
	cache.InvalidateArticle(ctx, id)
	return nil
}
