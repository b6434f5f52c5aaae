package repository

import (
	"context"

	"newsdesk/internal/cache"
	"newsdesk/internal/models"

	"gorm.io/gorm"
)

// BlockRepository defines persistence operations for article blocks.
type BlockRepository interface {
	ListByArticle(ctx context.Context, articleID uint) ([]models.Block, error)
	GetByID(ctx context.Context, id uint) (*models.Block, error)
	// CreateNext appends the block after the article's last one.
	CreateNext(ctx context.Context, block *models.Block) error
	Update(ctx context.Context, block *models.Block) error
	Delete(ctx context.Context, id uint) error
}

type blockRepository struct {
	db *gorm.DB
}

// NewBlockRepository creates a new BlockRepository.
func NewBlockRepository(db *gorm.DB) BlockRepository {
	return &blockRepository{db: db}
}

func (r *blockRepository) ListByArticle(ctx context.Context, articleID uint) ([]models.Block, error) {
	var blocks []models.Block
	err := r.db.WithContext(ctx).
		Where("article_id = ?", articleID).
		Order("sort_order ASC, created_at ASC, id ASC").
		Find(&blocks).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return blocks, nil
}

func (r *blockRepository) GetByID(ctx context.Context, id uint) (*models.Block, error) {
	var block models.Block
	if err := r.db.WithContext(ctx).First(&block, id).Error; err != nil {
		return nil, notFoundOr(err, "Block", id)
	}
	return &block, nil
}

// CreateNext sets Order to one past the highest existing order, or 0 for the
// first block. Concurrent creates may share an order; ties are broken by created_at.
func (r *blockRepository) CreateNext(ctx context.Context, block *models.Block) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int
		if err := tx.Model(&models.Block{}).
			Where("article_id = ?", block.ArticleID).
			Select("COALESCE(MAX(sort_order) + 1, 0)").
			Scan(&next).Error; err != nil {
			return err
		}
		block.Order = next
		return tx.Create(block).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateArticle(ctx, block.ArticleID)
	return nil
}

// Update writes the editable columns; the owning article never changes.
func (r *blockRepository) Update(ctx context.Context, block *models.Block) error {
	res := r.db.WithContext(ctx).Model(block).
		Select("title", "content", "image_url", "sort_order", "background_color", "updated_at").
		Updates(block)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Block", block.ID)
	}
	cache.InvalidateArticle(ctx, block.ArticleID)
	return nil
}

func (r *blockRepository) Delete(ctx context.Context, id uint) error {
	var block models.Block
	if err := r.db.WithContext(ctx).Select("id", "article_id").First(&block, id).Error; err != nil {
		return notFoundOr(err, "Block", id)
	}
	if err := r.db.WithContext(ctx).Delete(&block).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateArticle(ctx, block.ArticleID)
	return nil
}
