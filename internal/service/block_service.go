package service

import (
	"context"
	"strings"
	"time"

	"newsdesk/internal/models"
	"newsdesk/internal/repository"
)

type BlockService struct {
	blockRepo   repository.BlockRepository
	articleRepo repository.ArticleRepository
	now         func() time.Time
}

// BlockInput carries the editable block fields. A nil Order keeps the current
// position on update; on create the order is always assigned.
type BlockInput struct {
	Title           string
	Content         string
	ImageURL        string
	Order           *int
	BackgroundColor string
}

func NewBlockService(blockRepo repository.BlockRepository, articleRepo repository.ArticleRepository) *BlockService {
	return &BlockService{
		blockRepo:   blockRepo,
		articleRepo: articleRepo,
		now:         time.Now,
	}
}

func validateBlockInput(in *BlockInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.BackgroundColor = strings.TrimSpace(in.BackgroundColor)

	if strings.TrimSpace(in.Content) == "" {
		return models.NewValidationError("Content is required")
	}
	if len(in.Title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 400 characters)")
	}
	if len(in.ImageURL) > maxImageURLLen {
		return models.NewValidationError("image_url too long (max 500 characters)")
	}
	if in.BackgroundColor == "" {
		in.BackgroundColor = models.DefaultBlockBackground
	}
	if !models.ValidBackgroundColor(in.BackgroundColor) {
		return models.NewValidationError("background_color must be a #rrggbb hex color")
	}
	if in.Order != nil && *in.Order < 0 {
		return models.NewValidationError("order must not be negative")
	}
	return nil
}

// ListBlocks returns the blocks of a visible article in display order.
func (s *BlockService) ListBlocks(ctx context.Context, articleID uint, caps models.Capabilities) ([]models.Block, error) {
	if _, err := visibleArticle(ctx, s.articleRepo, articleID, caps, s.now()); err != nil {
		return nil, err
	}
	return s.blockRepo.ListByArticle(ctx, articleID)
}

// CreateBlock appends a block to the article.
func (s *BlockService) CreateBlock(ctx context.Context, articleID uint, in BlockInput, caps models.Capabilities) (*models.Block, error) {
	if err := requireAdmin(caps); err != nil {
		return nil, err
	}
	if err := validateBlockInput(&in); err != nil {
		return nil, err
	}
	if _, err := s.articleRepo.GetByID(ctx, articleID); err != nil {
		return nil, err
	}

	block := &models.Block{
		ArticleID:       articleID,
		Title:           in.Title,
		Content:         in.Content,
		ImageURL:        in.ImageURL,
		BackgroundColor: in.BackgroundColor,
	}
	if err := s.blockRepo.CreateNext(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

func (s *BlockService) UpdateBlock(ctx context.Context, blockID uint, in BlockInput, caps models.Capabilities) (*models.Block, error) {
	if err := requireAdmin(caps); err != nil {
		return nil, err
	}
	if err := validateBlockInput(&in); err != nil {
		return nil, err
	}
	block, err := s.blockRepo.GetByID(ctx, blockID)
	if err != nil {
		return nil, err
	}

	block.Title = in.Title
	block.Content = in.Content
	block.ImageURL = in.ImageURL
	block.BackgroundColor = in.BackgroundColor
	if in.Order != nil {
		block.Order = *in.Order
	}
	if err := s.blockRepo.Update(ctx, block); err != nil {
		return nil, err
	}
	return block, nil
}

func (s *BlockService) DeleteBlock(ctx context.Context, blockID uint, caps models.Capabilities) error {
	if err := requireAdmin(caps); err != nil {
		return err
	}
	return s.blockRepo.Delete(ctx, blockID)
}
