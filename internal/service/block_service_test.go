package service

import (
	"context"
	"testing"
	"time"

	"newsdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestBlockService_CreateBlock(t *testing.T) {
	t.Parallel()

	var created *models.Block
	blocks := noopBlockRepo()
	blocks.createNextFn = func(_ context.Context, b *models.Block) error {
		b.ID = 9
		b.Order = 3
		created = b
		return nil
	}
	svc := NewBlockService(blocks, publishedArticleRepo())
	ctx := context.Background()

	_, err := svc.CreateBlock(ctx, 1, BlockInput{Content: "x"}, models.Capabilities{})
	assertForbiddenError(t, err)

	tests := []struct {
		name string
		in   BlockInput
	}{
		{"empty content", BlockInput{Content: "  "}},
		{"bad color word", BlockInput{Content: "x", BackgroundColor: "red"}},
		{"short hex", BlockInput{Content: "x", BackgroundColor: "#fff"}},
		{"negative order", BlockInput{Content: "x", Order: intPtr(-1)}},
	}
	for _, tt := range tests {
		_, err := svc.CreateBlock(ctx, 1, tt.in, admin)
		assertValidationError(t, err)
	}
	assert.Nil(t, created)

	b, err := svc.CreateBlock(ctx, 1, BlockInput{Title: " Intro ", Content: "Text", Order: intPtr(7)}, admin)
	require.NoError(t, err)
	assert.Equal(t, uint(9), b.ID)
	assert.Equal(t, "Intro", b.Title)
	assert.Equal(t, models.DefaultBlockBackground, b.BackgroundColor)
	assert.Equal(t, 3, b.Order, "order is assigned by the repository")
	assert.Equal(t, uint(1), b.ArticleID)
}

func TestBlockService_CreateBlock_MissingArticle(t *testing.T) {
	t.Parallel()

	articles := publishedArticleRepo()
	articles.getByIDFn = func(_ context.Context, id uint) (*models.Article, error) {
		return nil, models.NewNotFoundError("Article", id)
	}
	svc := NewBlockService(noopBlockRepo(), articles)
	_, err := svc.CreateBlock(context.Background(), 77, BlockInput{Content: "x"}, admin)
	assertNotFoundError(t, err)
}

func TestBlockService_UpdateBlock(t *testing.T) {
	t.Parallel()

	var saved *models.Block
	blocks := noopBlockRepo()
	blocks.getByIDFn = func(_ context.Context, id uint) (*models.Block, error) {
		return &models.Block{ID: id, ArticleID: 4, Order: 2, Content: "old", BackgroundColor: "#000000"}, nil
	}
	blocks.updateFn = func(_ context.Context, b *models.Block) error {
		saved = b
		return nil
	}
	svc := NewBlockService(blocks, publishedArticleRepo())
	ctx := context.Background()

	_, err := svc.UpdateBlock(ctx, 3, BlockInput{Content: "new"}, models.Capabilities{})
	assertForbiddenError(t, err)

	b, err := svc.UpdateBlock(ctx, 3, BlockInput{Content: "new", BackgroundColor: "#A1b2C3"}, admin)
	require.NoError(t, err)
	assert.Equal(t, saved, b)
	assert.Equal(t, "new", b.Content)
	assert.Equal(t, "#A1b2C3", b.BackgroundColor)
	assert.Equal(t, 2, b.Order)
	assert.Equal(t, uint(4), b.ArticleID)

	b, err = svc.UpdateBlock(ctx, 3, BlockInput{Content: "new", Order: intPtr(0)}, admin)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Order)
}

func TestBlockService_ListAndDelete(t *testing.T) {
	t.Parallel()

	articles := publishedArticleRepo()
	articles.getByIDFn = func(_ context.Context, id uint) (*models.Article, error) {
		return &models.Article{ID: id, IsPublished: id != 2}, nil
	}
	blocks := noopBlockRepo()
	blocks.listFn = func(_ context.Context, articleID uint) ([]models.Block, error) {
		return []models.Block{{ID: 1, ArticleID: articleID}}, nil
	}
	deleted := uint(0)
	blocks.deleteFn = func(_ context.Context, id uint) error {
		deleted = id
		return nil
	}
	svc := NewBlockService(blocks, articles)
	svc.now = fixedClock(time.Now())
	ctx := context.Background()

	list, err := svc.ListBlocks(ctx, 1, models.Capabilities{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.ListBlocks(ctx, 2, models.Capabilities{})
	assertNotFoundError(t, err)
	_, err = svc.ListBlocks(ctx, 2, admin)
	assert.NoError(t, err)

	assertForbiddenError(t, svc.DeleteBlock(ctx, 5, models.Capabilities{}))
	require.NoError(t, svc.DeleteBlock(ctx, 5, admin))
	assert.Equal(t, uint(5), deleted)
}
