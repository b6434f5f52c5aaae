package repository

import (
	"context"
	"testing"
	"time"

	"newsdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockRepository_CreateNextAssignsOrder(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewBlockRepository(db)
	ctx := context.Background()

	article := seedArticle(t, db, "Storm", true, time.Now())
	other := seedArticle(t, db, "Other", true, time.Now())

	for i, content := range []string{"one", "two", "three"} {
		b := &models.Block{ArticleID: article.ID, Content: content, BackgroundColor: models.DefaultBlockBackground}
		require.NoError(t, repo.CreateNext(ctx, b))
		assert.Equal(t, i, b.Order)
	}

	first := &models.Block{ArticleID: other.ID, Content: "solo", BackgroundColor: models.DefaultBlockBackground}
	require.NoError(t, repo.CreateNext(ctx, first))
	assert.Equal(t, 0, first.Order)

	blocks, err := repo.ListByArticle(ctx, article.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, "one", blocks[0].Content)
	assert.Equal(t, "three", blocks[2].Content)
}

func TestBlockRepository_ListTiesKeepCreationOrder(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewBlockRepository(db)
	ctx := context.Background()

	article := seedArticle(t, db, "Ties", true, time.Now())
	base := time.Now().UTC()
	require.NoError(t, db.Create(&models.Block{ArticleID: article.ID, Content: "late", Order: 1, BackgroundColor: "#000000", CreatedAt: base.Add(time.Second)}).Error)
	require.NoError(t, db.Create(&models.Block{ArticleID: article.ID, Content: "early", Order: 1, BackgroundColor: "#000000", CreatedAt: base}).Error)
	require.NoError(t, db.Create(&models.Block{ArticleID: article.ID, Content: "top", Order: 0, BackgroundColor: "#000000", CreatedAt: base.Add(time.Minute)}).Error)

	blocks, err := repo.ListByArticle(ctx, article.ID)
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, []string{"top", "early", "late"}, []string{blocks[0].Content, blocks[1].Content, blocks[2].Content})
}

func TestBlockRepository_UpdateAndDelete(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewBlockRepository(db)
	ctx := context.Background()

	article := seedArticle(t, db, "Edit", true, time.Now())
	other := seedArticle(t, db, "Elsewhere", true, time.Now())
	block := &models.Block{ArticleID: article.ID, Content: "draft", BackgroundColor: models.DefaultBlockBackground}
	require.NoError(t, repo.CreateNext(ctx, block))

	block.Content = "final"
	block.BackgroundColor = "#112233"
	block.Order = 4
	require.NoError(t, repo.Update(ctx, block))

	got, err := repo.GetByID(ctx, block.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Content)
	assert.Equal(t, "#112233", got.BackgroundColor)
	assert.Equal(t, 4, got.Order)

	// article_id is not an editable column
	moved := *got
	moved.ArticleID = other.ID
	require.NoError(t, repo.Update(ctx, &moved))
	got, err = repo.GetByID(ctx, block.ID)
	require.NoError(t, err)
	assert.Equal(t, article.ID, got.ArticleID)

	require.NoError(t, repo.Delete(ctx, block.ID))
	_, err = repo.GetByID(ctx, block.ID)
	assert.True(t, models.IsNotFound(err))
	assert.True(t, models.IsNotFound(repo.Delete(ctx, block.ID)))
}
