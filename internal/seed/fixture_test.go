package seed

import (
	"os"
	"path/filepath"
	"testing"

	"newsdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoFixture(t *testing.T) {
	fx, err := DemoFixture()
	require.NoError(t, err)
	require.Len(t, fx.Articles, 3)
	assert.Len(t, fx.Articles[0].Blocks, 3)
	require.Len(t, fx.Articles[0].Comments, 2)
	assert.Len(t, fx.Articles[0].Comments[0].Replies, 1)
	require.NotNil(t, fx.Articles[2].Published)
	assert.False(t, *fx.Articles[2].Published)
}

func TestParseFixture_Rejects(t *testing.T) {
	tests := map[string]string{
		"missing title":  "articles:\n  - blocks: []\n",
		"empty block":    "articles:\n  - title: A\n    blocks:\n      - content: ''\n",
		"bad color":      "articles:\n  - title: A\n    blocks:\n      - content: x\n        background_color: blue\n",
		"no author":      "articles:\n  - title: A\n    comments:\n      - content: hi\n",
		"nested no text": "articles:\n  - title: A\n    comments:\n      - author: 1\n        content: hi\n        replies:\n          - author: 2\n",
		"not yaml":       "articles: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFixture([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fx.yml")
	require.NoError(t, os.WriteFile(path, []byte("articles:\n  - title: From disk\n"), 0o600))

	fx, err := LoadFixture(path)
	require.NoError(t, err)
	require.Len(t, fx.Articles, 1)
	assert.Equal(t, "From disk", fx.Articles[0].Title)

	_, err = LoadFixture(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestApplyFixture(t *testing.T) {
	db := setupDB(t)
	s := NewSeeder(db, Options{RandSeed: 3})
	fx, err := DemoFixture()
	require.NoError(t, err)

	created, err := s.ApplyFixture(fx)
	require.NoError(t, err)
	assert.Len(t, created, 3)

	var draft models.Article
	require.NoError(t, db.Where("title = ?", "Draft - transit budget analysis").First(&draft).Error)
	assert.False(t, draft.IsPublished)

	var blocks []models.Block
	require.NoError(t, db.Where("article_id = ?", created[0].ID).Order("sort_order").Find(&blocks).Error)
	require.Len(t, blocks, 3)
	assert.Equal(t, models.DefaultBlockBackground, blocks[0].BackgroundColor)
	assert.Equal(t, "#f4f7fb", blocks[1].BackgroundColor)
	assert.Equal(t, 2, blocks[2].Order)

	var reply models.Comment
	require.NoError(t, db.Where("parent_id IS NOT NULL").First(&reply).Error)
	assert.Equal(t, uint(1002), reply.UserID)
	assert.EqualValues(t, 3, count(t, db, &models.User{}))

	// Applying again is a no-op.
	again, err := s.ApplyFixture(fx)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.EqualValues(t, 3, count(t, db, &models.Article{}))
}
