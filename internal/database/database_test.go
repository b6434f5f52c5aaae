package database

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"newsdesk/internal/config"
	"newsdesk/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openMigrated(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestConfigurePool(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)

	err = configurePool(db, &config.Config{DBMaxOpenConns: 10, DBMaxIdleConns: 5, DBConnMaxLifetimeMinutes: 15})
	assert.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=on", sqliteDSN(""))
	assert.Equal(t, "news.db?_foreign_keys=on", sqliteDSN("news.db"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=on", sqliteDSN("file:x?mode=memory"))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.False(t, IsForeignKeyViolation(nil))
	assert.False(t, IsForeignKeyViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsForeignKeyViolation(gorm.ErrForeignKeyViolated))
	assert.True(t, IsForeignKeyViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"})))
	assert.True(t, IsForeignKeyViolation(errors.New("FOREIGN KEY constraint failed")))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
}

func TestIsForeignKeyViolation_SQLiteInsert(t *testing.T) {
	db := openMigrated(t)
	require.NoError(t, db.Create(&models.User{ID: 1, Username: "u1"}).Error)

	orphan, err := models.NewReaction(1, models.ArticleTarget(999), models.ReactionLike)
	require.NoError(t, err)
	err = db.Omit("User").Create(orphan).Error

	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err), "got %v", err)
}

func TestStatementKind(t *testing.T) {
	assert.Equal(t, "select", statementKind("  SELECT * FROM articles"))
	assert.Equal(t, "insert", statementKind(`INSERT INTO "reactions"`))
	assert.Equal(t, "other", statementKind("PRAGMA foreign_keys"))
}

func TestReactionConstraints(t *testing.T) {
	db := openMigrated(t)

	require.NoError(t, db.Create(&models.User{ID: 1, Username: "u1"}).Error)
	article := models.Article{Title: "a", PublishedAt: time.Now(), IsPublished: true}
	require.NoError(t, db.Create(&article).Error)

	first, err := models.NewReaction(1, models.ArticleTarget(article.ID), models.ReactionLike)
	require.NoError(t, err)
	require.NoError(t, db.Create(first).Error)

	t.Run("second row for same user and article is rejected", func(t *testing.T) {
		dup, err := models.NewReaction(1, models.ArticleTarget(article.ID), models.ReactionDislike)
		require.NoError(t, err)
		err = db.Create(dup).Error
		require.Error(t, err)
		assert.True(t, IsUniqueViolation(err))
	})

	t.Run("dual target row is rejected by the database", func(t *testing.T) {
		aid := article.ID
		cid := uint(999)
		err := db.Exec("INSERT INTO reactions (user_id, reaction_type, article_id, comment_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			1, 1, aid, cid, time.Now(), time.Now()).Error
		assert.Error(t, err)
	})

	t.Run("zero kind is rejected by the database", func(t *testing.T) {
		err := db.Exec("INSERT INTO reactions (user_id, reaction_type, article_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			1, 0, article.ID, time.Now(), time.Now()).Error
		assert.Error(t, err)
	})
}

func TestCascadeDeletes(t *testing.T) {
	db := openMigrated(t)

	require.NoError(t, db.Create(&models.User{ID: 1, Username: "author"}).Error)
	require.NoError(t, db.Create(&models.User{ID: 2, Username: "reader"}).Error)
	article := models.Article{Title: "a", PublishedAt: time.Now(), IsPublished: true}
	require.NoError(t, db.Create(&article).Error)
	require.NoError(t, db.Create(&models.Block{ArticleID: article.ID, Content: "body", BackgroundColor: "#ffffff"}).Error)

	parent := models.Comment{Content: "parent", UserID: 1, ArticleID: article.ID, PublishedAt: time.Now(), IsPublished: true}
	require.NoError(t, db.Create(&parent).Error)
	reply := models.Comment{Content: "reply", UserID: 2, ArticleID: article.ID, ParentID: &parent.ID, PublishedAt: time.Now(), IsPublished: true}
	require.NoError(t, db.Create(&reply).Error)

	onReply, _ := models.NewReaction(1, models.CommentTarget(reply.ID), models.ReactionLike)
	require.NoError(t, db.Create(onReply).Error)
	onArticle, _ := models.NewReaction(2, models.ArticleTarget(article.ID), models.ReactionDislike)
	require.NoError(t, db.Create(onArticle).Error)

	count := func(model interface{}) int64 {
		var n int64
		require.NoError(t, db.Model(model).Count(&n).Error)
		return n
	}

	require.NoError(t, db.Delete(&models.Comment{}, parent.ID).Error)
	assert.Equal(t, int64(0), count(&models.Comment{}), "replies go with their parent")
	assert.Equal(t, int64(1), count(&models.Reaction{}), "reactions on deleted comments go too")

	require.NoError(t, db.Delete(&models.User{}, 2).Error)
	assert.Equal(t, int64(0), count(&models.Reaction{}))

	require.NoError(t, db.Delete(&models.Article{}, article.ID).Error)
	assert.Equal(t, int64(0), count(&models.Block{}))
}
