package repository

import (
	"testing"
	"time"

	"newsdesk/internal/database"
	"newsdesk/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLiteDB opens a migrated in-memory database for behavioural tests.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id uint, name string) *models.User {
	t.Helper()
	u := &models.User{ID: id, Username: name}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedArticle(t *testing.T, db *gorm.DB, title string, published bool, at time.Time) *models.Article {
	t.Helper()
	a := &models.Article{Title: title, IsPublished: published, PublishedAt: at}
	require.NoError(t, db.Create(a).Error)
	return a
}
