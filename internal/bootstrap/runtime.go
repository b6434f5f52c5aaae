// Package bootstrap wires the process-level dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"newsdesk/internal/cache"
	"newsdesk/internal/config"
	"newsdesk/internal/database"
	"newsdesk/internal/middleware"
	"newsdesk/internal/models"
	"newsdesk/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Options control runtime initialization behavior.
type Options struct {
	// ApplySchema runs migrations per DB_SCHEMA_MODE after connecting
	ApplySchema bool
	// SeedDemo loads the bundled demo fixture when SEED_DEMO_CONTENT is set
	SeedDemo bool
}

// InitRuntime connects to DB and Redis and prepares the schema and bootstrap data.
// The returned Redis client is nil when none is configured or reachable.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	if opts.ApplySchema {
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return nil, nil, fmt.Errorf("schema setup failed: %w", err)
		}
	}

	r := InitCache(cfg)

	if err := EnsureBootstrapAdmin(ctx, cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	if opts.SeedDemo && cfg.SeedDemoContent {
		if err := seedDemo(db); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo content: %w", err)
		}
	}

	return db, r, nil
}

// InitCache connects Redis and switches the shared cache on when CACHE_ENABLED
// allows it. Commands that write users must call it so their invalidations
// reach the cache the server reads from. Returns nil without Redis.
func InitCache(cfg *config.Config) *redis.Client {
	var r *redis.Client
	if cfg.RedisURL != "" {
		r = cache.InitRedis(cfg.RedisURL)
	}
	cache.SetEnabled(cfg.CacheEnabled && r != nil)
	return r
}

// EnsureBootstrapAdmin mirrors BOOTSTRAP_ADMIN_ID as a user and grants it
// the admin capability. Existing usernames are left alone.
func EnsureBootstrapAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil || cfg.BootstrapAdminID == 0 {
		return nil
	}

	username := strings.TrimSpace(cfg.BootstrapAdminUsername)
	if username == "" {
		username = "editor"
	}

	admin := models.User{ID: cfg.BootstrapAdminID, Username: username, IsAdmin: true}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{"is_admin": true}),
	}).Create(&admin).Error; err != nil {
		return err
	}
	cache.InvalidateUser(ctx, admin.ID)

	middleware.Logger.Info("bootstrap admin ensured", slog.Uint64("user_id", uint64(cfg.BootstrapAdminID)))
	return nil
}

func seedDemo(db *gorm.DB) error {
	fx, err := seed.DemoFixture()
	if err != nil {
		return err
	}
	created, err := seed.NewSeeder(db, seed.Options{}).ApplyFixture(fx)
	if err != nil {
		return err
	}
	if len(created) > 0 {
		middleware.Logger.Info("demo content loaded", slog.Int("articles", len(created)))
	}
	return nil
}
