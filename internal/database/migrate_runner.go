package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"newsdesk/internal/middleware"

	"gorm.io/gorm"
)

// migrationLockKey serializes migration runs across API replicas that boot together.
const migrationLockKey int64 = 0x6e657773 // "news"

// MigrationLog is a record of an applied migration. Checksum is the sha256 of
// the up script as applied; rows written before checksums existed leave it empty.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (MigrationLog) TableName() string {
	return "migration_logs"
}

// Checksum fingerprints the up script so edits to applied migrations are caught.
func (m Migration) Checksum() string {
	sum := sha256.Sum256([]byte(m.UpScript))
	return hex.EncodeToString(sum[:])
}

type migrationRunner struct {
	db         *gorm.DB
	registered []Migration
}

func newMigrationRunner(db *gorm.DB, registered []Migration) *migrationRunner {
	return &migrationRunner{db: db, registered: registered}
}

// RunMigrations applies every embedded migration that is not yet recorded.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	return newMigrationRunner(db, migrations).up(ctx)
}

// RollbackMigration reverts version, which must be the newest applied migration.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return newMigrationRunner(db, migrations).down(ctx, version)
}

func (r *migrationRunner) ensureLogTable(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&MigrationLog{}); err != nil {
		return fmt.Errorf("failed to ensure migration logs table: %w", err)
	}
	return nil
}

func (r *migrationRunner) applied(ctx context.Context, db *gorm.DB) ([]MigrationLog, error) {
	var logs []MigrationLog
	if err := db.WithContext(ctx).Order("version ASC").Find(&logs).Error; err != nil {
		if isMissingTableError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	return logs, nil
}

// lock takes a transaction-scoped advisory lock on PostgreSQL. Other dialects
// have a single writer and need none.
func lock(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", migrationLockKey).Error
}

func (r *migrationRunner) up(ctx context.Context) error {
	if err := r.ensureLogTable(ctx); err != nil {
		return err
	}
	logs, err := r.applied(ctx, r.db)
	if err != nil {
		return err
	}
	if err := r.verify(logs); err != nil {
		return err
	}

	done := make(map[int]bool, len(logs))
	for _, l := range logs {
		done[l.Version] = true
	}
	for _, m := range r.registered {
		if done[m.Version] {
			continue
		}
		if err := r.apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// apply runs one migration and records it in the same transaction. The
// version is re-checked under the lock since a replica may have won the race.
func (r *migrationRunner) apply(ctx context.Context, m Migration) error {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lock(tx); err != nil {
			return fmt.Errorf("failed to lock migrations: %w", err)
		}
		var n int64
		if err := tx.Model(&MigrationLog{}).Where("version = ?", m.Version).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if err := tx.Exec(m.UpScript).Error; err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.String(), err)
		}
		applied = true
		return tx.Create(&MigrationLog{Version: m.Version, Name: m.Name, Checksum: m.Checksum()}).Error
	})
	if err != nil {
		return err
	}
	if applied {
		middleware.Logger.InfoContext(ctx, "Migration applied", slog.Int("version", m.Version), slog.String("name", m.Name))
	}
	return nil
}

func (r *migrationRunner) down(ctx context.Context, version int) error {
	var target *Migration
	for i := range r.registered {
		if r.registered[i].Version == version {
			target = &r.registered[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lock(tx); err != nil {
			return fmt.Errorf("failed to lock migrations: %w", err)
		}
		logs, err := r.applied(ctx, tx)
		if err != nil {
			return err
		}
		if len(logs) == 0 || !containsVersion(logs, version) {
			return fmt.Errorf("migration %d has not been applied", version)
		}
		if newest := logs[len(logs)-1].Version; newest != version {
			return fmt.Errorf("migration %d is not the newest applied (%06d); roll that back first", version, newest)
		}

		middleware.Logger.InfoContext(ctx, "Rolling back migration", slog.Int("version", version), slog.String("name", target.Name))
		if err := tx.Exec(target.DownScript).Error; err != nil {
			return fmt.Errorf("failed to run rollback SQL for migration %s: %w", target.String(), err)
		}
		return tx.Where("version = ?", version).Delete(&MigrationLog{}).Error
	})
}

// verify fails when the database records versions this binary does not ship,
// or when an applied script was edited afterwards.
func (r *migrationRunner) verify(logs []MigrationLog) error {
	versions := make([]int, 0, len(logs))
	for _, l := range logs {
		versions = append(versions, l.Version)
	}
	if err := validateAppliedVersions(versions, r.registered); err != nil {
		return err
	}

	byVersion := make(map[int]Migration, len(r.registered))
	for _, m := range r.registered {
		byVersion[m.Version] = m
	}
	for _, l := range logs {
		if l.Checksum == "" {
			continue
		}
		if m := byVersion[l.Version]; m.Checksum() != l.Checksum {
			return fmt.Errorf("migration %s was modified after it was applied", m.String())
		}
	}
	return nil
}

func validateAppliedVersions(applied []int, registered []Migration) error {
	known := make(map[int]struct{}, len(registered))
	for _, m := range registered {
		known[m.Version] = struct{}{}
	}

	var unknown []int
	for _, version := range applied {
		if _, ok := known[version]; !ok {
			unknown = append(unknown, version)
		}
	}
	if len(unknown) == 0 {
		return nil
	}

	sort.Ints(unknown)
	parts := make([]string, 0, len(unknown))
	for _, version := range unknown {
		parts = append(parts, fmt.Sprintf("%06d", version))
	}
	return fmt.Errorf("migration_logs contains unknown versions not present in code: %s", strings.Join(parts, ", "))
}

func containsVersion(logs []MigrationLog, version int) bool {
	for _, l := range logs {
		if l.Version == version {
			return true
		}
	}
	return false
}

func isMissingTableError(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	msg := err.Error()
	return (strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")) ||
		strings.Contains(msg, "no such table")
}
