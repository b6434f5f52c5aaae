// Command migrate manages the newsdesk schema: embedded SQL migrations,
// GORM automigration for local databases, status and single-step rollback.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"newsdesk/internal/config"
	"newsdesk/internal/database"
)

var (
	dryRun = flag.Bool("dry-run", false, "up: list pending migrations without applying them")
	force  = flag.Bool("force", false, "down: allow rollback in production")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: go run ./cmd/migrate [-dry-run] [-force] <up|auto|status|down> [version]")
		fmt.Fprintln(os.Stderr, "  down without a version rolls back the newest applied migration")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(strings.ToLower(strings.TrimSpace(flag.Arg(0))), flag.Args()[1:]); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func run(command string, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	ctx := context.Background()

	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status: %w", err)
	}

	switch command {
	case "up":
		if !status.WillRunSQL {
			return fmt.Errorf("DB_SCHEMA_MODE=%s on %s does not use SQL migrations; use auto", status.Mode, db.Dialector.Name())
		}
		if *dryRun {
			printPending(status)
			return nil
		}
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Printf("✅ applied %d migration(s)", len(status.PendingMigrations))

	case "auto":
		cfg.DBSchemaMode = config.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}
		log.Println("✅ models automigrated")

	case "status":
		log.Printf("mode=%s env=%s dialect=%s sql=%t automigrate=%t",
			status.Mode, status.Environment, db.Dialector.Name(), status.WillRunSQL, status.WillRunAutoMigrate)
		for _, v := range status.AppliedVersions {
			log.Printf("  applied  %s", describe(v))
		}
		printPending(status)

	case "down":
		if cfg.IsProduction() && !*force {
			return fmt.Errorf("refusing to roll back in %q without -force", cfg.Env)
		}
		version, err := rollbackTarget(status, args)
		if err != nil {
			return err
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Printf("✅ rolled back %s", describe(version))

	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func rollbackTarget(status *database.SchemaStatus, args []string) (int, error) {
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		return v, nil
	}
	if len(status.AppliedVersions) == 0 {
		return 0, fmt.Errorf("no applied migrations to roll back")
	}
	return status.AppliedVersions[len(status.AppliedVersions)-1], nil
}

func printPending(status *database.SchemaStatus) {
	if len(status.PendingMigrations) == 0 {
		log.Println("  schema is up to date")
		return
	}
	for _, m := range status.PendingMigrations {
		log.Printf("  pending  %s", m.String())
	}
}

func describe(version int) string {
	if m := database.GetMigrationByVersion(version); m != nil {
		return m.String()
	}
	return fmt.Sprintf("%06d (unknown to this build)", version)
}
