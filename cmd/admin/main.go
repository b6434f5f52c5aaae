// Package main provides admin management utilities for newsdesk.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"newsdesk/internal/bootstrap"
	"newsdesk/internal/config"
	"newsdesk/internal/database"
	"newsdesk/internal/models"
	"newsdesk/internal/repository"
	"newsdesk/internal/service"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <user_id>     - Grant the admin capability")
	fmt.Println("  go run ./cmd/admin demote <user_id>      - Revoke the admin capability")
	fmt.Println("  go run ./cmd/admin show <user_id>        - Show a mirrored identity")
	fmt.Println("  go run ./cmd/admin list-admins           - List all admins")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// The server caches users; without this a demotion would not reach it
	// until the cached entry expires.
	if rdb := bootstrap.InitCache(cfg); rdb != nil {
		defer func() { _ = rdb.Close() }()
	}
	users := service.NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	switch command := os.Args[1]; command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		id, err := strconv.ParseUint(os.Args[2], 10, 32)
		if err != nil || id == 0 {
			fmt.Printf("Invalid user ID: %s\n", os.Args[2])
			os.Exit(1)
		}
		setAdmin(ctx, users, uint(id), command == "promote")

	case "show":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		id, err := strconv.ParseUint(os.Args[2], 10, 32)
		if err != nil || id == 0 {
			fmt.Printf("Invalid user ID: %s\n", os.Args[2])
			os.Exit(1)
		}
		showUser(ctx, users, uint(id))

	case "list-admins":
		listAdmins(ctx, users)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func setAdmin(ctx context.Context, users *service.UserService, id uint, isAdmin bool) {
	user, err := users.SetAdmin(ctx, id, isAdmin)
	if err != nil {
		if models.IsNotFound(err) {
			fmt.Printf("User with ID %d not found (they must sign in once first)\n", id)
			os.Exit(1)
		}
		log.Fatalf("Database error: %v", err)
	}

	verb := "promoted"
	if !isAdmin {
		verb = "demoted"
	}
	fmt.Printf("✅ Successfully %s %s (ID: %d)\n", verb, user.Username, user.ID)
}

func showUser(ctx context.Context, users *service.UserService, id uint) {
	user, err := users.GetUserByID(ctx, id)
	if err != nil {
		log.Fatalf("Failed to fetch user %d: %v", id, err)
	}
	fmt.Printf("ID: %d\nUsername: %s\nAdmin: %t\nFirst seen: %s\n",
		user.ID, user.Username, user.IsAdmin, user.CreatedAt.Format("2006-01-02 15:04:05"))
}

func listAdmins(ctx context.Context, users *service.UserService) {
	admins, err := users.ListAdmins(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found in the system")
		return
	}

	fmt.Println("\n📋 Current Admins:")
	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Username: %s\n", admin.ID, admin.Username)
	}
	fmt.Println("─────────────────────────────────────")
}
