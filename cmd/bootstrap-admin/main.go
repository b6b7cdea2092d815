// Command bootstrap-admin creates the first administrator account.
// It is run once during deployment; the server has no self-service
// admin registration.
//
// Usage:
//
//	LICENSE_SIGNING_KEY=... STORE_BACKEND=postgres DB_HOST=... \
//	  bootstrap-admin -username=admin -password=...
//
// When -password is omitted a random one is generated and printed once.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/testmatestudio/licensing/internal/config"
	"github.com/testmatestudio/licensing/internal/infra/postgres"
	"github.com/testmatestudio/licensing/pkg/domain/admin"
	"github.com/testmatestudio/licensing/pkg/domain/shared"
	"github.com/testmatestudio/licensing/pkg/password"
)

func main() {
	username := flag.String("username", "", "Admin username (or set ADMIN_USERNAME env)")
	plaintext := flag.String("password", "", "Admin password (or set ADMIN_PASSWORD env; generated if empty)")
	flag.Parse()

	adminUsername := *username
	if adminUsername == "" {
		adminUsername = os.Getenv("ADMIN_USERNAME")
	}
	if adminUsername == "" {
		fatal("admin username required: use -username or set ADMIN_USERNAME")
	}

	adminPassword := *plaintext
	if adminPassword == "" {
		adminPassword = os.Getenv("ADMIN_PASSWORD")
	}
	generated := false
	if adminPassword == "" {
		var err error
		adminPassword, err = password.GenerateSecureToken(16)
		if err != nil {
			fatal("generate password: %v", err)
		}
		generated = true
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("load configuration: %v", err)
	}
	if cfg.Store.Backend != config.StorePostgres {
		fatal("bootstrap-admin requires STORE_BACKEND=postgres; the memory backend does not survive restarts")
	}

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		fatal("connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.EnsureSchema(ctx); err != nil {
		fatal("apply schema: %v", err)
	}

	hasher := password.New(password.WithCost(cfg.Admin.BcryptCost))
	hash, err := hasher.Hash(adminPassword)
	if err != nil {
		fatal("hash password: %v", err)
	}

	identity, err := admin.NewIdentity(adminUsername, hash)
	if err != nil {
		fatal("create identity: %v", err)
	}

	repo := postgres.NewAdminRepository(db.DB)
	if err := repo.Create(ctx, identity); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			fatal("admin %q already exists", adminUsername)
		}
		fatal("persist admin: %v", err)
	}

	fmt.Printf("Admin account created\n")
	fmt.Printf("  ID:       %s\n", identity.ID())
	fmt.Printf("  Username: %s\n", adminUsername)
	if generated {
		fmt.Printf("  Password: %s\n", adminPassword)
		fmt.Printf("\nStore this password now; it is not recoverable.\n")
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
