// Command createadmin bootstraps an administrator account so products can be
// managed before any other user exists.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/lqhuy/marketplace/internal/adapter/storage"
	"github.com/lqhuy/marketplace/internal/core/domain"
)

func main() {
	username := flag.String("username", "admin", "admin username")
	email := flag.String("email", "admin@marketplace.local", "admin email")
	password := flag.String("password", "", "admin password (required)")
	flag.Parse()

	if *password == "" {
		log.Fatal("missing required -password flag")
	}

	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/marketplace?parseTime=true&multiStatements=true"
	}
	migrationsDir := os.Getenv("MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "internal/adapter/storage/migrations"
	}

	db, err := storage.Open(dsn)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db, migrationsDir); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := storage.NewMySQLUserStore(db)
	existing, err := users.GetUserByUsername(ctx, *username)
	if err != nil {
		log.Fatalf("failed to look up user: %v", err)
	}
	if existing != nil {
		log.Printf("user %q already exists (role %s), nothing to do", existing.Username, existing.Role)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	admin := domain.User{
		ID:           uuid.New().String(),
		Username:     *username,
		Email:        *email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := users.CreateUser(ctx, admin); err != nil {
		log.Fatalf("failed to create admin: %v", err)
	}

	log.Printf("created admin user %q (%s)", admin.Username, admin.ID)
}
