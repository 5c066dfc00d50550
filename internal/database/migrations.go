package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SeedUser is the demo account created by SeedData.
var SeedUser = struct {
	Email    string
	Password string
}{
	Email:    "test@example.com",
	Password: "testpassword123",
}

// RunMigrations creates the database schema
func (db *DB) RunMigrations(ctx context.Context) error {
	db.log.Info("running database migrations")

	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	-- remember = true rows back the long-lived remember_token cookie
	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		remember BOOLEAN NOT NULL DEFAULT FALSE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
	`

	_, err := db.Pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	db.log.Info("database migrations completed")
	return nil
}

// SeedData inserts SeedUser if the users table is empty
func (db *DB) SeedData(ctx context.Context) error {
	var count int
	err := db.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check user count: %w", err)
	}

	if count > 0 {
		db.log.Info("database already has users, skipping seed", zap.Int("users", count))
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedUser.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	_, err = db.Pool.Exec(ctx,
		"INSERT INTO users (id, email, password_hash) VALUES ($1, $2, $3)",
		uuid.New(), SeedUser.Email, string(hash))
	if err != nil {
		return fmt.Errorf("failed to create seed user %s: %w", SeedUser.Email, err)
	}

	db.log.Info("seeded demo user", zap.String("email", SeedUser.Email))
	return nil
}
