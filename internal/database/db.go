package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DB wraps the connection pool shared by the repositories.
type DB struct {
	Pool *pgxpool.Pool
	log  *zap.Logger
}

// New connects to databaseURL and verifies the connection.
func New(databaseURL string, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool, log: log.Named("database")}, nil
}

// FromPool wraps an existing pool, e.g. one opened by a test container.
func FromPool(pool *pgxpool.Pool, log *zap.Logger) *DB {
	if log == nil {
		log = zap.NewNop()
	}
	return &DB{Pool: pool, log: log.Named("database")}
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

func (db *DB) Close() {
	db.Pool.Close()
}
