// Package helpers provides narrowly-scoped utilities for E2E testing.
//
// The db helper gives tests direct PostgreSQL access to the sandbox app's
// users and sessions tables.
package helpers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBHelper provides direct PostgreSQL query capabilities for E2E tests.
//
// Use this helper to:
//   - Check which sessions a login created
//   - Remove users a test registered
type DBHelper struct {
	pool *pgxpool.Pool
}

// NewDBHelper creates a new database helper wrapping the given connection pool.
//
// The pool should be configured to connect to the test database, not production.
// Callers are responsible for closing the pool when tests are complete.
func NewDBHelper(pool *pgxpool.Pool) *DBHelper {
	return &DBHelper{pool: pool}
}

// Query executes a SELECT query and returns the resulting rows.
//
//	rows, err := db.Query(ctx, "SELECT token FROM sessions WHERE user_id = $1", userID)
//	if err != nil {
//	    return err
//	}
//	defer rows.Close()
//
// The caller is responsible for closing the returned Rows.
func (h *DBHelper) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return h.pool.Query(ctx, sql, args...)
}

// Exec executes a non-SELECT query (INSERT, UPDATE, DELETE, etc).
//
//	tag, err := db.Exec(ctx, "DELETE FROM users WHERE email = $1", email)
func (h *DBHelper) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return h.pool.Exec(ctx, sql, args...)
}

// SessionCount returns how many unexpired sessions the user with email has,
// split into plain and remembered ones.
//
//	plain, remembered, err := db.SessionCount(ctx, "test@example.com")
func (h *DBHelper) SessionCount(ctx context.Context, email string) (plain, remembered int, err error) {
	err = h.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE NOT s.remember),
			COUNT(*) FILTER (WHERE s.remember)
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE u.email = $1 AND s.expires_at > NOW()
	`, email).Scan(&plain, &remembered)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return plain, remembered, nil
}
