package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gti/pagekit/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create stores a session
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (token, user_id, remember, expires_at)
		 VALUES ($1, $2::uuid, $3, $4)`,
		s.Token, s.UserID, s.Remember, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Get retrieves a session with its user's email, expired or not
func (r *SessionRepository) Get(ctx context.Context, token string) (*models.Session, error) {
	s := &models.Session{Token: token}
	err := r.pool.QueryRow(ctx,
		`SELECT s.user_id::text, u.email, s.remember, s.expires_at
		 FROM sessions s
		 JOIN users u ON u.id = s.user_id
		 WHERE s.token = $1`, token).Scan(
		&s.UserID, &s.Email, &s.Remember, &s.ExpiresAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return s, nil
}

// Delete removes a session (logout)
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes expired sessions and reports how many were removed
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to clean sessions: %w", err)
	}
	return result.RowsAffected(), nil
}
