package models

import (
	"time"
)

// User is an account that can log in through the form.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session is a server-side login. Remember sessions back the
// remember_token cookie and outlive the browser session.
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Remember  bool      `json:"remember"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// LoginRequest is the login form submission.
type LoginRequest struct {
	Email      string `form:"email" validate:"required,email"`
	Password   string `form:"password" validate:"required,min=8"`
	RememberMe bool   `form:"remember_me"`
}

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email" example:"new@example.com"`
	Password string `json:"password" validate:"required,min=8" example:"longenough1"`
}

// UserResponse is returned by POST /api/users.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"ok"`
}
