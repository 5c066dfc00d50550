package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gti/pagekit/internal/models"
	"github.com/gti/pagekit/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionInvalid     = errors.New("invalid or expired session")
	ErrEmailTaken         = errors.New("email already registered")
)

const (
	SessionTTL  = 24 * time.Hour
	RememberTTL = 30 * 24 * time.Hour
)

// UserStore is the subset of repository.UserRepository the service needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// SessionStore is the subset of repository.SessionRepository the service needs.
type SessionStore interface {
	Create(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// LoginResult carries the tokens to hand back as cookies.
type LoginResult struct {
	Email string

	SessionToken   string
	SessionExpires time.Time

	// RememberToken is empty unless remember-me was requested.
	RememberToken   string
	RememberExpires time.Time
}

type AuthService struct {
	users    UserStore
	sessions SessionStore
	log      *zap.Logger
	now      func() time.Time
	cost     int
}

func NewAuthService(users UserStore, sessions SessionStore, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		log:      log.Named("auth"),
		now:      time.Now,
		cost:     bcrypt.DefaultCost,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// WithHashCost sets the bcrypt cost for new passwords.
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.cost = cost
	return s
}

// Login checks the password and opens a session. With remember set it also
// opens a long-lived remember session.
func (s *AuthService) Login(ctx context.Context, email, password string, remember bool) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		s.log.Info("login rejected", zap.String("email", email), zap.String("reason", "unknown user"))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Info("login rejected", zap.String("email", email), zap.String("reason", "wrong password"))
		return nil, ErrInvalidCredentials
	}

	result := &LoginResult{Email: user.Email}

	result.SessionToken, result.SessionExpires, err = s.createSession(ctx, user.ID, false)
	if err != nil {
		return nil, err
	}

	if remember {
		result.RememberToken, result.RememberExpires, err = s.createSession(ctx, user.ID, true)
		if err != nil {
			return nil, err
		}
	}

	s.log.Info("login succeeded", zap.String("email", user.Email), zap.Bool("remember", remember))
	return result, nil
}

func (s *AuthService) createSession(ctx context.Context, userID string, remember bool) (string, time.Time, error) {
	ttl := SessionTTL
	if remember {
		ttl = RememberTTL
	}

	session := &models.Session{
		Token:     uuid.New().String(),
		UserID:    userID,
		Remember:  remember,
		ExpiresAt: s.now().Add(ttl),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", time.Time{}, err
	}
	return session.Token, session.ExpiresAt, nil
}

// ValidateSession returns the email behind a session_token.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (string, error) {
	session, err := s.lookup(ctx, token)
	if err != nil {
		return "", err
	}
	if session.Remember {
		return "", ErrSessionInvalid
	}
	return session.Email, nil
}

// ResumeSession trades a valid remember_token for a fresh session.
func (s *AuthService) ResumeSession(ctx context.Context, rememberToken string) (*LoginResult, error) {
	session, err := s.lookup(ctx, rememberToken)
	if err != nil {
		return nil, err
	}
	if !session.Remember {
		return nil, ErrSessionInvalid
	}

	token, expires, err := s.createSession(ctx, session.UserID, false)
	if err != nil {
		return nil, err
	}

	s.log.Info("session resumed from remember token", zap.String("email", session.Email))
	return &LoginResult{
		Email:           session.Email,
		SessionToken:    token,
		SessionExpires:  expires,
		RememberToken:   rememberToken,
		RememberExpires: session.ExpiresAt,
	}, nil
}

func (s *AuthService) lookup(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}

	session, err := s.sessions.Get(ctx, token)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, ErrSessionInvalid
	}
	if err != nil {
		return nil, err
	}

	if session.Expired(s.now()) {
		if err := s.sessions.Delete(ctx, token); err != nil {
			s.log.Warn("failed to delete expired session", zap.Error(err))
		}
		return nil, ErrSessionInvalid
	}

	return session, nil
}

// Logout deletes every non-empty token given.
func (s *AuthService) Logout(ctx context.Context, tokens ...string) error {
	for _, token := range tokens {
		if token == "" {
			continue
		}
		if err := s.sessions.Delete(ctx, token); err != nil {
			return err
		}
	}
	return nil
}

// Register creates a user with a bcrypt hash of password.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Email: email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.log.Info("user registered", zap.String("email", email))
	return user, nil
}

// CleanExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanExpiredSessions(ctx context.Context) error {
	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Debug("expired sessions removed", zap.Int64("count", n))
	}
	return nil
}
