// Package servicetest provides in-memory stores for exercising the auth
// service and handlers without Postgres.
package servicetest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gti/pagekit/internal/models"
	"github.com/gti/pagekit/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Users is an in-memory service.UserStore.
type Users struct {
	mu    sync.Mutex
	byKey map[string]models.User
}

func NewUsers() *Users {
	return &Users{byKey: make(map[string]models.User)}
}

// Add stores a user with a minimum-cost bcrypt hash of password.
func (u *Users) Add(email, password string) models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	user := models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	u.byKey[email] = user
	return user
}

func (u *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byKey[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &user, nil
}

func (u *Users) Create(ctx context.Context, user *models.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.byKey[user.Email]; ok {
		return repository.ErrUserExists
	}
	user.ID = uuid.New().String()
	user.CreatedAt = time.Now()
	u.byKey[user.Email] = *user
	return nil
}

// Sessions is an in-memory service.SessionStore. Email is resolved through
// the Users it was built with.
type Sessions struct {
	mu      sync.Mutex
	users   *Users
	byToken map[string]models.Session
}

func NewSessions(users *Users) *Sessions {
	return &Sessions{users: users, byToken: make(map[string]models.Session)}
}

func (s *Sessions) Create(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byToken[session.Token] = *session
	return nil
}

func (s *Sessions) Get(ctx context.Context, token string) (*models.Session, error) {
	s.mu.Lock()
	session, ok := s.byToken[token]
	s.mu.Unlock()
	if !ok {
		return nil, repository.ErrSessionNotFound
	}

	s.users.mu.Lock()
	for _, u := range s.users.byKey {
		if u.ID == session.UserID {
			session.Email = u.Email
		}
	}
	s.users.mu.Unlock()
	return &session, nil
}

func (s *Sessions) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byToken, token)
	return nil
}

func (s *Sessions) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	now := time.Now()
	for token, session := range s.byToken {
		if session.Expired(now) {
			delete(s.byToken, token)
			n++
		}
	}
	return n, nil
}

// All returns a snapshot of stored sessions.
func (s *Sessions) All() []models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Session, 0, len(s.byToken))
	for _, session := range s.byToken {
		out = append(out, session)
	}
	return out
}
