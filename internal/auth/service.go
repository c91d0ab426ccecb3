package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusfind/campusfind/internal/database"
	"github.com/campusfind/campusfind/pkg/models"
)

const bcryptCost = 12

// Service handles authentication operations.
type Service struct {
	db            *database.DB
	sessionMaxAge time.Duration
}

// New creates a new auth service.
func New(db *database.DB, sessionMaxAge time.Duration) *Service {
	return &Service{db: db, sessionMaxAge: sessionMaxAge}
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// Signup registers a new user with a hashed password.
func (s *Service) Signup(email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if _, err := s.db.GetUserByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		LastLoginAt:  now,
	}
	if err := s.db.CreateUser(user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and creates a new session.
// Returns the session ID (used as cookie value).
func (s *Service) Login(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.db.GetUserByEmail(email)
	if errors.Is(err, database.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now().UTC()
	session := &models.Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionMaxAge),
		CreatedAt: now,
	}
	if err := s.db.CreateSession(session); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	if err := s.db.TouchUserLogin(user.ID); err != nil {
		return "", fmt.Errorf("update last login: %w", err)
	}
	return session.ID, nil
}

// ValidateSession looks up a session by ID and returns the associated
// user. Returns (nil, nil) when the session does not exist or expired.
func (s *Service) ValidateSession(sessionID string) (*models.User, error) {
	session, err := s.db.GetSession(sessionID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	user, err := s.db.GetUser(session.UserID)
	if errors.Is(err, database.ErrNotFound) {
		// Orphaned session, clean it up.
		_ = s.db.DeleteSession(sessionID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Logout deletes a session.
func (s *Service) Logout(sessionID string) error {
	return s.db.DeleteSession(sessionID)
}

// CleanExpiredSessions removes all expired sessions from the database.
func (s *Service) CleanExpiredSessions() error {
	return s.db.DeleteExpiredSessions()
}
