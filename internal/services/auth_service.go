// Package services – AuthService
//
// This file implements the AuthService, which manages account registration
// and login. It validates input, hashes passwords with bcrypt, and issues
// signed session tokens on success. Persistence goes through the UserRepo
// contract so the service stays testable without a real database.
//
// Service-level errors (e.g., ErrEmailTaken, ErrInvalidCredentials) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/zenbotlabs/zenbot-backend/internal/auth"
	"github.com/zenbotlabs/zenbot-backend/internal/domain"
	"github.com/zenbotlabs/zenbot-backend/internal/repo"
)

// UserRepo defines the repository contract required by AuthService.
type UserRepo interface {
	// CreateUser inserts a new user row with a pre-hashed password.
	CreateUser(ctx context.Context, db *gorm.DB, name, email, passwordHash string) (*domain.User, error)

	// GetUserByEmail fetches a user by exact email match.
	GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error)
}

// TokenIssuer mints signed session tokens for authenticated users.
type TokenIssuer interface {
	IssueToken(userID string) (string, error)
}

// Session is the result of a successful register or login: the account
// together with a bearer token the client presents on subsequent requests.
type Session struct {
	User  *domain.User
	Token string
}

// AuthService provides account-level operations: registration and login.
type AuthService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo UserRepo
	// Issuer signs session tokens.
	Issuer TokenIssuer
}

// NewAuthService constructs an AuthService over the given handle and issuer.
func NewAuthService(db *gorm.DB, r UserRepo, issuer TokenIssuer) *AuthService {
	return &AuthService{DB: db, Repo: r, Issuer: issuer}
}

// Register creates a new account and returns a ready-to-use session.
// The email is trimmed but otherwise stored as given; duplicate detection
// is an exact, case-sensitive match. A duplicate email yields ErrEmailTaken.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u, err := s.Repo.CreateUser(ctx, s.DB, name, email, hash)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	token, err := s.Issuer.IssueToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}

// Login verifies the email/password pair and returns a fresh session.
// Unknown emails and wrong passwords both surface as ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	u, err := s.Repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.Issuer.IssueToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
