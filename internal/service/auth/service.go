package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"log/slog"

	"github.com/splax/accounts/internal/config"
	"github.com/splax/accounts/internal/crypto"
	"github.com/splax/accounts/internal/domain"
	"github.com/splax/accounts/internal/repository"
	"github.com/splax/accounts/internal/token"
)

const minPasswordLength = 6

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Service handles registration, login and token lifecycle.
type Service struct {
	users   repository.UserRepository
	revoked token.Registry
	logger  *slog.Logger
	cfg     config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, revoked token.Registry, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, revoked: revoked, logger: logger, cfg: cfg}
}

// Register validates the payload, stores the new user and issues a token.
// The email is persisted lower-cased, the username keeps its casing.
func (s Service) Register(ctx context.Context, username, email, password string) (*domain.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)

	if username == "" {
		return nil, "", invalid("username is required")
	}
	if email == "" {
		return nil, "", invalid("email is required")
	}
	if password == "" {
		return nil, "", invalid("password is required")
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return nil, "", invalid("invalid email format")
	}
	if len(password) < minPasswordLength {
		return nil, "", invalid("password must be at least 6 characters")
	}
	if !usernamePattern.MatchString(username) {
		return nil, "", invalid("username may only contain letters, numbers, and underscores")
	}

	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, "", ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("check username: %w", err)
	}
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("check email: %w", err)
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	// Races that slip past the pre-checks land on the store constraint and
	// surface as a generic conflict; either column may have been the loser.
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	access, _, err := token.Issue(user.ID, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, access, nil
}

// Login authenticates by email and password and issues a fresh token.
func (s Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)

	if email == "" {
		return nil, "", invalid("email is required")
	}
	if password == "" {
		return nil, "", invalid("password is required")
	}
	if !strings.Contains(email, "@") {
		return nil, "", invalid("invalid email format")
	}

	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	access, _, err := token.Issue(user.ID, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, access, nil
}

// Authorize validates a bearer token's signature, expiry and revocation
// status. It does not touch the user store.
func (s Service) Authorize(raw string) (*token.Claims, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrTokenInvalid
	}
	claims, err := token.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if s.revoked.IsRevoked(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Logout revokes the token behind the given claims. Revoking an already
// revoked jti is a no-op.
func (s Service) Logout(claims *token.Claims) {
	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	s.revoked.Revoke(claims.ID, expiresAt)
	s.logger.Info("token revoked", "jti", claims.ID)
}

// Profile loads the user a validated token points at. A missing row means
// the store and the token disagree; the caller maps that to not-found.
func (s Service) Profile(ctx context.Context, claims *token.Claims) (*domain.User, error) {
	userID, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject: %w", ErrTokenInvalid, err)
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("token subject has no user row", "user_id", userID)
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}
