package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/splax/accounts/internal/config"
	"github.com/splax/accounts/internal/crypto"
	"github.com/splax/accounts/internal/domain"
	"github.com/splax/accounts/internal/repository"
	"github.com/splax/accounts/internal/token"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.APIConfig {
	return config.APIConfig{JWTSecret: "test-secret", AccessTokenTTL: time.Minute}
}

type userRepoMock struct {
	createFunc        func(ctx context.Context, user *domain.User) error
	getByIDFunc       func(ctx context.Context, id int64) (*domain.User, error)
	getByUsernameFunc func(ctx context.Context, username string) (*domain.User, error)
	getByEmailFunc    func(ctx context.Context, email string) (*domain.User, error)
}

func (m userRepoMock) CreateUser(ctx context.Context, user *domain.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	user.ID = 1
	return nil
}

func (m userRepoMock) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, repository.ErrNotFound
}

func (m userRepoMock) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFunc != nil {
		return m.getByUsernameFunc(ctx, username)
	}
	return nil, repository.ErrNotFound
}

func (m userRepoMock) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, repository.ErrNotFound
}

func newService(users repository.UserRepository, revoked token.Registry) Service {
	if revoked == nil {
		revoked = token.NewMemoryRegistry(time.Hour)
	}
	return New(users, revoked, newLogger(), testConfig())
}

func TestRegisterStoresLowercasedEmailAndVerbatimUsername(t *testing.T) {
	var stored *domain.User
	repo := userRepoMock{
		createFunc: func(_ context.Context, user *domain.User) error {
			user.ID = 7
			stored = user
			return nil
		},
	}
	svc := newService(repo, nil)

	user, access, err := svc.Register(context.Background(), "Bob_42", "  Bob@Example.COM ", "hunter2x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored == nil {
		t.Fatalf("expected user to be stored")
	}
	if stored.Email != "bob@example.com" {
		t.Fatalf("expected lower-cased email, got %q", stored.Email)
	}
	if stored.Username != "Bob_42" {
		t.Fatalf("expected username preserved verbatim, got %q", stored.Username)
	}
	if user.ID != 7 {
		t.Fatalf("expected generated id to be filled in, got %d", user.ID)
	}
	if access == "" {
		t.Fatalf("expected access token")
	}
	claims, err := token.Parse(access, "test-secret")
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if userID, _ := claims.UserID(); userID != 7 {
		t.Fatalf("token subject mismatch: %d", userID)
	}
}

func TestRegisterValidationOrder(t *testing.T) {
	repoTouched := false
	repo := userRepoMock{
		getByUsernameFunc: func(context.Context, string) (*domain.User, error) {
			repoTouched = true
			return nil, repository.ErrNotFound
		},
		getByEmailFunc: func(context.Context, string) (*domain.User, error) {
			repoTouched = true
			return nil, repository.ErrNotFound
		},
	}
	svc := newService(repo, nil)

	cases := []struct {
		name     string
		username string
		email    string
		password string
		reason   string
	}{
		{"missing username", "   ", "a@b.com", "secret1", "username is required"},
		{"missing email", "bob", "", "secret1", "email is required"},
		{"missing password", "bob", "a@b.com", "  ", "password is required"},
		{"email without dot", "bob", "a@bcom", "secret1", "invalid email format"},
		{"email without at", "bob", "a.b.com", "secret1", "invalid email format"},
		{"short password", "bob", "a@b.com", "12345", "password must be at least 6 characters"},
		{"bad username charset", "bob!", "a@b.com", "secret1", "username may only contain letters, numbers, and underscores"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repoTouched = false
			_, _, err := svc.Register(context.Background(), tc.username, tc.email, tc.password)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Reason != tc.reason {
				t.Fatalf("unexpected reason: %q", verr.Reason)
			}
			if repoTouched {
				t.Fatalf("store must not be queried for invalid input")
			}
		})
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	repo := userRepoMock{
		getByUsernameFunc: func(_ context.Context, username string) (*domain.User, error) {
			if username == "taken" {
				return &domain.User{ID: 1, Username: "taken"}, nil
			}
			return nil, repository.ErrNotFound
		},
	}
	svc := newService(repo, nil)

	_, _, err := svc.Register(context.Background(), "taken", "new@example.com", "secret1")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegisterRejectsDuplicateEmailCaseInsensitive(t *testing.T) {
	repo := userRepoMock{
		getByEmailFunc: func(_ context.Context, email string) (*domain.User, error) {
			if email != "someone@example.com" {
				t.Fatalf("expected lower-cased lookup, got %q", email)
			}
			return &domain.User{ID: 1, Email: email}, nil
		},
	}
	svc := newService(repo, nil)

	_, _, err := svc.Register(context.Background(), "newuser", "SomeOne@Example.Com", "secret1")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterPropagatesInsertRaceConflict(t *testing.T) {
	repo := userRepoMock{
		createFunc: func(context.Context, *domain.User) error {
			return repository.ErrConflict
		},
	}
	svc := newService(repo, nil)

	_, _, err := svc.Register(context.Background(), "racer", "racer@example.com", "secret1")
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected store conflict to propagate, got %v", err)
	}
	if errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrEmailTaken) {
		t.Fatalf("race conflict must not claim a specific column, got %v", err)
	}
}

func TestLoginSucceedsWithCorrectCredentials(t *testing.T) {
	hash, err := crypto.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	repo := userRepoMock{
		getByEmailFunc: func(_ context.Context, email string) (*domain.User, error) {
			if email != "user@example.com" {
				t.Fatalf("expected lower-cased lookup, got %q", email)
			}
			return &domain.User{ID: 3, Username: "user", Email: email, PasswordHash: hash}, nil
		},
	}
	svc := newService(repo, nil)

	user, access, err := svc.Login(context.Background(), "User@Example.COM", "correct-horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != 3 {
		t.Fatalf("unexpected user id: %d", user.ID)
	}
	if access == "" {
		t.Fatalf("expected access token")
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	hash, err := crypto.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	known := userRepoMock{
		getByEmailFunc: func(_ context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 3, Email: email, PasswordHash: hash}, nil
		},
	}

	_, _, wrongPassword := newService(known, nil).Login(context.Background(), "user@example.com", "wrong")
	_, _, unknownEmail := newService(userRepoMock{}, nil).Login(context.Background(), "ghost@example.com", "whatever")

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPassword)
	}
	if !errors.Is(unknownEmail, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", unknownEmail)
	}
}

func TestAuthorizeRejectsRevokedToken(t *testing.T) {
	registry := token.NewMemoryRegistry(time.Hour)
	defer registry.Close()
	svc := newService(userRepoMock{}, registry)

	access, claims, err := token.Issue(5, "test-secret", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := svc.Authorize(access); err != nil {
		t.Fatalf("expected fresh token to authorize: %v", err)
	}

	svc.Logout(claims)

	if _, err := svc.Authorize(access); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked, got %v", err)
	}
}

func TestAuthorizeRejectsGarbage(t *testing.T) {
	svc := newService(userRepoMock{}, nil)
	if _, err := svc.Authorize(""); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for empty token, got %v", err)
	}
	if _, err := svc.Authorize("not-a-jwt"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for malformed token, got %v", err)
	}
}

func TestProfileReturnsNotFoundForMissingRow(t *testing.T) {
	svc := newService(userRepoMock{}, nil)

	_, claims, err := token.Issue(99, "test-secret", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := svc.Profile(context.Background(), claims); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProfileReturnsUser(t *testing.T) {
	repo := userRepoMock{
		getByIDFunc: func(_ context.Context, id int64) (*domain.User, error) {
			if id != 12 {
				t.Fatalf("unexpected id lookup: %d", id)
			}
			return &domain.User{ID: 12, Username: "dana", Email: "dana@example.com"}, nil
		},
	}
	svc := newService(repo, nil)

	_, claims, err := token.Issue(12, "test-secret", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	user, err := svc.Profile(context.Background(), claims)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Username != "dana" {
		t.Fatalf("unexpected user: %+v", user)
	}
}
