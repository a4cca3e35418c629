package repository

import (
	"context"

	"github.com/splax/accounts/internal/domain"
)

// UserRepository persists account records.
type UserRepository interface {
	// CreateUser inserts the user inside a transaction and fills in the
	// generated id. Unique violations surface as ErrConflict.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	// GetUserByUsername matches the username exactly (case-sensitive).
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	// GetUserByEmail expects an already lower-cased email.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}
