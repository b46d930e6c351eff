package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/smartagricare-api/internal/domain/entity"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when an email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	// Create inserts a user and fills in its ID and CreatedAt.
	Create(ctx context.Context, u *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	// UpdatePassword is a no-op when the email is unknown.
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	// UpdateProfile reports false and writes nothing when fields is empty.
	UpdateProfile(ctx context.Context, userID int64, fields entity.ProfileFields) (bool, error)
}
