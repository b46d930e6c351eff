package repository

import (
	"context"
	"time"

	"github.com/oksasatya/smartagricare-api/internal/domain/entity"
)

// ResetTokenRepository persists one-time password reset codes.
type ResetTokenRepository interface {
	Create(ctx context.Context, email, token string, expiresAt time.Time) (int64, error)
	// FindValid returns the newest unused token for the exact (email, token)
	// pair if it is still valid at now, or ErrNotFound.
	FindValid(ctx context.Context, email, token string, now time.Time) (*entity.PasswordResetToken, error)
	// MarkUsed is idempotent.
	MarkUsed(ctx context.Context, tokenID int64) error
}
