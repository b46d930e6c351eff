package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oksasatya/smartagricare-api/internal/domain/entity"
	"github.com/oksasatya/smartagricare-api/internal/domain/repository"
)

type ResetTokenRepository struct {
	db dbtx
}

func NewResetTokenRepository(db dbtx) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

func (r *ResetTokenRepository) Create(ctx context.Context, email, token string, expiresAt time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (email, token, expires_at, used, created_at)
		VALUES (?, ?, ?, 0, ?)
	`, email, token, formatTime(expiresAt), formatTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("insert reset token: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reset token id: %w", err)
	}
	return id, nil
}

// FindValid loads the newest unused token for the (email, token) pair and
// returns it only while it is still valid at now.
func (r *ResetTokenRepository) FindValid(ctx context.Context, email, token string, now time.Time) (*entity.PasswordResetToken, error) {
	var (
		tok                  entity.PasswordResetToken
		expiresAt, createdAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, token, expires_at, used, created_at
		FROM password_reset_tokens
		WHERE email = ? AND token = ? AND used = 0
		ORDER BY id DESC
		LIMIT 1
	`, email, token).Scan(&tok.ID, &tok.Email, &tok.Token, &expiresAt, &tok.Used, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find reset token: %w", err)
	}
	if tok.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, fmt.Errorf("find reset token: %w", err)
	}
	if tok.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("find reset token: %w", err)
	}
	if !tok.Valid(now) {
		return nil, repository.ErrNotFound
	}
	return &tok, nil
}

func (r *ResetTokenRepository) MarkUsed(ctx context.Context, tokenID int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE password_reset_tokens SET used = 1 WHERE id = ?`, tokenID); err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}
	return nil
}

var _ repository.ResetTokenRepository = (*ResetTokenRepository)(nil)
