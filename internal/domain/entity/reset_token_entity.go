package entity

import "time"

// PasswordResetToken is a one-time code issued by the forgot-password flow.
// It validates only while unused and before ExpiresAt.
type PasswordResetToken struct {
	ID        int64
	Email     string
	Token     string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Valid reports whether the token can still be consumed at now.
func (t *PasswordResetToken) Valid(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
