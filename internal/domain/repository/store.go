package repository

import "context"

// Store is the unit of work over all persisted entities. It is the only
// writer of users, reports and reset tokens.
type Store interface {
	Users() UserRepository
	Reports() ReportRepository
	ResetTokens() ResetTokenRepository
	// WithTx runs fn against a transactional Store. The transaction commits
	// when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}
