package application

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/smartagricare-api/internal/infrastructure/sqlite"
	"github.com/oksasatya/smartagricare-api/pkg/helpers"
)

type sentOTP struct {
	Name, Email, Code string
	ExpiresAt         time.Time
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentOTP
	err  error
}

func (f *fakeNotifier) SendResetOTP(_ context.Context, name, email, code string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentOTP{Name: name, Email: email, Code: code, ExpiresAt: expiresAt})
	return f.err
}

func (f *fakeNotifier) last(t *testing.T) sentOTP {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

var errBoom = errors.New("boom")

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "agricare.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newAccountService(t *testing.T, expose bool) (*AccountService, *fakeNotifier, *sqlite.Store) {
	t.Helper()
	store := openStore(t)
	n := &fakeNotifier{}
	jwt := helpers.NewJWTManager("test-secret", time.Hour, "smartagricare-test")
	svc := NewAccountService(store, jwt, n, nil, nil, AccountOptions{
		BcryptCost:     bcrypt.MinCost,
		ResetOTPTTL:    15 * time.Minute,
		ExposeResetOTP: expose,
	})
	return svc, n, store
}
