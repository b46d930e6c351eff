package application

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func strp(s string) *string { return &s }

func register(t *testing.T, svc *AccountService, name, email, password string) *AuthResult {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterInput{Name: name, Email: email, Password: password})
	require.NoError(t, err)
	return res
}

func TestRegister(t *testing.T) {
	svc, _, _ := newAccountService(t, false)
	ctx := context.Background()

	res := register(t, svc, "  Asha Rao ", "asha@example.com", "password123")
	assert.Positive(t, res.User.ID)
	assert.Equal(t, "Asha Rao", res.User.Name)
	assert.Equal(t, "asha@example.com", res.User.Email)
	assert.Empty(t, res.User.Phone)
	assert.NotEmpty(t, res.Token)

	uid, err := svc.Authenticate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, uid)

	_, err = svc.Register(ctx, RegisterInput{Name: "Other", Email: "asha@example.com", Password: "password456"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newAccountService(t, false)

	cases := map[string]struct {
		in    RegisterInput
		field string
	}{
		"short name":     {RegisterInput{Name: "A", Email: "a@example.com", Password: "password123"}, "name"},
		"blank name":     {RegisterInput{Name: "   ", Email: "a@example.com", Password: "password123"}, "name"},
		"short password": {RegisterInput{Name: "Asha", Email: "a@example.com", Password: "1234567"}, "password"},
		"missing email":  {RegisterInput{Name: "Asha", Password: "password123"}, "email"},
		"bad email":      {RegisterInput{Name: "Asha", Email: "nope", Password: "password123"}, "email"},
		"password bytes": {RegisterInput{Name: "Asha", Email: "a@example.com", Password: strings.Repeat("é", 40)}, "password"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.in)
			require.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAccountService(t, false)
	ctx := context.Background()
	reg := register(t, svc, "Asha Rao", "asha@example.com", "password123")

	res, err := svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)
	uid, err := svc.Authenticate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, uid)

	_, wrongPwd := svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "password124"})
	_, unknown := svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "password123"})
	assert.ErrorIs(t, wrongPwd, ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, ErrInvalidCredentials)
	assert.Equal(t, wrongPwd.Error(), unknown.Error())

	_, err = svc.Login(ctx, LoginInput{Email: "ASHA@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "", Password: "password123"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Login(ctx, LoginInput{Email: "asha@example.com"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogin_DummyHashSharesConfiguredCost(t *testing.T) {
	svc, _, store := newAccountService(t, false)
	register(t, svc, "Asha Rao", "asha@example.com", "password123")
	u, err := store.Users().FindByEmail(context.Background(), "asha@example.com")
	require.NoError(t, err)

	stored, err := bcrypt.Cost([]byte(u.PasswordHash))
	require.NoError(t, err)
	dummy, err := bcrypt.Cost([]byte(svc.dummyHash()))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, stored)
	assert.Equal(t, stored, dummy)
}

func TestAuthenticate_Rejects(t *testing.T) {
	svc, _, _ := newAccountService(t, false)
	_, err := svc.Authenticate("garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRequestPasswordReset_UnknownEmailLooksTheSame(t *testing.T) {
	svc, n, _ := newAccountService(t, false)
	register(t, svc, "Asha Rao", "asha@example.com", "password123")
	ctx := context.Background()

	known, err := svc.RequestPasswordReset(ctx, "asha@example.com")
	require.NoError(t, err)
	unknown, err := svc.RequestPasswordReset(ctx, "ghost@example.com")
	require.NoError(t, err)
	empty, err := svc.RequestPasswordReset(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, known, unknown)
	assert.Equal(t, known, empty)
	assert.Equal(t, ResetMessage, known.Message)
	assert.Empty(t, known.OTP)

	require.Len(t, n.sent, 1)
	assert.Equal(t, "asha@example.com", n.sent[0].Email)
	assert.Equal(t, "Asha Rao", n.sent[0].Name)
	assert.Len(t, n.sent[0].Code, 6)
}

func TestRequestPasswordReset_NotifierFailureStillSucceeds(t *testing.T) {
	svc, n, _ := newAccountService(t, false)
	n.err = errBoom
	register(t, svc, "Asha Rao", "asha@example.com", "password123")

	res, err := svc.RequestPasswordReset(context.Background(), "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, ResetMessage, res.Message)
}

func TestResetPassword_Flow(t *testing.T) {
	svc, n, store := newAccountService(t, false)
	ctx := context.Background()
	register(t, svc, "Asha Rao", "asha@example.com", "password123")

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	_, err := svc.RequestPasswordReset(ctx, "asha@example.com")
	require.NoError(t, err)
	sent := n.last(t)
	assert.Equal(t, now.Add(15*time.Minute), sent.ExpiresAt)

	tok, err := store.ResetTokens().FindValid(ctx, "asha@example.com", sent.Code, now)
	require.NoError(t, err)
	assert.Positive(t, tok.ID)
	assert.True(t, sent.ExpiresAt.Equal(tok.ExpiresAt))

	err = svc.ResetPassword(ctx, ResetPasswordInput{Email: "asha@example.com", OTP: sent.Code, NewPassword: "newpass123"})
	require.NoError(t, err)

	err = svc.ResetPassword(ctx, ResetPasswordInput{Email: "asha@example.com", OTP: sent.Code, NewPassword: "another123"})
	assert.ErrorIs(t, err, ErrInvalidResetToken, "a consumed code must not work twice")

	_, err = svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "newpass123"})
	assert.NoError(t, err)
}

func TestResetPassword_Expired(t *testing.T) {
	svc, n, _ := newAccountService(t, false)
	ctx := context.Background()
	register(t, svc, "Asha Rao", "asha@example.com", "password123")

	now := time.Now().UTC()
	svc.Now = func() time.Time { return now }
	_, err := svc.RequestPasswordReset(ctx, "asha@example.com")
	require.NoError(t, err)
	code := n.last(t).Code

	svc.Now = func() time.Time { return now.Add(15*time.Minute + time.Second) }
	err = svc.ResetPassword(ctx, ResetPasswordInput{Email: "asha@example.com", OTP: code, NewPassword: "newpass123"})
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	_, err = svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "password123"})
	assert.NoError(t, err)
}

func TestResetPassword_WrongEmailOrCode(t *testing.T) {
	svc, n, _ := newAccountService(t, false)
	ctx := context.Background()
	register(t, svc, "Asha Rao", "asha@example.com", "password123")
	register(t, svc, "Ravi", "ravi@example.com", "password123")

	_, err := svc.RequestPasswordReset(ctx, "asha@example.com")
	require.NoError(t, err)
	code := n.last(t).Code
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	err = svc.ResetPassword(ctx, ResetPasswordInput{Email: "ravi@example.com", OTP: code, NewPassword: "newpass123"})
	assert.ErrorIs(t, err, ErrInvalidResetToken)
	err = svc.ResetPassword(ctx, ResetPasswordInput{Email: "asha@example.com", OTP: wrong, NewPassword: "newpass123"})
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	// A failed attempt leaves the code usable.
	err = svc.ResetPassword(ctx, ResetPasswordInput{Email: "asha@example.com", OTP: code, NewPassword: "newpass123"})
	assert.NoError(t, err)
}

func TestResetPassword_Validation(t *testing.T) {
	svc, _, _ := newAccountService(t, false)
	ctx := context.Background()

	err := svc.ResetPassword(ctx, ResetPasswordInput{Email: "asha@example.com", OTP: "12345", NewPassword: "newpass123"})
	assert.ErrorIs(t, err, ErrValidation)
	err = svc.ResetPassword(ctx, ResetPasswordInput{Email: "asha@example.com", OTP: "123456", NewPassword: "short"})
	assert.ErrorIs(t, err, ErrValidation)
	err = svc.ResetPassword(ctx, ResetPasswordInput{Email: "asha@example.com", OTP: "+12345", NewPassword: "newpass123"})
	assert.ErrorIs(t, err, ErrValidation)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "otp")
}

func TestResetPassword_ConcurrentUseConsumesOnce(t *testing.T) {
	svc, n, _ := newAccountService(t, false)
	ctx := context.Background()
	register(t, svc, "Asha Rao", "asha@example.com", "password123")
	_, err := svc.RequestPasswordReset(ctx, "asha@example.com")
	require.NoError(t, err)
	code := n.last(t).Code

	const workers = 5
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.ResetPassword(ctx, ResetPasswordInput{Email: "asha@example.com", OTP: code, NewPassword: "newpass123"})
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidResetToken)
	}
	assert.Equal(t, 1, ok)
}

func TestRequestPasswordReset_ExposesCodeWhenConfigured(t *testing.T) {
	svc, n, _ := newAccountService(t, true)
	ctx := context.Background()
	register(t, svc, "Asha Rao", "asha@example.com", "password123")

	res, err := svc.RequestPasswordReset(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, n.last(t).Code, res.OTP)
	require.NotNil(t, res.ExpiresAt)

	ghost, err := svc.RequestPasswordReset(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.Empty(t, ghost.OTP)
	assert.Equal(t, ResetMessage, ghost.Message)
}

func TestProfile(t *testing.T) {
	svc, _, _ := newAccountService(t, false)
	ctx := context.Background()
	reg := register(t, svc, "Asha Rao", "asha@example.com", "password123")
	uid := reg.User.ID

	p, err := svc.GetProfile(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", p.Name)

	res, err := svc.UpdateProfile(ctx, uid, ProfileInput{Phone: strp(" +91 98450 00000 "), Location: strp("Mysuru")})
	require.NoError(t, err)
	assert.True(t, res.Updated)
	assert.Equal(t, "Asha Rao", res.User.Name)
	assert.Equal(t, "+91 98450 00000", res.User.Phone)
	assert.Equal(t, "Mysuru", res.User.Location)

	res, err = svc.UpdateProfile(ctx, uid, ProfileInput{})
	require.NoError(t, err)
	assert.False(t, res.Updated)
	assert.Equal(t, "Mysuru", res.User.Location)

	_, err = svc.UpdateProfile(ctx, uid, ProfileInput{Name: strp("A")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateProfile(ctx, 0, ProfileInput{Name: strp("Asha")})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.GetProfile(ctx, uid+100)
	assert.ErrorIs(t, err, ErrNotFound)
}

// Register, login, reset and login again for one farmer account.
func TestAccountScenario(t *testing.T) {
	svc, _, store := newAccountService(t, true)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterInput{Name: "Asha Rao", Email: "asha@example.com", Password: "password123"})
	require.NoError(t, err)
	require.NotEmpty(t, reg.Token)

	login, err := svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "password123"})
	require.NoError(t, err)
	uid, err := svc.Authenticate(login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, uid)

	start := time.Now().UTC()
	reset, err := svc.RequestPasswordReset(ctx, "asha@example.com")
	require.NoError(t, err)
	require.Len(t, reset.OTP, 6)
	require.NotNil(t, reset.ExpiresAt)
	assert.WithinDuration(t, start.Add(15*time.Minute), *reset.ExpiresAt, 5*time.Second)

	_, err = store.ResetTokens().FindValid(ctx, "asha@example.com", reset.OTP, time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(ctx, ResetPasswordInput{Email: "asha@example.com", OTP: reset.OTP, NewPassword: "newpass123"}))

	_, err = svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "newpass123"})
	assert.NoError(t, err)
}
