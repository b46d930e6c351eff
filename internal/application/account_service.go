package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/smartagricare-api/internal/domain/entity"
	repo "github.com/oksasatya/smartagricare-api/internal/domain/repository"
	"github.com/oksasatya/smartagricare-api/pkg/helpers"
	"github.com/oksasatya/smartagricare-api/pkg/validation"
)

// ResetMessage is returned for every forgot-password request, registered or not.
const ResetMessage = "If that email is registered, a reset code has been sent."

// ResetNotifier delivers a password reset code to the account owner.
type ResetNotifier interface {
	SendResetOTP(ctx context.Context, name, email, code string, expiresAt time.Time) error
}

type AccountOptions struct {
	BcryptCost  int
	ResetOTPTTL time.Duration
	// ExposeResetOTP echoes the code in the forgot-password result.
	ExposeResetOTP bool
}

type AccountService struct {
	Store    repo.Store
	JWT      *helpers.JWTManager
	Notifier ResetNotifier
	Logger   *logrus.Logger
	Now      func() time.Time

	opts     AccountOptions
	validate *validator.Validate
}

func NewAccountService(store repo.Store, jwt *helpers.JWTManager, notifier ResetNotifier, v *validator.Validate, logger *logrus.Logger, opts AccountOptions) *AccountService {
	if v == nil {
		v = validation.New(validation.DefaultPolicy)
	}
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	if opts.ResetOTPTTL <= 0 {
		opts.ResetOTPTTL = 15 * time.Minute
	}
	return &AccountService{
		Store:    store,
		JWT:      jwt,
		Notifier: notifier,
		Logger:   logger,
		Now:      time.Now,
		opts:     opts,
		validate: v,
	}
}

type RegisterInput struct {
	Name     string `json:"name" validate:"required,name,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,pwd,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordInput struct {
	Email       string `json:"email" validate:"required"`
	OTP         string `json:"otp" validate:"required,otp"`
	NewPassword string `json:"newPassword" validate:"required,pwd,max=72"`
}

// ProfileInput is a partial update; nil fields are left untouched.
type ProfileInput struct {
	Name     *string `json:"name" validate:"omitnil,name,max=100"`
	Phone    *string `json:"phone" validate:"omitnil,phone"`
	Location *string `json:"location" validate:"omitnil,max=120"`
}

type AuthResult struct {
	User      entity.PublicUser `json:"user"`
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

type ResetRequest struct {
	Message   string     `json:"message"`
	OTP       string     `json:"otp,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

type ProfileResult struct {
	User    entity.PublicUser `json:"user"`
	Updated bool              `json:"updated"`
}

func (s *AccountService) check(in any) error {
	if err := s.validate.Struct(in); err != nil {
		return &ValidationError{Fields: validation.ToDetails(err)}
	}
	return nil
}

// hash applies bcrypt. Multibyte passwords can pass the rune-counted max
// and still exceed bcrypt's byte limit.
func (s *AccountService) hash(field, plain string) (string, error) {
	h, err := helpers.HashPassword(plain, s.opts.BcryptCost)
	if errors.Is(err, helpers.ErrPasswordTooLong) {
		return "", &ValidationError{Fields: map[string]string{field: "must be at most 72 bytes"}}
	}
	if err != nil {
		return "", internalErr("hash password", err)
	}
	return h, nil
}

// dummyHash is compared on the unknown-email login path; it shares the cost
// of stored hashes so both failures take the same time.
func (s *AccountService) dummyHash() string {
	return helpers.DummyHash(s.opts.BcryptCost)
}

// Register creates the account and signs the user in.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.check(in); err != nil {
		return nil, err
	}

	hash, err := s.hash("password", in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{Name: in.Name, Email: in.Email, PasswordHash: hash}
	if err := s.Store.Users().Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrConflict
		}
		s.Logger.WithError(err).Error("create user failed")
		return nil, internalErr("create user", err)
	}
	s.Logger.WithField("user_id", u.ID).Info("user registered")
	return s.issue(u)
}

// Login verifies credentials. Unknown email and wrong password return the
// same error after the same amount of bcrypt work.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := s.check(in); err != nil {
		return nil, err
	}

	u, err := s.Store.Users().FindByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		_ = helpers.CompareHashAndPassword(s.dummyHash(), in.Password)
		return nil, ErrInvalidCredentials
	case err != nil:
		s.Logger.WithError(err).Error("lookup user failed")
		return nil, internalErr("find user", err)
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, in.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *AccountService) issue(u *entity.User) (*AuthResult, error) {
	tok, exp, err := s.JWT.GenerateToken(u.ID)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		return nil, internalErr("issue token", err)
	}
	return &AuthResult{User: u.Public(), Token: tok, ExpiresAt: exp}, nil
}

// Authenticate maps a bearer token to its user id.
func (s *AccountService) Authenticate(token string) (int64, error) {
	claims, err := s.JWT.ParseToken(token)
	if err != nil {
		return 0, ErrUnauthorized
	}
	return claims.UserID, nil
}

// RequestPasswordReset issues a reset code when the email is registered. The
// result looks the same either way; only the optional echoed code differs.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (*ResetRequest, error) {
	email = strings.TrimSpace(email)
	res := &ResetRequest{Message: ResetMessage}
	if email == "" {
		return res, nil
	}

	u, err := s.Store.Users().FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return res, nil
	}
	if err != nil {
		s.Logger.WithError(err).Error("lookup user failed")
		return nil, internalErr("find user", err)
	}

	code, err := helpers.GenOTPCode()
	if err != nil {
		return nil, internalErr("generate otp", err)
	}
	expiresAt := s.Now().UTC().Add(s.opts.ResetOTPTTL)
	if _, err := s.Store.ResetTokens().Create(ctx, u.Email, code, expiresAt); err != nil {
		s.Logger.WithError(err).Error("store reset token failed")
		return nil, internalErr("create reset token", err)
	}

	if s.Notifier != nil {
		if err := s.Notifier.SendResetOTP(ctx, u.Name, u.Email, code, expiresAt); err != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("enqueue reset email failed")
		}
	}
	s.Logger.WithField("user_id", u.ID).Info("password reset requested")

	if s.opts.ExposeResetOTP {
		res.OTP = code
		res.ExpiresAt = &expiresAt
	}
	return res, nil
}

// ResetPassword consumes a valid reset code and replaces the password. The
// lookup, update and consume run in one transaction so a code works once.
func (s *AccountService) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	in.Email = strings.TrimSpace(in.Email)
	in.OTP = strings.TrimSpace(in.OTP)
	if err := s.check(in); err != nil {
		return err
	}

	hash, err := s.hash("newPassword", in.NewPassword)
	if err != nil {
		return err
	}

	now := s.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx repo.Store) error {
		tok, err := tx.ResetTokens().FindValid(ctx, in.Email, in.OTP, now)
		if err != nil {
			return err
		}
		if err := tx.Users().UpdatePassword(ctx, in.Email, hash); err != nil {
			return err
		}
		return tx.ResetTokens().MarkUsed(ctx, tok.ID)
	})
	if errors.Is(err, repo.ErrNotFound) {
		return ErrInvalidResetToken
	}
	if err != nil {
		s.Logger.WithError(err).Error("reset password failed")
		return internalErr("reset password", err)
	}
	s.Logger.Info("password reset completed")
	return nil
}

func (s *AccountService) GetProfile(ctx context.Context, userID int64) (*entity.PublicUser, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	u, err := s.Store.Users().FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, internalErr("find user", err)
	}
	p := u.Public()
	return &p, nil
}

// UpdateProfile applies the supplied fields. Supplying none is a successful
// no-op that returns the current profile with Updated false.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*ProfileResult, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}
	in.Name = trimPtr(in.Name)
	in.Phone = trimPtr(in.Phone)
	in.Location = trimPtr(in.Location)
	if err := s.check(in); err != nil {
		return nil, err
	}

	fields := entity.ProfileFields{Name: in.Name, Phone: in.Phone, Location: in.Location}
	updated := false
	if !fields.Empty() {
		ok, err := s.Store.Users().UpdateProfile(ctx, userID, fields)
		if err != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Error("update profile failed")
			return nil, internalErr("update profile", err)
		}
		updated = ok
	}

	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ProfileResult{User: *p, Updated: updated}, nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
