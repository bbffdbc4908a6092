package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"lostfound/internal/core/auth"
	"lostfound/internal/core/errs"
	"lostfound/internal/core/mail"
	"lostfound/internal/domain"
)

const (
	verificationTTL = 24 * time.Hour
	resetTTL        = time.Hour
)

type RegisterInput struct {
	Name     string `json:"name" binding:"required,min=2,max=50,personname"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,strongpassword"`
	Phone    string `json:"phone" binding:"required,phone"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type EmailInput struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordInput struct {
	Password        string `json:"password" binding:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
}

type ProfileInput struct {
	Name    *string         `json:"name" binding:"omitempty,min=2,max=50,personname"`
	Phone   *string         `json:"phone" binding:"omitempty,phone"`
	Address *domain.Address `json:"address"`
}

// Session is what register, login and refresh hand back.
type Session struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

type AuthService struct {
	store    domain.Store
	jwt      *auth.JWTer
	mailer   Mailer
	notifier *Notifier
	log      *zap.Logger
	now      Clock
}

func NewAuthService(store domain.Store, jwt *auth.JWTer, mailer Mailer, notifier *Notifier, log *zap.Logger) *AuthService {
	return &AuthService{store: store, jwt: jwt, mailer: mailer, notifier: notifier, log: log, now: time.Now}
}

func normalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (s *AuthService) session(u *domain.User) (*Session, error) {
	tok, err := s.jwt.Issue(u.ID)
	if err != nil {
		return nil, errs.Internal("could not issue token", err)
	}
	return &Session{User: u, Token: tok}, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	if _, err := s.store.Users().FindByEmail(ctx, email); err == nil {
		return nil, errs.Conflict("User already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, errs.Internal("could not hash password", err)
	}
	token, err := auth.RandomToken()
	if err != nil {
		return nil, errs.Internal("could not create token", err)
	}
	now := s.now()
	expires := now.Add(verificationTTL)
	u := &domain.User{
		ID:                       newID(),
		Name:                     strings.TrimSpace(in.Name),
		Email:                    email,
		PasswordHash:             hash,
		Phone:                    strings.TrimSpace(in.Phone),
		Role:                     domain.RoleUser,
		IsActive:                 true,
		EmailVerificationToken:   token,
		EmailVerificationExpires: &expires,
		CreatedAt:                now,
	}

	err = s.store.WithinTx(ctx, func(tx domain.Store) error {
		if err := tx.Users().Create(ctx, u); err != nil {
			return err
		}
		if err := s.notifier.Mail(ctx, tx, u.Email, mail.Welcome, map[string]any{"userName": u.Name}); err != nil {
			return err
		}
		return s.notifier.Mail(ctx, tx, u.Email, mail.EmailVerification, map[string]any{
			"userName": u.Name,
			"token":    token,
		})
	})
	if errors.Is(err, domain.ErrDuplicate) {
		return nil, errs.Conflict("User already exists")
	}
	if err != nil {
		return nil, err
	}
	return s.session(u)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	u, err := s.store.Users().FindByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errs.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(in.Password, u.PasswordHash) {
		return nil, errs.Unauthorized("Invalid credentials")
	}
	if !u.IsActive {
		return nil, errs.Unauthorized("Account is deactivated")
	}
	now := s.now()
	u.LastLogin = &now
	if err := s.store.Users().Update(ctx, u); err != nil {
		return nil, err
	}
	return s.session(u)
}

// Authenticate resolves a bearer token to an active user. The user is read
// fresh on every call.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, errs.Unauthorized("Not authorized, token failed")
	}
	u, err := s.store.Users().FindByID(ctx, claims.UID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errs.Unauthorized("User not found")
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, errs.Unauthorized("Account is deactivated")
	}
	return u, nil
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	u, err := s.store.Users().FindByVerificationToken(ctx, token, s.now())
	if errors.Is(err, domain.ErrNotFound) {
		return errs.BadRequest("Invalid or expired verification token")
	}
	if err != nil {
		return err
	}
	u.IsEmailVerified = true
	u.EmailVerificationToken = ""
	u.EmailVerificationExpires = nil
	return s.store.Users().Update(ctx, u)
}

// ForgotPassword sends the reset link synchronously; the email is the only
// result the caller gets, so a send failure fails the request.
func (s *AuthService) ForgotPassword(ctx context.Context, in EmailInput) error {
	u, err := s.store.Users().FindByEmail(ctx, in.Email)
	if err != nil {
		return missing(err, "User not found")
	}
	token, err := auth.RandomToken()
	if err != nil {
		return errs.Internal("could not create token", err)
	}
	expires := s.now().Add(resetTTL)
	u.PasswordResetToken = token
	u.PasswordResetExpires = &expires
	if err := s.store.Users().Update(ctx, u); err != nil {
		return err
	}
	err = s.mailer.Send(ctx, u.Email, mail.PasswordReset, map[string]any{"userName": u.Name, "token": token})
	if err != nil {
		s.log.Error("password reset email failed", zap.String("user", u.ID), zap.Error(err))
		return errs.Upstream(http.StatusInternalServerError, "Error sending password reset email", err)
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token string, in ResetPasswordInput) error {
	u, err := s.store.Users().FindByResetToken(ctx, token, s.now())
	if errors.Is(err, domain.ErrNotFound) {
		return errs.BadRequest("Invalid or expired reset token")
	}
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return errs.Internal("could not hash password", err)
	}
	u.PasswordHash = hash
	u.PasswordResetToken = ""
	u.PasswordResetExpires = nil
	return s.store.Users().Update(ctx, u)
}

func (s *AuthService) reload(ctx context.Context, caller *domain.User) (*domain.User, error) {
	u, err := s.store.Users().FindByID(ctx, caller.ID)
	if err != nil {
		return nil, missing(err, "User not found")
	}
	return u, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, caller *domain.User, in ChangePasswordInput) error {
	u, err := s.reload(ctx, caller)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(in.CurrentPassword, u.PasswordHash) {
		return errs.BadRequest("Current password is incorrect")
	}
	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return errs.Internal("could not hash password", err)
	}
	u.PasswordHash = hash
	return s.store.Users().Update(ctx, u)
}

func (s *AuthService) UpdateProfile(ctx context.Context, caller *domain.User, in ProfileInput) (*domain.User, error) {
	if in.Address != nil {
		if err := validateAddress(*in.Address); err != nil {
			return nil, err
		}
	}
	u, err := s.reload(ctx, caller)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil && *in.Phone != "" {
		u.Phone = *in.Phone
	}
	if in.Address != nil {
		u.Address = *in.Address
	}
	if err := s.store.Users().Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func validateAddress(a domain.Address) error {
	f := errs.Fields{}
	if len(strings.TrimSpace(a.Street)) > 100 {
		f.Add("address.street", "Street address cannot exceed 100 characters")
	}
	if len(strings.TrimSpace(a.City)) > 50 {
		f.Add("address.city", "City cannot exceed 50 characters")
	}
	if len(strings.TrimSpace(a.State)) > 50 {
		f.Add("address.state", "State cannot exceed 50 characters")
	}
	if len(strings.TrimSpace(a.ZipCode)) > 10 {
		f.Add("address.zipCode", "Zip code cannot exceed 10 characters")
	}
	if len(strings.TrimSpace(a.Country)) > 50 {
		f.Add("address.country", "Country cannot exceed 50 characters")
	}
	return f.Err()
}

func (s *AuthService) Refresh(ctx context.Context, caller *domain.User) (*Session, error) {
	u, err := s.reload(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.session(u)
}

func (s *AuthService) ResendVerification(ctx context.Context, caller *domain.User) error {
	u, err := s.reload(ctx, caller)
	if err != nil {
		return err
	}
	if u.IsEmailVerified {
		return errs.BadRequest("Email is already verified")
	}
	token, err := auth.RandomToken()
	if err != nil {
		return errs.Internal("could not create token", err)
	}
	expires := s.now().Add(verificationTTL)
	u.EmailVerificationToken = token
	u.EmailVerificationExpires = &expires
	if err := s.store.Users().Update(ctx, u); err != nil {
		return err
	}
	err = s.mailer.Send(ctx, u.Email, mail.EmailVerification, map[string]any{"userName": u.Name, "token": token})
	if err != nil {
		s.log.Error("verification email failed", zap.String("user", u.ID), zap.Error(err))
		return errs.Upstream(http.StatusInternalServerError, "Error sending verification email", err)
	}
	return nil
}

// DeleteAccount deactivates the caller; users are never hard deleted.
func (s *AuthService) DeleteAccount(ctx context.Context, caller *domain.User) error {
	u, err := s.reload(ctx, caller)
	if err != nil {
		return err
	}
	u.IsActive = false
	return s.store.Users().Update(ctx, u)
}

// EnsureAdmin creates a verified admin account unless the email is already
// taken. It reports whether a user was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, in RegisterInput) (*domain.User, bool, error) {
	email := normalizeEmail(in.Email)
	if u, err := s.store.Users().FindByEmail(ctx, email); err == nil {
		return u, false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, false, errs.Internal("could not hash password", err)
	}
	u := &domain.User{
		ID:              newID(),
		Name:            strings.TrimSpace(in.Name),
		Email:           email,
		PasswordHash:    hash,
		Phone:           strings.TrimSpace(in.Phone),
		Role:            domain.RoleAdmin,
		IsActive:        true,
		IsEmailVerified: true,
		CreatedAt:       s.now(),
	}
	if err := s.store.Users().Create(ctx, u); err != nil {
		return nil, false, err
	}
	return u, true, nil
}
