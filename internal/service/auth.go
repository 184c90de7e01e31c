package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	stderrors "errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/coreconnect/backend/config"
	"github.com/coreconnect/backend/internal/constants"
	"github.com/coreconnect/backend/internal/errors"
	"github.com/coreconnect/backend/internal/model"
	ctxutil "github.com/coreconnect/backend/pkg/context"
	"github.com/coreconnect/backend/pkg/logger"
)

// UserStore is the persistence surface the auth and user services need.
type UserStore interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	UpdateProfile(ctx context.Context, id uint, fields map[string]interface{}) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	MarkVerified(ctx context.Context, id uint) error
	UpdateLastLogin(ctx context.Context, id uint) error
	Deactivate(ctx context.Context, id uint) error
	CountStats(ctx context.Context) (total, active, verified int64, err error)
}

// ActionTokenStore persists single-use verification/reset tokens.
type ActionTokenStore interface {
	Replace(ctx context.Context, token *model.ActionToken) error
	GetByToken(ctx context.Context, tokenValue, purpose string) (*model.ActionToken, error)
	MarkUsed(ctx context.Context, id uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// FailedAttemptStore tracks failed logins for the lockout check.
type FailedAttemptStore interface {
	Record(ctx context.Context, email string) error
	CountSince(ctx context.Context, email string, since time.Time) (int64, error)
	Clear(ctx context.Context, email string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuthService orchestrates registration, login, email verification, and the
// password lifecycle.
type AuthService struct {
	users     UserStore
	actions   ActionTokenStore
	attempts  FailedAttemptStore
	tokens    *TokenService
	passwords *PasswordService
	email     *EmailService

	lockoutThreshold int
	lockoutWindow    time.Duration
	verificationTTL  time.Duration
	resetTTL         time.Duration
}

func NewAuthService(
	users UserStore,
	actions ActionTokenStore,
	attempts FailedAttemptStore,
	tokens *TokenService,
	passwords *PasswordService,
	email *EmailService,
	sec config.SecurityConfig,
) *AuthService {
	return &AuthService{
		users:            users,
		actions:          actions,
		attempts:         attempts,
		tokens:           tokens,
		passwords:        passwords,
		email:            email,
		lockoutThreshold: sec.LockoutThreshold,
		lockoutWindow:    sec.LockoutWindow,
		verificationTTL:  sec.VerificationTTL,
		resetTTL:         sec.ResetTTL,
	}
}

// RegisterInput carries validated registration fields.
type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// NormalizeEmail canonicalizes an email address for storage and lookup.
// Uniqueness and lockout counting are case-insensitive, so every entry
// point must funnel addresses through here.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername canonicalizes a username the same way
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// RegisterResult is everything the handler needs to build the 201 response.
// VerificationToken is only populated when mail delivery did not happen, so
// clients in environments without SMTP can still complete verification.
type RegisterResult struct {
	User              *model.User
	Tokens            *TokenPair
	VerificationToken string
	EmailSent         bool
}

// Register creates an unverified account, issues a token pair, and kicks off
// email verification.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Register")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "auth_service")

	input.Email = NormalizeEmail(input.Email)
	input.Username = NormalizeUsername(input.Username)

	if ok, violations := s.passwords.Validate(input.Password); !ok {
		logger.DebugWithContext(ctx, "Registration rejected by password policy").
			String("email", input.Email).
			Int("violation_count", len(violations)).
			Log()
		return nil, &errors.DomainError{
			Code:    errors.ErrWeakPassword.Code,
			Message: violations[0],
		}
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, errors.ErrEmailExists
	} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.WrapError(errors.ErrInternal, err)
	}

	if input.Username != "" {
		if _, err := s.users.GetByUsername(ctx, input.Username); err == nil {
			return nil, errors.ErrUsernameExists
		} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.WrapError(errors.ErrInternal, err)
		}
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, errors.WrapError(errors.ErrInternal, err)
	}

	user := &model.User{
		Email:        input.Email,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: hash,
		Role:         constants.RoleUser,
		IsActive:     true,
		IsVerified:   false,
	}
	if input.Username != "" {
		user.Username = &input.Username
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, errors.WrapError(errors.ErrInternal, err)
	}

	pair, err := s.tokens.IssuePair(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	verificationToken, err := s.issueActionToken(ctx, user.ID, constants.PurposeEmailVerification, s.verificationTTL)
	if err != nil {
		return nil, err
	}

	sent := s.email.SendVerification(ctx, user.Email, verificationToken)

	result := &RegisterResult{
		User:      user,
		Tokens:    pair,
		EmailSent: sent,
	}
	if !sent {
		result.VerificationToken = verificationToken
	}

	logger.InfoWithContext(ctx, "User registered").
		Int("user_id", int(user.ID)).
		String("email", user.Email).
		Bool("verification_email_sent", sent).
		Log()

	return result, nil
}

// Login authenticates by email and password. The lockout check runs before
// any credential work, including for unknown emails, so response shape does
// not reveal account existence. Locked and wrong-password both come back as
// the generic invalid-credentials error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Login")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "auth_service")

	email = NormalizeEmail(email)

	locked, err := s.isLockedOut(ctx, email)
	if err != nil {
		return nil, nil, errors.WrapError(errors.ErrInternal, err)
	}
	if locked {
		logger.WarnWithContext(ctx, "Login attempt on locked account").
			String("email", email).
			Log()
		return nil, nil, errors.ErrAccountLocked
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			s.recordFailure(ctx, email)
			return nil, nil, errors.ErrInvalidCredentials
		}
		return nil, nil, errors.WrapError(errors.ErrInternal, err)
	}

	if !user.IsActive {
		logger.WarnWithContext(ctx, "Login attempt on deactivated account").
			Int("user_id", int(user.ID)).
			Log()
		return nil, nil, errors.ErrAccountInactive
	}

	if !s.passwords.Verify(password, user.PasswordHash) {
		s.recordFailure(ctx, email)
		return nil, nil, errors.ErrInvalidCredentials
	}

	if err := s.attempts.Clear(ctx, email); err != nil {
		logger.WarnWithContext(ctx, "Failed to clear login attempts after success").
			String("email", email).
			Err(err).
			Log()
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.WarnWithContext(ctx, "Failed to stamp last login").
			Int("user_id", int(user.ID)).
			Err(err).
			Log()
	}

	pair, err := s.tokens.IssuePair(ctx, user.ID, user.Email)
	if err != nil {
		return nil, nil, err
	}

	logger.InfoWithContext(ctx, "User logged in").
		Int("user_id", int(user.ID)).
		String("email", user.Email).
		Log()

	return user, pair, nil
}

// Logout revokes the supplied refresh token. Always succeeds; an absent or
// invalid token just means there is nothing to revoke.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Logout")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "auth_service")

	if refreshToken == "" {
		return
	}
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		logger.WarnWithContext(ctx, "Refresh token revocation failed during logout").
			Err(err).
			Log()
	}
}

// VerifyEmail consumes a verification token and marks the user verified.
// Verifying an already verified user with a fresh token is harmless.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenValue string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "VerifyEmail")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "auth_service")

	token, err := s.consumeActionToken(ctx, tokenValue, constants.PurposeEmailVerification)
	if err != nil {
		return err
	}

	if err := s.users.MarkVerified(ctx, token.UserID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrActionTokenInvalid
		}
		return errors.WrapError(errors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Email verified").
		Int("user_id", int(token.UserID)).
		Log()

	return nil
}

// ForgotPassword issues a reset token when the email matches an active
// account. It never reports whether the account exists; the handler returns
// the same generic message either way.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ForgotPassword")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "auth_service")

	email = NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !stderrors.Is(err, gorm.ErrRecordNotFound) {
			logger.ErrorWithContext(ctx, "User lookup failed during forgot password").
				Err(err).
				Log()
		}
		return
	}
	if !user.IsActive {
		return
	}

	resetToken, err := s.issueActionToken(ctx, user.ID, constants.PurposePasswordReset, s.resetTTL)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to issue reset token").
			Int("user_id", int(user.ID)).
			Err(err).
			Log()
		return
	}

	s.email.SendPasswordReset(ctx, user.Email, resetToken)

	logger.InfoWithContext(ctx, "Password reset requested").
		Int("user_id", int(user.ID)).
		Log()
}

// ResetPassword consumes a reset token, sets the new password, and revokes
// every refresh token the user holds.
func (s *AuthService) ResetPassword(ctx context.Context, tokenValue, newPassword string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ResetPassword")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "auth_service")

	if ok, violations := s.passwords.Validate(newPassword); !ok {
		return &errors.DomainError{
			Code:    errors.ErrWeakPassword.Code,
			Message: violations[0],
		}
	}

	token, err := s.consumeActionToken(ctx, tokenValue, constants.PurposePasswordReset)
	if err != nil {
		return err
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return errors.WrapError(errors.ErrInternal, err)
	}
	if err := s.users.UpdatePassword(ctx, token.UserID, hash); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrActionTokenInvalid
		}
		return errors.WrapError(errors.ErrInternal, err)
	}

	if err := s.tokens.RevokeAll(ctx, token.UserID); err != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke sessions after password reset").
			Int("user_id", int(token.UserID)).
			Err(err).
			Log()
	}

	logger.InfoWithContext(ctx, "Password reset completed").
		Int("user_id", int(token.UserID)).
		Log()

	return nil
}

// ChangePassword verifies the current password, sets the new one, and
// revokes all refresh tokens so other sessions have to log in again.
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "ChangePassword")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "auth_service")

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrUserNotFound
		}
		return errors.WrapError(errors.ErrInternal, err)
	}

	if !s.passwords.Verify(currentPassword, user.PasswordHash) {
		return errors.ErrIncorrectPassword
	}

	if ok, violations := s.passwords.Validate(newPassword); !ok {
		return &errors.DomainError{
			Code:    errors.ErrWeakPassword.Code,
			Message: violations[0],
		}
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return errors.WrapError(errors.ErrInternal, err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return errors.WrapError(errors.ErrInternal, err)
	}

	if err := s.tokens.RevokeAll(ctx, userID); err != nil {
		logger.ErrorWithContext(ctx, "Failed to revoke sessions after password change").
			Int("user_id", int(userID)).
			Err(err).
			Log()
	}

	logger.InfoWithContext(ctx, "Password changed").
		Int("user_id", int(userID)).
		Log()

	return nil
}

func (s *AuthService) isLockedOut(ctx context.Context, email string) (bool, error) {
	cutoff := time.Now().Add(-s.lockoutWindow)

	// Lazy pruning keeps the table bounded without a background sweeper.
	if _, err := s.attempts.DeleteOlderThan(ctx, cutoff); err != nil {
		logger.WarnWithContext(ctx, "Failed to prune stale login attempts").
			Err(err).
			Log()
	}

	count, err := s.attempts.CountSince(ctx, email, cutoff)
	if err != nil {
		return false, err
	}
	return count >= int64(s.lockoutThreshold), nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if err := s.attempts.Record(ctx, email); err != nil {
		logger.ErrorWithContext(ctx, "Failed to record failed login attempt").
			String("email", email).
			Err(err).
			Log()
	}
}

func (s *AuthService) issueActionToken(ctx context.Context, userID uint, purpose string, ttl time.Duration) (string, error) {
	value, err := randomURLSafeToken(32)
	if err != nil {
		return "", errors.WrapError(errors.ErrInternal, err)
	}

	token := &model.ActionToken{
		Token:     value,
		UserID:    userID,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.actions.Replace(ctx, token); err != nil {
		return "", errors.WrapError(errors.ErrInternal, err)
	}
	return value, nil
}

// consumeActionToken enforces exists, not used, not expired, and flips the
// used flag exactly once. A losing concurrent consume gets the same invalid
// token error as an unknown token.
func (s *AuthService) consumeActionToken(ctx context.Context, tokenValue, purpose string) (*model.ActionToken, error) {
	token, err := s.actions.GetByToken(ctx, tokenValue, purpose)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrActionTokenInvalid
		}
		return nil, errors.WrapError(errors.ErrInternal, err)
	}

	if token.Used || token.IsExpired(time.Now()) {
		return nil, errors.ErrActionTokenInvalid
	}

	if err := s.actions.MarkUsed(ctx, token.ID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrActionTokenInvalid
		}
		return nil, errors.WrapError(errors.ErrInternal, err)
	}

	return token, nil
}

func randomURLSafeToken(byteLen int) (string, error) {
	buf := make([]byte, byteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
