package service

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coreconnect/backend/config"
	"github.com/coreconnect/backend/internal/constants"
	"github.com/coreconnect/backend/internal/errors"
	"github.com/coreconnect/backend/internal/model"
	ctxutil "github.com/coreconnect/backend/pkg/context"
	"github.com/coreconnect/backend/pkg/logger"
)

// Claims is the payload carried by both access and refresh tokens. Type
// distinguishes them so one can never be used in place of the other.
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// RefreshTokenStore is the persistence surface the token service needs.
type RefreshTokenStore interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	GetByJTI(ctx context.Context, jti string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, jti string) error
	RevokeAllForUser(ctx context.Context, userID uint) (int64, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

// TokenService issues and verifies HS256 JWTs. Access tokens are stateless;
// refresh tokens carry a jti backed by a store record so they can be revoked.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      RefreshTokenStore
}

func NewTokenService(cfg config.JWTConfig, store RefreshTokenStore) *TokenService {
	return &TokenService{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		store:      store,
	}
}

// TokenPair is what login/register hand back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// AccessTTLSeconds reports the access token lifetime for expires_in fields
func (s *TokenService) AccessTTLSeconds() int64 {
	return int64(s.accessTTL.Seconds())
}

// IssueAccessToken creates a short-lived stateless access token
func (s *TokenService) IssueAccessToken(userID uint, email string) (string, error) {
	return s.sign(userID, email, constants.TokenTypeAccess, s.accessTTL, uuid.NewString())
}

// IssuePair creates an access token plus a refresh token whose jti is
// persisted for revocation checks.
func (s *TokenService) IssuePair(ctx context.Context, userID uint, email string) (*TokenPair, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "IssuePair")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "token_service")

	accessToken, err := s.IssueAccessToken(userID, email)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to sign access token").
			Int("user_id", int(userID)).
			Err(err).
			Log()
		return nil, errors.WrapError(errors.ErrInternal, err)
	}

	jti := uuid.NewString()
	now := time.Now()

	refreshToken, err := s.sign(userID, email, constants.TokenTypeRefresh, s.refreshTTL, jti)
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to sign refresh token").
			Int("user_id", int(userID)).
			Err(err).
			Log()
		return nil, errors.WrapError(errors.ErrInternal, err)
	}

	record := &model.RefreshToken{
		JTI:       jti,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.store.Create(ctx, record); err != nil {
		return nil, errors.WrapError(errors.ErrInternal, err)
	}

	// Opportunistic cleanup; failures here never block issuance.
	if _, err := s.store.DeleteExpired(ctx); err != nil {
		logger.WarnWithContext(ctx, "Expired refresh token cleanup failed").
			Err(err).
			Log()
	}

	logger.InfoWithContext(ctx, "Token pair issued").
		Int("user_id", int(userID)).
		String("jti", jti).
		Log()

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// Verify parses and validates a token and enforces its type claim.
func (s *TokenService) Verify(tokenString, expectedType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.WrapError(errors.ErrTokenExpired, err)
		}
		return nil, errors.WrapError(errors.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, errors.ErrInvalidToken
	}
	if claims.Type != expectedType {
		return nil, errors.ErrWrongTokenType
	}
	return claims, nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new access token.
// The refresh token itself is not rotated. Revocation beats signature
// validity: a revoked record rejects the token even though it still parses.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Refresh")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "token_service")

	claims, err := s.Verify(refreshToken, constants.TokenTypeRefresh)
	if err != nil {
		return "", err
	}

	record, err := s.store.GetByJTI(ctx, claims.ID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			logger.WarnWithContext(ctx, "Refresh token has no backing record").
				String("jti", claims.ID).
				Log()
			return "", errors.ErrInvalidRefreshToken
		}
		return "", errors.WrapError(errors.ErrInternal, err)
	}
	if record.Revoked {
		logger.WarnWithContext(ctx, "Revoked refresh token presented").
			String("jti", claims.ID).
			Int("user_id", int(record.UserID)).
			Log()
		return "", errors.ErrTokenRevoked
	}
	if time.Now().After(record.ExpiresAt) {
		return "", errors.ErrTokenExpired
	}

	accessToken, err := s.IssueAccessToken(claims.UserID, claims.Email)
	if err != nil {
		return "", errors.WrapError(errors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Access token refreshed").
		Int("user_id", int(claims.UserID)).
		String("jti", claims.ID).
		Log()

	return accessToken, nil
}

// Revoke marks the refresh token's record revoked. Malformed or unknown
// tokens are ignored so logout stays idempotent.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "Revoke")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "token_service")

	claims, err := s.Verify(refreshToken, constants.TokenTypeRefresh)
	if err != nil {
		logger.DebugWithContext(ctx, "Revoke called with invalid refresh token").
			Err(err).
			Log()
		return nil
	}
	return s.store.Revoke(ctx, claims.ID)
}

// RevokeAll revokes every refresh token a user holds, used on password
// change, password reset, and account deletion.
func (s *TokenService) RevokeAll(ctx context.Context, userID uint) error {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "RevokeAll")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "token_service")

	_, err := s.store.RevokeAllForUser(ctx, userID)
	if err != nil {
		return errors.WrapError(errors.ErrInternal, err)
	}
	return nil
}

func (s *TokenService) sign(userID uint, email, tokenType string, ttl time.Duration, jti string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
