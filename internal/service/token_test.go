package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/coreconnect/backend/config"
	"github.com/coreconnect/backend/internal/constants"
	"github.com/coreconnect/backend/internal/errors"
	"github.com/coreconnect/backend/internal/model"
)

type fakeRefreshTokenStore struct {
	records map[string]*model.RefreshToken
	failAll bool
}

func newFakeRefreshTokenStore() *fakeRefreshTokenStore {
	return &fakeRefreshTokenStore{records: map[string]*model.RefreshToken{}}
}

func (s *fakeRefreshTokenStore) Create(_ context.Context, token *model.RefreshToken) error {
	if s.failAll {
		return assert.AnError
	}
	cp := *token
	s.records[token.JTI] = &cp
	return nil
}

func (s *fakeRefreshTokenStore) GetByJTI(_ context.Context, jti string) (*model.RefreshToken, error) {
	if s.failAll {
		return nil, assert.AnError
	}
	record, ok := s.records[jti]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *record
	return &cp, nil
}

func (s *fakeRefreshTokenStore) Revoke(_ context.Context, jti string) error {
	if s.failAll {
		return assert.AnError
	}
	if record, ok := s.records[jti]; ok {
		record.Revoked = true
	}
	return nil
}

func (s *fakeRefreshTokenStore) RevokeAllForUser(_ context.Context, userID uint) (int64, error) {
	if s.failAll {
		return 0, assert.AnError
	}
	var count int64
	for _, record := range s.records {
		if record.UserID == userID && !record.Revoked {
			record.Revoked = true
			count++
		}
	}
	return count, nil
}

func (s *fakeRefreshTokenStore) DeleteExpired(_ context.Context) (int64, error) {
	if s.failAll {
		return 0, assert.AnError
	}
	var count int64
	for jti, record := range s.records {
		if time.Now().After(record.ExpiresAt) {
			delete(s.records, jti)
			count++
		}
	}
	return count, nil
}

func newTestTokenService(store RefreshTokenStore) *TokenService {
	return NewTokenService(config.JWTConfig{
		Secret:     "test-secret",
		Issuer:     "coreconnect-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}, store)
}

func TestIssuePairAndVerify(t *testing.T) {
	store := newFakeRefreshTokenStore()
	svc := newTestTokenService(store)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, 42, "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)
	assert.Len(t, store.records, 1)

	accessClaims, err := svc.Verify(pair.AccessToken, constants.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(42), accessClaims.UserID)
	assert.Equal(t, "alice@example.com", accessClaims.Email)
	assert.Equal(t, constants.TokenTypeAccess, accessClaims.Type)

	refreshClaims, err := svc.Verify(pair.RefreshToken, constants.TokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, constants.TokenTypeRefresh, refreshClaims.Type)
	assert.NotEmpty(t, refreshClaims.ID)
}

func TestVerifyRejectsWrongType(t *testing.T) {
	svc := newTestTokenService(newFakeRefreshTokenStore())
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, 1, "bob@example.com")
	require.NoError(t, err)

	_, err = svc.Verify(pair.AccessToken, constants.TokenTypeRefresh)
	assert.ErrorIs(t, err, errors.ErrWrongTokenType)

	_, err = svc.Verify(pair.RefreshToken, constants.TokenTypeAccess)
	assert.ErrorIs(t, err, errors.ErrWrongTokenType)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := newTestTokenService(newFakeRefreshTokenStore())

	_, err := svc.Verify("not-a-jwt", constants.TokenTypeAccess)
	assert.ErrorIs(t, err, errors.ErrInvalidToken)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	storeA := newFakeRefreshTokenStore()
	svcA := newTestTokenService(storeA)
	svcB := NewTokenService(config.JWTConfig{
		Secret:     "other-secret",
		Issuer:     "coreconnect-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}, newFakeRefreshTokenStore())

	pair, err := svcA.IssuePair(context.Background(), 1, "eve@example.com")
	require.NoError(t, err)

	_, err = svcB.Verify(pair.AccessToken, constants.TokenTypeAccess)
	assert.ErrorIs(t, err, errors.ErrInvalidToken)
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	store := newFakeRefreshTokenStore()
	svc := newTestTokenService(store)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, 7, "carol@example.com")
	require.NoError(t, err)

	accessToken, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	claims, err := svc.Verify(accessToken, constants.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
}

func TestRefreshRejectsRevokedToken(t *testing.T) {
	store := newFakeRefreshTokenStore()
	svc := newTestTokenService(store)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, 7, "carol@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, pair.RefreshToken))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, errors.ErrTokenRevoked)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc := newTestTokenService(newFakeRefreshTokenStore())
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, 7, "carol@example.com")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, errors.ErrWrongTokenType)
}

func TestRefreshRejectsTokenWithoutRecord(t *testing.T) {
	store := newFakeRefreshTokenStore()
	svc := newTestTokenService(store)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, 7, "carol@example.com")
	require.NoError(t, err)

	// Simulate a record lost from the store.
	store.records = map[string]*model.RefreshToken{}

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, errors.ErrInvalidRefreshToken)
}

func TestRevokeIsIdempotent(t *testing.T) {
	store := newFakeRefreshTokenStore()
	svc := newTestTokenService(store)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, 9, "dan@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, pair.RefreshToken))
	require.NoError(t, svc.Revoke(ctx, pair.RefreshToken))

	// Garbage tokens are ignored too.
	require.NoError(t, svc.Revoke(ctx, "garbage"))
}

func TestRevokeAll(t *testing.T) {
	store := newFakeRefreshTokenStore()
	svc := newTestTokenService(store)
	ctx := context.Background()

	pair1, err := svc.IssuePair(ctx, 9, "dan@example.com")
	require.NoError(t, err)
	pair2, err := svc.IssuePair(ctx, 9, "dan@example.com")
	require.NoError(t, err)
	other, err := svc.IssuePair(ctx, 10, "erin@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAll(ctx, 9))

	_, err = svc.Refresh(ctx, pair1.RefreshToken)
	assert.ErrorIs(t, err, errors.ErrTokenRevoked)
	_, err = svc.Refresh(ctx, pair2.RefreshToken)
	assert.ErrorIs(t, err, errors.ErrTokenRevoked)

	_, err = svc.Refresh(ctx, other.RefreshToken)
	assert.NoError(t, err)
}
