package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/coreconnect/backend/config"
	"github.com/coreconnect/backend/internal/constants"
	"github.com/coreconnect/backend/internal/middleware"
	"github.com/coreconnect/backend/internal/model"
	"github.com/coreconnect/backend/internal/service"
)

type memUserStore struct {
	users  map[uint]*model.User
	nextID uint
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[uint]*model.User{}, nextID: 1}
}

func (s *memUserStore) GetByID(_ context.Context, id uint) (*model.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memUserStore) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, user := range s.users {
		if user.Username != nil && *user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *memUserStore) Create(_ context.Context, user *model.User) error {
	user.ID = s.nextID
	user.CreatedAt = time.Now()
	s.nextID++
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *memUserStore) UpdateProfile(_ context.Context, id uint, fields map[string]interface{}) error {
	user, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["username"]; ok {
		name := v.(string)
		user.Username = &name
	}
	if v, ok := fields["first_name"]; ok {
		user.FirstName = v.(string)
	}
	if v, ok := fields["last_name"]; ok {
		user.LastName = v.(string)
	}
	if v, ok := fields["bio"]; ok {
		user.Bio = v.(string)
	}
	return nil
}

func (s *memUserStore) UpdatePassword(_ context.Context, id uint, hash string) error {
	user, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.PasswordHash = hash
	return nil
}

func (s *memUserStore) MarkVerified(_ context.Context, id uint) error {
	user, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.IsVerified = true
	return nil
}

func (s *memUserStore) UpdateLastLogin(_ context.Context, id uint) error {
	if _, ok := s.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *memUserStore) Deactivate(_ context.Context, id uint) error {
	user, ok := s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.IsActive = false
	return nil
}

func (s *memUserStore) CountStats(_ context.Context) (total, active, verified int64, err error) {
	for _, user := range s.users {
		total++
		if user.IsActive {
			active++
		}
		if user.IsVerified {
			verified++
		}
	}
	return total, active, verified, nil
}

type memRefreshTokenStore struct {
	records map[string]*model.RefreshToken
}

func (s *memRefreshTokenStore) Create(_ context.Context, token *model.RefreshToken) error {
	cp := *token
	s.records[token.JTI] = &cp
	return nil
}

func (s *memRefreshTokenStore) GetByJTI(_ context.Context, jti string) (*model.RefreshToken, error) {
	record, ok := s.records[jti]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *record
	return &cp, nil
}

func (s *memRefreshTokenStore) Revoke(_ context.Context, jti string) error {
	if record, ok := s.records[jti]; ok {
		record.Revoked = true
	}
	return nil
}

func (s *memRefreshTokenStore) RevokeAllForUser(_ context.Context, userID uint) (int64, error) {
	var count int64
	for _, record := range s.records {
		if record.UserID == userID && !record.Revoked {
			record.Revoked = true
			count++
		}
	}
	return count, nil
}

func (s *memRefreshTokenStore) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

type memActionTokenStore struct {
	tokens map[string]*model.ActionToken
	nextID uint
}

func newMemActionTokenStore() *memActionTokenStore {
	return &memActionTokenStore{tokens: map[string]*model.ActionToken{}, nextID: 1}
}

func (s *memActionTokenStore) Replace(_ context.Context, token *model.ActionToken) error {
	for value, existing := range s.tokens {
		if existing.UserID == token.UserID && existing.Purpose == token.Purpose && !existing.Used {
			delete(s.tokens, value)
		}
	}
	token.ID = s.nextID
	s.nextID++
	cp := *token
	s.tokens[token.Token] = &cp
	return nil
}

func (s *memActionTokenStore) GetByToken(_ context.Context, value, purpose string) (*model.ActionToken, error) {
	token, ok := s.tokens[value]
	if !ok || token.Purpose != purpose {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *token
	return &cp, nil
}

func (s *memActionTokenStore) MarkUsed(_ context.Context, id uint) error {
	for _, token := range s.tokens {
		if token.ID == id && !token.Used {
			token.Used = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (s *memActionTokenStore) DeleteExpired(_ context.Context) (int64, error) {
	return 0, nil
}

type memFailedAttemptStore struct {
	attempts []model.FailedAttempt
}

func (s *memFailedAttemptStore) Record(_ context.Context, email string) error {
	s.attempts = append(s.attempts, model.FailedAttempt{Email: email, AttemptedAt: time.Now()})
	return nil
}

func (s *memFailedAttemptStore) CountSince(_ context.Context, email string, since time.Time) (int64, error) {
	var count int64
	for _, attempt := range s.attempts {
		if attempt.Email == email && attempt.AttemptedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (s *memFailedAttemptStore) Clear(_ context.Context, email string) error {
	var kept []model.FailedAttempt
	for _, attempt := range s.attempts {
		if attempt.Email != email {
			kept = append(kept, attempt)
		}
	}
	s.attempts = kept
	return nil
}

func (s *memFailedAttemptStore) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type handlerFixture struct {
	router  *gin.Engine
	users   *memUserStore
	actions *memActionTokenStore
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := newMemUserStore()
	actions := newMemActionTokenStore()
	attempts := &memFailedAttemptStore{}
	refreshTokens := &memRefreshTokenStore{records: map[string]*model.RefreshToken{}}

	tokenService := service.NewTokenService(config.JWTConfig{
		Secret:     "handler-test-secret",
		Issuer:     "coreconnect-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}, refreshTokens)
	passwordService := service.NewPasswordService(4)
	emailService := service.NewEmailService(nil, &config.Config{})
	authService := service.NewAuthService(users, actions, attempts, tokenService, passwordService, emailService, config.SecurityConfig{
		BcryptCost:       4,
		LockoutThreshold: 5,
		LockoutWindow:    30 * time.Minute,
		VerificationTTL:  24 * time.Hour,
		ResetTTL:         time.Hour,
	})
	userService := service.NewUserService(users, tokenService, service.NewCacheService(nil))

	authHandler := NewAuthHandler(authService, passwordService, tokenService, userService)
	jwtMw := middleware.NewJWTMiddleware(tokenService, users)

	router := gin.New()
	api := router.Group("/api/auth")
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.POST("/refresh", authHandler.RefreshToken)
	api.GET("/verify-email/:token", authHandler.VerifyEmail)
	api.POST("/forgot-password", authHandler.ForgotPassword)
	api.POST("/reset-password", authHandler.ResetPassword)
	api.POST("/password-strength", authHandler.PasswordStrength)

	protected := router.Group("/api/auth", jwtMw.RequireAuth())
	protected.POST("/logout", authHandler.Logout)
	protected.GET("/verify", authHandler.Verify)
	protected.POST("/change-password", authHandler.ChangePassword)

	return &handlerFixture{router: router, users: users, actions: actions}
}

func (f *handlerFixture) do(t *testing.T, method, path string, payload any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var parsed map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

const handlerTestPassword = "S3cure!Passwrd"

func (f *handlerFixture) registerUser(t *testing.T, email string) map[string]any {
	t.Helper()
	w, body := f.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"email":    email,
		"password": handlerTestPassword,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	return body["data"].(map[string]any)
}

func TestRegisterEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	w, body := f.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"email":      "alice@example.com",
		"username":   "alice",
		"first_name": "Alice",
		"last_name":  "Liddell",
		"password":   handlerTestPassword,
	}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, constants.StatusSuccess, body["status"])

	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["access_token"])
	assert.NotEmpty(t, data["refresh_token"])
	assert.Equal(t, constants.TokenTypeBearer, data["token_type"])
	// Mail is disabled in tests, so the verification token is exposed.
	assert.NotEmpty(t, data["verification_token"])

	user := data["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, "Alice", user["first_name"])
	assert.Equal(t, "Liddell", user["last_name"])
	assert.Equal(t, false, user["is_verified"])
	assert.NotContains(t, user, "password_hash")
}

func TestLoginEndpointAcceptsAnyEmailCasing(t *testing.T) {
	f := newHandlerFixture(t)
	f.registerUser(t, "Alice@Example.com")

	w, _ := f.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "ALICE@EXAMPLE.COM",
		"password": handlerTestPassword,
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterEndpointValidation(t *testing.T) {
	f := newHandlerFixture(t)

	w, body := f.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"email":    "not-an-email",
		"password": handlerTestPassword,
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, constants.StatusError, body["status"])
	fieldErrors := body["errors"].(map[string]any)
	assert.Contains(t, fieldErrors, "email")
}

func TestRegisterEndpointDuplicateEmail(t *testing.T) {
	f := newHandlerFixture(t)
	f.registerUser(t, "alice@example.com")

	w, body := f.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"email":    "alice@example.com",
		"password": handlerTestPassword,
	}, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, constants.StatusError, body["status"])
}

func TestRegisterEndpointWeakPassword(t *testing.T) {
	f := newHandlerFixture(t)

	w, body := f.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"email":    "alice@example.com",
		"password": "Password123",
	}, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, constants.StatusError, body["status"])
}

func TestLoginEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	f.registerUser(t, "alice@example.com")

	w, body := f.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": handlerTestPassword,
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["access_token"])
	assert.NotEmpty(t, data["refresh_token"])
	assert.EqualValues(t, 900, data["expires_in"])
}

func TestLoginEndpointBadCredentials(t *testing.T) {
	f := newHandlerFixture(t)
	f.registerUser(t, "alice@example.com")

	w, body := f.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "Wr0ng!Passwrd",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	wrongPasswordMsg := body["message"]

	// Unknown accounts yield byte-identical failures.
	w, body = f.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "ghost@example.com",
		"password": "Wr0ng!Passwrd",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, wrongPasswordMsg, body["message"])
}

func TestRefreshEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	data := f.registerUser(t, "alice@example.com")
	refreshToken := data["refresh_token"].(string)

	w, body := f.do(t, http.MethodPost, "/api/auth/refresh", gin.H{
		"refresh_token": refreshToken,
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	tokenData := body["data"].(map[string]any)
	assert.NotEmpty(t, tokenData["access_token"])
	assert.EqualValues(t, 900, tokenData["expires_in"])
}

func TestRefreshEndpointRejectsGarbage(t *testing.T) {
	f := newHandlerFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/auth/refresh", gin.H{
		"refresh_token": "garbage",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyEmailEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	data := f.registerUser(t, "alice@example.com")
	verificationToken := data["verification_token"].(string)

	w, _ := f.do(t, http.MethodGet, "/api/auth/verify-email/"+verificationToken, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	user, err := f.users.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsVerified)

	// The link only works once.
	w, _ = f.do(t, http.MethodGet, "/api/auth/verify-email/"+verificationToken, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyEmailEndpointUnknownToken(t *testing.T) {
	f := newHandlerFixture(t)

	w, _ := f.do(t, http.MethodGet, "/api/auth/verify-email/not-a-token", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestForgotPasswordEndpointIsGeneric(t *testing.T) {
	f := newHandlerFixture(t)
	f.registerUser(t, "alice@example.com")

	w, body := f.do(t, http.MethodPost, "/api/auth/forgot-password", gin.H{
		"email": "alice@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	knownMsg := body["message"]

	w, body = f.do(t, http.MethodPost, "/api/auth/forgot-password", gin.H{
		"email": "ghost@example.com",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, knownMsg, body["message"])
}

func TestResetPasswordEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	f.registerUser(t, "alice@example.com")

	w, _ := f.do(t, http.MethodPost, "/api/auth/forgot-password", gin.H{
		"email": "alice@example.com",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Pull the reset token straight from the store, as the email would carry it.
	var resetToken string
	for value, token := range f.actions.tokens {
		if token.Purpose == constants.PurposePasswordReset {
			resetToken = value
		}
	}
	require.NotEmpty(t, resetToken)

	w, _ = f.do(t, http.MethodPost, "/api/auth/reset-password", gin.H{
		"token":        resetToken,
		"new_password": "N3w!Secure#Pwd",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "N3w!Secure#Pwd",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPasswordStrengthEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	w, body := f.do(t, http.MethodPost, "/api/auth/password-strength", gin.H{
		"password": "C0mpl3x!Phrase#With$Length",
	}, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 100, data["score"])
	assert.Equal(t, service.StrengthVeryStrong, data["strength"])
}

func TestLogoutEndpointRequiresAuth(t *testing.T) {
	f := newHandlerFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/auth/logout", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutEndpointRevokesRefreshToken(t *testing.T) {
	f := newHandlerFixture(t)
	data := f.registerUser(t, "alice@example.com")
	accessToken := data["access_token"].(string)
	refreshToken := data["refresh_token"].(string)
	authHeader := map[string]string{"Authorization": "Bearer " + accessToken}

	w, _ := f.do(t, http.MethodPost, "/api/auth/logout", gin.H{
		"refresh_token": refreshToken,
	}, authHeader)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(t, http.MethodPost, "/api/auth/refresh", gin.H{
		"refresh_token": refreshToken,
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Logout stays 200 when repeated.
	w, _ = f.do(t, http.MethodPost, "/api/auth/logout", gin.H{
		"refresh_token": refreshToken,
	}, authHeader)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestVerifyEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	data := f.registerUser(t, "alice@example.com")
	accessToken := data["access_token"].(string)

	w, body := f.do(t, http.MethodGet, "/api/auth/verify", nil, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	userData := body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", userData["email"])
}

func TestChangePasswordEndpoint(t *testing.T) {
	f := newHandlerFixture(t)
	data := f.registerUser(t, "alice@example.com")
	accessToken := data["access_token"].(string)
	authHeader := map[string]string{"Authorization": "Bearer " + accessToken}

	w, _ := f.do(t, http.MethodPost, "/api/auth/change-password", gin.H{
		"current_password": handlerTestPassword,
		"new_password":     "N3w!Secure#Pwd",
		"confirm_password": "N3w!Secure#Pwd",
	}, authHeader)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "N3w!Secure#Pwd",
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestChangePasswordEndpointMismatch(t *testing.T) {
	f := newHandlerFixture(t)
	data := f.registerUser(t, "alice@example.com")
	accessToken := data["access_token"].(string)

	w, _ := f.do(t, http.MethodPost, "/api/auth/change-password", gin.H{
		"current_password": handlerTestPassword,
		"new_password":     "N3w!Secure#Pwd",
		"confirm_password": "D1ff3rent!Pwd",
	}, map[string]string{"Authorization": "Bearer " + accessToken})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
