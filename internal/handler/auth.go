package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coreconnect/backend/internal/constants"
	"github.com/coreconnect/backend/internal/dto"
	apperrors "github.com/coreconnect/backend/internal/errors"
	"github.com/coreconnect/backend/internal/middleware"
	"github.com/coreconnect/backend/internal/service"
	ctxutil "github.com/coreconnect/backend/pkg/context"
	"github.com/coreconnect/backend/pkg/logger"
	"github.com/coreconnect/backend/pkg/validation"
)

type AuthHandler struct {
	authService     *service.AuthService
	passwordService *service.PasswordService
	tokenService    *service.TokenService
	userService     *service.UserService
}

func NewAuthHandler(
	authService *service.AuthService,
	passwordService *service.PasswordService,
	tokenService *service.TokenService,
	userService *service.UserService,
) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		passwordService: passwordService,
		tokenService:    tokenService,
		userService:     userService,
	}
}

// Register creates a new account and returns a token pair
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Register")

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid registration request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			constants.MsgBadRequest, validation.FieldErrors(err)))
		return
	}

	logger.InfoWithContext(ctx, "Registration attempt").
		String("email", req.Email).
		Log()

	result, err := h.authService.Register(ctx, service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		logger.WarnWithContext(ctx, "Registration failed").
			String("email", req.Email).
			Err(err).
			Log()
		respondDomainError(c, err)
		return
	}

	data := gin.H{
		"access_token":  result.Tokens.AccessToken,
		"refresh_token": result.Tokens.RefreshToken,
		"token_type":    constants.TokenTypeBearer,
		"expires_in":    result.Tokens.ExpiresIn,
		"user":          dto.NewUserResponse(result.User),
	}
	// Without SMTP the client still needs a path to verification.
	if !result.EmailSent && result.VerificationToken != "" {
		data["verification_token"] = result.VerificationToken
	}

	c.JSON(http.StatusCreated, constants.BuildSuccessResponse(
		"Registration successful. Please verify your email address.", data))
}

// Login authenticates a user and returns a token pair
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Login")

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid login request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			constants.MsgBadRequest, validation.FieldErrors(err)))
		return
	}

	logger.InfoWithContext(ctx, "Login attempt").
		String("email", req.Email).
		Log()

	user, pair, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		logger.WarnWithContext(ctx, "Login failed").
			String("email", req.Email).
			Err(err).
			Log()
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Login successful", dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    constants.TokenTypeBearer,
		ExpiresIn:    pair.ExpiresIn,
		User:         dto.NewUserResponse(user),
	}))
}

// RefreshToken exchanges a refresh token for a new access token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "RefreshToken")

	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			constants.MsgBadRequest, validation.FieldErrors(err)))
		return
	}

	accessToken, err := h.tokenService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		logger.WarnWithContext(ctx, "Token refresh failed").
			Err(err).
			Log()
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Token refreshed", dto.AccessTokenResponse{
		AccessToken: accessToken,
		TokenType:   constants.TokenTypeBearer,
		ExpiresIn:   h.tokenService.AccessTTLSeconds(),
	}))
}

// Logout revokes the supplied refresh token. Always returns 200.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Logout")

	var req dto.LogoutRequest
	// Body is optional; a missing or malformed body still logs out.
	_ = c.ShouldBindJSON(&req)

	h.authService.Logout(ctx, req.RefreshToken)

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Logout successful", nil))
}

// VerifyEmail consumes a verification token from the URL
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "VerifyEmail")

	token := c.Param("token")
	if err := h.authService.VerifyEmail(ctx, token); err != nil {
		logger.WarnWithContext(ctx, "Email verification failed").
			Err(err).
			Log()
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Email verified successfully", nil))
}

// ForgotPassword always answers with the same generic message
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ForgotPassword")

	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			constants.MsgBadRequest, validation.FieldErrors(err)))
		return
	}

	h.authService.ForgotPassword(ctx, req.Email)

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(constants.MsgGenericReset, nil))
}

// ResetPassword consumes a reset token and sets the new password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ResetPassword")

	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			constants.MsgBadRequest, validation.FieldErrors(err)))
		return
	}

	if err := h.authService.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		logger.WarnWithContext(ctx, "Password reset failed").
			Err(err).
			Log()
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(
		"Password has been reset. Please log in with your new password.", nil))
}

// ChangePassword rotates the password for the authenticated user
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ChangePassword")

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(constants.MsgUnauthorized, nil))
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			constants.MsgBadRequest, validation.FieldErrors(err)))
		return
	}

	if req.NewPassword != req.ConfirmPassword {
		respondDomainError(c, apperrors.ErrPasswordMismatch)
		return
	}

	if err := h.authService.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		logger.WarnWithContext(ctx, "Password change failed").
			Int("user_id", int(userID)).
			Err(err).
			Log()
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(
		"Password changed. Other sessions have been signed out.", nil))
}

// PasswordStrength scores a candidate password without storing it
func (h *AuthHandler) PasswordStrength(c *gin.Context) {
	var req dto.PasswordStrengthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			constants.MsgBadRequest, validation.FieldErrors(err)))
		return
	}

	score, label := h.passwordService.Score(req.Password)

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Password evaluated", dto.PasswordStrengthResponse{
		Score:    score,
		Strength: label,
	}))
}

// Verify returns the current authenticated user, proving the token works
func (h *AuthHandler) Verify(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Verify")

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(constants.MsgUnauthorized, nil))
		return
	}

	user, err := h.userService.GetProfile(ctx, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Token is valid", gin.H{
		"user": dto.NewUserResponse(user),
	}))
}

// respondDomainError maps a service error to the HTTP envelope
func respondDomainError(c *gin.Context, err error) {
	status := apperrors.ToHTTPStatus(err)
	message := apperrors.GetErrorMessage(err)
	if status == http.StatusInternalServerError {
		message = constants.MsgInternalError
	}
	c.JSON(status, constants.BuildErrorResponse(message, nil))
}
