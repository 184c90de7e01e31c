package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coreconnect/backend/internal/constants"
	"github.com/coreconnect/backend/internal/dto"
	"github.com/coreconnect/backend/internal/middleware"
	"github.com/coreconnect/backend/internal/service"
	ctxutil "github.com/coreconnect/backend/pkg/context"
	"github.com/coreconnect/backend/pkg/logger"
	"github.com/coreconnect/backend/pkg/validation"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile returns the authenticated user's profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "GetProfile")

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

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Profile retrieved", gin.H{
		"user": dto.NewUserResponse(user),
	}))
}

// UpdateProfile applies a partial update to the authenticated user's profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "UpdateProfile")

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(constants.MsgUnauthorized, nil))
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			constants.MsgBadRequest, validation.FieldErrors(err)))
		return
	}

	user, err := h.userService.UpdateProfile(ctx, userID, service.ProfileUpdate{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		AvatarURL: req.AvatarURL,
		Bio:       req.Bio,
		Location:  req.Location,
		Website:   req.Website,
	})
	if err != nil {
		logger.WarnWithContext(ctx, "Profile update failed").
			Int("user_id", int(userID)).
			Err(err).
			Log()
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Profile updated", gin.H{
		"user": dto.NewUserResponse(user),
	}))
}

// DeleteAccount soft-deletes the authenticated user's account
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "DeleteAccount")

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(constants.MsgUnauthorized, nil))
		return
	}

	if err := h.userService.DeactivateAccount(ctx, userID); err != nil {
		logger.ErrorWithContext(ctx, "Account deactivation failed").
			Int("user_id", int(userID)).
			Err(err).
			Log()
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Account deactivated", nil))
}
