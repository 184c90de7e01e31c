package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coreconnect/backend/internal/constants"
	"github.com/coreconnect/backend/internal/middleware"
	"github.com/coreconnect/backend/internal/service"
	ctxutil "github.com/coreconnect/backend/pkg/context"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
}

func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Summary serves the per-user dashboard aggregate
func (h *DashboardHandler) Summary(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Summary")

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(constants.MsgUnauthorized, nil))
		return
	}

	summary, err := h.dashboardService.GetSummary(ctx, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Dashboard summary", gin.H{
		"summary": summary,
	}))
}

// Activity serves the recent-activity feed
func (h *DashboardHandler) Activity(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Activity")

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(constants.MsgUnauthorized, nil))
		return
	}

	entries, err := h.dashboardService.GetActivity(ctx, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Recent activity", gin.H{
		"activity": entries,
	}))
}

// AdminStats serves platform-wide counts. Route is gated on the admin role.
func (h *DashboardHandler) AdminStats(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "AdminStats")

	stats, err := h.dashboardService.GetAdminStats(ctx)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse("Platform statistics", gin.H{
		"stats": stats,
	}))
}
