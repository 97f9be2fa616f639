package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "financially/internal/errors"
	"financially/internal/services"
)

// DashboardHandler serves the composed overview.
type DashboardHandler struct {
	dashboardService services.DashboardServicer
	now              func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService services.DashboardServicer) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, now: time.Now}
}

// GetDashboard returns net worth, this month's totals, recent activity and budgets.
// @Summary     Dashboard data
// @Description Users without a connected bank receive only bankConnected=false
// @Tags        dashboard
// @Produce     json
// @Security    BearerAuth
// @Param       months query int false "Months of spending history (1-24, default 6)"
// @Success     200 {object} services.Dashboard "Dashboard"
// @Failure     400 {object} ErrorResponse "Invalid months"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /dashboard/data [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	months := services.DefaultDashboardMonths
	if v := c.Query("months"); v != "" {
		months, err = strconv.Atoi(v)
		if err != nil || months < 1 || months > services.MaxDashboardMonths {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput,
				"months must be between 1 and "+strconv.Itoa(services.MaxDashboardMonths)))
			return
		}
	}

	dashboard, err := h.dashboardService.GetDashboard(userID, h.now(), months)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
