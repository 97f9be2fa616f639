package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "financially/internal/errors"
	"financially/internal/models"
	"financially/internal/services"
)

// AlertHandler handles alert rule requests.
type AlertHandler struct {
	alertService services.AlertServicer
	auditService services.AuditServicer
}

// NewAlertHandler creates a new AlertHandler.
func NewAlertHandler(alertService services.AlertServicer, auditService services.AuditServicer) *AlertHandler {
	return &AlertHandler{alertService: alertService, auditService: auditService}
}

// CreateAlertRequest represents the request payload for creating an alert.
type CreateAlertRequest struct {
	Type      models.AlertType `json:"type" binding:"required,alert_type"`
	Category  string           `json:"category" binding:"omitempty,category"`
	Threshold *decimal.Decimal `json:"threshold"`
	Message   string           `json:"message" binding:"max=500"`
	Enabled   *bool            `json:"enabled"`
}

// UpdateAlertRequest represents the request payload for updating an alert.
type UpdateAlertRequest struct {
	Type      *models.AlertType `json:"type" binding:"omitempty,alert_type"`
	Category  *string           `json:"category"`
	Threshold *decimal.Decimal  `json:"threshold"`
	Message   *string           `json:"message" binding:"omitempty,max=500"`
	Enabled   *bool             `json:"enabled"`
}

// CreateAlert handles the creation of an alert rule.
// @Summary     Create alert
// @Tags        alerts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAlertRequest true "Alert details"
// @Success     201 {object} models.Alert "Alert created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /alerts [post]
func (h *AlertHandler) CreateAlert(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	alert, err := h.alertService.CreateAlert(userID, services.AlertFields{
		Type:      &req.Type,
		Category:  &req.Category,
		Threshold: req.Threshold,
		Message:   &req.Message,
		Enabled:   req.Enabled,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_ALERT", "alert", alert.ID, c.ClientIP(),
		map[string]interface{}{"type": alert.Type, "category": alert.Category})

	c.JSON(http.StatusCreated, gin.H{"alert": alert})
}

// GetAlerts lists the user's alert rules.
// @Summary     Get alerts
// @Tags        alerts
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  models.Alert "Alert rules, newest first"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /alerts [get]
func (h *AlertHandler) GetAlerts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	alerts, err := h.alertService.GetUserAlerts(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// UpdateAlert handles updating an alert rule.
// @Summary     Update alert
// @Tags        alerts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string             true "Alert ID"
// @Param       request body UpdateAlertRequest true "Fields to update"
// @Success     200 {object} models.Alert "Updated alert"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Alert not found"
// @Router      /alerts/{id} [put]
func (h *AlertHandler) UpdateAlert(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	alertID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	alert, err := h.alertService.UpdateAlert(userID, alertID, services.AlertFields{
		Type:      req.Type,
		Category:  req.Category,
		Threshold: req.Threshold,
		Message:   req.Message,
		Enabled:   req.Enabled,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_ALERT", "alert", alertID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"alert": alert})
}

// DeleteAlert handles deleting an alert rule.
// @Summary     Delete alert
// @Tags        alerts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Alert ID"
// @Success     200 {object} MessageResponse "Alert deleted"
// @Failure     400 {object} ErrorResponse "Invalid alert ID"
// @Failure     404 {object} ErrorResponse "Alert not found"
// @Router      /alerts/{id} [delete]
func (h *AlertHandler) DeleteAlert(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	alertID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.alertService.DeleteAlert(userID, alertID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_ALERT", "alert", alertID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Alert deleted successfully"})
}
