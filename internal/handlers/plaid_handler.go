package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "financially/internal/errors"
	"financially/internal/services"
)

// PlaidHandler proxies bank linking and runs transaction ingestion.
type PlaidHandler struct {
	syncService  services.SyncServicer
	auditService services.AuditServicer
}

// NewPlaidHandler creates a new PlaidHandler.
func NewPlaidHandler(syncService services.SyncServicer, auditService services.AuditServicer) *PlaidHandler {
	return &PlaidHandler{syncService: syncService, auditService: auditService}
}

// ExchangeTokenRequest carries the public token returned by the link flow.
type ExchangeTokenRequest struct {
	PublicToken string `json:"public_token" binding:"required"`
}

// LinkTokenResponse is the link session token for the client widget.
type LinkTokenResponse struct {
	LinkToken string `json:"link_token"`
}

// ExchangeTokenResponse summarises an initial link.
type ExchangeTokenResponse struct {
	Message        string   `json:"message"`
	Accounts       int      `json:"accounts"`
	Transactions   int      `json:"transactions"`
	FailedAccounts []string `json:"failedAccounts,omitempty"`
}

// SyncResponse reports how many transactions a sync stored.
type SyncResponse struct {
	Message         string `json:"message"`
	NewTransactions int    `json:"newTransactions"`
}

// CreateLinkToken starts a bank link session.
// @Summary     Create link token
// @Tags        plaid
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} LinkTokenResponse "Link token"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Provider failure"
// @Router      /accounts/plaid/create-link-token [post]
func (h *PlaidHandler) CreateLinkToken(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := h.syncService.CreateLinkToken(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, LinkTokenResponse{LinkToken: token})
}

// ExchangeToken completes a bank link and imports recent transactions.
// @Summary     Exchange public token
// @Description Replace the user's accounts with the linked bank's and import the last 30 days
// @Tags        plaid
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ExchangeTokenRequest true "Public token"
// @Success     200 {object} ExchangeTokenResponse "Bank connected"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Provider or store failure"
// @Router      /accounts/plaid/exchange-token [post]
func (h *PlaidHandler) ExchangeToken(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ExchangeTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.syncService.LinkBank(c.Request.Context(), userID, req.PublicToken)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "LINK_BANK", "user", userID, c.ClientIP(), map[string]interface{}{
		"accounts":        result.Accounts,
		"transactions":    result.Transactions,
		"failed_accounts": result.FailedAccounts,
	})

	c.JSON(http.StatusOK, ExchangeTokenResponse{
		Message:        "Bank connected successfully",
		Accounts:       result.Accounts,
		Transactions:   result.Transactions,
		FailedAccounts: result.FailedAccounts,
	})
}

// SyncTransactions imports the last week of transactions of every linked account.
// @Summary     Sync transactions
// @Tags        plaid
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} SyncResponse "Transactions synced"
// @Failure     400 {object} ErrorResponse "No bank connected"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/plaid/sync-transactions [post]
func (h *PlaidHandler) SyncTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	count, err := h.syncService.SyncTransactions(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "SYNC_TRANSACTIONS", "user", userID, c.ClientIP(),
		map[string]interface{}{"new_transactions": count})

	c.JSON(http.StatusOK, SyncResponse{Message: "Transactions synced successfully", NewTransactions: count})
}
