package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "financially/internal/errors"
	"financially/internal/services"
)

type mockSyncService struct {
	createLinkTokenFn func(userID string) (string, error)
	linkBankFn        func(userID, publicToken string) (*services.LinkResult, error)
	syncFn            func(userID string) (int, error)
}

var _ services.SyncServicer = (*mockSyncService)(nil)

func (m *mockSyncService) CreateLinkToken(_ context.Context, userID string) (string, error) {
	if m.createLinkTokenFn != nil {
		return m.createLinkTokenFn(userID)
	}
	return "link-sandbox-test", nil
}

func (m *mockSyncService) LinkBank(_ context.Context, userID, publicToken string) (*services.LinkResult, error) {
	if m.linkBankFn != nil {
		return m.linkBankFn(userID, publicToken)
	}
	return &services.LinkResult{}, nil
}

func (m *mockSyncService) SyncTransactions(_ context.Context, userID string) (int, error) {
	if m.syncFn != nil {
		return m.syncFn(userID)
	}
	return 0, nil
}

func setupPlaidRouter(handler *PlaidHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("/accounts/plaid", injectUserID(testUserID))
	g.POST("/create-link-token", handler.CreateLinkToken)
	g.POST("/exchange-token", handler.ExchangeToken)
	g.POST("/sync-transactions", handler.SyncTransactions)
	return r
}

func TestPlaidHandler_CreateLinkToken(t *testing.T) {
	t.Run("returns the link token", func(t *testing.T) {
		var gotUser string
		syncSvc := &mockSyncService{
			createLinkTokenFn: func(userID string) (string, error) {
				gotUser = userID
				return "link-sandbox-1", nil
			},
		}
		r := setupPlaidRouter(NewPlaidHandler(syncSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/accounts/plaid/create-link-token", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotUser != testUserID {
			t.Errorf("expected user %s, got %s", testUserID, gotUser)
		}
		if parseJSON(t, rec)["link_token"] != "link-sandbox-1" {
			t.Error("expected link_token in body")
		}
	})

	t.Run("returns 500 on provider failure", func(t *testing.T) {
		syncSvc := &mockSyncService{
			createLinkTokenFn: func(string) (string, error) { return "", apperrors.ErrProviderFailure },
		}
		r := setupPlaidRouter(NewPlaidHandler(syncSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/accounts/plaid/create-link-token", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PROVIDER_ERROR")
	})
}

func TestPlaidHandler_ExchangeToken(t *testing.T) {
	t.Run("returns link summary", func(t *testing.T) {
		var gotToken string
		syncSvc := &mockSyncService{
			linkBankFn: func(_, publicToken string) (*services.LinkResult, error) {
				gotToken = publicToken
				return &services.LinkResult{Accounts: 2, Transactions: 7, FailedAccounts: []string{"acc-9"}}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupPlaidRouter(NewPlaidHandler(syncSvc, audit))

		rec := doRequest(r, "POST", "/accounts/plaid/exchange-token", `{"public_token":"public-sandbox-1"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotToken != "public-sandbox-1" {
			t.Errorf("expected public token forwarded, got %q", gotToken)
		}
		result := parseJSON(t, rec)
		if result["message"] != "Bank connected successfully" {
			t.Errorf("unexpected message %v", result["message"])
		}
		if result["accounts"].(float64) != 2 || result["transactions"].(float64) != 7 {
			t.Errorf("unexpected counts %v", result)
		}
		if failed := result["failedAccounts"].([]interface{}); len(failed) != 1 || failed[0] != "acc-9" {
			t.Errorf("unexpected failedAccounts %v", failed)
		}
		if got := audit.actions(); len(got) != 1 || got[0] != "LINK_BANK" {
			t.Errorf("expected LINK_BANK audit entry, got %v", got)
		}
	})

	t.Run("omits failedAccounts when every account imported", func(t *testing.T) {
		syncSvc := &mockSyncService{
			linkBankFn: func(_, _ string) (*services.LinkResult, error) {
				return &services.LinkResult{Accounts: 1, Transactions: 3}, nil
			},
		}
		r := setupPlaidRouter(NewPlaidHandler(syncSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/accounts/plaid/exchange-token", `{"public_token":"public-sandbox-1"}`)

		if _, ok := parseJSON(t, rec)["failedAccounts"]; ok {
			t.Error("failedAccounts should be omitted")
		}
	})

	t.Run("returns 400 without public token", func(t *testing.T) {
		r := setupPlaidRouter(NewPlaidHandler(&mockSyncService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/accounts/plaid/exchange-token", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 500 when the link fails", func(t *testing.T) {
		syncSvc := &mockSyncService{
			linkBankFn: func(_, _ string) (*services.LinkResult, error) { return nil, apperrors.ErrProviderFailure },
		}
		audit := &mockAuditService{}
		r := setupPlaidRouter(NewPlaidHandler(syncSvc, audit))

		rec := doRequest(r, "POST", "/accounts/plaid/exchange-token", `{"public_token":"bad"}`)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if len(audit.entries) != 0 {
			t.Error("failed link must not be audited")
		}
	})
}

func TestPlaidHandler_SyncTransactions(t *testing.T) {
	t.Run("returns the new transaction count", func(t *testing.T) {
		syncSvc := &mockSyncService{
			syncFn: func(string) (int, error) { return 4, nil },
		}
		r := setupPlaidRouter(NewPlaidHandler(syncSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/accounts/plaid/sync-transactions", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["newTransactions"].(float64) != 4 {
			t.Errorf("expected 4 new transactions, got %v", result["newTransactions"])
		}
		if result["message"] != "Transactions synced successfully" {
			t.Errorf("unexpected message %v", result["message"])
		}
	})

	t.Run("returns 400 when no bank is connected", func(t *testing.T) {
		syncSvc := &mockSyncService{
			syncFn: func(string) (int, error) { return 0, apperrors.ErrNoBankConnected },
		}
		r := setupPlaidRouter(NewPlaidHandler(syncSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/accounts/plaid/sync-transactions", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "NO_BANK_CONNECTED")
	})
}
