package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"financially/internal/cryptox"
	"financially/internal/logger"
	"financially/internal/services"
	"financially/internal/session"
	"financially/internal/testutil"
	"financially/internal/validator"
)

const (
	testFrontendURL = "http://app.test"
	testMetricsKey  = "metrics-key"
)

// testApp holds the full application stack for router tests.
type testApp struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Notifier *testutil.RecordingNotifier
	Provider *testutil.FakeProvider
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates the full router backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	notifier := &testutil.RecordingNotifier{}
	fake := testutil.NewFakeProvider()
	sessions := session.NewMemoryStore()

	sealer, err := cryptox.NewAESSealer("router-test-secret")
	if err != nil {
		t.Fatalf("failed to create sealer: %v", err)
	}

	accountService := services.NewAccountService(db)
	analyticsService := services.NewAnalyticsService(db)
	budgetService := services.NewBudgetService(db)

	router := NewRouter(Services{
		Auth:        services.NewAuthService(db, notifier, sessions, testFrontendURL),
		Account:     accountService,
		Transaction: services.NewTransactionService(db, accountService),
		Budget:      budgetService,
		Alert:       services.NewAlertService(db),
		Analytics:   analyticsService,
		Dashboard:   services.NewDashboardService(db, analyticsService, budgetService),
		Sync:        services.NewSyncService(db, fake, sealer),
		Audit:       services.NewAuditService(db),
	}, Options{
		CORSOrigin:    "*",
		MetricsAPIKey: testMetricsKey,
		ExposeLinks:   false,
		Sessions:      sessions,
	})

	return &testApp{DB: db, Router: router, Notifier: notifier, Provider: fake}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// errorCode extracts error.code from an error envelope.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := parseJSON(t, rec)
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// lastLinkToken returns the token at the end of the most recently emailed link.
func (app *testApp) lastLinkToken(t *testing.T, path string) string {
	t.Helper()
	email, ok := app.Notifier.Last()
	if !ok {
		t.Fatal("expected an email to be sent")
	}
	prefix := testFrontendURL + "/" + path + "/"
	if !strings.HasPrefix(email.Link, prefix) {
		t.Fatalf("unexpected link %q", email.Link)
	}
	return strings.TrimPrefix(email.Link, prefix)
}

// registerUser signs up, verifies the emailed link and logs in. Returns the access token and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (token, userID string) {
	t.Helper()

	body := fmt.Sprintf(`{"name":"Test User","email":%q,"password":%q}`, email, password)
	rec := app.request(http.MethodPost, "/api/auth/signup", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request(http.MethodGet, "/api/auth/verify-email/"+app.lastLinkToken(t, "verify-email"), "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("verify failed: %d %s", rec.Code, rec.Body.String())
	}

	return app.loginUser(t, email, password)
}

// loginUser logs in and returns the access token and user ID.
func (app *testApp) loginUser(t *testing.T, email, password string) (token, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request(http.MethodPost, "/api/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(string)
}
