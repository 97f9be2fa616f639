// Package server assembles the HTTP router from the application services.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"financially/internal/handlers"
	"financially/internal/middleware"
	"financially/internal/services"
	"financially/internal/session"

	_ "financially/internal/docs" // Import swagger docs
)

// Services are the business services the routes delegate to.
type Services struct {
	Auth        services.AuthServicer
	Account     services.AccountServicer
	Transaction services.TransactionServicer
	Budget      services.BudgetServicer
	Alert       services.AlertServicer
	Analytics   services.AnalyticsServicer
	Dashboard   services.DashboardServicer
	Sync        services.SyncServicer
	Audit       services.AuditServicer
}

// Options carries the HTTP-level settings.
type Options struct {
	CORSOrigin    string
	MetricsAPIKey string
	// ExposeLinks returns verification links in signup responses.
	ExposeLinks bool
	Sessions    session.Store
}

// NewRouter wires middleware, handlers and routes.
func NewRouter(svc Services, opts Options) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Auth, svc.Audit, opts.ExposeLinks)
	accountHandler := handlers.NewAccountHandler(svc.Auth, svc.Account, svc.Audit)
	plaidHandler := handlers.NewPlaidHandler(svc.Sync, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transaction, svc.Analytics, svc.Audit)
	budgetHandler := handlers.NewBudgetHandler(svc.Budget, svc.Audit)
	alertHandler := handlers.NewAlertHandler(svc.Alert, svc.Audit)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(opts.CORSOrigin))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/metrics", middleware.MetricsAuthMiddleware(opts.MetricsAPIKey), gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := middleware.AuthMiddleware(opts.Sessions)

	// Public auth routes
	auth := api.Group("/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.GET("/verify-email/:token", authHandler.VerifyEmail)
	auth.POST("/resend-verification", authHandler.ResendVerification)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.GET("/verify-reset-token/:token", authHandler.VerifyResetToken)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.POST("/logout", requireAuth, authHandler.Logout)

	// Protected routes
	protected := api.Group("/")
	protected.Use(requireAuth)

	accounts := protected.Group("/accounts")
	accounts.GET("/profile", accountHandler.GetProfile)
	accounts.PUT("/update-password", accountHandler.UpdatePassword)
	accounts.GET("/accounts", accountHandler.GetAccounts)
	accounts.POST("/accounts", accountHandler.CreateAccount)
	accounts.PUT("/accounts/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/accounts/:id", accountHandler.DeleteAccount)
	accounts.POST("/connect-bank", accountHandler.ConnectBank)
	accounts.GET("/bank-connection-status", accountHandler.GetBankConnectionStatus)

	plaid := accounts.Group("/plaid")
	plaid.POST("/create-link-token", plaidHandler.CreateLinkToken)
	plaid.POST("/exchange-token", plaidHandler.ExchangeToken)
	plaid.POST("/sync-transactions", plaidHandler.SyncTransactions)

	transactions := protected.Group("/transactions")
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("/stats/monthly", transactionHandler.GetMonthlyStats)
	transactions.GET("/stats/categories", transactionHandler.GetCategoryStats)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	budgets := protected.Group("/budgets")
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("/:id", budgetHandler.GetBudgetByID)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	alerts := protected.Group("/alerts")
	alerts.GET("", alertHandler.GetAlerts)
	alerts.POST("", alertHandler.CreateAlert)
	alerts.PUT("/:id", alertHandler.UpdateAlert)
	alerts.DELETE("/:id", alertHandler.DeleteAlert)

	protected.GET("/dashboard/data", dashboardHandler.GetDashboard)

	return router
}
