package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"financially/internal/models"
	"financially/internal/pagination"
)

// SignupResult reports a pending registration. VerificationURL is the link
// that was emailed to the user.
type SignupResult struct {
	Email           string
	VerificationURL string
}

// AuthServicer defines the contract for registration, login and password flows.
type AuthServicer interface {
	Signup(ctx context.Context, fullName, email, password string) (*SignupResult, error)
	VerifyEmail(ctx context.Context, token string) (*models.User, error)
	ResendVerification(ctx context.Context, email string) (*SignupResult, error)
	Login(email, password string) (*models.User, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
	ForgotPassword(ctx context.Context, email string) error
	VerifyResetToken(token string) (string, error)
	ResetPassword(token, newPassword string) error
	UpdatePassword(userID, currentPassword, newPassword string) error
	GetProfile(userID string) (*models.User, error)
	GetBankConnectionStatus(userID string) (bool, error)
	SetBankConnected(userID string) error
}

// AccountFields holds the writable columns of an account. Nil fields are left unchanged on update.
type AccountFields struct {
	Name    *string
	Bank    *string
	Balance *decimal.Decimal
	Type    *string
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID string, fields AccountFields) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, fields AccountFields) (*models.Account, error)
	DeleteAccount(userID, accountID string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate  *time.Time
	ToDate    *time.Time
	Type      *models.TransactionType
	Category  *string
	AccountID *string
}

// TransactionFields holds the writable columns of a transaction. Nil fields
// are left unchanged on update; create requires all but AccountID.
type TransactionFields struct {
	Name      *string
	Category  *string
	Amount    *decimal.Decimal
	Type      *models.TransactionType
	Date      *time.Time
	AccountID *string
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, fields TransactionFields) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, fields TransactionFields) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// BudgetProgress is a budget joined with what was spent in its category and month.
type BudgetProgress struct {
	models.Budget
	SpentAmount        decimal.Decimal `json:"spent_amount"`
	ProgressPercentage decimal.Decimal `json:"progress_percentage"`
}

// BudgetFields holds the writable columns of a budget.
type BudgetFields struct {
	Category    *string
	LimitAmount *decimal.Decimal
	Month       *int
	Year        *int
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID string, fields BudgetFields) (*models.Budget, error)
	GetBudgets(userID string, month, year int) ([]BudgetProgress, error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, fields BudgetFields) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
}

// AlertFields holds the writable columns of an alert.
type AlertFields struct {
	Type      *models.AlertType
	Category  *string
	Threshold *decimal.Decimal
	Message   *string
	Enabled   *bool
}

// AlertServicer defines the contract for alert rule management.
type AlertServicer interface {
	CreateAlert(userID string, fields AlertFields) (*models.Alert, error)
	GetUserAlerts(userID string) ([]models.Alert, error)
	GetAlertByID(userID, alertID string) (*models.Alert, error)
	UpdateAlert(userID, alertID string, fields AlertFields) (*models.Alert, error)
	DeleteAlert(userID, alertID string) error
}

// MonthlyStats summarises one calendar month of transactions.
type MonthlyStats struct {
	TotalIncome       decimal.Decimal `json:"total_income"`
	TotalExpenses     decimal.Decimal `json:"total_expenses"`
	TotalTransactions int64           `json:"total_transactions"`
}

// CategorySpending is the expense total of one category.
type CategorySpending struct {
	Category         string          `json:"category"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	TransactionCount int64           `json:"transaction_count"`
}

// CategoryShare is a category's spending with its share of the month's total.
type CategoryShare struct {
	CategorySpending
	Percentage int64 `json:"percentage"`
}

// MonthSpending is the expense total of one calendar month.
type MonthSpending struct {
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
}

// AnalyticsServicer computes read-time aggregates over transactions.
type AnalyticsServicer interface {
	MonthlyStats(userID string, month, year int) (*MonthlyStats, error)
	SpendingByCategory(userID string, month, year int) ([]CategorySpending, error)
	SpendingByMonth(userID string, month, year, months int) ([]MonthSpending, error)
}

// Dashboard is the composed overview shown after login.
type Dashboard struct {
	BankConnected      bool                 `json:"bankConnected"`
	NetWorth           decimal.Decimal      `json:"netWorth"`
	Income             decimal.Decimal      `json:"income"`
	Expenses           decimal.Decimal      `json:"expenses"`
	SavingsRate        int64                `json:"savingsRate"`
	Accounts           []models.Account     `json:"accounts"`
	Transactions       []models.Transaction `json:"transactions"`
	Budgets            []BudgetProgress     `json:"budgets"`
	SpendingByCategory []CategoryShare      `json:"spendingByCategory"`
	SpendingByMonth    []MonthSpending      `json:"spendingByMonth"`
}

// DashboardServicer composes the dashboard from the other read models.
type DashboardServicer interface {
	GetDashboard(userID string, now time.Time, months int) (*Dashboard, error)
}

// LinkResult summarises a completed bank link.
type LinkResult struct {
	Accounts       int      `json:"accounts"`
	Transactions   int      `json:"transactions"`
	FailedAccounts []string `json:"failedAccounts,omitempty"`
}

// SyncServicer links a bank through the provider and ingests its transactions.
type SyncServicer interface {
	CreateLinkToken(ctx context.Context, userID string) (string, error)
	LinkBank(ctx context.Context, userID, publicToken string) (*LinkResult, error)
	SyncTransactions(ctx context.Context, userID string) (int, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
