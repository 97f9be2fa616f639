package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "financially/internal/errors"
	"financially/internal/models"
)

const (
	DefaultDashboardMonths = 6
	MaxDashboardMonths     = 24
	recentTransactions     = 5
)

// dashboardService composes the dashboard from accounts, analytics and budgets.
type dashboardService struct {
	db        *gorm.DB
	analytics AnalyticsServicer
	budgets   BudgetServicer
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(db *gorm.DB, analytics AnalyticsServicer, budgets BudgetServicer) DashboardServicer {
	return &dashboardService{db: db, analytics: analytics, budgets: budgets}
}

// GetDashboard returns the overview for the month containing now. Users
// without a connected bank get only BankConnected=false.
func (s *dashboardService) GetDashboard(userID string, now time.Time, months int) (*Dashboard, error) {
	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !user.BankConnected {
		return &Dashboard{BankConnected: false}, nil
	}

	if months < 1 || months > MaxDashboardMonths {
		months = DefaultDashboardMonths
	}
	now = now.UTC()
	month, year := int(now.Month()), now.Year()

	d := &Dashboard{BankConnected: true}

	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&d.Accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	d.NetWorth = decimal.Zero
	for _, a := range d.Accounts {
		d.NetWorth = d.NetWorth.Add(a.Balance)
	}
	d.NetWorth = d.NetWorth.Round(moneyPlaces)

	stats, err := s.analytics.MonthlyStats(userID, month, year)
	if err != nil {
		return nil, err
	}
	d.Income = stats.TotalIncome
	d.Expenses = stats.TotalExpenses
	d.SavingsRate = savingsRate(d.Income, d.Expenses)

	if err := s.db.Where("user_id = ?", userID).
		Order("date DESC, created_at DESC").
		Limit(recentTransactions).
		Find(&d.Transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if d.Budgets, err = s.budgets.GetBudgets(userID, month, year); err != nil {
		return nil, err
	}

	spending, err := s.analytics.SpendingByCategory(userID, month, year)
	if err != nil {
		return nil, err
	}
	d.SpendingByCategory = categoryShares(spending)

	if d.SpendingByMonth, err = s.analytics.SpendingByMonth(userID, month, year, months); err != nil {
		return nil, err
	}

	if d.Accounts == nil {
		d.Accounts = []models.Account{}
	}
	if d.Transactions == nil {
		d.Transactions = []models.Transaction{}
	}
	return d, nil
}

// savingsRate is round((income - expenses) / income × 100), or 0 without income.
func savingsRate(income, expenses decimal.Decimal) int64 {
	if !income.IsPositive() {
		return 0
	}
	return roundHalfUp(income.Sub(expenses).Div(income).Mul(hundred))
}

var half = decimal.NewFromFloat(0.5)

// roundHalfUp rounds to the nearest integer with halves going toward +∞.
func roundHalfUp(d decimal.Decimal) int64 {
	return d.Add(half).Floor().IntPart()
}

// categoryShares adds each category's rounded percentage of total spending.
func categoryShares(spending []CategorySpending) []CategoryShare {
	total := decimal.Zero
	for _, c := range spending {
		total = total.Add(c.TotalAmount)
	}

	shares := make([]CategoryShare, 0, len(spending))
	for _, c := range spending {
		share := CategoryShare{CategorySpending: c}
		if total.IsPositive() {
			share.Percentage = roundHalfUp(c.TotalAmount.Div(total).Mul(hundred))
		}
		shares = append(shares, share)
	}
	return shares
}
