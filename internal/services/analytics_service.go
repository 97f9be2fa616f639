package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "financially/internal/errors"
	"financially/internal/models"
)

// moneyPlaces is the precision aggregated amounts are rounded to.
const moneyPlaces = 2

// analyticsService computes aggregates on read; nothing is cached.
type analyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService creates a new AnalyticsServicer.
func NewAnalyticsService(db *gorm.DB) AnalyticsServicer {
	return &analyticsService{db: db}
}

// MonthlyStats sums income and expenses of the user's transactions dated in the month.
func (s *analyticsService) MonthlyStats(userID string, month, year int) (*MonthlyStats, error) {
	start, end := monthWindow(month, year)

	var stats MonthlyStats
	err := s.db.Model(&models.Transaction{}).
		Select(`COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS total_income,
			COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS total_expenses,
			COUNT(*) AS total_transactions`,
			models.TransactionTypeIncome, models.TransactionTypeExpense).
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Scan(&stats).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	stats.TotalIncome = stats.TotalIncome.Round(moneyPlaces)
	stats.TotalExpenses = stats.TotalExpenses.Round(moneyPlaces)
	return &stats, nil
}

// SpendingByCategory groups the month's expenses by category, largest first.
func (s *analyticsService) SpendingByCategory(userID string, month, year int) ([]CategorySpending, error) {
	start, end := monthWindow(month, year)

	var rows []CategorySpending
	err := s.db.Model(&models.Transaction{}).
		Select("category, COALESCE(SUM(amount), 0) AS total_amount, COUNT(*) AS transaction_count").
		Where("user_id = ? AND type = ? AND date >= ? AND date < ?", userID, models.TransactionTypeExpense, start, end).
		Group("category").
		Order("total_amount DESC, category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range rows {
		rows[i].TotalAmount = rows[i].TotalAmount.Round(moneyPlaces)
	}
	if rows == nil {
		rows = []CategorySpending{}
	}
	return rows, nil
}

// SpendingByMonth totals expenses per calendar month over the trailing
// months ending at (month, year), newest first. Months without any
// transaction are omitted.
func (s *analyticsService) SpendingByMonth(userID string, month, year, months int) ([]MonthSpending, error) {
	if months < 1 {
		return []MonthSpending{}, nil
	}
	_, end := monthWindow(month, year)
	start := end.AddDate(0, -months, 0)

	var rows []struct {
		Date   time.Time
		Type   models.TransactionType
		Amount decimal.Decimal
	}
	err := s.db.Model(&models.Transaction{}).
		Select("date, type, amount").
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Scan(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	type key struct{ year, month int }
	totals := make(map[key]decimal.Decimal)
	for _, r := range rows {
		k := key{r.Date.Year(), int(r.Date.Month())}
		total := totals[k]
		if r.Type == models.TransactionTypeExpense {
			total = total.Add(r.Amount)
		}
		totals[k] = total
	}

	result := make([]MonthSpending, 0, len(totals))
	for k, total := range totals {
		result = append(result, MonthSpending{Year: k.year, Month: k.month, TotalExpenses: total.Round(moneyPlaces)})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Year != result[j].Year {
			return result[i].Year > result[j].Year
		}
		return result[i].Month > result[j].Month
	})
	return result, nil
}

// expensesByCategory maps category to the month's expense total.
func expensesByCategory(db *gorm.DB, userID string, month, year int) (map[string]decimal.Decimal, error) {
	start, end := monthWindow(month, year)

	var rows []struct {
		Category string
		Total    decimal.Decimal
	}
	err := db.Model(&models.Transaction{}).
		Select("category, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND type = ? AND date >= ? AND date < ?", userID, models.TransactionTypeExpense, start, end).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		out[r.Category] = r.Total.Round(moneyPlaces)
	}
	return out, nil
}
