package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"financially/internal/categories"
	apperrors "financially/internal/errors"
	"financially/internal/models"
)

var hundred = decimal.NewFromInt(100)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget creates a monthly spending limit for a category.
func (s *budgetService) CreateBudget(userID string, fields BudgetFields) (*models.Budget, error) {
	if fields.Category == nil || fields.LimitAmount == nil || fields.Month == nil || fields.Year == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category, limit, month, and year are required")
	}
	if err := validateBudgetFields(fields); err != nil {
		return nil, err
	}

	budget := &models.Budget{
		UserID:      userID,
		Category:    *fields.Category,
		LimitAmount: *fields.LimitAmount,
		Month:       *fields.Month,
		Year:        *fields.Year,
	}

	if err := s.db.Create(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return budget, nil
}

func validateBudgetFields(fields BudgetFields) error {
	if fields.Category != nil && !categories.IsValid(*fields.Category) {
		return apperrors.ErrInvalidCategory
	}
	if fields.LimitAmount != nil && !fields.LimitAmount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "limit must be greater than zero")
	}
	if fields.Month != nil && (*fields.Month < 1 || *fields.Month > 12) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	if fields.Year != nil && *fields.Year < 1 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be positive")
	}
	return nil
}

// GetBudgets returns the budgets of one month, each with what was spent in
// its category that month and the share of the limit used.
func (s *budgetService) GetBudgets(userID string, month, year int) ([]BudgetProgress, error) {
	var budgets []models.Budget
	if err := s.db.Where("user_id = ? AND month = ? AND year = ?", userID, month, year).
		Order("category ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	spent, err := expensesByCategory(s.db, userID, month, year)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := make([]BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		amount := spent[b.Category]
		result = append(result, BudgetProgress{
			Budget:             b,
			SpentAmount:        amount,
			ProgressPercentage: progressPercentage(amount, b.LimitAmount),
		})
	}
	return result, nil
}

// progressPercentage is spent / limit × 100 rounded to two places, or 0 when
// the limit is not positive.
func progressPercentage(spent, limit decimal.Decimal) decimal.Decimal {
	if !limit.IsPositive() {
		return decimal.Zero
	}
	return spent.Div(limit).Mul(hundred).Round(moneyPlaces)
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget updates an existing budget's fields.
func (s *budgetService) UpdateBudget(userID, budgetID string, fields BudgetFields) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}
	if err := validateBudgetFields(fields); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Category != nil {
		updates["category"] = *fields.Category
	}
	if fields.LimitAmount != nil {
		updates["limit_amount"] = *fields.LimitAmount
	}
	if fields.Month != nil {
		updates["month"] = *fields.Month
	}
	if fields.Year != nil {
		updates["year"] = *fields.Year
	}

	if len(updates) > 0 {
		if err := s.db.Model(budget).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetBudgetByID(userID, budgetID)
}

// DeleteBudget soft-deletes a budget.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
