package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"financially/internal/categories"
	apperrors "financially/internal/errors"
	"financially/internal/models"
	"financially/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db             *gorm.DB
	accountService AccountServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, accountService AccountServicer) TransactionServicer {
	return &transactionService{
		db:             db,
		accountService: accountService,
	}
}

// CreateTransaction records a manual transaction. Amount is the unsigned magnitude.
func (s *transactionService) CreateTransaction(userID string, fields TransactionFields) (*models.Transaction, error) {
	if fields.Name == nil || strings.TrimSpace(*fields.Name) == "" ||
		fields.Category == nil || fields.Amount == nil || fields.Type == nil || fields.Date == nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name, category, amount, type, and date are required")
	}
	if err := s.validate(userID, fields); err != nil {
		return nil, err
	}

	tx := &models.Transaction{
		UserID:    userID,
		AccountID: fields.AccountID,
		Name:      strings.TrimSpace(*fields.Name),
		Category:  *fields.Category,
		Amount:    *fields.Amount,
		Type:      *fields.Type,
		Date:      dateOnly(*fields.Date),
	}
	if err := s.db.Create(tx).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return tx, nil
}

// validate checks the non-nil fields of a create or update.
func (s *transactionService) validate(userID string, fields TransactionFields) error {
	if fields.Amount != nil && !fields.Amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if fields.Type != nil && !fields.Type.IsValid() {
		return apperrors.ErrInvalidTransactionType
	}
	if fields.Category != nil && !categories.IsValid(*fields.Category) {
		return apperrors.ErrInvalidCategory
	}
	if fields.AccountID != nil && *fields.AccountID != "" {
		if _, err := s.accountService.GetAccountByID(userID, *fields.AccountID); err != nil {
			return err
		}
	}
	return nil
}

// GetUserTransactions returns a page of the user's transactions, newest first.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := applyTransactionFilters(s.db.Model(&models.Transaction{}).Where("user_id = ?", userID), filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page, "date DESC", "created_at DESC")).Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// applyTransactionFilters appends WHERE clauses for each non-nil filter field.
func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", dateOnly(*f.FromDate))
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", dateOnly(*f.ToDate))
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	return q
}

// GetTransactionByID returns a transaction if it belongs to the user.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var tx models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &tx, nil
}

// UpdateTransaction applies the non-nil fields to a transaction. An empty
// AccountID detaches it from its account.
func (s *transactionService) UpdateTransaction(userID, transactionID string, fields TransactionFields) (*models.Transaction, error) {
	tx, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(userID, fields); err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil && strings.TrimSpace(*fields.Name) != "" {
		updates["name"] = strings.TrimSpace(*fields.Name)
	}
	if fields.Category != nil {
		updates["category"] = *fields.Category
	}
	if fields.Amount != nil {
		updates["amount"] = *fields.Amount
	}
	if fields.Type != nil {
		updates["type"] = *fields.Type
	}
	if fields.Date != nil {
		updates["date"] = dateOnly(*fields.Date)
	}
	if fields.AccountID != nil {
		if *fields.AccountID == "" {
			updates["account_id"] = nil
		} else {
			updates["account_id"] = *fields.AccountID
		}
	}

	if len(updates) > 0 {
		if err := s.db.Model(tx).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetTransactionByID(userID, transactionID)
}

// DeleteTransaction removes a transaction permanently. A deleted provider
// transaction is imported again by the next sync that covers its date.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	tx, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.Unscoped().Delete(tx).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
