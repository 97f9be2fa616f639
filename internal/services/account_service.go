package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "financially/internal/errors"
	"financially/internal/models"
	"financially/internal/pagination"
)

const defaultBank = "Unknown"

// accountService handles account-related business logic.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount creates a manually tracked account for a user.
func (s *accountService) CreateAccount(userID string, fields AccountFields) (*models.Account, error) {
	if fields.Name == nil || strings.TrimSpace(*fields.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if fields.Type == nil || strings.TrimSpace(*fields.Type) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account type is required")
	}

	account := &models.Account{
		UserID:  userID,
		Name:    strings.TrimSpace(*fields.Name),
		Bank:    defaultBank,
		Balance: decimal.Zero,
		Type:    *fields.Type,
	}
	if fields.Bank != nil && strings.TrimSpace(*fields.Bank) != "" {
		account.Bank = strings.TrimSpace(*fields.Bank)
	}
	if fields.Balance != nil {
		account.Balance = *fields.Balance
	}

	if err := s.db.Create(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// GetUserAccounts retrieves a paginated list of accounts for a user.
func (s *accountService) GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Account{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := base.Scopes(pagination.Paginate(page, "created_at DESC")).Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountByID retrieves an account by ID for a specific user
func (s *accountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// UpdateAccount applies the non-nil fields to an account.
func (s *accountService) UpdateAccount(userID, accountID string, fields AccountFields) (*models.Account, error) {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil && strings.TrimSpace(*fields.Name) != "" {
		updates["name"] = strings.TrimSpace(*fields.Name)
	}
	if fields.Bank != nil && strings.TrimSpace(*fields.Bank) != "" {
		updates["bank"] = strings.TrimSpace(*fields.Bank)
	}
	if fields.Balance != nil {
		updates["balance"] = *fields.Balance
	}
	if fields.Type != nil && strings.TrimSpace(*fields.Type) != "" {
		updates["type"] = *fields.Type
	}

	if len(updates) > 0 {
		if err := s.db.Model(account).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetAccountByID(userID, accountID)
}

// DeleteAccount hard-deletes an account. Its transactions are kept and detached.
func (s *accountService) DeleteAccount(userID, accountID string) error {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := detachTransactions(tx, []string{account.ID}); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Unscoped().Delete(account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// detachTransactions clears account_id on every transaction that points at
// one of accountIDs.
func detachTransactions(tx *gorm.DB, accountIDs []string) error {
	if len(accountIDs) == 0 {
		return nil
	}
	return tx.Model(&models.Transaction{}).
		Where("account_id IN ?", accountIDs).
		Update("account_id", nil).Error
}
