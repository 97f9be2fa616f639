package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"financially/internal/categories"
	"financially/internal/cryptox"
	apperrors "financially/internal/errors"
	"financially/internal/logger"
	"financially/internal/metrics"
	"financially/internal/models"
	"financially/internal/provider"
)

// Trailing windows fetched from the provider.
const (
	LinkWindowDays = 30
	SyncWindowDays = 7
)

const (
	modeLink = "link"
	modeSync = "sync"
)

// syncService links a user's bank and ingests provider transactions.
// Ingestion is sequential: one provider call per account, one write per transaction.
type syncService struct {
	db       *gorm.DB
	provider provider.Provider
	sealer   cryptox.Sealer
	now      func() time.Time
}

// NewSyncService creates a new SyncServicer.
func NewSyncService(db *gorm.DB, p provider.Provider, sealer cryptox.Sealer) SyncServicer {
	return &syncService{db: db, provider: p, sealer: sealer, now: time.Now}
}

// CreateLinkToken starts a provider link session for the user.
func (s *syncService) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	token, err := s.provider.CreateLinkToken(ctx, userID)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrProviderFailure, err)
	}
	return token, nil
}

// LinkBank exchanges the public token, replaces the user's accounts with the
// provider's and imports the last LinkWindowDays of transactions.
func (s *syncService) LinkBank(ctx context.Context, userID, publicToken string) (*LinkResult, error) {
	log := logger.FromContext(ctx)

	accessToken, err := s.provider.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrProviderFailure, err)
	}

	remote, err := s.provider.GetAccounts(ctx, accessToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrProviderFailure, err)
	}

	sealed, err := s.sealer.Seal(accessToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	accounts, err := s.replaceAccounts(userID, remote, sealed)
	if err != nil {
		return nil, err
	}

	end := s.now().UTC()
	start := end.AddDate(0, 0, -LinkWindowDays)

	result := &LinkResult{Accounts: len(accounts)}
	for _, account := range accounts {
		txns, err := s.provider.GetTransactions(ctx, accessToken, start, end, []string{*account.PlaidAccountID})
		if err != nil {
			log.Errorw("failed to fetch transactions for account",
				"account", account.Name, "op", provider.OpTransactionsGet, "error", err)
			result.FailedAccounts = append(result.FailedAccounts, account.Name)
			continue
		}

		for _, t := range txns {
			inserted, err := s.ingest(modeLink, userID, account.ID, t)
			if err != nil {
				return nil, err
			}
			if inserted {
				result.Transactions++
			}
		}
	}

	log.Infow("bank linked", "user_id", userID, "accounts", result.Accounts,
		"transactions", result.Transactions, "failed_accounts", len(result.FailedAccounts))
	return result, nil
}

// replaceAccounts hard-deletes every account of the user, inserts one per
// provider account, stores the sealed credential and marks the bank as
// connected, all in one database transaction.
func (s *syncService) replaceAccounts(userID string, remote []provider.Account, sealedToken string) ([]models.Account, error) {
	accounts := make([]models.Account, 0, len(remote))

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var oldIDs []string
		if err := tx.Unscoped().Model(&models.Account{}).Where("user_id = ?", userID).Pluck("id", &oldIDs).Error; err != nil {
			return err
		}
		if err := detachTransactions(tx, oldIDs); err != nil {
			return err
		}
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.Account{}).Error; err != nil {
			return err
		}

		for _, a := range remote {
			bank := a.OfficialName
			if bank == "" {
				bank = defaultBank
			}
			externalID := a.ID
			account := models.Account{
				UserID:         userID,
				Name:           a.Name,
				Bank:           bank,
				Balance:        a.Balance,
				Type:           a.Type,
				PlaidAccountID: &externalID,
			}
			if err := tx.Create(&account).Error; err != nil {
				return err
			}
			accounts = append(accounts, account)
		}

		res := tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
			"plaid_access_token": sealedToken,
			"bank_connected":     true,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return accounts, nil
}

// SyncTransactions imports the last SyncWindowDays of transactions for every
// linked account and returns how many new rows were stored.
func (s *syncService) SyncTransactions(ctx context.Context, userID string) (int, error) {
	log := logger.FromContext(ctx)

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.ErrUserNotFound
		}
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if user.PlaidAccessToken == nil || *user.PlaidAccessToken == "" {
		return 0, apperrors.ErrNoBankConnected
	}

	accessToken, err := s.sealer.Open(*user.PlaidAccessToken)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := s.db.Where("user_id = ? AND plaid_account_id IS NOT NULL", userID).
		Order("created_at ASC, id ASC").
		Find(&accounts).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	end := s.now().UTC()
	start := end.AddDate(0, 0, -SyncWindowDays)

	count := 0
	for _, account := range accounts {
		if account.PlaidAccountID == nil || *account.PlaidAccountID == "" {
			continue
		}

		txns, err := s.provider.GetTransactions(ctx, accessToken, start, end, []string{*account.PlaidAccountID})
		if err != nil {
			log.Errorw("failed to fetch transactions for account",
				"account", account.Name, "op", provider.OpTransactionsGet, "error", err)
			continue
		}

		for _, t := range txns {
			inserted, err := s.ingest(modeSync, userID, account.ID, t)
			if err != nil {
				return count, err
			}
			if inserted {
				count++
			}
		}
	}

	log.Infow("transactions synced", "user_id", userID, "accounts", len(accounts), "new_transactions", count)
	return count, nil
}

// ingest stores one provider transaction unless it is pending or already
// known for this user. On link an existing row is moved to the new account
// instead. Reports whether a row was inserted.
func (s *syncService) ingest(mode, userID, accountID string, t provider.Transaction) (bool, error) {
	if t.Pending {
		metrics.TransactionsIngested.WithLabelValues(mode, "pending").Inc()
		return false, nil
	}

	var existing models.Transaction
	err := s.db.Where("user_id = ? AND plaid_transaction_id = ?", userID, t.ID).
		Limit(1).Find(&existing).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if existing.ID != "" {
		if mode != modeLink {
			metrics.TransactionsIngested.WithLabelValues(mode, "duplicate").Inc()
			return false, nil
		}
		if err := s.db.Model(&existing).Update("account_id", accountID).Error; err != nil {
			return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		metrics.TransactionsIngested.WithLabelValues(mode, "reattached").Inc()
		return false, nil
	}

	row := fromProvider(userID, accountID, t)
	if err := s.db.Create(&row).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	metrics.TransactionsIngested.WithLabelValues(mode, "inserted").Inc()
	return true, nil
}

// fromProvider derives a stored transaction from a provider one: the amount
// becomes its magnitude and the sign picks the type (non-negative is income).
func fromProvider(userID, accountID string, t provider.Transaction) models.Transaction {
	txType := models.TransactionTypeIncome
	if t.Amount.Sign() < 0 {
		txType = models.TransactionTypeExpense
	}
	externalID := t.ID

	return models.Transaction{
		UserID:             userID,
		AccountID:          &accountID,
		Name:               t.Name,
		Category:           categories.FromProvider(t.Categories),
		Amount:             t.Amount.Abs().Round(moneyPlaces),
		Type:               txType,
		Date:               dateOnly(t.Date),
		PlaidTransactionID: &externalID,
	}
}
