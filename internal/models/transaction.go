package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of money movement
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction is a single income or expense entry. Amount is always the
// unsigned magnitude; Type carries the direction.
type Transaction struct {
	Base
	UserID             string          `gorm:"type:uuid;not null;index;uniqueIndex:idx_transactions_user_plaid" json:"user_id"`
	AccountID          *string         `gorm:"type:uuid;index" json:"account_id,omitempty"`
	Name               string          `gorm:"not null" json:"name"`
	Category           string          `gorm:"not null;default:'Other'" json:"category"`
	Amount             decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Type               TransactionType `gorm:"not null" json:"type"`
	Date               time.Time       `gorm:"type:date;not null;index" json:"date"`
	PlaidTransactionID *string         `gorm:"uniqueIndex:idx_transactions_user_plaid" json:"plaid_transaction_id,omitempty"`
}
