package models

import "github.com/shopspring/decimal"

// Account is a bank or manually tracked account owned by one user.
// Linked accounts carry the provider's account id; re-linking replaces
// every account of the user.
type Account struct {
	Base
	UserID         string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name           string          `gorm:"not null" json:"name"`
	Bank           string          `gorm:"not null;default:'Unknown'" json:"bank"`
	Balance        decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"balance"`
	Type           string          `gorm:"not null" json:"type"`
	PlaidAccountID *string         `gorm:"index" json:"plaid_account_id,omitempty"`
}
