package models

import "github.com/shopspring/decimal"

// AlertType names the condition an alert watches for.
type AlertType string

const (
	AlertTypeBudgetExceeded  AlertType = "budget_exceeded"
	AlertTypeLowBalance      AlertType = "low_balance"
	AlertTypeUnusualSpending AlertType = "unusual_spending"
)

// IsValid reports whether t is a known alert type.
func (t AlertType) IsValid() bool {
	switch t {
	case AlertTypeBudgetExceeded, AlertTypeLowBalance, AlertTypeUnusualSpending:
		return true
	}
	return false
}

// Alert is a user-configured notification rule. Rules are stored and
// listed only; nothing evaluates them.
type Alert struct {
	Base
	UserID    string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      AlertType       `gorm:"not null" json:"type"`
	Category  string          `json:"category"`
	Threshold decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"threshold"`
	Message   string          `json:"message"`
	Enabled   bool            `gorm:"not null" json:"enabled"`
}
