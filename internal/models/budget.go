package models

import "github.com/shopspring/decimal"

// Budget caps spending for one category in one calendar month.
// Spent amounts are derived from transactions on read.
type Budget struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Category    string          `gorm:"not null" json:"category"`
	LimitAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"limit_amount"`
	Month       int             `gorm:"not null" json:"month"`
	Year        int             `gorm:"not null" json:"year"`
}
