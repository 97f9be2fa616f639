package models

import "time"

// User is a verified account holder. Rows are created when an email
// verification succeeds and are never hard-deleted.
type User struct {
	Base
	FullName      string `gorm:"not null" json:"full_name"`
	Email         string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash  string `gorm:"not null" json:"-"`
	BankConnected bool   `gorm:"not null;default:false" json:"bank_connected"`

	// Sealed with cryptox; never the plaintext provider credential.
	PlaidAccessToken *string `json:"-"`

	ResetTokenHash   *string    `gorm:"size:64;index" json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
}

// PendingRegistration holds a signup awaiting email verification.
// An email is never present both here and in users.
type PendingRegistration struct {
	Base
	FullName              string    `gorm:"not null" json:"full_name"`
	Email                 string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash          string    `gorm:"not null" json:"-"`
	VerificationTokenHash string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	VerificationExpiry    time.Time `gorm:"not null" json:"verification_expiry"`
}
