package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"financially/internal/categories"
	"financially/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Day returns midnight UTC of the given calendar date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestUser creates a verified user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a verified user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		FullName:     "Test User",
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a manual account with the given balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string, balance string) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:  userID,
		Name:    fmt.Sprintf("Test Account %d", nextID()),
		Bank:    "Test Bank",
		Balance: decimal.RequireFromString(balance),
		Type:    "depository",
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestLinkedAccount creates an account carrying a provider account id.
func CreateTestLinkedAccount(t *testing.T, db *gorm.DB, userID, plaidAccountID string) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:         userID,
		Name:           fmt.Sprintf("Linked Account %d", nextID()),
		Bank:           "Test Bank",
		Type:           "depository",
		PlaidAccountID: &plaidAccountID,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create linked account: %v", err)
	}
	return account
}

// CreateTestTransaction creates a transaction with the given type, category,
// magnitude and date.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, txType models.TransactionType, category, amount string, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:   userID,
		Name:     fmt.Sprintf("Test Transaction %d", nextID()),
		Category: category,
		Amount:   decimal.RequireFromString(amount),
		Type:     txType,
		Date:     date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates a budget for the given category and period.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, category, limit string, month, year int) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:      userID,
		Category:    category,
		LimitAmount: decimal.RequireFromString(limit),
		Month:       month,
		Year:        year,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestAlert creates an enabled low-balance alert.
func CreateTestAlert(t *testing.T, db *gorm.DB, userID string) *models.Alert {
	t.Helper()

	alert := &models.Alert{
		UserID:    userID,
		Type:      models.AlertTypeLowBalance,
		Category:  categories.Other,
		Threshold: decimal.NewFromInt(100),
		Message:   fmt.Sprintf("Balance low %d", nextID()),
		Enabled:   true,
	}
	if err := db.Create(alert).Error; err != nil {
		t.Fatalf("failed to create test alert: %v", err)
	}
	return alert
}
