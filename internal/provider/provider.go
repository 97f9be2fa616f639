// Package provider wraps the external bank-data aggregation API behind a
// small interface so ingestion can be exercised without the network.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used on the wire.
const DateLayout = "2006-01-02"

// Operation names used in errors, logs and metrics.
const (
	OpLinkTokenCreate = "link_token_create"
	OpTokenExchange   = "item_public_token_exchange"
	OpAccountsGet     = "accounts_get"
	OpTransactionsGet = "transactions_get"
)

// Account is a bank account as reported by the provider.
type Account struct {
	ID           string
	Name         string
	OfficialName string
	Type         string
	Balance      decimal.Decimal
}

// Transaction is a posted or pending transaction as reported by the provider.
// Amount keeps the provider's sign.
type Transaction struct {
	ID         string
	AccountID  string
	Name       string
	Amount     decimal.Decimal
	Date       time.Time
	Pending    bool
	Categories []string
}

// Provider is the subset of the aggregation API the application uses.
// Every call is a single synchronous request with no retry.
type Provider interface {
	CreateLinkToken(ctx context.Context, userID string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (string, error)
	GetAccounts(ctx context.Context, accessToken string) ([]Account, error)
	GetTransactions(ctx context.Context, accessToken string, start, end time.Time, accountIDs []string) ([]Transaction, error)
}

// Error is a failed provider call. Type, Code, Message and RequestID are
// filled from the provider's error body when one was returned.
type Error struct {
	Op        string
	Type      string
	Code      string
	Message   string
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider %s: %s (type: %s, code: %s, request_id: %s)",
			e.Op, e.Message, e.Type, e.Code, e.RequestID)
	}
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("provider %s failed", e.Op)
}

func (e *Error) Unwrap() error { return e.Err }
