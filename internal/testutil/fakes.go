package testutil

import (
	"context"
	"sync"
	"time"

	"financially/internal/notify"
	"financially/internal/provider"
)

// FakeProvider is an in-memory provider.Provider. Transactions are keyed by
// provider account id and filtered by the requested date window.
type FakeProvider struct {
	mu sync.Mutex

	LinkToken    string
	AccessToken  string
	Accounts     []provider.Account
	Transactions map[string][]provider.Transaction

	ExchangeErr     error
	AccountsErr     error
	TransactionsErr map[string]error

	// Calls records every operation name in order.
	Calls []string
	// Windows records the [start, end] of each transactions request.
	Windows [][2]time.Time
}

var _ provider.Provider = (*FakeProvider)(nil)

// NewFakeProvider returns a provider that hands out fixed tokens.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		LinkToken:       "link-sandbox-test",
		AccessToken:     "access-sandbox-test",
		Transactions:    map[string][]provider.Transaction{},
		TransactionsErr: map[string]error{},
	}
}

func (f *FakeProvider) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, op)
}

// CreateLinkToken returns LinkToken.
func (f *FakeProvider) CreateLinkToken(_ context.Context, _ string) (string, error) {
	f.record(provider.OpLinkTokenCreate)
	return f.LinkToken, nil
}

// ExchangePublicToken returns AccessToken or ExchangeErr.
func (f *FakeProvider) ExchangePublicToken(_ context.Context, _ string) (string, error) {
	f.record(provider.OpTokenExchange)
	if f.ExchangeErr != nil {
		return "", f.ExchangeErr
	}
	return f.AccessToken, nil
}

// GetAccounts returns Accounts or AccountsErr.
func (f *FakeProvider) GetAccounts(_ context.Context, _ string) ([]provider.Account, error) {
	f.record(provider.OpAccountsGet)
	if f.AccountsErr != nil {
		return nil, f.AccountsErr
	}
	return f.Accounts, nil
}

// GetTransactions returns the transactions of the requested accounts dated within [start, end].
func (f *FakeProvider) GetTransactions(_ context.Context, _ string, start, end time.Time, accountIDs []string) ([]provider.Transaction, error) {
	f.record(provider.OpTransactionsGet)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Windows = append(f.Windows, [2]time.Time{start, end})

	var out []provider.Transaction
	for _, id := range accountIDs {
		if err := f.TransactionsErr[id]; err != nil {
			return nil, err
		}
		for _, tx := range f.Transactions[id] {
			d := tx.Date
			if d.Before(truncateDay(start)) || d.After(end) {
				continue
			}
			out = append(out, tx)
		}
	}
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RecordingNotifier captures sent emails instead of delivering them.
type RecordingNotifier struct {
	mu   sync.Mutex
	Sent []notify.Email
	Err  error
}

var _ notify.Notifier = (*RecordingNotifier)(nil)

// Send records email, or returns Err when set.
func (n *RecordingNotifier) Send(_ context.Context, email notify.Email) error {
	if n.Err != nil {
		return n.Err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sent = append(n.Sent, email)
	return nil
}

// Close is a no-op.
func (n *RecordingNotifier) Close() error { return nil }

// Last returns the most recently sent email.
func (n *RecordingNotifier) Last() (notify.Email, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.Sent) == 0 {
		return notify.Email{}, false
	}
	return n.Sent[len(n.Sent)-1], true
}
