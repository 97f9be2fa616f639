package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"financially/internal/cryptox"
	"financially/internal/provider"
	"financially/internal/testutil"
)

// fixedNow is the clock used by services under test.
var fixedNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func newTestSealer(t *testing.T) *cryptox.AESSealer {
	t.Helper()
	sealer, err := cryptox.NewAESSealer("test-encryption-secret")
	if err != nil {
		t.Fatalf("failed to create sealer: %v", err)
	}
	return sealer
}

func newTestSyncService(t *testing.T, db *gorm.DB, p provider.Provider) (*syncService, *cryptox.AESSealer) {
	t.Helper()
	sealer := newTestSealer(t)
	svc := NewSyncService(db, p, sealer).(*syncService)
	svc.now = func() time.Time { return fixedNow }
	return svc, sealer
}

// standardProvider returns two accounts with a mix of posted, pending and
// uncategorised transactions inside the link window.
func standardProvider() *testutil.FakeProvider {
	p := testutil.NewFakeProvider()
	p.Accounts = []provider.Account{
		{ID: "acc-1", Name: "Checking", OfficialName: "Plaid Gold Checking", Type: "depository", Balance: dec("110.25")},
		{ID: "acc-2", Name: "Savings", Type: "depository", Balance: dec("0")},
	}
	p.Transactions["acc-1"] = []provider.Transaction{
		{ID: "tx-1", AccountID: "acc-1", Name: "Dinner", Amount: dec("-42.50"), Date: testutil.Day(2024, time.March, 10), Categories: []string{"Food and Drink", "Restaurants"}},
		{ID: "tx-2", AccountID: "acc-1", Name: "Payroll", Amount: dec("100.00"), Date: testutil.Day(2024, time.March, 1), Categories: []string{"Deposit"}},
		{ID: "tx-3", AccountID: "acc-1", Name: "Coffee", Amount: dec("-20.00"), Date: testutil.Day(2024, time.March, 14), Pending: true},
	}
	p.Transactions["acc-2"] = []provider.Transaction{
		{ID: "tx-4", AccountID: "acc-2", Name: "Fee", Amount: dec("-5.00"), Date: testutil.Day(2024, time.March, 12)},
	}
	return p
}
