package services

import (
	"testing"
	"time"

	"financially/internal/categories"
	"financially/internal/models"
	"financially/internal/pagination"
	"financially/internal/testutil"
)

func TestCreateAccount(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		account, err := svc.CreateAccount(user.ID, AccountFields{
			Name:    ptr("Everyday"),
			Bank:    ptr("First Bank"),
			Balance: ptr(dec("250.75")),
			Type:    ptr("depository"),
		})
		testutil.AssertNoError(t, err)

		if account.ID == "" {
			t.Fatal("expected account ID to be set")
		}
		if account.Name != "Everyday" || account.Bank != "First Bank" {
			t.Errorf("unexpected account %s at %s", account.Name, account.Bank)
		}
		assertDecimal(t, "250.75", account.Balance)
		if account.PlaidAccountID != nil {
			t.Error("manual accounts carry no provider id")
		}
	})

	t.Run("defaults", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		account, err := svc.CreateAccount(user.ID, AccountFields{Name: ptr("Cash"), Type: ptr("cash")})
		testutil.AssertNoError(t, err)

		if account.Bank != "Unknown" {
			t.Errorf("expected bank Unknown, got %s", account.Bank)
		}
		if !account.Balance.IsZero() {
			t.Errorf("expected zero balance, got %s", account.Balance)
		}
	})

	t.Run("missing_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateAccount(user.ID, AccountFields{Name: ptr("  "), Type: ptr("cash")})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("missing_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateAccount(user.ID, AccountFields{Name: ptr("Cash")})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserAccounts(t *testing.T) {
	t.Run("paginated_and_scoped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		for i := 0; i < 3; i++ {
			testutil.CreateTestAccount(t, db, user.ID, "10")
		}
		testutil.CreateTestAccount(t, db, other.ID, "10")

		page, err := svc.GetUserAccounts(user.ID, pagination.PageRequest{Page: 1, PageSize: 2})
		testutil.AssertNoError(t, err)

		if page.TotalItems != 3 {
			t.Errorf("expected 3 total items, got %d", page.TotalItems)
		}
		if len(page.Data) != 2 {
			t.Errorf("expected 2 items on the first page, got %d", len(page.Data))
		}
		if page.TotalPages != 2 {
			t.Errorf("expected 2 pages, got %d", page.TotalPages)
		}
		for _, a := range page.Data {
			if a.UserID != user.ID {
				t.Errorf("account %s belongs to another user", a.ID)
			}
		}
	})

	t.Run("newest_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		first := testutil.CreateTestAccount(t, db, user.ID, "1")
		time.Sleep(2 * time.Millisecond)
		second := testutil.CreateTestAccount(t, db, user.ID, "2")

		page, err := svc.GetUserAccounts(user.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)

		if len(page.Data) != 2 {
			t.Fatalf("expected 2 accounts, got %d", len(page.Data))
		}
		if page.Data[0].ID != second.ID || page.Data[1].ID != first.ID {
			t.Error("expected accounts ordered newest first")
		}
	})

	t.Run("empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		page, err := svc.GetUserAccounts(user.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)

		if page.Data == nil || len(page.Data) != 0 {
			t.Errorf("expected an empty list, got %v", page.Data)
		}
	})
}

func TestGetAccountByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, "5")

		got, err := svc.GetAccountByID(user.ID, account.ID)
		testutil.AssertNoError(t, err)
		if got.ID != account.ID {
			t.Errorf("expected account %s, got %s", account.ID, got.ID)
		}
	})

	t.Run("other_users_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, owner.ID, "5")

		_, err := svc.GetAccountByID(intruder.ID, account.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestUpdateAccount(t *testing.T) {
	t.Run("partial", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, "5")

		updated, err := svc.UpdateAccount(user.ID, account.ID, AccountFields{Balance: ptr(dec("99.99"))})
		testutil.AssertNoError(t, err)

		assertDecimal(t, "99.99", updated.Balance)
		if updated.Name != account.Name {
			t.Errorf("expected name to stay %s, got %s", account.Name, updated.Name)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.UpdateAccount(user.ID, "missing", AccountFields{Name: ptr("x")})
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestDeleteAccount(t *testing.T) {
	t.Run("detaches_transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, "5")
		tx := testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, categories.Shopping, "4.00", testutil.Day(2024, time.March, 3))
		db.Model(tx).Update("account_id", account.ID)

		testutil.AssertNoError(t, svc.DeleteAccount(user.ID, account.ID))

		var count int64
		db.Unscoped().Model(&models.Account{}).Where("id = ?", account.ID).Count(&count)
		if count != 0 {
			t.Error("expected account to be hard-deleted")
		}

		var reloaded models.Transaction
		if err := db.First(&reloaded, "id = ?", tx.ID).Error; err != nil {
			t.Fatalf("expected transaction to survive: %v", err)
		}
		if reloaded.AccountID != nil {
			t.Errorf("expected transaction to be detached, got %s", *reloaded.AccountID)
		}
	})

	t.Run("other_users_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, owner.ID, "5")

		err := svc.DeleteAccount(intruder.ID, account.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}
