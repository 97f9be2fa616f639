package services

import (
	"testing"
	"time"

	"financially/internal/categories"
	"financially/internal/models"
	"financially/internal/pagination"
	"financially/internal/testutil"
)

func validTransactionFields() TransactionFields {
	return TransactionFields{
		Name:     ptr("Groceries"),
		Category: ptr(categories.FoodAndDining),
		Amount:   ptr(dec("55.30")),
		Type:     ptr(models.TransactionTypeExpense),
		Date:     ptr(time.Date(2024, time.March, 13, 17, 45, 0, 0, time.UTC)),
	}
}

func TestCreateTransaction(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, "100")

		fields := validTransactionFields()
		fields.AccountID = &account.ID
		tx, err := svc.CreateTransaction(user.ID, fields)
		testutil.AssertNoError(t, err)

		assertDecimal(t, "55.30", tx.Amount)
		if !tx.Date.Equal(testutil.Day(2024, time.March, 13)) {
			t.Errorf("expected date truncated to the day, got %s", tx.Date)
		}
		if tx.AccountID == nil || *tx.AccountID != account.ID {
			t.Error("expected transaction to be attached to the account")
		}
		if tx.PlaidTransactionID != nil {
			t.Error("manual transactions carry no provider id")
		}
	})

	tests := []struct {
		name   string
		mutate func(*TransactionFields)
		code   string
	}{
		{"missing_name", func(f *TransactionFields) { f.Name = nil }, "INVALID_INPUT"},
		{"missing_date", func(f *TransactionFields) { f.Date = nil }, "INVALID_INPUT"},
		{"zero_amount", func(f *TransactionFields) { f.Amount = ptr(dec("0")) }, "INVALID_INPUT"},
		{"negative_amount", func(f *TransactionFields) { f.Amount = ptr(dec("-1")) }, "INVALID_INPUT"},
		{"bad_type", func(f *TransactionFields) { f.Type = ptr(models.TransactionType("transfer")) }, "INVALID_TRANSACTION_TYPE"},
		{"bad_category", func(f *TransactionFields) { f.Category = ptr("Groceries") }, "INVALID_CATEGORY"},
		{"unknown_account", func(f *TransactionFields) { f.AccountID = ptr("missing") }, "ACCOUNT_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			defer testutil.TeardownTestDB(t, db)
			svc := NewTransactionService(db, NewAccountService(db))
			user := testutil.CreateTestUser(t, db)

			fields := validTransactionFields()
			tt.mutate(&fields)
			_, err := svc.CreateTransaction(user.ID, fields)
			testutil.AssertAppError(t, err, tt.code)
		})
	}

	t.Run("other_users_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, other.ID, "1")

		fields := validTransactionFields()
		fields.AccountID = &account.ID
		_, err := svc.CreateTransaction(user.ID, fields)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestGetUserTransactions(t *testing.T) {
	setup := func(t *testing.T) (TransactionServicer, string, string, func()) {
		db := testutil.SetupTestDB(t)
		svc := NewTransactionService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, "0")

		testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeIncome, categories.Income, "1000", testutil.Day(2024, time.March, 1))
		testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, categories.FoodAndDining, "20", testutil.Day(2024, time.March, 5))
		attached := testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, categories.Travel, "300", testutil.Day(2024, time.February, 20))
		db.Model(attached).Update("account_id", account.ID)

		other := testutil.CreateTestUser(t, db)
		testutil.CreateTestTransaction(t, db, other.ID, models.TransactionTypeExpense, categories.Travel, "1", testutil.Day(2024, time.March, 5))

		return svc, user.ID, account.ID, func() { testutil.TeardownTestDB(t, db) }
	}

	t.Run("newest_first", func(t *testing.T) {
		svc, userID, _, teardown := setup(t)
		defer teardown()

		page, err := svc.GetUserTransactions(userID, pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertNoError(t, err)

		if page.TotalItems != 3 {
			t.Fatalf("expected 3 transactions, got %d", page.TotalItems)
		}
		if !page.Data[0].Date.Equal(testutil.Day(2024, time.March, 5)) || !page.Data[2].Date.Equal(testutil.Day(2024, time.February, 20)) {
			t.Error("expected transactions ordered by date descending")
		}
	})

	t.Run("filters", func(t *testing.T) {
		svc, userID, accountID, teardown := setup(t)
		defer teardown()

		tests := []struct {
			name   string
			filter TransactionFilter
			want   int64
		}{
			{"type", TransactionFilter{Type: ptr(models.TransactionTypeExpense)}, 2},
			{"category", TransactionFilter{Category: ptr(categories.Travel)}, 1},
			{"account", TransactionFilter{AccountID: &accountID}, 1},
			{"from", TransactionFilter{FromDate: ptr(testutil.Day(2024, time.March, 1))}, 2},
			{"to_inclusive", TransactionFilter{ToDate: ptr(testutil.Day(2024, time.March, 1))}, 2},
			{"range", TransactionFilter{FromDate: ptr(testutil.Day(2024, time.March, 2)), ToDate: ptr(testutil.Day(2024, time.March, 31))}, 1},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				page, err := svc.GetUserTransactions(userID, pagination.PageRequest{}, tt.filter)
				testutil.AssertNoError(t, err)
				if page.TotalItems != tt.want {
					t.Errorf("expected %d, got %d", tt.want, page.TotalItems)
				}
			})
		}
	})
}

func TestUpdateTransaction(t *testing.T) {
	t.Run("partial", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, categories.Other, "10", testutil.Day(2024, time.March, 3))

		updated, err := svc.UpdateTransaction(user.ID, tx.ID, TransactionFields{Category: ptr(categories.Utilities)})
		testutil.AssertNoError(t, err)

		if updated.Category != categories.Utilities {
			t.Errorf("expected Utilities, got %s", updated.Category)
		}
		assertDecimal(t, "10", updated.Amount)
	})

	t.Run("empty_account_detaches", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID, "0")
		tx := testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, categories.Other, "10", testutil.Day(2024, time.March, 3))
		db.Model(tx).Update("account_id", account.ID)

		updated, err := svc.UpdateTransaction(user.ID, tx.ID, TransactionFields{AccountID: ptr("")})
		testutil.AssertNoError(t, err)
		if updated.AccountID != nil {
			t.Errorf("expected no account, got %s", *updated.AccountID)
		}
	})

	t.Run("invalid_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, categories.Other, "10", testutil.Day(2024, time.March, 3))

		_, err := svc.UpdateTransaction(user.ID, tx.ID, TransactionFields{Amount: ptr(dec("0"))})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("other_users_transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAccountService(db))
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, owner.ID, models.TransactionTypeExpense, categories.Other, "10", testutil.Day(2024, time.March, 3))

		_, err := svc.UpdateTransaction(intruder.ID, tx.ID, TransactionFields{Name: ptr("mine")})
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}

func TestDeleteTransaction(t *testing.T) {
	t.Run("hard_delete", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)
		tx := testutil.CreateTestTransaction(t, db, user.ID, models.TransactionTypeExpense, categories.Other, "10", testutil.Day(2024, time.March, 3))

		testutil.AssertNoError(t, svc.DeleteTransaction(user.ID, tx.ID))

		_, err := svc.GetTransactionByID(user.ID, tx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")

		var count int64
		db.Unscoped().Model(&models.Transaction{}).Where("id = ?", tx.ID).Count(&count)
		if count != 0 {
			t.Error("expected the row to be removed")
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)

		err := svc.DeleteTransaction(user.ID, "missing")
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})
}
