package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/sebuszqo/FinanceTracker/internal/errors"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	"github.com/sebuszqo/FinanceTracker/internal/finance/infrastructure"
)

const (
	ownerID = int64(1)
	otherID = int64(2)
)

func tx(date domain.Date, transactionType string, amount float64) domain.Transaction {
	return domain.Transaction{UserID: ownerID, TransactionDate: date, Type: transactionType, Amount: amount, PaymentMethod: domain.PaymentCash}
}

func newTransactionService(t *testing.T) (*TransactionService, *infrastructure.MockTransactionRepository, *infrastructure.MockCategoryRepository) {
	t.Helper()
	categories := infrastructure.NewMockCategoryRepository()
	repo := infrastructure.NewMockTransactionRepository()
	repo.Categories = categories
	return NewTransactionService(repo, NewCategoryService(categories)), repo, categories
}

func TestGetTransactionSummary_MultipleYearsMonthsWeeks(t *testing.T) {
	service, repo, _ := newTransactionService(t)
	repo.Transactions = []domain.Transaction{
		// 2023
		tx(domain.NewDate(2023, time.January, 10), domain.TypeIncome, 100.12),
		tx(domain.NewDate(2023, time.January, 15), domain.TypeExpense, 50.55),
		tx(domain.NewDate(2023, time.March, 5), domain.TypeIncome, 300.45),
		tx(domain.NewDate(2023, time.March, 10), domain.TypeIncome, 100.12),
		tx(domain.NewDate(2023, time.March, 15), domain.TypeExpense, 75.55),
		tx(domain.NewDate(2023, time.April, 5), domain.TypeIncome, 200.45),

		// 2022
		tx(domain.NewDate(2022, time.November, 20), domain.TypeIncome, 150.12),
		tx(domain.NewDate(2022, time.December, 10), domain.TypeExpense, 60.55),
		tx(domain.NewDate(2022, time.December, 25), domain.TypeIncome, 120.45),
		tx(domain.NewDate(2022, time.December, 30), domain.TypeExpense, 45.55),

		// 2021
		tx(domain.NewDate(2021, time.March, 12), domain.TypeIncome, 80.45),
		tx(domain.NewDate(2021, time.March, 20), domain.TypeExpense, 30.55),
		tx(domain.NewDate(2021, time.June, 5), domain.TypeIncome, 50.12),
		tx(domain.NewDate(2021, time.June, 15), domain.TypeExpense, 20.55),
	}
	other := tx(domain.NewDate(2023, time.January, 10), domain.TypeIncome, 999)
	other.UserID = otherID
	repo.Transactions = append(repo.Transactions, other)

	summary, err := service.GetTransactionSummary(context.Background(), ownerID, domain.NewDate(2021, 1, 1), domain.NewDate(2023, 12, 31))
	require.NoError(t, err)
	require.Len(t, summary, 3)

	year2023 := summary[2023]
	assert.InDelta(t, 701.14, year2023.IncomeTotal, 0.001)
	assert.InDelta(t, 126.10, year2023.ExpenseTotal, 0.001)

	january := year2023.Months["January"]
	assert.InDelta(t, 100.12, january.IncomeTotal, 0.001)
	assert.InDelta(t, 50.55, january.ExpenseTotal, 0.001)
	assert.Equal(t, []WeekSummary{{Week: 2, IncomeTotal: 100.12, ExpenseTotal: 50.55}}, january.Weeks)

	march := year2023.Months["March"]
	assert.InDelta(t, 400.57, march.IncomeTotal, 0.001)
	assert.InDelta(t, 75.55, march.ExpenseTotal, 0.001)
	require.Len(t, march.Weeks, 3)
	assert.Equal(t, 9, march.Weeks[0].Week)
	assert.Equal(t, 11, march.Weeks[2].Week)

	april := year2023.Months["April"]
	assert.InDelta(t, 200.45, april.IncomeTotal, 0.001)
	assert.Zero(t, april.ExpenseTotal)

	year2022 := summary[2022]
	assert.InDelta(t, 270.57, year2022.IncomeTotal, 0.001)
	assert.InDelta(t, 106.10, year2022.ExpenseTotal, 0.001)

	december := year2022.Months["December"]
	assert.InDelta(t, 120.45, december.IncomeTotal, 0.001)
	assert.InDelta(t, 106.10, december.ExpenseTotal, 0.001)

	year2021 := summary[2021]
	assert.InDelta(t, 130.57, year2021.IncomeTotal, 0.001)
	assert.InDelta(t, 51.10, year2021.ExpenseTotal, 0.001)
	assert.InDelta(t, 20.55, year2021.Months["June"].ExpenseTotal, 0.001)
}

func TestGetTransactionSummary_InvalidRange(t *testing.T) {
	service, _, _ := newTransactionService(t)

	_, err := service.GetTransactionSummary(context.Background(), ownerID, domain.NewDate(2024, 2, 1), domain.NewDate(2024, 1, 1))
	assert.Contains(t, appErrors.FieldErrors(err), "end_date")
}

func TestCreateTransaction_NormalizesAndSaves(t *testing.T) {
	service, repo, _ := newTransactionService(t)
	transaction := &domain.Transaction{
		UserID: ownerID, Amount: 19.999, Type: domain.TypeExpense, TransactionDate: domain.NewDate(2025, 1, 2),
	}

	require.NoError(t, service.CreateTransaction(context.Background(), transaction))

	assert.NotZero(t, transaction.ID)
	assert.Equal(t, 20.0, transaction.Amount)
	assert.Equal(t, domain.PaymentCash, transaction.PaymentMethod)
	assert.Len(t, repo.Transactions, 1)
}

func TestCreateTransaction_ValidationErrors(t *testing.T) {
	service, repo, _ := newTransactionService(t)
	transaction := &domain.Transaction{UserID: ownerID, Amount: -5, Type: "gift"}

	err := service.CreateTransaction(context.Background(), transaction)

	fields := appErrors.FieldErrors(err)
	assert.Equal(t, "amount must be > 0", fields["amount"])
	assert.Equal(t, "transaction_date is required", fields["transaction_date"])
	assert.Contains(t, fields, "type")
	assert.Empty(t, repo.Transactions)
}

func TestCreateTransaction_RejectsForeignCategory(t *testing.T) {
	service, _, categories := newTransactionService(t)
	ctx := context.Background()

	foreign := &domain.Category{UserID: otherID, Name: "Theirs", Type: domain.TypeExpense, Color: domain.DefaultCategoryColor}
	require.NoError(t, categories.Create(ctx, foreign))

	transaction := &domain.Transaction{
		UserID: ownerID, CategoryID: &foreign.ID, Amount: 5, Type: domain.TypeExpense, TransactionDate: domain.NewDate(2025, 1, 2),
	}
	err := service.CreateTransaction(ctx, transaction)
	assert.Equal(t, map[string]string{"category_id": "category does not exist"}, appErrors.FieldErrors(err))
}

func TestUpdateTransaction_PartialAndScoped(t *testing.T) {
	service, _, _ := newTransactionService(t)
	ctx := context.Background()
	original := &domain.Transaction{
		UserID: ownerID, Amount: 10, Type: domain.TypeExpense, Description: "coffee", TransactionDate: domain.NewDate(2025, 1, 2),
	}
	require.NoError(t, service.CreateTransaction(ctx, original))

	amount := 12.5
	updated, err := service.UpdateTransaction(ctx, ownerID, original.ID, domain.TransactionPatch{Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, 12.5, updated.Amount)
	assert.Equal(t, "coffee", updated.Description)

	_, err = service.UpdateTransaction(ctx, otherID, original.ID, domain.TransactionPatch{Amount: &amount})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	negative := -1.0
	_, err = service.UpdateTransaction(ctx, ownerID, original.ID, domain.TransactionPatch{Amount: &negative})
	assert.Contains(t, appErrors.FieldErrors(err), "amount")
}

func TestDeleteTransaction_OnlyOwner(t *testing.T) {
	service, _, _ := newTransactionService(t)
	ctx := context.Background()
	transaction := &domain.Transaction{UserID: ownerID, Amount: 1, Type: domain.TypeIncome, TransactionDate: domain.NewDate(2025, 1, 2)}
	require.NoError(t, service.CreateTransaction(ctx, transaction))

	assert.ErrorIs(t, service.DeleteTransaction(ctx, otherID, transaction.ID), appErrors.ErrNotFound)
	require.NoError(t, service.DeleteTransaction(ctx, ownerID, transaction.ID))
	_, err := service.GetTransaction(ctx, ownerID, transaction.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestGetUserTransactions_PagingDefaults(t *testing.T) {
	service, repo, _ := newTransactionService(t)
	for day := 1; day <= 60; day++ {
		transaction := tx(domain.NewDate(2024, time.January, day), domain.TypeExpense, 1)
		repo.Transactions = append(repo.Transactions, transaction)
	}

	page, err := service.GetUserTransactions(context.Background(), ownerID, domain.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, page, DefaultPageSize)

	rest, err := service.GetUserTransactions(context.Background(), ownerID, domain.TransactionFilter{Page: 2})
	require.NoError(t, err)
	assert.Len(t, rest, 10)

	_, err = service.GetUserTransactions(context.Background(), ownerID, domain.TransactionFilter{Type: "savings"})
	assert.Contains(t, appErrors.FieldErrors(err), "type")

	none, err := service.GetUserTransactions(context.Background(), otherID, domain.TransactionFilter{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestGetTransactionSummaryByCategory(t *testing.T) {
	service, repo, categories := newTransactionService(t)
	ctx := context.Background()
	food := &domain.Category{UserID: ownerID, Name: "Food", Type: domain.TypeExpense, Color: domain.DefaultCategoryColor}
	require.NoError(t, categories.Create(ctx, food))

	lunch := tx(domain.NewDate(2024, 5, 1), domain.TypeExpense, 10.10)
	lunch.CategoryID = &food.ID
	dinner := tx(domain.NewDate(2024, 5, 2), domain.TypeExpense, 20.20)
	dinner.CategoryID = &food.ID
	repo.Transactions = []domain.Transaction{lunch, dinner, tx(domain.NewDate(2024, 5, 3), domain.TypeExpense, 5)}

	summary, err := service.GetTransactionSummaryByCategory(ctx, ownerID, domain.NewDate(2024, 1, 1), domain.NewDate(2024, 12, 31), domain.TypeExpense)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "Food", summary[0].CategoryName)
	assert.Equal(t, 30.3, summary[0].Total)
	assert.Equal(t, 2, summary[0].Count)
	assert.Nil(t, summary[1].CategoryID)

	repo.Err = errors.New("db down")
	_, err = service.GetTransactionSummaryByCategory(ctx, ownerID, domain.NewDate(2024, 1, 1), domain.NewDate(2024, 12, 31), "")
	assert.Error(t, err)
}

func TestDefaultSummaryRange(t *testing.T) {
	start, end := DefaultSummaryRange(time.Date(2025, 7, 4, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, domain.NewDate(2025, 1, 1), start)
	assert.Equal(t, domain.NewDate(2025, 7, 4), end)
}
