package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/sebuszqo/FinanceTracker/internal/errors"
)

func validTransaction() Transaction {
	return Transaction{
		Amount:          10.5,
		Type:            TypeExpense,
		TransactionDate: NewDate(2025, 5, 1),
		PaymentMethod:   PaymentCash,
	}
}

func TestTransactionValidate_Valid(t *testing.T) {
	tr := validTransaction()
	assert.NoError(t, tr.Validate())
}

func TestTransactionValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Transaction)
		field  string
		msg    string
	}{
		{"negative amount", func(t *Transaction) { t.Amount = -5 }, "amount", "amount must be > 0"},
		{"zero amount", func(t *Transaction) { t.Amount = 0 }, "amount", "amount must be > 0"},
		{"huge amount", func(t *Transaction) { t.Amount = 1e10 }, "amount", "amount must be less than 10000000000"},
		{"bad type", func(t *Transaction) { t.Type = "transfer" }, "type", "type must be 'income' or 'expense'"},
		{"long description", func(t *Transaction) { t.Description = strings.Repeat("x", 256) }, "description", "description must be at most 255 characters"},
		{"missing date", func(t *Transaction) { t.TransactionDate = Date{} }, "transaction_date", "transaction_date is required"},
		{"bad payment method", func(t *Transaction) { t.PaymentMethod = "cheque" }, "payment_method", ""},
		{"recurring without frequency", func(t *Transaction) { t.IsRecurring = true }, "recurrence_frequency", "recurrence_frequency is required for recurring transactions"},
		{"recurring bad frequency", func(t *Transaction) {
			t.IsRecurring = true
			t.RecurrenceFrequency = strPtr("hourly")
		}, "recurrence_frequency", ""},
		{"end before start", func(t *Transaction) {
			t.IsRecurring = true
			t.RecurrenceFrequency = strPtr(FrequencyMonthly)
			end := NewDate(2025, 4, 1)
			t.RecurrenceEndDate = &end
		}, "recurrence_end_date", "recurrence_end_date must not be before transaction_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := validTransaction()
			tt.mutate(&tr)
			fields := appErrors.FieldErrors(tr.Validate())
			require.Contains(t, fields, tt.field)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, fields[tt.field])
			}
		})
	}
}

func TestTransactionNormalize(t *testing.T) {
	tr := Transaction{
		Amount:              10.006,
		RecurrenceFrequency: strPtr(FrequencyDaily),
	}
	tr.Normalize()

	assert.Equal(t, PaymentCash, tr.PaymentMethod)
	assert.InDelta(t, 10.01, tr.Amount, 0.0001)
	assert.Nil(t, tr.RecurrenceFrequency)
}

func TestTransactionPatch_PartialUpdate(t *testing.T) {
	categoryID := int64(5)
	tr := validTransaction()
	tr.CategoryID = &categoryID

	var patch TransactionPatch
	require.NoError(t, json.Unmarshal([]byte(`{"amount": 20, "category_id": null}`), &patch))
	patch.Apply(&tr)

	assert.Equal(t, 20.0, tr.Amount)
	assert.Nil(t, tr.CategoryID)
	assert.Equal(t, TypeExpense, tr.Type)
	assert.Equal(t, NewDate(2025, 5, 1), tr.TransactionDate)
}

func TestDate_JSON(t *testing.T) {
	var body struct {
		D   Date  `json:"d"`
		Opt *Date `json:"opt"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2025-02-28","opt":null}`), &body))
	assert.Equal(t, NewDate(2025, 2, 28), body.D)
	assert.Nil(t, body.Opt)

	out, err := json.Marshal(body.D)
	require.NoError(t, err)
	assert.Equal(t, `"2025-02-28"`, string(out))

	for _, raw := range []string{`{"d":"28/02/2025"}`, `{"d":"2025-13-01"}`, `{"d":20250228}`} {
		err := json.Unmarshal([]byte(raw), &body)
		var typeErr *json.UnmarshalTypeError
		require.ErrorAs(t, err, &typeErr, raw)
		assert.True(t, IsDateError(typeErr), raw)
		assert.Equal(t, "d", typeErr.Field, raw)
	}
}

func TestFilterOffset(t *testing.T) {
	assert.Equal(t, 0, TransactionFilter{Limit: 50, Page: 1}.Offset())
	assert.Equal(t, 0, TransactionFilter{Limit: 50}.Offset())
	assert.Equal(t, 100, TransactionFilter{Limit: 50, Page: 3}.Offset())
}
