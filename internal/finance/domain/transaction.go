package domain

import (
	"context"
	"fmt"
	"math"
	"time"
	"unicode/utf8"

	appErrors "github.com/sebuszqo/FinanceTracker/internal/errors"
)

const (
	PaymentCash          = "cash"
	PaymentDebitCard     = "debit_card"
	PaymentCreditCard    = "credit_card"
	PaymentBankTransfer  = "bank_transfer"
	PaymentDigitalWallet = "digital_wallet"
	PaymentOther         = "other"

	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyYearly  = "yearly"

	maxAmount            = 1e10
	maxDescriptionLength = 255
)

var paymentMethods = map[string]struct{}{
	PaymentCash: {}, PaymentDebitCard: {}, PaymentCreditCard: {},
	PaymentBankTransfer: {}, PaymentDigitalWallet: {}, PaymentOther: {},
}

var frequencies = map[string]struct{}{
	FrequencyDaily: {}, FrequencyWeekly: {}, FrequencyMonthly: {}, FrequencyYearly: {},
}

func IsValidPaymentMethod(m string) bool {
	_, ok := paymentMethods[m]
	return ok
}

func IsValidFrequency(f string) bool {
	_, ok := frequencies[f]
	return ok
}

// IsValidTransactionType accepts an empty filter as "all types".
func IsValidTransactionType(t string) bool {
	return t == "" || IsValidType(t)
}

type Transaction struct {
	ID                  int64     `json:"id"`
	UserID              int64     `json:"-"`
	CategoryID          *int64    `json:"category_id"`
	Amount              float64   `json:"amount"`
	Type                string    `json:"type"`
	Description         string    `json:"description"`
	TransactionDate     Date      `json:"transaction_date"`
	PaymentMethod       string    `json:"payment_method"`
	IsRecurring         bool      `json:"is_recurring"`
	RecurrenceFrequency *string   `json:"recurrence_frequency"`
	RecurrenceEndDate   *Date     `json:"recurrence_end_date"`
	RecurrenceParentID  *int64    `json:"recurrence_parent_id"`
	LastOccurrenceDate  *Date     `json:"last_occurrence_date,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TransactionPatch carries the fields of a partial update.
type TransactionPatch struct {
	CategoryID          Optional[int64]  `json:"category_id"`
	Amount              *float64         `json:"amount"`
	Type                *string          `json:"type"`
	Description         *string          `json:"description"`
	TransactionDate     *Date            `json:"transaction_date"`
	PaymentMethod       *string          `json:"payment_method"`
	IsRecurring         *bool            `json:"is_recurring"`
	RecurrenceFrequency Optional[string] `json:"recurrence_frequency"`
	RecurrenceEndDate   Optional[Date]   `json:"recurrence_end_date"`
}

func (p TransactionPatch) Apply(t *Transaction) {
	if p.CategoryID.Set {
		t.CategoryID = p.CategoryID.Value
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.TransactionDate != nil {
		t.TransactionDate = *p.TransactionDate
	}
	if p.PaymentMethod != nil {
		t.PaymentMethod = *p.PaymentMethod
	}
	if p.IsRecurring != nil {
		t.IsRecurring = *p.IsRecurring
	}
	if p.RecurrenceFrequency.Set {
		t.RecurrenceFrequency = p.RecurrenceFrequency.Value
	}
	if p.RecurrenceEndDate.Set {
		t.RecurrenceEndDate = p.RecurrenceEndDate.Value
	}
}

func (t *Transaction) RoundToTwoDecimalPlaces() {
	t.Amount = math.Round(t.Amount*100) / 100
}

// Normalize applies defaults and drops recurrence metadata from one-off transactions.
func (t *Transaction) Normalize() {
	t.RoundToTwoDecimalPlaces()
	if t.PaymentMethod == "" {
		t.PaymentMethod = PaymentCash
	}
	if !t.IsRecurring {
		t.RecurrenceFrequency = nil
		t.RecurrenceEndDate = nil
		t.LastOccurrenceDate = nil
	}
}

func (t *Transaction) Validate() error {
	var ve appErrors.ValidationErrors
	switch {
	case math.IsNaN(t.Amount) || t.Amount <= 0:
		ve.Add("amount", "amount must be > 0")
	case t.Amount >= maxAmount:
		ve.Add("amount", fmt.Sprintf("amount must be less than %.0f", maxAmount))
	}
	if !IsValidType(t.Type) {
		ve.Add("type", "type must be 'income' or 'expense'")
	}
	if utf8.RuneCountInString(t.Description) > maxDescriptionLength {
		ve.Add("description", "description must be at most 255 characters")
	}
	if t.TransactionDate.IsZero() {
		ve.Add("transaction_date", "transaction_date is required")
	}
	if !IsValidPaymentMethod(t.PaymentMethod) {
		ve.Add("payment_method", "payment_method must be one of cash, debit_card, credit_card, bank_transfer, digital_wallet, other")
	}
	if t.IsRecurring {
		switch {
		case t.RecurrenceFrequency == nil || *t.RecurrenceFrequency == "":
			ve.Add("recurrence_frequency", "recurrence_frequency is required for recurring transactions")
		case !IsValidFrequency(*t.RecurrenceFrequency):
			ve.Add("recurrence_frequency", "recurrence_frequency must be one of daily, weekly, monthly, yearly")
		}
		if t.RecurrenceEndDate != nil && !t.TransactionDate.IsZero() && t.RecurrenceEndDate.Before(t.TransactionDate.Time) {
			ve.Add("recurrence_end_date", "recurrence_end_date must not be before transaction_date")
		}
	}
	return ve.Err()
}

type TransactionFilter struct {
	Type       string
	CategoryID *int64
	StartDate  *Date
	EndDate    *Date
	Limit      int
	Page       int
}

// Offset converts the 1-based page into a row offset.
func (f TransactionFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

type TransactionByCategorySummary struct {
	CategoryID   *int64  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Total        float64 `json:"total"`
	Count        int     `json:"count"`
}

// TransactionRepository scopes every call to the owning user, except the
// recurrence methods which run for all users.
type TransactionRepository interface {
	Create(ctx context.Context, transaction *Transaction) error
	FindByID(ctx context.Context, userID, id int64) (*Transaction, error)
	List(ctx context.Context, userID int64, filter TransactionFilter) ([]Transaction, error)
	Update(ctx context.Context, transaction *Transaction) error
	Delete(ctx context.Context, userID, id int64) error
	GetTransactionsInDateRange(ctx context.Context, userID int64, startDate, endDate Date) ([]Transaction, error)
	GetTransactionSummaryByCategory(ctx context.Context, userID int64, startDate, endDate Date, transactionType string) ([]TransactionByCategorySummary, error)

	// FindRecurringTemplates returns recurring transactions whose last
	// materialized date is before asOf and whose end date has not passed.
	FindRecurringTemplates(ctx context.Context, asOf Date) ([]Transaction, error)
	// MaterializeOccurrences inserts one copy of template per date and moves
	// its last_occurrence_date forward, atomically. It returns 0 when another
	// run already advanced the template.
	MaterializeOccurrences(ctx context.Context, template Transaction, dates []Date) (int, error)
}
