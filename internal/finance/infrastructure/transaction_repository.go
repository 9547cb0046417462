package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/sebuszqo/FinanceTracker/internal/errors"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, user_id, category_id, amount, type, description, transaction_date, payment_method,
	is_recurring, recurrence_frequency, recurrence_end_date, recurrence_parent_id, last_occurrence_date,
	created_at, updated_at`

const insertTransaction = `
	INSERT INTO transactions (user_id, category_id, amount, type, description, transaction_date, payment_method,
		is_recurring, recurrence_frequency, recurrence_end_date, recurrence_parent_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id, created_at, updated_at
`

func (r *TransactionRepository) Create(ctx context.Context, transaction *domain.Transaction) error {
	return insertWith(ctx, r.db, transaction)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertWith(ctx context.Context, q queryRower, t *domain.Transaction) error {
	err := q.QueryRowContext(ctx, insertTransaction,
		t.UserID, t.CategoryID, t.Amount, t.Type, t.Description, t.TransactionDate.Time, t.PaymentMethod,
		t.IsRecurring, t.RecurrenceFrequency, dateArg(t.RecurrenceEndDate), t.RecurrenceParentID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("could not save transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, userID, id int64) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 AND user_id = $2`
	return scanTransaction(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *TransactionRepository) List(ctx context.Context, userID int64, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	var (
		conditions = []string{"user_id = $1"}
		args       = []interface{}{userID}
	)
	addCondition := func(column string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, column+" $"+strconv.Itoa(len(args)))
	}
	if filter.Type != "" {
		addCondition("type =", filter.Type)
	}
	if filter.CategoryID != nil {
		addCondition("category_id =", *filter.CategoryID)
	}
	if filter.StartDate != nil {
		addCondition("transaction_date >=", filter.StartDate.Time)
	}
	if filter.EndDate != nil {
		addCondition("transaction_date <=", filter.EndDate.Time)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY transaction_date DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset())
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}
	return r.query(ctx, query, args...)
}

func (r *TransactionRepository) Update(ctx context.Context, t *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET category_id = $1, amount = $2, type = $3, description = $4, transaction_date = $5,
			payment_method = $6, is_recurring = $7, recurrence_frequency = $8, recurrence_end_date = $9,
			last_occurrence_date = CASE WHEN $7 THEN last_occurrence_date ELSE NULL END,
			updated_at = NOW()
		WHERE id = $10 AND user_id = $11
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		t.CategoryID, t.Amount, t.Type, t.Description, t.TransactionDate.Time,
		t.PaymentMethod, t.IsRecurring, t.RecurrenceFrequency, dateArg(t.RecurrenceEndDate),
		t.ID, t.UserID,
	).Scan(&t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("could not update transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) Delete(ctx context.Context, userID, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("could not delete transaction: %w", err)
	}
	return requireAffected(result)
}

func (r *TransactionRepository) GetTransactionsInDateRange(ctx context.Context, userID int64, startDate, endDate domain.Date) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE user_id = $1 AND transaction_date BETWEEN $2 AND $3
		ORDER BY transaction_date, id`
	return r.query(ctx, query, userID, startDate.Time, endDate.Time)
}

func (r *TransactionRepository) GetTransactionSummaryByCategory(ctx context.Context, userID int64, startDate, endDate domain.Date, transactionType string) ([]domain.TransactionByCategorySummary, error) {
	query := `
		SELECT t.category_id, COALESCE(c.name, ''), SUM(t.amount), COUNT(*)
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id AND c.user_id = t.user_id
		WHERE t.user_id = $1 AND t.transaction_date BETWEEN $2 AND $3
	`
	args := []interface{}{userID, startDate.Time, endDate.Time}
	if transactionType != "" {
		query += ` AND t.type = $4`
		args = append(args, transactionType)
	}
	query += ` GROUP BY t.category_id, c.name ORDER BY SUM(t.amount) DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not summarize transactions: %w", err)
	}
	defer rows.Close()

	summaries := []domain.TransactionByCategorySummary{}
	for rows.Next() {
		var (
			summary    domain.TransactionByCategorySummary
			categoryID sql.NullInt64
		)
		if err := rows.Scan(&categoryID, &summary.CategoryName, &summary.Total, &summary.Count); err != nil {
			return nil, fmt.Errorf("could not read summary row: %w", err)
		}
		summary.CategoryID = nullInt64Ptr(categoryID)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not summarize transactions: %w", err)
	}
	return summaries, nil
}

func (r *TransactionRepository) FindRecurringTemplates(ctx context.Context, asOf domain.Date) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE is_recurring
			AND recurrence_frequency IS NOT NULL
			AND COALESCE(last_occurrence_date, transaction_date) < $1
			AND (recurrence_end_date IS NULL OR COALESCE(last_occurrence_date, transaction_date) < recurrence_end_date)
		ORDER BY id`
	return r.query(ctx, query, asOf.Time)
}

func (r *TransactionRepository) MaterializeOccurrences(ctx context.Context, template domain.Transaction, dates []domain.Date) (created int, err error) {
	if len(dates) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			safeRollback(tx)
			panic(p)
		} else if err != nil || created == 0 {
			safeRollback(tx)
		} else {
			err = tx.Commit()
			if err != nil {
				created = 0
			}
		}
	}()

	// Claiming the template first makes a concurrent run on the same template
	// see zero rows and back off.
	result, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET last_occurrence_date = $1, updated_at = NOW()
		WHERE id = $2 AND last_occurrence_date IS NOT DISTINCT FROM $3`,
		dates[len(dates)-1].Time, template.ID, dateArg(template.LastOccurrenceDate),
	)
	if err != nil {
		return 0, fmt.Errorf("could not advance template %d: %w", template.ID, err)
	}
	claimed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("could not read affected rows: %w", err)
	}
	if claimed == 0 {
		return 0, nil
	}

	for _, date := range dates {
		occurrence := template.Occurrence(date)
		if err := insertWith(ctx, tx, &occurrence); err != nil {
			return 0, err
		}
		created++
	}
	return created, nil
}

func (r *TransactionRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query transactions: %w", err)
	}
	defer rows.Close()

	transactions := []domain.Transaction{}
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *transaction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not query transactions: %w", err)
	}
	return transactions, nil
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		t                  domain.Transaction
		categoryID         sql.NullInt64
		transactionDate    time.Time
		frequency          sql.NullString
		endDate            sql.NullTime
		parentID           sql.NullInt64
		lastOccurrenceDate sql.NullTime
	)
	err := row.Scan(&t.ID, &t.UserID, &categoryID, &t.Amount, &t.Type, &t.Description, &transactionDate,
		&t.PaymentMethod, &t.IsRecurring, &frequency, &endDate, &parentID, &lastOccurrenceDate,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("could not read transaction: %w", err)
	}

	t.CategoryID = nullInt64Ptr(categoryID)
	t.TransactionDate = domain.DateOf(transactionDate)
	if frequency.Valid {
		t.RecurrenceFrequency = &frequency.String
	}
	t.RecurrenceEndDate = nullDatePtr(endDate)
	t.RecurrenceParentID = nullInt64Ptr(parentID)
	t.LastOccurrenceDate = nullDatePtr(lastOccurrenceDate)
	return &t, nil
}

func dateArg(d *domain.Date) interface{} {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.Time
}

func nullDatePtr(v sql.NullTime) *domain.Date {
	if !v.Valid {
		return nil
	}
	d := domain.DateOf(v.Time)
	return &d
}

func safeRollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.Error("error during transaction rollback", "error", err)
	}
}
