package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	appErrors "github.com/sebuszqo/FinanceTracker/internal/errors"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
)

const (
	uniqueViolationCode     = "23505"
	categoryNameConstraint  = "categories_user_type_name_key"
	categoryNameTakenReason = "a category with this name and type already exists"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `id, user_id, name, icon, color, type, parent_id, created_at, updated_at`

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (user_id, name, icon, color, type, parent_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		category.UserID, category.Name, category.Icon, category.Color, category.Type, category.ParentID,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		return mapCategoryWriteError(err)
	}
	return nil
}

func (r *CategoryRepository) FindByUser(ctx context.Context, userID int64, categoryType string) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE user_id = $1`
	args := []interface{}{userID}
	if categoryType != "" {
		query += ` AND type = $2`
		args = append(args, categoryType)
	}
	query += ` ORDER BY type, name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not list categories: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, userID, id int64) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1 AND user_id = $2`
	return scanCategory(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	query := `
		UPDATE categories
		SET name = $1, icon = $2, color = $3, type = $4, parent_id = $5, updated_at = NOW()
		WHERE id = $6 AND user_id = $7
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		category.Name, category.Icon, category.Color, category.Type, category.ParentID, category.ID, category.UserID,
	).Scan(&category.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.ErrNotFound
	}
	if err != nil {
		return mapCategoryWriteError(err)
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, userID, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("could not delete category: %w", err)
	}
	return requireAffected(result)
}

func (r *CategoryRepository) ExistsByName(ctx context.Context, userID int64, categoryType, name string, excludeID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM categories WHERE user_id = $1 AND type = $2 AND name = $3 AND id <> $4)`
	if err := r.db.QueryRowContext(ctx, query, userID, categoryType, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("could not check category name: %w", err)
	}
	return exists, nil
}

func (r *CategoryRepository) DoesUserCategoryExistByID(ctx context.Context, userID, id int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1 AND user_id = $2)`
	if err := r.db.QueryRowContext(ctx, query, id, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("could not check category: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var (
		category domain.Category
		parentID sql.NullInt64
	)
	err := row.Scan(&category.ID, &category.UserID, &category.Name, &category.Icon, &category.Color,
		&category.Type, &parentID, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("could not read category: %w", err)
	}
	category.ParentID = nullInt64Ptr(parentID)
	return &category, nil
}

// A concurrent insert can still win the name race after the service checked it.
func mapCategoryWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == categoryNameConstraint {
		return appErrors.NewValidationError("name", categoryNameTakenReason)
	}
	return fmt.Errorf("could not write category: %w", err)
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not read affected rows: %w", err)
	}
	if n == 0 {
		return appErrors.ErrNotFound
	}
	return nil
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
