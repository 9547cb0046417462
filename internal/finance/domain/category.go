package domain

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	appErrors "github.com/sebuszqo/FinanceTracker/internal/errors"
)

const (
	TypeIncome  = "income"
	TypeExpense = "expense"

	DefaultCategoryIcon  = "tag"
	DefaultCategoryColor = "#6366F1"

	maxCategoryNameLength = 100
	maxCategoryIconLength = 50
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func IsValidType(t string) bool {
	return t == TypeIncome || t == TypeExpense
}

// Category groups transactions of one type. ParentID is a lookup hint only and
// is not enforced by the database.
type Category struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	Type      string    `json:"type"`
	ParentID  *int64    `json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryPatch carries the fields of a partial update. Nil means unchanged.
type CategoryPatch struct {
	Name     *string         `json:"name"`
	Icon     *string         `json:"icon"`
	Color    *string         `json:"color"`
	Type     *string         `json:"type"`
	ParentID Optional[int64] `json:"parent_id"`
}

func (p CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.ParentID.Set {
		c.ParentID = p.ParentID.Value
	}
}

func (c *Category) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Icon = strings.TrimSpace(c.Icon)
	c.Color = strings.TrimSpace(c.Color)
	if c.Icon == "" {
		c.Icon = DefaultCategoryIcon
	}
	if c.Color == "" {
		c.Color = DefaultCategoryColor
	}
	c.Color = strings.ToUpper(c.Color)
}

// Validate checks the fields that need no database access.
func (c *Category) Validate() error {
	var ve appErrors.ValidationErrors
	switch {
	case c.Name == "":
		ve.Add("name", "name is required")
	case utf8.RuneCountInString(c.Name) > maxCategoryNameLength:
		ve.Add("name", "name must be at most 100 characters")
	}
	if utf8.RuneCountInString(c.Icon) > maxCategoryIconLength {
		ve.Add("icon", "icon must be at most 50 characters")
	}
	if !colorPattern.MatchString(c.Color) {
		ve.Add("color", "color must be a hex value like #6366F1")
	}
	if !IsValidType(c.Type) {
		ve.Add("type", "type must be 'income' or 'expense'")
	}
	if c.ParentID != nil && c.ID != 0 && *c.ParentID == c.ID {
		ve.Add("parent_id", "a category cannot be its own parent")
	}
	return ve.Err()
}

// CategoryRepository scopes every call to the owning user. A record owned by
// someone else is reported as appErrors.ErrNotFound.
type CategoryRepository interface {
	Create(ctx context.Context, category *Category) error
	FindByUser(ctx context.Context, userID int64, categoryType string) ([]Category, error)
	FindByID(ctx context.Context, userID, id int64) (*Category, error)
	Update(ctx context.Context, category *Category) error
	Delete(ctx context.Context, userID, id int64) error
	ExistsByName(ctx context.Context, userID int64, categoryType, name string, excludeID int64) (bool, error)
	DoesUserCategoryExistByID(ctx context.Context, userID, id int64) (bool, error)
}
