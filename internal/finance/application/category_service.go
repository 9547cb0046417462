package application

import (
	"context"

	appErrors "github.com/sebuszqo/FinanceTracker/internal/errors"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
)

const categoryNameTakenMessage = "a category with this name and type already exists"

type CategoryService struct {
	repo domain.CategoryRepository
}

func NewCategoryService(repo domain.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// GetUserCategories lists the caller's categories, optionally of one type.
func (s *CategoryService) GetUserCategories(ctx context.Context, userID int64, categoryType string) ([]domain.Category, error) {
	if !domain.IsValidTransactionType(categoryType) {
		return nil, appErrors.NewValidationError("type", "type must be 'income' or 'expense'")
	}
	return s.repo.FindByUser(ctx, userID, categoryType)
}

func (s *CategoryService) CreateCategory(ctx context.Context, category *domain.Category) error {
	category.ID = 0
	category.Normalize()
	if err := category.Validate(); err != nil {
		return err
	}
	if err := s.ensureUniqueName(ctx, category); err != nil {
		return err
	}
	return s.repo.Create(ctx, category)
}

// UpdateCategory applies patch to the caller's category and returns the result.
func (s *CategoryService) UpdateCategory(ctx context.Context, userID, id int64, patch domain.CategoryPatch) (*domain.Category, error) {
	category, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(category)
	category.Normalize()
	if err := category.Validate(); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueName(ctx, category); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) DeleteCategory(ctx context.Context, userID, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *CategoryService) DoesUserCategoryExist(ctx context.Context, userID, id int64) (bool, error) {
	return s.repo.DoesUserCategoryExistByID(ctx, userID, id)
}

func (s *CategoryService) ensureUniqueName(ctx context.Context, category *domain.Category) error {
	taken, err := s.repo.ExistsByName(ctx, category.UserID, category.Type, category.Name, category.ID)
	if err != nil {
		return err
	}
	if taken {
		return appErrors.NewValidationError("name", categoryNameTakenMessage)
	}
	return nil
}
