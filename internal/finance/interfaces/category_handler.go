package interfaces

import (
	"context"
	"net/http"

	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	"github.com/sebuszqo/FinanceTracker/internal/response"
)

type CategoryServiceInterface interface {
	GetUserCategories(ctx context.Context, userID int64, categoryType string) ([]domain.Category, error)
	CreateCategory(ctx context.Context, category *domain.Category) error
	UpdateCategory(ctx context.Context, userID, id int64, patch domain.CategoryPatch) (*domain.Category, error)
	DeleteCategory(ctx context.Context, userID, id int64) error
}

type CategoryHandler struct {
	service      CategoryServiceInterface
	respondJSON  response.JSONFunc
	respondError response.ErrorFunc
}

func NewCategoryHandler(
	service CategoryServiceInterface,
	respondJSON response.JSONFunc,
	respondError response.ErrorFunc,
) *CategoryHandler {
	if service == nil || respondJSON == nil || respondError == nil {
		panic("Service and response functions must not be nil")
	}
	return &CategoryHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *CategoryHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.respondError)
	if !ok {
		return
	}

	categories, err := h.service.GetUserCategories(r.Context(), userID, r.URL.Query().Get("type"))
	if err != nil {
		respondServiceError(w, h.respondError, err, "Category", "retrieve categories")
		return
	}
	h.respondJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.respondError)
	if !ok {
		return
	}
	var req struct {
		Name     string `json:"name"`
		Icon     string `json:"icon"`
		Color    string `json:"color"`
		Type     string `json:"type"`
		ParentID *int64 `json:"parent_id"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		respondBadBody(w, h.respondError, err)
		return
	}

	category := &domain.Category{
		UserID:   userID,
		Name:     req.Name,
		Icon:     req.Icon,
		Color:    req.Color,
		Type:     req.Type,
		ParentID: req.ParentID,
	}
	if err := h.service.CreateCategory(r.Context(), category); err != nil {
		respondServiceError(w, h.respondError, err, "Category", "create category")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Category created successfully",
		"category": category,
	})
}

func (h *CategoryHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.respondError)
	if !ok {
		return
	}
	id, ok := pathID(w, r, h.respondError, "Category")
	if !ok {
		return
	}
	var patch domain.CategoryPatch
	if err := decodeBody(w, r, &patch); err != nil {
		respondBadBody(w, h.respondError, err)
		return
	}

	if _, err := h.service.UpdateCategory(r.Context(), userID, id, patch); err != nil {
		respondServiceError(w, h.respondError, err, "Category", "update category")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"message": "Category updated successfully"})
}

func (h *CategoryHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.respondError)
	if !ok {
		return
	}
	id, ok := pathID(w, r, h.respondError, "Category")
	if !ok {
		return
	}

	if err := h.service.DeleteCategory(r.Context(), userID, id); err != nil {
		respondServiceError(w, h.respondError, err, "Category", "delete category")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"message": "Category deleted successfully"})
}
