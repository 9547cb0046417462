package interfaces

import (
	"context"
	"net/http"
	"time"

	appErrors "github.com/sebuszqo/FinanceTracker/internal/errors"
	"github.com/sebuszqo/FinanceTracker/internal/finance/application"
	"github.com/sebuszqo/FinanceTracker/internal/finance/domain"
	"github.com/sebuszqo/FinanceTracker/internal/response"
)

type TransactionServiceInterface interface {
	CreateTransaction(ctx context.Context, transaction *domain.Transaction) error
	GetTransaction(ctx context.Context, userID, id int64) (*domain.Transaction, error)
	GetUserTransactions(ctx context.Context, userID int64, filter domain.TransactionFilter) ([]domain.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id int64, patch domain.TransactionPatch) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id int64) error
	GetTransactionSummary(ctx context.Context, userID int64, startDate, endDate domain.Date) (map[int]application.TransactionSummary, error)
	GetTransactionSummaryByCategory(ctx context.Context, userID int64, startDate, endDate domain.Date, transactionType string) ([]domain.TransactionByCategorySummary, error)
}

type TransactionHandler struct {
	service      TransactionServiceInterface
	respondJSON  response.JSONFunc
	respondError response.ErrorFunc
	now          func() time.Time
}

func NewTransactionHandler(
	service TransactionServiceInterface,
	respondJSON response.JSONFunc,
	respondError response.ErrorFunc,
) *TransactionHandler {
	if service == nil {
		panic("Service must not be nil")
	}
	if respondJSON == nil || respondError == nil {
		panic("Response functions must not be nil")
	}
	return &TransactionHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
		now:          time.Now,
	}
}

func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.respondError)
	if !ok {
		return
	}
	var transaction domain.Transaction
	if err := decodeBody(w, r, &transaction); err != nil {
		respondBadBody(w, h.respondError, err)
		return
	}

	transaction.UserID = userID
	if err := h.service.CreateTransaction(r.Context(), &transaction); err != nil {
		respondServiceError(w, h.respondError, err, "Transaction", "create transaction")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":     "Transaction created successfully",
		"transaction": transaction,
	})
}

func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.respondError)
	if !ok {
		return
	}
	id, ok := pathID(w, r, h.respondError, "Transaction")
	if !ok {
		return
	}

	transaction, err := h.service.GetTransaction(r.Context(), userID, id)
	if err != nil {
		respondServiceError(w, h.respondError, err, "Transaction", "retrieve transaction")
		return
	}
	h.respondJSON(w, http.StatusOK, transaction)
}

func (h *TransactionHandler) GetUserTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.respondError)
	if !ok {
		return
	}

	var ve appErrors.ValidationErrors
	filter := domain.TransactionFilter{
		Type:      r.URL.Query().Get("type"),
		StartDate: queryDate(r, "start_date", &ve),
		EndDate:   queryDate(r, "end_date", &ve),
		Limit:     queryPositiveInt(r, "limit", &ve),
		Page:      queryPositiveInt(r, "page", &ve),
	}
	if categoryID := queryPositiveInt(r, "category_id", &ve); categoryID > 0 {
		id := int64(categoryID)
		filter.CategoryID = &id
	}
	if filter.Limit > application.MaxPageSize {
		ve.Add("limit", "limit must be at most 200")
	}
	if ve.HasErrors() {
		fields := ve.Fields()
		h.respondError(w, http.StatusBadRequest, appErrors.Summary(fields), fields)
		return
	}

	transactions, err := h.service.GetUserTransactions(r.Context(), userID, filter)
	if err != nil {
		respondServiceError(w, h.respondError, err, "Transaction", "retrieve transactions")
		return
	}
	h.respondJSON(w, http.StatusOK, transactions)
}

func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.respondError)
	if !ok {
		return
	}
	id, ok := pathID(w, r, h.respondError, "Transaction")
	if !ok {
		return
	}
	var patch domain.TransactionPatch
	if err := decodeBody(w, r, &patch); err != nil {
		respondBadBody(w, h.respondError, err)
		return
	}

	if _, err := h.service.UpdateTransaction(r.Context(), userID, id, patch); err != nil {
		respondServiceError(w, h.respondError, err, "Transaction", "update transaction")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"message": "Transaction updated successfully"})
}

func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.respondError)
	if !ok {
		return
	}
	id, ok := pathID(w, r, h.respondError, "Transaction")
	if !ok {
		return
	}

	if err := h.service.DeleteTransaction(r.Context(), userID, id); err != nil {
		respondServiceError(w, h.respondError, err, "Transaction", "delete transaction")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted successfully"})
}

func (h *TransactionHandler) GetTransactionSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.respondError)
	if !ok {
		return
	}
	startDate, endDate, ok := h.summaryRange(w, r)
	if !ok {
		return
	}

	summary, err := h.service.GetTransactionSummary(r.Context(), userID, startDate, endDate)
	if err != nil {
		respondServiceError(w, h.respondError, err, "Transaction", "retrieve transaction summary")
		return
	}
	h.respondJSON(w, http.StatusOK, summary)
}

func (h *TransactionHandler) GetTransactionSummaryByCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r, h.respondError)
	if !ok {
		return
	}
	startDate, endDate, ok := h.summaryRange(w, r)
	if !ok {
		return
	}

	summary, err := h.service.GetTransactionSummaryByCategory(r.Context(), userID, startDate, endDate, r.URL.Query().Get("type"))
	if err != nil {
		respondServiceError(w, h.respondError, err, "Transaction", "retrieve category summary")
		return
	}
	h.respondJSON(w, http.StatusOK, summary)
}

// summaryRange defaults to January 1st of this year through today.
func (h *TransactionHandler) summaryRange(w http.ResponseWriter, r *http.Request) (domain.Date, domain.Date, bool) {
	var ve appErrors.ValidationErrors
	start := queryDate(r, "start_date", &ve)
	end := queryDate(r, "end_date", &ve)
	if ve.HasErrors() {
		fields := ve.Fields()
		h.respondError(w, http.StatusBadRequest, appErrors.Summary(fields), fields)
		return domain.Date{}, domain.Date{}, false
	}

	defaultStart, defaultEnd := application.DefaultSummaryRange(h.now().UTC())
	if start == nil {
		start = &defaultStart
	}
	if end == nil {
		end = &defaultEnd
	}
	return *start, *end, true
}
