package interfaces

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sebuszqo/FinanceTracker/internal/auth"
	"github.com/sebuszqo/FinanceTracker/internal/finance/application"
	"github.com/sebuszqo/FinanceTracker/internal/finance/infrastructure"
	"github.com/sebuszqo/FinanceTracker/internal/response"
	"github.com/sebuszqo/FinanceTracker/internal/user"
)

var (
	alice = &user.User{ID: 1, Username: "alice", Email: "a@x.com"}
	bob   = &user.User{ID: 2, Username: "bob", Email: "b@x.com"}
)

type testAPI struct {
	router       http.Handler
	categories   *infrastructure.MockCategoryRepository
	transactions *infrastructure.MockTransactionRepository
}

// newTestAPI wires the handlers over in-memory repositories. The caller is
// taken from the X-Test-User header so requests skip token handling.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	categories := infrastructure.NewMockCategoryRepository()
	transactions := infrastructure.NewMockTransactionRepository()
	transactions.Categories = categories

	categoryService := application.NewCategoryService(categories)
	categoryHandler := NewCategoryHandler(categoryService, response.JSON, response.Error)
	transactionHandler := NewTransactionHandler(application.NewTransactionService(transactions, categoryService), response.JSON, response.Error)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Header.Get("X-Test-User") {
			case "alice":
				r = r.WithContext(auth.ContextWithUser(r.Context(), alice))
			case "bob":
				r = r.WithContext(auth.ContextWithUser(r.Context(), bob))
			}
			next.ServeHTTP(w, r)
		})
	})
	RegisterRoutes(r, categoryHandler, transactionHandler)

	return &testAPI{router: r, categories: categories, transactions: transactions}
}

func (a *testAPI) do(t *testing.T, method, path, caller string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set("X-Test-User", caller)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

func mustRequest(t *testing.T, target string) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodGet, target, nil)
}
