package interfaces

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the category and transaction endpoints on r. The
// caller is expected to have installed the access-token middleware.
func RegisterRoutes(r chi.Router, categories *CategoryHandler, transactions *TransactionHandler) {
	r.Route("/categories", func(r chi.Router) {
		r.Get("/", categories.GetCategories)
		r.Post("/create", categories.CreateCategory)
		r.Put("/{id}", categories.UpdateCategory)
		r.Delete("/{id}/delete", categories.DeleteCategory)
	})

	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", transactions.GetUserTransactions)
		r.Post("/create", transactions.CreateTransaction)
		r.Get("/summary", transactions.GetTransactionSummary)
		r.Get("/summary/category", transactions.GetTransactionSummaryByCategory)
		r.Get("/{id}", transactions.GetTransaction)
		r.Put("/{id}", transactions.UpdateTransaction)
		r.Delete("/{id}/delete", transactions.DeleteTransaction)
	})
}
