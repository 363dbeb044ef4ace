package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/core"
)

type transactionResponse struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
}

func toTransactionResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Date:        tx.Date.Format(dateLayout),
		Type:        tx.Type.String(),
		Description: tx.Description,
		AmountCents: tx.Amount.Cents,
		Amount:      core.FormatCents(tx.Amount.Cents),
		Category:    tx.Category,
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createTransaction(w, r)
	case http.MethodGet:
		s.listTransactions(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	tx, err := parseCreateTransaction(r, userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ref, err := s.transactions.CreateTransaction(r.Context(), tx)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.overviewCache.DeletePrefix(overviewCachePrefix(userID))

	tx.ID, _ = strconv.ParseInt(ref, 10, 64)
	respondJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	params, err := ParseMonthParams(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}

	txs, err := s.backend.ListTransactions(r.Context(), userID, params.Year, params.Month)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = toTransactionResponse(tx)
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"year":         params.Year,
		"month":        params.Month,
		"transactions": out,
	})
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, http.MethodDelete)
		return
	}

	userID := userIDFromContext(r.Context())

	idStr := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 1 {
		respondError(w, r, core.NewValidationError("id", fmt.Errorf("invalid transaction id %q", idStr)))
		return
	}

	if err := s.transactions.DeleteTransaction(r.Context(), userID, id); err != nil {
		respondError(w, r, err)
		return
	}

	s.overviewCache.DeletePrefix(overviewCachePrefix(userID))
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	userID := userIDFromContext(r.Context())

	params, err := ParseMonthParams(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}

	key := overviewCacheKey(userID, params.Year, params.Month)
	overview, hit := s.overviewCache.Get(key)
	if !hit {
		overview, err = s.backend.ReadMonthOverview(r.Context(), userID, params.Year, params.Month)
		if err != nil {
			respondError(w, r, err)
			return
		}
		s.overviewCache.Set(key, overview)
	}

	byCategory := make([]map[string]any, len(overview.ByCategory))
	for i, c := range overview.ByCategory {
		byCategory[i] = map[string]any{
			"category":     c.Name,
			"amount_cents": c.Amount.Cents,
			"amount":       core.FormatCents(c.Amount.Cents),
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"year":                overview.Year,
		"month":               overview.Month,
		"income_total_cents":  overview.IncomeTotal.Cents,
		"expense_total_cents": overview.ExpenseTotal.Cents,
		"net_cents":           overview.Net(),
		"by_category":         byCategory,
	})
}
