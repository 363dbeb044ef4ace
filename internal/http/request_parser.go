package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/core"
)

const dateLayout = "2006-01-02"

type createTransactionRequest struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Amount      any    `json:"amount"`
	Category    string `json:"category"`
}

// parseCreateTransaction decodes and validates the request body into a
// transaction owned by userID.
func parseCreateTransaction(r *http.Request, userID int64) (core.Transaction, error) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return core.Transaction{}, core.NewValidationError("body", fmt.Errorf("invalid JSON: %w", err))
	}

	date, err := time.Parse(dateLayout, strings.TrimSpace(req.Date))
	if err != nil {
		return core.Transaction{}, core.NewValidationError("date",
			fmt.Errorf("%w: want YYYY-MM-DD, got %q", core.ErrInvalidDate, req.Date))
	}

	txType, err := core.ParseTransactionType(req.Type)
	if err != nil {
		return core.Transaction{}, err
	}

	cents, err := core.ParseDecimalToCents(stringValue(req.Amount))
	if err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		UserID:      userID,
		Date:        core.Date{Time: date},
		Type:        txType,
		Description: strings.TrimSpace(req.Description),
		Amount:      core.Money{Cents: cents},
		Category:    strings.TrimSpace(req.Category),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// MonthParams holds a year/month pair parsed from query parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams reads year and month from the query string, defaulting
// to the current month.
func ParseMonthParams(query url.Values) (MonthParams, error) {
	now := time.Now()
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, core.NewValidationError("year", fmt.Errorf("not a number: %q", v))
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, core.NewValidationError("month", fmt.Errorf("not a number: %q", v))
		}
		params.Month = m
	}

	if params.Month < 1 || params.Month > 12 {
		return MonthParams{}, core.NewValidationError("month", fmt.Errorf("out of range: %d", params.Month))
	}
	if params.Year < 1970 || params.Year > 9999 {
		return MonthParams{}, core.NewValidationError("year", fmt.Errorf("out of range: %d", params.Year))
	}

	return params, nil
}

// stringValue renders a decoded JSON scalar as a string, so clients may send
// amounts either as "12.50" or 12.50.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}
