package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/ledger/memory"
	"github.com/Masaya-j9/account-book-monorepo-sub001/internal/services"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	store := memory.New()
	auth := services.NewAuthService(store, store, "test-secret-key", time.Hour)
	transactions := services.NewTransactionService(store, nil)

	srv := NewServer(":0", store, transactions, auth)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		srv.cacheManager.Stop()
		srv.limiter.Stop()
	})
	return srv, ts
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode %s %s response %q: %v", method, url, raw, err)
		}
	}
	return resp, decoded
}

func registerAndLogin(t *testing.T, baseURL string) string {
	t.Helper()

	resp, _ := doJSON(t, http.MethodPost, baseURL+"/api/register", "", map[string]string{
		"email":    "mario@example.com",
		"password": "correct horse",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodPost, baseURL+"/api/login", "", map[string]string{
		"email":    "mario@example.com",
		"password": "correct horse",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("expected a token")
	}
	return token
}

func TestHealthAndReady(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d", path, resp.StatusCode)
		}
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, ts := newTestServer(t)
	registerAndLogin(t, ts.URL)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/register", "", map[string]string{
		"email":    "MARIO@example.com",
		"password": "another pass",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", resp.StatusCode)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	_, ts := newTestServer(t)
	registerAndLogin(t, ts.URL)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/login", "", map[string]string{
		"email":    "mario@example.com",
		"password": "battery staple",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", resp.StatusCode)
	}
}

func TestTransactionsRequireAuth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/transactions", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	_, ts := newTestServer(t)
	token := registerAndLogin(t, ts.URL)

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", token, map[string]any{
		"date":        "2026-08-10",
		"type":        "EXPENSE",
		"description": "groceries",
		"amount":      "42.00",
		"category":    "Food",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, body %v", resp.StatusCode, body)
	}
	if body["type"] != "EXPENSE" || body["amount_cents"] != float64(4200) {
		t.Errorf("create response = %v", body)
	}
	txID := int64(body["id"].(float64))

	// Amounts may also arrive as JSON numbers
	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/api/transactions", token, map[string]any{
		"date":        "2026-08-12",
		"type":        "INCOME",
		"description": "salary",
		"amount":      2500.00,
		"category":    "Salary",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create income status = %d", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/transactions?year=2026&month=8", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	txs := body["transactions"].([]any)
	if len(txs) != 2 {
		t.Fatalf("listed %d transactions, want 2", len(txs))
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/overview?year=2026&month=8", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("overview status = %d", resp.StatusCode)
	}
	if body["income_total_cents"] != float64(250000) || body["expense_total_cents"] != float64(4200) {
		t.Errorf("overview = %v", body)
	}
	if body["net_cents"] != float64(245800) {
		t.Errorf("net_cents = %v, want 245800", body["net_cents"])
	}

	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/transactions/%d", ts.URL, txID), token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	// The overview cache was invalidated by the delete
	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/overview?year=2026&month=8", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("overview status = %d", resp.StatusCode)
	}
	if body["expense_total_cents"] != float64(0) {
		t.Errorf("expense_total_cents = %v after delete, want 0", body["expense_total_cents"])
	}

	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/transactions/%d", ts.URL, txID), token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	_, ts := newTestServer(t)
	token := registerAndLogin(t, ts.URL)

	tests := []struct {
		name      string
		body      map[string]any
		wantField string
	}{
		{
			name: "unknown type",
			body: map[string]any{
				"date": "2026-08-10", "type": "TRANSFER",
				"description": "x", "amount": "1.00", "category": "Misc",
			},
			wantField: "transaction_type",
		},
		{
			name: "lower-case type",
			body: map[string]any{
				"date": "2026-08-10", "type": "income",
				"description": "x", "amount": "1.00", "category": "Misc",
			},
			wantField: "transaction_type",
		},
		{
			name: "bad date",
			body: map[string]any{
				"date": "10/08/2026", "type": "EXPENSE",
				"description": "x", "amount": "1.00", "category": "Misc",
			},
			wantField: "date",
		},
		{
			name: "zero amount",
			body: map[string]any{
				"date": "2026-08-10", "type": "EXPENSE",
				"description": "x", "amount": "0", "category": "Misc",
			},
			wantField: "amount",
		},
		{
			name: "missing category",
			body: map[string]any{
				"date": "2026-08-10", "type": "EXPENSE",
				"description": "x", "amount": "1.00",
			},
			wantField: "category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/transactions", token, tt.body)
			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422 (body %v)", resp.StatusCode, body)
			}
			if body["field"] != tt.wantField {
				t.Errorf("field = %v, want %s", body["field"], tt.wantField)
			}
		})
	}
}

func TestLogoutRevokesAccess(t *testing.T) {
	_, ts := newTestServer(t)
	token := registerAndLogin(t, ts.URL)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/logout", token, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/api/transactions", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status after logout = %d, want 401", resp.StatusCode)
	}
}

func TestUsersCannotSeeEachOthersTransactions(t *testing.T) {
	_, ts := newTestServer(t)
	tokenA := registerAndLogin(t, ts.URL)

	resp, _ := doJSON(t, http.MethodPost, ts.URL+"/api/register", "", map[string]string{
		"email": "luigi@example.com", "password": "other password",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatal("second register failed")
	}
	resp, body := doJSON(t, http.MethodPost, ts.URL+"/api/login", "", map[string]string{
		"email": "luigi@example.com", "password": "other password",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatal("second login failed")
	}
	tokenB := body["token"].(string)

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/api/transactions", tokenA, map[string]any{
		"date": "2026-08-10", "type": "EXPENSE",
		"description": "secret", "amount": "9.99", "category": "Misc",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatal("create failed")
	}
	txID := int64(body["id"].(float64))

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/api/transactions?year=2026&month=8", tokenB, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatal("list failed")
	}
	if txs := body["transactions"].([]any); len(txs) != 0 {
		t.Errorf("user B sees %d foreign transactions", len(txs))
	}

	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/transactions/%d", ts.URL, txID), tokenB, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("foreign delete status = %d, want 404", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/api/login", "", nil)
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/login status = %d, want 405", resp.StatusCode)
	}
	if allow := resp.Header.Get("Allow"); allow != http.MethodPost {
		t.Errorf("Allow = %q, want POST", allow)
	}
}
