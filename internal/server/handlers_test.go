package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bobmcallan/tracket/internal/app"
	"github.com/bobmcallan/tracket/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Storage.Backend = common.BackendMemory
	cfg.Server.RateLimit = 0
	a, err := app.NewAppWithConfig(cfg, common.NewSilentLogger())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return NewServer(a)
}

// do sends a request and decodes a JSON response body into out when non-nil.
func do(t *testing.T, s *Server, method, path, body string, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if out != nil && rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out), rr.Body.String())
	}
	return rr
}

type accountBody struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
}

func createAccount(t *testing.T, s *Server, name, currency, balance string) accountBody {
	t.Helper()
	var a accountBody
	rr := do(t, s, http.MethodPost, "/api/accounts",
		`{"name":"`+name+`","currency":"`+currency+`","account_type":"INVESTMENT","initial_balance":"`+balance+`"}`, &a)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return a
}

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer(t)

	var health map[string]string
	rr := do(t, s, http.MethodGet, "/api/health", "", &health)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if health["backend"] != common.BackendMemory {
		t.Errorf("Expected backend memory, got %q", health["backend"])
	}
	if rr.Header().Get("X-Correlation-ID") == "" {
		t.Error("Expected X-Correlation-ID header")
	}

	var version common.VersionInfo
	rr = do(t, s, http.MethodGet, "/api/version", "", &version)
	if rr.Code != http.StatusOK || version.Version == "" {
		t.Errorf("Unexpected version response %d %+v", rr.Code, version)
	}
}

func TestAccountLifecycle(t *testing.T) {
	s := newTestServer(t)
	a := createAccount(t, s, "Broker", "usd", "100")
	assert.Equal(t, "USD", a.Currency)
	assert.Equal(t, "100.000000", a.Balance)

	var got accountBody
	rr := do(t, s, http.MethodPut, "/api/accounts/1", `{"name":"Renamed","description":"main"}`, &got)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Renamed", got.Name)

	var list struct {
		Accounts []accountBody `json:"accounts"`
	}
	do(t, s, http.MethodGet, "/api/accounts", "", &list)
	assert.Len(t, list.Accounts, 1)

	rr = do(t, s, http.MethodDelete, "/api/accounts/1", "", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, s, http.MethodDelete, "/api/accounts/1", "", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code, "delete is idempotent")

	var errResp ErrorResponse
	rr = do(t, s, http.MethodGet, "/api/accounts/1", "", &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "ACCOUNT_NOT_DELETED", errResp.Code)

	list.Accounts = nil
	do(t, s, http.MethodGet, "/api/accounts", "", &list)
	assert.Empty(t, list.Accounts)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	createAccount(t, s, "Broker", "USD", "10")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"missing account", http.MethodGet, "/api/accounts/42", "", http.StatusNotFound, "ACCOUNT_MUST_EXIST"},
		{"bad id", http.MethodGet, "/api/accounts/abc", "", http.StatusBadRequest, "invalid_argument"},
		{"bad page", http.MethodGet, "/api/accounts/1/activity?ledger_page=-1", "", http.StatusBadRequest, "invalid_argument"},
		{"missing amount", http.MethodPost, "/api/transactions", `{"account_id_from":1,"transaction_type":"DEPOSIT"}`, http.StatusBadRequest, "invalid_argument"},
		{"unknown instrument", http.MethodPost, "/api/trades", `{"trade_type":"BUY","num_of_units":1,"price_per_unit":"1","name":"NOPE","account_id":1}`, http.StatusNotFound, "STOCK_MUST_EXIST"},
		{"missing instrument price", http.MethodGet, "/api/instruments/NOPE/price", "", http.StatusNotFound, "PRICE_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp ErrorResponse
			rr := do(t, s, tt.method, tt.path, tt.body, &resp)
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.Equal(t, tt.code, resp.Code)
		})
	}

	rr := do(t, s, http.MethodPost, "/api/accounts", `{not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTransferAppliesExchangeRate(t *testing.T) {
	s := newTestServer(t)
	from := createAccount(t, s, "USD", "USD", "10")
	to := createAccount(t, s, "EUR", "EUR", "0")

	var entry struct {
		ID           int64  `json:"id"`
		Amount       string `json:"amount"`
		ExchangeRate string `json:"exchange_rate"`
	}
	rr := do(t, s, http.MethodPost, "/api/transactions",
		`{"account_id_from":1,"account_id_to":2,"amount":"2.54","transaction_type":"TRANSFER","exchange_rate":"7.4560"}`, &entry)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "2.540000", entry.Amount)
	assert.Equal(t, "7.456000", entry.ExchangeRate)

	var a, b accountBody
	do(t, s, http.MethodGet, "/api/accounts/1", "", &a)
	do(t, s, http.MethodGet, "/api/accounts/2", "", &b)
	assert.Equal(t, from.ID, a.ID)
	assert.Equal(t, "7.460000", a.Balance)
	assert.Equal(t, to.ID, b.ID)
	assert.Equal(t, "18.938240", b.Balance)

	var activity struct {
		Ledger struct {
			Items   []json.RawMessage `json:"items"`
			HasNext bool              `json:"has_next"`
		} `json:"ledger"`
	}
	rr = do(t, s, http.MethodGet, "/api/accounts/2/activity", "", &activity)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, activity.Ledger.Items, 1)
	assert.False(t, activity.Ledger.HasNext)
}

func TestTradesAndValuation(t *testing.T) {
	s := newTestServer(t)
	createAccount(t, s, "Broker", "USD", "0")

	rr := do(t, s, http.MethodPost, "/api/instruments", `{"name":"AAPL","currency":"USD","asset_class":"EQUITY"}`, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var dup ErrorResponse
	rr = do(t, s, http.MethodPost, "/api/instruments", `{"name":"AAPL","currency":"USD","asset_class":"EQUITY"}`, &dup)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "STOCK_ALREADY_EXISTS", dup.Code)

	var buy struct {
		ID int64 `json:"id"`
	}
	rr = do(t, s, http.MethodPost, "/api/trades", `{"trade_type":"BUY","num_of_units":10,"price_per_unit":"100","name":"AAPL","account_id":1,"fee":"1"}`, &buy)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var sellErr ErrorResponse
	rr = do(t, s, http.MethodPost, "/api/trades", `{"trade_type":"SELL","num_of_units":4,"price_per_unit":"120","name":"AAPL","account_id":1}`, &sellErr)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "SELL_MUST_HAVE_BUY_ID", sellErr.Code)
	assert.Equal(t, []int64{1}, sellErr.AccountIDs)

	rr = do(t, s, http.MethodPost, "/api/trades", `{"trade_type":"SELL","num_of_units":4,"price_per_unit":"120","name":"AAPL","account_id":1,"fee":"1","buy_id":1}`, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var unpriced struct {
		AssetValue string   `json:"asset_value"`
		Unpriced   []string `json:"unpriced"`
	}
	do(t, s, http.MethodGet, "/api/accounts/1/valuation", "", &unpriced)
	assert.Equal(t, "0.000000", unpriced.AssetValue)
	assert.Equal(t, []string{"AAPL"}, unpriced.Unpriced)

	rr = do(t, s, http.MethodPost, "/api/instruments/AAPL/prices", `{"price":"130","observed_at":"2024-05-01T16:00:00Z"}`, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var price struct {
		Price  string `json:"price"`
		Source string `json:"source"`
	}
	rr = do(t, s, http.MethodGet, "/api/instruments/AAPL/price", "", &price)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "130.000000", price.Price)
	assert.Equal(t, "manual", price.Source)

	var valuation struct {
		AssetValue string `json:"asset_value"`
		CostBasis  string `json:"cost_basis"`
		ProfitLoss string `json:"profit_loss"`
		Positions  map[string]struct {
			UnitsHeld int64 `json:"units_held"`
		} `json:"positions"`
	}
	rr = do(t, s, http.MethodGet, "/api/accounts/1/valuation", "", &valuation)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "780.000000", valuation.AssetValue)
	assert.Equal(t, "522.000000", valuation.CostBasis)
	assert.Equal(t, "258.000000", valuation.ProfitLoss)
	assert.Equal(t, int64(6), valuation.Positions["AAPL"].UnitsHeld)

	var summary struct {
		AssetValue string `json:"asset_value"`
		ProfitLoss string `json:"profit_loss"`
	}
	do(t, s, http.MethodGet, "/api/accounts/1/summary", "", &summary)
	assert.Equal(t, "780.000000", summary.AssetValue)
	assert.Equal(t, "258.000000", summary.ProfitLoss)

	var all struct {
		AssetValue string `json:"asset_value"`
	}
	do(t, s, http.MethodGet, "/api/valuations", "", &all)
	assert.Equal(t, "780.000000", all.AssetValue)

	rr = do(t, s, http.MethodDelete, "/api/instruments/AAPL", "", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	var positions struct {
		Positions map[string]json.RawMessage `json:"positions"`
	}
	do(t, s, http.MethodGet, "/api/accounts/1/positions", "", &positions)
	assert.Empty(t, positions.Positions, "deleted instruments drop out of positions")
}

func TestShutdownSignalsChannel(t *testing.T) {
	s := newTestServer(t)
	ch := make(chan struct{}, 1)
	s.SetShutdownChannel(ch)

	rr := do(t, s, http.MethodPost, "/api/shutdown", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected shutdown signal")
	}
}

func TestShutdownForbiddenInProduction(t *testing.T) {
	s := newTestServer(t)
	s.app.Config.Environment = "production"

	rr := do(t, s, http.MethodPost, "/api/shutdown", "", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
