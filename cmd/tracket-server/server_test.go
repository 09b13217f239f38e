package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bobmcallan/tracket/internal/app"
	"github.com/bobmcallan/tracket/internal/server"
)

// testServer creates an httptest.Server with the full tracket-server handler.
func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	a, err := app.NewApp(writeTestConfig(t))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	t.Cleanup(a.Close)

	srv := server.NewServer(a)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// writeTestConfig writes a SQLite-backed config into a temp dir.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.ToSlash(filepath.Join(dir, "tracket.db"))
	content := `
[server]
rate_limit = 0

[storage]
backend = "sqlite"

[storage.sqlite]
path = "` + dbPath + `"

[logging]
level = "disabled"
`
	path := filepath.Join(dir, "tracket.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestHealthEndpoint(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status=ok, got %q", body["status"])
	}
	if body["backend"] != "sqlite" {
		t.Errorf("Expected backend=sqlite, got %q", body["backend"])
	}
}

func TestDepositPersistsThroughSQLite(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Post(ts.URL+"/api/accounts", "application/json",
		strings.NewReader(`{"name":"Checking","currency":"EUR","account_type":"BUDGET"}`))
	if err != nil {
		t.Fatalf("POST /api/accounts failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}

	resp, err = http.Post(ts.URL+"/api/transactions", "application/json",
		strings.NewReader(`{"account_id_from":1,"amount":"12.345","transaction_type":"DEPOSIT"}`))
	if err != nil {
		t.Fatalf("POST /api/transactions failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/accounts/1")
	if err != nil {
		t.Fatalf("GET /api/accounts/1 failed: %v", err)
	}
	defer resp.Body.Close()

	var account struct {
		Balance string `json:"balance"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if account.Balance != "12.345000" {
		t.Errorf("Expected balance 12.345000, got %s", account.Balance)
	}
}

func TestUnknownRoute(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/api/nope")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
}
