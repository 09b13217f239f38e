package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/tracket/internal/app"
	icommon "github.com/bobmcallan/tracket/internal/common"
	"github.com/bobmcallan/tracket/internal/server"
	tcommon "github.com/bobmcallan/tracket/tests/common"
)

// EnvOptions configures the API test environment
type EnvOptions struct {
	// Backend is the storage backend behind the server. Defaults to sqlite.
	Backend string
	// AllowOverdraft mirrors [ledger].allow_overdraft. Defaults to true.
	AllowOverdraft *bool
	// StoreAggregation mirrors [valuation].store_aggregation.
	StoreAggregation bool
}

// Env is a tracket-server running in-process against a fresh store. It
// lives beside the suites rather than in tests/common because the storage
// packages import tests/common from their own tests.
type Env struct {
	t      *testing.T
	App    *app.App
	Server *httptest.Server
}

// Backends lists the backends API suites run against. SurrealDB is included
// unless -short is set; it is skipped when Docker is unavailable.
func Backends() []string {
	backends := []string{icommon.BackendMemory, icommon.BackendSQLite}
	if !testing.Short() {
		backends = append(backends, icommon.BackendSurrealDB)
	}
	return backends
}

// NewEnv creates an environment on the default backend.
func NewEnv(t *testing.T) *Env {
	return NewEnvWithOptions(t, EnvOptions{})
}

// NewEnvWithOptions creates an environment with custom options.
func NewEnvWithOptions(t *testing.T, opts EnvOptions) *Env {
	t.Helper()

	cfg := icommon.NewDefaultConfig()
	cfg.Server.RateLimit = 0
	cfg.Storage.Backend = opts.Backend
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = icommon.BackendSQLite
	}
	cfg.Valuation.StoreAggregation = opts.StoreAggregation
	if opts.AllowOverdraft != nil {
		cfg.Ledger.AllowOverdraft = *opts.AllowOverdraft
	}

	switch cfg.Storage.Backend {
	case icommon.BackendSQLite:
		cfg.Storage.SQLite.Path = filepath.Join(t.TempDir(), "tracket.db")
	case icommon.BackendSurrealDB:
		sc := tcommon.StartSurrealDB(t)
		cfg.Storage.SurrealDB.Address = sc.Address()
		cfg.Storage.SurrealDB.Namespace = "tracket_api"
		cfg.Storage.SurrealDB.Database = databaseName(t)
	}

	a, err := app.NewAppWithConfig(cfg, icommon.NewSilentLogger())
	if err != nil {
		t.Fatalf("Failed to start app (%s): %v", cfg.Storage.Backend, err)
	}

	env := &Env{
		t:      t,
		App:    a,
		Server: httptest.NewServer(server.NewServer(a).Handler()),
	}
	t.Cleanup(env.Cleanup)

	t.Logf("Server started (backend: %s)", cfg.Storage.Backend)
	return env
}

// Cleanup stops the server and closes storage
func (e *Env) Cleanup() {
	if e == nil {
		return
	}
	if e.Server != nil {
		e.Server.Close()
	}
	if e.App != nil {
		e.App.Close()
	}
}

// Do sends a JSON request and returns the status code and raw body.
func (e *Env) Do(method, path string, body interface{}) (int, []byte) {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.Server.URL+path, reader)
	if err != nil {
		e.t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Server.Client().Do(req)
	if err != nil {
		e.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		e.t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, data
}

// JSON sends a request and decodes the response into out when non-nil.
func (e *Env) JSON(method, path string, body, out interface{}) int {
	e.t.Helper()
	status, data := e.Do(method, path, body)
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			e.t.Fatalf("decode %s %s (%d): %v\n%s", method, path, status, err, FormatJSON(data))
		}
	}
	return status
}

// FormatJSON pretty-prints raw JSON for failure messages.
func FormatJSON(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}
	return buf.String()
}

// SaveResult writes a response body under tests/results when
// TRACKET_TEST_RESULTS is set, for inspection after a run.
func (e *Env) SaveResult(name string, data []byte) error {
	root := os.Getenv("TRACKET_TEST_RESULTS")
	if root == "" {
		return nil
	}
	dir := filepath.Join(root, time.Now().Format("20060102")+"-"+sanitize(e.t.Name()))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, name), []byte(FormatJSON(data)), 0644)
}

func databaseName(t *testing.T) string {
	return fmt.Sprintf("api_%s_%d", sanitize(t.Name()), time.Now().UnixNano()%100000)
}

// sanitize makes test names safe for database and directory names.
func sanitize(name string) string {
	return strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(name)
}

func jsonUnmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w\n%s", err, FormatJSON(data))
	}
	return nil
}
