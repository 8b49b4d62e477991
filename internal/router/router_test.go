package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/deppfellow/account-gateway/internal/config"
	"github.com/deppfellow/account-gateway/internal/database"
	"github.com/deppfellow/account-gateway/internal/errs"
	"github.com/deppfellow/account-gateway/internal/handler"
	"github.com/deppfellow/account-gateway/internal/logger"
	"github.com/deppfellow/account-gateway/internal/model"
	"github.com/deppfellow/account-gateway/internal/repository"
	"github.com/deppfellow/account-gateway/internal/server"
	"github.com/deppfellow/account-gateway/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type testApp struct {
	router *echo.Echo
	db     database.Engine
}

func newTestApp(t *testing.T, rateLimit float64) *testApp {
	t.Helper()

	cfg := &config.Config{
		Primary: config.Primary{Env: "test"},
		Server: config.ServerConfig{
			Port:               "0",
			ReadTimeout:        5,
			WriteTimeout:       5,
			IdleTimeout:        5,
			CORSAllowedOrigins: []string{"*"},
			RateLimit:          rateLimit,
		},
		Database: config.DatabaseConfig{
			Driver: database.DriverSQLite,
			Path:   filepath.Join(t.TempDir(), "router.db"),
		},
		Observability: config.DefaultObservabilityConfig(),
	}

	log := zerolog.Nop()
	db, err := database.NewSQLite(cfg.Database, &log)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	srv := server.NewWithEngine(cfg, &log, logger.NewLoggerService(cfg.Observability), db)
	services, err := service.NewService(srv, repository.NewRepositories(srv))
	if err != nil {
		t.Fatalf("failed to build services: %v", err)
	}

	return &testApp{
		router: NewRouter(srv, handler.NewHandlers(srv, services)),
		db:     db,
	}
}

func (a *testApp) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestAccountRoutes(t *testing.T) {
	app := newTestApp(t, 0)

	for _, body := range []string{
		`{"number":"12345012345","name":"Nils Olav Johnsen","balance":2049.36}`,
		`{"number":"09876543210","name":"Jon Olav Nilsen","balance":9000.99}`,
		`{"number":"019283746574","name":"Jon Olav Nilsen","balance":8000.00}`,
	} {
		rec := app.do(t, http.MethodPost, "/api/v1/accounts", body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
		}
	}

	t.Run("count", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/v1/accounts/count", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("count returned %d", rec.Code)
		}
		if got := decode[handler.CountAccountsResponse](t, rec); got.Count != 3 {
			t.Fatalf("count = %d, want 3", got.Count)
		}
	})

	t.Run("list by name", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/v1/accounts?name=Jon+Olav+Nilsen", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("list returned %d", rec.Code)
		}
		accounts := decode[[]model.Account](t, rec)
		var numbers []string
		for _, a := range accounts {
			numbers = append(numbers, a.Number)
		}
		sort.Strings(numbers)
		if strings.Join(numbers, ",") != "019283746574,09876543210" {
			t.Fatalf("unexpected accounts %v", numbers)
		}
	})

	t.Run("list all", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/api/v1/accounts", "")
		if got := decode[[]model.Account](t, rec); len(got) != 3 {
			t.Fatalf("expected 3 accounts, got %d", len(got))
		}
	})

	t.Run("update keeps number from path", func(t *testing.T) {
		rec := app.do(t, http.MethodPut, "/api/v1/accounts/12345012345",
			`{"number":"ignored","name":"ChangedName","balance":2049.36}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("update returned %d: %s", rec.Code, rec.Body.String())
		}

		rec = app.do(t, http.MethodGet, "/api/v1/accounts/12345012345", "")
		got := decode[model.Account](t, rec)
		if got.Name != "ChangedName" || got.Balance != 2049.36 {
			t.Fatalf("unexpected account after update: %+v", got)
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := app.do(t, http.MethodDelete, "/api/v1/accounts/09876543210", "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("delete returned %d: %s", rec.Code, rec.Body.String())
		}

		rec = app.do(t, http.MethodGet, "/api/v1/accounts/09876543210", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("get after delete returned %d", rec.Code)
		}
	})
}

func TestAccountRouteErrors(t *testing.T) {
	app := newTestApp(t, 0)

	if rec := app.do(t, http.MethodPost, "/api/v1/accounts", `{"number":"1","name":"First","balance":1}`); rec.Code != http.StatusCreated {
		t.Fatalf("seed create returned %d", rec.Code)
	}

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"duplicate create", http.MethodPost, "/api/v1/accounts", `{"number":"1","name":"Again","balance":2}`, http.StatusBadRequest, "ACCOUNT_ALREADY_EXISTS"},
		{"missing number", http.MethodPost, "/api/v1/accounts", `{"name":"No Number"}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"malformed body", http.MethodPost, "/api/v1/accounts", `{"number":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"number too long", http.MethodPost, "/api/v1/accounts", `{"number":"` + strings.Repeat("9", 35) + `","name":"Long"}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"get missing", http.MethodGet, "/api/v1/accounts/ghost", "", http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
		{"update missing", http.MethodPut, "/api/v1/accounts/ghost", `{"name":"Nobody","balance":0}`, http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
		{"update without balance", http.MethodPut, "/api/v1/accounts/1", `{"name":"Partial"}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"delete missing", http.MethodDelete, "/api/v1/accounts/ghost", "", http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
		{"unknown route", http.MethodGet, "/api/v2/accounts", "", http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, tt.method, tt.target, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := decode[errs.HTTPError](t, rec); got.Code != tt.wantCode {
				t.Fatalf("code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}

	t.Run("validation lists field errors", func(t *testing.T) {
		rec := app.do(t, http.MethodPost, "/api/v1/accounts", `{}`)
		got := decode[errs.HTTPError](t, rec)
		fields := map[string]string{}
		for _, fe := range got.Errors {
			fields[fe.Field] = fe.Error
		}
		if fields["number"] != "is required" || fields["name"] != "is required" {
			t.Fatalf("unexpected field errors %+v", got.Errors)
		}
	})
}

func TestStatusRoute(t *testing.T) {
	app := newTestApp(t, 0)

	rec := app.do(t, http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status returned %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a generated X-Request-ID header")
	}

	app.db.Close()

	rec = app.do(t, http.MethodGet, "/status", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status with a closed db returned %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "unhealthy" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRateLimit(t *testing.T) {
	app := newTestApp(t, 1)

	var limited bool
	for i := 0; i < 5; i++ {
		rec := app.do(t, http.MethodGet, "/api/v1/accounts/count", "")
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("expected the limiter to reject a burst of requests")
	}

	// /status is never limited.
	if rec := app.do(t, http.MethodGet, "/status", ""); rec.Code != http.StatusOK {
		t.Fatalf("status returned %d while limited", rec.Code)
	}
}
