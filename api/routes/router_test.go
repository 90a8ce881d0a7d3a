package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storepos-backend/internal/catalog"
	"github.com/angelmondragon/storepos-backend/internal/checkout"
	"github.com/angelmondragon/storepos-backend/internal/invoices"
	"github.com/angelmondragon/storepos-backend/internal/reports"
	"github.com/angelmondragon/storepos-backend/internal/stores"
	pkgAuth "github.com/angelmondragon/storepos-backend/pkg/auth"
	"github.com/angelmondragon/storepos-backend/pkg/auth/session"
	"github.com/angelmondragon/storepos-backend/pkg/config"
	"github.com/angelmondragon/storepos-backend/pkg/enums"
	"github.com/angelmondragon/storepos-backend/pkg/logger"
	"github.com/angelmondragon/storepos-backend/pkg/metrics"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) { return true, nil }

// fakeRedis backs idempotency and rate limiting in memory.
type fakeRedis struct {
	data   map[string]string
	counts map[string]int64
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, counts: map[string]int64{}}
}

func (f *fakeRedis) Ping(context.Context) error { return nil }

func (f *fakeRedis) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = fmt.Sprint(value)
	return true, nil
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.data[key] = fmt.Sprint(value)
	return nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeRedis) IdempotencyKey(scope, id string) string { return "idem:" + scope + ":" + id }

func (f *fakeRedis) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	f.counts[scope]++
	return f.counts[scope] <= limit, f.counts[scope], nil
}

// The stub services embed their interface; only the methods a test reaches
// are implemented.

type stubStores struct{ stores.Service }

func (stubStores) List(context.Context) ([]stores.StoreDTO, error) {
	return []stores.StoreDTO{{Name: "Downtown Store"}}, nil
}

type stubCheckout struct {
	checkout.Service
	finalized int
}

func (s *stubCheckout) Finalize(_ context.Context, viewer catalog.Viewer, input checkout.FinalizeInput) (*invoices.InvoiceDTO, error) {
	s.finalized++
	name := input.CustomerName
	return &invoices.InvoiceDTO{ID: "INV-20240115-001", CustomerName: &name, Total: "10.58"}, nil
}

type stubReports struct{ reports.Service }

func (stubReports) ExportCSV(_ context.Context, _ catalog.Viewer, _ reports.SummaryRequest, w io.Writer) error {
	_, err := io.WriteString(w, strings.Join(reports.CSVHeader, ",")+"\n")
	return err
}

func testConfig() *config.Config {
	return &config.Config{
		App:           config.AppConfig{Env: "test"},
		JWT:           config.JWTConfig{Secret: "secret", Issuer: "storepos", ExpirationMinutes: 60},
		AuthRateLimit: config.AuthRateLimitConfig{LoginWindow: time.Minute, LoginIPLimit: 100, LoginUsernameLimit: 2},
		Metrics:       config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

type testRouter struct {
	http.Handler
	checkout *stubCheckout
}

func newTestRouter(cfg *config.Config) testRouter {
	reg := prometheus.NewRegistry()
	co := &stubCheckout{}
	logg := logger.New(logger.Options{ServiceName: "test-routing", Output: io.Discard})
	h := NewRouter(cfg, logg, Deps{
		DB:       stubPinger{},
		Redis:    newFakeRedis(),
		Sessions: stubSessions{},
		Gatherer: reg,
		HTTP:     metrics.NewHTTPMetrics(reg),
		Stores:   stubStores{},
		Checkout: co,
		Reports:  stubReports{},
	})
	return testRouter{Handler: h, checkout: co}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.Role) string {
	t.Helper()
	payload := pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		Username: string(role),
		Role:     role,
		JTI:      session.NewAccessID(),
	}
	if role == enums.RoleStoreUser {
		storeID := uuid.New()
		payload.StoreID = &storeID
		payload.StoreName = "Downtown Store"
	}
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

func TestHealthReadyReportsDependencyFailure(t *testing.T) {
	cfg := testConfig()
	h := NewRouter(cfg, nil, Deps{DB: stubPinger{err: fmt.Errorf("db down")}})
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestAPIRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	storeUser := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stores", nil)
	storeUser.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleStoreUser))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, storeUser)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for store user got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stores", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "Downtown Store") {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestCheckoutRequiresIdempotencyKeyAndReplays(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	token := buildToken(t, cfg, enums.RoleStoreUser)

	missing := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"customer_name":"Ana"}`))
	missing.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, missing)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key got %d", resp.Code)
	}

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"customer_name":"Ana"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "sale-1")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201 got %d (%s)", i, resp.Code, resp.Body.String())
		}
		if !strings.Contains(resp.Body.String(), "INV-20240115-001") {
			t.Fatalf("unexpected body %s", resp.Body.String())
		}
	}
	if router.checkout.finalized != 1 {
		t.Fatalf("expected a single finalize, got %d", router.checkout.finalized)
	}
}

func TestReportExportIsCSVAttachment(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/export.csv?from=2024-01-01&to=2024-01-31", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.RoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.HasPrefix(resp.Body.String(), "Invoice ID,Date,Total,Items Count,Store") {
		t.Fatalf("unexpected csv %q", resp.Body.String())
	}
}

func TestLoginIsRateLimitedPerUsername(t *testing.T) {
	router := newTestRouter(testConfig())

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"admin","password":"wrong"}`))
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		last = resp.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected third attempt to be rate limited, got %d", last)
	}
}

func TestMetricsEndpointExposesRequestCounters(t *testing.T) {
	router := newTestRouter(testConfig())
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `http_requests_total{method="GET",route="/health/live",status="200"} 1`) {
		t.Fatalf("expected health request counter in:\n%s", resp.Body.String())
	}
}
