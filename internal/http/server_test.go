package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"rewards/internal/core"
	"rewards/internal/log"
	"rewards/internal/metrics"
	"rewards/internal/services"
	"rewards/internal/source"
	"rewards/internal/source/memory"
)

const sampleJSON = `[
	{"transactionId":"T1","customerId":"C1","customerName":"Mark","date":"2024-01-05","product":"Shoes","amount":75.5},
	{"transactionId":"T2","customerId":"C1","customerName":"Mark","date":"2024-02-10","product":"Jacket","amount":120.2},
	{"transactionId":"T3","customerId":"C2","customerName":"Lisa","date":"2024-01-20","product":"Bag","amount":110.4},
	{"transactionId":"T4","customerId":"C1","customerName":"Mark","date":"2024-03-15","product":"Watch","amount":200},
	{"transactionId":"T5","customerId":"C2","customerName":"Lisa","date":"2024-02-25","product":"Hat","amount":45.8},
	{"transactionId":"T6","customerId":"C2","customerName":"Lisa","date":"2024-03-30","product":"Belt","amount":90}
]`

type failingSource struct{}

func (failingSource) Name() string { return "failing" }
func (failingSource) Load(context.Context) ([]core.Transaction, error) {
	return nil, errors.Join(source.ErrSourceUnavailable, errors.New("no file"))
}

func newTestServer(t testing.TB, src source.TransactionSource, opts Options) *Server {
	t.Helper()
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Config{Level: slog.LevelError, Component: "test", Output: &bytes.Buffer{}})
	}
	cfg := services.DefaultRewardsServiceConfig()
	cfg.Location = time.UTC
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	opts.Logger = logger
	svc := services.NewRewardsService(src, cfg, logger, opts.Metrics)
	srv := NewServer(":0", svc, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func sampleStore(t testing.TB) *memory.Store {
	t.Helper()
	txs, err := source.DecodeBytes([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	return memory.New(txs)
}

func do(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, sampleStore(t), Options{})

	rr := do(srv, http.MethodGet, "/healthz", "")
	if rr.Code != 200 || rr.Body.String() != "ok" {
		t.Fatalf("healthz status=%d body=%q", rr.Code, rr.Body.String())
	}
	rr = do(srv, http.MethodGet, "/readyz", "")
	if rr.Code != 200 {
		t.Fatalf("readyz status=%d", rr.Code)
	}

	down := newTestServer(t, failingSource{}, Options{})
	rr = do(down, http.MethodGet, "/readyz", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing source status=%d", rr.Code)
	}
}

func TestTotalsEndpoint(t *testing.T) {
	srv := newTestServer(t, sampleStore(t), Options{})

	rr := do(srv, http.MethodGet, "/api/rewards/totals", "")
	if rr.Code != 200 {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	totals := decode[[]core.CustomerTotal](t, rr)
	if len(totals) != 2 {
		t.Fatalf("expected 2 customers, got %d", len(totals))
	}
	if totals[0].CustomerName != "Mark" || totals[0].AmountSpent != "$395.70" || totals[0].RewardPoints != 365 {
		t.Errorf("unexpected Mark totals: %+v", totals[0])
	}
	if totals[1].AmountSpent != "$246.20" || totals[1].RewardPoints != 110 {
		t.Errorf("unexpected Lisa totals: %+v", totals[1])
	}

	rr = do(srv, http.MethodGet, "/api/rewards/totals?sort=name", "")
	totals = decode[[]core.CustomerTotal](t, rr)
	if totals[0].CustomerName != "Lisa" {
		t.Errorf("sort=name should put Lisa first, got %s", totals[0].CustomerName)
	}

	rr = do(srv, http.MethodGet, "/api/rewards/totals?sort=age", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown sort status=%d", rr.Code)
	}
}

func TestMonthlyEndpoint(t *testing.T) {
	srv := newTestServer(t, sampleStore(t), Options{})

	rr := do(srv, http.MethodGet, "/api/rewards/monthly?start=2024-01-01&end=2024-01-31", "")
	if rr.Code != 200 {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	page := decode[Page[core.CustomerMonthlyAggregate]](t, rr)
	if page.Total != 2 || page.PageSize != 25 {
		t.Fatalf("unexpected page meta: %+v", page)
	}
	mark := page.Items[0]
	if mark.Name != "Mark" || len(mark.Monthly) != 1 || mark.Monthly[0].Month != "January" || mark.Monthly[0].RewardPoints != 25 {
		t.Errorf("unexpected Mark monthly: %+v", mark)
	}

	rr = do(srv, http.MethodGet, "/api/rewards/monthly?page_size=5&page=1", "")
	page = decode[Page[core.CustomerMonthlyAggregate]](t, rr)
	if len(page.Items) != 0 || page.Total != 2 {
		t.Errorf("second page should be empty: %+v", page)
	}
}

func TestTransactionsEndpoint(t *testing.T) {
	srv := newTestServer(t, sampleStore(t), Options{})

	rr := do(srv, http.MethodGet, "/api/transactions?sort=-price&page_size=5", "")
	if rr.Code != 200 {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	page := decode[Page[core.TransactionRow]](t, rr)
	if page.Total != 6 || len(page.Items) != 5 {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Items[0].Price != "$200.00" || page.Items[0].PurchaseDate != "2024-03-15" || page.Items[0].RewardPoints != 250 {
		t.Errorf("unexpected first row: %+v", page.Items[0])
	}

	for _, target := range []string{
		"/api/transactions?sort=date",
		"/api/transactions?page_size=7",
		"/api/transactions?start=2024-02-01&end=2024-01-01",
		"/api/transactions?start=yesterday",
	} {
		if rr := do(srv, http.MethodGet, target, ""); rr.Code != http.StatusBadRequest {
			t.Errorf("%s status=%d, want 400", target, rr.Code)
		}
	}
}

func TestComputeEndpoint(t *testing.T) {
	srv := newTestServer(t, memory.New(nil), Options{})

	rr := do(srv, http.MethodPost, "/api/rewards/compute", sampleJSON)
	if rr.Code != 200 {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	summary := decode[core.Summary](t, rr)
	if len(summary.Totals) != 2 || len(summary.Monthly) != 2 || len(summary.Transactions) != 6 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Stats.Transactions != 6 {
		t.Errorf("stats transactions = %d", summary.Stats.Transactions)
	}

	rr = do(srv, http.MethodPost, "/api/rewards/compute", `{"not":"a list"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("malformed body status=%d", rr.Code)
	}
	body := decode[ErrorBody](t, rr)
	if body.Error == "" || body.RequestID == "" {
		t.Errorf("error body missing fields: %+v", body)
	}

	rr = do(srv, http.MethodGet, "/api/rewards/compute", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET compute status=%d, want 405", rr.Code)
	}
}

func TestComputeBodyTooLarge(t *testing.T) {
	srv := newTestServer(t, memory.New(nil), Options{MaxBodyBytes: 64})

	rr := do(srv, http.MethodPost, "/api/rewards/compute", sampleJSON)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d, want 413", rr.Code)
	}
}

func TestSourceUnavailable(t *testing.T) {
	srv := newTestServer(t, failingSource{}, Options{})

	rr := do(srv, http.MethodGet, "/api/rewards/totals", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want 503", rr.Code)
	}
	if body := decode[ErrorBody](t, rr); body.Error != "transaction source unavailable" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestInvalidateEndpoint(t *testing.T) {
	store := sampleStore(t)
	srv := newTestServer(t, store, Options{})

	do(srv, http.MethodGet, "/api/rewards/totals", "")
	if err := store.Replace(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if totals := decode[[]core.CustomerTotal](t, do(srv, http.MethodGet, "/api/rewards/totals", "")); len(totals) != 2 {
		t.Fatalf("cached totals expected, got %d", len(totals))
	}

	rr := do(srv, http.MethodPost, "/api/cache/invalidate", "")
	if rr.Code != 200 {
		t.Fatalf("invalidate status=%d", rr.Code)
	}
	if got := decode[map[string]int](t, rr)["removed"]; got != 1 {
		t.Errorf("removed = %d, want 1", got)
	}
	if totals := decode[[]core.CustomerTotal](t, do(srv, http.MethodGet, "/api/rewards/totals", "")); len(totals) != 0 {
		t.Fatalf("expected reload after invalidate, got %d customers", len(totals))
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	srv := newTestServer(t, sampleStore(t), Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/rewards/totals", nil)
	req.Header.Set("X-Request-ID", "0b7d7f0e-3f0a-4c2b-9d8e-6a2f4c1b5e90")
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	if rr.Header().Get("X-Request-ID") != "0b7d7f0e-3f0a-4c2b-9d8e-6a2f4c1b5e90" {
		t.Errorf("request ID not propagated: %q", rr.Header().Get("X-Request-ID"))
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" || rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("security headers missing")
	}

	rr = do(srv, http.MethodGet, "/api/rewards/totals", "")
	if id := rr.Header().Get("X-Request-ID"); len(id) != 36 {
		t.Errorf("generated request ID = %q", id)
	}
}

func TestAPIRoutesLogUnderRewardsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Component: log.ComponentApp, Output: &buf, JSON: true})
	srv := newTestServer(t, sampleStore(t), Options{Logger: logger})

	rr := do(srv, http.MethodGet, "/api/rewards/totals?sort=age", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rr.Code)
	}
	requestID := rr.Header().Get("X-Request-ID")

	var found bool
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		entry := map[string]any{}
		if err := json.Unmarshal(line, &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		if entry["msg"] != "Request rejected" {
			continue
		}
		found = true
		if entry[log.FieldComponent] != log.ComponentRewards {
			t.Errorf("component = %v, want %s", entry[log.FieldComponent], log.ComponentRewards)
		}
		if entry[log.FieldRequestID] != requestID {
			t.Errorf("request_id = %v, want %s", entry[log.FieldRequestID], requestID)
		}
	}
	if !found {
		t.Fatalf("no rejection logged: %s", buf.String())
	}
}

func TestErrorResponsesCarryRequestID(t *testing.T) {
	tests := []struct {
		name   string
		srv    *Server
		method string
		target string
		body   string
		code   int
	}{
		{"bad range", newTestServer(t, sampleStore(t), Options{}), http.MethodGet, "/api/rewards/monthly?start=2024-03-01&end=2024-01-01", "", http.StatusBadRequest},
		{"too large", newTestServer(t, sampleStore(t), Options{MaxBodyBytes: 16}), http.MethodPost, "/api/rewards/compute", sampleJSON, http.StatusRequestEntityTooLarge},
		{"unavailable", newTestServer(t, failingSource{}, Options{}), http.MethodGet, "/api/rewards/totals", "", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(tt.srv, tt.method, tt.target, tt.body)
			if rr.Code != tt.code {
				t.Fatalf("status=%d, want %d", rr.Code, tt.code)
			}
			body := decode[ErrorBody](t, rr)
			if body.Error == "" || body.RequestID != rr.Header().Get("X-Request-ID") {
				t.Errorf("unexpected error body: %+v", body)
			}
		})
	}
}

func TestRateLimitOnPost(t *testing.T) {
	srv := newTestServer(t, sampleStore(t), Options{RateLimit: 2})

	for i := 0; i < 2; i++ {
		if rr := do(srv, http.MethodPost, "/api/cache/invalidate", ""); rr.Code != 200 {
			t.Fatalf("request %d status=%d", i, rr.Code)
		}
	}
	rr := do(srv, http.MethodPost, "/api/cache/invalidate", "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}
	if body := decode[ErrorBody](t, rr); body.RequestID == "" {
		t.Error("429 body missing requestId")
	}

	// GETs are not limited.
	for i := 0; i < 5; i++ {
		if rr := do(srv, http.MethodGet, "/api/rewards/totals", ""); rr.Code != 200 {
			t.Fatalf("GET %d status=%d", i, rr.Code)
		}
	}
}

func TestMetricsAndStatsEndpoints(t *testing.T) {
	srv := newTestServer(t, sampleStore(t), Options{})

	do(srv, http.MethodGet, "/api/rewards/totals", "")
	do(srv, http.MethodGet, "/api/rewards/totals", "")

	rr := do(srv, http.MethodGet, "/metrics", "")
	if rr.Code != 200 || !strings.Contains(rr.Body.String(), "rewards_http_request_duration_seconds") {
		t.Fatalf("metrics status=%d", rr.Code)
	}

	rr = do(srv, http.MethodGet, "/api/stats", "")
	stats := decode[statsResponse](t, rr)
	if stats.Source != "memory" || stats.Metrics.CacheHits != 1 || stats.Metrics.CacheMisses != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
