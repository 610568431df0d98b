package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"findash/internal/amqp"
	"findash/internal/core"
	"findash/internal/dashboard"
	"findash/internal/observability"
	"findash/internal/sources/memory"
	"findash/internal/storage"
)

type fakePublisher struct {
	msgs []*amqp.ScanRequestMessage
	err  error
}

func (f *fakePublisher) PublishScanRequest(_ context.Context, msg *amqp.ScanRequestMessage) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

type fakeRuns struct {
	runs  []storage.ScanRun
	limit int
}

func (f *fakeRuns) ListScanRuns(_ context.Context, limit int) ([]storage.ScanRun, error) {
	f.limit = limit
	return f.runs, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

var clock = func() time.Time { return time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC) }

func newTestServer(opts ...Option) *Server {
	src := memory.New(
		core.Document{Name: "ledger.md", Text: strings.Join([]string{
			"05-03-2024 | Food | Lunch | 120.50",
			"05-03-2024 | Traveling | Cab | 80",
			"01-03-2024 | Rent/Bills | Rent | 1000",
			"15-02-2024 | Gadgets | Cable | 99",
		}, "\n")},
	)
	opts = append([]Option{WithClock(clock), WithLocation(time.UTC)}, opts...)
	return NewServer(":0", src, dashboard.NewAssembler(nil, nil, 2), opts...)
}

func do(t *testing.T, srv *Server, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
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

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer()
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := rr.Body.String()
	for _, want := range []string{"Finance Dashboard", "₹200.50", `<option value="today" selected>`, "dashboard-data"} {
		assert.Contains(t, body, want)
	}
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))

	rr = do(t, srv, http.MethodGet, "/?filter=month", "")
	assert.Contains(t, rr.Body.String(), "₹1200.50")
	assert.Contains(t, rr.Body.String(), `<option value="month" selected>`)

	for _, path := range []string{"/healthz", "/readyz", "/static/dashboard.js"} {
		assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, path, "").Code, path)
	}
}

func TestIndexEmbedsViewJSON(t *testing.T) {
	srv := newTestServer()
	defer srv.Shutdown(context.Background())

	body := do(t, srv, http.MethodGet, "/?filter=all", "").Body.String()
	const open = `<script id="dashboard-data" type="application/json">`
	start := strings.Index(body, open)
	require.GreaterOrEqual(t, start, 0, "view script not found")
	rest := body[start+len(open):]
	end := strings.Index(rest, "</script>")
	require.GreaterOrEqual(t, end, 0)

	var v dashboard.View
	require.NoError(t, json.Unmarshal([]byte(rest[:end]), &v), rest[:end])
	assert.Equal(t, "all", v.Filter)
	assert.Equal(t, 4, v.Count)
	assert.Equal(t, "Total", v.TotalSeries.Label)
}

func TestDashboardAPI(t *testing.T) {
	srv := newTestServer()
	defer srv.Shutdown(context.Background())

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantTotal  float64
		wantCount  int
		wantLabels []string
	}{
		{name: "default is today", query: "", wantStatus: 200, wantTotal: 200.50, wantCount: 2, wantLabels: []string{"Food", "Traveling"}},
		{name: "month", query: "?filter=month", wantStatus: 200, wantTotal: 1200.50, wantCount: 3, wantLabels: []string{"Food", "Traveling", "Rent/Bills"}},
		{name: "all", query: "?filter=all", wantStatus: 200, wantTotal: 1299.50, wantCount: 4, wantLabels: []string{"Food", "Traveling", "Rent/Bills", "Miscellaneous"}},
		{name: "date override", query: "?filter=today&date=2024-02-15", wantStatus: 200, wantTotal: 99, wantCount: 1, wantLabels: []string{"Miscellaneous"}},
		{name: "empty window", query: "?filter=today&date=2030-01-01", wantStatus: 200, wantLabels: []string{}},
		{name: "invalid filter", query: "?filter=week", wantStatus: 400},
		{name: "invalid date", query: "?date=05-03-2024", wantStatus: 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodGet, "/api/dashboard"+tt.query, "")
			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			if tt.wantStatus != 200 {
				return
			}
			var v dashboard.View
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
			assert.InDelta(t, tt.wantTotal, v.Total, 1e-9)
			assert.Equal(t, tt.wantCount, v.Count)
			assert.Equal(t, strings.Join(tt.wantLabels, ","), strings.Join(v.CategoryLabels, ","))
			assert.Equal(t, "₹", v.Currency)
		})
	}
}

func TestCreateScan(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		srv := newTestServer()
		defer srv.Shutdown(context.Background())
		assert.Equal(t, http.StatusServiceUnavailable, do(t, srv, http.MethodPost, "/api/scans", "").Code)
	})

	t.Run("publishes", func(t *testing.T) {
		pub := &fakePublisher{}
		srv := newTestServer(WithPublisher(pub), WithMetrics(observability.NewMetrics()))
		defer srv.Shutdown(context.Background())

		rr := do(t, srv, http.MethodPost, "/api/scans", `{"filter":"month"}`)
		require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())
		var resp map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		require.Len(t, pub.msgs, 1)
		assert.Equal(t, "month", pub.msgs[0].Filter)
		assert.Equal(t, pub.msgs[0].RequestID, resp["requestId"])

		rr = do(t, srv, http.MethodPost, "/api/scans?filter=all", "")
		require.Equal(t, http.StatusAccepted, rr.Code)
		require.Len(t, pub.msgs, 2)
		assert.Equal(t, "all", pub.msgs[1].Filter, "query filter not honoured")

		assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/scans", `{"filter":"year"}`).Code)
		assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodPost, "/api/scans", `{"filter":`).Code)
	})

	t.Run("publish failure", func(t *testing.T) {
		srv := newTestServer(WithPublisher(&fakePublisher{err: errors.New("channel closed")}))
		defer srv.Shutdown(context.Background())
		assert.Equal(t, http.StatusServiceUnavailable, do(t, srv, http.MethodPost, "/api/scans", "").Code)
	})

	t.Run("rate limited", func(t *testing.T) {
		srv := newTestServer(WithPublisher(&fakePublisher{}))
		defer srv.Shutdown(context.Background())
		var last int
		for i := 0; i <= rateLimitRequests; i++ {
			last = do(t, srv, http.MethodPost, "/api/scans", "").Code
		}
		assert.Equal(t, http.StatusTooManyRequests, last, "expected 429 after %d requests", rateLimitRequests)
	})
}

func TestListScans(t *testing.T) {
	runs := &fakeRuns{runs: []storage.ScanRun{{
		ID: "run-1", RequestID: "req-1", Filter: "month", Today: core.NewDate(2024, 3, 5),
		Transactions: 3, Total: decimal.RequireFromString("1200.5"),
	}}}
	srv := newTestServer(WithScanRuns(runs))
	defer srv.Shutdown(context.Background())

	rr := do(t, srv, http.MethodGet, "/api/scans?limit=5", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var out []scanRunResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	assert.Equal(t, 5, runs.limit)
	require.Len(t, out, 1)
	assert.Equal(t, "1200.50", out[0].Total)
	assert.Equal(t, "2024-03-05", out[0].Today)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, http.MethodGet, "/api/scans?limit=0", "").Code)

	bare := newTestServer()
	defer bare.Shutdown(context.Background())
	assert.Equal(t, http.StatusServiceUnavailable, do(t, bare, http.MethodGet, "/api/scans", "").Code)
}

func TestReadinessAndMetrics(t *testing.T) {
	m := observability.NewMetrics()
	srv := newTestServer(WithReadiness(fakePinger{err: errors.New("db gone")}), WithMetrics(m))
	defer srv.Shutdown(context.Background())

	assert.Equal(t, http.StatusServiceUnavailable, do(t, srv, http.MethodGet, "/readyz", "").Code)

	rr := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "findash_http_rate_limited_total")
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct", "203.0.113.7:5555", "", "203.0.113.7"},
		{"untrusted proxy ignored", "203.0.113.7:5555", "198.51.100.1", "203.0.113.7"},
		{"trusted proxy", "10.0.0.2:80", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
		{"trusted proxy bad header", "10.0.0.2:80", "garbage", "10.0.0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			assert.Equal(t, tt.want, extractClientIP(r))
		})
	}
}
