package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tradelab/internal/domain"
	"tradelab/internal/store"
)

// stubSource returns a synthetic daily series regardless of the range.
type stubSource struct {
	bars []domain.Bar
	err  error
}

func (s *stubSource) DailyBars(_ context.Context, _ string, _, _ time.Time) ([]domain.Bar, error) {
	return s.bars, s.err
}

// memRunStore is an in-memory RunStore.
type memRunStore struct {
	runs   []store.Run
	nextID int64
}

func (m *memRunStore) SaveRun(_ context.Context, run *store.Run) error {
	m.nextID++
	run.ID = m.nextID
	m.runs = append(m.runs, *run)
	return nil
}

func (m *memRunStore) GetRun(_ context.Context, id int64) (*store.Run, error) {
	for i := range m.runs {
		if m.runs[i].ID == id {
			run := m.runs[i]
			return &run, nil
		}
	}
	return nil, fmt.Errorf("run %d: %w", id, domain.ErrNoData)
}

func (m *memRunStore) ListRuns(_ context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 || limit > len(m.runs) {
		limit = len(m.runs)
	}
	out := make([]store.Run, 0, limit)
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		run := m.runs[i]
		run.Trades = nil
		out = append(out, run)
	}
	return out, nil
}

// dippingBars produces a series with an obvious 10% dip after a run-up so a
// "buy the dip" strategy fires.
func dippingBars(n int) []domain.Bar {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, n)
	for i := range bars {
		price := 100.0 + float64(i)*0.5
		if i > 30 && i <= 40 {
			price = 80.0
		}
		bars[i] = domain.Bar{Symbol: "AAPL", Timestamp: start.AddDate(0, 0, i), Close: price}
	}
	return bars
}

func newTestServer(src *stubSource, runs store.RunStore) *Server {
	s := NewServer(src, runs, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return s
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var decoded map[string]any
	if strings.HasPrefix(strings.TrimSpace(rr.Body.String()), "{") {
		if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
	return rr, decoded
}

func TestBacktestEndpoint(t *testing.T) {
	runs := &memRunStore{}
	srv := newTestServer(&stubSource{bars: dippingBars(120)}, runs)
	h := srv.Handler()

	rr, body := doJSON(t, h, http.MethodPost, "/api/backtest",
		`{"symbol": "aapl", "strategy": "buy when it dips 5%, sell when it rises 10%", "period": "1y"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	if body["symbol"] != "AAPL" {
		t.Errorf("symbol = %v, want AAPL (uppercased)", body["symbol"])
	}
	if body["initial_capital"] != 10000.0 {
		t.Errorf("initial_capital = %v, want default 10000", body["initial_capital"])
	}
	trades, _ := body["trades"].([]any)
	if len(trades) == 0 {
		t.Error("expected at least one trade for a dipping series")
	}
	if body["run_id"] == nil {
		t.Error("expected run_id to be set when a run store is configured")
	}
	if len(runs.runs) != 1 {
		t.Fatalf("stored runs = %d, want 1", len(runs.runs))
	}
}

func TestBacktestValidation(t *testing.T) {
	srv := newTestServer(&stubSource{bars: dippingBars(50)}, nil)
	h := srv.Handler()

	cases := []struct {
		name string
		body string
	}{
		{"missing symbol", `{"strategy": "buy on dips of 5%"}`},
		{"missing strategy", `{"symbol": "AAPL"}`},
		{"bad period", `{"symbol": "AAPL", "strategy": "buy dips 5%", "period": "99y"}`},
		{"not json", `buy low sell high`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr, _ := doJSON(t, h, http.MethodPost, "/api/backtest", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestBacktestNoDataIs404(t *testing.T) {
	src := &stubSource{err: fmt.Errorf("symbol NOPE: %w", domain.ErrNoData)}
	srv := newTestServer(src, nil)
	h := srv.Handler()

	rr, _ := doJSON(t, h, http.MethodPost, "/api/backtest",
		`{"symbol": "NOPE", "strategy": "buy dips of 5%"}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestTheoriesEndpoint(t *testing.T) {
	srv := newTestServer(&stubSource{bars: dippingBars(500)}, nil)
	h := srv.Handler()

	rr, body := doJSON(t, h, http.MethodGet, "/api/theories/aapl?forward_pe=12", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if body["symbol"] != "AAPL" {
		t.Errorf("symbol = %v, want AAPL", body["symbol"])
	}

	verdicts, _ := body["verdicts"].([]any)
	if len(verdicts) != 5 {
		t.Errorf("verdicts = %d, want all 5 with fundamentals supplied", len(verdicts))
	}
	if body["total_theories"] != float64(len(verdicts)) {
		t.Errorf("total_theories = %v, want %d", body["total_theories"], len(verdicts))
	}
}

func TestTheoriesWithoutFundamentalsSkipsValue(t *testing.T) {
	srv := newTestServer(&stubSource{bars: dippingBars(500)}, nil)
	h := srv.Handler()

	rr, body := doJSON(t, h, http.MethodGet, "/api/theories/AAPL", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	verdicts, _ := body["verdicts"].([]any)
	for _, v := range verdicts {
		m := v.(map[string]any)
		if m["theory"] == "Value Investing" {
			t.Error("Value verdict present without a forward P/E")
		}
	}
}

func TestRunsEndpoints(t *testing.T) {
	runs := &memRunStore{}
	srv := newTestServer(&stubSource{bars: dippingBars(120)}, runs)
	h := srv.Handler()

	for i := 0; i < 3; i++ {
		rr, _ := doJSON(t, h, http.MethodPost, "/api/backtest",
			`{"symbol": "AAPL", "strategy": "buy when it dips 5%, sell when it rises 10%"}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("backtest %d: status %d", i, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	var list []RunJSON
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("listed %d runs, want 3", len(list))
	}
	if list[0].ID != 3 {
		t.Errorf("first listed run ID = %d, want newest (3)", list[0].ID)
	}
	if list[0].Trades != nil {
		t.Error("list entries should omit trade logs")
	}

	rr2, body := doJSON(t, h, http.MethodGet, "/api/runs/1", "")
	if rr2.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr2.Code)
	}
	if body["id"] != 1.0 {
		t.Errorf("run id = %v, want 1", body["id"])
	}

	rr3, _ := doJSON(t, h, http.MethodGet, "/api/runs/999", "")
	if rr3.Code != http.StatusNotFound {
		t.Errorf("missing run status = %d, want 404", rr3.Code)
	}

	rr4, _ := doJSON(t, h, http.MethodGet, "/api/runs/abc", "")
	if rr4.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rr4.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(&stubSource{bars: dippingBars(50)}, nil)
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/backtest", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("expected Access-Control-Allow-Origin on preflight")
	}
}
