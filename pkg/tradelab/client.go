// Package tradelab provides a Go client for the tradelab-server API.
package tradelab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client talks to a running tradelab-server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL, for example
// "http://127.0.0.1:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// BacktestRequest describes one strategy backtest.
type BacktestRequest struct {
	Symbol   string `json:"symbol"`
	Strategy string `json:"strategy"`
	Period   string `json:"period,omitempty"`
}

// Trade is one executed order in a backtest.
type Trade struct {
	Date   string  `json:"date"`
	Type   string  `json:"type"`
	Price  float64 `json:"price"`
	Shares int64   `json:"shares"`
	Reason string  `json:"reason"`
}

// BacktestResult is the server's response to a backtest request.
type BacktestResult struct {
	RunID          int64     `json:"run_id"`
	Symbol         string    `json:"symbol"`
	Strategy       string    `json:"strategy"`
	InitialCapital float64   `json:"initial_capital"`
	FinalValue     float64   `json:"final_value"`
	TotalReturnPct float64   `json:"total_return_pct"`
	Dates          []string  `json:"dates"`
	Values         []float64 `json:"values"`
	Trades         []Trade   `json:"trades"`
}

// Verdict is one theory's outcome.
type Verdict struct {
	Theory         string             `json:"theory"`
	Metrics        map[string]float64 `json:"metrics"`
	Interpretation string             `json:"interpretation"`
	MakesSense     bool               `json:"makes_sense"`
}

// TheoriesResult is the server's response to a theory evaluation.
type TheoriesResult struct {
	Symbol          string    `json:"symbol"`
	Verdicts        []Verdict `json:"verdicts"`
	MakesSenseCount int       `json:"makes_sense_count"`
	TotalTheories   int       `json:"total_theories"`
}

// Run is a stored backtest record.
type Run struct {
	ID             int64     `json:"id"`
	Symbol         string    `json:"symbol"`
	Strategy       string    `json:"strategy"`
	StartedAt      time.Time `json:"started_at"`
	InitialCapital float64   `json:"initial_capital"`
	FinalValue     float64   `json:"final_value"`
	TotalReturnPct float64   `json:"total_return_pct"`
	Trades         []Trade   `json:"trades,omitempty"`
}

// TheoryOptions carries optional fundamentals for theory evaluation. Zero
// values are omitted from the request.
type TheoryOptions struct {
	Period      string
	ForwardPE   float64
	PriceToBook float64
}

// Backtest runs a strategy backtest on the server.
func (c *Client) Backtest(ctx context.Context, req BacktestRequest) (*BacktestResult, error) {
	var out BacktestResult
	if err := c.post(ctx, "/api/backtest", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Theories evaluates all market theories against the symbol's history.
func (c *Client) Theories(ctx context.Context, symbol string, opts TheoryOptions) (*TheoriesResult, error) {
	q := url.Values{}
	if opts.Period != "" {
		q.Set("period", opts.Period)
	}
	if opts.ForwardPE != 0 {
		q.Set("forward_pe", strconv.FormatFloat(opts.ForwardPE, 'f', -1, 64))
	}
	if opts.PriceToBook != 0 {
		q.Set("price_to_book", strconv.FormatFloat(opts.PriceToBook, 'f', -1, 64))
	}

	path := "/api/theories/" + url.PathEscape(symbol)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out TheoriesResult
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListRuns returns the most recent stored runs, newest first.
func (c *Client) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	path := "/api/runs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []Run
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRun returns one stored run with its trade log.
func (c *Client) GetRun(ctx context.Context, id int64) (*Run, error) {
	var out Run
	if err := c.get(ctx, fmt.Sprintf("/api/runs/%d", id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (HTTP %d)", req.Method, req.URL.Path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: HTTP %d", req.Method, req.URL.Path, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
