package walletapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"walletconsole/internal/models"
)

// Client is the typed boundary to the wallet-assistant backend. It performs
// no retries, no caching and no business validation; callers own all of
// that. One instance is shared process-wide and is safe for concurrent use
// because it holds no mutable state.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    httpClient,
	}
}

// Evaluate submits a proposed trade for risk evaluation.
func (c *Client) Evaluate(ctx context.Context, req models.EvaluationRequest) (models.Verdict, error) {
	// Status is a pointer so "absent" and "empty" are both caught before
	// anything downstream can compare against "approved".
	var raw struct {
		Status          *string          `json:"status"`
		CapNotes        []string         `json:"cap_notes"`
		Violations      []string         `json:"violations"`
		CappedAmountUSD *decimal.Decimal `json:"capped_amount_usd"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/approvals/evaluate", req, &raw); err != nil {
		return models.Verdict{}, err
	}
	if raw.Status == nil || strings.TrimSpace(*raw.Status) == "" {
		return models.Verdict{}, ErrMissingStatus
	}
	v := models.Verdict{
		Status:     *raw.Status,
		CapNotes:   raw.CapNotes,
		Violations: raw.Violations,
	}
	if raw.CappedAmountUSD != nil {
		v.CappedAmountUSD = *raw.CappedAmountUSD
	}
	return v, nil
}

// CreateDecision records a disposition for a suggestion.
func (c *Client) CreateDecision(ctx context.Context, req models.DecisionRequest) (models.Decision, error) {
	var dec models.Decision
	if err := c.do(ctx, http.MethodPost, "/v1/decisions", req, &dec); err != nil {
		return models.Decision{}, err
	}
	return dec, nil
}

func (c *Client) ListSuggestions(ctx context.Context, limit int) ([]models.Suggestion, error) {
	var items []models.Suggestion
	if err := c.do(ctx, http.MethodGet, listPath("/v1/suggestions", limit), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) ListDecisions(ctx context.Context, limit int) ([]models.Decision, error) {
	var items []models.Decision
	if err := c.do(ctx, http.MethodGet, listPath("/v1/decisions", limit), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) ListBalances(ctx context.Context) ([]models.Balance, error) {
	var items []models.Balance
	if err := c.do(ctx, http.MethodGet, "/v1/balances", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	if err := c.do(ctx, http.MethodGet, "/v1/health", nil, &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func listPath(path string, limit int) string {
	if limit <= 0 {
		return path
	}
	q := url.Values{}
	q.Set("limit", fmt.Sprintf("%d", limit))
	return path + "?" + q.Encode()
}
