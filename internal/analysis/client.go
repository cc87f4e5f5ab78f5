package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/unveil/mediaquiz/internal/domain"
	"github.com/unveil/mediaquiz/internal/errors"
)

const (
	defaultTimeout = 30 * time.Second

	failedMessage = "Analysis failed"
)

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	// Limiter throttles outbound calls. It is usually shared with the other upstream clients.
	Limiter *rate.Limiter
}

// Client calls the bias analysis endpoint.
type Client struct {
	baseURL string
	hc      *http.Client
	limiter *rate.Limiter
}

func NewClient(c Config) *Client {
	cl := &Client{
		baseURL: strings.TrimRight(c.BaseURL, "/"),
		hc:      c.HTTPClient,
		limiter: c.Limiter,
	}

	if cl.hc == nil {
		cl.hc = &http.Client{Timeout: defaultTimeout}
	}
	if cl.limiter == nil {
		cl.limiter = rate.NewLimiter(rate.Inf, 0)
	}

	return cl
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// Analyze returns the bias analysis of text. Every upstream failure is reported
// as a single internal error so callers can show one generic message.
func (c *Client) Analyze(ctx context.Context, text string) (*domain.Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.InvalidArgument("text must not be empty")
	}

	a, err := c.analyze(ctx, text)
	if err != nil {
		slog.ErrorContext(ctx, "analysis: analyze failed", "error", err)
		analyzeTotal.WithLabelValues(resultError).Inc()
		return nil, errors.New(errors.CodeInternal,
			errors.WithMessagef(failedMessage),
			errors.WithCause(err),
		)
	}

	analyzeTotal.WithLabelValues(resultOK).Inc()
	return a, nil
}

func (c *Client) analyze(ctx context.Context, text string) (*domain.Analysis, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	body, err := json.Marshal(analyzeRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var a domain.Analysis
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &a, nil
}
