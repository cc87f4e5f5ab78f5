package stories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/unveil/mediaquiz/internal/domain"
)

const defaultTimeout = 30 * time.Second

type ClientConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

// Client calls the story-fetch endpoint.
type Client struct {
	baseURL string
	hc      *http.Client
	limiter *rate.Limiter
}

func NewClient(c ClientConfig) *Client {
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

// Query selects stories. Empty Query and Category are sent as null.
type Query struct {
	Query    string
	Category string
	Count    int
}

type fetchRequest struct {
	Query    *string `json:"query"`
	Category *string `json:"category"`
	Count    int     `json:"count"`
}

// Fetch returns the stories matching q, in upstream order.
func (c *Client) Fetch(ctx context.Context, q Query) ([]domain.Story, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	body, err := json.Marshal(fetchRequest{
		Query:    nullable(q.Query),
		Category: nullable(q.Category),
		Count:    q.Count,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/stories", bytes.NewReader(body))
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

	var stories []domain.Story
	if err := json.NewDecoder(resp.Body).Decode(&stories); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return stories, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
