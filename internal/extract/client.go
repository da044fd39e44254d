// Package extract wraps the external structured-extraction API. The service
// receives a product page URL and returns best-effort structured fields; it
// is network-bound and nondeterministic, so calls are rate limited, bounded
// by a timeout and retried a fixed number of times on transport errors.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ErrNoData marks a response that came back without a usable name and price.
// It is terminal: retrying the same page will not grow the missing fields.
var ErrNoData = errors.New("no usable product data extracted")

// Result is the structured record the service derives from a listing page.
// ProductName and CurrentPrice are mandatory for a usable result.
type Result struct {
	ProductName  string  `json:"productName"`
	CurrentPrice float64 `json:"currentPrice"`
	Currency     string  `json:"currency,omitempty"`
	ImageURL     string  `json:"imageURL,omitempty"`
}

const extractPrompt = "Extract the product name as 'productName', current price as a number as 'currentPrice', currency (USD, EUR, etc) as 'currency', and product image URL as 'imageURL' if available"

type Config struct {
	APIURL  string
	APIKey  string
	RPS     float64 // client-side request budget toward the API
	Timeout time.Duration
	Retries int // additional attempts after the first
}

type Client struct {
	cfg     Config
	hc      *http.Client
	limiter *rate.Limiter
	log     *logrus.Logger
}

func New(cfg Config, log *logrus.Logger) *Client {
	if cfg.RPS <= 0 {
		cfg.RPS = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:     cfg,
		hc:      &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), 1),
		log:     log,
	}
}

// Extract fetches structured product data for url. Transport and server
// errors are retried with backoff; an unusable-but-well-formed response is
// returned immediately as ErrNoData.
func (c *Client) Extract(ctx context.Context, url string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			c.log.WithFields(logrus.Fields{"url": url, "attempt": attempt + 1}).Warn("extract: retrying")
		}

		res, err := c.do(ctx, url)
		if err == nil {
			return res, nil
		}
		if errors.Is(err, ErrNoData) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

type scrapeRequest struct {
	URL    string `json:"url"`
	Prompt string `json:"prompt"`
}

type scrapeResponse struct {
	Success bool    `json:"success"`
	Data    *Result `json:"data"`
	Error   string  `json:"error,omitempty"`
}

func (c *Client) do(ctx context.Context, url string) (*Result, error) {
	body, err := json.Marshal(scrapeRequest{URL: url, Prompt: extractPrompt})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extract request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("extract response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extract API status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var sr scrapeResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return nil, fmt.Errorf("decode extract response: %w", err)
	}
	if sr.Data == nil || sr.Data.ProductName == "" || sr.Data.CurrentPrice <= 0 {
		return nil, ErrNoData
	}
	return sr.Data, nil
}
