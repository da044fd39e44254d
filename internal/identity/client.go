// Package identity resolves owner ids to notification addresses via the
// identity provider's admin API.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Config struct {
	APIURL string // base URL of the admin users endpoint
	APIKey string
}

type Client struct {
	cfg Config
	hc  *http.Client
}

func New(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		hc:  &http.Client{Timeout: 10 * time.Second},
	}
}

type userRecord struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// EmailByOwner looks up the owner's email. A missing user or missing email
// is reported as (_, false, nil); absence is an expected outcome, not an
// error.
func (c *Client) EmailByOwner(ctx context.Context, ownerID string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s", c.cfg.APIURL, ownerID), nil)
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("identity lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", false, fmt.Errorf("identity API status %d: %s", resp.StatusCode, raw)
	}

	var u userRecord
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return "", false, fmt.Errorf("decode identity response: %w", err)
	}
	if u.Email == "" {
		return "", false, nil
	}
	return u.Email, true, nil
}
