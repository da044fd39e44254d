// Package notify delivers price-drop alert emails through an external
// transactional mail API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kmalyshev/pricetrack/internal/currency"
)

// PriceDrop is the event rendered into an alert email.
type PriceDrop struct {
	ProductName string
	ProductURL  string
	ImageURL    string
	Currency    string
	OldPrice    float64
	NewPrice    float64
}

type Config struct {
	APIURL string
	APIKey string
	From   string
}

type Mailer struct {
	cfg Config
	hc  *http.Client
	log *logrus.Logger
}

func NewMailer(cfg Config, log *logrus.Logger) *Mailer {
	return &Mailer{
		cfg: cfg,
		hc:  &http.Client{Timeout: 15 * time.Second},
		log: log,
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// SendPriceDrop renders and dispatches one alert.
func (m *Mailer) SendPriceDrop(ctx context.Context, to string, d PriceDrop) error {
	if m.cfg.From == "" {
		return fmt.Errorf("notify: sender address not configured")
	}

	html, err := renderPriceDrop(d)
	if err != nil {
		return fmt.Errorf("render alert email: %w", err)
	}

	subject := fmt.Sprintf("Price Drop: %s is now %s!",
		d.ProductName, currency.Format(d.NewPrice, d.Currency))

	body, err := json.Marshal(sendRequest{
		From:    m.cfg.From,
		To:      to,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)

	resp, err := m.hc.Do(req)
	if err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mail API status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	m.log.WithFields(logrus.Fields{"to": to, "product": d.ProductName}).Info("notify: alert sent")
	return nil
}
