// Package pushover sends push notifications through the Pushover API.
package pushover

import (
	"context"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/ndewijer/stock-tracker/internal/config"
)

const messagesPath = "/1/messages.json"

// Client posts messages on behalf of one Pushover application.
type Client struct {
	client   *resty.Client
	appToken string
}

// New creates a client. Sends are never retried.
func New(cfg config.PushoverConfig) *Client {
	return &Client{
		client: resty.New().
			SetBaseURL(cfg.URL).
			SetTimeout(cfg.Timeout),
		appToken: cfg.AppToken,
	}
}

// Send delivers message to the Pushover user identified by userKey.
// It reports whether Pushover accepted the message; failures are logged and
// swallowed. An empty userKey sends nothing.
func (c *Client) Send(ctx context.Context, userKey, message string) bool {
	if userKey == "" {
		return false
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"token":   c.appToken,
			"user":    userKey,
			"message": message,
		}).
		Post(messagesPath)
	if err != nil {
		slog.Warn("pushover send failed", slog.String("err", err.Error()))
		return false
	}
	if resp.IsError() {
		slog.Warn("pushover rejected message", slog.Int("status", resp.StatusCode()))
		return false
	}

	return true
}
