package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"campusdigest/config"
)

const pushoverURL = "https://api.pushover.net/1/messages.json"

// PushoverClient delivers the digest push through Pushover.
type PushoverClient struct {
	appToken string
	userKey  string
	httpc    *http.Client
	logger   *zap.Logger
}

func NewPushoverClient(cfg config.PushConfig, logger *zap.Logger) (*PushoverClient, error) {
	if cfg.Provider != "" && cfg.Provider != "pushover" {
		return nil, fmt.Errorf("unsupported push provider %q", cfg.Provider)
	}
	return &PushoverClient{
		appToken: cfg.AppToken,
		userKey:  cfg.UserKey,
		httpc:    &http.Client{Timeout: 20 * time.Second},
		logger:   logger,
	}, nil
}

func (c *PushoverClient) Send(ctx context.Context, title, body string) error {
	if c.appToken == "" || c.userKey == "" {
		return fmt.Errorf("pushover credentials are missing")
	}

	form := url.Values{}
	form.Set("token", c.appToken)
	form.Set("user", c.userKey)
	form.Set("title", title)
	form.Set("message", body)
	form.Set("priority", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pushoverURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pushover: unexpected status %d", resp.StatusCode)
	}
	return nil
}
