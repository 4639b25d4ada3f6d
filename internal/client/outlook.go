package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"

	"campusdigest/config"
	"campusdigest/internal/model"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

// OutlookClient reads recent inbox messages through Microsoft Graph with a
// client-credentials token. Fetches are memoized for a short TTL so a manual
// run right after the scheduled one does not hit Graph twice.
type OutlookClient struct {
	userEmail string
	httpc     *http.Client
	cacheTTL  time.Duration
	logger    *zap.Logger

	mu        sync.Mutex
	cached    []model.Mail
	fetchedAt time.Time
}

func NewOutlookClient(cfg config.OutlookConfig, logger *zap.Logger) *OutlookClient {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", cfg.TenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}
	ttl := time.Duration(cfg.CacheTTLSec) * time.Second

	base := context.Background()
	return &OutlookClient{
		userEmail: cfg.UserEmail,
		httpc:     cc.Client(base),
		cacheTTL:  ttl,
		logger:    logger,
	}
}

type graphMessage struct {
	Subject string `json:"subject"`
	From    struct {
		EmailAddress struct {
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"from"`
	BodyPreview string `json:"bodyPreview"`
	Body        struct {
		ContentType string `json:"contentType"`
		Content     string `json:"content"`
	} `json:"body"`
	ReceivedDateTime string `json:"receivedDateTime"`
	Importance       string `json:"importance"`
	WebLink          string `json:"webLink"`
}

type graphMessageList struct {
	Value []graphMessage `json:"value"`
}

// FetchRecentMail returns up to limit messages, newest first.
func (c *OutlookClient) FetchRecentMail(ctx context.Context, limit int) ([]model.Mail, error) {
	if c.userEmail == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	c.mu.Lock()
	if c.cacheTTL > 0 && c.cached != nil && time.Since(c.fetchedAt) < c.cacheTTL {
		mails := c.cached
		c.mu.Unlock()
		return mails, nil
	}
	c.mu.Unlock()

	q := url.Values{}
	q.Set("$top", fmt.Sprintf("%d", limit))
	q.Set("$filter", fmt.Sprintf("receivedDateTime le %s", time.Now().UTC().Format(time.RFC3339)))
	q.Set("$orderby", "receivedDateTime desc")
	q.Set("$select", "subject,from,bodyPreview,body,receivedDateTime,importance,webLink")

	endpoint := fmt.Sprintf("%s/users/%s/messages?%s", graphBaseURL, url.PathEscape(c.userEmail), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", `outlook.body-content-type="text"`)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graph messages: unexpected status %d", resp.StatusCode)
	}

	var list graphMessageList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("graph messages: decode: %w", err)
	}

	mails := make([]model.Mail, 0, len(list.Value))
	for _, row := range list.Value {
		subject := row.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		sender := row.From.EmailAddress.Address
		if sender == "" {
			sender = "unknown"
		}
		received := time.Now().UTC()
		if t, err := time.Parse(time.RFC3339, row.ReceivedDateTime); err == nil {
			received = t
		}
		preview := clip(row.BodyPreview, 240)
		body := row.Body.Content
		if strings.EqualFold(row.Body.ContentType, "html") {
			body = stripHTML(body)
		}
		mails = append(mails, model.Mail{
			Source:      "outlook",
			Subject:     subject,
			Sender:      sender,
			ReceivedAt:  received,
			Preview:     preview,
			BodyText:    body,
			IsImportant: strings.EqualFold(row.Importance, "high"),
			URL:         row.WebLink,
		})
	}

	c.mu.Lock()
	c.cached = mails
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	return mails, nil
}

// stripHTML reduces an HTML body to line-broken text good enough for the
// keyword and due-marker scans.
func stripHTML(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			if inTag {
				inTag = false
				b.WriteByte('\n')
			}
		case !inTag:
			b.WriteRune(r)
		}
	}
	out := b.String()
	out = strings.ReplaceAll(out, "&nbsp;", " ")
	out = strings.ReplaceAll(out, "&amp;", "&")
	out = strings.ReplaceAll(out, "&lt;", "<")
	out = strings.ReplaceAll(out, "&gt;", ">")
	out = strings.ReplaceAll(out, "&#39;", "'")
	out = strings.ReplaceAll(out, "&quot;", `"`)

	var lines []string
	for _, ln := range strings.Split(out, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	return strings.Join(lines, "\n")
}
