// Package client holds the thin I/O wrappers around upstream collaborators:
// the Canvas API, the published ICS feed, Microsoft Graph, the LLM endpoint
// and the push provider. No decision logic lives here.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"campusdigest/config"
	"campusdigest/internal/deadline"
	"campusdigest/internal/model"
)

// CanvasClient pulls the user's todo list from the Canvas REST API.
type CanvasClient struct {
	baseURL string
	token   string
	httpc   *http.Client
	logger  *zap.Logger
}

func NewCanvasClient(cfg config.CanvasConfig, logger *zap.Logger) *CanvasClient {
	return &CanvasClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpc:   &http.Client{Timeout: 20 * time.Second},
		logger:  logger,
	}
}

func (c *CanvasClient) Name() string { return "canvas" }

// canvasTodoRow mirrors the fields we read from /api/v1/users/self/todo.
type canvasTodoRow struct {
	Type        string `json:"type"`
	ContextName string `json:"context_name"`
	Course      string `json:"course"`
	CreatedAt   string `json:"created_at"`
	HTMLURL     string `json:"html_url"`
	Assignment  struct {
		Name      string `json:"name"`
		DueAt     string `json:"due_at"`
		CreatedAt string `json:"created_at"`
		HTMLURL   string `json:"html_url"`
	} `json:"assignment"`
}

// FetchTasks returns the todo items. An unconfigured client yields an empty
// list rather than an error.
func (c *CanvasClient) FetchTasks(ctx context.Context) ([]model.Task, error) {
	if c.baseURL == "" || c.token == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/users/self/todo", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("canvas todo: unexpected status %d", resp.StatusCode)
	}

	var rows []canvasTodoRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("canvas todo: decode: %w", err)
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		title := row.Assignment.Name
		if title == "" {
			title = row.Type
		}
		if title == "" {
			title = "Untitled task"
		}
		url := row.Assignment.HTMLURL
		if url == "" {
			url = row.HTMLURL
		}
		course := strings.TrimSpace(row.ContextName)
		if course == "" {
			course = strings.TrimSpace(row.Course)
		}
		published := row.Assignment.CreatedAt
		if published == "" {
			published = row.CreatedAt
		}
		tasks = append(tasks, model.Task{
			Source:      "canvas",
			Title:       title,
			DueAt:       parseISOInstant(row.Assignment.DueAt),
			PublishedAt: parseISOInstant(published),
			Course:      course,
			URL:         url,
			Priority:    2,
		})
	}
	return tasks, nil
}

// CanvasFeedClient pulls the published ICS deadline feed.
type CanvasFeedClient struct {
	feedURL string
	loc     *time.Location
	httpc   *http.Client
	logger  *zap.Logger
}

func NewCanvasFeedClient(feedURL string, loc *time.Location, logger *zap.Logger) *CanvasFeedClient {
	return &CanvasFeedClient{
		feedURL: strings.TrimSpace(feedURL),
		loc:     loc,
		httpc:   &http.Client{Timeout: 20 * time.Second},
		logger:  logger,
	}
}

func (c *CanvasFeedClient) Name() string { return "canvas_feed" }

func (c *CanvasFeedClient) FetchTasks(ctx context.Context) ([]model.Task, error) {
	if c.feedURL == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ics feed: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	return deadline.ParseICS(string(body), c.loc), nil
}

// parseISOInstant parses an RFC3339-ish timestamp, tolerating the trailing Z
// the Canvas API emits. Unparseable input reads as absent.
func parseISOInstant(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &t
}
