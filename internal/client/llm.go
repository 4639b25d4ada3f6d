package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"campusdigest/config"
	"campusdigest/internal/model"
)

var (
	codeFenceRe  = regexp.MustCompile("(?im)^```(?:json)?\\s*|\\s*```$")
	jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// LLMClient talks to an OpenAI-compatible chat completion endpoint. It
// implements both the triage classifier and the task extractor contracts;
// every failure mode surfaces as an error for the caller's fallback logic.
type LLMClient struct {
	baseURL string
	apiKey  string
	model   string
	httpc   *http.Client
	logger  *zap.Logger
}

func NewLLMClient(cfg config.LLMConfig, logger *zap.Logger) *LLMClient {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &LLMClient{
		baseURL: base,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// IsConfigured reports whether the endpoint can be called at all.
func (c *LLMClient) IsConfigured() bool {
	return c.apiKey != "" && c.model != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *chatRespFmt  `json:"response_format,omitempty"`
	Messages       []chatMessage `json:"messages"`
}

type chatRespFmt struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete posts one chat request and returns the raw assistant content.
func (c *LLMClient) complete(ctx context.Context, system, user string) (string, error) {
	if !c.IsConfigured() {
		return "", fmt.Errorf("llm endpoint not configured")
	}

	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Temperature:    0,
		ResponseFormat: &chatRespFmt{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completions: unexpected status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("chat completions: decode: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completions: empty choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// extractJSONObject tolerates code fences and prose around the JSON payload.
func extractJSONObject(text string) string {
	text = codeFenceRe.ReplaceAllString(strings.TrimSpace(text), "")
	if m := jsonObjectRe.FindString(text); m != "" {
		return m
	}
	return text
}

const classifySystemPrompt = "You are an email triage assistant. Classify the mail into exactly one category: " +
	"immediate_action, week_todo, info_reference. " +
	"Use immediate_action for urgent/deadline-soon tasks, week_todo for actionable work this week, " +
	"and info_reference for read-only informational updates. " +
	`Return strict JSON: {"category":"immediate_action|week_todo|info_reference"}.`

// ClassifyMail asks for one bucket label for one mail. The answer is returned
// verbatim; vocabulary checking is the caller's concern.
func (c *LLMClient) ClassifyMail(ctx context.Context, mail model.Mail, dueAt *time.Time, now time.Time) (string, error) {
	dueText := "none"
	if dueAt != nil {
		dueText = dueAt.Format(time.RFC3339)
	}
	userPayload, err := json.Marshal(map[string]string{
		"now":         now.Format(time.RFC3339),
		"subject":     mail.Subject,
		"sender":      mail.Sender,
		"preview":     clip(mail.Preview, 280),
		"body_text":   clip(mail.BodyText, 1200),
		"received_at": mail.ReceivedAt.Format(time.RFC3339),
		"due_at":      dueText,
	})
	if err != nil {
		return "", err
	}

	content, err := c.complete(ctx, classifySystemPrompt, string(userPayload))
	if err != nil {
		return "", err
	}

	var answer struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &answer); err != nil {
		return "", fmt.Errorf("classify: malformed answer: %w", err)
	}
	return strings.TrimSpace(answer.Category), nil
}

const extractSystemPrompt = "You extract actionable school tasks from emails. " +
	"Return JSON only. Focus on concrete tasks with due dates."

// ExtractTasks pulls task candidates out of one mail body.
func (c *LLMClient) ExtractTasks(ctx context.Context, mail model.Mail, tzName string) ([]model.Task, error) {
	user := "Extract tasks from this email. Return strictly this JSON schema:\n" +
		`{"tasks":[{"title":"string","due_at_iso":"YYYY-MM-DDTHH:MM:SS±HH:MM or null","reason":"string"}]}` + "\n" +
		"Rules:\n" +
		"1) Keep only actionable tasks (assignments, quizzes, exams, participation).\n" +
		"2) Use the provided timezone when interpreting relative times.\n" +
		"3) If uncertain about due date, set due_at_iso to null.\n" +
		"4) Keep title concise and specific.\n\n" +
		fmt.Sprintf("Timezone: %s\nSubject: %s\nSender: %s\nPreview: %s\nBody:\n%s",
			tzName, mail.Subject, mail.Sender, mail.Preview, clip(mail.BodyText, 5000))

	content, err := c.complete(ctx, extractSystemPrompt, user)
	if err != nil {
		return nil, err
	}

	var answer struct {
		Tasks []struct {
			Title    string `json:"title"`
			DueAtISO string `json:"due_at_iso"`
			Reason   string `json:"reason"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(content)), &answer); err != nil {
		return nil, fmt.Errorf("extract: malformed answer: %w", err)
	}

	var tasks []model.Task
	for _, row := range answer.Tasks {
		title := strings.TrimSpace(row.Title)
		if title == "" {
			continue
		}
		tasks = append(tasks, model.Task{
			Source:   "llm_mail_extract",
			Title:    title,
			DueAt:    parseISOInstant(row.DueAtISO),
			Details:  strings.TrimSpace(row.Reason),
			URL:      mail.URL,
			Priority: 2,
		})
	}
	return tasks, nil
}

// clip bounds a prompt field, cutting on a rune boundary.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
