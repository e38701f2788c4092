package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/forPelevin/clipforge/internal/ports"
)

// Adapter talks to an OpenRouter-compatible chat completions endpoint and
// implements both oracle ports. Errors are returned as-is; the domain layers
// own the fallback policy.
type Adapter struct {
	key     string
	model   string
	baseURL string
	client  *http.Client
}

const requestTimeout = 90 * time.Second

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = "anthropic/claude-3.5-sonnet"
	}
	baseURL = normalizeBaseURL(baseURL)
	return &Adapter{key: apiKey, model: model, baseURL: baseURL, client: &http.Client{Timeout: 5 * time.Minute}}
}

func (a *Adapter) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("openrouter: empty summarization input")
	}
	prompt := fmt.Sprintf(
		"Summarize the following transcript in at most %d words. "+
			"Keep the speaker's wording where possible; the summary is used to score "+
			"which transcript sentences matter, so prefer reusing original phrases over paraphrasing. "+
			"Return only the summary text, no preamble.\n\nTranscript:\n%s",
		maxWords, text,
	)

	content, err := a.chat(ctx, prompt, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func (a *Adapter) Refine(ctx context.Context, text string, targetSeconds int) (ports.RefinedScript, error) {
	prompt := fmt.Sprintf(
		"You are an expert video editor creating a concise, engaging short-form video script.\n\n"+
			"Original content: %q\n\n"+
			"Create a script for a %d-second video that captures the most important information, "+
			"flows naturally, removes redundancies, and keeps the speaker's original voice. "+
			"Return strictly valid JSON (no markdown, no code fences) with a title field and a "+
			"segments array of objects carrying a script_text field.",
		text, targetSeconds,
	)

	schema := map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name": "clipforge_refine",
			"schema": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{"type": "string"},
					"segments": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"script_text": map[string]any{"type": "string"},
							},
							"required": []string{"script_text"},
						},
					},
				},
				"required": []string{"title", "segments"},
			},
		},
	}

	content, err := a.chat(ctx, prompt, schema)
	if err != nil {
		return ports.RefinedScript{}, err
	}

	clean, err := extractJSONObject(content)
	if err != nil {
		return ports.RefinedScript{}, err
	}

	var out ports.RefinedScript
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return ports.RefinedScript{}, fmt.Errorf("openrouter: parse refinement: %w", err)
	}
	return out, nil
}

func (a *Adapter) chat(ctx context.Context, prompt string, responseFormat map[string]any) (string, error) {
	payload := map[string]any{
		"model":  a.model,
		"stream": false,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	if responseFormat != nil {
		payload["response_format"] = responseFormat
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	url := a.baseURL + "/api/v1/chat/completions"

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("openrouter timeout after %s (model=%s)", requestTimeout, a.model)
		}
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return "", fmt.Errorf("openrouter status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return "", fmt.Errorf("openrouter status %d: %s", resp.StatusCode, truncate(redactSecrets(string(rb), a.key), 400))
	}

	var raw struct {
		Choices []struct {
			Message struct {
				Content any `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", err
	}
	if len(raw.Choices) == 0 {
		return "", errors.New("openrouter: no choices in response")
	}
	return messageContentToString(raw.Choices[0].Message.Content)
}

func messageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("openrouter: empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("openrouter: unexpected content type %T", v)
	}
}

func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("openrouter: empty content")
	}

	// Strip markdown code fences.
	if strings.HasPrefix(t, "```") {
		// Remove opening fence line.
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		// Remove trailing fence.
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}

	// Best-effort: take the first JSON object found.
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start >= 0 && end > start {
		return t[start : end+1], nil
	}

	return "", fmt.Errorf("openrouter: could not locate JSON object in: %q", truncate(t, 200))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var (
	bearerTokenRE = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9._-]+\b`)
	authHeaderRE  = regexp.MustCompile(`(?i)(authorization\s*[:=]\s*)([^\n\r,;]+)`)
	apiKeyFieldRE = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([^\n\r,;]+)`)
)

func redactSecrets(s, apiKey string) string {
	if s == "" {
		return s
	}
	out := s
	if apiKey != "" {
		out = strings.ReplaceAll(out, apiKey, "[REDACTED]")
	}
	out = bearerTokenRE.ReplaceAllString(out, "Bearer [REDACTED]")
	out = authHeaderRE.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
	return out
}
