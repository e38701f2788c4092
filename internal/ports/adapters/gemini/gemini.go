package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/forPelevin/clipforge/internal/ports"
)

// Client implements the summarization and refinement oracles on Google
// Gemini.
type Client struct {
	genaiClient *genai.Client
	model       string
}

func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{genaiClient: client, model: model}, nil
}

func (c *Client) Summarize(ctx context.Context, text string, maxWords int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("gemini: empty summarization input")
	}
	prompt := fmt.Sprintf(
		"Summarize the following transcript in at most %d words. "+
			"Prefer reusing original phrases over paraphrasing. "+
			"Return only the summary text.\n\nTranscript:\n%s",
		maxWords, text,
	)

	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate: %w", err)
	}
	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", errors.New("gemini: empty response")
	}
	return out, nil
}

func (c *Client) Refine(ctx context.Context, text string, targetSeconds int) (ports.RefinedScript, error) {
	prompt := fmt.Sprintf(
		"You are an expert video editor creating a concise, engaging short-form video script.\n\n"+
			"Original content: %q\n\n"+
			"Create a script for a %d-second video that captures the most important information, "+
			"flows naturally, removes redundancies, and keeps the speaker's original voice. "+
			"Respond with JSON: a title field and a segments array of objects with a script_text field.",
		text, targetSeconds,
	)

	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.model, genai.Text(prompt), cfg)
	if err != nil {
		return ports.RefinedScript{}, fmt.Errorf("gemini: generate: %w", err)
	}

	var out ports.RefinedScript
	if err := json.Unmarshal([]byte(resp.Text()), &out); err != nil {
		return ports.RefinedScript{}, fmt.Errorf("gemini: parse refinement: %w", err)
	}
	return out, nil
}
