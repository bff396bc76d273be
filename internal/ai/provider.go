// internal/ai/provider.go
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yuvrajgitacc/study-verse/internal/battle"
)

// Client talks to the platform's AI completion endpoint for problem
// generation and judging. It implements battle.Provider.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
	Logger  *logrus.Logger
}

func NewClient(baseURL, apiKey, model string, logger *logrus.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		HTTP:    &http.Client{Timeout: 90 * time.Second},
		Logger:  logger,
	}
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// GenerateProblem asks the model for a fresh challenge at the given
// difficulty, solvable in the given language.
func (c *Client) GenerateProblem(ctx context.Context, difficulty, language string) (*battle.Problem, error) {
	prompt := fmt.Sprintf(
		"Generate a %s-difficulty competitive programming problem solvable in %s. "+
			"Respond with only a JSON object with keys: title, description, input_format, "+
			"output_format, example_input, example_output.",
		difficulty, language)

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var problem battle.Problem
	if err := json.Unmarshal(extractJSON(raw), &problem); err != nil {
		return nil, fmt.Errorf("parse generated problem: %w", err)
	}
	if problem.Title == "" || problem.Description == "" {
		return nil, fmt.Errorf("generated problem missing required fields")
	}
	return &problem, nil
}

// Judge submits both solutions and the problem statement for a verdict. The
// returned winner is either a player's display name exactly as given, or
// "Draw".
func (c *Client) Judge(ctx context.Context, problem *battle.Problem, entries []battle.JudgeEntry) (*battle.Verdict, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are judging a two-player coding battle.\nProblem: %s\n%s\n\n",
		problem.Title, problem.Description)
	for _, e := range entries {
		fmt.Fprintf(&sb, "Submission by %q (took %d seconds):\n%s\n\n", e.PlayerName, e.TimeTakenSeconds, e.Code)
	}
	sb.WriteString(`Decide the winner on correctness first, then code quality, then speed. ` +
		`Respond with only a JSON object: {"winner": "<exact player name or Draw>", ` +
		`"reason": "<one or two sentences>", "scores": {"<player name>": <0-100>, ...}}`)

	raw, err := c.complete(ctx, sb.String())
	if err != nil {
		return nil, err
	}
	var verdict battle.Verdict
	if err := json.Unmarshal(extractJSON(raw), &verdict); err != nil {
		return nil, fmt.Errorf("parse verdict: %w", err)
	}
	if verdict.Winner == "" {
		return nil, fmt.Errorf("verdict missing winner")
	}
	if verdict.Scores == nil {
		verdict.Scores = map[string]float64{}
	}
	return &verdict, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:    c.Model,
		Messages: []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read ai response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai endpoint returned %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var cr completionResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return "", fmt.Errorf("decode ai response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("ai response has no choices")
	}
	return cr.Choices[0].Message.Content, nil
}

// extractJSON pulls the first top-level JSON object out of a completion,
// tolerating code fences and surrounding prose.
func extractJSON(s string) []byte {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return []byte(s)
	}
	return []byte(s[start : end+1])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
