package insights

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/verte-zerg/healthdash/internal/health"
)

const (
	DefaultModel     = "claude-sonnet-4-5"
	DefaultMaxTokens = 1024
	recentDays       = 7
)

// ErrMissingAPIKey is returned by NewCommentator without an API key.
var ErrMissingAPIKey = errors.New("ANTHROPIC_API_KEY is not set")

// CommentatorConfig configures a Commentator.
type CommentatorConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
	// BaseURL overrides the API endpoint.
	BaseURL string
}

// Commentator asks Claude for a short coaching note on a parsed export.
type Commentator struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// NewCommentator builds a Commentator from cfg.
func NewCommentator(cfg CommentatorConfig) (*Commentator, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)
	return &Commentator{
		client:    &client,
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		timeout:   cfg.Timeout,
	}, nil
}

// Comment returns the model's note on result.
func (c *Commentator) Comment(ctx context.Context, result health.Result) (string, error) {
	prompt := BuildPrompt(result, Evaluate(result.Metrics))

	return c.complete(ctx, anthropic.NewTextBlock(prompt))
}

// complete sends one user message made of blocks and returns the joined text reply.
func (c *Commentator) complete(ctx context.Context, blocks ...anthropic.ContentBlockParamUnion) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.client.Messages.New(callCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", errors.New("anthropic response contained no text")
	}
	return out, nil
}

// BuildPrompt renders the latest metrics, the rule findings and the last week
// of history as plain text.
func BuildPrompt(result health.Result, report Report) string {
	var b strings.Builder
	b.WriteString("You are a friendly health coach. Using the Apple Health summary below, ")
	b.WriteString("write three to five short sentences of practical advice. ")
	b.WriteString("Do not diagnose. Mention when a value deserves a doctor's attention.\n\n")

	fmt.Fprintf(&b, "Latest day: %s\n", result.Latest.Date)
	keys := make([]string, 0, len(result.Metrics))
	for k := range result.Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %.1f\n", k, result.Metrics[k])
	}

	b.WriteString("\nRule findings:\n")
	for _, in := range report.Insights {
		fmt.Fprintf(&b, "- %s (%s): %s\n", in.Title, in.Tone, in.Description)
	}

	history := result.History
	if len(history) > recentDays {
		history = history[len(history)-recentDays:]
	}
	if len(history) > 0 {
		b.WriteString("\nRecent days (date, steps, avg heart rate, sleep minutes):\n")
		for _, day := range history {
			flat := health.Flatten(day)
			fmt.Fprintf(&b, "- %s, %.0f, %.0f, %.0f\n", day.Date,
				flat[string(health.StepCount)], flat[string(health.HeartRate)], flat[health.SleepKey])
		}
	}
	return b.String()
}
