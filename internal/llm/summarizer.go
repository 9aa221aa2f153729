// Package llm generates an optional triage note for a finished run.
// It runs strictly after scoring and never affects scores, ordering or
// report contents; failures degrade to a warning at the call site.
package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/fanshield/doxwatch/internal/model"
)

// Config holds summarizer configuration.
type Config struct {
	Provider  string // "" disables, "openai" enables
	Model     string
	APIKey    string
	BaseURL   string // Custom endpoint, mainly for tests
	Timeout   int    // seconds
	MaxTokens int
}

// ConfigFromModel converts the run configuration section.
func ConfigFromModel(mc model.LLMConfig) Config {
	return Config{
		Provider:  mc.Provider,
		Model:     mc.Model,
		APIKey:    mc.APIKey,
		BaseURL:   mc.BaseURL,
		Timeout:   mc.Timeout,
		MaxTokens: mc.MaxTokens,
	}
}

// Summarizer asks an OpenAI model for a short triage note over the top
// findings of a run.
type Summarizer struct {
	client *openai.Client
	config Config
}

// NewSummarizer creates a summarizer, or (nil, nil) when no provider is
// configured.
func NewSummarizer(cfg Config) (*Summarizer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "":
		return nil, nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		clientConfig := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
		return &Summarizer{
			client: openai.NewClientWithConfig(clientConfig),
			config: cfg,
		}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai)", cfg.Provider)
	}
}

// Summarize generates the triage note.
func (s *Summarizer) Summarize(ctx context.Context, outcome *model.RunOutcome) (string, error) {
	modelName := s.config.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	maxTokens := s.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 500
	}
	timeout := time.Duration(s.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You help a safety team triage flagged videos. Never repeat addresses, coordinates or other location details verbatim.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(outcome),
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// BuildPrompt renders the top findings for triage. Titles are included
// (they are public search results); the note must not amplify any location
// detail beyond what the severity labels already convey.
func BuildPrompt(outcome *model.RunOutcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A scan flagged %d videos for possible location/identity exposure of a private individual.\n", len(outcome.Candidates))
	if outcome.QuotaBlocked {
		b.WriteString("The scan was cut short by API quota, so coverage is partial.\n")
	}
	b.WriteString("\nTop findings (score, severity, matched signal categories, title):\n")

	for i, c := range outcome.Candidates {
		if i >= 10 {
			fmt.Fprintf(&b, "... and %d more\n", len(outcome.Candidates)-10)
			break
		}
		var signals []string
		for name, count := range c.Patterns {
			if count > 0 {
				signals = append(signals, name)
			}
		}
		sort.Strings(signals)
		fmt.Fprintf(&b, "- %.3f %s [%s] %s\n", c.CompositeScore, c.Severity, strings.Join(signals, ","), c.Title)
	}

	b.WriteString("\nWrite a 3-4 sentence triage note: which findings to review first and why, based only on the scores and signal categories above. Do not quote location details.")
	return b.String()
}
