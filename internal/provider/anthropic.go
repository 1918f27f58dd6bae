package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when Config.Model is empty.
const DefaultAnthropicModel = anthropic.ModelClaude3_7SonnetLatest

// anthropicFallbackMaxTokens applies when the caller passes no ceiling;
// the Messages API requires one.
const anthropicFallbackMaxTokens = 10000

// Anthropic completes through the Messages API. System entries are sent in the
// top-level system field; the rest become user/assistant turns.
type Anthropic struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropic builds a client. Without Config.APIKey the SDK reads ANTHROPIC_API_KEY.
func NewAnthropic(cfg Config) *Anthropic {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &Anthropic{client: anthropic.NewClient(opts...), model: model}
}

func (a *Anthropic) Complete(ctx context.Context, messages []Message, maxTokens int64) (string, error) {
	if maxTokens <= 0 {
		maxTokens = anthropicFallbackMaxTokens
	}

	var system []anthropic.TextBlockParam
	conv := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case RoleAssistant:
			conv = append(conv, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			conv = append(conv, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: maxTokens,
		Messages:  conv,
		System:    system,
	}
	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	// Join visible text blocks; other block kinds are ignored.
	var parts []string
	for _, b := range msg.Content {
		if tb, ok := b.AsAny().(anthropic.TextBlock); ok && tb.Text != "" {
			parts = append(parts, tb.Text)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("anthropic: response contained no text")
	}
	return strings.Join(parts, "\n"), nil
}
