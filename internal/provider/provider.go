// Package provider is the boundary to hosted completion APIs. Callers build a
// role-tagged message list and get back a single non-streamed text reply.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Role tags a message for the completion API.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry of a completion request.
type Message struct {
	Role    Role
	Content string
}

// Completer returns the assistant reply for messages, capped at maxTokens
// completion tokens. Failures carry a human-readable description.
type Completer interface {
	Complete(ctx context.Context, messages []Message, maxTokens int64) (string, error)
}

const (
	NameOpenAI    = "openai"
	NameAnthropic = "anthropic"
)

// Config selects and configures a Completer.
type Config struct {
	Name    string
	Model   string
	APIKey  string
	BaseURL string

	// HTTPClient overrides the SDK transport; tests use it to intercept requests.
	HTTPClient *http.Client
}

// New returns the Completer named by cfg.Name. An empty name selects OpenAI.
func New(cfg Config) (Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case "", NameOpenAI:
		return NewOpenAI(cfg), nil
	case NameAnthropic:
		return NewAnthropic(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want %s or %s)", cfg.Name, NameOpenAI, NameAnthropic)
	}
}
