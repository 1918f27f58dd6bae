package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/petasbytes/go-chat/internal/provider"
	"github.com/petasbytes/go-chat/internal/telemetry"
	"github.com/petasbytes/go-chat/internal/windowing"
	"github.com/petasbytes/go-chat/memory"
)

// SettingsSaver persists the context persistence toggle.
type SettingsSaver interface {
	Save(enabled bool) error
}

// HistorySaver persists conversation history.
type HistorySaver interface {
	Save(h memory.History) error
}

type Orchestrator struct {
	completer provider.Completer
	settings  SettingsSaver
	contexts  HistorySaver

	systemPrompt string
	maxTokens    int64
	tokenBudget  int
	log          zerolog.Logger
}

type Option func(*Orchestrator)

func WithSystemPrompt(prompt string) Option {
	return func(o *Orchestrator) {
		o.systemPrompt = prompt
	}
}

func WithMaxCompletionTokens(n int64) Option {
	return func(o *Orchestrator) {
		o.maxTokens = n
	}
}

// WithTokenBudget caps the estimated input size sent per turn; 0 sends everything.
func WithTokenBudget(budget int) Option {
	return func(o *Orchestrator) {
		o.tokenBudget = budget
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.log = log
	}
}

func New(completer provider.Completer, settings SettingsSaver, contexts HistorySaver, options ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		completer:    completer,
		settings:     settings,
		contexts:     contexts,
		systemPrompt: DefaultSystemPrompt,
		maxTokens:    DefaultMaxCompletionTokens,
		log:          zerolog.Nop(),
	}

	for _, option := range options {
		option(o)
	}

	if o.completer == nil {
		return nil, errors.New("missing completer provider")
	}
	if o.settings == nil || o.contexts == nil {
		return nil, errors.New("missing settings or context store")
	}

	return o, nil
}

// Chat runs one turn and returns the updated history and the cleared input.
// The returned history shares its backing array with history when capacity
// allows, matching append semantics.
func (o *Orchestrator) Chat(ctx context.Context, message string, history memory.History, contextEnabled bool) (memory.History, string) {
	if strings.TrimSpace(message) == "" {
		return history, ""
	}

	turnID, ok := telemetry.TurnIDFromContext(ctx)
	if !ok {
		turnID = telemetry.NewTurnID()
		ctx = telemetry.WithTurnID(ctx, turnID)
	}
	log := o.log.With().Str("turn_id", turnID).Logger()

	if err := o.settings.Save(contextEnabled); err != nil {
		log.Error().Err(err).Msg("saving settings")
	}

	msgs := o.BuildMessages(message, history)
	window, stats := windowing.PrepareSendWindow(msgs, o.tokenBudget, windowing.HeuristicCounter{})
	telemetry.Emit("window_prepared", map[string]any{
		"turn_id":            turnID,
		"budget":             stats.Budget,
		"total_estimated":    stats.Total,
		"included_groups":    stats.IncludedGroups,
		"skipped_groups":     stats.SkippedGroups,
		"over_budget_newest": stats.OverBudgetNewest,
	})
	log.Debug().
		Int("messages", len(window)).
		Int("estimated_tokens", stats.Total).
		Int("skipped_groups", stats.SkippedGroups).
		Msg("sending completion request")

	start := time.Now()
	reply, err := o.completer.Complete(ctx, window, o.maxTokens)
	elapsed := time.Since(start)

	if err != nil {
		history = append(history, memory.Exchange{User: message, Assistant: ErrorPrefix + err.Error(), Failed: true})
		log.Warn().Err(err).Dur("elapsed", elapsed).Msg("completion failed")
		telemetry.Emit("turn_failed", map[string]any{
			"turn_id":     turnID,
			"duration_ms": elapsed.Milliseconds(),
			"history_len": len(history),
		})
		return history, ""
	}

	history = append(history, memory.Exchange{User: message, Assistant: reply})
	if contextEnabled {
		if err := o.contexts.Save(history); err != nil {
			log.Error().Err(err).Msg("saving context")
		}
	}

	log.Info().Dur("elapsed", elapsed).Int("history_len", len(history)).Msg("turn completed")
	telemetry.EmitLocalFeatures(ctx, message, reply, len(history))
	telemetry.Emit("turn_completed", map[string]any{
		"turn_id":     turnID,
		"duration_ms": elapsed.Milliseconds(),
		"history_len": len(history),
		"persisted":   contextEnabled,
	})
	return history, ""
}

// BuildMessages returns the full request for message: the system prompt, each
// prior exchange as a user then assistant entry, and message last.
func (o *Orchestrator) BuildMessages(message string, history memory.History) []provider.Message {
	msgs := make([]provider.Message, 0, 2*len(history)+2)
	msgs = append(msgs, provider.Message{Role: provider.RoleSystem, Content: o.systemPrompt})
	for _, ex := range history {
		msgs = append(msgs,
			provider.Message{Role: provider.RoleUser, Content: ex.User},
			provider.Message{Role: provider.RoleAssistant, Content: ex.Assistant},
		)
	}
	return append(msgs, provider.Message{Role: provider.RoleUser, Content: message})
}
