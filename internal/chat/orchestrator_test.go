package chat_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/go-chat/internal/chat"
	"github.com/petasbytes/go-chat/internal/provider"
	"github.com/petasbytes/go-chat/internal/telemetry"
	"github.com/petasbytes/go-chat/memory"
)

// stubCompleter records each request and answers with reply or err.
type stubCompleter struct {
	reply string
	err   error

	calls     int
	messages  []provider.Message
	maxTokens int64
	turnID    string
}

func (s *stubCompleter) Complete(ctx context.Context, messages []provider.Message, maxTokens int64) (string, error) {
	s.calls++
	s.messages = append([]provider.Message(nil), messages...)
	s.maxTokens = maxTokens
	s.turnID, _ = telemetry.TurnIDFromContext(ctx)
	return s.reply, s.err
}

type fixture struct {
	dir      string
	settings *memory.SettingsStore
	contexts *memory.ContextStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	settings := memory.NewSettingsStore(filepath.Join(dir, memory.DefaultSettingsFile))
	contexts := memory.NewContextStore(filepath.Join(dir, memory.DefaultContextFile), settings, 0)
	return fixture{dir: dir, settings: settings, contexts: contexts}
}

func (f fixture) orchestrator(t *testing.T, c provider.Completer, opts ...chat.Option) *chat.Orchestrator {
	t.Helper()
	o, err := chat.New(c, f.settings, f.contexts, opts...)
	require.NoError(t, err)
	return o
}

func TestChat_EmptyMessage_NoOp(t *testing.T) {
	f := newFixture(t)
	stub := &stubCompleter{reply: "unused"}
	o := f.orchestrator(t, stub)

	in := memory.History{{User: "a", Assistant: "b"}}
	for _, msg := range []string{"", "   ", "\n\t"} {
		out, cleared := o.Chat(context.Background(), msg, in, true)
		assert.Equal(t, in, out)
		assert.Equal(t, "", cleared)
	}

	assert.Zero(t, stub.calls)
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no files should be written")
}

func TestChat_Success_PersistsHistory(t *testing.T) {
	f := newFixture(t)
	stub := &stubCompleter{reply: "Paris"}
	o := f.orchestrator(t, stub)

	out, cleared := o.Chat(context.Background(), "Capital of France?", memory.History{}, true)
	assert.Equal(t, "", cleared)
	want := memory.History{{User: "Capital of France?", Assistant: "Paris"}}
	assert.Equal(t, want, out)

	loaded, err := f.contexts.Load()
	require.NoError(t, err)
	assert.Equal(t, want, loaded)

	enabled, err := f.settings.Load()
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestChat_Failure_AppendsErrorAndSkipsPersistence(t *testing.T) {
	f := newFixture(t)
	stub := &stubCompleter{err: errors.New("timeout")}
	o := f.orchestrator(t, stub)

	out, cleared := o.Chat(context.Background(), "hi", memory.History{}, true)
	assert.Equal(t, "", cleared)
	assert.Equal(t, memory.History{{User: "hi", Assistant: "Error: timeout", Failed: true}}, out)

	_, err := os.Stat(f.contexts.Path())
	assert.True(t, os.IsNotExist(err), "context file must not be written on failure")

	// Settings are still saved on a failed turn.
	_, err = os.Stat(f.settings.Path())
	assert.NoError(t, err)
}

func TestChat_Failure_KeepsPreviouslyPersistedHistory(t *testing.T) {
	f := newFixture(t)
	prior := memory.History{{User: "q1", Assistant: "a1"}}
	require.NoError(t, f.contexts.Save(prior))

	o := f.orchestrator(t, &stubCompleter{err: errors.New("boom")})
	out, _ := o.Chat(context.Background(), "q2", prior, true)
	require.Len(t, out, 2)
	assert.Equal(t, "Error: boom", out[1].Assistant)

	loaded, err := f.contexts.Load()
	require.NoError(t, err)
	assert.Equal(t, prior, loaded)
}

func TestChat_LaterSuccess_SkipsFailedExchange(t *testing.T) {
	f := newFixture(t)
	stub := &stubCompleter{err: errors.New("timeout")}
	o := f.orchestrator(t, stub)

	h, _ := o.Chat(context.Background(), "first", nil, true)
	stub.err, stub.reply = nil, "second answer"
	h, _ = o.Chat(context.Background(), "second", h, true)

	require.Len(t, h, 2)
	assert.True(t, h[0].Failed)

	// The failed exchange is still sent as context on the next turn.
	assert.Equal(t, "Error: timeout", stub.messages[2].Content)

	loaded, err := f.contexts.Load()
	require.NoError(t, err)
	assert.Equal(t, memory.History{{User: "second", Assistant: "second answer"}}, loaded)
}

func TestChat_ContextDisabled_SavesSettingsOnly(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator(t, &stubCompleter{reply: "ok"})

	out, _ := o.Chat(context.Background(), "hello", nil, false)
	assert.Equal(t, memory.History{{User: "hello", Assistant: "ok"}}, out)

	enabled, err := f.settings.Load()
	require.NoError(t, err)
	assert.False(t, enabled)

	_, err = os.Stat(f.contexts.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestChat_SavesSettingsEveryTurn(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator(t, &stubCompleter{reply: "ok"})

	h, _ := o.Chat(context.Background(), "one", nil, false)
	enabled, err := f.settings.Load()
	require.NoError(t, err)
	assert.False(t, enabled)

	h, _ = o.Chat(context.Background(), "two", h, true)
	enabled, err = f.settings.Load()
	require.NoError(t, err)
	assert.True(t, enabled)

	// Persisted history is the full in-memory history at the time of the save.
	loaded, err := f.contexts.Load()
	require.NoError(t, err)
	assert.Equal(t, h, loaded)
	assert.Len(t, loaded, 2)
}

func TestChat_RequestShape(t *testing.T) {
	f := newFixture(t)
	stub := &stubCompleter{reply: "fine"}
	o := f.orchestrator(t, stub, chat.WithSystemPrompt("be brief"))

	history := memory.History{{User: "u1", Assistant: "a1"}, {User: "u2", Assistant: "a2"}}
	o.Chat(context.Background(), "u3", history, false)

	want := []provider.Message{
		{Role: provider.RoleSystem, Content: "be brief"},
		{Role: provider.RoleUser, Content: "u1"},
		{Role: provider.RoleAssistant, Content: "a1"},
		{Role: provider.RoleUser, Content: "u2"},
		{Role: provider.RoleAssistant, Content: "a2"},
		{Role: provider.RoleUser, Content: "u3"},
	}
	assert.Equal(t, want, stub.messages)
	assert.Equal(t, int64(chat.DefaultMaxCompletionTokens), stub.maxTokens)
	assert.NotEmpty(t, stub.turnID, "a turn ID should be attached to the request context")
}

func TestChat_DefaultSystemPrompt(t *testing.T) {
	f := newFixture(t)
	o := f.orchestrator(t, &stubCompleter{})

	msgs := o.BuildMessages("hi", nil)
	require.Len(t, msgs, 2)
	assert.Equal(t, provider.Message{Role: provider.RoleSystem, Content: chat.DefaultSystemPrompt}, msgs[0])
	assert.Equal(t, provider.Message{Role: provider.RoleUser, Content: "hi"}, msgs[1])
}

func TestChat_TokenBudget_DropsOldestPairs(t *testing.T) {
	f := newFixture(t)
	stub := &stubCompleter{reply: "ok"}
	// Each message costs runes + 4; "sys" = 7, each pair = 12, final "q" = 5.
	o := f.orchestrator(t, stub, chat.WithSystemPrompt("sys"), chat.WithTokenBudget(24))

	history := memory.History{{User: "old1", Assistant: ""}, {User: "new1", Assistant: ""}}
	o.Chat(context.Background(), "q", history, false)

	want := []provider.Message{
		{Role: provider.RoleSystem, Content: "sys"},
		{Role: provider.RoleUser, Content: "new1"},
		{Role: provider.RoleAssistant, Content: ""},
		{Role: provider.RoleUser, Content: "q"},
	}
	assert.Equal(t, want, stub.messages)
}

func TestChat_PreservesCallerTurnID(t *testing.T) {
	f := newFixture(t)
	stub := &stubCompleter{reply: "ok"}
	o := f.orchestrator(t, stub)

	ctx := telemetry.WithTurnID(context.Background(), "turn-fixed")
	o.Chat(ctx, "hi", nil, false)
	assert.Equal(t, "turn-fixed", stub.turnID)
}

func TestChat_EmitsTelemetry(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	telemetry.Configure(telemetry.Options{Observe: true, Dir: dir})
	t.Cleanup(func() { telemetry.Configure(telemetry.Options{}) })

	o := f.orchestrator(t, &stubCompleter{reply: "ok"})
	o.Chat(context.Background(), "hi", nil, false)

	o = f.orchestrator(t, &stubCompleter{err: errors.New("down")})
	o.Chat(context.Background(), "again", nil, false)

	data, err := os.ReadFile(filepath.Join(dir, "events.jsonl"))
	require.NoError(t, err)
	body := string(data)
	for _, ev := range []string{`"window_prepared"`, `"local_features"`, `"turn_completed"`, `"turn_failed"`} {
		assert.Contains(t, body, ev)
	}
	assert.NotContains(t, body, `"hi"`, "raw message text must not be recorded")
}

func TestNew_RequiresCollaborators(t *testing.T) {
	f := newFixture(t)

	_, err := chat.New(nil, f.settings, f.contexts)
	assert.Error(t, err)

	_, err = chat.New(&stubCompleter{}, nil, f.contexts)
	assert.Error(t, err)
}
