package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/petasbytes/go-chat/internal/chat"
	"github.com/petasbytes/go-chat/internal/config"
	"github.com/petasbytes/go-chat/internal/logging"
	"github.com/petasbytes/go-chat/internal/provider"
	"github.com/petasbytes/go-chat/internal/safety"
	"github.com/petasbytes/go-chat/internal/telemetry"
	"github.com/petasbytes/go-chat/internal/web"
	"github.com/petasbytes/go-chat/memory"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("chat", pflag.ContinueOnError)
	config.AddFlags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Writer: os.Stderr})
	if err != nil {
		return err
	}

	telemetry.Configure(telemetry.Options{Observe: cfg.Telemetry.Observe, Dir: cfg.Telemetry.Dir})

	if masked := cfg.MaskedAPIKey(); masked == "" {
		log.Warn().Str("provider", cfg.Provider.Name).Msg("no API key found; completion requests will fail")
	} else {
		log.Info().Str("provider", cfg.Provider.Name).Str("api_key", masked).Msg("API key loaded")
	}

	completer, err := provider.New(cfg.ProviderSettings())
	if err != nil {
		return err
	}

	settings, contexts, err := openStores(cfg)
	if err != nil {
		return err
	}

	orch, err := chat.New(completer, settings, contexts,
		chat.WithSystemPrompt(cfg.SystemPrompt),
		chat.WithMaxCompletionTokens(cfg.Provider.MaxCompletionTokens),
		chat.WithTokenBudget(cfg.TokenBudget),
		chat.WithLogger(log),
	)
	if err != nil {
		return err
	}

	session := newSession(log, settings, contexts)
	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           web.New(session, orch, settings, contexts, web.WithLogger(log), web.WithTitle(cfg.Title)).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown on Ctrl-C (SIGINT) / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", "http://"+cfg.Address).Msg("serving chat UI")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	stop()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStores(cfg *config.Config) (*memory.SettingsStore, *memory.ContextStore, error) {
	root, err := safety.InitDataRoot(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	settingsPath, err := safety.ResolveStatePath(root, cfg.SettingsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("settings file: %w", err)
	}
	contextPath, err := safety.ResolveStatePath(root, cfg.ContextFile)
	if err != nil {
		return nil, nil, fmt.Errorf("context file: %w", err)
	}

	settings := memory.NewSettingsStore(settingsPath)
	return settings, memory.NewContextStore(contextPath, settings, cfg.MaxContextLength), nil
}

// newSession seeds the UI from disk. Read failures fall back to defaults.
func newSession(log zerolog.Logger, settings *memory.SettingsStore, contexts *memory.ContextStore) *web.Session {
	enabled, err := settings.Load()
	if err != nil {
		log.Error().Err(err).Str("path", settings.Path()).Msg("loading settings")
	}
	history, err := contexts.Load()
	if err != nil {
		log.Error().Err(err).Str("path", contexts.Path()).Msg("loading context")
	}
	log.Info().
		Bool("context_enabled", enabled).
		Int("exchanges", len(history)).
		Int("window", contexts.MaxExchanges()).
		Msg("session restored")
	return web.NewSession(history, enabled)
}
