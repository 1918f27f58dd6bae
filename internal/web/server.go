// Package web serves the chat page and routes user actions to the
// orchestrator and the stores.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"

	"github.com/petasbytes/go-chat/memory"
)

//go:embed templates/index.html
var templateFS embed.FS

// DefaultTitle is shown in the page header.
const DefaultTitle = "Chat"

// Chatter runs one conversation turn.
type Chatter interface {
	Chat(ctx context.Context, message string, history memory.History, contextEnabled bool) (memory.History, string)
}

// SettingsSaver persists the context persistence toggle.
type SettingsSaver interface {
	Save(enabled bool) error
}

// ContextClearer deletes the persisted conversation.
type ContextClearer interface {
	Clear() error
	Path() string
}

type Server struct {
	session  *Session
	chatter  Chatter
	settings SettingsSaver
	contexts ContextClearer

	title string
	log   zerolog.Logger
	page  *template.Template
	md    goldmark.Markdown
}

type Option func(*Server)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

func WithTitle(title string) Option {
	return func(s *Server) {
		s.title = title
	}
}

func New(session *Session, chatter Chatter, settings SettingsSaver, contexts ContextClearer, options ...Option) *Server {
	s := &Server{
		session:  session,
		chatter:  chatter,
		settings: settings,
		contexts: contexts,
		title:    DefaultTitle,
		log:      zerolog.Nop(),
		page:     template.Must(template.ParseFS(templateFS, "templates/index.html")),
		md:       newMarkdown(),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/", s.handleIndex)
	r.Post("/chat", s.handleChat)
	r.Post("/clear", s.handleClear)
	r.Post("/context", s.handleContext)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

type messageView struct {
	User      string
	Assistant template.HTML
	Failed    bool
}

type pageView struct {
	Title          string
	ContextEnabled bool
	Status         string
	Messages       []messageView
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view := s.session.View()
	data := pageView{
		Title:          s.title,
		ContextEnabled: view.ContextEnabled,
		Status:         view.Status,
		Messages:       make([]messageView, 0, len(view.History)),
	}
	for _, ex := range view.History {
		data.Messages = append(data.Messages, messageView{
			User:      ex.User,
			Assistant: renderMarkdown(s.md, ex.Assistant),
			Failed:    ex.Failed,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		s.log.Error().Err(err).Msg("rendering page")
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	message := r.PostForm.Get("message")

	// A turn runs to completion even if the browser goes away mid-request.
	ctx := context.WithoutCancel(r.Context())

	s.session.mu.Lock()
	s.session.history, _ = s.chatter.Chat(ctx, message, s.session.history, s.session.contextEnabled)
	s.session.mu.Unlock()

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.session.mu.Lock()
	if s.session.contextEnabled {
		s.clearContext()
	}
	s.session.history = memory.History{}
	s.session.mu.Unlock()

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	enabled := parseToggle(r.PostForm.Get("enabled"))

	s.session.mu.Lock()
	if err := s.settings.Save(enabled); err != nil {
		s.log.Error().Err(err).Msg("saving settings")
	}
	if s.session.contextEnabled && !enabled {
		s.clearContext()
		s.session.history = memory.History{}
	}
	s.session.contextEnabled = enabled
	s.session.status = StatusText(enabled)
	s.session.mu.Unlock()

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// clearContext removes the persisted conversation; failures are logged only.
func (s *Server) clearContext() {
	if err := s.contexts.Clear(); err != nil {
		s.log.Error().Err(err).Str("path", s.contexts.Path()).Msg("clearing context file")
	}
}

// StatusText is the confirmation shown after the toggle changes.
func StatusText(enabled bool) string {
	if enabled {
		return "Context persistence enabled"
	}
	return "Context persistence disabled"
}

// parseToggle accepts checkbox ("on") and boolean spellings; anything else is off.
func parseToggle(v string) bool {
	if strings.EqualFold(v, "on") {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
