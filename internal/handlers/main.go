package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"iter"
	"log/slog"
	"net/http"
	"time"

	portfolio "github.com/MegaGrindStone/portfolio-chat"
	"github.com/MegaGrindStone/portfolio-chat/internal/models"
	"github.com/MegaGrindStone/portfolio-chat/internal/profile"
	"github.com/yuin/goldmark"
)

// LLM represents a large language model interface that provides chat functionality. It accepts a context
// and a sequence of messages, returning an iterator that yields response chunks and potential errors.
type LLM interface {
	Chat(ctx context.Context, messages []models.ChatMessage) iter.Seq2[string, error]
}

// ReplyCache stores replies to previously asked questions.
type ReplyCache interface {
	Get(ctx context.Context, question string) (string, bool, error)
	Put(ctx context.Context, question, reply string) error
}

// Main serves the portfolio page, the chat API and the health endpoints.
type Main struct {
	templates *template.Template
	markdown  goldmark.Markdown

	profile     profile.Profile
	llm         LLM
	cache       ReplyCache
	environment string
	apiBaseURL  string

	now    func() time.Time
	logger *slog.Logger
}

// Option configures optional parts of Main.
type Option func(*Main)

// WithCache makes HandleChat answer repeated questions from c.
func WithCache(c ReplyCache) Option {
	return func(m *Main) { m.cache = c }
}

// WithEnvironment sets the environment name reported by /healthz.
func WithEnvironment(env string) Option {
	return func(m *Main) { m.environment = env }
}

// WithAPIBaseURL makes the rendered page override the chat widget's base URL.
func WithAPIBaseURL(u string) Option {
	return func(m *Main) { m.apiBaseURL = u }
}

// WithClock replaces time.Now for timestamps and the footer year.
func WithClock(now func() time.Time) Option {
	return func(m *Main) { m.now = now }
}

const errLoggerKey = "err"

// NewMain creates a new Main for the given profile. llm may be nil, in which case the chat API answers
// with an internal error until a provider is configured. The HTML templates are parsed from the embedded
// filesystem.
func NewMain(llm LLM, p profile.Profile, logger *slog.Logger, opts ...Option) (Main, error) {
	// We parse templates from three distinct directories to separate layout, pages, and partial views
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"json": toJS,
	}).ParseFS(
		portfolio.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, fmt.Errorf("failed to parse templates: %w", err)
	}

	m := Main{
		templates:   tmpl,
		markdown:    NewMarkdown(),
		profile:     p,
		llm:         llm,
		environment: "development",
		now:         time.Now,
		logger:      logger.With(slog.String("module", "handlers")),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m, nil
}

func toJS(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, models.APIError{Detail: detail})
}
