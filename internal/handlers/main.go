package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"log/slog"
	"net/http"
	"time"

	"github.com/grambudget/grambudget/internal/models"
)

// LLM represents a large language model interface that provides chat functionality. It accepts a context
// and a sequence of messages, returning an iterator that yields response chunks and potential errors.
// Implementations prepend their own fixed system instruction and end the iterator silently when ctx is
// cancelled.
type LLM interface {
	Chat(ctx context.Context, messages []models.Message) iter.Seq2[string, error]
}

// NewsSource provides the articles of the dashboard news feed.
type NewsSource interface {
	Articles(ctx context.Context) ([]models.NewsArticle, error)
}

// Config tunes the HTTP handlers. Zero values select the defaults.
type Config struct {
	// ChatTimeout is the hard ceiling on the handling of a single chat request, streaming included.
	ChatTimeout time.Duration
	// MaxBodyBytes limits the size of a chat request body.
	MaxBodyBytes int64
}

// Main handles the HTTP surface of the assistant: the streaming chat endpoint and the news feed.
type Main struct {
	llm  LLM
	news NewsSource
	cfg  Config

	logger *slog.Logger
}

const (
	// DefaultChatTimeout is the wall-clock ceiling applied when Config.ChatTimeout is zero.
	DefaultChatTimeout = 30 * time.Second
	// DefaultMaxBodyBytes is the body limit applied when Config.MaxBodyBytes is zero.
	DefaultMaxBodyBytes = 1 << 20

	errLoggerKey = "err"
)

// NewMain creates a new Main instance with the provided LLM and NewsSource implementations. The LLM is
// required; a nil NewsSource disables the news endpoint.
func NewMain(llm LLM, news NewsSource, cfg Config, logger *slog.Logger) (Main, error) {
	if llm == nil {
		return Main{}, errors.New("llm is required")
	}
	if cfg.ChatTimeout <= 0 {
		cfg.ChatTimeout = DefaultChatTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = slog.Default()
	}

	return Main{
		llm:    llm,
		news:   news,
		cfg:    cfg,
		logger: logger.With(slog.String("module", "handlers")),
	}, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func (m Main) writeError(w http.ResponseWriter, status int, msg string) {
	if err := writeJSON(w, status, errorResponse{Error: msg}); err != nil {
		m.logger.Debug("Failed to write error response", slog.String(errLoggerKey, err.Error()))
	}
}
