// Package transport carries a conversation to the chat endpoint and turns the streamed reply back into
// ordered message-part deltas.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/grambudget/grambudget/internal/models"
)

// Delta is an incremental update to the assistant message being streamed. Part holds everything received
// so far for the part at Index, and Seq counts the updates of that part starting at 1, so applying the
// delta with the highest Seq always yields the latest content.
type Delta struct {
	MessageID string
	Index     int
	Seq       int
	Part      models.Part
}

// ErrorSignal reports a failed exchange. Message is the raw text received from the server: the response
// body for a non-success status or the error text of an error event. Status is the HTTP status of a
// rejected request and zero otherwise.
type ErrorSignal struct {
	Message string
	Status  int
}

func (e *ErrorSignal) Error() string {
	return e.Message
}

// HTTP sends conversations to a chat endpoint over HTTP.
type HTTP struct {
	endpoint string
	chatID   string

	client *http.Client

	logger *slog.Logger
}

type chatRequest struct {
	ID       string           `json:"id,omitempty"`
	Messages []models.Message `json:"messages"`
}

// New creates an HTTP transport posting to endpoint. Every request carries the same freshly generated chat
// id. A nil client selects http.DefaultClient.
func New(endpoint string, client *http.Client, logger *slog.Logger) HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return HTTP{
		endpoint: endpoint,
		chatID:   uuid.New().String(),
		client:   client,
		logger:   logger.With(slog.String("module", "transport")),
	}
}

// Send posts the conversation and returns the reply as a lazy sequence of deltas. The request is made
// when the sequence is first iterated and the sequence cannot be restarted. Every failure is yielded as
// a single *ErrorSignal that ends the sequence. Cancelling ctx ends the sequence without an error.
func (t HTTP) Send(ctx context.Context, messages []models.Message) iter.Seq2[Delta, error] {
	return func(yield func(Delta, error) bool) {
		body, err := json.Marshal(chatRequest{ID: t.chatID, Messages: messages})
		if err != nil {
			yield(Delta{}, signal(fmt.Errorf("error marshaling request: %w", err)))
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
		if err != nil {
			yield(Delta{}, signal(fmt.Errorf("error creating request: %w", err)))
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")

		resp, err := t.client.Do(req)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return
			}
			yield(Delta{}, signal(err))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			raw, err := io.ReadAll(resp.Body)
			if err != nil && errors.Is(ctx.Err(), context.Canceled) {
				return
			}
			msg := string(raw)
			if strings.TrimSpace(msg) == "" {
				msg = resp.Status
			}
			t.logger.Debug("Chat request failed", slog.Int("status", resp.StatusCode), slog.String("body", msg))
			yield(Delta{}, &ErrorSignal{Message: msg, Status: resp.StatusCode})
			return
		}

		for d, err := range Decode(resp.Body) {
			if err != nil {
				if errors.Is(ctx.Err(), context.Canceled) {
					return
				}
				yield(Delta{}, signal(err))
				return
			}
			if !yield(d, nil) {
				return
			}
		}
	}
}

func signal(err error) *ErrorSignal {
	var sig *ErrorSignal
	if errors.As(err, &sig) {
		return sig
	}
	return &ErrorSignal{Message: err.Error()}
}
