package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/grambudget/grambudget/internal/models"
	"github.com/tmaxmax/go-sse"
)

type chatRequest struct {
	ID       string           `json:"id,omitempty"`
	Messages []models.Message `json:"messages"`
}

// textPartID is the id of the single text part every streamed reply consists of.
const textPartID = "0"

// HandleChat answers a conversation through Server-Sent Events. The request body is a JSON object with
// the full message history in "messages"; the reply is streamed as a UI message stream (start,
// text-start, text-delta..., text-end, finish, [DONE]).
//
// Bad methods and bodies are rejected before the provider is contacted. Nothing is written until the
// provider yields its first chunk, so a provider failure at that point still gets a proper status: 402
// for billing or verification problems and 500 for everything else. Later failures, including the
// request hitting the configured ceiling, are reported as an error event that ends the stream. When the
// caller goes away the request context is cancelled and with it the provider call.
func (m Main) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		m.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// The ceiling covers reading the body as well as the provider round trip.
	ctx, cancel := context.WithTimeout(r.Context(), m.cfg.ChatTimeout)
	defer cancel()

	req, err := decodeChatRequest(ctx, http.MaxBytesReader(w, r.Body, m.cfg.MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case r.Context().Err() != nil:
			return
		case ctx.Err() != nil:
			m.logger.Error("Chat request timed out while reading the body")
			m.writeError(w, http.StatusInternalServerError, m.timeoutMessage())
		case errors.As(err, &maxErr):
			m.logger.Error("Chat request body too large", slog.Int64("limit", maxErr.Limit))
			m.writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
		default:
			m.logger.Error("Failed to decode chat request", slog.String(errLoggerKey, err.Error()))
			m.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %s", err))
		}
		return
	}
	if err := validateMessages(req.Messages); err != nil {
		m.logger.Error("Invalid chat request", slog.String(errLoggerKey, err.Error()))
		m.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	next, stop := iter.Pull2(m.llm.Chat(ctx, req.Messages))
	defer stop()

	chunk, err, ok := next()
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		status, msg := statusForProviderError(err)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status, msg = http.StatusInternalServerError, m.timeoutMessage()
		}
		m.logger.Error("Error from llm provider",
			slog.Int("status", status),
			slog.String(errLoggerKey, err.Error()))
		m.writeError(w, status, msg)
		return
	}
	if !ok && ctx.Err() != nil {
		if r.Context().Err() == nil {
			m.logger.Error("Chat request timed out before the first chunk")
			m.writeError(w, http.StatusInternalServerError, m.timeoutMessage())
		}
		return
	}

	sess, err := sse.Upgrade(w, r)
	if err != nil {
		m.logger.Error("Failed to upgrade to SSE", slog.String(errLoggerKey, err.Error()))
		m.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sess.Res.Header().Set(models.StreamHeader, models.StreamVersion)
	sess.Res.Header().Set("Cache-Control", "no-cache")
	sess.Res.Header().Set("X-Accel-Buffering", "no")

	s := uiStream{sess: sess}
	messageID := uuid.New().String()

	if err := s.send(
		models.StreamChunk{Type: models.ChunkTypeStart, MessageID: messageID},
		models.StreamChunk{Type: models.ChunkTypeTextStart, ID: textPartID},
	); err != nil {
		m.logger.Debug("Client went away", slog.String(errLoggerKey, err.Error()))
		return
	}

	for ok {
		if err := s.send(models.StreamChunk{Type: models.ChunkTypeTextDelta, ID: textPartID, Delta: chunk}); err != nil {
			m.logger.Debug("Client went away", slog.String(errLoggerKey, err.Error()))
			return
		}

		chunk, err, ok = next()
		if err != nil {
			if r.Context().Err() != nil {
				return
			}
			msg := err.Error()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				msg = m.timeoutMessage()
			}
			m.logger.Error("Error from llm provider while streaming", slog.String(errLoggerKey, err.Error()))
			_ = s.send(models.StreamChunk{Type: models.ChunkTypeError, ErrorText: msg})
			return
		}
	}

	// The provider may end quietly when its context is cancelled, so a finished iterator is not
	// proof of a complete answer.
	if ctx.Err() != nil {
		if r.Context().Err() != nil {
			return
		}
		m.logger.Error("Chat request timed out while streaming")
		_ = s.send(models.StreamChunk{Type: models.ChunkTypeError, ErrorText: m.timeoutMessage()})
		return
	}

	if err := s.send(
		models.StreamChunk{Type: models.ChunkTypeTextEnd, ID: textPartID},
		models.StreamChunk{Type: models.ChunkTypeFinish},
	); err != nil {
		m.logger.Debug("Client went away", slog.String(errLoggerKey, err.Error()))
		return
	}
	if err := s.sendData(models.StreamDone); err != nil {
		m.logger.Debug("Client went away", slog.String(errLoggerKey, err.Error()))
	}
}

// decodeChatRequest reads a single JSON object from body. Anything but whitespace after the object is
// an error. It gives up when ctx ends, leaving the read to finish in the background; the server closes
// the body once the handler returns.
func decodeChatRequest(ctx context.Context, body io.Reader) (chatRequest, error) {
	type result struct {
		req chatRequest
		err error
	}
	done := make(chan result, 1)
	go func() {
		var req chatRequest
		dec := json.NewDecoder(body)
		err := dec.Decode(&req)
		if err == nil {
			if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
				var maxErr *http.MaxBytesError
				if errors.As(extra, &maxErr) {
					err = extra
				} else {
					err = errors.New("unexpected data after the JSON object")
				}
			}
		}
		done <- result{req: req, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil && ctx.Err() != nil {
			return chatRequest{}, ctx.Err()
		}
		return res.req, res.err
	case <-ctx.Done():
		return chatRequest{}, ctx.Err()
	}
}

func (m Main) timeoutMessage() string {
	return fmt.Sprintf("request exceeded the %s limit", m.cfg.ChatTimeout)
}

func validateMessages(messages []models.Message) error {
	if messages == nil {
		return errors.New("messages is required")
	}
	if len(messages) == 0 {
		return errors.New("messages must not be empty")
	}
	for i, msg := range messages {
		if err := msg.Role.Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	return nil
}

// uiStream writes StreamChunks to an upgraded SSE session, flushing after every write so the client
// sees each chunk as soon as the provider produced it.
type uiStream struct {
	sess *sse.Session
}

func (s uiStream) send(chunks ...models.StreamChunk) error {
	for _, c := range chunks {
		b, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal chunk: %w", err)
		}
		if err := s.sendData(string(b)); err != nil {
			return err
		}
	}
	return nil
}

func (s uiStream) sendData(data string) error {
	msg := &sse.Message{}
	msg.AppendData(data)
	if err := s.sess.Send(msg); err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}
	if err := s.sess.Flush(); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}
	return nil
}
