// Package widget implements the chat assistant client: it owns the conversation, drives each exchange
// through a Transport and exposes snapshots of its state for rendering.
package widget

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/grambudget/grambudget/internal/models"
	"github.com/grambudget/grambudget/internal/transport"
)

// Status describes where the current exchange is in its lifecycle.
type Status string

const (
	// StatusIdle accepts new input.
	StatusIdle Status = "idle"
	// StatusSubmitted means the request is sent and nothing has arrived yet.
	StatusSubmitted Status = "submitted"
	// StatusStreaming means the reply is arriving.
	StatusStreaming Status = "streaming"
	// StatusError means the last exchange failed. A new submission clears it.
	StatusError Status = "error"
)

// Busy reports whether an exchange is in flight.
func (s Status) Busy() bool {
	return s == StatusSubmitted || s == StatusStreaming
}

// Transport sends a conversation and streams back the assistant's reply.
type Transport interface {
	Send(ctx context.Context, messages []models.Message) iter.Seq2[transport.Delta, error]
}

// Suggestions are the starter questions offered while the conversation is empty.
var Suggestions = []string{
	"How do I create a budget?",
	"What is MGNREGA?",
	"How to track expenses?",
}

// State is a copy of the widget state, safe to keep and read after the widget moves on.
type State struct {
	Open     bool
	Status   Status
	Input    string
	Messages []models.Message
	Err      *transport.ErrorSignal
}

// Widget is the chat client. All methods are safe for concurrent use; the reply of an exchange is
// consumed on a goroutine of its own, and every state change is announced on Updates.
type Widget struct {
	transport Transport
	newID     func() string

	mu       sync.Mutex
	open     bool
	status   Status
	input    string
	messages []models.Message
	err      *transport.ErrorSignal
	pending  *accumulator
	turn     uint64
	cancel   context.CancelFunc

	base       context.Context
	baseCancel context.CancelFunc

	updates chan struct{}
	wg      sync.WaitGroup

	logger *slog.Logger
}

// New creates an idle, closed widget with an empty conversation.
func New(t Transport, logger *slog.Logger) *Widget {
	if logger == nil {
		logger = slog.Default()
	}
	base, baseCancel := context.WithCancel(context.Background())
	return &Widget{
		transport:  t,
		newID:      func() string { return uuid.New().String() },
		status:     StatusIdle,
		base:       base,
		baseCancel: baseCancel,
		updates:    make(chan struct{}, 1),
		logger:     logger.With(slog.String("module", "widget")),
	}
}

// Updates returns a channel that receives a value after state changes. Consecutive changes may be
// coalesced into one notification, so readers should take a fresh Snapshot on every receive.
func (w *Widget) Updates() <-chan struct{} {
	return w.updates
}

func (w *Widget) notify() {
	select {
	case w.updates <- struct{}{}:
	default:
	}
}

// Open shows the widget.
func (w *Widget) Open() {
	w.mu.Lock()
	w.open = true
	w.mu.Unlock()
	w.notify()
}

// Close hides the widget and aborts the exchange in flight, if any. The conversation is kept.
func (w *Widget) Close() {
	w.mu.Lock()
	w.open = false
	w.abortLocked()
	w.mu.Unlock()
	w.notify()
}

// Toggle opens a closed widget and closes an open one.
func (w *Widget) Toggle() {
	w.mu.Lock()
	open := w.open
	w.mu.Unlock()
	if open {
		w.Close()
		return
	}
	w.Open()
}

// Shutdown aborts the exchange in flight and waits for its goroutine to return. The widget accepts no
// further submissions afterwards.
func (w *Widget) Shutdown() {
	w.mu.Lock()
	w.abortLocked()
	w.baseCancel()
	w.mu.Unlock()
	w.wg.Wait()
	w.notify()
}

// Wait blocks until no exchange is in flight.
func (w *Widget) Wait() {
	w.wg.Wait()
}

// SetInput replaces the content of the text field.
func (w *Widget) SetInput(text string) {
	w.mu.Lock()
	w.input = text
	w.mu.Unlock()
	w.notify()
}

// Input returns the content of the text field.
func (w *Widget) Input() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.input
}

// SubmitInput submits the content of the text field.
func (w *Widget) SubmitInput() bool {
	return w.Submit(w.Input())
}

// Submit appends text as a user message and sends the whole conversation. It does nothing and returns
// false when text is blank or an exchange is already in flight. On success the text field is cleared
// right away, whatever happens to the request.
func (w *Widget) Submit(text string) bool {
	w.mu.Lock()
	if strings.TrimSpace(text) == "" || w.status.Busy() || w.base.Err() != nil {
		w.mu.Unlock()
		return false
	}

	w.messages = append(w.messages, models.NewTextMessage(w.newID(), models.RoleUser, text))
	w.input = ""
	w.status = StatusSubmitted
	w.err = nil
	w.turn++
	turn := w.turn

	ctx, cancel := context.WithCancel(w.base)
	w.cancel = cancel
	w.pending = newAccumulator(w.newID())
	conversation := models.CloneMessages(w.messages)

	w.wg.Add(1)
	w.mu.Unlock()
	w.notify()

	go w.run(ctx, cancel, turn, conversation)
	return true
}

func (w *Widget) run(ctx context.Context, cancel context.CancelFunc, turn uint64, conversation []models.Message) {
	defer w.wg.Done()
	defer cancel()

	for d, err := range w.transport.Send(ctx, conversation) {
		if err != nil {
			var sig *transport.ErrorSignal
			if !errors.As(err, &sig) {
				sig = &transport.ErrorSignal{Message: err.Error()}
			}
			w.onError(turn, sig)
			return
		}
		if !w.onDelta(turn, d) {
			return
		}
	}
	w.onComplete(turn)
}

// onDelta merges d into the assistant message of turn. It returns false once turn is no longer the
// current exchange, which stops the consumer.
func (w *Widget) onDelta(turn uint64, d transport.Delta) bool {
	w.mu.Lock()
	if turn != w.turn || w.pending == nil {
		w.mu.Unlock()
		return false
	}
	if w.status == StatusSubmitted {
		w.status = StatusStreaming
	}
	w.pending.apply(d)
	w.mu.Unlock()
	w.notify()
	return true
}

// onComplete makes the assistant message of turn part of the conversation.
func (w *Widget) onComplete(turn uint64) {
	w.mu.Lock()
	if turn != w.turn || w.pending == nil {
		w.mu.Unlock()
		return
	}
	if !w.pending.empty() {
		w.messages = append(w.messages, w.pending.message())
	}
	w.pending = nil
	w.cancel = nil
	w.status = StatusIdle
	w.mu.Unlock()
	w.notify()
}

// onError ends turn with sig. Whatever part of the answer had arrived is dropped; the user message stays.
func (w *Widget) onError(turn uint64, sig *transport.ErrorSignal) {
	w.mu.Lock()
	if turn != w.turn || w.pending == nil {
		w.mu.Unlock()
		return
	}
	w.logger.Warn("Chat exchange failed", slog.String("err", sig.Message))
	w.pending = nil
	w.cancel = nil
	w.status = StatusError
	w.err = sig
	w.mu.Unlock()
	w.notify()
}

// abortLocked cancels the exchange in flight. It is not an error: the partial answer disappears and the
// widget goes back to idle. Deltas still on their way are ignored because the turn is retired.
func (w *Widget) abortLocked() {
	if !w.status.Busy() {
		return
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.turn++
	w.pending = nil
	w.cancel = nil
	w.status = StatusIdle
}

// Snapshot returns a copy of the current state. While a reply is streaming, Messages ends with the
// assistant message assembled so far.
func (w *Widget) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	msgs := models.CloneMessages(w.messages)
	if w.pending != nil && !w.pending.empty() {
		msgs = append(msgs, w.pending.message())
	}

	var sig *transport.ErrorSignal
	if w.err != nil {
		cp := *w.err
		sig = &cp
	}

	return State{
		Open:     w.open,
		Status:   w.status,
		Input:    w.input,
		Messages: msgs,
		Err:      sig,
	}
}
