package transport_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/grambudget/grambudget/internal/models"
	"github.com/grambudget/grambudget/internal/transport"
)

const wellFormed = `data: {"type":"start","messageId":"m-1"}

data: {"type":"text-start","id":"0"}

data: {"type":"text-delta","id":"0","delta":"ग्राम "}

data: {"type":"text-delta","id":"0","delta":"पंचायत budget"}

data: {"type":"text-end","id":"0"}

data: {"type":"finish"}

data: [DONE]

`

// chunkReader hands out the underlying bytes in pieces of the given sizes, cycling through them, so
// reads can end in the middle of an event or of a multi-byte character.
type chunkReader struct {
	data  []byte
	sizes []int
	n     int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	size := c.sizes[c.n%len(c.sizes)]
	c.n++
	size = min(size, len(p), len(c.data))
	copy(p, c.data[:size])
	c.data = c.data[size:]
	return size, nil
}

func collect(t *testing.T, r io.Reader) ([]transport.Delta, error) {
	t.Helper()
	var (
		deltas []transport.Delta
		err    error
	)
	for d, e := range transport.Decode(r) {
		if e != nil {
			err = e
			break
		}
		deltas = append(deltas, d)
	}
	return deltas, err
}

func TestDecode(t *testing.T) {
	want := []transport.Delta{
		{MessageID: "m-1", Index: 0, Seq: 1, Part: models.Part{Type: models.PartTypeText, Text: "ग्राम "}},
		{MessageID: "m-1", Index: 0, Seq: 2, Part: models.Part{Type: models.PartTypeText, Text: "ग्राम पंचायत budget"}},
	}

	tests := []struct {
		name   string
		reader func() io.Reader
	}{
		{
			name:   "Whole body",
			reader: func() io.Reader { return strings.NewReader(wellFormed) },
		},
		{
			name:   "One byte at a time",
			reader: func() io.Reader { return iotest.OneByteReader(strings.NewReader(wellFormed)) },
		},
		{
			name:   "Uneven chunks",
			reader: func() io.Reader { return &chunkReader{data: []byte(wellFormed), sizes: []int{7, 1, 13, 2, 5}} },
		},
		{
			name:   "Half reads",
			reader: func() io.Reader { return iotest.HalfReader(strings.NewReader(wellFormed)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := collect(t, tt.reader())
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Decode() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantDeltas int
		wantErr    string
	}{
		{
			name: "Error event",
			body: `data: {"type":"start","messageId":"m-1"}

data: {"type":"text-delta","id":"0","delta":"Hel"}

data: {"type":"error","errorText":"credit card required"}

`,
			wantDeltas: 1,
			wantErr:    "credit card required",
		},
		{
			name: "Body ends early",
			body: `data: {"type":"start","messageId":"m-1"}

data: {"type":"text-delta","id":"0","delta":"Hel"}

`,
			wantDeltas: 1,
			wantErr:    "stream ended before completion",
		},
		{
			name:    "Empty body",
			body:    "",
			wantErr: "stream ended before completion",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := collect(t, strings.NewReader(tt.body))
			if len(got) != tt.wantDeltas {
				t.Errorf("Decode() yielded %d deltas, want %d", len(got), tt.wantDeltas)
			}
			var sig *transport.ErrorSignal
			if !errors.As(err, &sig) {
				t.Fatalf("Decode() error = %v, want *transport.ErrorSignal", err)
			}
			if sig.Message != tt.wantErr {
				t.Errorf("Decode() error = %q, want %q", sig.Message, tt.wantErr)
			}
		})
	}
}

func TestDecodeSkipsUnknownChunks(t *testing.T) {
	body := `data: {"type":"start","messageId":"m-1"}

data: {"type":"start-step"}

data: {"type":"text-delta","id":"0","delta":"ok"}

data: {"type":"finish-step"}

data: {"type":"finish"}

`
	got, err := collect(t, strings.NewReader(body))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(got) != 1 || got[0].Part.Text != "ok" {
		t.Errorf("Decode() = %+v, want one delta with text ok", got)
	}
}

func TestSend(t *testing.T) {
	conversation := []models.Message{
		models.NewTextMessage("u1", models.RoleUser, "How do I create a budget?"),
		models.NewTextMessage("a1", models.RoleAssistant, "Open the Budgets page."),
		models.NewTextMessage("u2", models.RoleUser, "And then?"),
	}

	var gotBody struct {
		ID       string           `json:"id"`
		Messages []models.Message `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if accept := r.Header.Get("Accept"); accept != "text/event-stream" {
			t.Errorf("Accept = %q, want text/event-stream", accept)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, wellFormed)
	}))
	defer srv.Close()

	tr := transport.New(srv.URL, srv.Client(), nil)

	var last transport.Delta
	for d, err := range tr.Send(context.Background(), conversation) {
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		last = d
	}

	if last.Part.Text != "ग्राम पंचायत budget" {
		t.Errorf("last delta text = %q", last.Part.Text)
	}
	if diff := cmp.Diff(conversation, gotBody.Messages); diff != "" {
		t.Errorf("request messages mismatch (-want +got):\n%s", diff)
	}
	if gotBody.ID == "" {
		t.Error("request is missing the chat id")
	}
}

func TestSendNonSuccessStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{
			name:    "Payment required",
			status:  http.StatusPaymentRequired,
			body:    `{"error":"customer_verification_required"}`,
			wantMsg: `{"error":"customer_verification_required"}`,
		},
		{
			name:    "Internal error",
			status:  http.StatusInternalServerError,
			body:    `{"error":"model is overloaded"}`,
			wantMsg: `{"error":"model is overloaded"}`,
		},
		{
			name:    "Empty body",
			status:  http.StatusBadGateway,
			wantMsg: "502 Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			tr := transport.New(srv.URL, srv.Client(), nil)

			var errs []error
			for _, err := range tr.Send(context.Background(), []models.Message{
				models.NewTextMessage("u1", models.RoleUser, "hi"),
			}) {
				if err != nil {
					errs = append(errs, err)
				}
			}

			if len(errs) != 1 {
				t.Fatalf("Send() yielded %d errors, want 1", len(errs))
			}
			var sig *transport.ErrorSignal
			if !errors.As(errs[0], &sig) {
				t.Fatalf("Send() error = %v, want *transport.ErrorSignal", errs[0])
			}
			if sig.Message != tt.wantMsg {
				t.Errorf("Send() error message = %q, want %q", sig.Message, tt.wantMsg)
			}
			if sig.Status != tt.status {
				t.Errorf("Send() error status = %d, want %d", sig.Status, tt.status)
			}
		})
	}
}

func TestSendCancelIsSilent(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {\"type\":\"start\",\"messageId\":\"m-1\"}\n\ndata: {\"type\":\"text-delta\",\"id\":\"0\",\"delta\":\"Hel\"}\n\n")
		w.(http.Flusher).Flush()
		close(started)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := transport.New(srv.URL, srv.Client(), nil)

	done := make(chan error, 1)
	go func() {
		var gotErr error
		for _, err := range tr.Send(ctx, []models.Message{models.NewTextMessage("u1", models.RoleUser, "hi")}) {
			if err != nil {
				gotErr = err
			}
		}
		done <- gotErr
	}()

	<-started
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Send() after cancel yielded %v, want no error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Send() did not return after cancel")
	}
}
