package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"

	"github.com/grambudget/grambudget/internal/models"
	"github.com/tmaxmax/go-sse"
)

// errIncomplete is reported when the body ends before the finish chunk or the done marker.
const errIncomplete = "stream ended before completion"

// Decode parses a UI message stream into deltas. Events are decoded only once they are complete, so the
// way the body is split into reads, even in the middle of a multi-byte character, has no effect on the
// result. An error event is yielded as an *ErrorSignal, as is a body that ends before the stream is
// finished. Unknown chunk types are skipped.
func Decode(r io.Reader) iter.Seq2[Delta, error] {
	return func(yield func(Delta, error) bool) {
		var (
			messageID string
			finished  bool
			indexes   = make(map[string]int)
			parts     []models.Part
			seqs      []int
		)

		open := func(id string) int {
			idx := len(parts)
			indexes[id] = idx
			parts = append(parts, models.Part{Type: models.PartTypeText})
			seqs = append(seqs, 0)
			return idx
		}

		for ev, err := range sse.Read(r, nil) {
			if err != nil {
				yield(Delta{}, fmt.Errorf("error reading stream: %w", err))
				return
			}

			if ev.Data == models.StreamDone {
				return
			}

			var c models.StreamChunk
			if err := json.Unmarshal([]byte(ev.Data), &c); err != nil {
				yield(Delta{}, fmt.Errorf("error unmarshaling chunk: %w", err))
				return
			}

			switch c.Type {
			case models.ChunkTypeStart:
				messageID = c.MessageID
			case models.ChunkTypeTextStart:
				if _, ok := indexes[c.ID]; !ok {
					open(c.ID)
				}
			case models.ChunkTypeTextDelta:
				idx, ok := indexes[c.ID]
				if !ok {
					idx = open(c.ID)
				}
				parts[idx].Text += c.Delta
				seqs[idx]++
				if !yield(Delta{
					MessageID: messageID,
					Index:     idx,
					Seq:       seqs[idx],
					Part:      parts[idx],
				}, nil) {
					return
				}
			case models.ChunkTypeFinish:
				finished = true
			case models.ChunkTypeError:
				yield(Delta{}, &ErrorSignal{Message: c.ErrorText})
				return
			}
		}

		if !finished {
			yield(Delta{}, &ErrorSignal{Message: errIncomplete})
		}
	}
}
