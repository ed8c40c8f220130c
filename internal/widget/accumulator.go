package widget

import (
	"github.com/grambudget/grambudget/internal/models"
	"github.com/grambudget/grambudget/internal/transport"
)

// accumulator assembles the assistant message of the running turn. Parts are keyed by index and each
// keeps the sequence number of the delta that last wrote it: an older delta never overwrites a newer
// one, and replaying a delta leaves the message unchanged.
type accumulator struct {
	messageID string
	parts     []models.Part
	seqs      []int
}

func newAccumulator(messageID string) *accumulator {
	return &accumulator{messageID: messageID}
}

// apply merges d and reports whether it changed anything.
func (a *accumulator) apply(d transport.Delta) bool {
	if d.Index < 0 {
		return false
	}
	if d.MessageID != "" {
		a.messageID = d.MessageID
	}
	for len(a.parts) <= d.Index {
		a.parts = append(a.parts, models.Part{})
		a.seqs = append(a.seqs, 0)
	}
	if d.Seq < a.seqs[d.Index] {
		return false
	}
	changed := a.parts[d.Index] != d.Part
	a.parts[d.Index] = d.Part
	a.seqs[d.Index] = d.Seq
	return changed
}

func (a *accumulator) empty() bool {
	for _, p := range a.parts {
		if p.Type != "" {
			return false
		}
	}
	return true
}

// message returns the assistant message assembled so far. Indexes no delta has reached yet are left out.
func (a *accumulator) message() models.Message {
	parts := make([]models.Part, 0, len(a.parts))
	for _, p := range a.parts {
		if p.Type == "" {
			continue
		}
		parts = append(parts, p)
	}
	return models.Message{
		ID:    a.messageID,
		Role:  models.RoleAssistant,
		Parts: parts,
	}
}
