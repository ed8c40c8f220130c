package models

import (
	"fmt"
	"strings"
)

// Message represents an individual entry within a conversation. It carries a unique identifier, the
// participant's role and an ordered list of parts that together make up its content.
type Message struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// Part is a typed fragment of a message's content.
type Part struct {
	Type PartType `json:"type"`

	// Text would be filled if Type is PartTypeText.
	Text string `json:"text,omitempty"`
}

// Role represents the role of a message participant.
type Role string

// PartType represents the type of a message part.
type PartType string

const (
	// RoleUser represents a message typed by the person using the widget.
	RoleUser Role = "user"
	// RoleAssistant represents a message produced by the language model.
	RoleAssistant Role = "assistant"

	// PartTypeText represents text content.
	PartTypeText PartType = "text"
)

// NewTextMessage returns a message with a single text part.
func NewTextMessage(id string, role Role, text string) Message {
	return Message{
		ID:   id,
		Role: role,
		Parts: []Part{
			{
				Type: PartTypeText,
				Text: text,
			},
		},
	}
}

// Text concatenates the text of every text part in order. Parts of other types are skipped.
func (m Message) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type != PartTypeText {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// Clone returns a deep copy of the message so the caller can hand it to another goroutine.
func (m Message) Clone() Message {
	c := m
	if m.Parts != nil {
		c.Parts = make([]Part, len(m.Parts))
		copy(c.Parts, m.Parts)
	}
	return c
}

// CloneMessages deep-copies a conversation.
func CloneMessages(messages []Message) []Message {
	if messages == nil {
		return nil
	}
	res := make([]Message, len(messages))
	for i, m := range messages {
		res[i] = m.Clone()
	}
	return res
}

// Validate reports whether the role is one a client may send.
func (r Role) Validate() error {
	switch r {
	case RoleUser, RoleAssistant:
		return nil
	default:
		return fmt.Errorf("invalid role %q: must be one of user, assistant", r)
	}
}
