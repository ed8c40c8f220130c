package models

// StreamChunk is one event of the UI message stream exchanged between the chat endpoint and its
// clients. Each chunk travels as the data of a single server-sent event.
type StreamChunk struct {
	Type ChunkType `json:"type"`

	// MessageID would be filled if Type is ChunkTypeStart.
	MessageID string `json:"messageId,omitempty"`
	// ID identifies the text part for the text-start, text-delta and text-end chunks.
	ID string `json:"id,omitempty"`
	// Delta would be filled if Type is ChunkTypeTextDelta.
	Delta string `json:"delta,omitempty"`
	// ErrorText would be filled if Type is ChunkTypeError.
	ErrorText string `json:"errorText,omitempty"`
}

// ChunkType represents the kind of a StreamChunk.
type ChunkType string

const (
	ChunkTypeStart     ChunkType = "start"
	ChunkTypeTextStart ChunkType = "text-start"
	ChunkTypeTextDelta ChunkType = "text-delta"
	ChunkTypeTextEnd   ChunkType = "text-end"
	ChunkTypeFinish    ChunkType = "finish"
	ChunkTypeError     ChunkType = "error"
)

const (
	// StreamDone is the data of the last event of a successful stream.
	StreamDone = "[DONE]"

	// StreamHeader is the response header announcing the stream protocol version.
	StreamHeader = "x-vercel-ai-ui-message-stream"
	// StreamVersion is the only protocol version spoken by this module.
	StreamVersion = "v1"
)
