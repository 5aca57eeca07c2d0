package model

import "time"

// RetrievedSource is a per-query citation: which manual a retrieved chunk came
// from, a bounded preview of its text, and the similarity score. Never persisted.
type RetrievedSource struct {
	ManualID    uint    `json:"manual_id"`
	ManualTitle string  `json:"manual_title"`
	Preview     string  `json:"chunk_content"`
	Similarity  float32 `json:"similarity"`
}

// ConversationTurn is one message in a chat exchange. Turns live in the caller's
// session state; the server only caches them opportunistically.
type ConversationTurn struct {
	Role      string            `json:"role"` // "user" or "assistant"
	Content   string            `json:"content"`
	Sources   []RetrievedSource `json:"sources,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
