// Package hub fans narration events out to websocket listeners using a
// single goroutine that owns the client set.
package hub

import "time"

// Event kinds.
const (
	KindAlert    = "alert"
	KindAnswer   = "answer"
	KindSpeakers = "speakers"
)

// Event is one JSON message pushed to listeners.
type Event struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Text      string    `json:"text,omitempty"`
	Spoken    bool      `json:"spoken"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}
