package push

import "time"

// Push event types emitted by the dashboard backend.
const (
	EventPredictionUpdate = "prediction_update"
	EventAlert            = "alert"
	EventConnection       = "connection"
	EventPing             = "ping"
	EventPong             = "pong"
)

// Event is one push message. Data varies by event type, so it stays a loose
// map the way backend payloads do.
type Event struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}
