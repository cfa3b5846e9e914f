package model

import "time"

// Occurrence is one concrete repetition of an Event.
type Occurrence struct {
	// EventID is the calendar identity of the repeated event.
	EventID string `json:"event_id"`
	Title   string `json:"title"`

	// InstanceKey identifies this repetition, derived from its start.
	InstanceKey string `json:"instance_key"`

	NotifyAt time.Time `json:"notify_at"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}
