package entity

import "time"

type EventKind string

const (
	EventEntered   EventKind = "entered"
	EventStep      EventKind = "step"
	EventCompleted EventKind = "completed"
)

// Event is a lifecycle transition ready to be delivered.
type Event struct {
	Kind  EventKind `json:"kind"`
	Deal  Deal      `json:"deal"`
	Step  int       `json:"step,omitempty"`
	Stats *BotStats `json:"stats,omitempty"` // completed only; nil when enrichment failed
	At    time.Time `json:"at"`
}
