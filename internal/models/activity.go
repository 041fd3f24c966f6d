package models

import "time"

// ActivityKind names a qualifying user interaction.
type ActivityKind string

const (
	ActivityPointerDown ActivityKind = "pointerdown"
	ActivityTouchStart  ActivityKind = "touchstart"
	ActivityClick       ActivityKind = "click"
	ActivityKeyPress    ActivityKind = "keypress"
)

// Valid reports whether k is one of the qualifying interactions.
func (k ActivityKind) Valid() bool {
	switch k {
	case ActivityPointerDown, ActivityTouchStart, ActivityClick, ActivityKeyPress:
		return true
	}
	return false
}

// ActivityEvent is a single interaction reported by the kiosk front end.
type ActivityEvent struct {
	Kind ActivityKind `json:"type"`
	At   time.Time    `json:"at"`
}
