package entities

import (
	"time"
)

// SessionEventType represents the type of a session lifecycle event
type SessionEventType string

const (
	SessionEventOpened           SessionEventType = "session.opened"
	SessionEventClosed           SessionEventType = "session.closed"
	SessionEventVolunteerUpdated SessionEventType = "volunteer.updated"
)

// SessionEvent is published whenever a change alters what volunteers look like
// to readers (availability, rating, call counts).
type SessionEvent struct {
	ID          string           `json:"id"`
	Type        SessionEventType `json:"type"`
	SessionID   string           `json:"session_id,omitempty"`
	RequestID   string           `json:"request_id,omitempty"`
	VolunteerID int64            `json:"volunteer_id"`
	Timestamp   time.Time        `json:"timestamp"`
}
