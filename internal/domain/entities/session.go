package entities

import (
	"time"
)

// SessionStatus represents the status of a live session
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

// IsValid reports whether s is a known status
func (s SessionStatus) IsValid() bool {
	return s == SessionStatusActive || s == SessionStatusCompleted
}

// SessionKind is the transport of a live session
type SessionKind string

const (
	SessionKindVideo SessionKind = "video"
	SessionKindCall  SessionKind = "call"
)

// IsValid reports whether k is a known kind
func (k SessionKind) IsValid() bool {
	return k == SessionKindVideo || k == SessionKindCall
}

// Session pairs a request with a volunteer in a realtime room
type Session struct {
	ID          string        `json:"id" db:"id"`
	RequestID   string        `json:"request_id" db:"request_id"`
	VolunteerID int64         `json:"volunteer_id" db:"volunteer_id"`
	UserID      int64         `json:"user_id" db:"user_id"`
	RoomID      string        `json:"room_id" db:"room_id"`
	Kind        SessionKind   `json:"kind" db:"kind"`
	Status      SessionStatus `json:"status" db:"status"`
	StartedAt   time.Time     `json:"started_at" db:"started_at"`
	EndedAt     *time.Time    `json:"ended_at,omitempty" db:"ended_at"`
	Duration    *int          `json:"duration,omitempty" db:"duration"`
	Rating      *int          `json:"rating,omitempty" db:"rating"`
	Feedback    string        `json:"feedback,omitempty" db:"feedback"`

	Volunteer *VolunteerSummary `json:"volunteer,omitempty" db:"-"`
}

// SessionOutcome is what the requester reports when a session ends
type SessionOutcome struct {
	Duration int    `json:"duration"`
	Rating   *int   `json:"rating"`
	Feedback string `json:"feedback"`
}

// Close marks the session completed with the given outcome
func (s *Session) Close(outcome SessionOutcome, at time.Time) {
	endedAt := at
	duration := outcome.Duration
	s.Status = SessionStatusCompleted
	s.EndedAt = &endedAt
	s.Duration = &duration
	if outcome.Rating != nil {
		rating := *outcome.Rating
		s.Rating = &rating
	}
	s.Feedback = outcome.Feedback
}
