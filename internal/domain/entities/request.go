package entities

import (
	"time"
)

// RequestStatus represents the status of a help request
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusActive    RequestStatus = "active"
	RequestStatusCompleted RequestStatus = "completed"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// requestStatusRank orders statuses along the lifecycle; completed and
// cancelled share the terminal rank.
var requestStatusRank = map[RequestStatus]int{
	RequestStatusPending:   0,
	RequestStatusAccepted:  1,
	RequestStatusActive:    2,
	RequestStatusCompleted: 3,
	RequestStatusCancelled: 3,
}

// IsValid reports whether s is a known status
func (s RequestStatus) IsValid() bool {
	_, ok := requestStatusRank[s]
	return ok
}

// IsTerminal reports whether no further transition is allowed from s
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// CanTransitionTo reports whether a request in status s may move to next.
// Statuses only move forward; staying in a non-terminal status is a no-op.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	if !s.IsValid() || !next.IsValid() || s.IsTerminal() {
		return false
	}
	if s == next {
		return true
	}
	return requestStatusRank[next] > requestStatusRank[s]
}

// RequestType tags what kind of help is asked for
type RequestType string

const (
	RequestTypeRead     RequestType = "read"
	RequestTypeDescribe RequestType = "describe"
	RequestTypeNavigate RequestType = "navigate"
	RequestTypeOther    RequestType = "other"
)

// IsValid reports whether t is a known request type
func (t RequestType) IsValid() bool {
	switch t {
	case RequestTypeRead, RequestTypeDescribe, RequestTypeNavigate, RequestTypeOther:
		return true
	}
	return false
}

// Request is a deferred ask for volunteer help
type Request struct {
	ID          string        `json:"id" db:"id"`
	UserID      int64         `json:"user_id" db:"user_id"`
	VolunteerID *int64        `json:"volunteer_id,omitempty" db:"volunteer_id"`
	Description string        `json:"description" db:"description"`
	Type        RequestType   `json:"type,omitempty" db:"type"`
	Latitude    *float64      `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64      `json:"longitude,omitempty" db:"longitude"`
	Address     string        `json:"address,omitempty" db:"address"`
	District    string        `json:"district,omitempty" db:"district"`
	WhenNeeded  *time.Time    `json:"when_needed,omitempty" db:"when_needed"`
	Status      RequestStatus `json:"status" db:"status"`
	Rating      *int          `json:"rating,omitempty" db:"rating"`
	Comment     string        `json:"comment,omitempty" db:"comment"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
}

// RequestPatch carries the fields of a partial request update; nil means unchanged
type RequestPatch struct {
	VolunteerID *int64         `json:"volunteer_id"`
	Status      *RequestStatus `json:"status"`
	Rating      *int           `json:"rating"`
	Comment     *string        `json:"comment"`
	Description *string        `json:"description"`
}

// Apply copies the present fields of p onto r and stamps timestamps.
// Status guards are the caller's responsibility.
func (r *Request) Apply(p RequestPatch, at time.Time) {
	if p.VolunteerID != nil {
		id := *p.VolunteerID
		r.VolunteerID = &id
	}
	if p.Status != nil && *p.Status != r.Status {
		r.Status = *p.Status
		if r.Status == RequestStatusCompleted {
			completedAt := at
			r.CompletedAt = &completedAt
		}
	}
	if p.Rating != nil {
		rating := *p.Rating
		r.Rating = &rating
	}
	if p.Comment != nil {
		r.Comment = *p.Comment
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	r.UpdatedAt = at
}
