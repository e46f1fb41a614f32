package entities

import (
	"time"
)

// ReportStatus represents the moderation status of a report
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusInReview ReportStatus = "in_review"
	ReportStatusResolved ReportStatus = "resolved"
	ReportStatusRejected ReportStatus = "rejected"
)

// IsValid reports whether s is a known status
func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusPending, ReportStatusInReview, ReportStatusResolved, ReportStatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether the report has been decided
func (s ReportStatus) IsTerminal() bool {
	return s == ReportStatusResolved || s == ReportStatusRejected
}

// CanTransitionTo reports whether a report in status s may move to next
func (s ReportStatus) CanTransitionTo(next ReportStatus) bool {
	if !s.IsValid() || !next.IsValid() || s.IsTerminal() {
		return false
	}
	if s == next {
		return true
	}
	return next != ReportStatusPending
}

// Report is a complaint about a request or a session
type Report struct {
	ID         string       `json:"id" db:"id"`
	ReporterID int64        `json:"reporter_id" db:"reporter_id"`
	RequestID  *string      `json:"request_id,omitempty" db:"request_id"`
	SessionID  *string      `json:"session_id,omitempty" db:"session_id"`
	Reason     string       `json:"reason" db:"reason"`
	Status     ReportStatus `json:"status" db:"status"`
	Resolution string       `json:"resolution,omitempty" db:"resolution"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`
	ResolvedAt *time.Time   `json:"resolved_at,omitempty" db:"resolved_at"`
}

// ReportPatch carries the fields of a partial report update
type ReportPatch struct {
	Status     *ReportStatus `json:"status"`
	Resolution *string       `json:"resolution"`
}

// Apply copies the present fields of p onto r; a terminal status stamps resolved_at
func (r *Report) Apply(p ReportPatch, at time.Time) {
	if p.Status != nil && *p.Status != r.Status {
		r.Status = *p.Status
		if r.Status.IsTerminal() {
			resolvedAt := at
			r.ResolvedAt = &resolvedAt
		}
	}
	if p.Resolution != nil {
		r.Resolution = *p.Resolution
	}
	r.UpdatedAt = at
}
