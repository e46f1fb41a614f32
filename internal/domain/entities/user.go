package entities

import (
	"time"
)

// UserRole represents the role a user plays in the application
type UserRole string

const (
	UserRoleUser      UserRole = "user"
	UserRoleVolunteer UserRole = "volunteer"
	UserRoleAdmin     UserRole = "admin"
)

// IsValid reports whether r is a known role
func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleUser, UserRoleVolunteer, UserRoleAdmin:
		return true
	}
	return false
}

// User represents a messenger user. Volunteers carry their running rating and
// call count on the same row.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Role         UserRole  `json:"role" db:"role"`
	IsAvailable  bool      `json:"is_available" db:"is_available"`
	Banned       bool      `json:"banned" db:"banned"`
	Rating       float64   `json:"rating" db:"rating"`
	TotalCalls   int       `json:"total_calls" db:"total_calls"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
	LastActiveAt time.Time `json:"last_active_at" db:"last_active_at"`
}

// IsVolunteer reports whether the user has the volunteer role
func (u *User) IsVolunteer() bool {
	return u.Role == UserRoleVolunteer
}

// CanTakeSession reports whether the volunteer may be paired into a new session
func (u *User) CanTakeSession() bool {
	return u.IsVolunteer() && !u.Banned && u.IsAvailable
}

// RecordCall counts a finished session for the volunteer and folds its rating
// into the running mean. A nil rating still counts the call.
func (u *User) RecordCall(rating *int, at time.Time) {
	if rating != nil {
		u.Rating = NextAverage(u.Rating, u.TotalCalls, *rating)
	}
	u.TotalCalls++
	u.IsAvailable = true
	u.UpdatedAt = at
	u.LastActiveAt = at
}

// NextAverage returns the mean after adding rating to n previous values averaging avg
func NextAverage(avg float64, n int, rating int) float64 {
	if n < 0 {
		n = 0
	}
	return (avg*float64(n) + float64(rating)) / float64(n+1)
}

// UserPatch carries the fields of a partial user update; nil means unchanged
type UserPatch struct {
	Name        *string   `json:"name"`
	Role        *UserRole `json:"role"`
	Banned      *bool     `json:"banned"`
	IsAvailable *bool     `json:"is_available"`
}

// Apply copies the present fields of p onto u
func (u *User) Apply(p UserPatch) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Banned != nil {
		u.Banned = *p.Banned
	}
	if p.IsAvailable != nil {
		u.IsAvailable = *p.IsAvailable
	}
}

// VolunteerSummary is the compact volunteer view embedded in session listings
type VolunteerSummary struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Rating     float64 `json:"rating"`
	TotalCalls int     `json:"total_calls"`
}

// Summary returns the compact view of the user
func (u *User) Summary() *VolunteerSummary {
	return &VolunteerSummary{
		ID:         u.ID,
		Name:       u.Name,
		Rating:     u.Rating,
		TotalCalls: u.TotalCalls,
	}
}
