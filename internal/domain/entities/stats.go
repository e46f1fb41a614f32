package entities

// VolunteerStats is the derived aggregate shown on a volunteer's profile
type VolunteerStats struct {
	VolunteerID       int64   `json:"volunteer_id"`
	AverageRating     float64 `json:"average_rating"`
	TotalCalls        int     `json:"total_calls"`
	TotalRequests     int     `json:"total_requests"`
	CompletedRequests int     `json:"completed_requests"`
}
