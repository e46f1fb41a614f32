package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
)

func intPtr(v int) *int { return &v }

func TestNextAverage(t *testing.T) {
	assert.InDelta(t, 4.8077, entities.NextAverage(4.8, 25, 5), 0.0001)
	assert.Equal(t, 3.0, entities.NextAverage(0, 0, 3))
	assert.Equal(t, 4.5, entities.NextAverage(4, 1, 5))
}

func TestUser_RecordCall(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	t.Run("rated call updates mean and count", func(t *testing.T) {
		u := &entities.User{Role: entities.UserRoleVolunteer, Rating: 4.8, TotalCalls: 25}

		u.RecordCall(intPtr(5), now)

		assert.InDelta(t, (4.8*25+5)/26, u.Rating, 1e-9)
		assert.Equal(t, 26, u.TotalCalls)
		assert.True(t, u.IsAvailable)
		assert.Equal(t, now, u.LastActiveAt)
	})

	t.Run("unrated call only counts", func(t *testing.T) {
		u := &entities.User{Role: entities.UserRoleVolunteer, Rating: 4.0, TotalCalls: 2}

		u.RecordCall(nil, now)

		assert.Equal(t, 4.0, u.Rating)
		assert.Equal(t, 3, u.TotalCalls)
	})
}

func TestUser_CanTakeSession(t *testing.T) {
	volunteer := &entities.User{Role: entities.UserRoleVolunteer, IsAvailable: true}
	assert.True(t, volunteer.CanTakeSession())

	busy := &entities.User{Role: entities.UserRoleVolunteer, IsAvailable: false}
	assert.False(t, busy.CanTakeSession())

	banned := &entities.User{Role: entities.UserRoleVolunteer, IsAvailable: true, Banned: true}
	assert.False(t, banned.CanTakeSession())

	requester := &entities.User{Role: entities.UserRoleUser, IsAvailable: true}
	assert.False(t, requester.CanTakeSession())
}

func TestUser_Apply(t *testing.T) {
	name := "Anna"
	banned := true
	u := &entities.User{Name: "Old", Role: entities.UserRoleVolunteer}

	u.Apply(entities.UserPatch{Name: &name, Banned: &banned})

	assert.Equal(t, "Anna", u.Name)
	assert.True(t, u.Banned)
	assert.Equal(t, entities.UserRoleVolunteer, u.Role)
}

func TestRequestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to entities.RequestStatus
		want     bool
	}{
		{entities.RequestStatusPending, entities.RequestStatusAccepted, true},
		{entities.RequestStatusPending, entities.RequestStatusActive, true},
		{entities.RequestStatusPending, entities.RequestStatusCancelled, true},
		{entities.RequestStatusAccepted, entities.RequestStatusActive, true},
		{entities.RequestStatusActive, entities.RequestStatusCompleted, true},
		{entities.RequestStatusActive, entities.RequestStatusActive, true},
		{entities.RequestStatusActive, entities.RequestStatusPending, false},
		{entities.RequestStatusAccepted, entities.RequestStatusPending, false},
		{entities.RequestStatusCompleted, entities.RequestStatusPending, false},
		{entities.RequestStatusCompleted, entities.RequestStatusCompleted, false},
		{entities.RequestStatusCancelled, entities.RequestStatusActive, false},
		{entities.RequestStatusPending, entities.RequestStatus("archived"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestRequest_Apply(t *testing.T) {
	now := time.Now()
	volunteerID := int64(10001)
	completed := entities.RequestStatusCompleted
	comment := "thanks"

	r := &entities.Request{Status: entities.RequestStatusActive}
	r.Apply(entities.RequestPatch{
		VolunteerID: &volunteerID,
		Status:      &completed,
		Rating:      intPtr(5),
		Comment:     &comment,
	}, now)

	assert.Equal(t, entities.RequestStatusCompleted, r.Status)
	if assert.NotNil(t, r.CompletedAt) {
		assert.Equal(t, now, *r.CompletedAt)
	}
	assert.Equal(t, int64(10001), *r.VolunteerID)
	assert.Equal(t, 5, *r.Rating)
	assert.Equal(t, "thanks", r.Comment)
	assert.Equal(t, now, r.UpdatedAt)
}

func TestRequestType_IsValid(t *testing.T) {
	assert.True(t, entities.RequestTypeNavigate.IsValid())
	assert.False(t, entities.RequestType("sing").IsValid())
}

func TestSession_Close(t *testing.T) {
	now := time.Now()
	s := &entities.Session{Status: entities.SessionStatusActive}

	s.Close(entities.SessionOutcome{Duration: 180, Rating: intPtr(4), Feedback: "helpful"}, now)

	assert.Equal(t, entities.SessionStatusCompleted, s.Status)
	assert.Equal(t, now, *s.EndedAt)
	assert.Equal(t, 180, *s.Duration)
	assert.Equal(t, 4, *s.Rating)
	assert.Equal(t, "helpful", s.Feedback)
}

func TestReportStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, entities.ReportStatusPending.CanTransitionTo(entities.ReportStatusInReview))
	assert.True(t, entities.ReportStatusPending.CanTransitionTo(entities.ReportStatusRejected))
	assert.True(t, entities.ReportStatusInReview.CanTransitionTo(entities.ReportStatusResolved))
	assert.False(t, entities.ReportStatusInReview.CanTransitionTo(entities.ReportStatusPending))
	assert.False(t, entities.ReportStatusResolved.CanTransitionTo(entities.ReportStatusInReview))
}

func TestReport_ApplyStampsResolvedAt(t *testing.T) {
	now := time.Now()
	resolved := entities.ReportStatusResolved
	resolution := "volunteer warned"
	r := &entities.Report{Status: entities.ReportStatusInReview}

	r.Apply(entities.ReportPatch{Status: &resolved, Resolution: &resolution}, now)

	assert.Equal(t, entities.ReportStatusResolved, r.Status)
	assert.Equal(t, "volunteer warned", r.Resolution)
	if assert.NotNil(t, r.ResolvedAt) {
		assert.Equal(t, now, *r.ResolvedAt)
	}
}
