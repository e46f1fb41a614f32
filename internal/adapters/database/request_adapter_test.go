package database_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/adapters/database"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/repositories"
	apperrors "github.com/IlyaKonFetka/max-social-miniapp/pkg/errors"
)

var requestCols = []string{
	"id", "user_id", "volunteer_id", "description", "type",
	"latitude", "longitude", "address", "district", "when_needed",
	"status", "rating", "comment", "created_at", "updated_at", "completed_at",
}

func TestRequestAdapter_Create(t *testing.T) {
	client, mock := newMock(t)
	adapter := database.NewRequestAdapter(client)
	now := time.Now().UTC()
	lat, lon := 55.7558, 37.6173

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "requests"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := adapter.Create(context.Background(), &entities.Request{
		ID:          "request-1",
		UserID:      20001,
		Description: "Read the label on a medicine box",
		Type:        entities.RequestTypeRead,
		Latitude:    &lat,
		Longitude:   &lon,
		Status:      entities.RequestStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestAdapter_GetByID(t *testing.T) {
	now := time.Now().UTC()

	t.Run("maps nullable columns", func(t *testing.T) {
		client, mock := newMock(t)
		adapter := database.NewRequestAdapter(client)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM "requests" WHERE ("id" = 'request-1')`)).
			WillReturnRows(sqlmock.NewRows(requestCols).AddRow(
				"request-1", int64(20001), int64(10001), "Describe the street", "describe",
				55.75, 37.61, "Tverskaya 1", nil, nil,
				"completed", int64(5), "great", now, now, now,
			))

		request, err := adapter.GetByID(context.Background(), "request-1")

		require.NoError(t, err)
		require.NotNil(t, request.VolunteerID)
		assert.Equal(t, int64(10001), *request.VolunteerID)
		assert.Equal(t, entities.RequestTypeDescribe, request.Type)
		assert.Equal(t, "Tverskaya 1", request.Address)
		assert.Empty(t, request.District)
		assert.Nil(t, request.WhenNeeded)
		require.NotNil(t, request.Rating)
		assert.Equal(t, 5, *request.Rating)
		assert.NotNil(t, request.CompletedAt)
	})

	t.Run("returns not found when absent", func(t *testing.T) {
		client, mock := newMock(t)
		adapter := database.NewRequestAdapter(client)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM "requests"`)).
			WillReturnRows(sqlmock.NewRows(requestCols))

		_, err := adapter.GetByID(context.Background(), "missing")

		require.Error(t, err)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestRequestAdapter_Update(t *testing.T) {
	now := time.Now().UTC()
	comment := "on my way"
	request := func() *entities.Request {
		return &entities.Request{
			ID:        "request-1",
			UserID:    20001,
			Status:    entities.RequestStatusActive,
			Comment:   comment,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}

	t.Run("writes only while the status is unchanged", func(t *testing.T) {
		client, mock := newMock(t)
		adapter := database.NewRequestAdapter(client)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "requests" SET`) + ".*" +
			regexp.QuoteMeta(`WHERE (("id" = 'request-1') AND ("status" = 'active'))`)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := adapter.Update(context.Background(), request(), entities.RequestStatusActive)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("a status changed underneath is a conflict", func(t *testing.T) {
		client, mock := newMock(t)
		adapter := database.NewRequestAdapter(client)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "requests" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := adapter.Update(context.Background(), request(), entities.RequestStatusActive)

		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRequestAdapter_Accept(t *testing.T) {
	t.Run("accepts a pending request", func(t *testing.T) {
		client, mock := newMock(t)
		adapter := database.NewRequestAdapter(client)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "requests" SET`) + ".*" + regexp.QuoteMeta(`("status" = 'pending')`)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		accepted, err := adapter.Accept(context.Background(), "request-1", 10001)

		require.NoError(t, err)
		assert.True(t, accepted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports false when the request left pending", func(t *testing.T) {
		client, mock := newMock(t)
		adapter := database.NewRequestAdapter(client)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "requests" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		accepted, err := adapter.Accept(context.Background(), "request-1", 10002)

		require.NoError(t, err)
		assert.False(t, accepted)
	})
}

func TestRequestAdapter_Listing(t *testing.T) {
	t.Run("general listing is newest first with filters", func(t *testing.T) {
		client, mock := newMock(t)
		adapter := database.NewRequestAdapter(client)
		userID := int64(20001)

		mock.ExpectQuery(regexp.QuoteMeta(`("user_id" = 20001)`) + ".*" +
			regexp.QuoteMeta(`("status" = 'accepted')`) + ".*" +
			regexp.QuoteMeta(`ORDER BY "created_at" DESC LIMIT 100`)).
			WillReturnRows(sqlmock.NewRows(requestCols))

		requests, err := adapter.List(context.Background(), repositories.RequestFilter{
			UserID: &userID,
			Status: entities.RequestStatusAccepted,
			Limit:  100,
		})

		require.NoError(t, err)
		assert.Empty(t, requests)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("pending queue is oldest first", func(t *testing.T) {
		client, mock := newMock(t)
		adapter := database.NewRequestAdapter(client)
		now := time.Now().UTC()

		mock.ExpectQuery(regexp.QuoteMeta(`WHERE ("status" = 'pending') ORDER BY "created_at" ASC`)).
			WillReturnRows(sqlmock.NewRows(requestCols).
				AddRow("request-1", int64(20001), nil, "first", nil, nil, nil, nil, nil, nil,
					"pending", nil, nil, now.Add(-time.Hour), now, nil).
				AddRow("request-2", int64(20002), nil, "second", nil, nil, nil, nil, nil, nil,
					"pending", nil, nil, now, now, nil))

		requests, err := adapter.ListPending(context.Background(), 100, 0)

		require.NoError(t, err)
		require.Len(t, requests, 2)
		assert.Equal(t, "request-1", requests[0].ID)
		assert.Nil(t, requests[0].VolunteerID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
