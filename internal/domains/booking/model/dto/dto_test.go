package dto_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookery/internal/domains/booking/model"
	"bookery/internal/domains/booking/model/dto"
	"bookery/shared/failure"
	"bookery/shared/timezone"
)

func TestCreateBookingRequest_ToModel(t *testing.T) {
	now := timezone.Now()

	t.Run("defaults the owner to the actor", func(t *testing.T) {
		req := dto.CreateBookingRequest{
			AgentID:       "agent-1",
			ServiceID:     "service-1",
			ScheduledDate: "2026-09-01 10:00",
			Amount:        150.0,
		}

		booking, err := req.ToModel("user-1", now)

		require.NoError(t, err)
		assert.Equal(t, "user-1", booking.UserID)
		assert.Equal(t, "user-1", booking.CreatedBy)
		assert.Equal(t, model.StatusPending, booking.Status)
	})

	t.Run("keeps an explicit owner", func(t *testing.T) {
		req := dto.CreateBookingRequest{
			UserID:        "user-2",
			AgentID:       "agent-1",
			ServiceID:     "service-1",
			ScheduledDate: "2026-09-01 10:00",
			Amount:        150.0,
		}

		booking, err := req.ToModel("admin-1", now)

		require.NoError(t, err)
		assert.Equal(t, "user-2", booking.UserID)
		assert.Equal(t, "admin-1", booking.CreatedBy)
	})

	t.Run("rejects a malformed date", func(t *testing.T) {
		req := dto.CreateBookingRequest{
			AgentID:       "agent-1",
			ServiceID:     "service-1",
			ScheduledDate: "next tuesday",
			Amount:        150.0,
		}

		_, err := req.ToModel("user-1", now)

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})
}

func TestBookingResponse_FromModel(t *testing.T) {
	now := timezone.Now()
	booking := model.New("user-1", "agent-1", "service-1", now, 150.0, "notes", "user-1", now)

	var res dto.BookingResponse
	res.FromModel(booking)

	assert.Equal(t, booking.ID, res.ID)
	assert.Equal(t, model.StatusPending.String(), res.Status)
	assert.Equal(t, model.PaymentStatusPending.String(), res.PaymentStatus)
	assert.Equal(t, int64(1), res.Version)

	require.Len(t, res.StatusHistory, 1)
	assert.Equal(t, model.StatusPending.String(), res.StatusHistory[0].Status)
}
