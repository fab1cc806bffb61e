package dto

import (
	"fmt"
	"time"

	"bookery/internal/domains/booking/model"
	"bookery/shared"
	"bookery/shared/constant"
	gDto "bookery/shared/dto"
	"bookery/shared/failure"
	"bookery/shared/timezone"
)

type CreateBookingRequest struct {
	UserID        string  `json:"user_id"        validate:"omitempty,uuid"`
	AgentID       string  `json:"agent_id"       validate:"required,uuid"`
	ServiceID     string  `json:"service_id"     validate:"required,uuid"`
	ScheduledDate string  `json:"scheduled_date" validate:"required"`
	Amount        float64 `json:"amount"         validate:"required,gte=0"`
	Notes         string  `json:"notes"          validate:"omitempty,max=2000"`
}

// ToModel builds a new pending booking. The booking is owned by the request's
// user_id when an admin books on behalf of a customer, otherwise by the actor.
func (c *CreateBookingRequest) ToModel(actorID string, now time.Time) (model.Booking, error) {
	scheduledDate, err := timezone.Parse(constant.ScheduleDateFormat, c.ScheduledDate)
	if err != nil {
		return model.Booking{}, failure.BadRequestFromString(fmt.Sprintf("invalid scheduled date: %v", err)) //nolint:wrapcheck
	}

	userID := c.UserID
	if userID == "" {
		userID = actorID
	}

	return model.New(userID, c.AgentID, c.ServiceID, scheduledDate, c.Amount, c.Notes, actorID, now), nil
}

type TransitionBookingRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed completed cancelled"`
}

type UpdatePaymentRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=paid refunded"`
}

type UpdateBookingRequest struct {
	ScheduledDate string  `json:"scheduled_date" validate:"omitempty"`
	Amount        float64 `db:"amount"           json:"amount"      validate:"omitempty,gte=0"`
	Notes         string  `db:"notes"            json:"notes"       validate:"omitempty,max=2000"`
	AgentNotes    string  `db:"agent_notes"      json:"agent_notes" validate:"omitempty,max=2000"`
}

type StatusChangeResponse struct {
	Status    string `json:"status"`
	UpdatedAt string `json:"updated_at"`
	UpdatedBy string `json:"updated_by"`
}

type BookingResponse struct {
	ID               string                 `json:"id"`
	UserID           string                 `json:"user_id"`
	AgentID          string                 `json:"agent_id"`
	ServiceID        string                 `json:"service_id"`
	Status           string                 `json:"status"`
	PaymentStatus    string                 `json:"payment_status"`
	ScheduledDate    string                 `json:"scheduled_date"`
	Amount           float64                `json:"amount"`
	Notes            string                 `json:"notes"`
	AgentNotes       string                 `json:"agent_notes"`
	Version          int64                  `json:"version"`
	LastStatusUpdate string                 `json:"last_status_update"`
	StatusHistory    []StatusChangeResponse `json:"status_history,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(booking model.Booking) {
	r.ID = booking.ID
	r.UserID = booking.UserID
	r.AgentID = booking.AgentID
	r.ServiceID = booking.ServiceID
	r.Status = booking.Status.String()
	r.PaymentStatus = booking.PaymentStatus.String()
	r.ScheduledDate = timezone.Format(booking.ScheduledDate, constant.ScheduleDateFormat)
	r.Amount = booking.Amount
	r.Notes = booking.Notes
	r.AgentNotes = booking.AgentNotes
	r.Version = booking.Version
	r.LastStatusUpdate = timezone.Format(booking.LastStatusUpdate, constant.DateFormat)
	r.Metadata.FromModel(booking.Metadata)

	r.StatusHistory = make([]StatusChangeResponse, len(booking.StatusHistory))
	for i, change := range booking.StatusHistory {
		r.StatusHistory[i] = StatusChangeResponse{
			Status:    change.Status.String(),
			UpdatedAt: timezone.Format(change.UpdatedAt, constant.DateFormat),
			UpdatedBy: change.UpdatedBy,
		}
	}
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}
