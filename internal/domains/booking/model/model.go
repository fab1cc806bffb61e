package model

import (
	"time"

	"github.com/google/uuid"

	"bookery/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID               = "id"
	FieldUserID           = "user_id"
	FieldAgentID          = "agent_id"
	FieldServiceID        = "service_id"
	FieldStatus           = "status"
	FieldPaymentStatus    = "payment_status"
	FieldScheduledDate    = "scheduled_date"
	FieldAmount           = "amount"
	FieldNotes            = "notes"
	FieldAgentNotes       = "agent_notes"
	FieldVersion          = "version"
	FieldLastStatusUpdate = "last_status_update"
)

const (
	HistoryTableName = "booking_status_history"

	HistoryFieldID        = "id"
	HistoryFieldBookingID = "booking_id"
	HistoryFieldStatus    = "status"
	HistoryFieldUpdatedAt = "updated_at"
	HistoryFieldUpdatedBy = "updated_by"
)

type Booking struct {
	ID               string        `db:"id"`
	UserID           string        `db:"user_id"`
	AgentID          string        `db:"agent_id"`
	ServiceID        string        `db:"service_id"`
	Status           Status        `db:"status"`
	PaymentStatus    PaymentStatus `db:"payment_status"`
	ScheduledDate    time.Time     `db:"scheduled_date"`
	Amount           float64       `db:"amount"`
	Notes            string        `db:"notes"`
	AgentNotes       string        `db:"agent_notes"`
	Version          int64         `db:"version"`
	LastStatusUpdate time.Time     `db:"last_status_update"`
	model.Metadata

	// StatusHistory lives in its own table and is loaded separately.
	StatusHistory []StatusChange `db:"-"`
}

type StatusChange struct {
	ID        string    `db:"id"`
	BookingID string    `db:"booking_id"`
	Status    Status    `db:"status"`
	UpdatedAt time.Time `db:"updated_at"`
	UpdatedBy string    `db:"updated_by"`
}

// New creates a booking in its initial state with a one-element status history.
func New(userID, agentID, serviceID string, scheduledDate time.Time, amount float64, notes, createdBy string, now time.Time) Booking {
	id := uuid.NewString()

	return Booking{
		ID:               id,
		UserID:           userID,
		AgentID:          agentID,
		ServiceID:        serviceID,
		Status:           StatusPending,
		PaymentStatus:    PaymentStatusPending,
		ScheduledDate:    scheduledDate,
		Amount:           amount,
		Notes:            notes,
		Version:          1,
		LastStatusUpdate: now,
		Metadata: model.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  createdBy,
			ModifiedBy: createdBy,
		},
		StatusHistory: []StatusChange{
			{
				ID:        uuid.NewString(),
				BookingID: id,
				Status:    StatusPending,
				UpdatedAt: now,
				UpdatedBy: createdBy,
			},
		},
	}
}

// ApplyTransition moves the booking to target and appends the matching history
// entry. The status write and the history append are a single mutation; the
// booking is untouched when the edge is not legal.
func (b *Booking) ApplyTransition(target Status, actorID string, now time.Time) error {
	if err := b.Status.CanTransitionTo(target); err != nil {
		return err
	}

	b.Status = target
	b.LastStatusUpdate = now
	b.ModifiedAt = now
	b.ModifiedBy = actorID
	b.StatusHistory = append(b.StatusHistory, StatusChange{
		ID:        uuid.NewString(),
		BookingID: b.ID,
		Status:    target,
		UpdatedAt: now,
		UpdatedBy: actorID,
	})

	return nil
}

// ApplyPaymentTransition moves the payment status along its own lifecycle,
// independent of the booking status.
func (b *Booking) ApplyPaymentTransition(target PaymentStatus, actorID string, now time.Time) error {
	if err := b.PaymentStatus.CanTransitionTo(target); err != nil {
		return err
	}

	b.PaymentStatus = target
	b.ModifiedAt = now
	b.ModifiedBy = actorID

	return nil
}

// LastChange returns the most recent status history entry.
func (b *Booking) LastChange() StatusChange {
	if len(b.StatusHistory) == 0 {
		return StatusChange{}
	}

	return b.StatusHistory[len(b.StatusHistory)-1]
}
