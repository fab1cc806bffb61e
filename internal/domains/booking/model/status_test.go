package model_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"bookery/internal/domains/booking/model"
	"bookery/shared/failure"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     model.Status
		to       model.Status
		wantCode int
	}{
		{name: "pending to confirmed", from: model.StatusPending, to: model.StatusConfirmed},
		{name: "pending to cancelled", from: model.StatusPending, to: model.StatusCancelled},
		{name: "confirmed to completed", from: model.StatusConfirmed, to: model.StatusCompleted},
		{name: "confirmed to cancelled", from: model.StatusConfirmed, to: model.StatusCancelled},
		{name: "pending to completed skips confirmation", from: model.StatusPending, to: model.StatusCompleted, wantCode: http.StatusUnprocessableEntity},
		{name: "confirmed back to pending", from: model.StatusConfirmed, to: model.StatusPending, wantCode: http.StatusUnprocessableEntity},
		{name: "completed is terminal", from: model.StatusCompleted, to: model.StatusCancelled, wantCode: http.StatusUnprocessableEntity},
		{name: "cancelled is terminal", from: model.StatusCancelled, to: model.StatusConfirmed, wantCode: http.StatusUnprocessableEntity},
		{name: "same status is not a transition", from: model.StatusPending, to: model.StatusPending, wantCode: http.StatusUnprocessableEntity},
		{name: "unknown target", from: model.StatusPending, to: model.Status("archived"), wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.from.CanTransitionTo(tt.to)

			if tt.wantCode == 0 {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			}
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, model.StatusPending.Terminal())
	assert.False(t, model.StatusConfirmed.Terminal())
	assert.True(t, model.StatusCompleted.Terminal())
	assert.True(t, model.StatusCancelled.Terminal())
}

func TestParseStatus(t *testing.T) {
	status, err := model.ParseStatus("confirmed")

	assert.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, status)

	_, err = model.ParseStatus("archived")

	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
}

func TestPaymentStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     model.PaymentStatus
		to       model.PaymentStatus
		wantCode int
	}{
		{name: "pending to paid", from: model.PaymentStatusPending, to: model.PaymentStatusPaid},
		{name: "paid to refunded", from: model.PaymentStatusPaid, to: model.PaymentStatusRefunded},
		{name: "pending to refunded skips payment", from: model.PaymentStatusPending, to: model.PaymentStatusRefunded, wantCode: http.StatusUnprocessableEntity},
		{name: "refunded is terminal", from: model.PaymentStatusRefunded, to: model.PaymentStatusPaid, wantCode: http.StatusUnprocessableEntity},
		{name: "unknown target", from: model.PaymentStatusPending, to: model.PaymentStatus("voided"), wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.from.CanTransitionTo(tt.to)

			if tt.wantCode == 0 {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))
			}
		})
	}
}

func TestParsePaymentStatus(t *testing.T) {
	status, err := model.ParsePaymentStatus("paid")

	assert.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, status)

	_, err = model.ParsePaymentStatus("voided")

	assert.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
}
