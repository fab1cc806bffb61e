package model

import (
	"fmt"

	"bookery/shared/failure"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// statusTransitions is the full booking lifecycle. Statuses with no outgoing
// edges are terminal.
var statusTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

func ParseStatus(value string) (Status, error) {
	status := Status(value)
	if _, ok := statusTransitions[status]; !ok {
		return "", failure.BadRequestFromString(fmt.Sprintf("unknown booking status: %s", value)) //nolint:wrapcheck
	}

	return status, nil
}

func (s Status) String() string {
	return string(s)
}

// Terminal reports whether the status has no outgoing transitions.
func (s Status) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

// CanTransitionTo returns nil when target is reachable from s in one step.
func (s Status) CanTransitionTo(target Status) error {
	if _, ok := statusTransitions[target]; !ok {
		return failure.BadRequestFromString(fmt.Sprintf("unknown booking status: %s", target)) //nolint:wrapcheck
	}

	for _, next := range statusTransitions[s] {
		if next == target {
			return nil
		}
	}

	return failure.UnprocessableEntity(fmt.Sprintf("invalid booking transition: %s -> %s", s, target)) //nolint:wrapcheck
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:  {PaymentStatusPaid},
	PaymentStatusPaid:     {PaymentStatusRefunded},
	PaymentStatusRefunded: {},
}

func ParsePaymentStatus(value string) (PaymentStatus, error) {
	status := PaymentStatus(value)
	if _, ok := paymentTransitions[status]; !ok {
		return "", failure.BadRequestFromString(fmt.Sprintf("unknown payment status: %s", value)) //nolint:wrapcheck
	}

	return status, nil
}

func (s PaymentStatus) String() string {
	return string(s)
}

// CanTransitionTo returns nil when target is reachable from s in one step.
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) error {
	if _, ok := paymentTransitions[target]; !ok {
		return failure.BadRequestFromString(fmt.Sprintf("unknown payment status: %s", target)) //nolint:wrapcheck
	}

	for _, next := range paymentTransitions[s] {
		if next == target {
			return nil
		}
	}

	return failure.UnprocessableEntity(fmt.Sprintf("invalid payment transition: %s -> %s", s, target)) //nolint:wrapcheck
}
