package model

import (
	"time"

	"github.com/google/uuid"

	"bookery/shared/model"
)

const (
	TableName  = "service_offerings"
	EntityName = "service_offering"

	FieldID              = "id"
	FieldAgentID         = "agent_id"
	FieldName            = "name"
	FieldDescription     = "description"
	FieldCategory        = "category"
	FieldPrice           = "price"
	FieldDurationMinutes = "duration_minutes"
	FieldActive          = "active"
)

// Offering is a bookable service published by an agent.
type Offering struct {
	ID              string  `db:"id"`
	AgentID         string  `db:"agent_id"`
	Name            string  `db:"name"`
	Description     string  `db:"description"`
	Category        string  `db:"category"`
	Price           float64 `db:"price"`
	DurationMinutes int     `db:"duration_minutes"`
	Active          bool    `db:"active"`
	model.Metadata
}

func New(agentID, name, description, category string, price float64, durationMinutes int, createdBy string, now time.Time) Offering {
	return Offering{
		ID:              uuid.NewString(),
		AgentID:         agentID,
		Name:            name,
		Description:     description,
		Category:        category,
		Price:           price,
		DurationMinutes: durationMinutes,
		Active:          true,
		Metadata: model.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  createdBy,
			ModifiedBy: createdBy,
		},
	}
}
