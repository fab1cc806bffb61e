package dto

import (
	"time"

	"bookery/internal/domains/offering/model"
	"bookery/shared"
	gDto "bookery/shared/dto"
)

type CreateOfferingRequest struct {
	AgentID         string  `json:"agent_id"         validate:"omitempty,uuid"`
	Name            string  `json:"name"             validate:"required,max=200"`
	Description     string  `json:"description"      validate:"omitempty,max=2000"`
	Category        string  `json:"category"         validate:"omitempty,max=100"`
	Price           float64 `json:"price"            validate:"required,gte=0"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gt=0"`
}

// ToModel builds the offering. Agents always publish under their own account;
// the agent_id field only matters when an administrator creates on behalf.
func (c *CreateOfferingRequest) ToModel(actorID string, now time.Time) model.Offering {
	agentID := c.AgentID
	if agentID == "" {
		agentID = actorID
	}

	return model.New(agentID, c.Name, c.Description, c.Category, c.Price, c.DurationMinutes, actorID, now)
}

type UpdateOfferingRequest struct {
	Name            string  `db:"name"             json:"name"             validate:"omitempty,max=200"`
	Description     string  `db:"description"      json:"description"      validate:"omitempty,max=2000"`
	Category        string  `db:"category"         json:"category"         validate:"omitempty,max=100"`
	Price           float64 `db:"price"            json:"price"            validate:"omitempty,gte=0"`
	DurationMinutes int     `db:"duration_minutes" json:"duration_minutes" validate:"omitempty,gt=0"`
}

type OfferingResponse struct {
	ID              string  `json:"id"`
	AgentID         string  `json:"agent_id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
	Active          bool    `json:"active"`
	gDto.Metadata
}

func (r *OfferingResponse) FromModel(offering model.Offering) {
	r.ID = offering.ID
	r.AgentID = offering.AgentID
	r.Name = offering.Name
	r.Description = offering.Description
	r.Category = offering.Category
	r.Price = offering.Price
	r.DurationMinutes = offering.DurationMinutes
	r.Active = offering.Active
	r.Metadata.FromModel(offering.Metadata)
}

type GetOfferingsResponse struct {
	Offerings []OfferingResponse `json:"offerings"`
	TotalPage int                `json:"total_page"`
	TotalData int                `json:"total_data"`
}

func (r *GetOfferingsResponse) FromModels(models []model.Offering, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Offerings = make([]OfferingResponse, len(models))
	for i, mod := range models {
		r.Offerings[i].FromModel(mod)
	}
}
