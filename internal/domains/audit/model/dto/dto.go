package dto

import (
	"bookery/internal/domains/audit/model"
	"bookery/shared"
	"bookery/shared/constant"
	"bookery/shared/timezone"
)

// AuditQuery is the additive filter set for audit trail queries; empty fields
// are left out of the generated WHERE clause.
type AuditQuery struct {
	ActorID    string `json:"actor_id"    validate:"omitempty,uuid"`
	Action     string `json:"action"      validate:"omitempty,max=100"`
	EntityType string `json:"entity_type" validate:"omitempty,max=50"`
	From       string `json:"from"        validate:"omitempty"`
	To         string `json:"to"          validate:"omitempty"`
}

type AuditLogResponse struct {
	ID         string        `json:"id"`
	ActorID    string        `json:"actor_id"`
	Action     string        `json:"action"`
	EntityType string        `json:"entity_type,omitempty"`
	EntityID   string        `json:"entity_id,omitempty"`
	Details    model.Details `json:"details,omitempty"`
	IPAddress  string        `json:"ip_address,omitempty"`
	UserAgent  string        `json:"user_agent,omitempty"`
	CreatedAt  string        `json:"created_at"`
}

func (r *AuditLogResponse) FromModel(entry model.AuditLog) {
	r.ID = entry.ID
	r.ActorID = entry.ActorID
	r.Action = entry.Action
	r.EntityType = entry.EntityType
	r.EntityID = entry.EntityID
	r.Details = entry.Details
	r.IPAddress = entry.IPAddress
	r.UserAgent = entry.UserAgent
	r.CreatedAt = timezone.Format(entry.CreatedAt, constant.DateFormat)
}

type GetAuditLogsResponse struct {
	Logs      []AuditLogResponse `json:"logs"`
	TotalPage int                `json:"total_page"`
	TotalData int                `json:"total_data"`
}

func (r *GetAuditLogsResponse) FromModels(models []model.AuditLog, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Logs = make([]AuditLogResponse, len(models))
	for i, mod := range models {
		r.Logs[i].FromModel(mod)
	}
}
