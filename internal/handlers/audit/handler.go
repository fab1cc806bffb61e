package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"bookery/infras/otel"
	"bookery/internal/domains/audit/model/dto"
	"bookery/internal/domains/audit/service"
	"bookery/permissions"
	"bookery/shared/constant"
	gDto "bookery/shared/dto"
	"bookery/shared/validator"
	"bookery/transport/http/response"
)

type Handler struct {
	service service.Audit
	otel    otel.Otel
}

func New(service service.Audit, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/audit-logs", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetAuditLogs)
		routerGroup.Post("/purge", handler.PurgeAuditLogs)
	})
}

// GetAuditLogs queries the audit trail.
// @Summary Query the audit trail
// @Description List audit entries matching the additive filter set. Administrators only.
// @Tags Audit
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param actor_id query string false "Filter by actor ID"
// @Param action query string false "Filter by action"
// @Param entity_type query string false "Filter by entity type"
// @Param from query string false "Entries created at or after (RFC 3339)"
// @Param to query string false "Entries created at or before (RFC 3339)"
// @Success 200 {object} response.Data[dto.GetAuditLogsResponse] "List of audit entries"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Router /v1/audit-logs [get]
// @Security BearerAuth
func (handler *Handler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetAuditLogs")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	query := dto.AuditQuery{
		ActorID:    r.URL.Query().Get("actor_id"),
		Action:     r.URL.Query().Get("action"),
		EntityType: r.URL.Query().Get("entity_type"),
		From:       r.URL.Query().Get("from"),
		To:         r.URL.Query().Get("to"),
	}

	if err := validator.ValidateStruct(&query); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate audit query")

		response.WithError(w, err)

		return
	}

	logs, err := handler.service.Query(ctx, permissions.FromContext(ctx), queryParams, query)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to query audit logs")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Audit logs retrieved successfully")

	response.WithJSON(w, http.StatusOK, logs)
}

// PurgeAuditLogs deletes entries older than the retention window.
// @Summary Purge expired audit entries
// @Description Delete audit entries older than the configured retention window. Administrators only.
// @Tags Audit
// @Produce json
// @Success 200 {object} response.Message "Expired entries deleted"
// @Failure 403 {object} response.Error
// @Router /v1/audit-logs/purge [post]
// @Security BearerAuth
func (handler *Handler) PurgeAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".PurgeAuditLogs")
	defer scope.End()

	if err := handler.service.Purge(ctx, permissions.FromContext(ctx)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to purge audit logs")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Audit logs purged successfully")

	response.WithMessage(w, http.StatusOK, "Audit logs purged successfully")
}
