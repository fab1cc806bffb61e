package offering

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"bookery/infras/otel"
	"bookery/internal/domains/offering/model"
	"bookery/internal/domains/offering/model/dto"
	"bookery/internal/domains/offering/service"
	"bookery/permissions"
	"bookery/shared/constant"
	gDto "bookery/shared/dto"
	"bookery/shared/validator"
	"bookery/transport/http/response"
)

type Handler struct {
	service service.Offering
	otel    otel.Otel
}

func New(service service.Offering, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/offerings", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateOffering)
		routerGroup.Get("/", handler.GetOfferings)
		routerGroup.Get("/{id}", handler.GetOfferingByID)
		routerGroup.Patch("/{id}", handler.UpdateOffering)
		routerGroup.Delete("/{id}", handler.DeleteOffering)
	})
}

// CreateOffering publishes a new service offering.
// @Summary Create a service offering
// @Description Publish a new bookable service under the acting agent's account.
// @Tags Offering
// @Accept json
// @Produce json
// @Param request body dto.CreateOfferingRequest true "Create Offering Request"
// @Success 201 {object} response.Data[dto.OfferingResponse] "Created offering"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Router /v1/offerings [post]
// @Security BearerAuth
func (handler *Handler) CreateOffering(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateOffering")
	defer scope.End()

	req := dto.CreateOfferingRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	principal := permissions.FromContext(ctx)

	offering, err := handler.service.Create(ctx, principal, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create offering")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Offering created successfully by user " + principal.ID)

	response.WithJSON(writer, http.StatusCreated, offering)
}

// GetOfferings lists the service catalog.
// @Summary Get service offerings
// @Description List offerings with optional filtering and pagination.
// @Tags Offering
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param agent_id query string false "Filter by agent ID"
// @Param category query string false "Filter by category"
// @Success 200 {object} response.Data[dto.GetOfferingsResponse] "List of offerings"
// @Failure 400 {object} response.Error
// @Router /v1/offerings [get]
func (handler *Handler) GetOfferings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetOfferings")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	for _, field := range []string{model.FieldAgentID, model.FieldCategory} {
		if value := r.URL.Query().Get(field); value != "" {
			filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
				Field:    field,
				Operator: gDto.FilterOperatorEq,
				Value:    value,
				Table:    model.TableName,
			})
		}
	}

	offerings, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get offerings")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Offerings retrieved successfully")

	response.WithJSON(w, http.StatusOK, offerings)
}

// GetOfferingByID retrieves an offering by its ID.
// @Summary Get a service offering by ID
// @Tags Offering
// @Accept json
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Data[dto.OfferingResponse] "Offering details"
// @Failure 404 {object} response.Error
// @Router /v1/offerings/{id} [get]
func (handler *Handler) GetOfferingByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetOfferingByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	offering, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get offering by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Offering retrieved successfully")

	response.WithJSON(w, http.StatusOK, offering)
}

// UpdateOffering updates an existing offering.
// @Summary Update a service offering
// @Description Update offering details. Agents may only update their own offerings.
// @Tags Offering
// @Accept json
// @Produce json
// @Param id path string true "Offering ID"
// @Param request body dto.UpdateOfferingRequest true "Update Offering Request"
// @Success 200 {object} response.Message "Offering updated successfully"
// @Failure 400 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/offerings/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateOffering(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateOffering")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateOfferingRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	principal := permissions.FromContext(ctx)

	if err := handler.service.Update(ctx, principal, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update offering")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Offering updated successfully by user " + principal.ID)

	response.WithMessage(w, http.StatusOK, "Offering updated successfully")
}

// DeleteOffering removes an offering from the catalog.
// @Summary Delete a service offering
// @Description Retire an offering. Agents may only delete their own offerings.
// @Tags Offering
// @Accept json
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Message "Offering deleted successfully"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/offerings/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteOffering(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteOffering")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	principal := permissions.FromContext(ctx)

	if err := handler.service.Delete(ctx, principal, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete offering")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Offering deleted successfully by user " + principal.ID)

	response.WithMessage(w, http.StatusOK, "Offering deleted successfully")
}
