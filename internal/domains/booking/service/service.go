package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"bookery/config"
	"bookery/infras/kafka"
	"bookery/infras/otel"
	"bookery/infras/postgres"
	auditModel "bookery/internal/domains/audit/model"
	auditService "bookery/internal/domains/audit/service"
	"bookery/internal/domains/booking/model"
	"bookery/internal/domains/booking/model/dto"
	"bookery/internal/domains/booking/repository"
	offeringModel "bookery/internal/domains/offering/model"
	offeringRepo "bookery/internal/domains/offering/repository"
	"bookery/permissions"
	"bookery/shared"
	"bookery/shared/cache"
	"bookery/shared/constant"
	gDto "bookery/shared/dto"
	"bookery/shared/failure"
	"bookery/shared/timezone"
)

const (
	cacheGetBooking    = "booking:get"
	cacheGetAllBooking = "booking:gets"
	cacheCountBooking  = "booking:count"
)

const (
	eventBookingCreated        = "booking.created"
	eventBookingStatusChanged  = "booking.status_changed"
	eventBookingPaymentUpdated = "booking.payment_updated"
)

// BookingEvent is the payload published after a successful lifecycle mutation.
type BookingEvent struct {
	Type          string `json:"type"`
	BookingID     string `json:"booking_id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	ActorID       string `json:"actor_id"`
	OccurredAt    string `json:"occurred_at"`
}

type Booking interface {
	Create(ctx context.Context, principal permissions.Principal, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	Get(ctx context.Context, principal permissions.Principal, id string) (dto.BookingResponse, error)
	GetAll(ctx context.Context, principal permissions.Principal, params gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Transition(ctx context.Context, principal permissions.Principal, id string, req dto.TransitionBookingRequest) (dto.BookingResponse, error)
	UpdatePayment(ctx context.Context, principal permissions.Principal, id string, req dto.UpdatePaymentRequest) (dto.BookingResponse, error)
	Update(ctx context.Context, principal permissions.Principal, req dto.UpdateBookingRequest, id string) error
}

type serviceImpl struct {
	repo      repository.Booking
	offerings offeringRepo.Offering
	audit     auditService.Audit
	gate      *permissions.Gate
	publisher kafka.Publisher
	cfg       *config.Config
	cache     cache.RedisCache
	otel      otel.Otel
}

func New(
	repo repository.Booking,
	offerings offeringRepo.Offering,
	audit auditService.Audit,
	gate *permissions.Gate,
	publisher kafka.Publisher,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:      repo,
		offerings: offerings,
		audit:     audit,
		gate:      gate,
		publisher: publisher,
		cfg:       cfg,
		cache:     cache,
		otel:      otel,
	}
}

// Create opens a booking in its initial pending state. Plain users always book
// for themselves; administrators may book on behalf of another customer.
func (s *serviceImpl) Create(ctx context.Context, principal permissions.Principal, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	resource := permissions.Resource{Kind: permissions.ResourceBooking, OwnerID: principal.ID}
	if !s.gate.Check(principal, resource, permissions.ActionCreate).Allowed() {
		if err = s.audit.RecordDenial(ctx, principal, resource, permissions.ActionCreate); err != nil {
			return res, err
		}

		return res, failure.ForbiddenError //nolint:wrapcheck
	}

	exists, err := s.offerings.Exist(ctx, shared.FilterByID(req.ServiceID, offeringModel.FieldID, offeringModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if service offering exists")

		return res, fmt.Errorf("failed to check if service offering exists: %w", err)
	}

	if !exists {
		return res, failure.BadRequestFromString("service offering does not exist") //nolint:wrapcheck
	}

	if principal.Role == constant.RoleUser {
		req.UserID = principal.ID
	}

	booking, err := req.ToModel(principal.ID, timezone.Now())
	if err != nil {
		return res, err
	}

	pctx, cancel := postgres.WithStatementTimeout(ctx, s.cfg)
	defer cancel()

	if err = s.repo.Insert(pctx, booking); err != nil {
		log.Error().Err(err).Msg("failed to create booking")

		return res, persistFailure(err, "failed to create booking")
	}

	s.recordBookingAudit(ctx, principal, auditModel.ActionBookingCreated, booking, auditModel.Details{
		"status":     booking.Status.String(),
		"agent_id":   booking.AgentID,
		"service_id": booking.ServiceID,
	})

	s.publishEvent(ctx, eventBookingCreated, booking, principal.ID)

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)
	}()

	res.FromModel(booking)

	return res, nil
}

// Get returns a single booking with its status history. Customers and agents
// only see bookings they own a side of.
func (s *serviceImpl) Get(ctx context.Context, principal permissions.Principal, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err != nil {
		booking, err := s.repo.GetWithHistory(ctx, id)
		if err != nil {
			log.Error().Err(err).Msg("failed to get booking")

			return res, fmt.Errorf("failed to get booking: %w", err)
		}

		if booking.ID == constant.Empty {
			return res, failure.NotFound("booking not found") //nolint:wrapcheck
		}

		res.FromModel(booking)

		go func() {
			c := context.WithoutCancel(ctx)

			if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
				log.Error().Err(err).Msg("failed to save booking to cache")
			}
		}()
	} else {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking")
	}

	resource := responseResource(principal, res)
	if !s.gate.Check(principal, resource, permissions.ActionRead).Allowed() {
		if err = s.audit.RecordDenial(ctx, principal, resource, permissions.ActionRead); err != nil {
			return dto.BookingResponse{}, err
		}

		return dto.BookingResponse{}, failure.ForbiddenError //nolint:wrapcheck
	}

	return res, nil
}

// GetAll lists bookings. The visible set narrows by role before the query
// runs: customers see their own bookings, agents the ones assigned to them,
// administrators everything.
func (s *serviceImpl) GetAll(ctx context.Context, principal permissions.Principal, params gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	resource := permissions.Resource{Kind: permissions.ResourceBooking, OwnerID: principal.ID}
	if !s.gate.Check(principal, resource, permissions.ActionRead).Allowed() {
		if err = s.audit.RecordDenial(ctx, principal, resource, permissions.ActionRead); err != nil {
			return res, err
		}

		return res, failure.ForbiddenError //nolint:wrapcheck
	}

	filter = narrowByRole(principal, filter)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, params, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

// Transition moves a booking along its lifecycle. A customer cancelling their
// own booking is a distinct capability from an agent driving the lifecycle,
// so the two map to different gate actions.
func (s *serviceImpl) Transition(ctx context.Context, principal permissions.Principal, id string, req dto.TransitionBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Transition")
	defer scope.End()
	defer scope.TraceIfError(err)

	target, err := model.ParseStatus(req.Status)
	if err != nil {
		return res, err
	}

	booking, err := s.loadForMutation(ctx, id)
	if err != nil {
		return res, err
	}

	action := permissions.ActionTransition
	if target == model.StatusCancelled && principal.Role == constant.RoleUser {
		action = permissions.ActionCancel
	}

	resource := bookingResource(principal, booking)
	if !s.gate.Check(principal, resource, action).Allowed() {
		if err = s.audit.RecordDenial(ctx, principal, resource, action); err != nil {
			return res, err
		}

		return res, failure.ForbiddenError //nolint:wrapcheck
	}

	from := booking.Status
	expectedVersion := booking.Version

	if err = booking.ApplyTransition(target, principal.ID, timezone.Now()); err != nil {
		return res, err
	}

	pctx, cancel := postgres.WithStatementTimeout(ctx, s.cfg)
	defer cancel()

	if err = s.repo.SaveStatus(pctx, booking, expectedVersion); err != nil {
		log.Error().Err(err).Str("bookingID", id).Msg("failed to save booking status")

		return res, persistFailure(err, "failed to save booking status")
	}

	booking.Version = expectedVersion + 1

	s.recordBookingAudit(ctx, principal, auditModel.ActionBookingStatusChanged, booking, auditModel.Details{
		"from": from.String(),
		"to":   target.String(),
	})

	s.publishEvent(ctx, eventBookingStatusChanged, booking, principal.ID)
	s.invalidateBookingCaches(ctx, id)

	res.FromModel(booking)

	return res, nil
}

// UpdatePayment moves the payment status along its own lifecycle, guarded by
// the same version check as status transitions.
func (s *serviceImpl) UpdatePayment(ctx context.Context, principal permissions.Principal, id string, req dto.UpdatePaymentRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.UpdatePayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	target, err := model.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		return res, err
	}

	booking, err := s.loadForMutation(ctx, id)
	if err != nil {
		return res, err
	}

	resource := bookingResource(principal, booking)
	if !s.gate.Check(principal, resource, permissions.ActionUpdatePayment).Allowed() {
		if err = s.audit.RecordDenial(ctx, principal, resource, permissions.ActionUpdatePayment); err != nil {
			return res, err
		}

		return res, failure.ForbiddenError //nolint:wrapcheck
	}

	from := booking.PaymentStatus
	expectedVersion := booking.Version

	if err = booking.ApplyPaymentTransition(target, principal.ID, timezone.Now()); err != nil {
		return res, err
	}

	pctx, cancel := postgres.WithStatementTimeout(ctx, s.cfg)
	defer cancel()

	if err = s.repo.SavePayment(pctx, booking, expectedVersion); err != nil {
		log.Error().Err(err).Str("bookingID", id).Msg("failed to save booking payment status")

		return res, persistFailure(err, "failed to save booking payment status")
	}

	booking.Version = expectedVersion + 1

	s.recordBookingAudit(ctx, principal, auditModel.ActionBookingPaymentUpdated, booking, auditModel.Details{
		"from": from.String(),
		"to":   target.String(),
	})

	s.publishEvent(ctx, eventBookingPaymentUpdated, booking, principal.ID)
	s.invalidateBookingCaches(ctx, id)

	res.FromModel(booking)

	return res, nil
}

// Update patches non-lifecycle booking fields. Status and payment status never
// move through here.
func (s *serviceImpl) Update(ctx context.Context, principal permissions.Principal, req dto.UpdateBookingRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req == (dto.UpdateBookingRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty") //nolint:wrapcheck
	}

	booking, err := s.loadForMutation(ctx, id)
	if err != nil {
		return err
	}

	resource := bookingResource(principal, booking)
	if !s.gate.Check(principal, resource, permissions.ActionUpdate).Allowed() {
		if err = s.audit.RecordDenial(ctx, principal, resource, permissions.ActionUpdate); err != nil {
			return err
		}

		return failure.ForbiddenError //nolint:wrapcheck
	}

	updatedFields := shared.TransformFields(req, principal.ID)

	if req.ScheduledDate != "" {
		scheduledDate, err := timezone.Parse(constant.ScheduleDateFormat, req.ScheduledDate)
		if err != nil {
			return failure.BadRequestFromString(fmt.Sprintf("invalid scheduled date: %v", err)) //nolint:wrapcheck
		}

		updatedFields[model.FieldScheduledDate] = scheduledDate
	}

	changed := changedFields(updatedFields)

	pctx, cancel := postgres.WithStatementTimeout(ctx, s.cfg)
	defer cancel()

	if err = s.repo.SaveDetails(pctx, id, updatedFields, booking.Version); err != nil {
		log.Error().Err(err).Str("bookingID", id).Msg("failed to update booking")

		return persistFailure(err, "failed to update booking")
	}

	s.recordBookingAudit(ctx, principal, auditModel.ActionBookingUpdated, booking, auditModel.Details{
		"fields": changed,
	})

	s.invalidateBookingCaches(ctx, id)

	return nil
}

// changedFields lists the patched columns for the audit entry, without the
// modification metadata stamped on every write.
func changedFields(updatedFields map[string]any) []string {
	changed := make([]string, 0, len(updatedFields))

	for field := range updatedFields {
		if field == constant.FieldModifiedAt || field == constant.FieldModifiedBy {
			continue
		}

		changed = append(changed, field)
	}

	slices.Sort(changed)

	return changed
}

func (s *serviceImpl) loadForMutation(ctx context.Context, id string) (model.Booking, error) {
	booking, err := s.repo.GetWithHistory(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("bookingID", id).Msg("failed to load booking")

		return booking, fmt.Errorf("failed to load booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return booking, failure.NotFound("booking not found") //nolint:wrapcheck
	}

	return booking, nil
}

// recordBookingAudit appends the business audit entry. A failed write is
// logged and swallowed so the already-committed mutation is never rolled into
// an error response.
func (s *serviceImpl) recordBookingAudit(ctx context.Context, principal permissions.Principal, action string, booking model.Booking, details auditModel.Details) {
	entry := auditModel.New(principal.ID, action, auditModel.EntityTypeBooking, booking.ID, details, timezone.Now())

	if err := s.audit.Record(ctx, entry); err != nil {
		log.Error().Err(err).Str("bookingID", booking.ID).Str("action", action).Msg("audit entry lost for booking mutation")
	}
}

func (s *serviceImpl) publishEvent(ctx context.Context, eventType string, booking model.Booking, actorID string) {
	if !s.cfg.Kafka.Enable {
		return
	}

	event := BookingEvent{
		Type:          eventType,
		BookingID:     booking.ID,
		Status:        booking.Status.String(),
		PaymentStatus: booking.PaymentStatus.String(),
		ActorID:       actorID,
		OccurredAt:    timezone.Format(timezone.Now(), constant.DateFormat),
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.publisher.SendMessages(c, s.cfg.Kafka.Topic.BookingEvents, kafka.Message{
			Key:   booking.ID,
			Value: event,
		}); err != nil {
			log.Error().Err(err).Str("bookingID", booking.ID).Str("type", eventType).Msg("failed to publish booking event")
		}
	}()
}

func (s *serviceImpl) invalidateBookingCaches(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)
	}()
}

// bookingResource maps a booking onto the side of it the principal may own.
// Agents own the agent side, everyone else the customer side.
func bookingResource(principal permissions.Principal, booking model.Booking) permissions.Resource {
	ownerID := booking.UserID
	if principal.Role == constant.RoleAgent {
		ownerID = booking.AgentID
	}

	return permissions.Resource{Kind: permissions.ResourceBooking, OwnerID: ownerID}
}

func responseResource(principal permissions.Principal, res dto.BookingResponse) permissions.Resource {
	ownerID := res.UserID
	if principal.Role == constant.RoleAgent {
		ownerID = res.AgentID
	}

	return permissions.Resource{Kind: permissions.ResourceBooking, OwnerID: ownerID}
}

func narrowByRole(principal permissions.Principal, filter gDto.FilterGroup) gDto.FilterGroup {
	var field string

	switch principal.Role {
	case constant.RoleUser:
		field = model.FieldUserID
	case constant.RoleAgent:
		field = model.FieldAgentID
	default:
		return filter
	}

	ownership := gDto.Filter{
		ArgName:  "owner_" + field,
		Field:    field,
		Operator: gDto.FilterOperatorEq,
		Value:    principal.ID,
		Table:    model.TableName,
	}

	filters := []any{ownership}
	if len(filter.Filters) > 0 {
		filters = append(filters, filter)
	}

	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  filters,
	}
}

func persistFailure(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return failure.Timeout(msg) //nolint:wrapcheck
	}

	return fmt.Errorf("%s: %w", msg, err)
}
