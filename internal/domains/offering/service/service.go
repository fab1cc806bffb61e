package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"bookery/config"
	"bookery/infras/otel"
	"bookery/infras/postgres"
	auditModel "bookery/internal/domains/audit/model"
	auditService "bookery/internal/domains/audit/service"
	"bookery/internal/domains/offering/model"
	"bookery/internal/domains/offering/model/dto"
	"bookery/internal/domains/offering/repository"
	"bookery/permissions"
	"bookery/shared"
	"bookery/shared/cache"
	"bookery/shared/constant"
	gDto "bookery/shared/dto"
	"bookery/shared/failure"
	"bookery/shared/timezone"
)

const (
	cacheGetOffering    = "offering:get"
	cacheGetAllOffering = "offering:gets"
	cacheCountOffering  = "offering:count"
)

type Offering interface {
	Create(ctx context.Context, principal permissions.Principal, req dto.CreateOfferingRequest) (dto.OfferingResponse, error)
	Get(ctx context.Context, id string) (dto.OfferingResponse, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (dto.GetOfferingsResponse, error)
	Update(ctx context.Context, principal permissions.Principal, req dto.UpdateOfferingRequest, id string) error
	Delete(ctx context.Context, principal permissions.Principal, id string) error
}

type serviceImpl struct {
	repo  repository.Offering
	audit auditService.Audit
	gate  *permissions.Gate
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.Offering, audit auditService.Audit, gate *permissions.Gate, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Offering {
	return &serviceImpl{
		repo:  repo,
		audit: audit,
		gate:  gate,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

// Create publishes a new offering under the acting agent's account.
func (s *serviceImpl) Create(ctx context.Context, principal permissions.Principal, req dto.CreateOfferingRequest) (res dto.OfferingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".offering.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	resource := permissions.Resource{Kind: permissions.ResourceService, OwnerID: principal.ID}
	if !s.gate.Check(principal, resource, permissions.ActionCreate).Allowed() {
		if err = s.audit.RecordDenial(ctx, principal, resource, permissions.ActionCreate); err != nil {
			return res, err
		}

		return res, failure.ForbiddenError //nolint:wrapcheck
	}

	if principal.Role == constant.RoleAgent {
		req.AgentID = principal.ID
	}

	offering := req.ToModel(principal.ID, timezone.Now())

	pctx, cancel := postgres.WithStatementTimeout(ctx, s.cfg)
	defer cancel()

	if err = s.repo.Insert(pctx, offering); err != nil {
		log.Error().Err(err).Msg("failed to create offering")

		return res, fmt.Errorf("failed to create offering: %w", err)
	}

	s.recordOfferingAudit(ctx, principal, auditModel.ActionServiceCreated, offering.ID, auditModel.Details{
		"name":     offering.Name,
		"agent_id": offering.AgentID,
	})

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllOffering)
		shared.InvalidateCaches(c, s.cache, cacheCountOffering)
	}()

	res.FromModel(offering)

	return res, nil
}

// Get returns a single offering. The catalog is readable by every role, so no
// gate check happens here.
func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.OfferingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".offering.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetOffering, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for offering")

		return res, nil
	}

	offering, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get offering")

		return res, fmt.Errorf("failed to get offering: %w", err)
	}

	if offering.ID == constant.Empty {
		return res, failure.NotFound("offering not found") //nolint:wrapcheck
	}

	res.FromModel(offering)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save offering to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetOfferingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".offering.GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllOffering, params, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for offerings")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count offerings")

		return res, fmt.Errorf("failed to count offerings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get offerings")

		return res, fmt.Errorf("failed to get offerings: %w", err)
	}

	res.FromModels(models, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save offerings to cache")
		}
	}()

	return res, nil
}

// Update patches offering fields. Agents only touch their own offerings.
func (s *serviceImpl) Update(ctx context.Context, principal permissions.Principal, req dto.UpdateOfferingRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".offering.Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req == (dto.UpdateOfferingRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty") //nolint:wrapcheck
	}

	offering, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	resource := permissions.Resource{Kind: permissions.ResourceService, OwnerID: offering.AgentID}
	if !s.gate.Check(principal, resource, permissions.ActionUpdate).Allowed() {
		if err = s.audit.RecordDenial(ctx, principal, resource, permissions.ActionUpdate); err != nil {
			return err
		}

		return failure.ForbiddenError //nolint:wrapcheck
	}

	updatedFields := shared.TransformFields(req, principal.ID)

	pctx, cancel := postgres.WithStatementTimeout(ctx, s.cfg)
	defer cancel()

	if err = s.repo.Update(pctx, updatedFields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Str("offeringID", id).Msg("failed to update offering")

		return fmt.Errorf("failed to update offering: %w", err)
	}

	s.recordOfferingAudit(ctx, principal, auditModel.ActionServiceUpdated, id, auditModel.Details{
		"fields": fieldNames(updatedFields),
	})

	s.invalidateOfferingCaches(ctx, id)

	return nil
}

// Delete retires an offering from the catalog. Existing bookings keep their
// service reference.
func (s *serviceImpl) Delete(ctx context.Context, principal permissions.Principal, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".offering.Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	offering, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	resource := permissions.Resource{Kind: permissions.ResourceService, OwnerID: offering.AgentID}
	if !s.gate.Check(principal, resource, permissions.ActionDelete).Allowed() {
		if err = s.audit.RecordDenial(ctx, principal, resource, permissions.ActionDelete); err != nil {
			return err
		}

		return failure.ForbiddenError //nolint:wrapcheck
	}

	pctx, cancel := postgres.WithStatementTimeout(ctx, s.cfg)
	defer cancel()

	if err = s.repo.Delete(pctx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Str("offeringID", id).Msg("failed to delete offering")

		return fmt.Errorf("failed to delete offering: %w", err)
	}

	s.recordOfferingAudit(ctx, principal, auditModel.ActionServiceDeleted, id, auditModel.Details{
		"name": offering.Name,
	})

	s.invalidateOfferingCaches(ctx, id)

	return nil
}

func (s *serviceImpl) load(ctx context.Context, id string) (model.Offering, error) {
	offering, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Str("offeringID", id).Msg("failed to load offering")

		return offering, fmt.Errorf("failed to load offering: %w", err)
	}

	if offering.ID == constant.Empty {
		return offering, failure.NotFound("offering not found") //nolint:wrapcheck
	}

	return offering, nil
}

func (s *serviceImpl) recordOfferingAudit(ctx context.Context, principal permissions.Principal, action, offeringID string, details auditModel.Details) {
	entry := auditModel.New(principal.ID, action, auditModel.EntityTypeService, offeringID, details, timezone.Now())

	if err := s.audit.Record(ctx, entry); err != nil {
		log.Error().Err(err).Str("offeringID", offeringID).Str("action", action).Msg("audit entry lost for offering mutation")
	}
}

func (s *serviceImpl) invalidateOfferingCaches(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetOffering, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete offering from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllOffering)
		shared.InvalidateCaches(c, s.cache, cacheCountOffering)
	}()
}

func fieldNames(fields map[string]any) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}

	return names
}
