package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"bookery/config"
	"bookery/infras/otel"
	"bookery/infras/postgres"
	"bookery/internal/domains/audit/model"
	"bookery/internal/domains/audit/model/dto"
	"bookery/internal/domains/audit/repository"
	"bookery/permissions"
	"bookery/shared/constant"
	gDto "bookery/shared/dto"
	"bookery/shared/failure"
	"bookery/shared/timezone"
)

const hoursPerDay = 24

type Audit interface {
	Record(ctx context.Context, entry model.AuditLog) error
	RecordDenial(ctx context.Context, principal permissions.Principal, resource permissions.Resource, action permissions.Action) error
	Query(ctx context.Context, principal permissions.Principal, params gDto.QueryParams, query dto.AuditQuery) (dto.GetAuditLogsResponse, error)
	Purge(ctx context.Context, principal permissions.Principal) error
}

type serviceImpl struct {
	repo repository.Audit
	gate *permissions.Gate
	cfg  *config.Config
	otel otel.Otel
}

func New(repo repository.Audit, gate *permissions.Gate, cfg *config.Config, otel otel.Otel) Audit {
	return &serviceImpl{
		repo: repo,
		gate: gate,
		cfg:  cfg,
		otel: otel,
	}
}

// Record appends an entry to the audit trail. The write is bounded; callers
// on the business path log the returned error and carry on, because the
// business record outranks audit completeness.
func (s *serviceImpl) Record(ctx context.Context, entry model.AuditLog) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".audit.Record")
	defer scope.End()
	defer scope.TraceIfError(err)

	ctx, cancel := postgres.WithStatementTimeout(ctx, s.cfg)
	defer cancel()

	if ip, ok := ctx.Value(constant.ContextKeyClientIP).(string); ok {
		entry.IPAddress = ip
	}

	if ua, ok := ctx.Value(constant.ContextKeyUserAgent).(string); ok {
		entry.UserAgent = ua
	}

	if err = s.repo.Insert(ctx, entry); err != nil {
		log.Error().Err(err).Str("action", entry.Action).Str("actor", entry.ActorID).Msg("failed to record audit entry")

		if errors.Is(err, context.DeadlineExceeded) {
			return failure.Timeout("audit write exceeded its bound") //nolint:wrapcheck
		}

		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return nil
}

// RecordDenial logs an authorization denial as a security event. Whether a
// failed write surfaces to the caller is a configuration decision: under
// strict denial events it propagates, otherwise it is swallowed here.
func (s *serviceImpl) RecordDenial(ctx context.Context, principal permissions.Principal, resource permissions.Resource, action permissions.Action) error {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".audit.RecordDenial")
	defer scope.End()

	entry := model.New(principal.ID, model.ActionAuthorizationDenied, string(resource.Kind), resource.OwnerID, model.Details{
		"role":     principal.Role,
		"action":   string(action),
		"resource": string(resource.Kind),
		"owner_id": resource.OwnerID,
	}, timezone.Now())

	err := s.Record(ctx, entry)
	if err == nil {
		return nil
	}

	if s.cfg.Audit.StrictDenialEvents {
		scope.TraceError(err)

		return failure.InternalError(fmt.Errorf("failed to record denial event: %w", err)) //nolint:wrapcheck
	}

	log.Error().Err(err).Str("actor", principal.ID).Msg("denial event lost, continuing")

	return nil
}

// Query returns audit entries matching the additive filter set. Only
// administrators may read the trail.
func (s *serviceImpl) Query(ctx context.Context, principal permissions.Principal, params gDto.QueryParams, query dto.AuditQuery) (res dto.GetAuditLogsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".audit.Query")
	defer scope.End()
	defer scope.TraceIfError(err)

	resource := permissions.Resource{Kind: permissions.ResourceAuditLog}

	if !s.gate.Check(principal, resource, permissions.ActionRead).Allowed() {
		if err = s.RecordDenial(ctx, principal, resource, permissions.ActionRead); err != nil {
			return res, err
		}

		return res, failure.ForbiddenError //nolint:wrapcheck
	}

	filter, err := buildFilter(query)
	if err != nil {
		return res, err
	}

	if params.SortBy == "" {
		params.SortBy = model.FieldCreatedAt
		params.SortDir = gDto.SortDirDesc
	}

	ctx, cancel := postgres.WithStatementTimeout(ctx, s.cfg)
	defer cancel()

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count audit entries")

		return res, persistFailure(err, "failed to count audit entries")
	}

	entries, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to query audit entries")

		return res, persistFailure(err, "failed to query audit entries")
	}

	res.FromModels(entries, total, params.Limit)

	return res, nil
}

// Purge deletes entries older than the retention window. Operational path
// only; never invoked from a business transaction.
func (s *serviceImpl) Purge(ctx context.Context, principal permissions.Principal) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".audit.Purge")
	defer scope.End()
	defer scope.TraceIfError(err)

	resource := permissions.Resource{Kind: permissions.ResourceAuditLog}

	if !s.gate.Check(principal, resource, permissions.ActionDelete).Allowed() {
		if err = s.RecordDenial(ctx, principal, resource, permissions.ActionDelete); err != nil {
			return err
		}

		return failure.ForbiddenError //nolint:wrapcheck
	}

	retention := time.Duration(s.cfg.Audit.RetentionDays) * hoursPerDay * time.Hour
	cutoff := timezone.Now().Add(-retention)

	if err = s.repo.DeleteOlderThan(ctx, cutoff); err != nil {
		log.Error().Err(err).Time("cutoff", cutoff).Msg("failed to purge audit entries")

		return fmt.Errorf("failed to purge audit entries: %w", err)
	}

	log.Info().Time("cutoff", cutoff).Msg("audit trail purged")

	return nil
}

func buildFilter(query dto.AuditQuery) (gDto.FilterGroup, error) {
	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if query.ActorID != "" {
		filter.Filters = append(filter.Filters, gDto.Filter{
			Field:    model.FieldActorID,
			Operator: gDto.FilterOperatorEq,
			Value:    query.ActorID,
			Table:    model.TableName,
		})
	}

	if query.Action != "" {
		filter.Filters = append(filter.Filters, gDto.Filter{
			Field:    model.FieldAction,
			Operator: gDto.FilterOperatorEq,
			Value:    query.Action,
			Table:    model.TableName,
		})
	}

	if query.EntityType != "" {
		filter.Filters = append(filter.Filters, gDto.Filter{
			Field:    model.FieldEntityType,
			Operator: gDto.FilterOperatorEq,
			Value:    query.EntityType,
			Table:    model.TableName,
		})
	}

	if query.From != "" {
		from, err := timezone.Parse(constant.DateFormat, query.From)
		if err != nil {
			return filter, failure.BadRequestFromString(fmt.Sprintf("invalid from date: %v", err)) //nolint:wrapcheck
		}

		filter.Filters = append(filter.Filters, gDto.Filter{
			ArgName:  "created_from",
			Field:    model.FieldCreatedAt,
			Operator: gDto.FilterOperatorGreaterEq,
			Value:    from,
			Table:    model.TableName,
		})
	}

	if query.To != "" {
		to, err := timezone.Parse(constant.DateFormat, query.To)
		if err != nil {
			return filter, failure.BadRequestFromString(fmt.Sprintf("invalid to date: %v", err)) //nolint:wrapcheck
		}

		filter.Filters = append(filter.Filters, gDto.Filter{
			ArgName:  "created_to",
			Field:    model.FieldCreatedAt,
			Operator: gDto.FilterOperatorLessEq,
			Value:    to,
			Table:    model.TableName,
		})
	}

	return filter, nil
}

func persistFailure(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return failure.Timeout(msg) //nolint:wrapcheck
	}

	return fmt.Errorf("%s: %w", msg, err)
}
