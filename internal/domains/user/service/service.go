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
	"bookery/internal/domains/user/model"
	"bookery/internal/domains/user/model/dto"
	"bookery/internal/domains/user/repository"
	"bookery/permissions"
	"bookery/shared"
	"bookery/shared/cache"
	"bookery/shared/constant"
	gDto "bookery/shared/dto"
	"bookery/shared/failure"
	"bookery/shared/password"
	"bookery/shared/timezone"
)

const (
	cacheGetUser    = "user:get"
	cacheGetAllUser = "user:gets"
	cacheCountUser  = "user:count"
)

type User interface {
	Create(ctx context.Context, principal permissions.Principal, req dto.CreateUserRequest) error
	Get(ctx context.Context, principal permissions.Principal, id string) (dto.UserResponse, error)
	GetAll(ctx context.Context, principal permissions.Principal, params gDto.QueryParams, filter gDto.FilterGroup) (dto.GetUsersResponse, error)
	Update(ctx context.Context, principal permissions.Principal, req dto.UpdateUserRequest, id string) error
	ChangeRole(ctx context.Context, principal permissions.Principal, req dto.ChangeRoleRequest, id string) error
}

type serviceImpl struct {
	repo  repository.User
	audit auditService.Audit
	gate  *permissions.Gate
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.User, audit auditService.Audit, gate *permissions.Gate, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) User {
	return &serviceImpl{
		repo:  repo,
		audit: audit,
		gate:  gate,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

// Create provisions an account with an explicit role. Administrative path;
// self-registration goes through the auth domain instead.
func (s *serviceImpl) Create(ctx context.Context, principal permissions.Principal, req dto.CreateUserRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".user.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	resource := permissions.Resource{Kind: permissions.ResourceAgentAccount, OwnerRole: req.Role}
	if !s.gate.Check(principal, resource, permissions.ActionManage).Allowed() {
		if err = s.audit.RecordDenial(ctx, principal, resource, permissions.ActionManage); err != nil {
			return err
		}

		return failure.ForbiddenError //nolint:wrapcheck
	}

	exists, err := s.repo.Exist(ctx, emailFilter(req.Email))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if user exists")

		return fmt.Errorf("failed to check if user exists: %w", err)
	}

	if exists {
		return failure.BadRequestFromString("email already registered") //nolint:wrapcheck
	}

	hashedPassword, err := password.Hash(req.Password)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")

		return fmt.Errorf("failed to hash password: %w", err)
	}

	pctx, cancel := postgres.WithStatementTimeout(ctx, s.cfg)
	defer cancel()

	if err = s.repo.Insert(pctx, req.ToModel(principal.ID, hashedPassword)); err != nil {
		log.Error().Err(err).Msg("failed to create user")

		return fmt.Errorf("failed to create user: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllUser)
		shared.InvalidateCaches(c, s.cache, cacheCountUser)
	}()

	return nil
}

// Get returns an account. Everyone reads their own; administrators read any.
func (s *serviceImpl) Get(ctx context.Context, principal permissions.Principal, id string) (res dto.UserResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".user.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	if principal.ID != id {
		resource := permissions.Resource{Kind: permissions.ResourceAgentAccount, OwnerID: id}
		if !s.gate.Check(principal, resource, permissions.ActionManage).Allowed() {
			if err = s.audit.RecordDenial(ctx, principal, resource, permissions.ActionManage); err != nil {
				return res, err
			}

			return res, failure.ForbiddenError //nolint:wrapcheck
		}
	}

	cacheKey := shared.BuildCacheKey(cacheGetUser, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for user")

		return res, nil
	}

	user, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")

		return res, fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == constant.Empty {
		return res, failure.NotFound("user not found") //nolint:wrapcheck
	}

	res.FromModel(user)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save user to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, principal permissions.Principal, params gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetUsersResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".user.GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	resource := permissions.Resource{Kind: permissions.ResourceAgentAccount}
	if !s.gate.Check(principal, resource, permissions.ActionManage).Allowed() {
		if err = s.audit.RecordDenial(ctx, principal, resource, permissions.ActionManage); err != nil {
			return res, err
		}

		return res, failure.ForbiddenError //nolint:wrapcheck
	}

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllUser, params, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for users")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count users")

		return res, fmt.Errorf("failed to count users: %w", err)
	}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get users")

		return res, fmt.Errorf("failed to get users: %w", err)
	}

	res.FromModels(models, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save users to cache")
		}
	}()

	return res, nil
}

// Update patches profile fields. Role changes never go through here.
func (s *serviceImpl) Update(ctx context.Context, principal permissions.Principal, req dto.UpdateUserRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".user.Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req == (dto.UpdateUserRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty") //nolint:wrapcheck
	}

	target, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if principal.ID != id {
		resource := permissions.Resource{Kind: permissions.ResourceAgentAccount, OwnerID: id, OwnerRole: target.Role}
		if !s.gate.Check(principal, resource, permissions.ActionManage).Allowed() {
			if err = s.audit.RecordDenial(ctx, principal, resource, permissions.ActionManage); err != nil {
				return err
			}

			return failure.ForbiddenError //nolint:wrapcheck
		}
	}

	updatedFields := map[string]any{
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: principal.ID,
	}

	if req.FullName != nil {
		updatedFields[model.FieldFullName] = *req.FullName
	}

	if req.Active != nil {
		updatedFields[model.FieldActive] = *req.Active
	}

	pctx, cancel := postgres.WithStatementTimeout(ctx, s.cfg)
	defer cancel()

	if err = s.repo.Update(pctx, updatedFields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Str("userID", id).Msg("failed to update user")

		return fmt.Errorf("failed to update user: %w", err)
	}

	s.invalidateUserCaches(ctx, id)

	return nil
}

// ChangeRole reassigns an account's role. The target's current role feeds the
// check, which is how admin accounts are kept out of reach of other admins.
func (s *serviceImpl) ChangeRole(ctx context.Context, principal permissions.Principal, req dto.ChangeRoleRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".user.ChangeRole")
	defer scope.End()
	defer scope.TraceIfError(err)

	target, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	resource := permissions.Resource{Kind: permissions.ResourceAgentAccount, OwnerID: id, OwnerRole: target.Role}
	if !s.gate.Check(principal, resource, permissions.ActionManage).Allowed() {
		if err = s.audit.RecordDenial(ctx, principal, resource, permissions.ActionManage); err != nil {
			return err
		}

		return failure.ForbiddenError //nolint:wrapcheck
	}

	if target.Role == req.Role {
		return nil
	}

	updatedFields := map[string]any{
		model.FieldRole:          req.Role,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: principal.ID,
	}

	pctx, cancel := postgres.WithStatementTimeout(ctx, s.cfg)
	defer cancel()

	if err = s.repo.Update(pctx, updatedFields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Str("userID", id).Msg("failed to change user role")

		return fmt.Errorf("failed to change user role: %w", err)
	}

	entry := auditModel.New(principal.ID, auditModel.ActionAccountRoleChanged, auditModel.EntityTypeAccount, id, auditModel.Details{
		"from": target.Role,
		"to":   req.Role,
	}, timezone.Now())

	if err := s.audit.Record(ctx, entry); err != nil {
		log.Error().Err(err).Str("userID", id).Msg("audit entry lost for role change")
	}

	s.invalidateUserCaches(ctx, id)

	return nil
}

func (s *serviceImpl) load(ctx context.Context, id string) (model.User, error) {
	user, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Str("userID", id).Msg("failed to load user")

		return user, fmt.Errorf("failed to load user: %w", err)
	}

	if user.ID == constant.Empty {
		return user, failure.NotFound("user not found") //nolint:wrapcheck
	}

	return user, nil
}

func (s *serviceImpl) invalidateUserCaches(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetUser, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete user from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllUser)
		shared.InvalidateCaches(c, s.cache, cacheCountUser)
	}()
}

func emailFilter(email string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldEmail,
				Operator: gDto.FilterOperatorEq,
				Value:    email,
				Table:    model.TableName,
			},
		},
	}
}
