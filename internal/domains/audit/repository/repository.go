package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"time"

	"bookery/infras/otel"
	"bookery/infras/postgres"
	"bookery/internal/domains/audit/model"
	"bookery/shared/constant"
	gDto "bookery/shared/dto"
	gRepo "bookery/shared/repository"
)

type Audit interface {
	Insert(ctx context.Context, entry model.AuditLog) error
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.AuditLog, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) error
}

type repositoryImpl struct {
	gRepo.Repository[model.AuditLog]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otl otel.Otel) Audit {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.AuditLog](model.EntityName, model.TableName, model.FieldID, db, otl),
		db:         db,
		otel:       otl,
	}
}

// DeleteOlderThan removes entries past the retention window. This runs on an
// operational path only, never inside a business transaction.
func (repo *repositoryImpl) DeleteOlderThan(ctx context.Context, cutoff time.Time) error {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".audit_log.DeleteOlderThan")
	defer scope.End()

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				ArgName:  "retention_cutoff",
				Field:    model.FieldCreatedAt,
				Operator: gDto.FilterOperatorLessEq,
				Value:    cutoff,
				Table:    model.TableName,
			},
		},
	}

	return repo.Repository.Delete(ctx, filter) //nolint:wrapcheck
}
