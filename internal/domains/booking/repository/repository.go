package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"

	"bookery/infras/otel"
	"bookery/infras/postgres"
	"bookery/internal/domains/booking/model"
	"bookery/shared"
	"bookery/shared/constant"
	gDto "bookery/shared/dto"
	"bookery/shared/failure"
	"bookery/shared/logger"
	gRepo "bookery/shared/repository"
)

type Booking interface {
	Insert(ctx context.Context, booking model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetWithHistory(ctx context.Context, id string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	SaveDetails(ctx context.Context, id string, fields map[string]any, expectedVersion int64) error
	SaveStatus(ctx context.Context, booking model.Booking, expectedVersion int64) error
	SavePayment(ctx context.Context, booking model.Booking, expectedVersion int64) error
	History(ctx context.Context, bookingID string) ([]model.StatusChange, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	history gRepo.Repository[model.StatusChange]
	db      *postgres.Connection
	otel    otel.Otel
}

func New(db *postgres.Connection, otl otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otl),
		history:    gRepo.NewRepository[model.StatusChange]("booking_status_change", model.HistoryTableName, model.HistoryFieldID, db, otl),
		db:         db,
		otel:       otl,
	}
}

// Insert writes the booking and its initial status history entry in one
// transaction, so no booking is ever observable with an empty history.
func (repo *repositoryImpl) Insert(ctx context.Context, booking model.Booking) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.Insert")
	defer scope.End()
	defer scope.TraceIfError(err)

	tx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to begin transaction (booking): %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = repo.Repository.InsertTx(ctx, tx, booking); err != nil {
		return err //nolint:wrapcheck
	}

	for _, change := range booking.StatusHistory {
		if err = repo.history.InsertTx(ctx, tx, change); err != nil {
			return err //nolint:wrapcheck
		}
	}

	if err = tx.Commit(); err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to commit transaction (booking): %w", err)
	}

	return nil
}

// GetWithHistory loads a booking together with its ordered status history.
func (repo *repositoryImpl) GetWithHistory(ctx context.Context, id string) (model.Booking, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.GetWithHistory")
	defer scope.End()

	booking, err := repo.Repository.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		return model.Booking{}, err //nolint:wrapcheck
	}

	if booking.ID == constant.Empty {
		return booking, nil
	}

	booking.StatusHistory, err = repo.History(ctx, id)
	if err != nil {
		return model.Booking{}, err
	}

	return booking, nil
}

// History returns a booking's status changes in ascending updated_at order.
func (repo *repositoryImpl) History(ctx context.Context, bookingID string) ([]model.StatusChange, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.History")
	defer scope.End()

	params := gDto.QueryParams{
		SortBy:  model.HistoryFieldUpdatedAt,
		SortDir: gDto.SortDirAsc,
	}

	changes, err := repo.history.GetAll(ctx, params, shared.FilterByID(bookingID, model.HistoryFieldBookingID, model.HistoryTableName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return changes, nil
}

// SaveDetails patches payload fields under the same version guard as the
// lifecycle writes, so a patch never interleaves with a racing transition.
func (repo *repositoryImpl) SaveDetails(ctx context.Context, id string, fields map[string]any, expectedVersion int64) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.SaveDetails")
	defer scope.End()
	defer scope.TraceIfError(err)

	fields[model.FieldVersion] = expectedVersion + 1

	affected, err := repo.Repository.UpdateChecked(ctx, fields, versionFilter(id, expectedVersion))
	if err != nil {
		return err //nolint:wrapcheck
	}

	if affected == 0 {
		return failure.Conflict("booking was modified concurrently, retry the operation") //nolint:wrapcheck
	}

	return nil
}

// SaveStatus persists a status transition with optimistic concurrency: the
// write is conditioned on the stored version still matching expectedVersion,
// and the history append shares the transaction with the status write.
func (repo *repositoryImpl) SaveStatus(ctx context.Context, booking model.Booking, expectedVersion int64) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.SaveStatus")
	defer scope.End()
	defer scope.TraceIfError(err)

	tx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to begin transaction (booking): %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	mod := map[string]any{
		model.FieldStatus:           booking.Status,
		model.FieldVersion:          expectedVersion + 1,
		model.FieldLastStatusUpdate: booking.LastStatusUpdate,
		constant.FieldModifiedAt:    booking.ModifiedAt,
		constant.FieldModifiedBy:    booking.ModifiedBy,
	}

	affected, err := repo.Repository.UpdateCheckedTx(ctx, tx, mod, versionFilter(booking.ID, expectedVersion))
	if err != nil {
		return err //nolint:wrapcheck
	}

	if affected == 0 {
		return failure.Conflict("booking was modified concurrently, retry the operation") //nolint:wrapcheck
	}

	if err = repo.history.InsertTx(ctx, tx, booking.LastChange()); err != nil {
		return err //nolint:wrapcheck
	}

	if err = tx.Commit(); err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to commit transaction (booking): %w", err)
	}

	return nil
}

// SavePayment persists a payment status change under the same version guard
// as SaveStatus. Payment changes do not touch the status history.
func (repo *repositoryImpl) SavePayment(ctx context.Context, booking model.Booking, expectedVersion int64) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.SavePayment")
	defer scope.End()
	defer scope.TraceIfError(err)

	tx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to begin transaction (booking): %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	mod := map[string]any{
		model.FieldPaymentStatus: booking.PaymentStatus,
		model.FieldVersion:       expectedVersion + 1,
		constant.FieldModifiedAt: booking.ModifiedAt,
		constant.FieldModifiedBy: booking.ModifiedBy,
	}

	affected, err := repo.Repository.UpdateCheckedTx(ctx, tx, mod, versionFilter(booking.ID, expectedVersion))
	if err != nil {
		return err //nolint:wrapcheck
	}

	if affected == 0 {
		return failure.Conflict("booking was modified concurrently, retry the operation") //nolint:wrapcheck
	}

	if err = tx.Commit(); err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to commit transaction (booking): %w", err)
	}

	return nil
}

func versionFilter(id string, version int64) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldID,
				Operator: gDto.FilterOperatorEq,
				Value:    id,
				Table:    model.TableName,
			},
			gDto.Filter{
				ArgName:  "expected_version",
				Field:    model.FieldVersion,
				Operator: gDto.FilterOperatorEq,
				Value:    version,
				Table:    model.TableName,
			},
		},
	}
}
