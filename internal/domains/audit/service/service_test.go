package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"bookery/config"
	"bookery/infras/otel/mocks"
	auditMocks "bookery/internal/domains/audit/mocks"
	"bookery/internal/domains/audit/model"
	"bookery/internal/domains/audit/model/dto"
	"bookery/internal/domains/audit/service"
	"bookery/permissions"
	"bookery/shared/constant"
	gDto "bookery/shared/dto"
	"bookery/shared/failure"
	"bookery/shared/timezone"
)

func newAuditService(t *testing.T, repo *auditMocks.MockAudit, strict bool) service.Audit {
	t.Helper()

	gate, err := permissions.NewGate()
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Audit.RetentionDays = 30
	cfg.Audit.StrictDenialEvents = strict
	cfg.DB.Postgres.StatementTimeoutSeconds = 5

	return service.New(repo, gate, cfg, mocks.NewOtel())
}

func TestAuditService_Record(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := auditMocks.NewMockAudit(ctrl)
	svc := newAuditService(t, mockRepo, false)

	t.Run("stamps client info from context", func(t *testing.T) {
		mockRepo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, entry model.AuditLog) error {
				assert.Equal(t, "203.0.113.9", entry.IPAddress)
				assert.Equal(t, "curl/8.0", entry.UserAgent)

				return nil
			})

		ctx := context.WithValue(context.Background(), constant.ContextKeyClientIP, "203.0.113.9")
		ctx = context.WithValue(ctx, constant.ContextKeyUserAgent, "curl/8.0")

		entry := model.New("user-1", model.ActionBookingCreated, model.EntityTypeBooking, "booking-1", nil, timezone.Now())
		err := svc.Record(ctx, entry)

		assert.NoError(t, err)
	})

	t.Run("insert error propagates", func(t *testing.T) {
		mockRepo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(errors.New("database error"))

		entry := model.New("user-1", model.ActionBookingCreated, model.EntityTypeBooking, "booking-1", nil, timezone.Now())
		err := svc.Record(context.Background(), entry)

		assert.Error(t, err)
	})

	t.Run("write exceeding the statement bound maps to timeout", func(t *testing.T) {
		mockRepo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(context.DeadlineExceeded)

		entry := model.New("user-1", model.ActionBookingCreated, model.EntityTypeBooking, "booking-1", nil, timezone.Now())
		err := svc.Record(context.Background(), entry)

		assert.Error(t, err)
		assert.Equal(t, http.StatusGatewayTimeout, failure.GetCode(err))
	})
}

func TestAuditService_RecordDenial(t *testing.T) {
	principal := permissions.Principal{ID: "user-1", Role: constant.RoleUser}
	resource := permissions.Resource{Kind: permissions.ResourceBooking, OwnerID: "user-2"}

	t.Run("writes a denial entry", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockRepo := auditMocks.NewMockAudit(ctrl)
		svc := newAuditService(t, mockRepo, false)

		mockRepo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, entry model.AuditLog) error {
				assert.Equal(t, model.ActionAuthorizationDenied, entry.Action)
				assert.Equal(t, "user-1", entry.ActorID)
				assert.Equal(t, string(permissions.ActionRead), entry.Details["action"])

				return nil
			})

		err := svc.RecordDenial(context.Background(), principal, resource, permissions.ActionRead)

		assert.NoError(t, err)
	})

	t.Run("lost denial event is swallowed by default", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockRepo := auditMocks.NewMockAudit(ctrl)
		svc := newAuditService(t, mockRepo, false)

		mockRepo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(errors.New("audit store down"))

		err := svc.RecordDenial(context.Background(), principal, resource, permissions.ActionRead)

		assert.NoError(t, err)
	})

	t.Run("lost denial event fails the request under strict mode", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockRepo := auditMocks.NewMockAudit(ctrl)
		svc := newAuditService(t, mockRepo, true)

		mockRepo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(errors.New("audit store down"))

		err := svc.RecordDenial(context.Background(), principal, resource, permissions.ActionRead)

		assert.Error(t, err)
		assert.Equal(t, http.StatusInternalServerError, failure.GetCode(err))
	})
}

func TestAuditService_Query(t *testing.T) {
	admin := permissions.Principal{ID: "admin-1", Role: constant.RoleAdmin}

	tests := []struct {
		name      string
		principal permissions.Principal
		params    gDto.QueryParams
		query     dto.AuditQuery
		setupMock func(mockRepo *auditMocks.MockAudit)
		wantErr   bool
		wantCode  int
	}{
		{
			name:      "admin queries with default sort",
			principal: admin,
			params:    gDto.QueryParams{Page: 1, Limit: 10},
			query:     dto.AuditQuery{},
			setupMock: func(mockRepo *auditMocks.MockAudit) {
				mockRepo.EXPECT().
					Count(gomock.Any(), gomock.Any()).
					Return(1, nil)

				mockRepo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, params gDto.QueryParams, _ gDto.FilterGroup, _ ...string) ([]model.AuditLog, error) {
						assert.Equal(t, model.FieldCreatedAt, params.SortBy)
						assert.Equal(t, gDto.SortDirDesc, params.SortDir)

						return []model.AuditLog{
							model.New("user-1", model.ActionBookingCreated, model.EntityTypeBooking, "booking-1", nil, timezone.Now()),
						}, nil
					})
			},
			wantErr: false,
		},
		{
			name:      "filters are additive",
			principal: admin,
			params:    gDto.QueryParams{Page: 1, Limit: 10},
			query: dto.AuditQuery{
				ActorID: "user-1",
				Action:  model.ActionBookingCreated,
				From:    "2026-08-01T00:00:00Z",
				To:      "2026-08-28T00:00:00Z",
			},
			setupMock: func(mockRepo *auditMocks.MockAudit) {
				mockRepo.EXPECT().
					Count(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (int, error) {
						assert.Len(t, filter.Filters, 4)

						return 0, nil
					})

				mockRepo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]model.AuditLog{}, nil)
			},
			wantErr: false,
		},
		{
			name:      "customer is denied",
			principal: permissions.Principal{ID: "user-1", Role: constant.RoleUser},
			params:    gDto.QueryParams{Page: 1, Limit: 10},
			query:     dto.AuditQuery{},
			setupMock: func(mockRepo *auditMocks.MockAudit) {
				// Denial itself lands in the trail.
				mockRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr:  true,
			wantCode: http.StatusForbidden,
		},
		{
			name:      "agent is denied",
			principal: permissions.Principal{ID: "agent-1", Role: constant.RoleAgent},
			params:    gDto.QueryParams{Page: 1, Limit: 10},
			query:     dto.AuditQuery{},
			setupMock: func(mockRepo *auditMocks.MockAudit) {
				mockRepo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr:  true,
			wantCode: http.StatusForbidden,
		},
		{
			name:      "invalid from date",
			principal: admin,
			params:    gDto.QueryParams{Page: 1, Limit: 10},
			query:     dto.AuditQuery{From: "yesterday"},
			setupMock: func(mockRepo *auditMocks.MockAudit) {},
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "count error",
			principal: admin,
			params:    gDto.QueryParams{Page: 1, Limit: 10},
			query:     dto.AuditQuery{},
			setupMock: func(mockRepo *auditMocks.MockAudit) {
				mockRepo.EXPECT().
					Count(gomock.Any(), gomock.Any()).
					Return(0, errors.New("count error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := auditMocks.NewMockAudit(ctrl)
			svc := newAuditService(t, mockRepo, false)
			tt.setupMock(mockRepo)

			res, err := svc.Query(context.Background(), tt.principal, tt.params, tt.query)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}
			} else {
				assert.NoError(t, err)
				assert.Len(t, res.Logs, res.TotalData)
			}
		})
	}
}

func TestAuditService_Purge(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := auditMocks.NewMockAudit(ctrl)
	svc := newAuditService(t, mockRepo, false)

	admin := permissions.Principal{ID: "admin-1", Role: constant.RoleAdmin}

	t.Run("deletes entries past the retention window", func(t *testing.T) {
		mockRepo.EXPECT().
			DeleteOlderThan(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, cutoff time.Time) error {
				expected := timezone.Now().AddDate(0, 0, -30)
				assert.WithinDuration(t, expected, cutoff, time.Minute)

				return nil
			})

		assert.NoError(t, svc.Purge(context.Background(), admin))
	})

	t.Run("agents may not purge the trail", func(t *testing.T) {
		mockRepo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, entry model.AuditLog) error {
				assert.Equal(t, model.ActionAuthorizationDenied, entry.Action)

				return nil
			})

		err := svc.Purge(context.Background(), permissions.Principal{ID: "agent-1", Role: constant.RoleAgent})

		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, failure.GetCode(err))
	})

	t.Run("delete error propagates", func(t *testing.T) {
		mockRepo.EXPECT().
			DeleteOlderThan(gomock.Any(), gomock.Any()).
			Return(errors.New("delete error"))

		assert.Error(t, svc.Purge(context.Background(), admin))
	})
}
