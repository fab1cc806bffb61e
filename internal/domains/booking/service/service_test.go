package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"bookery/config"
	kafkaMocks "bookery/infras/kafka/mocks"
	"bookery/infras/otel/mocks"
	auditModel "bookery/internal/domains/audit/model"
	auditMocks "bookery/internal/domains/audit/service/mocks"
	bookingMocks "bookery/internal/domains/booking/mocks"
	"bookery/internal/domains/booking/model"
	"bookery/internal/domains/booking/model/dto"
	"bookery/internal/domains/booking/service"
	offeringMocks "bookery/internal/domains/offering/mocks"
	"bookery/permissions"
	cacheMocks "bookery/shared/cache/mocks"
	"bookery/shared/constant"
	gDto "bookery/shared/dto"
	"bookery/shared/failure"
	"bookery/shared/timezone"
)

type bookingServiceFixture struct {
	repo      *bookingMocks.MockBooking
	offerings *offeringMocks.MockOffering
	audit     *auditMocks.MockAudit
	cache     *cacheMocks.MockRedisCache
	publisher *kafkaMocks.MockPublisher
	svc       service.Booking
}

func newBookingServiceFixture(t *testing.T) bookingServiceFixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	gate, err := permissions.NewGate()
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.DB.Postgres.StatementTimeoutSeconds = 5

	f := bookingServiceFixture{
		repo:      bookingMocks.NewMockBooking(ctrl),
		offerings: offeringMocks.NewMockOffering(ctrl),
		audit:     auditMocks.NewMockAudit(ctrl),
		cache:     cacheMocks.NewMockRedisCache(ctrl),
		publisher: kafkaMocks.NewMockPublisher(ctrl),
	}

	// Cache invalidation runs on detached goroutines after mutations.
	f.cache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.cache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	f.svc = service.New(f.repo, f.offerings, f.audit, gate, f.publisher, cfg, f.cache, mocks.NewOtel())

	return f
}

func pendingBooking(userID, agentID string, version int64) model.Booking {
	now := timezone.Now()
	booking := model.New(userID, agentID, "service-1", now, 150.0, "", userID, now)
	booking.Version = version

	return booking
}

func TestBookingService_Create(t *testing.T) {
	userPrincipal := permissions.Principal{ID: "user-1", Role: constant.RoleUser}

	tests := []struct {
		name      string
		principal permissions.Principal
		req       dto.CreateBookingRequest
		setupMock func(f bookingServiceFixture)
		wantErr   bool
		wantCode  int
	}{
		{
			name:      "user books for themselves",
			principal: userPrincipal,
			req: dto.CreateBookingRequest{
				AgentID:       "agent-1",
				ServiceID:     "service-1",
				ScheduledDate: "2026-09-01 10:00",
				Amount:        150.0,
			},
			setupMock: func(f bookingServiceFixture) {
				f.offerings.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				f.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)

				f.audit.EXPECT().
					Record(gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr: false,
		},
		{
			name:      "user booking for someone else is forced onto themselves",
			principal: userPrincipal,
			req: dto.CreateBookingRequest{
				UserID:        "user-2",
				AgentID:       "agent-1",
				ServiceID:     "service-1",
				ScheduledDate: "2026-09-01 10:00",
				Amount:        150.0,
			},
			setupMock: func(f bookingServiceFixture) {
				f.offerings.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				f.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, booking model.Booking) error {
						assert.Equal(t, "user-1", booking.UserID)

						return nil
					})

				f.audit.EXPECT().
					Record(gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr: false,
		},
		{
			name:      "admin books on behalf of a customer",
			principal: permissions.Principal{ID: "admin-1", Role: constant.RoleAdmin},
			req: dto.CreateBookingRequest{
				UserID:        "user-2",
				AgentID:       "agent-1",
				ServiceID:     "service-1",
				ScheduledDate: "2026-09-01 10:00",
				Amount:        150.0,
			},
			setupMock: func(f bookingServiceFixture) {
				f.offerings.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				f.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, booking model.Booking) error {
						assert.Equal(t, "user-2", booking.UserID)

						return nil
					})

				f.audit.EXPECT().
					Record(gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr: false,
		},
		{
			name:      "unknown role is denied",
			principal: permissions.Principal{ID: "x-1", Role: "auditor"},
			req: dto.CreateBookingRequest{
				AgentID:       "agent-1",
				ServiceID:     "service-1",
				ScheduledDate: "2026-09-01 10:00",
				Amount:        150.0,
			},
			setupMock: func(f bookingServiceFixture) {
				f.audit.EXPECT().
					RecordDenial(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr:  true,
			wantCode: http.StatusForbidden,
		},
		{
			name:      "strict denial event failure surfaces",
			principal: permissions.Principal{ID: "x-1", Role: "auditor"},
			req: dto.CreateBookingRequest{
				AgentID:       "agent-1",
				ServiceID:     "service-1",
				ScheduledDate: "2026-09-01 10:00",
				Amount:        150.0,
			},
			setupMock: func(f bookingServiceFixture) {
				f.audit.EXPECT().
					RecordDenial(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(failure.InternalError(errors.New("audit store down")))
			},
			wantErr:  true,
			wantCode: http.StatusInternalServerError,
		},
		{
			name:      "unknown service offering",
			principal: userPrincipal,
			req: dto.CreateBookingRequest{
				AgentID:       "agent-1",
				ServiceID:     "service-404",
				ScheduledDate: "2026-09-01 10:00",
				Amount:        150.0,
			},
			setupMock: func(f bookingServiceFixture) {
				f.offerings.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)
			},
			wantErr:  true,
			wantCode: http.StatusBadRequest,
		},
		{
			name:      "invalid scheduled date",
			principal: userPrincipal,
			req: dto.CreateBookingRequest{
				AgentID:       "agent-1",
				ServiceID:     "service-1",
				ScheduledDate: "tomorrow-ish",
				Amount:        150.0,
			},
			setupMock: func(f bookingServiceFixture) {
				f.offerings.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)
			},
			wantErr:  true,
			wantCode: http.StatusBadRequest,
		},
		{
			name:      "insert error",
			principal: userPrincipal,
			req: dto.CreateBookingRequest{
				AgentID:       "agent-1",
				ServiceID:     "service-1",
				ScheduledDate: "2026-09-01 10:00",
				Amount:        150.0,
			},
			setupMock: func(f bookingServiceFixture) {
				f.offerings.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				f.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(errors.New("database error"))
			},
			wantErr: true,
		},
		{
			name:      "insert exceeding the statement bound maps to timeout",
			principal: userPrincipal,
			req: dto.CreateBookingRequest{
				AgentID:       "agent-1",
				ServiceID:     "service-1",
				ScheduledDate: "2026-09-01 10:00",
				Amount:        150.0,
			},
			setupMock: func(f bookingServiceFixture) {
				f.offerings.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				f.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(context.DeadlineExceeded)
			},
			wantErr:  true,
			wantCode: http.StatusGatewayTimeout,
		},
		{
			name:      "failed business audit write does not fail the booking",
			principal: userPrincipal,
			req: dto.CreateBookingRequest{
				AgentID:       "agent-1",
				ServiceID:     "service-1",
				ScheduledDate: "2026-09-01 10:00",
				Amount:        150.0,
			},
			setupMock: func(f bookingServiceFixture) {
				f.offerings.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)

				f.repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)

				f.audit.EXPECT().
					Record(gomock.Any(), gomock.Any()).
					Return(errors.New("audit store down"))
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingServiceFixture(t)
			tt.setupMock(f)

			res, err := f.svc.Create(context.Background(), tt.principal, tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}
			} else {
				assert.NoError(t, err)
				assert.Equal(t, model.StatusPending.String(), res.Status)
				assert.Equal(t, model.PaymentStatusPending.String(), res.PaymentStatus)
				assert.Equal(t, int64(1), res.Version)
			}
		})
	}
}

func TestBookingService_Get(t *testing.T) {
	booking := pendingBooking("user-1", "agent-1", 1)

	tests := []struct {
		name      string
		principal permissions.Principal
		setupMock func(f bookingServiceFixture)
		wantErr   bool
		wantCode  int
	}{
		{
			name:      "owner reads their booking",
			principal: permissions.Principal{ID: "user-1", Role: constant.RoleUser},
			setupMock: func(f bookingServiceFixture) {
				f.cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)
			},
			wantErr: false,
		},
		{
			name:      "assigned agent reads the booking",
			principal: permissions.Principal{ID: "agent-1", Role: constant.RoleAgent},
			setupMock: func(f bookingServiceFixture) {
				f.cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)
			},
			wantErr: false,
		},
		{
			name:      "another user is denied",
			principal: permissions.Principal{ID: "user-2", Role: constant.RoleUser},
			setupMock: func(f bookingServiceFixture) {
				f.cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)

				f.audit.EXPECT().
					RecordDenial(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr:  true,
			wantCode: http.StatusForbidden,
		},
		{
			name:      "cache hit still passes the ownership check",
			principal: permissions.Principal{ID: "admin-1", Role: constant.RoleAdmin},
			setupMock: func(f bookingServiceFixture) {
				f.cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr: false,
		},
		{
			name:      "booking not found",
			principal: permissions.Principal{ID: "user-1", Role: constant.RoleUser},
			setupMock: func(f bookingServiceFixture) {
				f.cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name:      "repository error",
			principal: permissions.Principal{ID: "user-1", Role: constant.RoleUser},
			setupMock: func(f bookingServiceFixture) {
				f.cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingServiceFixture(t)
			tt.setupMock(f)

			res, err := f.svc.Get(context.Background(), tt.principal, booking.ID)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}

				assert.Empty(t, res.ID)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBookingService_GetAll(t *testing.T) {
	params := gDto.QueryParams{Page: 1, Limit: 10}

	tests := []struct {
		name        string
		principal   permissions.Principal
		setupMock   func(f bookingServiceFixture)
		wantErr     bool
		wantCode    int
		wantNarrows bool
	}{
		{
			name:      "user only sees their own bookings",
			principal: permissions.Principal{ID: "user-1", Role: constant.RoleUser},
			setupMock: func(f bookingServiceFixture) {
				f.cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				f.repo.EXPECT().
					Count(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (int, error) {
						assert.NotEmpty(t, filter.Filters)

						return 1, nil
					})

				f.repo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]model.Booking{pendingBooking("user-1", "agent-1", 1)}, nil)
			},
			wantErr: false,
		},
		{
			name:      "admin sees everything unfiltered",
			principal: permissions.Principal{ID: "admin-1", Role: constant.RoleAdmin},
			setupMock: func(f bookingServiceFixture) {
				f.cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				f.repo.EXPECT().
					Count(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (int, error) {
						assert.Empty(t, filter.Filters)

						return 2, nil
					})

				f.repo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]model.Booking{
						pendingBooking("user-1", "agent-1", 1),
						pendingBooking("user-2", "agent-2", 1),
					}, nil)
			},
			wantErr: false,
		},
		{
			name:      "unknown role is denied",
			principal: permissions.Principal{ID: "x-1", Role: "auditor"},
			setupMock: func(f bookingServiceFixture) {
				f.audit.EXPECT().
					RecordDenial(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr:  true,
			wantCode: http.StatusForbidden,
		},
		{
			name:      "count error",
			principal: permissions.Principal{ID: "user-1", Role: constant.RoleUser},
			setupMock: func(f bookingServiceFixture) {
				f.cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				f.repo.EXPECT().
					Count(gomock.Any(), gomock.Any()).
					Return(0, errors.New("count error"))
			},
			wantErr: true,
		},
		{
			name:      "get all error",
			principal: permissions.Principal{ID: "user-1", Role: constant.RoleUser},
			setupMock: func(f bookingServiceFixture) {
				f.cache.EXPECT().
					Get(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("cache miss"))

				f.repo.EXPECT().
					Count(gomock.Any(), gomock.Any()).
					Return(1, nil)

				f.repo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, errors.New("get all error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingServiceFixture(t)
			tt.setupMock(f)

			res, err := f.svc.GetAll(context.Background(), tt.principal, params, gDto.FilterGroup{})

			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}
			} else {
				assert.NoError(t, err)
				assert.Len(t, res.Bookings, res.TotalData)
			}
		})
	}
}

func TestBookingService_Transition(t *testing.T) {
	tests := []struct {
		name       string
		principal  permissions.Principal
		booking    model.Booking
		target     string
		setupMock  func(f bookingServiceFixture, booking model.Booking)
		wantErr    bool
		wantCode   int
		wantStatus model.Status
	}{
		{
			name:      "assigned agent confirms a pending booking",
			principal: permissions.Principal{ID: "agent-1", Role: constant.RoleAgent},
			booking:   pendingBooking("user-1", "agent-1", 3),
			target:    "confirmed",
			setupMock: func(f bookingServiceFixture, booking model.Booking) {
				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)

				f.repo.EXPECT().
					SaveStatus(gomock.Any(), gomock.Any(), int64(3)).
					Return(nil)

				f.audit.EXPECT().
					Record(gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr:    false,
			wantStatus: model.StatusConfirmed,
		},
		{
			name:      "customer cancels their own booking",
			principal: permissions.Principal{ID: "user-1", Role: constant.RoleUser},
			booking:   pendingBooking("user-1", "agent-1", 1),
			target:    "cancelled",
			setupMock: func(f bookingServiceFixture, booking model.Booking) {
				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)

				f.repo.EXPECT().
					SaveStatus(gomock.Any(), gomock.Any(), int64(1)).
					Return(nil)

				f.audit.EXPECT().
					Record(gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr:    false,
			wantStatus: model.StatusCancelled,
		},
		{
			name:      "customer may not confirm their own booking",
			principal: permissions.Principal{ID: "user-1", Role: constant.RoleUser},
			booking:   pendingBooking("user-1", "agent-1", 1),
			target:    "confirmed",
			setupMock: func(f bookingServiceFixture, booking model.Booking) {
				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)

				f.audit.EXPECT().
					RecordDenial(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr:  true,
			wantCode: http.StatusForbidden,
		},
		{
			name:      "agent may not touch an unassigned booking",
			principal: permissions.Principal{ID: "agent-2", Role: constant.RoleAgent},
			booking:   pendingBooking("user-1", "agent-1", 1),
			target:    "confirmed",
			setupMock: func(f bookingServiceFixture, booking model.Booking) {
				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)

				f.audit.EXPECT().
					RecordDenial(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr:  true,
			wantCode: http.StatusForbidden,
		},
		{
			name:      "illegal lifecycle edge",
			principal: permissions.Principal{ID: "agent-1", Role: constant.RoleAgent},
			booking:   pendingBooking("user-1", "agent-1", 1),
			target:    "completed",
			setupMock: func(f bookingServiceFixture, booking model.Booking) {
				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)
			},
			wantErr:  true,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:      "unknown status never touches the repository",
			principal: permissions.Principal{ID: "agent-1", Role: constant.RoleAgent},
			booking:   pendingBooking("user-1", "agent-1", 1),
			target:    "archived",
			setupMock: func(f bookingServiceFixture, booking model.Booking) {},
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "booking not found",
			principal: permissions.Principal{ID: "agent-1", Role: constant.RoleAgent},
			booking:   pendingBooking("user-1", "agent-1", 1),
			target:    "confirmed",
			setupMock: func(f bookingServiceFixture, booking model.Booking) {
				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name:      "stale version surfaces as a conflict",
			principal: permissions.Principal{ID: "agent-1", Role: constant.RoleAgent},
			booking:   pendingBooking("user-1", "agent-1", 2),
			target:    "confirmed",
			setupMock: func(f bookingServiceFixture, booking model.Booking) {
				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)

				f.repo.EXPECT().
					SaveStatus(gomock.Any(), gomock.Any(), int64(2)).
					Return(failure.Conflict("booking was modified concurrently"))
			},
			wantErr:  true,
			wantCode: http.StatusConflict,
		},
		{
			name:      "save exceeding the statement bound maps to timeout",
			principal: permissions.Principal{ID: "agent-1", Role: constant.RoleAgent},
			booking:   pendingBooking("user-1", "agent-1", 1),
			target:    "confirmed",
			setupMock: func(f bookingServiceFixture, booking model.Booking) {
				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)

				f.repo.EXPECT().
					SaveStatus(gomock.Any(), gomock.Any(), int64(1)).
					Return(context.DeadlineExceeded)
			},
			wantErr:  true,
			wantCode: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingServiceFixture(t)
			tt.setupMock(f, tt.booking)

			res, err := f.svc.Transition(context.Background(), tt.principal, tt.booking.ID, dto.TransitionBookingRequest{Status: tt.target})

			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantStatus.String(), res.Status)
				assert.Equal(t, tt.booking.Version+1, res.Version)
				assert.Equal(t, tt.wantStatus.String(), res.StatusHistory[len(res.StatusHistory)-1].Status)
			}
		})
	}
}

func TestBookingService_UpdatePayment(t *testing.T) {
	tests := []struct {
		name      string
		principal permissions.Principal
		booking   model.Booking
		target    string
		setupMock func(f bookingServiceFixture, booking model.Booking)
		wantErr   bool
		wantCode  int
	}{
		{
			name:      "assigned agent marks the booking paid",
			principal: permissions.Principal{ID: "agent-1", Role: constant.RoleAgent},
			booking:   pendingBooking("user-1", "agent-1", 1),
			target:    "paid",
			setupMock: func(f bookingServiceFixture, booking model.Booking) {
				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)

				f.repo.EXPECT().
					SavePayment(gomock.Any(), gomock.Any(), int64(1)).
					Return(nil)

				f.audit.EXPECT().
					Record(gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr: false,
		},
		{
			name:      "refund before payment is rejected",
			principal: permissions.Principal{ID: "agent-1", Role: constant.RoleAgent},
			booking:   pendingBooking("user-1", "agent-1", 1),
			target:    "refunded",
			setupMock: func(f bookingServiceFixture, booking model.Booking) {
				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)
			},
			wantErr:  true,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:      "customer may not update payment",
			principal: permissions.Principal{ID: "user-1", Role: constant.RoleUser},
			booking:   pendingBooking("user-1", "agent-1", 1),
			target:    "paid",
			setupMock: func(f bookingServiceFixture, booking model.Booking) {
				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)

				f.audit.EXPECT().
					RecordDenial(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr:  true,
			wantCode: http.StatusForbidden,
		},
		{
			name:      "unknown payment status",
			principal: permissions.Principal{ID: "agent-1", Role: constant.RoleAgent},
			booking:   pendingBooking("user-1", "agent-1", 1),
			target:    "voided",
			setupMock: func(f bookingServiceFixture, booking model.Booking) {},
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "stale version surfaces as a conflict",
			principal: permissions.Principal{ID: "agent-1", Role: constant.RoleAgent},
			booking:   pendingBooking("user-1", "agent-1", 4),
			target:    "paid",
			setupMock: func(f bookingServiceFixture, booking model.Booking) {
				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)

				f.repo.EXPECT().
					SavePayment(gomock.Any(), gomock.Any(), int64(4)).
					Return(failure.Conflict("booking was modified concurrently"))
			},
			wantErr:  true,
			wantCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingServiceFixture(t)
			tt.setupMock(f, tt.booking)

			res, err := f.svc.UpdatePayment(context.Background(), tt.principal, tt.booking.ID, dto.UpdatePaymentRequest{PaymentStatus: tt.target})

			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.target, res.PaymentStatus)
				assert.Equal(t, tt.booking.Version+1, res.Version)
			}
		})
	}
}

func TestBookingService_Update(t *testing.T) {
	tests := []struct {
		name      string
		principal permissions.Principal
		req       dto.UpdateBookingRequest
		setupMock func(f bookingServiceFixture, booking model.Booking)
		wantErr   bool
		wantCode  int
	}{
		{
			name:      "assigned agent updates their notes",
			principal: permissions.Principal{ID: "agent-1", Role: constant.RoleAgent},
			req:       dto.UpdateBookingRequest{AgentNotes: "bring spare keys"},
			setupMock: func(f bookingServiceFixture, booking model.Booking) {
				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)

				f.repo.EXPECT().
					SaveDetails(gomock.Any(), booking.ID, gomock.Any(), booking.Version).
					DoAndReturn(func(_ context.Context, _ string, fields map[string]any, _ int64) error {
						assert.Equal(t, "bring spare keys", fields[model.FieldAgentNotes])

						return nil
					})

				f.audit.EXPECT().
					Record(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, entry auditModel.AuditLog) error {
						assert.Equal(t, auditModel.ActionBookingUpdated, entry.Action)
						assert.Equal(t, booking.ID, entry.EntityID)
						assert.Equal(t, []string{model.FieldAgentNotes}, entry.Details["fields"])

						return nil
					})
			},
			wantErr: false,
		},
		{
			name:      "audit write failure does not fail the update",
			principal: permissions.Principal{ID: "agent-1", Role: constant.RoleAgent},
			req:       dto.UpdateBookingRequest{AgentNotes: "bring spare keys"},
			setupMock: func(f bookingServiceFixture, booking model.Booking) {
				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)

				f.repo.EXPECT().
					SaveDetails(gomock.Any(), booking.ID, gomock.Any(), booking.Version).
					Return(nil)

				f.audit.EXPECT().
					Record(gomock.Any(), gomock.Any()).
					Return(errors.New("audit store down"))
			},
			wantErr: false,
		},
		{
			name:      "concurrent modification",
			principal: permissions.Principal{ID: "agent-1", Role: constant.RoleAgent},
			req:       dto.UpdateBookingRequest{Notes: "reschedule please"},
			setupMock: func(f bookingServiceFixture, booking model.Booking) {
				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)

				f.repo.EXPECT().
					SaveDetails(gomock.Any(), booking.ID, gomock.Any(), booking.Version).
					Return(failure.Conflict("booking was modified concurrently, retry the operation"))
			},
			wantErr:  true,
			wantCode: http.StatusConflict,
		},
		{
			name:      "empty update request",
			principal: permissions.Principal{ID: "agent-1", Role: constant.RoleAgent},
			req:       dto.UpdateBookingRequest{},
			setupMock: func(f bookingServiceFixture, booking model.Booking) {},
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "invalid scheduled date",
			principal: permissions.Principal{ID: "agent-1", Role: constant.RoleAgent},
			req:       dto.UpdateBookingRequest{ScheduledDate: "soon"},
			setupMock: func(f bookingServiceFixture, booking model.Booking) {
				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)
			},
			wantErr:  true,
			wantCode: http.StatusBadRequest,
		},
		{
			name:      "another customer is denied",
			principal: permissions.Principal{ID: "user-2", Role: constant.RoleUser},
			req:       dto.UpdateBookingRequest{Notes: "changed my mind"},
			setupMock: func(f bookingServiceFixture, booking model.Booking) {
				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)

				f.audit.EXPECT().
					RecordDenial(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantErr:  true,
			wantCode: http.StatusForbidden,
		},
		{
			name:      "update error",
			principal: permissions.Principal{ID: "agent-1", Role: constant.RoleAgent},
			req:       dto.UpdateBookingRequest{AgentNotes: "bring spare keys"},
			setupMock: func(f bookingServiceFixture, booking model.Booking) {
				f.repo.EXPECT().
					GetWithHistory(gomock.Any(), booking.ID).
					Return(booking, nil)

				f.repo.EXPECT().
					SaveDetails(gomock.Any(), booking.ID, gomock.Any(), booking.Version).
					Return(errors.New("update error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingServiceFixture(t)
			booking := pendingBooking("user-1", "agent-1", 1)
			tt.setupMock(f, booking)

			err := f.svc.Update(context.Background(), tt.principal, tt.req, booking.ID)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
