//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"bookery/config"
	"bookery/infras/jwt"
	"bookery/infras/kafka"
	"bookery/infras/otel"
	"bookery/infras/postgres"
	"bookery/infras/redis"
	"bookery/permissions"
	"bookery/shared/cache"
	"bookery/transport/http"
	"bookery/transport/http/middleware"
	"bookery/transport/http/router"

	auditRepository "bookery/internal/domains/audit/repository"
	auditService "bookery/internal/domains/audit/service"
	authService "bookery/internal/domains/auth/service"
	bookingRepository "bookery/internal/domains/booking/repository"
	bookingService "bookery/internal/domains/booking/service"
	offeringRepository "bookery/internal/domains/offering/repository"
	offeringService "bookery/internal/domains/offering/service"
	userRepository "bookery/internal/domains/user/repository"
	userService "bookery/internal/domains/user/service"

	auditHandler "bookery/internal/handlers/audit"
	authHandler "bookery/internal/handlers/auth"
	bookingHandler "bookery/internal/handlers/booking"
	offeringHandler "bookery/internal/handlers/offering"
	userHandler "bookery/internal/handlers/user"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	permissions.NewGate,
)

var auditDomain = wire.NewSet(
	auditRepository.New,
	auditService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var offeringDomain = wire.NewSet(
	offeringRepository.New,
	offeringService.New,
)

var accountDomain = wire.NewSet(
	userRepository.New,
	userService.New,
	authService.New,
)

var domains = wire.NewSet(
	auditDomain,
	bookingDomain,
	offeringDomain,
	accountDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	auditHandler.New,
	authHandler.New,
	bookingHandler.New,
	offeringHandler.New,
	userHandler.New,
	router.New,
)

func InitializeService() (*http.HTTP, error) {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}, nil
}
