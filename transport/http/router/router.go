package router

import (
	"github.com/go-chi/chi/v5"

	"bookery/internal/handlers/audit"
	"bookery/internal/handlers/auth"
	"bookery/internal/handlers/booking"
	"bookery/internal/handlers/offering"
	"bookery/internal/handlers/user"
	"bookery/transport/http/middleware"
)

type DomainHandlers struct {
	Auth     auth.Handler
	Booking  booking.Handler
	Offering offering.Handler
	User     user.Handler
	Audit    audit.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	AuthMiddleware middleware.Auth
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		r.DomainHandlers.Auth.Router(routerGroup)

		routerGroup.Group(func(authenticated chi.Router) {
			authenticated.Use(r.AuthMiddleware.Authenticated)

			r.DomainHandlers.Booking.Router(authenticated)
			r.DomainHandlers.Offering.Router(authenticated)
			r.DomainHandlers.User.Router(authenticated)
			r.DomainHandlers.Audit.Router(authenticated)
		})
	})
}

func New(domainHandlers DomainHandlers, authMiddleware middleware.Auth) Router {
	return Router{
		DomainHandlers: domainHandlers,
		AuthMiddleware: authMiddleware,
	}
}
