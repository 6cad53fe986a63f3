package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Profiles       *handlers.ProfilesHandler
	Me             *handlers.MeHandler
	AuthMiddleware *auth.AuthMiddleware
	Access         Authorizer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	authn := cfg.AuthMiddleware.Handle
	can := func(resource domain.Resource, action domain.Action) fiber.Handler {
		return RequirePermission(cfg.Access, resource, action)
	}
	adminOnly := auth.RequireRole(domain.RoleAdmin)

	app.Get("/metrics", authn, can(domain.ResourceReports, domain.ActionView), cfg.Health.Metrics)

	me := app.Group("/me", authn)
	me.Get("/", cfg.Me.Profile)
	me.Get("/permissions", cfg.Me.Permissions)

	tickets := app.Group("/tickets", authn)
	tickets.Post("/", can(domain.ResourceTickets, domain.ActionCreate), cfg.Tickets.CreateTicket)
	tickets.Get("/", can(domain.ResourceTickets, domain.ActionView), cfg.Tickets.ListTickets)
	tickets.Get("/:id", can(domain.ResourceTickets, domain.ActionView), cfg.Tickets.GetTicket)
	tickets.Patch("/:id", auth.RequireStaff(), can(domain.ResourceTickets, domain.ActionEdit), cfg.Tickets.UpdateTicket)
	tickets.Post("/:id/approve", RequireAnyPermission(cfg.Access,
		domain.NewPermission(domain.ResourceApprove, domain.ActionApprove),
		domain.NewPermission(domain.ResourceTickets, domain.ActionApprove),
	), cfg.Tickets.Approve)
	tickets.Post("/:id/reject", RequireAnyPermission(cfg.Access,
		domain.NewPermission(domain.ResourceApprove, domain.ActionReject),
		domain.NewPermission(domain.ResourceTickets, domain.ActionReject),
	), cfg.Tickets.Reject)
	tickets.Post("/:id/schedule", can(domain.ResourceAgenda, domain.ActionEdit), cfg.Tickets.Schedule)
	tickets.Delete("/:id/schedule", can(domain.ResourceAgenda, domain.ActionEdit), cfg.Tickets.Unschedule)
	tickets.Get("/:id/history", can(domain.ResourceHistory, domain.ActionView), cfg.Tickets.History)

	profiles := app.Group("/profiles", authn)
	profiles.Get("/", can(domain.ResourceProfiles, domain.ActionView), cfg.Profiles.List)
	profiles.Get("/:id", can(domain.ResourceProfiles, domain.ActionView), cfg.Profiles.Get)
	profiles.Post("/", adminOnly, can(domain.ResourceProfiles, domain.ActionCreate), cfg.Profiles.Create)
	profiles.Put("/:id", adminOnly, can(domain.ResourceProfiles, domain.ActionEdit), cfg.Profiles.Update)
	profiles.Delete("/:id", adminOnly, can(domain.ResourceProfiles, domain.ActionDelete), cfg.Profiles.Delete)
	profiles.Post("/:id/grants", adminOnly, can(domain.ResourceProfiles, domain.ActionEdit), cfg.Profiles.AddGrant)
	profiles.Put("/:id/grants", adminOnly, can(domain.ResourceProfiles, domain.ActionEdit), cfg.Profiles.ReplaceGrants)
	profiles.Delete("/:id/grants/:permission", adminOnly, can(domain.ResourceProfiles, domain.ActionEdit), cfg.Profiles.RemoveGrant)
	profiles.Put("/:id/pages", adminOnly, can(domain.ResourceProfiles, domain.ActionEdit), cfg.Profiles.SetPages)
	profiles.Post("/:id/members/:userId", adminOnly, can(domain.ResourceProfiles, domain.ActionEdit), cfg.Profiles.LinkUser)
	profiles.Delete("/:id/members/:userId", adminOnly, can(domain.ResourceProfiles, domain.ActionEdit), cfg.Profiles.UnlinkUser)

	users := app.Group("/users", authn)
	users.Get("/:userId/profiles", can(domain.ResourceProfiles, domain.ActionView), cfg.Profiles.ForUser)
}
