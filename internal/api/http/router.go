package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/helpdesk/internal/api/http/handlers"
	"github.com/helpdesk-io/helpdesk/internal/auth"
	"github.com/helpdesk-io/helpdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Public         *handlers.PublicHandler
	Comments       *handlers.CommentsHandler
	Notifications  *handlers.NotificationsHandler
	Settings       *handlers.SettingsHandler
	SLA            *handlers.SLAHandler
	Users          *handlers.UsersHandler
	Catalog        *handlers.CatalogHandler
	Dashboard      *handlers.DashboardHandler
	Files          *handlers.FilesHandler
	AuthMiddleware *auth.AuthMiddleware
	Modules        auth.SettingsSource
}

// RegisterRoutes wires HTTP routes. Public and protected routes share
// prefixes, so authentication is attached per route rather than per group.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	authed := cfg.AuthMiddleware.Handle
	optional := cfg.AuthMiddleware.Optional
	staff := auth.Require(auth.IsStaff, "staff only")
	module := func(m domain.Module) fiber.Handler { return auth.RequireModule(cfg.Modules, m) }

	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", authed, auth.RequireRoles(domain.AdminRoles...), cfg.Health.Metrics)
	app.Get("/files/:key", cfg.Files.Download)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	authGroup.Post("/password/change", authed, cfg.Auth.ChangePassword)
	authGroup.Get("/me", authed, cfg.Auth.Me)

	tickets := app.Group("/tickets")
	tickets.Post("/public", cfg.Tickets.CreatePublicTicket)
	tickets.Get("/status/:number", cfg.Public.Lookup)
	tickets.Post("/status/:number/comments", cfg.Public.AddComment)
	tickets.Post("/status/:number/rating", cfg.Public.Rate)
	tickets.Post("/", authed, module(domain.ModuleTickets), cfg.Tickets.CreateTicket)
	tickets.Get("/", authed, module(domain.ModuleTickets), cfg.Tickets.ListTickets)
	tickets.Get("/:id", authed, cfg.Tickets.GetTicket)
	tickets.Patch("/:id", authed, cfg.Tickets.UpdateTicket)
	tickets.Post("/:id/attachments", authed, cfg.Tickets.AddAttachments)
	tickets.Delete("/:id", authed, auth.Require(auth.CanDeleteTicket, "only administrators may delete tickets"), cfg.Tickets.DeleteTicket)
	tickets.Get("/:id/history", authed, staff, cfg.Tickets.ListHistory)

	comments := app.Group("/comments")
	comments.Get("/", authed, cfg.Comments.List)
	comments.Post("/", authed, cfg.Comments.Create)
	comments.Delete("/:id", authed, auth.Require(auth.CanDeleteComment, "only administrators may delete comments"), cfg.Comments.Delete)

	notifications := app.Group("/notifications", authed)
	notifications.Get("/", cfg.Notifications.List)
	notifications.Patch("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Patch("/:id/read", cfg.Notifications.MarkRead)

	settings := app.Group("/settings")
	settings.Get("/public", cfg.Settings.Public)
	settings.Get("/", authed, auth.Require(auth.CanManageSettings, "settings are restricted to administrators"), cfg.Settings.Get)
	settings.Put("/", authed, auth.Require(auth.CanManageSettings, "settings are restricted to administrators"), cfg.Settings.Update)
	settings.Post("/reload", authed, auth.Require(auth.CanManageSettings, "settings are restricted to administrators"), cfg.Settings.Reload)

	app.Get("/audit-logs", authed, auth.Require(auth.CanReadAudit, "audit log is restricted to super administrators"), cfg.Settings.AuditLogs)
	app.Post("/sla/sweep", cfg.SLA.Sweep)

	adminGroup := app.Group("/admin", authed, auth.Require(auth.CanManageUsers, "user management is restricted to administrators"), module(domain.ModuleUsers))
	adminGroup.Get("/users", cfg.Users.List)
	adminGroup.Post("/users", cfg.Users.Create)
	adminGroup.Patch("/users/:id", cfg.Users.Update)
	adminGroup.Delete("/users/:id", cfg.Users.Delete)
	app.Get("/agents", authed, staff, cfg.Users.Agents)

	lookups := []struct {
		path string
		kind domain.LookupKind
	}{
		{"/categories", domain.LookupCategory},
		{"/ticket-sources", domain.LookupSource},
		{"/service-types", domain.LookupServiceType},
	}
	for _, l := range lookups {
		app.Get(l.path, optional, cfg.Catalog.ListLookups(l.kind))
		app.Post(l.path, authed, module(domain.ModuleCatalogs), cfg.Catalog.CreateLookup(l.kind))
		app.Patch(l.path+"/:id", authed, module(domain.ModuleCatalogs), cfg.Catalog.UpdateLookup(l.kind))
		app.Delete(l.path+"/:id", authed, module(domain.ModuleCatalogs), cfg.Catalog.DeleteLookup(l.kind))
	}

	app.Get("/faqs", optional, cfg.Catalog.ListFAQs)
	app.Post("/faqs", authed, module(domain.ModuleFAQs), cfg.Catalog.CreateFAQ)
	app.Patch("/faqs/:id", authed, module(domain.ModuleFAQs), cfg.Catalog.UpdateFAQ)
	app.Delete("/faqs/:id", authed, module(domain.ModuleFAQs), cfg.Catalog.DeleteFAQ)

	canned := app.Group("/canned-responses", authed, module(domain.ModuleCannedResponses))
	canned.Get("/", cfg.Catalog.ListCannedResponses)
	canned.Post("/", cfg.Catalog.CreateCannedResponse)
	canned.Patch("/:id", cfg.Catalog.UpdateCannedResponse)
	canned.Delete("/:id", cfg.Catalog.DeleteCannedResponse)

	app.Get("/dashboard/stats", authed, module(domain.ModuleDashboard), cfg.Dashboard.Stats)
}
