// Package app assembles services, handlers and the HTTP server from infrastructure.
package app

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/helpdesk-io/helpdesk/internal/api/http"
	"github.com/helpdesk-io/helpdesk/internal/api/http/handlers"
	"github.com/helpdesk-io/helpdesk/internal/auth"
	"github.com/helpdesk-io/helpdesk/internal/config"
	"github.com/helpdesk-io/helpdesk/internal/events"
	"github.com/helpdesk-io/helpdesk/internal/notify"
	"github.com/helpdesk-io/helpdesk/internal/observability"
	"github.com/helpdesk-io/helpdesk/internal/persistence"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	"github.com/helpdesk-io/helpdesk/internal/service"
	"github.com/helpdesk-io/helpdesk/internal/storage"
	"github.com/helpdesk-io/helpdesk/internal/worker"
)

// Infra is the infrastructure the container is built on. Postgres and Redis
// are only used for health reporting; Repos already wraps them.
type Infra struct {
	Repos    repository.Set
	Mailer   notify.Mailer
	Store    storage.Store
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	Postgres *persistence.Postgres
	Redis    *persistence.Redis
}

// Container holds the wired application.
type Container struct {
	App           *fiber.App
	Dispatcher    events.Dispatcher
	Settings      *service.SettingsService
	Tickets       *service.TicketService
	Notifications *service.NotificationService
	SLA           *service.SLAService
	Auth          *service.AuthService
}

// MailerFactory builds the mailer once the settings service exists, since
// SMTP settings are read from the live document.
type MailerFactory func(settings notify.SettingsSource) (notify.Mailer, error)

// Build wires every service and registers the HTTP routes.
func Build(cfg config.Config, infra Infra, newMailer MailerFactory) (*Container, error) {
	logger := infra.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := infra.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	repos := infra.Repos

	dispatcher := events.NewInMemoryDispatcher(logger, events.WithErrorHook(func(t events.EventType) {
		metrics.RecordSideEffectError("event:" + string(t))
	}))

	auditService := service.NewAuditService(repos.Audit, logger)
	settingsService := service.NewSettingsService(repos.Settings, repos.Users, auditService, logger)

	mailer := infra.Mailer
	if mailer == nil && newMailer != nil {
		built, err := newMailer(settingsService)
		if err != nil {
			return nil, err
		}
		mailer = built
	}

	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:       dispatcher,
		NotificationRepo: repos.Notifications,
		UserRepo:         repos.Users,
		TicketRepo:       repos.Tickets,
		Mailer:           mailer,
		Logger:           logger,
		Metrics:          metrics,
		BaseURL:          cfg.App.BaseURL,
	})
	worker.StartNotificationWorker(notificationService)

	assignment := service.NewAssignmentService(repos.Tickets, repos.Users)
	ticketService := service.NewTicketService(service.TicketDependencies{
		Repos:      repos,
		Settings:   settingsService,
		Assignment: assignment,
		Audit:      auditService,
		Store:      infra.Store,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	commentService := service.NewCommentService(repos.Tickets, repos.Comments, dispatcher)
	publicService := service.NewPublicService(repos.Tickets, repos.Comments, dispatcher)
	slaService := service.NewSLAService(repos.Tickets, notificationService, metrics, logger)
	userService := service.NewUserService(repos.Users, auditService, cfg.Auth.BcryptCost)
	catalogService := service.NewCatalogService(repos.Lookups, repos.FAQs, repos.CannedResponses)
	dashboardService := service.NewDashboardService(repos.Tickets)
	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:    repos.Users,
		ResetTokens: repos.ResetTokens,
		Mailer:      mailer,
		Audit:       auditService,
		Logger:      logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.Users)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: cfg.Storage.BodyLimit(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, dispatcher, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, infra.Postgres, infra.Redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Public:         handlers.NewPublicHandler(publicService),
		Comments:       handlers.NewCommentsHandler(commentService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Settings:       handlers.NewSettingsHandler(settingsService, auditService),
		SLA:            handlers.NewSLAHandler(slaService, cfg.SLA.SweepSecret),
		Users:          handlers.NewUsersHandler(userService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		Files:          handlers.NewFilesHandler(infra.Store),
		AuthMiddleware: authMiddleware,
		Modules:        settingsService,
	})

	return &Container{
		App:           app,
		Dispatcher:    dispatcher,
		Settings:      settingsService,
		Tickets:       ticketService,
		Notifications: notificationService,
		SLA:           slaService,
		Auth:          authService,
	}, nil
}
