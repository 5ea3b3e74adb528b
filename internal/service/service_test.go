package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/helpdesk-io/helpdesk/internal/auth"
	"github.com/helpdesk-io/helpdesk/internal/config"
	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/events"
	"github.com/helpdesk-io/helpdesk/internal/notify"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	"github.com/helpdesk-io/helpdesk/internal/repository/memory"
	apperrors "github.com/helpdesk-io/helpdesk/pkg/util/errorutil"
)

const testPassword = "correct-horse"

type harness struct {
	store         *memory.Store
	repos         repository.Set
	mailer        *notify.Recorder
	dispatcher    events.Dispatcher
	audit         *AuditService
	settings      *SettingsService
	assignment    *AssignmentService
	notifications *NotificationService
	tickets       *TicketService
	comments      *CommentService
	public        *PublicService
	sla           *SLAService
	users         *UserService
	auth          *AuthService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{store: memory.NewStore(), mailer: notify.NewRecorder()}
	h.repos = h.store.Repositories()
	h.dispatcher = events.NewInMemoryDispatcher(nil)
	h.audit = NewAuditService(h.repos.Audit, nil)
	h.settings = NewSettingsService(h.repos.Settings, h.repos.Users, h.audit, nil)
	h.assignment = NewAssignmentService(h.repos.Tickets, h.repos.Users)
	h.notifications = NewNotificationService(NotificationDependencies{
		Dispatcher:       h.dispatcher,
		NotificationRepo: h.repos.Notifications,
		UserRepo:         h.repos.Users,
		TicketRepo:       h.repos.Tickets,
		Mailer:           h.mailer,
		BaseURL:          "http://helpdesk.test",
	})
	h.notifications.RegisterHandlers()
	h.tickets = NewTicketService(TicketDependencies{
		Repos:      h.repos,
		Settings:   h.settings,
		Assignment: h.assignment,
		Audit:      h.audit,
		Dispatcher: h.dispatcher,
	})
	h.comments = NewCommentService(h.repos.Tickets, h.repos.Comments, h.dispatcher)
	h.public = NewPublicService(h.repos.Tickets, h.repos.Comments, h.dispatcher)
	h.sla = NewSLAService(h.repos.Tickets, h.notifications, nil, nil)
	h.users = NewUserService(h.repos.Users, h.audit, bcrypt.MinCost)

	cfg := config.Config{
		App:  config.AppConfig{BaseURL: "http://helpdesk.test"},
		Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 15, PasswordResetTTLMinutes: 30, BcryptCost: bcrypt.MinCost},
	}
	h.auth = NewAuthService(cfg, AuthDependencies{
		UserRepo:    h.repos.Users,
		ResetTokens: h.repos.ResetTokens,
		Mailer:      h.mailer,
		Audit:       h.audit,
	})
	return h
}

func (h *harness) user(t *testing.T, name string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)
	u := &domain.User{
		Name:         name,
		Email:        name + "@school.test",
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	require.NoError(t, h.repos.Users.Create(context.Background(), u))
	return u
}

func (h *harness) fixClock(at time.Time) {
	clock := func() time.Time { return at }
	h.tickets.now = clock
	h.sla.now = clock
}

func (h *harness) notificationsFor(t *testing.T, userID string) []domain.Notification {
	t.Helper()
	items, err := h.repos.Notifications.ListByUser(context.Background(), userID, false, 100, 0)
	require.NoError(t, err)
	return items
}

func statusOf(err error) int {
	return apperrors.ToDomainError(err).HTTPStatus
}

func newTicket(t *testing.T, h *harness, actor *domain.User, priority domain.TicketPriority) *domain.Ticket {
	t.Helper()
	ticket, err := h.tickets.CreateTicket(context.Background(), actor, TicketCreateInput{
		Title:       "Projector broken",
		Description: "Room 12 projector does not turn on",
		Priority:    priority,
	})
	require.NoError(t, err)
	return ticket
}
