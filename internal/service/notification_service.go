package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/events"
	"github.com/helpdesk-io/helpdesk/internal/notify"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-io/helpdesk/pkg/util/errorutil"
)

// SideEffectRecorder counts failed best-effort side effects.
type SideEffectRecorder interface {
	RecordSideEffectError(kind string)
}

// NotificationService fans ticket events out to in-app notifications and email.
type NotificationService struct {
	dispatcher    events.Dispatcher
	notifications repository.NotificationRepository
	users         repository.UserRepository
	tickets       repository.TicketRepository
	mailer        notify.Mailer
	logger        *zap.Logger
	metrics       SideEffectRecorder
	baseURL       string
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	Dispatcher       events.Dispatcher
	NotificationRepo repository.NotificationRepository
	UserRepo         repository.UserRepository
	TicketRepo       repository.TicketRepository
	Mailer           notify.Mailer
	Logger           *zap.Logger
	Metrics          SideEffectRecorder
	BaseURL          string
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher:    deps.Dispatcher,
		notifications: deps.NotificationRepo,
		users:         deps.UserRepo,
		tickets:       deps.TicketRepo,
		mailer:        deps.Mailer,
		logger:        logger,
		metrics:       deps.Metrics,
		baseURL:       strings.TrimRight(deps.BaseURL, "/"),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketPriorityChanged, n.handleTicketPriorityChanged)
	n.dispatcher.Subscribe(events.EventCommentAdded, n.handleCommentAdded)
	n.dispatcher.Subscribe(events.EventTicketRated, n.handleTicketRated)
}

// List returns the caller's notifications, newest first.
func (n *NotificationService) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	items, err := n.notifications.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return items, nil
}

// MarkRead flags one of the caller's notifications.
func (n *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return apperrors.NotFoundOr(n.notifications.MarkRead(ctx, id, userID), "notification", map[string]any{"notification_id": id})
}

// MarkAllRead flags every unread notification of the caller.
func (n *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	count, err := n.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return fmt.Errorf("load ticket %s: %w", event.TicketID, err)
	}
	active := true
	staff, err := repository.ListAllUsers(ctx, n.users, repository.UserFilter{Roles: domain.StaffRoles, Active: &active})
	if err != nil {
		return fmt.Errorf("list staff: %w", err)
	}

	title := fmt.Sprintf("New ticket #%d", ticket.Number)
	for _, member := range staff {
		if isActor(event, member.ID) {
			continue
		}
		n.push(ctx, member.ID, domain.NotificationTicketCreated, title, ticket.Title, ticket)
	}

	if ticket.AgentID != nil && !isActor(event, *ticket.AgentID) {
		n.notifyAssigned(ctx, ticket, *ticket.AgentID)
	}

	if to, name := n.requesterEmail(ctx, ticket); to != "" {
		n.email(ctx, to, fmt.Sprintf("Ticket #%d received", ticket.Number), notify.TemplateTicketCreated, ticket, map[string]any{
			"Name":     name,
			"Priority": string(ticket.Priority),
		})
	}
	return nil
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAssignedPayload)
	if !ok || payload.AgentID == nil || isActor(event, *payload.AgentID) {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return fmt.Errorf("load ticket %s: %w", event.TicketID, err)
	}
	n.notifyAssigned(ctx, ticket, *payload.AgentID)
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return fmt.Errorf("load ticket %s: %w", event.TicketID, err)
	}
	if ticket.OwnerID != nil && isActor(event, *ticket.OwnerID) {
		return nil
	}
	if ticket.OwnerID != nil {
		n.push(ctx, *ticket.OwnerID, domain.NotificationStatusChanged,
			fmt.Sprintf("Ticket #%d is now %s", ticket.Number, payload.NewState),
			ticket.Title, ticket)
	}
	if to, name := n.requesterEmail(ctx, ticket); to != "" {
		n.email(ctx, to, fmt.Sprintf("Ticket #%d status changed", ticket.Number), notify.TemplateStatusChanged, ticket, map[string]any{
			"Name":     name,
			"OldState": string(payload.OldState),
			"NewState": string(payload.NewState),
		})
	}
	return nil
}

func (n *NotificationService) handleTicketPriorityChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketPriorityChangedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return fmt.Errorf("load ticket %s: %w", event.TicketID, err)
	}
	if ticket.AgentID == nil || isActor(event, *ticket.AgentID) {
		return nil
	}
	n.push(ctx, *ticket.AgentID, domain.NotificationPriorityChanged,
		fmt.Sprintf("Ticket #%d priority is now %s", ticket.Number, payload.NewPriority),
		ticket.Title, ticket)
	return nil
}

func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentAddedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return fmt.Errorf("load ticket %s: %w", event.TicketID, err)
	}
	title := fmt.Sprintf("New comment on ticket #%d", ticket.Number)

	switch {
	case payload.Internal:
		if ticket.AgentID != nil && !isActor(event, *ticket.AgentID) {
			n.push(ctx, *ticket.AgentID, domain.NotificationNewComment, title, payload.BodyPreview, ticket)
		}
	case payload.ByStaff:
		if ticket.OwnerID != nil && !isActor(event, *ticket.OwnerID) {
			n.push(ctx, *ticket.OwnerID, domain.NotificationNewComment, title, payload.BodyPreview, ticket)
		}
		if to, name := n.requesterEmail(ctx, ticket); to != "" && (ticket.OwnerID == nil || !isActor(event, *ticket.OwnerID)) {
			n.email(ctx, to, title, notify.TemplateNewComment, ticket, map[string]any{
				"Name": name, "Author": payload.AuthorName, "Message": payload.BodyPreview,
			})
		}
	default:
		if ticket.AgentID == nil || isActor(event, *ticket.AgentID) {
			return nil
		}
		n.push(ctx, *ticket.AgentID, domain.NotificationNewComment, title, payload.BodyPreview, ticket)
		if agent, err := n.users.GetByID(ctx, *ticket.AgentID); err == nil {
			n.email(ctx, agent.Email, title, notify.TemplateNewComment, ticket, map[string]any{
				"Name": agent.Name, "Author": payload.AuthorName, "Message": payload.BodyPreview,
			})
		}
	}
	return nil
}

func (n *NotificationService) handleTicketRated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketRatedPayload)
	if !ok {
		return nil
	}
	ticket, err := n.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return fmt.Errorf("load ticket %s: %w", event.TicketID, err)
	}
	if ticket.AgentID == nil {
		return nil
	}
	n.push(ctx, *ticket.AgentID, domain.NotificationTicketRated,
		fmt.Sprintf("Ticket #%d rated %d/5", ticket.Number, payload.Rating),
		payload.Comment, ticket)
	return nil
}

// NotifySLABreach alerts the assigned agent (in-app and email) and every admin
// and super admin (in-app), each recipient once. It returns the number of
// in-app notifications written. The agent is served before admins are
// listed, so a failed admin lookup still reports what was delivered.
func (n *NotificationService) NotifySLABreach(ctx context.Context, ticket *domain.Ticket) (int, error) {
	title := fmt.Sprintf("SLA breached on ticket #%d", ticket.Number)
	seen := map[string]struct{}{}
	sent := 0
	deliver := func(userID string) {
		if _, dup := seen[userID]; dup {
			return
		}
		seen[userID] = struct{}{}
		if n.push(ctx, userID, domain.NotificationSLABreach, title, ticket.Title, ticket) {
			sent++
		}
	}

	if ticket.AgentID != nil {
		deliver(*ticket.AgentID)
		if agent, err := n.users.GetByID(ctx, *ticket.AgentID); err == nil {
			n.email(ctx, agent.Email, title, notify.TemplateSLABreach, ticket, map[string]any{
				"Name":     agent.Name,
				"Priority": string(ticket.Priority),
				"DueAt":    ticket.SLADueAt.UTC().Format("2006-01-02 15:04 MST"),
			})
		} else {
			n.logger.Warn("sla breach: assigned agent lookup failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	active := true
	admins, err := repository.ListAllUsers(ctx, n.users, repository.UserFilter{Roles: domain.AdminRoles, Active: &active})
	if err != nil {
		return sent, fmt.Errorf("list admins: %w", err)
	}
	for _, admin := range admins {
		deliver(admin.ID)
	}
	return sent, nil
}

func (n *NotificationService) notifyAssigned(ctx context.Context, ticket *domain.Ticket, agentID string) {
	title := fmt.Sprintf("Ticket #%d assigned to you", ticket.Number)
	n.push(ctx, agentID, domain.NotificationTicketAssigned, title, ticket.Title, ticket)
	agent, err := n.users.GetByID(ctx, agentID)
	if err != nil {
		n.logger.Warn("assigned agent lookup failed", zap.String("agent_id", agentID), zap.Error(err))
		return
	}
	n.email(ctx, agent.Email, title, notify.TemplateTicketAssigned, ticket, map[string]any{"Name": agent.Name})
}

// push writes one in-app notification and reports whether it was stored.
func (n *NotificationService) push(ctx context.Context, userID string, kind domain.NotificationType, title, message string, ticket *domain.Ticket) bool {
	notification := &domain.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Link:    "/tickets/" + ticket.ID,
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		n.logger.Error("notification write failed",
			zap.String("user_id", userID),
			zap.String("type", string(kind)),
			zap.Error(err))
		n.recordFailure("notification")
		return false
	}
	return true
}

func (n *NotificationService) email(ctx context.Context, to, subject, template string, ticket *domain.Ticket, data map[string]any) {
	if n.mailer == nil || to == "" {
		return
	}
	payload := map[string]any{
		"Number": ticket.Number,
		"Title":  ticket.Title,
		"Link":   n.ticketLink(ticket),
	}
	for k, v := range data {
		payload[k] = v
	}
	err := n.mailer.Send(ctx, notify.Message{To: to, Subject: subject, Template: template, Data: payload})
	switch {
	case err == nil:
	case errors.Is(err, notify.ErrMailDisabled):
		n.logger.Debug("email skipped", zap.String("to", to), zap.String("template", template))
	default:
		n.logger.Error("email delivery failed", zap.String("to", to), zap.String("template", template), zap.Error(err))
		n.recordFailure("email")
	}
}

func (n *NotificationService) ticketLink(ticket *domain.Ticket) string {
	if n.baseURL == "" {
		return ""
	}
	if ticket.OwnerID == nil {
		return fmt.Sprintf("%s/status/%d", n.baseURL, ticket.Number)
	}
	return n.baseURL + "/tickets/" + ticket.ID
}

// requesterEmail resolves the address and display name of the ticket's requester.
func (n *NotificationService) requesterEmail(ctx context.Context, ticket *domain.Ticket) (string, string) {
	if ticket.Guest != nil {
		return ticket.Guest.Email, ticket.Guest.Name
	}
	if ticket.OwnerID == nil {
		return "", ""
	}
	owner, err := n.users.GetByID(ctx, *ticket.OwnerID)
	if err != nil {
		n.logger.Warn("ticket owner lookup failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return "", ""
	}
	return owner.Email, owner.Name
}

func (n *NotificationService) recordFailure(kind string) {
	if n.metrics != nil {
		n.metrics.RecordSideEffectError(kind)
	}
}

func isActor(event events.Event, userID string) bool {
	return event.ActorID != nil && *event.ActorID == userID
}
