package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk/internal/auth"
	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/events"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	"github.com/helpdesk-io/helpdesk/internal/storage"
	apperrors "github.com/helpdesk-io/helpdesk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	counters   repository.CounterRepository
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	comments   repository.CommentRepository
	users      repository.UserRepository
	lookups    repository.LookupRepository
	settings   SettingsProvider
	assignment *AssignmentService
	audit      *AuditService
	store      storage.Store
	dispatcher events.Dispatcher
	metrics    SideEffectRecorder
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Repos      repository.Set
	Settings   SettingsProvider
	Assignment *AssignmentService
	Audit      *AuditService
	Store      storage.Store
	Dispatcher events.Dispatcher
	Metrics    SideEffectRecorder
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title            string
	Description      string
	Priority         domain.TicketPriority
	State            domain.TicketState
	CategoryID       *string
	SourceID         *string
	ServiceTypeID    *string
	RequesterID      *string
	Guest            *domain.GuestContact
	AgentID          *string
	Attachments      []domain.Attachment
	Uploads          []Upload
	LegacyAttachment *string
}

// TicketPatch is a partial update. Nil pointers leave the field untouched;
// AgentID distinguishes "absent" from "null" (unassign).
type TicketPatch struct {
	Title            *string
	Description      *string
	Guest            *domain.GuestContact
	CategoryID       *string
	LegacyAttachment *string
	State            *domain.TicketState
	Priority         *domain.TicketPriority
	SourceID         *string
	ServiceTypeID    *string
	AgentID          domain.OptionalString
}

func (p TicketPatch) touchesStaffFields() bool {
	return p.State != nil || p.Priority != nil || p.SourceID != nil || p.ServiceTypeID != nil || p.AgentID.Set
}

// TicketDetail is a ticket with its thread as visible to the reader.
type TicketDetail struct {
	Ticket   *domain.Ticket
	Comments []domain.Comment
	History  []domain.TicketHistory
}

// Upload is a file received with a ticket.
type Upload struct {
	Name   string
	Reader io.Reader
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		counters:   deps.Repos.Counters,
		tickets:    deps.Repos.Tickets,
		history:    deps.Repos.History,
		comments:   deps.Repos.Comments,
		users:      deps.Repos.Users,
		lookups:    deps.Repos.Lookups,
		settings:   deps.Settings,
		assignment: deps.Assignment,
		audit:      deps.Audit,
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateTicket files a ticket. actor is nil for the anonymous public endpoint.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description are required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	ticket := &domain.Ticket{
		Title:            title,
		Description:      description,
		State:            domain.TicketStateOpen,
		Priority:         priority,
		Attachments:      input.Attachments,
		LegacyAttachment: input.LegacyAttachment,
	}
	if err := s.resolveRequester(ctx, actor, input, ticket); err != nil {
		return nil, err
	}

	staff := auth.IsStaff(actor)
	if input.State != "" {
		if !staff {
			return nil, apperrors.NewForbidden("only staff may set the initial state")
		}
		if !input.State.Valid() {
			return nil, apperrors.NewValidationError("invalid state", map[string]any{"state": input.State})
		}
		ticket.State = input.State
	}
	if (input.SourceID != nil || input.ServiceTypeID != nil) && !staff {
		return nil, apperrors.NewForbidden("only staff may set source or service type")
	}
	if err := s.checkLookup(ctx, domain.LookupCategory, input.CategoryID); err != nil {
		return nil, err
	}
	if err := s.checkLookup(ctx, domain.LookupSource, input.SourceID); err != nil {
		return nil, err
	}
	if err := s.checkLookup(ctx, domain.LookupServiceType, input.ServiceTypeID); err != nil {
		return nil, err
	}
	ticket.CategoryID = input.CategoryID
	ticket.SourceID = input.SourceID
	ticket.ServiceTypeID = input.ServiceTypeID

	agent, err := s.chooseAgent(ctx, actor, input.AgentID)
	if err != nil {
		return nil, err
	}
	if agent != nil {
		ticket.AgentID = &agent.ID
	}

	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	if len(input.Uploads) > 0 {
		stored, err := s.storeUploads(ctx, input.Uploads)
		if err != nil {
			return nil, err
		}
		ticket.Attachments = append(ticket.Attachments, stored...)
	}
	number, err := s.counters.Next(ctx, repository.TicketNumberCounter)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("allocate ticket number: %w", err))
	}
	ticket.Number = number
	ticket.CreatedAt = s.now().UTC()
	ticket.SLADueAt = ticket.CreatedAt.Add(settings.SLADuration(ticket.Priority))
	if actor != nil {
		ticket.CreatedByID = &actor.ID
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if actor != nil {
		s.recordHistory(ctx, ticket.ID, &actor.ID, domain.HistoryCreated, nil, ptr(string(ticket.State)),
			fmt.Sprintf("Ticket #%d created", ticket.Number))
	}
	events.Emit(ctx, s.dispatcher, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  actorID(actor),
		Payload: events.TicketCreatedPayload{
			Number:   ticket.Number,
			Title:    ticket.Title,
			Priority: ticket.Priority,
			AgentID:  ticket.AgentID,
		},
	})
	return ticket, nil
}

func (s *TicketService) resolveRequester(ctx context.Context, actor *domain.User, input TicketCreateInput, ticket *domain.Ticket) error {
	if input.RequesterID != nil && input.Guest != nil {
		return apperrors.NewValidationError("requester_id and guest contact are mutually exclusive", nil)
	}

	if actor == nil {
		if input.Guest == nil || strings.TrimSpace(input.Guest.Name) == "" || strings.TrimSpace(input.Guest.Email) == "" {
			return apperrors.NewValidationError("guest name and email are required", nil)
		}
		ticket.Guest = trimGuest(*input.Guest)
		return nil
	}

	if !auth.IsStaff(actor) {
		if input.RequesterID != nil || input.Guest != nil || input.AgentID != nil {
			return apperrors.NewForbidden("only staff may file tickets on behalf of others")
		}
		ticket.OwnerID = &actor.ID
		return nil
	}

	switch {
	case input.RequesterID != nil:
		requester, err := s.users.GetByID(ctx, *input.RequesterID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NewValidationError("requester not found", map[string]any{"requester_id": *input.RequesterID})
			}
			return apperrors.MapError(err)
		}
		ticket.OwnerID = &requester.ID
	case input.Guest != nil:
		if strings.TrimSpace(input.Guest.Name) == "" {
			return apperrors.NewValidationError("guest name is required", nil)
		}
		ticket.Guest = trimGuest(*input.Guest)
	default:
		ticket.OwnerID = &actor.ID
	}
	return nil
}

func (s *TicketService) chooseAgent(ctx context.Context, actor *domain.User, requested *string) (*domain.User, error) {
	if requested != nil && *requested != "" {
		if !auth.IsStaff(actor) {
			return nil, apperrors.NewForbidden("only staff may choose the agent")
		}
		return s.assignment.ValidateAssignee(ctx, *requested)
	}
	return s.assignment.LeastLoadedAgent(ctx)
}

func (s *TicketService) checkLookup(ctx context.Context, kind domain.LookupKind, id *string) error {
	if id == nil {
		return nil
	}
	if _, err := s.lookups.GetByID(ctx, kind, *id); err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewValidationError(fmt.Sprintf("unknown %s", kind), map[string]any{"id": *id})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// GetTicket returns the ticket with comments filtered for the reader; staff also get history.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, id string) (*TicketDetail, error) {
	ticket, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID, auth.CanSeeInternal(actor))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	detail := &TicketDetail{Ticket: ticket, Comments: comments}
	if auth.IsStaff(actor) {
		if detail.History, err = s.history.ListByTicket(ctx, ticket.ID); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	return detail, nil
}

// ListTickets lists tickets; requesters only see their own.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if !auth.IsStaff(actor) {
		filter.OwnerID = &actor.ID
	}
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListHistory returns the audit trail of a ticket. Staff only.
func (s *TicketService) ListHistory(ctx context.Context, actor *domain.User, id string) ([]domain.TicketHistory, error) {
	if !auth.IsStaff(actor) {
		return nil, apperrors.NewForbidden("history is restricted to staff")
	}
	if _, err := s.tickets.GetByID(ctx, id); err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": id})
	}
	entries, err := s.history.ListByTicket(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

type ticketChange struct {
	action      domain.HistoryAction
	old, new    *string
	description string
	event       events.Event
}

// UpdateTicket applies a partial update. Owners may only touch descriptive
// fields; changes to agent, state or priority are recorded and announced.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, id string, patch TicketPatch) (*domain.Ticket, error) {
	ticket, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	staff := auth.CanEditTicketFields(actor)
	if !staff && patch.touchesStaffFields() {
		return nil, apperrors.NewForbidden("requesters may only edit title, description, contact, category and attachment")
	}
	if ticket.Closed() {
		return nil, apperrors.NewConflict("ticket is closed", map[string]any{"ticket_id": ticket.ID})
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title cannot be empty", nil)
		}
		ticket.Title = title
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if description == "" {
			return nil, apperrors.NewValidationError("description cannot be empty", nil)
		}
		ticket.Description = description
	}
	if patch.Guest != nil {
		if ticket.Guest == nil {
			return nil, apperrors.NewValidationError("ticket has a registered requester", nil)
		}
		if strings.TrimSpace(patch.Guest.Name) == "" {
			return nil, apperrors.NewValidationError("guest name is required", nil)
		}
		ticket.Guest = trimGuest(*patch.Guest)
	}
	if patch.CategoryID != nil {
		if err := s.checkLookup(ctx, domain.LookupCategory, patch.CategoryID); err != nil {
			return nil, err
		}
		ticket.CategoryID = patch.CategoryID
	}
	if patch.SourceID != nil {
		if err := s.checkLookup(ctx, domain.LookupSource, patch.SourceID); err != nil {
			return nil, err
		}
		ticket.SourceID = patch.SourceID
	}
	if patch.ServiceTypeID != nil {
		if err := s.checkLookup(ctx, domain.LookupServiceType, patch.ServiceTypeID); err != nil {
			return nil, err
		}
		ticket.ServiceTypeID = patch.ServiceTypeID
	}
	if patch.LegacyAttachment != nil {
		ticket.LegacyAttachment = patch.LegacyAttachment
	}

	var changes []ticketChange
	if patch.AgentID.Set && !sameString(ticket.AgentID, patch.AgentID.Value) {
		description := "Ticket unassigned"
		if patch.AgentID.Value != nil {
			agent, err := s.assignment.ValidateAssignee(ctx, *patch.AgentID.Value)
			if err != nil {
				return nil, err
			}
			description = "Assigned to " + agent.Name
		}
		changes = append(changes, ticketChange{
			action:      domain.HistoryAssigned,
			old:         ticket.AgentID,
			new:         patch.AgentID.Value,
			description: description,
			event: events.Event{
				Type:    events.EventTicketAssigned,
				Payload: events.TicketAssignedPayload{OldAgentID: ticket.AgentID, AgentID: patch.AgentID.Value},
			},
		})
		ticket.AgentID = patch.AgentID.Value
	}
	if patch.State != nil && *patch.State != ticket.State {
		if !patch.State.Valid() {
			return nil, apperrors.NewValidationError("invalid state", map[string]any{"state": *patch.State})
		}
		changes = append(changes, ticketChange{
			action:      domain.HistoryStatusChanged,
			old:         ptr(string(ticket.State)),
			new:         ptr(string(*patch.State)),
			description: fmt.Sprintf("State changed from %s to %s", ticket.State, *patch.State),
			event: events.Event{
				Type:    events.EventTicketStatusChanged,
				Payload: events.TicketStatusChangedPayload{OldState: ticket.State, NewState: *patch.State},
			},
		})
		ticket.State = *patch.State
	}
	if patch.Priority != nil && *patch.Priority != ticket.Priority {
		if !patch.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *patch.Priority})
		}
		changes = append(changes, ticketChange{
			action:      domain.HistoryPriorityChanged,
			old:         ptr(string(ticket.Priority)),
			new:         ptr(string(*patch.Priority)),
			description: fmt.Sprintf("Priority changed from %s to %s", ticket.Priority, *patch.Priority),
			event: events.Event{
				Type:    events.EventTicketPriorityChanged,
				Payload: events.TicketPriorityChangedPayload{OldPriority: ticket.Priority, NewPriority: *patch.Priority},
			},
		})
		ticket.Priority = *patch.Priority
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": id})
	}

	for _, change := range changes {
		s.recordHistory(ctx, ticket.ID, &actor.ID, change.action, change.old, change.new, change.description)
		change.event.TicketID = ticket.ID
		change.event.ActorID = &actor.ID
		events.Emit(ctx, s.dispatcher, change.event)
	}
	return ticket, nil
}

// AddAttachments stores uploads and appends them to the ticket.
func (s *TicketService) AddAttachments(ctx context.Context, actor *domain.User, id string, uploads []Upload) (*domain.Ticket, error) {
	if len(uploads) == 0 {
		return nil, apperrors.NewValidationError("no files uploaded", nil)
	}
	ticket, err := s.loadVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if ticket.Closed() {
		return nil, apperrors.NewConflict("ticket is closed", map[string]any{"ticket_id": ticket.ID})
	}

	stored, err := s.storeUploads(ctx, uploads)
	if err != nil {
		return nil, err
	}
	ticket.Attachments = append(ticket.Attachments, stored...)
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": id})
	}
	return ticket, nil
}

func (s *TicketService) storeUploads(ctx context.Context, uploads []Upload) ([]domain.Attachment, error) {
	if s.store == nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("attachment storage not configured"))
	}
	out := make([]domain.Attachment, 0, len(uploads))
	for _, upload := range uploads {
		obj, err := s.store.Put(ctx, upload.Name, upload.Reader)
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("store attachment %q: %w", upload.Name, err))
		}
		out = append(out, domain.Attachment{
			URL:          obj.URL,
			StorageID:    obj.Key,
			OriginalName: obj.OriginalName,
		})
	}
	return out, nil
}

// DeleteTicket hard-deletes a ticket regardless of its state. Admins only.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, id, ip string) error {
	if !auth.CanDeleteTicket(actor) {
		return apperrors.NewForbidden("only administrators may delete tickets")
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": id})
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": id})
	}
	if s.store != nil {
		for _, attachment := range ticket.Attachments {
			if err := s.store.Delete(ctx, attachment.StorageID); err != nil {
				s.logger.Warn("attachment cleanup failed", zap.String("key", attachment.StorageID), zap.Error(err))
			}
		}
	}
	s.audit.Record(ctx, &actor.ID, domain.AuditTicketDeleted, map[string]any{
		"ticket_id": ticket.ID,
		"number":    ticket.Number,
		"state":     ticket.State,
	}, ip)
	return nil
}

func (s *TicketService) loadVisible(ctx context.Context, actor *domain.User, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFoundOr(err, "ticket", map[string]any{"ticket_id": id})
	}
	if !auth.CanViewTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("not allowed to access this ticket")
	}
	return ticket, nil
}

func (s *TicketService) recordHistory(ctx context.Context, ticketID string, actor *string, action domain.HistoryAction, oldValue, newValue *string, description string) {
	entry := &domain.TicketHistory{
		TicketID:    ticketID,
		ActorID:     actor,
		Action:      action,
		OldValue:    oldValue,
		NewValue:    newValue,
		Description: description,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Error("ticket history write failed",
			zap.String("ticket_id", ticketID),
			zap.String("action", string(action)),
			zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordSideEffectError("history")
		}
	}
}

func trimGuest(g domain.GuestContact) *domain.GuestContact {
	return &domain.GuestContact{
		Name:       strings.TrimSpace(g.Name),
		Email:      strings.ToLower(strings.TrimSpace(g.Email)),
		Phone:      strings.TrimSpace(g.Phone),
		DocumentID: strings.TrimSpace(g.DocumentID),
	}
}

func actorID(u *domain.User) *string {
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func ptr[T any](v T) *T {
	return &v
}
