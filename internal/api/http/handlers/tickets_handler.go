package handlers

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/helpdesk/internal/api/dto"
	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	"github.com/helpdesk-io/helpdesk/internal/service"
	apperrors "github.com/helpdesk-io/helpdesk/pkg/util/errorutil"
)

// uploadFields are the multipart keys accepted for attached files.
var uploadFields = []string{"files", "attachments", "file"}

// TicketsHandler manages ticket endpoints for requesters and staff.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets. Accepts JSON or multipart form data.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req.Normalize()
	if err := dto.Validate(&req); err != nil {
		return err
	}
	uploads, closeAll, err := multipartUploads(c)
	if err != nil {
		return err
	}
	defer closeAll()

	input := service.TicketCreateInput{
		Title:            req.Title,
		Description:      req.Description,
		Priority:         req.Priority,
		State:            req.State,
		CategoryID:       req.CategoryID,
		SourceID:         req.SourceID,
		ServiceTypeID:    req.ServiceTypeID,
		RequesterID:      req.RequesterID,
		Guest:            req.Guest.Contact(),
		AgentID:          req.AgentID,
		Uploads:          uploads,
		LegacyAttachment: req.Attachment,
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), user, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// CreatePublicTicket POST /tickets/public.
func (h *TicketsHandler) CreatePublicTicket(c *fiber.Ctx) error {
	var req dto.PublicTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	uploads, closeAll, err := multipartUploads(c)
	if err != nil {
		return err
	}
	defer closeAll()

	input := service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		CategoryID:  dto.BlankToNil(req.CategoryID),
		Guest: &domain.GuestContact{
			Name:       req.Name,
			Email:      req.Email,
			Phone:      req.Phone,
			DocumentID: req.DocumentID,
		},
		Uploads: uploads,
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), nil, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewPublicTicketResponse(ticket, nil, ticket.Closed())})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), user, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketList(tickets)})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetTicket(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TicketDetailResponse{
		Ticket:   dto.NewTicketResponse(detail.Ticket),
		Comments: dto.NewCommentList(detail.Comments),
		History:  dto.NewHistoryList(detail.History),
	}})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	patch := service.TicketPatch{
		Title:            req.Title,
		Description:      req.Description,
		Guest:            req.Guest.Contact(),
		CategoryID:       req.CategoryID,
		LegacyAttachment: req.Attachment,
		State:            req.State,
		Priority:         req.Priority,
		SourceID:         req.SourceID,
		ServiceTypeID:    req.ServiceTypeID,
		AgentID:          req.AgentID,
	}
	ticket, err := h.service.UpdateTicket(c.UserContext(), user, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// AddAttachments POST /tickets/:id/attachments.
func (h *TicketsHandler) AddAttachments(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	uploads, closeAll, err := multipartUploads(c)
	if err != nil {
		return err
	}
	defer closeAll()
	ticket, err := h.service.AddAttachments(c.UserContext(), user, c.Params("id"), uploads)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicket(c.UserContext(), user, c.Params("id"), c.IP()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	entries, err := h.service.ListHistory(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHistoryList(entries)})
}

func parseTicketQuery(c *fiber.Ctx) (repository.TicketFilter, error) {
	filter := repository.TicketFilter{SearchTerm: optional(c.Query("search"))}
	var err error
	if filter.AgentID, err = optionalID(c, "agent_id"); err != nil {
		return filter, err
	}
	if filter.CategoryID, err = optionalID(c, "category_id"); err != nil {
		return filter, err
	}
	for _, state := range splitList(c.Query("state")) {
		filter.States = append(filter.States, domain.TicketState(state))
	}
	for _, priority := range splitList(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.TicketPriority(priority))
	}
	filter.Limit, filter.Offset = pagination(c, 20)
	return filter, nil
}

// multipartUploads opens every file of a multipart request. Non-multipart
// requests yield no uploads. The returned func closes the opened files.
func multipartUploads(c *fiber.Ctx) ([]service.Upload, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return nil, noop, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, noop, apperrors.NewValidationError("invalid multipart form", nil)
	}
	var (
		uploads []service.Upload
		files   []io.Closer
	)
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	for _, field := range uploadFields {
		for _, header := range form.File[field] {
			f, err := header.Open()
			if err != nil {
				closeAll()
				return nil, noop, apperrors.NewValidationError("unreadable upload", map[string]any{"file": header.Filename})
			}
			files = append(files, f)
			uploads = append(uploads, service.Upload{Name: header.Filename, Reader: f})
		}
	}
	return uploads, closeAll, nil
}
