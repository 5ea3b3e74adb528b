package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/helpdesk/internal/api/dto"
	"github.com/helpdesk-io/helpdesk/internal/service"
)

// PublicHandler serves the anonymous ticket status page.
type PublicHandler struct {
	service *service.PublicService
}

// NewPublicHandler constructs handler.
func NewPublicHandler(publicService *service.PublicService) *PublicHandler {
	return &PublicHandler{service: publicService}
}

// Lookup GET /tickets/status/:number.
func (h *PublicHandler) Lookup(c *fiber.Ctx) error {
	number, err := parseNumber(c)
	if err != nil {
		return err
	}
	view, err := h.service.Lookup(c.UserContext(), number)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPublicTicketResponse(view.Ticket, view.Comments, view.ReadOnly)})
}

// AddComment POST /tickets/status/:number/comments.
func (h *PublicHandler) AddComment(c *fiber.Ctx) error {
	number, err := parseNumber(c)
	if err != nil {
		return err
	}
	var req dto.PublicCommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	comment, err := h.service.AddComment(c.UserContext(), number, req.Name, req.Message)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// Rate POST /tickets/status/:number/rating.
func (h *PublicHandler) Rate(c *fiber.Ctx) error {
	number, err := parseNumber(c)
	if err != nil {
		return err
	}
	var req dto.RatingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Rate(c.UserContext(), number, req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPublicTicketResponse(ticket, nil, ticket.Closed())})
}
