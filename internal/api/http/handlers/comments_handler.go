package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/helpdesk/internal/api/dto"
	"github.com/helpdesk-io/helpdesk/internal/service"
	apperrors "github.com/helpdesk-io/helpdesk/pkg/util/errorutil"
)

// CommentsHandler manages ticket threads.
type CommentsHandler struct {
	service *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(commentService *service.CommentService) *CommentsHandler {
	return &CommentsHandler{service: commentService}
}

// List GET /comments?ticket_id=.
func (h *CommentsHandler) List(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	ticketID := c.Query("ticket_id")
	if ticketID == "" {
		return apperrors.NewValidationError("ticket_id query parameter required", nil)
	}
	comments, err := h.service.List(c.UserContext(), user, ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCommentList(comments)})
}

// Create POST /comments.
func (h *CommentsHandler) Create(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	comment, err := h.service.Create(c.UserContext(), user, service.CommentInput{
		TicketID: req.TicketID,
		Message:  req.Message,
		Internal: req.Internal,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// Delete DELETE /comments/:id.
func (h *CommentsHandler) Delete(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
