package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/helpdesk/internal/api/dto"
	"github.com/helpdesk-io/helpdesk/internal/auth"
	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/service"
)

// CatalogHandler serves categories, ticket sources, service types, FAQs and canned responses.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: catalogService}
}

// ListLookups returns active entries of kind; staff may pass ?all=true to include inactive ones.
func (h *CatalogHandler) ListLookups(kind domain.LookupKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		all := parseBool(c.Query("all")) && auth.IsStaff(auth.CurrentUser(c))
		items, err := h.service.ListLookups(c.UserContext(), kind, !all)
		if err != nil {
			return err
		}
		out := make([]dto.LookupResponse, 0, len(items))
		for i := range items {
			out = append(out, dto.NewLookupResponse(&items[i]))
		}
		return c.JSON(fiber.Map{"data": out})
	}
}

// CreateLookup adds an entry of kind.
func (h *CatalogHandler) CreateLookup(kind domain.LookupKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.LookupRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		item, err := h.service.CreateLookup(c.UserContext(), kind, lookupInput(req))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewLookupResponse(item)})
	}
}

// UpdateLookup patches an entry of kind.
func (h *CatalogHandler) UpdateLookup(kind domain.LookupKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dto.LookupRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		item, err := h.service.UpdateLookup(c.UserContext(), kind, c.Params("id"), lookupInput(req))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": dto.NewLookupResponse(item)})
	}
}

// DeleteLookup removes an entry of kind.
func (h *CatalogHandler) DeleteLookup(kind domain.LookupKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := h.service.DeleteLookup(c.UserContext(), kind, c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListFAQs GET /faqs. Administrators may pass ?drafts=true.
func (h *CatalogHandler) ListFAQs(c *fiber.Ctx) error {
	drafts := parseBool(c.Query("drafts")) && auth.IsAdmin(auth.CurrentUser(c))
	items, err := h.service.ListFAQs(c.UserContext(), drafts)
	if err != nil {
		return err
	}
	out := make([]dto.FAQResponse, 0, len(items))
	for i := range items {
		out = append(out, dto.NewFAQResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// CreateFAQ POST /faqs.
func (h *CatalogHandler) CreateFAQ(c *fiber.Ctx) error {
	var req dto.FAQRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	faq, err := h.service.CreateFAQ(c.UserContext(), faqInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewFAQResponse(faq)})
}

// UpdateFAQ PATCH /faqs/:id.
func (h *CatalogHandler) UpdateFAQ(c *fiber.Ctx) error {
	var req dto.FAQRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	faq, err := h.service.UpdateFAQ(c.UserContext(), c.Params("id"), faqInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewFAQResponse(faq)})
}

// DeleteFAQ DELETE /faqs/:id.
func (h *CatalogHandler) DeleteFAQ(c *fiber.Ctx) error {
	if err := h.service.DeleteFAQ(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListCannedResponses GET /canned-responses.
func (h *CatalogHandler) ListCannedResponses(c *fiber.Ctx) error {
	items, err := h.service.ListCannedResponses(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]dto.CannedResponseResponse, 0, len(items))
	for i := range items {
		out = append(out, dto.NewCannedResponseResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// CreateCannedResponse POST /canned-responses.
func (h *CatalogHandler) CreateCannedResponse(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	var req dto.CannedResponseRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	created, err := h.service.CreateCannedResponse(c.UserContext(), user, service.CannedResponseInput{Title: req.Title, Body: req.Body})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewCannedResponseResponse(created)})
}

// UpdateCannedResponse PATCH /canned-responses/:id.
func (h *CatalogHandler) UpdateCannedResponse(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	var req dto.CannedResponseRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	updated, err := h.service.UpdateCannedResponse(c.UserContext(), user, c.Params("id"), service.CannedResponseInput{Title: req.Title, Body: req.Body})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCannedResponseResponse(updated)})
}

// DeleteCannedResponse DELETE /canned-responses/:id.
func (h *CatalogHandler) DeleteCannedResponse(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteCannedResponse(c.UserContext(), user, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func lookupInput(req dto.LookupRequest) service.LookupInput {
	return service.LookupInput{Name: req.Name, Description: req.Description, Active: req.Active}
}

func faqInput(req dto.FAQRequest) service.FAQInput {
	return service.FAQInput{
		Question:   req.Question,
		Answer:     req.Answer,
		CategoryID: dto.BlankToNil(req.CategoryID),
		Published:  req.Published,
	}
}
