package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/helpdesk/internal/api/dto"
	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	"github.com/helpdesk-io/helpdesk/internal/service"
)

// SettingsHandler exposes the settings document and the audit log.
type SettingsHandler struct {
	settings *service.SettingsService
	audit    *service.AuditService
}

// NewSettingsHandler constructs handler.
func NewSettingsHandler(settingsService *service.SettingsService, auditService *service.AuditService) *SettingsHandler {
	return &SettingsHandler{settings: settingsService, audit: auditService}
}

// Get GET /settings.
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	current, err := h.settings.Current(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MaskSettings(current)})
}

// Update PUT /settings. The caller re-enters their password.
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	var req dto.SettingsUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	updated, err := h.settings.Update(c.UserContext(), user, req.Password, req.Settings, c.IP())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MaskSettings(updated)})
}

// Reload POST /settings/reload.
func (h *SettingsHandler) Reload(c *fiber.Ctx) error {
	current, err := h.settings.Reload(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MaskSettings(current)})
}

// Public GET /settings/public.
func (h *SettingsHandler) Public(c *fiber.Ctx) error {
	name, logo, err := h.settings.Public(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PublicSettingsResponse{AppName: name, LogoURL: logo}})
}

// AuditLogs GET /audit-logs.
func (h *SettingsHandler) AuditLogs(c *fiber.Ctx) error {
	user, err := requireUser(c)
	if err != nil {
		return err
	}
	actorID, err := optionalID(c, "actor_id")
	if err != nil {
		return err
	}
	filter := repository.AuditFilter{ActorID: actorID}
	if action := optional(c.Query("action")); action != nil {
		a := domain.AuditAction(*action)
		filter.Action = &a
	}
	page, err := h.audit.List(c.UserContext(), user, filter, parseInt(c.Query("page"), 1), parseInt(c.Query("page_size"), 50))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAuditPageResponse(page)})
}
