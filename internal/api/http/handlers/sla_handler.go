package handlers

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/helpdesk/internal/service"
	apperrors "github.com/helpdesk-io/helpdesk/pkg/util/errorutil"
)

// SLASecretHeader carries the shared secret of the sweep endpoint.
const SLASecretHeader = "X-SLA-Secret"

// SLAHandler triggers the breach sweep from an external scheduler.
type SLAHandler struct {
	service *service.SLAService
	secret  string
}

// NewSLAHandler constructs handler. An empty secret disables the endpoint.
func NewSLAHandler(slaService *service.SLAService, secret string) *SLAHandler {
	return &SLAHandler{service: slaService, secret: secret}
}

// Sweep POST /sla/sweep.
func (h *SLAHandler) Sweep(c *fiber.Ctx) error {
	if h.secret == "" {
		return apperrors.NewForbidden("sla sweep is not configured")
	}
	provided := c.Get(SLASecretHeader)
	if subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) != 1 {
		return apperrors.NewUnauthorized("invalid sla secret")
	}
	result, err := h.service.Sweep(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": result})
}
