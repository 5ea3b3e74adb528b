package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/helpdesk-io/helpdesk/internal/api/dto"
	"github.com/helpdesk-io/helpdesk/internal/auth"
	"github.com/helpdesk-io/helpdesk/internal/domain"
	apperrors "github.com/helpdesk-io/helpdesk/pkg/util/errorutil"
)

// bind parses the request body into req and runs tag validation.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(req)
}

func requireUser(c *fiber.Ctx) (*domain.User, error) {
	user := auth.CurrentUser(c)
	if user == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return user, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseBool(val string) bool {
	b, err := strconv.ParseBool(val)
	return err == nil && b
}

func parseNumber(c *fiber.Ctx) (int64, error) {
	number, err := strconv.ParseInt(c.Params("number"), 10, 64)
	if err != nil || number <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket number", map[string]any{"number": c.Params("number")})
	}
	return number, nil
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func optional(val string) *string {
	if val = strings.TrimSpace(val); val == "" {
		return nil
	}
	return &val
}

// optionalID reads an id filter from the query string. Ids are UUIDs, so
// anything else is rejected before it reaches the store.
func optionalID(c *fiber.Ctx, key string) (*string, error) {
	val := optional(c.Query(key))
	if val == nil {
		return nil, nil
	}
	if _, err := uuid.Parse(*val); err != nil {
		return nil, apperrors.NewValidationError("validation failed", map[string]any{key: "uuid"})
	}
	return val, nil
}

func pagination(c *fiber.Ctx, defSize int) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	size := parseInt(c.Query("page_size"), defSize)
	if size > 200 {
		size = 200
	}
	return size, (page - 1) * size
}
