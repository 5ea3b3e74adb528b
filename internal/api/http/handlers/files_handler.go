package handlers

import (
	"errors"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/helpdesk/internal/storage"
	apperrors "github.com/helpdesk-io/helpdesk/pkg/util/errorutil"
)

// FilesHandler streams stored attachments.
type FilesHandler struct {
	store storage.Store
}

// NewFilesHandler constructs handler.
func NewFilesHandler(store storage.Store) *FilesHandler {
	return &FilesHandler{store: store}
}

// Download GET /files/:key.
func (h *FilesHandler) Download(c *fiber.Ctx) error {
	key := c.Params("key")
	r, err := h.store.Open(c.UserContext(), key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.NewNotFound("file", map[string]any{"key": key})
		}
		return apperrors.NewInternalError(err)
	}
	if ext := filepath.Ext(key); ext != "" {
		c.Type(ext)
	}
	return c.SendStream(r)
}
