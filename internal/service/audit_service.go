package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk/internal/auth"
	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-io/helpdesk/pkg/util/errorutil"
)

// AuditService appends to and reads the administrative audit log.
type AuditService struct {
	repo   repository.AuditRepository
	logger *zap.Logger
}

// NewAuditService builds the service.
func NewAuditService(repo repository.AuditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// Record appends an entry. Failures are logged, never returned.
func (s *AuditService) Record(ctx context.Context, actorID *string, action domain.AuditAction, details map[string]any, ip string) {
	if s == nil {
		return
	}
	entry := &domain.AuditLog{ActorID: actorID, Action: action, Details: details, IP: ip}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error("audit log write failed", zap.String("action", string(action)), zap.Error(err))
	}
}

// AuditPage is one page of audit entries.
type AuditPage struct {
	Items []domain.AuditLog
	Total int64
	Page  int
	Size  int
}

// List returns a page of entries, newest first. Super admins only.
func (s *AuditService) List(ctx context.Context, actor *domain.User, filter repository.AuditFilter, page, size int) (*AuditPage, error) {
	if !auth.CanReadAudit(actor) {
		return nil, apperrors.NewForbidden("audit log is restricted to super administrators")
	}
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 50
	}
	filter.Limit = size
	filter.Offset = (page - 1) * size
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &AuditPage{Items: items, Total: total, Page: page, Size: size}, nil
}
