package service

import (
	"context"
	"time"

	"github.com/helpdesk-io/helpdesk/internal/auth"
	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-io/helpdesk/pkg/util/errorutil"
)

// DashboardService aggregates ticket counters for staff.
type DashboardService struct {
	tickets repository.TicketRepository
	now     func() time.Time
}

func NewDashboardService(tickets repository.TicketRepository) *DashboardService {
	return &DashboardService{tickets: tickets, now: time.Now}
}

// Stats returns counts by state and priority, overdue tickets and per-agent load.
func (s *DashboardService) Stats(ctx context.Context, actor *domain.User) (*domain.DashboardStats, error) {
	if !auth.IsStaff(actor) {
		return nil, apperrors.NewForbidden("dashboard is restricted to staff")
	}
	stats, err := s.tickets.Stats(ctx, s.now().UTC())
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return stats, nil
}
