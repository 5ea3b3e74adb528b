package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-io/helpdesk/pkg/util/errorutil"
)

// SLAFlagRecorder counts tickets flagged by the sweep.
type SLAFlagRecorder interface {
	RecordSLAFlagged(n int)
}

// SLAService flags tickets that outlived their SLA window.
type SLAService struct {
	tickets  repository.TicketRepository
	notifier *NotificationService
	metrics  SLAFlagRecorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewSLAService builds the service.
func NewSLAService(tickets repository.TicketRepository, notifier *NotificationService, metrics SLAFlagRecorder, logger *zap.Logger) *SLAService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLAService{tickets: tickets, notifier: notifier, metrics: metrics, logger: logger, now: time.Now}
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Tickets       int `json:"tickets"`
	Notifications int `json:"notifications"`
}

// Sweep notifies about every active ticket past its due date that has not been
// flagged yet, then flags it so later sweeps skip it. A ticket whose
// notification fails stays unflagged and is retried by the next sweep.
func (s *SLAService) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	breached, err := s.tickets.ListSLABreached(ctx, s.now().UTC())
	if err != nil {
		return result, apperrors.MapError(err)
	}

	for i := range breached {
		ticket := &breached[i]
		sent, err := s.notifier.NotifySLABreach(ctx, ticket)
		result.Notifications += sent
		if err != nil {
			s.logger.Error("sla breach notification failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
			continue
		}

		if err := s.tickets.MarkSLANotified(ctx, ticket.ID); err != nil {
			s.logger.Error("sla flag write failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
			continue
		}
		result.Tickets++
	}

	if s.metrics != nil {
		s.metrics.RecordSLAFlagged(result.Tickets)
	}
	s.logger.Info("sla sweep finished",
		zap.Int("tickets", result.Tickets),
		zap.Int("notifications", result.Notifications))
	return result, nil
}
