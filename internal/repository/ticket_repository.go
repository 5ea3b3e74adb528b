package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-io/helpdesk/internal/domain"
)

// TicketFilter captures list parameters.
type TicketFilter struct {
	OwnerID    *string
	AgentID    *string
	CategoryID *string
	States     []domain.TicketState
	Priorities []domain.TicketPriority
	SearchTerm *string
	Limit      int
	Offset     int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update writes the editable fields and refreshes ticket.SLANotified from
	// the store. The flag itself is only written by MarkSLANotified.
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number int64) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// CountActiveByAgent counts tickets in open or in_progress assigned to agentID.
	CountActiveByAgent(ctx context.Context, agentID string) (int64, error)
	// ListSLABreached returns active tickets past their due date not yet flagged.
	ListSLABreached(ctx context.Context, now time.Time) ([]domain.Ticket, error)
	MarkSLANotified(ctx context.Context, id string) error
	Stats(ctx context.Context, now time.Time) (*domain.DashboardStats, error)
}

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, number, title, description, state, priority, category_id, source_id, service_type_id,
               owner_id, guest, agent_id, created_by_id, attachments, legacy_attachment, sla_due_at, sla_notified,
               rating, rating_comment, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	guest, attachments, err := encodeTicketJSON(ticket)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO tickets (number, title, description, state, priority, category_id, source_id, service_type_id,
                             owner_id, guest, agent_id, created_by_id, attachments, legacy_attachment, sla_due_at, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
        RETURNING id, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.Number,
		ticket.Title,
		ticket.Description,
		ticket.State,
		ticket.Priority,
		ticket.CategoryID,
		ticket.SourceID,
		ticket.ServiceTypeID,
		ticket.OwnerID,
		guest,
		ticket.AgentID,
		ticket.CreatedByID,
		attachments,
		ticket.LegacyAttachment,
		ticket.SLADueAt,
		ticket.CreatedAt,
	).Scan(&ticket.ID, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	guest, attachments, err := encodeTicketJSON(ticket)
	if err != nil {
		return err
	}
	const query = `
        UPDATE tickets SET title=$1, description=$2, state=$3, priority=$4, category_id=$5, source_id=$6,
            service_type_id=$7, guest=$8, agent_id=$9, attachments=$10, legacy_attachment=$11, sla_due_at=$12,
            rating=$13, rating_comment=$14, updated_at=NOW()
        WHERE id=$15
        RETURNING updated_at, sla_notified`
	err = r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.State,
		ticket.Priority,
		ticket.CategoryID,
		ticket.SourceID,
		ticket.ServiceTypeID,
		guest,
		ticket.AgentID,
		attachments,
		ticket.LegacyAttachment,
		ticket.SLADueAt,
		ticket.Rating,
		ticket.RatingComment,
		ticket.ID,
	).Scan(&ticket.UpdatedAt, &ticket.SLANotified)
	return notFound(err)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	return execExpectingRow(ctx, r.db, `DELETE FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return scanTicket(r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id))
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number int64) (*domain.Ticket, error) {
	return scanTicket(r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE number=$1`, number))
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	var where whereBuilder
	if filter.OwnerID != nil {
		where.add("owner_id=$%d", *filter.OwnerID)
	}
	if filter.AgentID != nil {
		where.add("agent_id=$%d", *filter.AgentID)
	}
	if filter.CategoryID != nil {
		where.add("category_id=$%d", *filter.CategoryID)
	}
	states := make([]string, len(filter.States))
	for i, s := range filter.States {
		states[i] = string(s)
	}
	where.addIn("state", states)
	priorities := make([]string, len(filter.Priorities))
	for i, p := range filter.Priorities {
		priorities[i] = string(p)
	}
	where.addIn("priority", priorities)
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		where.args = append(where.args, "%"+strings.ToLower(strings.TrimSpace(*filter.SearchTerm))+"%")
		n := len(where.args)
		where.clauses = append(where.clauses, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d)", n, n))
	}
	limit, offset := normalizePage(filter.Limit, filter.Offset, 20)

	query := fmt.Sprintf(`SELECT %s FROM tickets%s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, where.sql(), limit, offset)
	return r.queryTickets(ctx, query, where.args...)
}

func (r *ticketRepository) CountActiveByAgent(ctx context.Context, agentID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE agent_id=$1 AND state IN ('open','in_progress')`
	var count int64
	if err := r.db.QueryRow(ctx, query, agentID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) ListSLABreached(ctx context.Context, now time.Time) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE state IN ('open','in_progress') AND sla_notified = FALSE AND sla_due_at < $1
        ORDER BY sla_due_at ASC`
	return r.queryTickets(ctx, query, now)
}

func (r *ticketRepository) MarkSLANotified(ctx context.Context, id string) error {
	return execExpectingRow(ctx, r.db, `UPDATE tickets SET sla_notified = TRUE WHERE id=$1`, id)
}

func (r *ticketRepository) Stats(ctx context.Context, now time.Time) (*domain.DashboardStats, error) {
	stats := &domain.DashboardStats{
		ByState:    map[domain.TicketState]int64{},
		ByPriority: map[domain.TicketPriority]int64{},
		AgentLoad:  map[string]int64{},
	}

	rows, err := r.db.Query(ctx, `SELECT state, priority, COUNT(*) FROM tickets GROUP BY state, priority`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			state    domain.TicketState
			priority domain.TicketPriority
			count    int64
		)
		if err := rows.Scan(&state, &priority, &count); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByState[state] += count
		stats.ByPriority[priority] += count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const overdueQuery = `SELECT COUNT(*) FROM tickets WHERE state IN ('open','in_progress') AND sla_due_at < $1`
	if err := r.db.QueryRow(ctx, overdueQuery, now).Scan(&stats.Overdue); err != nil {
		return nil, err
	}

	loadRows, err := r.db.Query(ctx, `SELECT agent_id::text, COUNT(*) FROM tickets
        WHERE agent_id IS NOT NULL AND state IN ('open','in_progress') GROUP BY agent_id`)
	if err != nil {
		return nil, err
	}
	defer loadRows.Close()
	for loadRows.Next() {
		var (
			agentID string
			count   int64
		)
		if err := loadRows.Scan(&agentID, &count); err != nil {
			return nil, err
		}
		stats.AgentLoad[agentID] = count
	}
	return stats, loadRows.Err()
}

func (r *ticketRepository) queryTickets(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket      domain.Ticket
		guest       []byte
		attachments []byte
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Number,
		&ticket.Title,
		&ticket.Description,
		&ticket.State,
		&ticket.Priority,
		&ticket.CategoryID,
		&ticket.SourceID,
		&ticket.ServiceTypeID,
		&ticket.OwnerID,
		&guest,
		&ticket.AgentID,
		&ticket.CreatedByID,
		&attachments,
		&ticket.LegacyAttachment,
		&ticket.SLADueAt,
		&ticket.SLANotified,
		&ticket.Rating,
		&ticket.RatingComment,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	if len(guest) > 0 && string(guest) != "null" {
		ticket.Guest = &domain.GuestContact{}
		if err := json.Unmarshal(guest, ticket.Guest); err != nil {
			return nil, fmt.Errorf("decode guest contact: %w", err)
		}
	}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &ticket.Attachments); err != nil {
			return nil, fmt.Errorf("decode attachments: %w", err)
		}
	}
	return &ticket, nil
}

func encodeTicketJSON(ticket *domain.Ticket) (guest []byte, attachments []byte, err error) {
	if ticket.Guest != nil {
		if guest, err = json.Marshal(ticket.Guest); err != nil {
			return nil, nil, err
		}
	}
	list := ticket.Attachments
	if list == nil {
		list = []domain.Attachment{}
	}
	if attachments, err = json.Marshal(list); err != nil {
		return nil, nil, err
	}
	return guest, attachments, nil
}
