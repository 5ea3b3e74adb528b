package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/helpdesk-io/helpdesk/internal/domain"
)

// AuditFilter narrows the audit log listing.
type AuditFilter struct {
	ActorID *string
	Action  *domain.AuditAction
	Limit   int
	Offset  int
}

// AuditRepository is an append-only store for administrative actions.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
	// List returns a page newest first together with the total match count.
	List(ctx context.Context, filter AuditFilter) ([]domain.AuditLog, int64, error)
}

type auditRepository struct {
	db DBTX
}

// NewAuditRepository builds repository.
func NewAuditRepository(db DBTX) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	details := entry.Details
	if details == nil {
		details = map[string]any{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}
	const query = `
        INSERT INTO audit_logs (actor_id, action, details, ip)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query, entry.ActorID, entry.Action, payload, entry.IP).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]domain.AuditLog, int64, error) {
	var where whereBuilder
	if filter.ActorID != nil {
		where.add("actor_id=$%d", *filter.ActorID)
	}
	if filter.Action != nil {
		where.add("action=$%d", *filter.Action)
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+where.sql(), where.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset, 50)
	query := fmt.Sprintf(`SELECT id, actor_id, action, details, ip, created_at FROM audit_logs%s
        ORDER BY created_at DESC LIMIT %d OFFSET %d`, where.sql(), limit, offset)
	rows, err := r.db.Query(ctx, query, where.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.AuditLog
	for rows.Next() {
		var (
			entry   domain.AuditLog
			details []byte
		)
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.Action, &details, &entry.IP, &entry.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &entry.Details); err != nil {
				return nil, 0, fmt.Errorf("decode audit details: %w", err)
			}
		}
		result = append(result, entry)
	}
	return result, total, rows.Err()
}
