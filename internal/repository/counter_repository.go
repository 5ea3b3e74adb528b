package repository

import "context"

// TicketNumberCounter names the counter document backing ticket numbers.
const TicketNumberCounter = "ticket_number"

// CounterRepository issues values from named monotonically increasing sequences.
type CounterRepository interface {
	// Next atomically increments the named counter and returns the new value.
	Next(ctx context.Context, name string) (int64, error)
}

type counterRepository struct {
	db DBTX
}

// NewCounterRepository builds a Postgres-backed counter.
func NewCounterRepository(db DBTX) CounterRepository {
	return &counterRepository{db: db}
}

// Next relies on a single upsert statement so concurrent callers never read the same value.
func (r *counterRepository) Next(ctx context.Context, name string) (int64, error) {
	const query = `
        INSERT INTO counters (name, value) VALUES ($1, 1)
        ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
        RETURNING value`
	var value int64
	if err := r.db.QueryRow(ctx, query, name).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}
