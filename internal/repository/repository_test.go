package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk/internal/domain"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestCounterNextUsesUpsert(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (name) DO UPDATE SET value = counters.value + 1")).
		WithArgs(TicketNumberCounter).
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(int64(42)))

	value, err := NewCounterRepository(mock).Next(context.Background(), TicketNumberCounter)
	require.NoError(t, err)
	assert.Equal(t, int64(42), value)
}

func TestTicketDeleteMissingRowIsNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tickets WHERE id=$1")).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := NewTicketRepository(mock).Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTicketGetByIDNoRows(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tickets WHERE id=$1")).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	_, err := NewTicketRepository(mock).GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMalformedIDIsNotFound(t *testing.T) {
	badUUID := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}

	t.Run("ticket get", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM tickets WHERE id=$1")).
			WithArgs("abc").
			WillReturnError(badUUID)

		_, err := NewTicketRepository(mock).GetByID(context.Background(), "abc")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("notification mark read", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("WHERE id=$1 AND user_id=$2")).
			WithArgs("x", "u1").
			WillReturnError(badUUID)

		err := NewNotificationRepository(mock).MarkRead(context.Background(), "x", "u1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("other postgres errors pass through", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=$1")).
			WithArgs("u1").
			WillReturnError(&pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"})

		_, err := NewUserRepository(mock).GetByID(context.Background(), "u1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestTicketUpdateDoesNotWriteSLAFlag(t *testing.T) {
	mock := newMock(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{
		ID:       "7b0c7f36-1f7d-4a0e-9a52-3f0f0f9a1c11",
		Title:    "Printer jam",
		State:    domain.TicketStateOpen,
		Priority: domain.TicketPriorityHigh,
		SLADueAt: now,
	}
	mock.ExpectQuery(`(?s)UPDATE tickets SET .*rating=\$13, rating_comment=\$14, updated_at=NOW\(\)\s+WHERE id=\$15\s+RETURNING updated_at, sla_notified`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), ticket.ID).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at", "sla_notified"}).AddRow(now, true))

	require.NoError(t, NewTicketRepository(mock).Update(context.Background(), ticket))
	assert.True(t, ticket.SLANotified)
	assert.Equal(t, now, ticket.UpdatedAt)
}

func TestTicketCountActiveByAgent(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("state IN ('open','in_progress')")).
		WithArgs("agent-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := NewTicketRepository(mock).CountActiveByAgent(context.Background(), "agent-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestUserGetByEmailLowercases(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email=$1")).
		WithArgs("ana@example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := NewUserRepository(mock).GetByEmail(context.Background(), "Ana@Example.COM")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotificationMarkAllReadReturnsAffected(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read = TRUE WHERE user_id=$1")).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	n, err := NewNotificationRepository(mock).MarkAllRead(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestNotificationMarkReadScopedToOwner(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("WHERE id=$1 AND user_id=$2")).
		WithArgs("n1", "someone-else").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := NewNotificationRepository(mock).MarkRead(context.Background(), "n1", "someone-else")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettingsGetDecodesDocument(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM settings WHERE id=1")).
		WillReturnRows(pgxmock.NewRows([]string{"data"}).
			AddRow([]byte(`{"app_name":"Service Desk","sla_hours":{"critical":2}}`)))

	settings, err := NewSettingsRepository(mock).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Service Desk", settings.AppName)
	assert.Equal(t, 2*time.Hour, settings.SLADuration(domain.TicketPriorityCritical))
	assert.Equal(t, 48*time.Hour, settings.SLADuration(domain.TicketPriorityLow))
}

func TestSettingsGetMissingIsNotFound(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM settings WHERE id=1")).
		WillReturnError(pgx.ErrNoRows)

	_, err := NewSettingsRepository(mock).Get(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWhereBuilderNumbersPlaceholders(t *testing.T) {
	var where whereBuilder
	assert.Equal(t, "", where.sql())

	where.add("owner_id=$%d", "u1")
	where.addIn("state", []string{"open", "in_progress"})
	where.addIn("priority", nil)

	assert.Equal(t, " WHERE owner_id=$1 AND state IN ($2,$3)", where.sql())
	assert.Equal(t, []any{"u1", "open", "in_progress"}, where.args)
}
