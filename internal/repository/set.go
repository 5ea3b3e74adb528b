package repository

// Set bundles every repository the services depend on.
type Set struct {
	Counters        CounterRepository
	Users           UserRepository
	Tickets         TicketRepository
	History         TicketHistoryRepository
	Comments        CommentRepository
	Notifications   NotificationRepository
	Audit           AuditRepository
	Settings        SettingsRepository
	ResetTokens     ResetTokenStore
	Lookups         LookupRepository
	FAQs            FAQRepository
	CannedResponses CannedResponseRepository
}

// NewPostgresSet builds Postgres-backed repositories sharing db.
// resetTokens is supplied by the caller since it lives in Redis.
func NewPostgresSet(db DBTX, resetTokens ResetTokenStore) Set {
	return Set{
		Counters:        NewCounterRepository(db),
		Users:           NewUserRepository(db),
		Tickets:         NewTicketRepository(db),
		History:         NewTicketHistoryRepository(db),
		Comments:        NewCommentRepository(db),
		Notifications:   NewNotificationRepository(db),
		Audit:           NewAuditRepository(db),
		Settings:        NewSettingsRepository(db),
		ResetTokens:     resetTokens,
		Lookups:         NewLookupRepository(db),
		FAQs:            NewFAQRepository(db),
		CannedResponses: NewCannedResponseRepository(db),
	}
}
