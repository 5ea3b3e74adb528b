package memory

import "github.com/helpdesk-io/helpdesk/internal/repository"

// Store groups one instance of every in-memory repository.
type Store struct {
	Counters        *Counters
	Users           *Users
	Tickets         *Tickets
	History         *History
	Comments        *Comments
	Notifications   *Notifications
	Audit           *Audit
	Settings        *Settings
	ResetTokens     *ResetTokens
	Lookups         *Lookups
	FAQs            *FAQs
	CannedResponses *CannedResponses
}

// NewStore builds an empty store.
func NewStore() *Store {
	return &Store{
		Counters:        NewCounters(),
		Users:           NewUsers(),
		Tickets:         NewTickets(),
		History:         NewHistory(),
		Comments:        NewComments(),
		Notifications:   NewNotifications(),
		Audit:           NewAudit(),
		Settings:        NewSettings(),
		ResetTokens:     NewResetTokens(),
		Lookups:         NewLookups(),
		FAQs:            NewFAQs(),
		CannedResponses: NewCannedResponses(),
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() repository.Set {
	return repository.Set{
		Counters:        s.Counters,
		Users:           s.Users,
		Tickets:         s.Tickets,
		History:         s.History,
		Comments:        s.Comments,
		Notifications:   s.Notifications,
		Audit:           s.Audit,
		Settings:        s.Settings,
		ResetTokens:     s.ResetTokens,
		Lookups:         s.Lookups,
		FAQs:            s.FAQs,
		CannedResponses: s.CannedResponses,
	}
}
