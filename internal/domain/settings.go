package domain

import "time"

// Module identifies an area of the application gated by the access matrix.
type Module string

const (
	ModuleTickets         Module = "tickets"
	ModuleDashboard       Module = "dashboard"
	ModuleFAQs            Module = "faqs"
	ModuleCannedResponses Module = "canned_responses"
	ModuleCatalogs        Module = "catalogs"
	ModuleUsers           Module = "users"
	ModuleSettings        Module = "settings"
	ModuleAudit           Module = "audit"
)

// SMTPSettings configures outgoing email. Empty Host means "use the environment fallback".
type SMTPSettings struct {
	Enabled     bool   `json:"enabled"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Username    string `json:"username"`
	Password    string `json:"password,omitempty"`
	FromAddress string `json:"from_address"`
	FromName    string `json:"from_name"`
}

// Settings is the process-wide configuration document.
type Settings struct {
	AppName      string                 `json:"app_name"`
	LogoURL      string                 `json:"logo_url"`
	SMTP         SMTPSettings           `json:"smtp"`
	ModuleAccess map[Module][]Role      `json:"module_access"`
	SLAHours     map[TicketPriority]int `json:"sla_hours"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// DefaultSLAHours is used when the settings document has no entry for a priority.
var DefaultSLAHours = map[TicketPriority]int{
	TicketPriorityCritical: 4,
	TicketPriorityHigh:     8,
	TicketPriorityMedium:   24,
	TicketPriorityLow:      48,
}

// DefaultSettings returns the document used before an admin saves one.
func DefaultSettings() Settings {
	sla := make(map[TicketPriority]int, len(DefaultSLAHours))
	for k, v := range DefaultSLAHours {
		sla[k] = v
	}
	return Settings{
		AppName: "Helpdesk",
		ModuleAccess: map[Module][]Role{
			ModuleTickets:         {RoleUser, RoleAgent, RoleAdmin},
			ModuleDashboard:       {RoleAgent, RoleAdmin},
			ModuleFAQs:            {RoleAdmin},
			ModuleCannedResponses: {RoleAgent, RoleAdmin},
			ModuleCatalogs:        {RoleAdmin},
			ModuleUsers:           {RoleAdmin},
			ModuleSettings:        {RoleAdmin},
			ModuleAudit:           {},
		},
		SLAHours: sla,
	}
}

// SLADuration returns the SLA window for a priority, falling back to the default table.
func (s Settings) SLADuration(p TicketPriority) time.Duration {
	hours, ok := s.SLAHours[p]
	if !ok || hours <= 0 {
		hours = DefaultSLAHours[p]
	}
	if hours <= 0 {
		hours = DefaultSLAHours[TicketPriorityMedium]
	}
	return time.Duration(hours) * time.Hour
}

// RoleAllowed reports whether role may use module. Super admins are always allowed.
func (s Settings) RoleAllowed(module Module, role Role) bool {
	if role == RoleSuperAdmin {
		return true
	}
	for _, allowed := range s.ModuleAccess[module] {
		if allowed == role {
			return true
		}
	}
	return false
}
