package dto

import (
	"time"

	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/service"
)

// CreateUserRequest is used by administrators to open accounts.
type CreateUserRequest struct {
	Name       string      `json:"name" validate:"required,max=120"`
	Email      string      `json:"email" validate:"required,email"`
	Password   string      `json:"password" validate:"required,min=8"`
	Role       domain.Role `json:"role" validate:"required,oneof=user agent admin super_admin"`
	Department string      `json:"department" validate:"max=120"`
}

// UpdateUserRequest is a partial account update.
type UpdateUserRequest struct {
	Name       *string      `json:"name" validate:"omitempty,min=1,max=120"`
	Role       *domain.Role `json:"role" validate:"omitempty,oneof=user agent admin super_admin"`
	Department *string      `json:"department" validate:"omitempty,max=120"`
	Active     *bool        `json:"active"`
	Password   *string      `json:"password" validate:"omitempty,min=8"`
}

// SettingsUpdateRequest carries the new document and the caller's password.
type SettingsUpdateRequest struct {
	Password string          `json:"password" validate:"required"`
	Settings domain.Settings `json:"settings"`
}

// PublicSettingsResponse is shown before login.
type PublicSettingsResponse struct {
	AppName string `json:"app_name"`
	LogoURL string `json:"logo_url"`
}

// MaskSettings hides the SMTP secret from responses.
func MaskSettings(s domain.Settings) domain.Settings {
	if s.SMTP.Password != "" {
		s.SMTP.Password = ""
	}
	return s
}

// AuditLogResponse is one audit entry.
type AuditLogResponse struct {
	ID        string             `json:"id"`
	ActorID   *string            `json:"actor_id"`
	Action    domain.AuditAction `json:"action"`
	Details   map[string]any     `json:"details"`
	IP        string             `json:"ip"`
	CreatedAt time.Time          `json:"created_at"`
}

// AuditPageResponse is a paginated slice of the audit log.
type AuditPageResponse struct {
	Items []AuditLogResponse `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Size  int                `json:"size"`
}

// NewAuditPageResponse converts a service page.
func NewAuditPageResponse(page *service.AuditPage) AuditPageResponse {
	items := make([]AuditLogResponse, 0, len(page.Items))
	for _, entry := range page.Items {
		items = append(items, AuditLogResponse{
			ID:        entry.ID,
			ActorID:   entry.ActorID,
			Action:    entry.Action,
			Details:   entry.Details,
			IP:        entry.IP,
			CreatedAt: entry.CreatedAt,
		})
	}
	return AuditPageResponse{Items: items, Total: page.Total, Page: page.Page, Size: page.Size}
}

// NotificationResponse is one inbox entry.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Link      string                  `json:"link"`
	Read      bool                    `json:"read"`
	CreatedAt time.Time               `json:"created_at"`
}

// NewNotificationList converts inbox entries.
func NewNotificationList(items []domain.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, NotificationResponse{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Message:   n.Message,
			Link:      n.Link,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}

// LookupRequest creates or patches a catalog entry.
type LookupRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Active      *bool   `json:"active"`
}

// LookupResponse is a catalog entry.
type LookupResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewLookupResponse converts a catalog entry.
func NewLookupResponse(item *domain.LookupItem) LookupResponse {
	return LookupResponse{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Active:      item.Active,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

// FAQRequest creates or patches an FAQ.
type FAQRequest struct {
	Question   *string `json:"question" validate:"omitempty,min=1"`
	Answer     *string `json:"answer" validate:"omitempty,min=1"`
	CategoryID *string `json:"category_id" validate:"omitempty,uuid"`
	Published  *bool   `json:"published"`
}

// FAQResponse is one FAQ entry.
type FAQResponse struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	CategoryID *string   `json:"category_id"`
	Published  bool      `json:"published"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewFAQResponse converts an FAQ.
func NewFAQResponse(f *domain.FAQ) FAQResponse {
	return FAQResponse{
		ID:         f.ID,
		Question:   f.Question,
		Answer:     f.Answer,
		CategoryID: f.CategoryID,
		Published:  f.Published,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

// CannedResponseRequest creates or patches a reply template.
type CannedResponseRequest struct {
	Title *string `json:"title" validate:"omitempty,min=1,max=200"`
	Body  *string `json:"body" validate:"omitempty,min=1"`
}

// CannedResponseResponse is one reply template.
type CannedResponseResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	AuthorID  *string   `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCannedResponseResponse converts a reply template.
func NewCannedResponseResponse(r *domain.CannedResponse) CannedResponseResponse {
	return CannedResponseResponse{
		ID:        r.ID,
		Title:     r.Title,
		Body:      r.Body,
		AuthorID:  r.AuthorID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// DashboardResponse summarizes ticket counts.
type DashboardResponse struct {
	ByState    map[domain.TicketState]int64    `json:"by_state"`
	ByPriority map[domain.TicketPriority]int64 `json:"by_priority"`
	Overdue    int64                           `json:"overdue"`
	AgentLoad  map[string]int64                `json:"agent_load"`
}

// NewDashboardResponse converts stats.
func NewDashboardResponse(s *domain.DashboardStats) DashboardResponse {
	return DashboardResponse{
		ByState:    s.ByState,
		ByPriority: s.ByPriority,
		Overdue:    s.Overdue,
		AgentLoad:  s.AgentLoad,
	}
}
