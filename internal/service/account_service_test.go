package service

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/notify"
	"github.com/helpdesk-io/helpdesk/internal/repository"
)

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	session, err := h.auth.Register(ctx, "Ana", "Ana@School.test", "long-enough", "Math")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, session.User.Role)
	assert.NotEmpty(t, session.Token)

	claims, err := h.auth.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.Subject)

	_, err = h.auth.Register(ctx, "Ana", "ana@school.test", "long-enough", "")
	assert.Equal(t, http.StatusConflict, statusOf(err))
	_, err = h.auth.Register(ctx, "Bo", "bo@school.test", "short", "")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	_, err = h.auth.Login(ctx, "ana@school.test", "wrong-password", "")
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
	_, err = h.auth.Login(ctx, "nobody@school.test", "long-enough", "")
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))

	_, err = h.auth.Login(ctx, "ANA@school.test", "long-enough", "192.0.2.1")
	require.NoError(t, err)
	entries, _, err := h.repos.Audit.List(ctx, repository.AuditFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditLogin, entries[0].Action)
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.user(t, "disabled", domain.RoleAgent)
	u.Active = false
	require.NoError(t, h.repos.Users.Update(ctx, u))

	_, err := h.auth.Login(ctx, u.Email, testPassword, "")
	assert.Equal(t, http.StatusForbidden, statusOf(err))
}

func TestPasswordResetFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.user(t, "forgetful", domain.RoleUser)

	require.NoError(t, h.auth.RequestPasswordReset(ctx, "unknown@school.test"))
	assert.Empty(t, h.mailer.Sent())

	require.NoError(t, h.auth.RequestPasswordReset(ctx, u.Email))
	mails := h.mailer.SentTo(u.Email)
	require.Len(t, mails, 1)
	assert.Equal(t, notify.TemplatePasswordReset, mails[0].Template)
	link := mails[0].Data["Link"].(string)
	token := link[strings.Index(link, "token=")+len("token="):]
	require.Len(t, token, 64)

	require.NoError(t, h.auth.ConfirmPasswordReset(ctx, token, "brand-new-pass"))
	err := h.auth.ConfirmPasswordReset(ctx, token, "another-pass")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	_, err = h.auth.Login(ctx, u.Email, "brand-new-pass", "")
	require.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.user(t, "careful", domain.RoleUser)

	err := h.auth.ChangePassword(ctx, u.ID, "not-it", "replacement")
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))
	require.NoError(t, h.auth.ChangePassword(ctx, u.ID, testPassword, "replacement"))
	_, err = h.auth.Login(ctx, u.Email, "replacement", "")
	assert.NoError(t, err)
}

func TestUserManagementRoleGrants(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.user(t, "admin", domain.RoleAdmin)
	root := h.user(t, "root", domain.RoleSuperAdmin)
	agent := h.user(t, "agent", domain.RoleAgent)

	_, err := h.users.Create(ctx, admin, UserCreateInput{Name: "New", Email: "new@school.test", Password: "long-enough", Role: domain.RoleSuperAdmin}, "")
	assert.Equal(t, http.StatusForbidden, statusOf(err))
	_, err = h.users.Create(ctx, agent, UserCreateInput{Name: "New", Email: "new@school.test", Password: "long-enough", Role: domain.RoleUser}, "")
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	created, err := h.users.Create(ctx, admin, UserCreateInput{Name: "New", Email: "new@school.test", Password: "long-enough", Role: domain.RoleAgent}, "")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, created.Role)

	promote := domain.RoleAdmin
	_, err = h.users.Update(ctx, admin, created.ID, UserUpdateInput{Role: &promote}, "")
	assert.Equal(t, http.StatusForbidden, statusOf(err))
	updated, err := h.users.Update(ctx, root, created.ID, UserUpdateInput{Role: &promote}, "")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, updated.Role)

	off := false
	_, err = h.users.Update(ctx, admin, admin.ID, UserUpdateInput{Active: &off}, "")
	assert.Equal(t, http.StatusConflict, statusOf(err))
	assert.Equal(t, http.StatusConflict, statusOf(h.users.Delete(ctx, admin, admin.ID, "")))
	assert.Equal(t, http.StatusForbidden, statusOf(h.users.Delete(ctx, admin, root.ID, "")))
	require.NoError(t, h.users.Delete(ctx, root, created.ID, ""))

	agents, err := h.users.ListAgents(ctx, agent)
	require.NoError(t, err)
	assert.Len(t, agents, 2)

	entries, _, err := h.repos.Audit.List(ctx, repository.AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestSettingsUpdateRequiresPasswordConfirmation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.user(t, "admin", domain.RoleAdmin)
	agent := h.user(t, "agent", domain.RoleAgent)

	current, err := h.settings.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings().SLAHours, current.SLAHours)

	next := domain.DefaultSettings()
	next.AppName = "School Helpdesk"
	next.SMTP = domain.SMTPSettings{Enabled: true, Host: "smtp.school.test", Port: 587, Password: "smtp-secret"}

	_, err = h.settings.Update(ctx, agent, testPassword, next, "")
	assert.Equal(t, http.StatusForbidden, statusOf(err))
	_, err = h.settings.Update(ctx, admin, "wrong", next, "")
	assert.Equal(t, http.StatusUnauthorized, statusOf(err))

	saved, err := h.settings.Update(ctx, admin, testPassword, next, "")
	require.NoError(t, err)
	assert.Equal(t, "School Helpdesk", saved.AppName)

	next.SMTP.Password = ""
	next.SLAHours = map[domain.TicketPriority]int{domain.TicketPriorityLow: 0}
	_, err = h.settings.Update(ctx, admin, testPassword, next, "")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	next.SLAHours = nil
	saved, err = h.settings.Update(ctx, admin, testPassword, next, "")
	require.NoError(t, err)
	assert.Equal(t, "smtp-secret", saved.SMTP.Password)
	assert.Equal(t, domain.DefaultSLAHours, saved.SLAHours)

	name, _, err := h.settings.Public(ctx)
	require.NoError(t, err)
	assert.Equal(t, "School Helpdesk", name)
}

func TestAuditListIsSuperAdminOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	admin := h.user(t, "admin", domain.RoleAdmin)
	root := h.user(t, "root", domain.RoleSuperAdmin)
	for i := 0; i < 3; i++ {
		h.audit.Record(ctx, &admin.ID, domain.AuditUserUpdated, nil, "")
	}

	_, err := h.audit.List(ctx, admin, repository.AuditFilter{}, 1, 10)
	assert.Equal(t, http.StatusForbidden, statusOf(err))
	page, err := h.audit.List(ctx, root, repository.AuditFilter{}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 1)
}

func TestNotificationInbox(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "teacher", domain.RoleUser)
	agent := h.user(t, "agent", domain.RoleAgent)
	other := h.user(t, "other", domain.RoleUser)
	newTicket(t, h, owner, domain.TicketPriorityLow)

	items, err := h.notifications.List(ctx, agent.ID, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, http.StatusNotFound, statusOf(h.notifications.MarkRead(ctx, other.ID, items[0].ID)))
	require.NoError(t, h.notifications.MarkRead(ctx, agent.ID, items[0].ID))
	count, err := h.notifications.MarkAllRead(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	unread, err := h.notifications.List(ctx, agent.ID, true, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, unread)
}
