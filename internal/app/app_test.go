package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/helpdesk-io/helpdesk/internal/auth"
	"github.com/helpdesk-io/helpdesk/internal/config"
	"github.com/helpdesk-io/helpdesk/internal/domain"
	"github.com/helpdesk-io/helpdesk/internal/notify"
	"github.com/helpdesk-io/helpdesk/internal/repository"
	"github.com/helpdesk-io/helpdesk/internal/repository/memory"
	"github.com/helpdesk-io/helpdesk/internal/storage"
)

const (
	testPassword = "correct-horse"
	sweepSecret  = "sweep-secret"
)

type testServer struct {
	container *Container
	repos     repository.Set
	mailer    *notify.Recorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir(), "/files")
	require.NoError(t, err)

	cfg := config.Config{
		App:     config.AppConfig{Name: "helpdesk-test", Version: "test", BaseURL: "http://helpdesk.test"},
		Auth:    config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 15, PasswordResetTTLMinutes: 30, BcryptCost: bcrypt.MinCost},
		SLA:     config.SLAConfig{SweepSecret: sweepSecret},
		Storage: config.StorageConfig{MaxUploadMiB: 1},
	}
	s := &testServer{repos: memory.NewStore().Repositories(), mailer: notify.NewRecorder()}
	s.container, err = Build(cfg, Infra{Repos: s.repos, Mailer: s.mailer, Store: store}, nil)
	require.NoError(t, err)
	return s
}

// account creates a user directly in the store and returns a bearer token for it.
func (s *testServer) account(t *testing.T, name string, role domain.Role) (*domain.User, string) {
	t.Helper()
	hash, err := auth.HashPassword(testPassword, bcrypt.MinCost)
	require.NoError(t, err)
	u := &domain.User{Name: name, Email: name + "@school.test", PasswordHash: hash, Role: role, Active: true}
	require.NoError(t, s.repos.Users.Create(context.Background(), u))
	token, _, err := s.container.Auth.TokenManager().GenerateToken(u)
	require.NoError(t, err)
	return u, token
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, req, token)
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) (int, map[string]any) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.container.App.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", body)
	return d
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = s.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, status)
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "in-memory", deps["postgres"])
	assert.Equal(t, "disabled", deps["redis"])
}

func TestMetricsAreAdminOnly(t *testing.T) {
	s := newTestServer(t)
	_, userToken := s.account(t, "ana", domain.RoleUser)
	_, adminToken := s.account(t, "root", domain.RoleAdmin)

	status, body := s.do(t, http.MethodGet, "/metrics", nil, userToken)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	status, body = s.do(t, http.MethodGet, "/metrics", nil, adminToken)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, data(t, body), "requests")
}

func TestErrorEnvelope(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/tickets", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
	assert.NotEmpty(t, body["message"])

	status, body = s.do(t, http.MethodPost, "/auth/register", map[string]any{
		"name": "Ana", "email": "not-an-email", "password": "short",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "email", details["email"])
	assert.Equal(t, "min=8", details["password"])
}

func TestMalformedIDs(t *testing.T) {
	s := newTestServer(t)
	_, agentToken := s.account(t, "alex", domain.RoleAgent)
	_, rootToken := s.account(t, "root", domain.RoleSuperAdmin)

	status, body := s.do(t, http.MethodGet, "/tickets?agent_id=abc", nil, agentToken)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "uuid", details["agent_id"])

	status, body = s.do(t, http.MethodGet, "/audit-logs?actor_id=nobody", nil, rootToken)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body = s.do(t, http.MethodGet, "/tickets/abc", nil, agentToken)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, _ = s.do(t, http.MethodPatch, "/notifications/x/read", nil, agentToken)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	agent, agentToken := s.account(t, "alex", domain.RoleAgent)

	status, body := s.do(t, http.MethodPost, "/auth/register", map[string]any{
		"name": "Ana", "email": "ana@school.test", "password": testPassword,
	}, "")
	require.Equal(t, http.StatusCreated, status)
	requesterToken := data(t, body)["access_token"].(string)

	status, body = s.do(t, http.MethodPost, "/tickets", map[string]any{
		"title": "Printer jam", "description": "Tray 2 jams on every job", "priority": "high",
	}, requesterToken)
	require.Equal(t, http.StatusCreated, status)
	ticket := data(t, body)
	assert.EqualValues(t, 1, ticket["ticket_id"])
	assert.Equal(t, agent.ID, ticket["agent_id"])
	ticketID := ticket["id"].(string)

	require.Eventually(t, func() bool {
		items, err := s.repos.Notifications.ListByUser(context.Background(), agent.ID, false, 10, 0)
		return err == nil && len(items) > 0
	}, time.Second, 10*time.Millisecond)

	status, body = s.do(t, http.MethodGet, "/tickets/status/1", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, data(t, body)["read_only"])

	status, _ = s.do(t, http.MethodGet, "/tickets/"+ticketID+"/history", nil, requesterToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = s.do(t, http.MethodPatch, "/tickets/"+ticketID, map[string]any{"state": "resolved"}, agentToken)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "resolved", data(t, body)["state"])

	status, _ = s.do(t, http.MethodPost, "/tickets/status/1/rating", map[string]any{"rating": 7}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(t, http.MethodPost, "/tickets/status/1/rating", map[string]any{"rating": 5, "comment": "Thanks"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "closed", data(t, body)["state"])
	assert.Equal(t, true, data(t, body)["read_only"])

	status, body = s.do(t, http.MethodPost, "/tickets/status/1/rating", map[string]any{"rating": 1}, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	status, _ = s.do(t, http.MethodPost, "/tickets/status/1/comments", map[string]any{"message": "still broken"}, "")
	assert.Equal(t, http.StatusConflict, status)
}

func TestPatchAgentNullVersusAbsent(t *testing.T) {
	s := newTestServer(t)
	agent, agentToken := s.account(t, "alex", domain.RoleAgent)

	status, body := s.do(t, http.MethodPost, "/tickets", map[string]any{
		"title": "Wifi down", "description": "Library access point offline",
	}, agentToken)
	require.Equal(t, http.StatusCreated, status)
	ticketID := data(t, body)["id"].(string)
	assert.Equal(t, agent.ID, data(t, body)["agent_id"])

	status, body = s.do(t, http.MethodPatch, "/tickets/"+ticketID, map[string]any{"title": "Wifi down in library"}, agentToken)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, agent.ID, data(t, body)["agent_id"])

	status, body = s.do(t, http.MethodPatch, "/tickets/"+ticketID, map[string]any{"agent_id": nil}, agentToken)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, data(t, body)["agent_id"])
}

func TestPublicTicketRequiresContact(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/tickets/public", map[string]any{
		"title": "Locked out", "description": "Cannot log in", "name": "Guest",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"].(map[string]any)["details"], "email")

	status, body = s.do(t, http.MethodPost, "/tickets/public", map[string]any{
		"title": "Locked out", "description": "Cannot log in", "name": "Guest", "email": "guest@example.com",
	}, "")
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Guest", data(t, body)["requester_name"])
	assert.NotContains(t, data(t, body), "guest")
}

func TestMultipartCreationStoresAttachments(t *testing.T) {
	s := newTestServer(t)
	_, token := s.account(t, "ana", domain.RoleUser)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", "Broken monitor"))
	require.NoError(t, w.WriteField("description", "Screen flickers, photo attached"))
	part, err := w.CreateFormFile("files", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("flicker log"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/tickets", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	status, body := s.send(t, req, token)
	require.Equal(t, http.StatusCreated, status, "%v", body)

	attachments := data(t, body)["attachments"].([]any)
	require.Len(t, attachments, 1)
	first := attachments[0].(map[string]any)
	assert.Equal(t, "notes.txt", first["original_name"])

	resp, err := s.container.App.Test(httptest.NewRequest(http.MethodGet, first["url"].(string), nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "flicker log", string(raw))
}

func TestSLASweepRequiresSecret(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodPost, "/sla/sweep", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	req := httptest.NewRequest(http.MethodPost, "/sla/sweep", nil)
	req.Header.Set("X-SLA-Secret", "wrong")
	status, _ = s.send(t, req, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	req = httptest.NewRequest(http.MethodPost, "/sla/sweep", nil)
	req.Header.Set("X-SLA-Secret", sweepSecret)
	status, body := s.send(t, req, "")
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, data(t, body)["tickets"])
	assert.EqualValues(t, 0, data(t, body)["notifications"])
}

func TestSettingsUpdateOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.account(t, "root", domain.RoleAdmin)
	_, agentToken := s.account(t, "alex", domain.RoleAgent)

	update := map[string]any{
		"password": testPassword,
		"settings": map[string]any{
			"app_name":  "IT Desk",
			"sla_hours": map[string]int{"critical": 2},
			"smtp":      map[string]any{"password": "s3cret"},
		},
	}
	status, _ := s.do(t, http.MethodPut, "/settings", update, agentToken)
	assert.Equal(t, http.StatusForbidden, status)

	update["password"] = "wrong-password"
	status, _ = s.do(t, http.MethodPut, "/settings", update, adminToken)
	assert.Equal(t, http.StatusUnauthorized, status)

	update["password"] = testPassword
	status, body := s.do(t, http.MethodPut, "/settings", update, adminToken)
	require.Equal(t, http.StatusOK, status)
	smtp := data(t, body)["smtp"].(map[string]any)
	assert.NotContains(t, smtp, "password")

	status, body = s.do(t, http.MethodGet, "/settings/public", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "IT Desk", data(t, body)["app_name"])
}

func TestCatalogWritesAreModuleGated(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.account(t, "root", domain.RoleAdmin)
	_, agentToken := s.account(t, "alex", domain.RoleAgent)

	status, _ := s.do(t, http.MethodPost, "/categories", map[string]any{"name": "Hardware"}, agentToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := s.do(t, http.MethodPost, "/categories", map[string]any{"name": "Hardware"}, adminToken)
	require.Equal(t, http.StatusCreated, status)
	id := data(t, body)["id"].(string)

	status, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/categories/%s", id), map[string]any{"active": false}, adminToken)
	require.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodGet, "/categories", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["data"])

	status, body = s.do(t, http.MethodGet, "/categories?all=true", nil, adminToken)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)
}
