package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerSweep(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sla/sweep" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("X-SLA-Secret") != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid sweep secret"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"tickets":2,"notifications":5}}`))
	}))
	defer srv.Close()

	result, err := triggerSweep(srv.URL+"/", "s3cret", 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Tickets)
	assert.Equal(t, 5, result.Notifications)

	_, err = triggerSweep(srv.URL, "wrong", 5*time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, version+"\n", out.String())
}

func TestCreateUserRejectsBadInputBeforeConnecting(t *testing.T) {
	cases := map[string][]string{
		"unknown role":   {"create-user", "--name", "Ana", "--email", "ana@example.com", "--password", "longenough", "--role", "owner"},
		"missing email":  {"create-user", "--name", "Ana", "--password", "longenough"},
		"short password": {"create-user", "--name", "Ana", "--email", "ana@example.com", "--password", "short"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			root := newRootCmd()
			root.SetOut(&bytes.Buffer{})
			root.SetArgs(args)
			assert.Error(t, root.Execute())
		})
	}
}

func TestSweepRequiresSecret(t *testing.T) {
	t.Setenv("HELPDESK_SLA_SECRET", "")
	root := newRootCmd()
	root.SetArgs([]string{"sla", "sweep", "--api-url", "http://127.0.0.1:1"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sla secret required")
}
