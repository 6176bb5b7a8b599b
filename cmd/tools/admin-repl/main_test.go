package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, handler http.HandlerFunc) *session {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &session{
		baseURL: srv.URL,
		client:  &http.Client{Timeout: time.Second},
	}
}

func TestLoginStoresTokenFromResponse(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		w.Write([]byte(`{"success":true,"token":"abc123","message":"authenticated"}`))
	})

	s.login("admin", "ChangeMe123!")
	assert.Equal(t, "abc123", s.token)
}

func TestGetWithoutLoginReturnsAuthError(t *testing.T) {
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("server should not be called when not authenticated")
	})

	_, _, err := s.doRequest(http.MethodGet, "/api/stats", nil, true)
	require.Error(t, err)
}

func TestGetWithTokenSendsBearerHeader(t *testing.T) {
	var gotAuth string
	s := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"success":true}`))
	})
	s.token = "sometoken"

	body, status, err := s.doRequest(http.MethodGet, "/api/stats", nil, true)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Bearer sometoken", gotAuth)
	assert.Contains(t, string(body), "success")
}

func TestCommandTableCoversHelpText(t *testing.T) {
	// Every name advertised for completion must be handled — by execute's
	// switch, or for "exit" by main's loop before execute is called — or a
	// tab-completed command would silently fall through to "unknown".
	handled := map[string]bool{
		"login": true, "register": true, "stats": true, "server": true,
		"user": true, "health": true, "help": true, "exit": true,
	}
	for _, name := range commandNames {
		assert.True(t, handled[name], "commandNames entry %q has no case in execute", name)
	}
}
