package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spdeepak/crm-session-guard/internal/error"
)

func errorCode(t *testing.T, err error) string {
	t.Helper()
	var e httperror.HttpError
	require.True(t, errors.As(err, &e))
	return e.ErrorCode
}

func TestClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Username != "ana" || creds.Password != "s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"token":"h.p.s"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)

	token, err := c.Login(context.Background(), Credentials{Username: "ana", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "h.p.s", token)

	_, err = c.Login(context.Background(), Credentials{Username: "ana", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, httperror.InvalidCredentials, errorCode(t, err))
}

func TestClient_Login_AccessTokenField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"accessToken":"a.b.c"}`))
	}))
	defer srv.Close()

	token, err := NewClient(srv.URL, 0).Login(context.Background(), Credentials{})
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", token)
}

func TestClient_Login_BackendFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"no token", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{}`)) }},
		{"not json", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`<html>`)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).Login(context.Background(), Credentials{Username: "x"})
			require.Error(t, err)
			assert.Equal(t, httperror.BackendUnavailable, errorCode(t, err))
		})
	}
}

func TestClient_Login_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Login(context.Background(), Credentials{})
	require.Error(t, err)
	assert.Equal(t, httperror.BackendUnavailable, errorCode(t, err))
}

func TestClient_PendingReminders(t *testing.T) {
	due := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/recordatorios/pendientes", r.URL.Path)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode([]Reminder{{ID: 1, Title: "Llamar", ClientName: "ACME", DueAt: due}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)

	reminders, err := c.PendingReminders(context.Background(), "good")
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, "Llamar", reminders[0].Title)
	assert.True(t, due.Equal(reminders[0].DueAt))

	_, err = c.PendingReminders(context.Background(), "stale")
	require.Error(t, err)
	assert.Equal(t, httperror.SessionExpired, errorCode(t, err))
}

func TestClient_PendingReminders_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).PendingReminders(context.Background(), "t")
	require.Error(t, err)
	assert.Equal(t, httperror.BackendUnavailable, errorCode(t, err))
}
