// Package backend talks to the CRM REST API. The guard only needs two calls from it:
// login, to obtain a token, and the pending reminder list polled for the reminder banner.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spdeepak/crm-session-guard/internal/error"
)

const (
	loginPath     = "/api/auth/login"
	remindersPath = "/api/recordatorios/pendientes"

	defaultTimeout = 10 * time.Second
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Reminder struct {
	ID          int       `json:"id"`
	Title       string    `json:"titulo"`
	ClientName  string    `json:"cliente,omitempty"`
	Opportunity int       `json:"oportunidadId,omitempty"`
	DueAt       time.Time `json:"fecha"`
}

type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
}

type (
	client struct {
		baseURL string
		http    *http.Client
	}
	Client interface {
		// Login exchanges credentials for a bearer token.
		Login(ctx context.Context, credentials Credentials) (string, error)
		// PendingReminders lists the reminders due for the token's user.
		PendingReminders(ctx context.Context, token string) ([]Reminder, error)
	}
)

func NewClient(baseURL string, timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *client) Login(ctx context.Context, credentials Credentials) (string, error) {
	body, err := json.Marshal(credentials)
	if err != nil {
		return "", httperror.NewWithMetadata(httperror.InvalidRequestBody, err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return "", httperror.NewWithMetadata(httperror.BackendUnavailable, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return "", httperror.NewWithMetadata(httperror.BackendUnavailable, err.Error())
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusBadRequest || res.StatusCode == http.StatusNotFound:
		return "", httperror.NewWithMetadata(httperror.InvalidCredentials, fmt.Sprintf("backend status %d", res.StatusCode))
	case res.StatusCode >= 300:
		return "", httperror.NewWithMetadata(httperror.BackendUnavailable, fmt.Sprintf("backend status %d", res.StatusCode))
	}

	var payload loginResponse
	if err = json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&payload); err != nil {
		return "", httperror.NewWithMetadata(httperror.BackendUnavailable, err.Error())
	}
	token := payload.Token
	if token == "" {
		token = payload.AccessToken
	}
	if token == "" {
		return "", httperror.NewWithMetadata(httperror.BackendUnavailable, "login response without token")
	}
	return token, nil
}

func (c *client) PendingReminders(ctx context.Context, token string) ([]Reminder, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+remindersPath, nil)
	if err != nil {
		return nil, httperror.NewWithMetadata(httperror.BackendUnavailable, err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, httperror.NewWithMetadata(httperror.BackendUnavailable, err.Error())
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized {
		return nil, httperror.New(httperror.SessionExpired)
	}
	if res.StatusCode >= 300 {
		slog.WarnContext(ctx, "Reminder request failed", slog.Int("status", res.StatusCode))
		return nil, httperror.NewWithMetadata(httperror.BackendUnavailable, fmt.Sprintf("backend status %d", res.StatusCode))
	}

	var reminders []Reminder
	if err = json.NewDecoder(io.LimitReader(res.Body, 4<<20)).Decode(&reminders); err != nil {
		return nil, httperror.NewWithMetadata(httperror.BackendUnavailable, err.Error())
	}
	return reminders, nil
}
