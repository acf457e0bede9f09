package main

import (
	"context"
	_ "embed"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/spdeepak/crm-session-guard/api"
	"github.com/spdeepak/crm-session-guard/internal/backend"
	"github.com/spdeepak/crm-session-guard/internal/claims"
	"github.com/spdeepak/crm-session-guard/internal/error"
	"github.com/spdeepak/crm-session-guard/internal/guard"
	"github.com/spdeepak/crm-session-guard/internal/logging"
	"github.com/spdeepak/crm-session-guard/internal/reminders"
	"github.com/spdeepak/crm-session-guard/internal/session"
	"github.com/spdeepak/crm-session-guard/middleware"
)

const (
	sidCookie = "sid"
	// mirrorGrace keeps a mirrored token around a little past its exp so the watchdog,
	// not the store, decides when it expired.
	mirrorGrace = time.Minute

	eventStream       = "stream"
	eventRedirect     = "redirect"
	eventNotification = "notification"
	eventReminders    = "reminders"
)

//go:embed web/index.html
var pageShell []byte

type Settings struct {
	Cookie           session.CookieConfig
	PollInterval     time.Duration
	ReminderInterval time.Duration
	// Ready reports whether dependencies such as redis are reachable.
	Ready func(ctx context.Context) error
}

type Server struct {
	backend     backend.Client
	evaluator   guard.Evaluator
	permissions *guard.Permissions
	registry    session.Registry
	settings    Settings
	streams     *streams
	now         func() time.Time
	afterFunc   guard.AfterFunc
}

type sseEvent struct {
	name string
	data any
}

func NewServer(backendClient backend.Client, evaluator guard.Evaluator, permissions *guard.Permissions, registry session.Registry, settings Settings) *Server {
	if settings.Cookie.Name == "" {
		settings.Cookie.Name = session.DefaultName
	}
	return &Server{
		backend:     backendClient,
		evaluator:   evaluator,
		permissions: permissions,
		registry:    registry,
		settings:    settings,
		streams:     newStreams(),
		now:         time.Now,
	}
}

func (s *Server) GetLive(ctx *gin.Context) {
	ctx.Status(http.StatusOK)
}

func (s *Server) GetReady(ctx *gin.Context) {
	if s.settings.Ready != nil {
		if err := s.settings.Ready(ctx); err != nil {
			ctx.Error(httperror.NewWithStatus(httperror.SessionStoreFailure, err.Error(), http.StatusServiceUnavailable))
			return
		}
	}
	ctx.Status(http.StatusOK)
}

func (s *Server) Login(ctx *gin.Context) {
	var login api.LoginRequest
	if err := ctx.ShouldBindJSON(&login); err != nil {
		ctx.Error(httperror.New(httperror.InvalidRequestBody))
		return
	}

	token, err := s.backend.Login(ctx, backend.Credentials{Username: login.Username, Password: login.Password})
	if err != nil {
		ctx.Error(err)
		return
	}

	decision := s.evaluator.Evaluate(token, true, s.evaluator.Routes().Landing, s.now())
	valid, ok := decision.Identity.(claims.Valid)
	if !ok || !decision.Live() {
		ctx.Error(httperror.NewWithMetadata(httperror.InvalidSession, "backend issued an unusable token"))
		return
	}

	cookies := session.NewCookieStore(ctx.Writer, ctx.Request, s.settings.Cookie)
	if err = cookies.Set(ctx, token); err != nil {
		ctx.Error(httperror.NewWithMetadata(httperror.SessionStoreFailure, err.Error()))
		return
	}
	if err = session.SetFor(ctx, s.registry.Open(s.sessionID(ctx)), token, decision.Remaining+mirrorGrace); err != nil {
		ctx.Error(httperror.NewWithMetadata(httperror.SessionStoreFailure, err.Error()))
		return
	}
	ctx.Set(logging.UserIdKey, valid.UserID)
	ctx.JSON(http.StatusOK, s.sessionResponse(valid))
}

// Logout clears the browser's token and sends every open stream of the browser session
// to the login route, disarming their deadlines.
func (s *Server) Logout(ctx *gin.Context) {
	s.requestService(ctx, s.evaluator.Routes().Landing).Logout(ctx)
	if sid, err := ctx.Cookie(sidCookie); err == nil && sid != "" {
		for _, service := range s.streams.all(sid) {
			service.Logout(ctx)
		}
		if err = s.registry.Open(sid).Clear(ctx, "", session.ClearOptions{}); err != nil {
			ctx.Error(httperror.NewWithMetadata(httperror.SessionStoreFailure, err.Error()))
			return
		}
	}
	ctx.Status(http.StatusNoContent)
}

func (s *Server) GetSession(ctx *gin.Context) {
	valid, ok := middleware.IdentityFrom(ctx)
	if !ok {
		ctx.Error(httperror.New(httperror.SessionMissing))
		return
	}
	ctx.JSON(http.StatusOK, s.sessionResponse(valid))
}

// AuthorizeNavigation checks the caller's rank for the destination. A request naming one
// of the caller's open streams is decided by that stream's guard, so the stream also sees
// the redirect or the denial notification.
func (s *Server) AuthorizeNavigation(ctx *gin.Context) {
	var request api.AuthorizeRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.Error(httperror.New(httperror.InvalidRequestBody))
		return
	}

	middleware.EvaluateSession(ctx, s.evaluator, s.settings.Cookie, request.Destination, s.now)
	service := s.requestService(ctx, request.Destination)
	if request.Stream != nil {
		if sid, err := ctx.Cookie(sidCookie); err == nil {
			if live, ok := s.streams.get(sid, request.Stream.String()); ok {
				service = live
			}
		}
	}

	if err := service.Navigate(ctx, request.Destination); err != nil {
		route, _, found := s.permissions.Lookup(request.Destination)
		if !found {
			route = "unconfigured"
		}
		middleware.ObserveDenial(route)
		ctx.Error(err)
		return
	}
	ctx.JSON(http.StatusOK, api.AuthorizeResponse{Destination: request.Destination, Allowed: true})
}

// WatchSession streams the watchdog of one browser tab. The stream ends when the client
// goes away or after a redirect to the login route.
func (s *Server) WatchSession(ctx *gin.Context, params api.WatchSessionParams) {
	location := "/"
	if params.Location != nil && *params.Location != "" {
		location = *params.Location
	}

	sid := s.sessionID(ctx)
	ctx.Set(logging.SessionIdKey, sid)
	// Headers are still writable here, so a cookie that is already dead is cleared now.
	// Expiry later in the stream only clears the mirror.
	middleware.EvaluateSession(ctx, s.evaluator, s.settings.Cookie, location, s.now)
	mirror := s.registry.Open(sid)
	if err := s.syncMirror(ctx, session.NewCookieStore(ctx.Writer, ctx.Request, s.settings.Cookie), mirror); err != nil {
		ctx.Error(httperror.NewWithMetadata(httperror.SessionStoreFailure, err.Error()))
		return
	}

	runCtx, cancel := context.WithCancel(ctx.Request.Context())
	events := make(chan sseEvent, 16)
	send := func(ctx context.Context, event sseEvent) {
		select {
		case events <- event:
		case <-ctx.Done():
		case <-runCtx.Done():
		}
	}

	navigator := guard.NewLocationNavigator(location, func(ctx context.Context, target string) {
		send(ctx, sseEvent{name: eventRedirect, data: target})
	})
	notifier := guard.NotifierFunc(func(ctx context.Context, err httperror.HttpError) {
		send(ctx, sseEvent{name: eventNotification, data: err})
	})
	service := guard.NewService(mirror, s.evaluator, s.permissions, navigator, notifier,
		guard.WithClock(s.now),
		guard.WithWatchdog(guard.NewWatchdog(s.settings.PollInterval, s.afterFunc)),
		guard.WithDecisionObserver(middleware.ObserveDecision),
	)
	poller := reminders.NewPoller(s.backend, mirror.Get, func(ctx context.Context, pending []backend.Reminder) {
		send(ctx, sseEvent{name: eventReminders, data: pending})
	}, s.settings.ReminderInterval)

	streamID, unregister := s.streams.add(sid, service)
	events <- sseEvent{name: eventStream, data: streamID}

	defer service.Stop()
	defer poller.Stop()
	defer cancel()
	defer unregister()

	ctx.Header("Content-Type", "text/event-stream")
	ctx.Header("Cache-Control", "no-cache")
	ctx.Header("Connection", "keep-alive")
	ctx.Header("X-Accel-Buffering", "no")
	ctx.Status(http.StatusOK)
	ctx.Writer.Flush()

	service.Start(runCtx)
	poller.Start(runCtx)

	login := s.evaluator.Routes().Login
	ctx.Stream(func(w io.Writer) bool {
		select {
		case <-runCtx.Done():
			return false
		case event := <-events:
			ctx.SSEvent(event.name, event.data)
			return event.name != eventRedirect || event.data != login
		}
	})
}

// Page serves the application shell for page routes that passed the route guard.
func (s *Server) Page(ctx *gin.Context) {
	if ctx.Request.Method != http.MethodGet || strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
		ctx.JSON(http.StatusNotFound, httperror.NewWithDescription("Not found", http.StatusNotFound))
		return
	}
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", pageShell)
}

// syncMirror makes the mirror hold what the browser holds when a stream opens.
func (s *Server) syncMirror(ctx context.Context, cookies, mirror session.Store) error {
	token, present := cookies.Get(ctx)
	if !present {
		return mirror.Clear(ctx, "", session.ClearOptions{})
	}
	if current, ok := mirror.Get(ctx); ok && current == token {
		return nil
	}
	return session.SetFor(ctx, mirror, token, s.mirrorTTL(token))
}

// mirrorTTL is how long a mirrored token is worth keeping: its remaining lifetime plus
// mirrorGrace.
func (s *Server) mirrorTTL(token string) time.Duration {
	decision := s.evaluator.Evaluate(token, true, s.evaluator.Routes().Landing, s.now())
	if !decision.Live() {
		return mirrorGrace
	}
	return decision.Remaining + mirrorGrace
}

// requestService runs the guard over the request's own token cookie.
func (s *Server) requestService(ctx *gin.Context, location string) guard.Service {
	cookies := session.NewCookieStore(ctx.Writer, ctx.Request, s.settings.Cookie)
	opts := []guard.Option{guard.WithClock(s.now)}
	if s.settings.Cookie.Domain != "" {
		opts = append(opts, guard.WithClearScopes(session.ClearOptions{Domain: s.settings.Cookie.Domain}))
	}
	return guard.NewService(cookies, s.evaluator, s.permissions, guard.NewLocationNavigator(location, nil), nil, opts...)
}

// sessionID returns the browser session id, issuing one on first use.
func (s *Server) sessionID(ctx *gin.Context) string {
	if sid, err := ctx.Cookie(sidCookie); err == nil {
		if _, err = uuid.Parse(sid); err == nil {
			return sid
		}
	}
	sid := uuid.NewString()
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     sidCookie,
		Value:    sid,
		Path:     "/",
		Domain:   s.settings.Cookie.Domain,
		Secure:   !s.settings.Cookie.Insecure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return sid
}

func (s *Server) sessionResponse(valid claims.Valid) api.Session {
	return api.Session{
		UserId:    valid.UserID,
		Name:      valid.Name,
		Role:      valid.RoleName,
		Rank:      int(valid.Rank),
		ExpiresAt: valid.Expiry().UTC(),
		ExpiresIn: int(valid.ExpiresAt - s.now().Unix()),
	}
}
