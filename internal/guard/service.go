package guard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/spdeepak/crm-session-guard/internal/claims"
	"github.com/spdeepak/crm-session-guard/internal/error"
	"github.com/spdeepak/crm-session-guard/internal/roles"
	"github.com/spdeepak/crm-session-guard/internal/session"
)

type (
	service struct {
		store       session.Store
		evaluator   Evaluator
		permissions *Permissions
		navigator   Navigator
		notifier    Notifier
		watchdog    *Watchdog
		now         func() time.Time
		clearScopes []session.ClearOptions
		observe     func(Decision)

		// mu makes a check, a deadline expiry and a logout atomic with respect to each other.
		mu     sync.Mutex
		runCtx context.Context
	}
	Service interface {
		// Check re-reads the store for the navigator's location and applies the decision.
		Check(ctx context.Context) Decision
		// Navigate moves to destination when the current rank is allowed, otherwise
		// notifies the denial, stays and returns it.
		Navigate(ctx context.Context, destination string) error
		// Logout clears the session and goes to the login route.
		Logout(ctx context.Context)
		// Start runs an immediate check and then the watchdog.
		Start(ctx context.Context)
		// Stop cancels the poll and any armed deadline.
		Stop()
		// Deadline reports the instant the current session is armed to expire.
		Deadline() (time.Time, bool)
	}
	Option func(*service)
)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithWatchdog(w *Watchdog) Option {
	return func(s *service) { s.watchdog = w }
}

// WithClearScopes also clears the token under extra domain/path scopes, for cookies
// written by older deployments.
func WithClearScopes(scopes ...session.ClearOptions) Option {
	return func(s *service) { s.clearScopes = append(s.clearScopes, scopes...) }
}

func WithDecisionObserver(observe func(Decision)) Option {
	return func(s *service) { s.observe = observe }
}

func NewService(store session.Store, evaluator Evaluator, permissions *Permissions, navigator Navigator, notifier Notifier, opts ...Option) Service {
	s := &service{
		store:       store,
		evaluator:   evaluator,
		permissions: permissions,
		navigator:   navigator,
		notifier:    notifier,
		now:         time.Now,
		runCtx:      context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.watchdog == nil {
		s.watchdog = NewWatchdog(DefaultPollInterval, nil)
	}
	if s.permissions == nil {
		s.permissions = NewPermissions(nil, PolicyAllow)
	}
	return s
}

func (s *service) Check(ctx context.Context) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.check(ctx)
}

func (s *service) check(ctx context.Context) Decision {
	raw, present := s.store.Get(ctx)
	location := s.navigator.Location()
	decision := s.evaluator.Evaluate(raw, present, location, s.now())

	if decision.Clear {
		s.clear(ctx)
	}
	if decision.Live() {
		valid := decision.Identity.(claims.Valid)
		s.watchdog.Arm(raw, valid.Expiry(), decision.Remaining, func() { s.expire(raw) })
	} else {
		s.watchdog.Disarm()
	}
	if decision.Target != "" {
		slog.DebugContext(ctx, "Session guard redirect", slog.String("from", location), slog.String("to", decision.Target), slog.String("reason", decision.Reason))
		s.navigator.Redirect(ctx, decision.Target)
	}
	if s.observe != nil {
		s.observe(decision)
	}
	return decision
}

// expire runs when the deadline armed for token fires.
func (s *service) expire(armed string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := s.runCtx

	if current, ok := s.store.Get(ctx); !ok || current != armed {
		s.check(ctx)
		return
	}
	s.clear(ctx)
	s.watchdog.Disarm()
	decision := Decision{Action: Allow, Clear: true, Reason: ReasonExpired, Identity: claims.Invalid{Reason: ReasonExpired}}
	if !s.evaluator.Routes().IsPublic(s.navigator.Location()) {
		decision.Action = RedirectToLogin
		decision.Target = s.evaluator.Routes().Login
		s.navigator.Redirect(ctx, decision.Target)
	}
	if s.observe != nil {
		s.observe(decision)
	}
}

func (s *service) clear(ctx context.Context) {
	scopes := append([]session.ClearOptions{{}}, s.clearScopes...)
	for _, scope := range scopes {
		if err := s.store.Clear(ctx, "", scope); err != nil {
			slog.ErrorContext(ctx, "Failed to clear session token", slog.Any("error", err))
		}
	}
}

func (s *service) Navigate(ctx context.Context, destination string) error {
	rank := roles.Unknown
	if raw, present := s.store.Get(ctx); present {
		decision := s.evaluator.Evaluate(raw, present, destination, s.now())
		if valid, ok := decision.Identity.(claims.Valid); ok && decision.Live() {
			rank = valid.Rank
		}
	}

	if err := s.permissions.Authorize(ctx, destination, rank); err != nil {
		var httpErr httperror.HttpError
		if !errors.As(err, &httpErr) {
			httpErr = httperror.NewWithMetadata(httperror.PermissionDenied, err.Error())
		}
		if s.notifier != nil {
			s.notifier.Notify(ctx, httpErr)
		}
		return httpErr
	}
	s.navigator.Redirect(ctx, destination)
	return nil
}

func (s *service) Logout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear(ctx)
	s.watchdog.Disarm()
	if !s.evaluator.Routes().IsPublic(s.navigator.Location()) {
		s.navigator.Redirect(ctx, s.evaluator.Routes().Login)
	}
}

func (s *service) Start(ctx context.Context) {
	s.mu.Lock()
	s.runCtx = ctx
	s.check(ctx)
	s.mu.Unlock()
	s.watchdog.Start(ctx, func(ctx context.Context) { s.Check(ctx) })
}

func (s *service) Stop() {
	s.watchdog.Stop()
}

func (s *service) Deadline() (time.Time, bool) {
	state, until := s.watchdog.State()
	return until, state == Armed
}
