// Package reminders polls the backend for pending reminders on its own schedule,
// independent of the session watchdog.
package reminders

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/spdeepak/crm-session-guard/internal/backend"
	"github.com/spdeepak/crm-session-guard/internal/error"
)

const DefaultInterval = 60 * time.Second

type Source interface {
	PendingReminders(ctx context.Context, token string) ([]backend.Reminder, error)
}

// TokenSource returns the current session token, if any.
type TokenSource func(ctx context.Context) (string, bool)

type Sink func(ctx context.Context, reminders []backend.Reminder)

type Poller struct {
	source   Source
	token    TokenSource
	sink     Sink
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(source Source, token TokenSource, sink Sink, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{source: source, token: token, sink: sink, interval: interval}
}

// Start polls once right away and then on every interval until Stop or ctx ends.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.cancel != nil {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel, p.done = cancel, done
	p.mu.Unlock()

	go func() {
		defer close(done)
		p.Poll(ctx)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Poll(ctx)
			}
		}
	}()
}

func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Poll fetches the reminders once. Without a session nothing is requested, and a
// rejected token is left for the session guard to handle.
func (p *Poller) Poll(ctx context.Context) {
	token, ok := p.token(ctx)
	if !ok || token == "" {
		return
	}
	reminders, err := p.source.PendingReminders(ctx, token)
	if err != nil {
		var httpErr httperror.HttpError
		if errors.As(err, &httpErr) && httpErr.ErrorCode == httperror.SessionExpired {
			slog.DebugContext(ctx, "Reminder poll rejected token")
			return
		}
		if ctx.Err() == nil {
			slog.WarnContext(ctx, "Reminder poll failed", slog.Any("error", err))
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	p.sink(ctx, reminders)
}
