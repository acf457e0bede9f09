package guard

import (
	"context"
	"sync"
	"time"
)

const DefaultPollInterval = 2 * time.Second

type State int

const (
	NoSession State = iota
	Armed
)

func (s State) String() string {
	if s == Armed {
		return "armed"
	}
	return "no_session"
}

// Timer is the part of *time.Timer the watchdog needs.
type Timer interface {
	Stop() bool
}

type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Watchdog combines a fixed-interval poll with a one-shot deadline armed at the
// exact expiry of the current session.
type Watchdog struct {
	interval  time.Duration
	afterFunc AfterFunc

	mu         sync.Mutex
	deadline   Timer
	armedToken string
	armedUntil time.Time
	generation uint64

	cancel context.CancelFunc
	done   chan struct{}
}

func NewWatchdog(interval time.Duration, afterFunc AfterFunc) *Watchdog {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if afterFunc == nil {
		afterFunc = realAfterFunc
	}
	return &Watchdog{interval: interval, afterFunc: afterFunc}
}

func (w *Watchdog) Interval() time.Duration {
	return w.interval
}

// Start runs poll on every interval until Stop is called or ctx ends. Calling Start
// on a running watchdog does nothing.
func (w *Watchdog) Start(ctx context.Context, poll func(ctx context.Context)) {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w.cancel, w.done = cancel, done
	w.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				poll(ctx)
			}
		}
	}()
}

// Stop cancels the poll, waits for it to exit and drops any armed deadline.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	w.Disarm()
}

// Arm schedules fire after remaining. Re-arming with the same token and expiry keeps
// the running timer; anything else replaces it.
func (w *Watchdog) Arm(token string, until time.Time, remaining time.Duration, fire func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.deadline != nil && w.armedToken == token && w.armedUntil.Equal(until) {
		return
	}
	w.stopLocked()
	w.generation++
	generation := w.generation
	w.armedToken = token
	w.armedUntil = until
	w.deadline = w.afterFunc(remaining, func() {
		w.mu.Lock()
		if w.generation != generation {
			w.mu.Unlock()
			return
		}
		w.deadline = nil
		w.mu.Unlock()
		fire()
	})
}

func (w *Watchdog) Disarm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
	w.generation++
	w.armedToken = ""
	w.armedUntil = time.Time{}
}

func (w *Watchdog) stopLocked() {
	if w.deadline != nil {
		w.deadline.Stop()
		w.deadline = nil
	}
}

// State reports whether a deadline is armed and for which instant.
func (w *Watchdog) State() (State, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.deadline == nil {
		return NoSession, time.Time{}
	}
	return Armed, w.armedUntil
}
