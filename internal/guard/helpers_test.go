package guard

import (
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/spdeepak/crm-session-guard/internal/claims"
	"github.com/spdeepak/crm-session-guard/internal/token"
)

var testNow = time.Unix(1_800_000_000, 0)

func fixedClock() time.Time { return testNow }

func issue(t *testing.T, exp int64, role string) string {
	t.Helper()
	c := jwt.MapClaims{}
	if exp != 0 {
		c["exp"] = float64(exp)
	}
	if role != "" {
		c[claims.DefaultRoleKey] = role
	}
	c[claims.DefaultUserIDKey] = "42"
	raw, err := token.Encode(c, []byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func testEvaluator() Evaluator {
	return NewEvaluator(NewRoutes("/login", "/oportunidades", []string{"/recuperar"}), claims.NewInterpreter(claims.DefaultKeys()))
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (ft *fakeTimers) AfterFunc(d time.Duration, f func()) Timer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	ft.timers = append(ft.timers, t)
	return t
}

func (ft *fakeTimers) count() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return len(ft.timers)
}

func (ft *fakeTimers) last() *fakeTimer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if len(ft.timers) == 0 {
		return nil
	}
	return ft.timers[len(ft.timers)-1]
}

// fire runs the callback the way time.AfterFunc would, on its own goroutine, and waits.
func (t *fakeTimer) fire() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		t.f()
	}()
	<-done
}
