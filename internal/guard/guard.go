// Package guard decides, for the current location, whether a navigation may render,
// must go to the login screen, or must leave a public screen for the app. It also owns
// the watchdog that expires sessions without user interaction.
package guard

import (
	"time"

	"github.com/spdeepak/crm-session-guard/internal/claims"
	"github.com/spdeepak/crm-session-guard/internal/token"
)

type Action int

const (
	Allow Action = iota
	RedirectToLogin
	RedirectToLanding
)

func (a Action) String() string {
	switch a {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_login"
	case RedirectToLanding:
		return "redirect_landing"
	default:
		return "unknown"
	}
}

const (
	ReasonNoToken       = "no token"
	ReasonInvalidClaims = "invalid claims"
	ReasonExpired       = "expired"
	ReasonLiveOnPublic  = "live session on public route"
)

type Decision struct {
	Action Action
	// Target is the redirect destination, empty for Allow.
	Target string
	// Clear is set when the stored token must be removed.
	Clear    bool
	Identity claims.Identity
	// Remaining is the lifetime left on a live session, used to arm the deadline.
	Remaining time.Duration
	Reason    string
}

// Live reports whether the decision carries a valid, unexpired session.
func (d Decision) Live() bool {
	_, ok := d.Identity.(claims.Valid)
	return ok && !d.Clear
}

type Evaluator struct {
	routes      Routes
	interpreter claims.Interpreter
}

func NewEvaluator(routes Routes, interpreter claims.Interpreter) Evaluator {
	return Evaluator{routes: routes, interpreter: interpreter}
}

func (e Evaluator) Routes() Routes {
	return e.routes
}

func (e Evaluator) Interpreter() claims.Interpreter {
	return e.interpreter
}

// Evaluate runs the guard steps for one navigation. It has no side effects; callers
// apply Clear and the redirect.
func (e Evaluator) Evaluate(raw string, present bool, location string, now time.Time) Decision {
	public := e.routes.IsPublic(location)

	if !present || raw == "" {
		return e.deny(Decision{Reason: ReasonNoToken, Identity: claims.Invalid{Reason: claims.ReasonNoClaims}}, public)
	}

	decoded, _ := token.Decode(raw)
	identity := e.interpreter.Interpret(decoded)
	valid, ok := identity.(claims.Valid)
	if !ok {
		return e.deny(Decision{Reason: ReasonInvalidClaims, Clear: true, Identity: identity}, public)
	}

	nowSec := now.Unix()
	if valid.ExpiresAt < nowSec {
		return e.deny(Decision{Reason: ReasonExpired, Clear: true, Identity: identity}, public)
	}

	remaining := time.Duration(valid.ExpiresAt-nowSec) * time.Second
	if public {
		return Decision{
			Action:    RedirectToLanding,
			Target:    e.routes.Landing,
			Identity:  identity,
			Remaining: remaining,
			Reason:    ReasonLiveOnPublic,
		}
	}
	return Decision{Action: Allow, Identity: identity, Remaining: remaining}
}

func (e Evaluator) deny(d Decision, public bool) Decision {
	if public {
		d.Action = Allow
		return d
	}
	d.Action = RedirectToLogin
	d.Target = e.routes.Login
	return d
}
