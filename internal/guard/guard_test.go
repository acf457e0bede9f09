package guard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spdeepak/crm-session-guard/internal/claims"
	"github.com/spdeepak/crm-session-guard/internal/roles"
)

func TestEvaluator_Evaluate(t *testing.T) {
	t.Parallel()

	now := testNow.Unix()
	tests := []struct {
		name         string
		token        func(t *testing.T) string
		location     string
		wantAction   Action
		wantTarget   string
		wantClear    bool
		wantReason   string
		wantLive     bool
		wantDuration time.Duration
	}{
		{
			name:       "no token on protected route",
			token:      func(t *testing.T) string { return "" },
			location:   "/clientes",
			wantAction: RedirectToLogin,
			wantTarget: "/login",
			wantReason: ReasonNoToken,
		},
		{
			name:       "no token on public route",
			token:      func(t *testing.T) string { return "" },
			location:   "/login",
			wantAction: Allow,
			wantReason: ReasonNoToken,
		},
		{
			name:       "garbage token on protected route",
			token:      func(t *testing.T) string { return "a.b.c" },
			location:   "/clientes",
			wantAction: RedirectToLogin,
			wantTarget: "/login",
			wantClear:  true,
			wantReason: ReasonInvalidClaims,
		},
		{
			name:       "garbage token on public route",
			token:      func(t *testing.T) string { return "nope" },
			location:   "/recuperar/paso-1",
			wantAction: Allow,
			wantClear:  true,
			wantReason: ReasonInvalidClaims,
		},
		{
			name:       "token without exp",
			token:      func(t *testing.T) string { return issue(t, 0, "Manager") },
			location:   "/pagos",
			wantAction: RedirectToLogin,
			wantTarget: "/login",
			wantClear:  true,
			wantReason: ReasonInvalidClaims,
		},
		{
			name:       "expired one second ago",
			token:      func(t *testing.T) string { return issue(t, now-1, "Manager") },
			location:   "/pagos",
			wantAction: RedirectToLogin,
			wantTarget: "/login",
			wantClear:  true,
			wantReason: ReasonExpired,
		},
		{
			name:         "exp equal to now is still valid",
			token:        func(t *testing.T) string { return issue(t, now, "Manager") },
			location:     "/pagos",
			wantAction:   Allow,
			wantLive:     true,
			wantDuration: 0,
		},
		{
			name:         "valid session on protected route",
			token:        func(t *testing.T) string { return issue(t, now+600, "Supervisor") },
			location:     "/oportunidades/12",
			wantAction:   Allow,
			wantLive:     true,
			wantDuration: 600 * time.Second,
		},
		{
			name:         "valid session on login goes to landing",
			token:        func(t *testing.T) string { return issue(t, now+600, "Supervisor") },
			location:     "/login",
			wantAction:   RedirectToLanding,
			wantTarget:   "/oportunidades",
			wantReason:   ReasonLiveOnPublic,
			wantLive:     true,
			wantDuration: 600 * time.Second,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			raw := tt.token(t)
			decision := testEvaluator().Evaluate(raw, raw != "", tt.location, testNow)

			assert.Equal(t, tt.wantAction, decision.Action)
			assert.Equal(t, tt.wantTarget, decision.Target)
			assert.Equal(t, tt.wantClear, decision.Clear)
			assert.Equal(t, tt.wantReason, decision.Reason)
			assert.Equal(t, tt.wantLive, decision.Live())
			assert.Equal(t, tt.wantDuration, decision.Remaining)
		})
	}
}

func TestEvaluator_ExpiryBoundaryUsesFlooredNow(t *testing.T) {
	exp := testNow.Unix()
	raw := issue(t, exp, "Advisor")
	evaluator := testEvaluator()

	almostNext := testNow.Add(999 * time.Millisecond)
	assert.True(t, evaluator.Evaluate(raw, true, "/clientes", almostNext).Live())

	nextSecond := testNow.Add(time.Second)
	decision := evaluator.Evaluate(raw, true, "/clientes", nextSecond)
	assert.False(t, decision.Live())
	assert.Equal(t, ReasonExpired, decision.Reason)
}

func TestEvaluator_IdentityCarriesRank(t *testing.T) {
	raw := issue(t, testNow.Unix()+60, "Developer")
	decision := testEvaluator().Evaluate(raw, true, "/usuarios", testNow)

	valid, ok := decision.Identity.(claims.Valid)
	assert.True(t, ok)
	assert.Equal(t, roles.Developer, valid.Rank)
	assert.Equal(t, 42, valid.UserID)
}

func TestEvaluator_PresentButEmpty(t *testing.T) {
	decision := testEvaluator().Evaluate("", true, "/clientes", testNow)
	assert.Equal(t, RedirectToLogin, decision.Action)
	assert.False(t, decision.Clear)
}

func TestRoutes_IsPublic(t *testing.T) {
	routes := NewRoutes("/login", "", []string{"/recuperar", "/static/", ""})

	assert.Equal(t, DefaultLandingPath, routes.Landing)
	assert.Equal(t, []string{"/login", "/recuperar", "/static/"}, routes.Public)

	assert.True(t, routes.IsPublic("/login"))
	assert.True(t, routes.IsPublic("/login?next=/clientes"))
	assert.True(t, routes.IsPublic("/login/"))
	assert.True(t, routes.IsPublic("/recuperar/token"))
	assert.True(t, routes.IsPublic("/static/app.js"))
	assert.False(t, routes.IsPublic("/loginx"))
	assert.False(t, routes.IsPublic("/"))
	assert.False(t, routes.IsPublic(""))
	assert.False(t, routes.IsPublic("/clientes"))
}

func TestNewRoutes_Defaults(t *testing.T) {
	routes := NewRoutes("", "", nil)
	assert.Equal(t, DefaultLoginPath, routes.Login)
	assert.Equal(t, []string{DefaultLoginPath}, routes.Public)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "redirect_login", RedirectToLogin.String())
	assert.Equal(t, "redirect_landing", RedirectToLanding.String())
	assert.Equal(t, "unknown", Action(7).String())
}
