package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spdeepak/crm-session-guard/internal/claims"
	"github.com/spdeepak/crm-session-guard/internal/error"
	"github.com/spdeepak/crm-session-guard/internal/guard"
	"github.com/spdeepak/crm-session-guard/internal/logging"
	"github.com/spdeepak/crm-session-guard/internal/session"
)

const (
	IdentityKey = "Identity"
	TokenKey    = "Token"
)

// SessionlessPaths are the API operations that work without a live session.
var SessionlessPaths = []string{
	"/live",
	"/ready",
	"/api/v1/auth/login",
	"/api/v1/auth/logout",
	"/api/v1/navigation/authorize",
	"/api/v1/session/watch",
}

// RouteGuard gates page navigations. Dead sessions are cleared and sent to the login
// route with a 302, live sessions on public routes go to the landing route.
// A nil now uses time.Now.
func RouteGuard(evaluator guard.Evaluator, cookie session.CookieConfig, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := EvaluateSession(c, evaluator, cookie, c.Request.URL.RequestURI(), now)
		if decision.Action != guard.Allow {
			c.Redirect(http.StatusFound, decision.Target)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSession rejects API calls without a live session with a 401 error body. It skips
// SessionlessPaths and any path listed in skipPaths.
func RequireSession(evaluator guard.Evaluator, cookie session.CookieConfig, now func() time.Time, skipPaths []string) gin.HandlerFunc {
	skip := append(slices.Clone(SessionlessPaths), skipPaths...)
	return func(c *gin.Context) {
		if slices.Contains(skip, c.Request.URL.Path) {
			c.Next()
			return
		}
		decision := EvaluateSession(c, evaluator, cookie, c.Request.URL.Path, now)
		if !decision.Live() {
			c.Error(sessionError(decision))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePermission checks the caller's rank against the route table for the request path.
// It must run after RouteGuard; requests without an identity are on public routes and pass.
func RequirePermission(permissions *guard.Permissions) gin.HandlerFunc {
	return func(c *gin.Context) {
		valid, ok := IdentityFrom(c)
		if !ok {
			c.Next()
			return
		}
		if err := permissions.Authorize(c, c.Request.URL.Path, valid.Rank); err != nil {
			route, _, ok := permissions.Lookup(c.Request.URL.Path)
			if !ok {
				route = "unconfigured"
			}
			ObserveDenial(route)
			c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// IdentityFrom returns the identity stored by RouteGuard or RequireSession.
func IdentityFrom(c *gin.Context) (claims.Valid, bool) {
	value, ok := c.Get(IdentityKey)
	if !ok {
		return claims.Valid{}, false
	}
	valid, ok := value.(claims.Valid)
	return valid, ok
}

// EvaluateSession runs the guard for the request's token cookie at location. It clears a dead
// token and stores a live identity on c.
func EvaluateSession(c *gin.Context, evaluator guard.Evaluator, cookie session.CookieConfig, location string, now func() time.Time) guard.Decision {
	if now == nil {
		now = time.Now
	}
	store := session.NewCookieStore(c.Writer, c.Request, cookie)
	raw, present := store.Get(c)
	decision := evaluator.Evaluate(raw, present, location, now())
	ObserveDecision(decision)

	if decision.Clear {
		_ = store.Clear(c, cookie.Name, session.ClearOptions{Domain: cookie.Domain})
	}
	if decision.Live() {
		valid := decision.Identity.(claims.Valid)
		c.Set(IdentityKey, valid)
		c.Set(TokenKey, raw)
		c.Set(logging.UserIdKey, valid.UserID)
	}
	return decision
}

func sessionError(decision guard.Decision) httperror.HttpError {
	switch decision.Reason {
	case guard.ReasonExpired:
		return httperror.New(httperror.SessionExpired)
	case guard.ReasonInvalidClaims:
		return httperror.New(httperror.InvalidSession)
	default:
		return httperror.New(httperror.SessionMissing)
	}
}
