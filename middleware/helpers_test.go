package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/spdeepak/crm-session-guard/internal/claims"
	"github.com/spdeepak/crm-session-guard/internal/guard"
	"github.com/spdeepak/crm-session-guard/internal/session"
	"github.com/spdeepak/crm-session-guard/internal/token"
)

var testNow = time.Unix(1_800_000_000, 0)

func fixedClock() time.Time { return testNow }

var testCookie = session.CookieConfig{Name: "token"}

func init() {
	gin.SetMode(gin.TestMode)
}

func issue(t *testing.T, exp int64, role string) string {
	t.Helper()
	c := jwt.MapClaims{claims.DefaultUserIDKey: "42", claims.DefaultNameKey: "Ana"}
	if exp != 0 {
		c["exp"] = float64(exp)
	}
	if role != "" {
		c[claims.DefaultRoleKey] = role
	}
	raw, err := token.Encode(c, []byte("test-secret"))
	require.NoError(t, err)
	return raw
}

func testEvaluator() guard.Evaluator {
	return guard.NewEvaluator(guard.NewRoutes("/login", "/oportunidades", nil), claims.NewInterpreter(claims.DefaultKeys()))
}

func request(router http.Handler, method, target, tokenValue string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if tokenValue != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: tokenValue})
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func clearedCookie(rec *httptest.ResponseRecorder) bool {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" && c.Value == "" && c.MaxAge < 0 {
			return true
		}
	}
	return false
}
