// Package claims projects decoded token claims into the typed identity the guard works with.
// Every accessor degrades to a zero value: claims come from a foreign issuer and partial
// data must never break navigation.
package claims

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/spdeepak/crm-session-guard/internal/roles"
)

const (
	DefaultUserIDKey = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	DefaultNameKey   = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"
	DefaultRoleKey   = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
)

// Keys names the claims holding identity fields. Claim keys are opaque strings.
type Keys struct {
	UserID string `json:"userIdKey" yaml:"userIdKey" mapstructure:"userIdKey"`
	Name   string `json:"nameKey" yaml:"nameKey" mapstructure:"nameKey"`
	Role   string `json:"roleKey" yaml:"roleKey" mapstructure:"roleKey"`
}

func DefaultKeys() Keys {
	return Keys{
		UserID: DefaultUserIDKey,
		Name:   DefaultNameKey,
		Role:   DefaultRoleKey,
	}
}

type (
	// Identity is either Valid or Invalid.
	Identity interface {
		isIdentity()
	}
	Valid struct {
		ExpiresAt int64
		UserID    int
		Name      string
		RoleName  string
		Rank      roles.Rank
	}
	Invalid struct {
		Reason string
	}
)

func (Valid) isIdentity()   {}
func (Invalid) isIdentity() {}

// Expiry returns the expiry instant.
func (v Valid) Expiry() time.Time {
	return time.Unix(v.ExpiresAt, 0)
}

const (
	ReasonNoClaims = "no claims"
	ReasonNoExpiry = "missing exp"
)

type Interpreter struct {
	keys Keys
}

// NewInterpreter fills empty keys with the defaults.
func NewInterpreter(keys Keys) Interpreter {
	defaults := DefaultKeys()
	if keys.UserID == "" {
		keys.UserID = defaults.UserID
	}
	if keys.Name == "" {
		keys.Name = defaults.Name
	}
	if keys.Role == "" {
		keys.Role = defaults.Role
	}
	return Interpreter{keys: keys}
}

func (i Interpreter) Keys() Keys {
	return i.keys
}

// Interpret turns raw claims into an Identity. Nil claims or an unusable exp give Invalid.
func (i Interpreter) Interpret(c jwt.MapClaims) Identity {
	if c == nil {
		return Invalid{Reason: ReasonNoClaims}
	}
	exp, ok := i.Expiry(c)
	if !ok {
		return Invalid{Reason: ReasonNoExpiry}
	}
	roleName := i.RoleName(c)
	return Valid{
		ExpiresAt: exp,
		UserID:    i.UserID(c),
		Name:      i.DisplayName(c),
		RoleName:  roleName,
		Rank:      roles.FromName(roleName),
	}
}

// Expiry reads exp in unix seconds. Absent, zero and non-numeric values are not usable.
func (i Interpreter) Expiry(c jwt.MapClaims) (int64, bool) {
	exp, err := c.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, false
	}
	return exp.Unix(), true
}

// UserID reads the user identifier with leading-digit integer semantics, "42abc" is 42.
// Missing or unparseable values give 0.
func (i Interpreter) UserID(c jwt.MapClaims) int {
	switch v := c[i.keys.UserID].(type) {
	case string:
		return leadingInt(v)
	case float64:
		if math.IsNaN(v) || math.Abs(v) >= math.MaxInt {
			return 0
		}
		return int(v)
	default:
		return 0
	}
}

func (i Interpreter) DisplayName(c jwt.MapClaims) string {
	name, _ := c[i.keys.Name].(string)
	return name
}

// RoleName reads the role claim. Issuers emitting several roles send an array, the
// first string element wins.
func (i Interpreter) RoleName(c jwt.MapClaims) string {
	switch v := c[i.keys.Role].(type) {
	case string:
		return v
	case []interface{}:
		for _, role := range v {
			if name, ok := role.(string); ok {
				return name
			}
		}
	}
	return ""
}

// leadingInt parses the longest leading run of decimal digits. Overflow gives 0.
func leadingInt(s string) int {
	s = strings.TrimLeft(s, " \t\n\r")
	sign := ""
	if s != "" && (s[0] == '-' || s[0] == '+') {
		sign, s = s[:1], s[1:]
	}
	digits := 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		digits++
	}
	if digits == 0 {
		return 0
	}
	n, err := strconv.ParseInt(sign+s[:digits], 10, strconv.IntSize)
	if err != nil {
		return 0
	}
	return int(n)
}
