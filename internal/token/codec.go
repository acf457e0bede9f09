// Package token reads the claims carried by a bearer token without verifying it.
// Signature checks belong to the backend that issued the token.
package token

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
)

var (
	parser = jwt.NewParser(jwt.WithPaddingAllowed())

	toURLAlphabet = strings.NewReplacer("+", "-", "/", "_")
)

// Decode returns the payload claims of a header.payload.signature token.
// Any malformed input yields (nil, false).
func Decode(raw string) (jwt.MapClaims, bool) {
	segments := strings.Split(raw, ".")
	if len(segments) != 3 {
		return nil, false
	}

	payload, err := parser.DecodeSegment(toURLAlphabet.Replace(segments[1]))
	if err != nil || !utf8.Valid(payload) {
		return nil, false
	}

	var claims jwt.MapClaims
	if err = json.Unmarshal(payload, &claims); err != nil || claims == nil {
		return nil, false
	}
	return claims, true
}

// Encode issues an HS256 token for claims. The guard never signs tokens itself;
// this is what the backend issuer produces and is used by tests and local tooling.
func Encode(claims jwt.MapClaims, key []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}
