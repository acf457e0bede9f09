package token

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

// FuzzDecode feeds arbitrary strings to Decode. It must never panic and must
// never report success without claims.
func FuzzDecode(f *testing.F) {
	valid, err := Encode(jwt.MapClaims{"exp": float64(1893456000), "role": "Manager"}, testKey)
	if err != nil {
		f.Fatal(err)
	}

	f.Add(valid)
	f.Add("")
	f.Add("not.a.jwt")
	f.Add("a.b")
	f.Add("eyJhbGciOiJub25lIn0.eyJleHAiOjF9.")
	f.Add("eyJhbGciOiJub25lIn0.bnVsbA.")

	f.Fuzz(func(t *testing.T, input string) {
		claims, ok := Decode(input)
		if ok && claims == nil {
			t.Fatal("Decode reported success with nil claims")
		}
		if !ok && claims != nil {
			t.Fatal("Decode reported failure with claims")
		}
	})
}
