package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSubject(t *testing.T) {
	tok := signed(t, jwt.MapClaims{"sub": "employee-42"})
	if got := Subject(tok); got != "employee-42" {
		t.Errorf("Subject() = %q, want %q", got, "employee-42")
	}
}

func TestSubject_Opaque(t *testing.T) {
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if got := Subject(tok); got != "" {
			t.Errorf("Subject(%q) = %q, want empty", tok, got)
		}
	}
}

func TestSubject_NoSubClaim(t *testing.T) {
	tok := signed(t, jwt.MapClaims{"username": "alice"})
	if got := Subject(tok); got != "" {
		t.Errorf("Subject() = %q, want empty", got)
	}
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/session", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	if got := FromRequest(r).Token(); got != "abc123" {
		t.Errorf("header token = %q, want %q", got, "abc123")
	}

	r = httptest.NewRequest("POST", "/session", nil)
	r.AddCookie(&http.Cookie{Name: "token", Value: "from-cookie"})
	if got := FromRequest(r).Token(); got != "from-cookie" {
		t.Errorf("cookie token = %q, want %q", got, "from-cookie")
	}

	r = httptest.NewRequest("POST", "/session", nil)
	if got := FromRequest(r).Token(); got != "" {
		t.Errorf("anonymous token = %q, want empty", got)
	}
}

func TestVerifiedSubject(t *testing.T) {
	key := []byte("secret")
	good := signed(t, jwt.MapClaims{"sub": "employee-42"})
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "employee-42"}).SignedString([]byte("other"))
	if err != nil {
		t.Fatal(err)
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "employee-42"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		token string
		key   []byte
		want  string
	}{
		{"valid signature", good, key, "employee-42"},
		{"wrong key", forged, key, ""},
		{"alg none", unsigned, key, ""},
		{"opaque", "not-a-jwt", key, ""},
		{"empty", "", key, ""},
		{"no key reads unverified", forged, nil, "employee-42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifiedSubject(tt.token, tt.key); got != tt.want {
				t.Errorf("VerifiedSubject() = %q, want %q", got, tt.want)
			}
		})
	}
}
