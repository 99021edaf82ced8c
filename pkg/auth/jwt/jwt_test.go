package jwt

import (
	"context"
	"net/http"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/datenblick/datenblick/pkg/auth"
)

const testSecret = "test-shared-secret"

// createSignedToken creates a JWT signed with the test secret.
func createSignedToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return tokenStr
}

func requestWithToken(token string) *http.Request {
	r, _ := http.NewRequest("POST", "/v1/analyze", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func validClaims() jwtlib.MapClaims {
	return jwtlib.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
}

func TestAuthenticate_ValidToken(t *testing.T) {
	a := New(Config{Secret: testSecret})
	token := createSignedToken(t, validClaims())

	result := a.Authenticate(context.Background(), requestWithToken(token))
	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes (err: %v)", result.Decision, result.Err)
	}
	if result.Identity.Subject != "alice" {
		t.Errorf("Subject = %q, want alice", result.Identity.Subject)
	}
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	a := New(Config{Secret: "different-secret"})
	token := createSignedToken(t, validClaims())

	result := a.Authenticate(context.Background(), requestWithToken(token))
	if result.Decision != auth.No {
		t.Errorf("Decision = %d, want No for wrong signature", result.Decision)
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	a := New(Config{Secret: testSecret})
	token := createSignedToken(t, jwtlib.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	result := a.Authenticate(context.Background(), requestWithToken(token))
	if result.Decision != auth.No {
		t.Errorf("Decision = %d, want No for expired token", result.Decision)
	}
}

func TestAuthenticate_MissingSubject(t *testing.T) {
	a := New(Config{Secret: testSecret})
	token := createSignedToken(t, jwtlib.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	result := a.Authenticate(context.Background(), requestWithToken(token))
	if result.Decision != auth.No {
		t.Errorf("Decision = %d, want No for token without subject", result.Decision)
	}
}

func TestAuthenticate_IssuerValidation(t *testing.T) {
	a := New(Config{Secret: testSecret, Issuer: "datenblick"})

	claims := validClaims()
	claims["iss"] = "datenblick"
	result := a.Authenticate(context.Background(), requestWithToken(createSignedToken(t, claims)))
	if result.Decision != auth.Yes {
		t.Errorf("Decision = %d, want Yes for matching issuer (err: %v)", result.Decision, result.Err)
	}

	claims["iss"] = "someone-else"
	result = a.Authenticate(context.Background(), requestWithToken(createSignedToken(t, claims)))
	if result.Decision != auth.No {
		t.Errorf("Decision = %d, want No for wrong issuer", result.Decision)
	}
}

func TestAuthenticate_AudienceValidation(t *testing.T) {
	a := New(Config{Secret: testSecret, Audience: "analysis-api"})

	claims := validClaims()
	claims["aud"] = "analysis-api"
	result := a.Authenticate(context.Background(), requestWithToken(createSignedToken(t, claims)))
	if result.Decision != auth.Yes {
		t.Errorf("Decision = %d, want Yes for matching audience (err: %v)", result.Decision, result.Err)
	}

	claims["aud"] = "other-api"
	result = a.Authenticate(context.Background(), requestWithToken(createSignedToken(t, claims)))
	if result.Decision != auth.No {
		t.Errorf("Decision = %d, want No for wrong audience", result.Decision)
	}
}

func TestAuthenticate_RejectsNonHMACAlgorithm(t *testing.T) {
	a := New(Config{Secret: testSecret})

	// alg=none tokens must never validate.
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, validClaims())
	tokenStr, err := token.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token: %v", err)
	}

	result := a.Authenticate(context.Background(), requestWithToken(tokenStr))
	if result.Decision != auth.No {
		t.Errorf("Decision = %d, want No for alg=none token", result.Decision)
	}
}

func TestAuthenticate_Abstains(t *testing.T) {
	a := New(Config{Secret: testSecret})

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"basic auth", "Basic dXNlcjpwYXNz"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := http.NewRequest("POST", "/v1/analyze", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			result := a.Authenticate(context.Background(), r)
			if result.Decision != auth.Abstain {
				t.Errorf("Decision = %d, want Abstain", result.Decision)
			}
		})
	}
}

func TestAuthenticate_Scopes(t *testing.T) {
	a := New(Config{Secret: testSecret})

	// Space-separated string form.
	claims := validClaims()
	claims["scope"] = "analyze preview"
	result := a.Authenticate(context.Background(), requestWithToken(createSignedToken(t, claims)))
	if len(result.Identity.Scopes) != 2 || result.Identity.Scopes[0] != "analyze" {
		t.Errorf("Scopes = %v, want [analyze preview]", result.Identity.Scopes)
	}

	// JSON array form.
	claims["scope"] = []string{"analyze"}
	result = a.Authenticate(context.Background(), requestWithToken(createSignedToken(t, claims)))
	if len(result.Identity.Scopes) != 1 || result.Identity.Scopes[0] != "analyze" {
		t.Errorf("Scopes = %v, want [analyze]", result.Identity.Scopes)
	}
}

func TestAuthenticate_CustomUserClaim(t *testing.T) {
	a := New(Config{Secret: testSecret, UserClaim: "email"})

	claims := validClaims()
	delete(claims, "sub")
	claims["email"] = "alice@example.com"
	result := a.Authenticate(context.Background(), requestWithToken(createSignedToken(t, claims)))
	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes (err: %v)", result.Decision, result.Err)
	}
	if result.Identity.Subject != "alice@example.com" {
		t.Errorf("Subject = %q, want alice@example.com", result.Identity.Subject)
	}
}
