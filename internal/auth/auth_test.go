package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	testSecret = "unit-test-secret"
	testIssuer = "bookings.identity"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestParseValidToken(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub":    "user-1",
		"iss":    testIssuer,
		"exp":    time.Now().Add(time.Hour).Unix(),
		"scopes": []string{ScopeRecommendationsRead, ScopeRegistrationsWrite},
	})

	claims, err := Parse(signed, Config{Secret: testSecret, Issuer: testIssuer})
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if !claims.HasScope(ScopeRecommendationsRead) || !claims.HasScope(ScopeRegistrationsWrite) {
		t.Fatalf("missing scopes: %+v", claims.Scopes)
	}
	if claims.HasScope(ScopeRegistrationsRead) {
		t.Fatal("unexpected scope granted")
	}
}

func TestParseSpaceSeparatedScopes(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub":    "user-1",
		"iss":    testIssuer,
		"exp":    time.Now().Add(time.Hour).Unix(),
		"scopes": ScopeRegistrationsRead + " " + ScopeRegistrationsWrite,
	})

	claims, err := Parse(signed, Config{Secret: testSecret, Issuer: testIssuer})
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if !claims.HasScope(ScopeRegistrationsRead) || !claims.HasScope(ScopeRegistrationsWrite) {
		t.Fatalf("missing scopes: %+v", claims.Scopes)
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub": "user-1",
		"iss": "someone-else",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := Parse(signed, Config{Secret: testSecret, Issuer: testIssuer}); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub": "user-1",
		"iss": testIssuer,
		"exp": time.Now().Add(-time.Minute).Unix(),
	})

	if _, err := Parse(signed, Config{Secret: testSecret, Issuer: testIssuer}); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseRejectsMissingSubject(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"iss": testIssuer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := Parse(signed, Config{Secret: testSecret, Issuer: testIssuer}); err == nil {
		t.Fatal("expected missing subject to fail")
	}
}

func TestMiddlewareWrapInjectsClaims(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"sub":    "user-1",
		"iss":    testIssuer,
		"exp":    time.Now().Add(time.Hour).Unix(),
		"scopes": []string{ScopeRegistrationsRead},
	})

	middleware := NewMiddleware(Config{Secret: testSecret, Issuer: testIssuer}, nil)

	var seen *Claims
	handler := middleware.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/registrations", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if seen == nil || seen.Subject != "user-1" {
		t.Fatalf("claims not propagated: %+v", seen)
	}
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	middleware := NewMiddleware(Config{Secret: testSecret, Issuer: testIssuer}, nil)
	handler := middleware.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/registrations", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rr.Code)
	}
}

func TestMiddlewareSkipperBypassesAuth(t *testing.T) {
	middleware := NewMiddleware(Config{Secret: testSecret, Issuer: testIssuer}, func(r *http.Request) bool {
		return r.URL.Path == "/healthz"
	})
	handler := middleware.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
}
