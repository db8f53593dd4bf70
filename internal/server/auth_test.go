package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestAuthMiddleware_Disabled verifies that when no API key is configured
// all requests pass through without an Authorization header.
func TestAuthMiddleware_Disabled(t *testing.T) {
	t.Parallel()

	h := authMiddleware("", okHandler)
	req := httptest.NewRequest(http.MethodPost, "/hrlaw/rag", nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 when auth disabled, got %d", w.Code)
	}
}

// TestAuthMiddleware_MissingHeader verifies that a request with no
// Authorization header receives 401 when auth is enabled.
func TestAuthMiddleware_MissingHeader(t *testing.T) {
	t.Parallel()

	h := authMiddleware("secret", okHandler)
	req := httptest.NewRequest(http.MethodPost, "/hrlaw/rag", nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("expected WWW-Authenticate header on 401")
	}
}

// TestAuthMiddleware_WrongToken verifies that an incorrect Bearer token
// receives 401.
func TestAuthMiddleware_WrongToken(t *testing.T) {
	t.Parallel()

	h := authMiddleware("secret", okHandler)
	req := httptest.NewRequest(http.MethodPost, "/hrlaw/rag", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// TestAuthMiddleware_CorrectToken verifies that the configured Bearer token
// is accepted, with case-insensitive scheme matching.
func TestAuthMiddleware_CorrectToken(t *testing.T) {
	t.Parallel()

	h := authMiddleware("secret", okHandler)

	for _, scheme := range []string{"Bearer", "bearer", "BEARER"} {
		req := httptest.NewRequest(http.MethodPost, "/hrlaw/rag", nil)
		req.Header.Set("Authorization", scheme+" secret")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("scheme %q: expected 200, got %d", scheme, w.Code)
		}
	}
}

// TestBearerToken_Malformed verifies malformed Authorization headers yield
// an empty token.
func TestBearerToken_Malformed(t *testing.T) {
	t.Parallel()

	tests := []string{
		"secret",
		"Basic dXNlcjpwYXNz",
		"",
	}
	for _, hdr := range tests {
		req := httptest.NewRequest(http.MethodPost, "/hrlaw/rag", nil)
		if hdr != "" {
			req.Header.Set("Authorization", hdr)
		}
		if got := bearerToken(req); got != "" {
			t.Errorf("bearerToken(%q) = %q, want empty", hdr, got)
		}
	}
}
