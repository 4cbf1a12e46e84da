package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mitomaniaco/escola-tia-sol/internal/auth"
)

func TestAuthInjectsClaims(t *testing.T) {
	jwtMgr := auth.NewJWTManager(strings.Repeat("a", 32), time.Minute)
	subject := uuid.NewString()

	token, _, err := jwtMgr.GenerateAccessToken(subject, "portal", "guardian", "mae@example.com")
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	var gotSubject, gotAudience, gotRole, gotEmail string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = GetSubject(r.Context())
		gotAudience = GetAudience(r.Context())
		gotRole = GetRole(r.Context())
		gotEmail = GetEmail(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	Auth(jwtMgr)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if gotSubject != subject {
		t.Fatalf("expected subject %q got %q", subject, gotSubject)
	}
	if gotAudience != "portal" {
		t.Fatalf("expected audience portal got %q", gotAudience)
	}
	if gotRole != "guardian" {
		t.Fatalf("expected role guardian got %q", gotRole)
	}
	if gotEmail != "mae@example.com" {
		t.Fatalf("expected email got %q", gotEmail)
	}
}

func TestAuthRejectsMissingOrBadToken(t *testing.T) {
	jwtMgr := auth.NewJWTManager(strings.Repeat("a", 32), time.Minute)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without a valid token")
	})
	handler := Auth(jwtMgr)(next)

	tests := []struct {
		name   string
		header string
	}{
		{"sem-header", ""},
		{"esquema-errado", "Basic abc"},
		{"token-invalido", "Bearer nao-e-jwt"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401 got %d", rec.Code)
			}
		})
	}
}
