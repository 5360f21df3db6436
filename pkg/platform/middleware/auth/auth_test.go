package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"syncvault/pkg/domain"
	"syncvault/pkg/requestcontext"
)

type stubValidator map[string]domain.Identity

func (s stubValidator) ValidateToken(token string) (*JWTClaims, error) {
	id, ok := s[token]
	if !ok {
		return nil, errors.New("bad token")
	}
	return &JWTClaims{Caller: id, JTI: "jti-" + token}, nil
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var caller domain.Identity
	h := RequireAuth(stubValidator{"good": "alice"}, logger)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller = requestcontext.Caller(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCaller domain.Identity
	}{
		{name: "valid bearer token", header: "Bearer good", wantStatus: http.StatusNoContent, wantCaller: "alice"},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", wantStatus: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller = ""
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCaller, caller)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"unauthorized","error_description":"`+descriptionFor(tt.header)+`"}`, w.Body.String())
			}
		})
	}
}

func descriptionFor(header string) string {
	if header == "Bearer nope" {
		return "Invalid or expired token"
	}
	return "Missing or invalid Authorization header"
}
