package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	c := ClaimsFromContext(r.Context())
	if c != nil {
		w.Header().Set("X-Subject", c.Subject)
	}
	w.WriteHeader(http.StatusNoContent)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"", "", false},
		{"Basic abc", "", false},
		{"Bearerabc", "", false},
		{"Bearer  ", "", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		got, err := extractBearerToken(req)
		if tt.ok {
			require.NoError(t, err, tt.header)
			assert.Equal(t, tt.want, got)
		} else {
			assert.Error(t, err, tt.header)
		}
	}
}

func TestOpenMiddlewareAttachesAnonymous(t *testing.T) {
	m := NewMiddleware(nil, nil)
	assert.True(t, m.Open())

	rec := httptest.NewRecorder()
	m.Protect(okHandler, ScopeControl)(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "anonymous", rec.Header().Get("X-Subject"))
}

func TestProtectEnforcesScopes(t *testing.T) {
	v, err := NewVerifier(VerifierConfig{Secret: "shared"})
	require.NoError(t, err)
	m := NewMiddleware(v, nil)

	viewer, err := v.Sign(Claims{Subject: "v", Roles: []string{RoleViewer}, Scopes: []string{ScopeRead, ScopeTelemetry}}, time.Hour, time.Now())
	require.NoError(t, err)
	controller, err := v.Sign(Claims{Subject: "c", Roles: []string{RoleController}, Scopes: []string{ScopeRead, ScopeControl}}, time.Hour, time.Now())
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		scope  string
		want   int
	}{
		{"no token", "", ScopeRead, http.StatusUnauthorized},
		{"garbage token", "Bearer nope", ScopeRead, http.StatusUnauthorized},
		{"viewer reads", "Bearer " + viewer, ScopeRead, http.StatusNoContent},
		{"viewer controls", "Bearer " + viewer, ScopeControl, http.StatusForbidden},
		{"controller controls", "Bearer " + controller, ScopeControl, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			m.Protect(okHandler, tt.scope)(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want >= 400 {
				assert.Contains(t, rec.Body.String(), `"result":"error"`)
			}
		})
	}
}

func TestRequireScopeWithoutClaims(t *testing.T) {
	m := NewMiddleware(nil, nil)
	rec := httptest.NewRecorder()
	m.RequireScope(ScopeRead)(okHandler)(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
