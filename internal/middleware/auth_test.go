package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendtune/internal/session"
)

type staticResolver struct {
	token string
	sess  session.Session
}

func (r staticResolver) Resolve(token string) (session.Session, bool) {
	if token == r.token {
		return r.sess, true
	}
	return session.Session{}, false
}

func TestAuthMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	resolver := staticResolver{
		token: "good-token",
		sess:  session.Session{Token: "good-token", BusinessID: "biz-1"},
	}

	var gotSession session.Session
	var gotOK bool
	handler := Auth(logger, resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSession, gotOK = session.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid bearer token", header: "Bearer good-token", wantStatus: http.StatusOK},
		{name: "lowercase scheme accepted", header: "bearer good-token", wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good-token", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer bad-token", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSession, gotOK = session.Session{}, false

			req := httptest.NewRequest(http.MethodGet, "/api/services", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				require.True(t, gotOK)
				assert.Equal(t, "biz-1", gotSession.BusinessID)
			} else {
				assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
				assert.False(t, gotOK)
			}
		})
	}
}
