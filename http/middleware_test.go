package http_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sagarc03/storefront"
	storefronthttp "github.com/sagarc03/storefront/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// SpyAuthenticator is a mock implementation of http.Authenticator
type SpyAuthenticator struct {
	mock.Mock
}

func (s *SpyAuthenticator) Authenticate(ctx context.Context, token string) (storefront.Admin, error) {
	args := s.Called(ctx, token)
	return args.Get(0).(storefront.Admin), args.Error(1)
}

func (s *SpyAuthenticator) Forget(id uuid.UUID) {
	s.Called(id)
}

func adminEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, ok := storefronthttp.AdminFromContext(r.Context())
		assert.True(t, ok)
		_ = storefronthttp.WriteJSON(w, http.StatusOK, admin)
	})
}

func TestAuthMiddleware(t *testing.T) {
	admin := storefront.Admin{ID: uuid.New(), Email: "ada@example.com", IsActive: true}

	t.Run("missing header", func(t *testing.T) {
		auth := new(SpyAuthenticator)
		rec := httptest.NewRecorder()

		storefronthttp.AuthMiddleware(auth)(adminEcho(t)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		auth.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		auth := new(SpyAuthenticator)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()

		storefronthttp.AuthMiddleware(auth)(adminEcho(t)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		auth := new(SpyAuthenticator)
		auth.On("Authenticate", mock.Anything, "good-token").Return(admin, nil)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer good-token")
		rec := httptest.NewRecorder()

		storefronthttp.AuthMiddleware(auth)(adminEcho(t)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), admin.ID.String())
		auth.AssertExpectations(t)
	})

	t.Run("deactivated admin", func(t *testing.T) {
		auth := new(SpyAuthenticator)
		auth.On("Authenticate", mock.Anything, "stale").Return(storefront.Admin{}, storefront.ErrInactive)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer stale")
		rec := httptest.NewRecorder()

		storefronthttp.AuthMiddleware(auth)(adminEcho(t)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "account_inactive")
	})
}

func TestAdminFromContext_Empty(t *testing.T) {
	_, ok := storefronthttp.AdminFromContext(context.Background())
	assert.False(t, ok)
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"success logs info", http.StatusOK, "level=INFO"},
		{"client error logs warn", http.StatusNotFound, "level=WARN"},
		{"server error logs error", http.StatusBadGateway, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("body"))
			})

			rec := httptest.NewRecorder()
			storefronthttp.RequestLogger(logger)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

			out := buf.String()
			assert.Contains(t, out, tt.wantLevel)
			assert.Contains(t, out, "path=/products")
			assert.Contains(t, out, "bytes=4")
		})
	}
}
