package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRequireAuth_ValidToken(t *testing.T) {
	svc, _ := newTestService()
	user, token, err := svc.Register(context.Background(), "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	mw := NewMiddleware(svc, zap.NewNop())
	var called bool
	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
		id, ok := GetUserID(r.Context())
		require.True(t, ok)
		assert.Equal(t, user.ID, id)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/datasets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	svc, _ := newTestService()
	mw := NewMiddleware(svc, zap.NewNop())
	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/datasets", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized")
}

func TestRequireAuth_MalformedHeader(t *testing.T) {
	svc, _ := newTestService()
	mw := NewMiddleware(svc, zap.NewNop())
	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})

	for _, header := range []string{"Bearer", "Bearer ", "Basic abc123", "token"} {
		req := httptest.NewRequest(http.MethodGet, "/api/datasets", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestRequireAuth_BadToken(t *testing.T) {
	svc, _ := newTestService()
	mw := NewMiddleware(svc, zap.NewNop())
	handler := mw.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/datasets", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
