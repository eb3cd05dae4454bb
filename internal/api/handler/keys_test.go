package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/minyuzhao/rtutor/internal/api/handler"
	"github.com/minyuzhao/rtutor/internal/store"
	"github.com/minyuzhao/rtutor/pkg/models"
)

type stubKeyStore struct {
	created   *models.APIKey
	listed    []*models.APIKey
	revoked   uuid.UUID
	revokeErr error
}

func (s *stubKeyStore) CreateAPIKey(_ context.Context, key *models.APIKey) error {
	s.created = key
	return nil
}

func (s *stubKeyStore) ListAPIKeys(_ context.Context) ([]*models.APIKey, error) {
	return s.listed, nil
}

func (s *stubKeyStore) RevokeAPIKey(_ context.Context, id uuid.UUID) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	s.revoked = id
	return nil
}

func TestCreateKeyHandler(t *testing.T) {
	ks := &stubKeyStore{}
	h := handler.NewCreateKeyHandler(ks)

	req := httptest.NewRequest("POST", "/api/v1/admin/keys",
		strings.NewReader(`{"name": "ci", "scopes": ["read", "admin"]}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	data := decode(t, w)["data"].(map[string]any)
	rawKey := data["key"].(string)
	assert.True(t, strings.HasPrefix(rawKey, "rt_"))
	assert.Equal(t, rawKey[:8], data["key_prefix"])

	require.NotNil(t, ks.created)
	assert.Equal(t, "ci", ks.created.Name)
	assert.Equal(t, []string{"read", "admin"}, ks.created.Scopes)

	// stored hash must verify against the returned raw key
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(ks.created.KeyHash), []byte(rawKey)))
}

func TestCreateKeyHandler_DefaultScope(t *testing.T) {
	ks := &stubKeyStore{}
	h := handler.NewCreateKeyHandler(ks)

	req := httptest.NewRequest("POST", "/api/v1/admin/keys",
		strings.NewReader(`{"name": "reader"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"read"}, ks.created.Scopes)
}

func TestCreateKeyHandler_MissingName(t *testing.T) {
	h := handler.NewCreateKeyHandler(&stubKeyStore{})

	req := httptest.NewRequest("POST", "/api/v1/admin/keys", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListKeysHandler(t *testing.T) {
	ks := &stubKeyStore{listed: []*models.APIKey{
		{ID: uuid.New(), Name: "ci", KeyPrefix: "rt_abc12"},
	}}
	h := handler.NewListKeysHandler(ks)

	req := httptest.NewRequest("GET", "/api/v1/admin/keys", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	keys := data["keys"].([]any)
	require.Len(t, keys, 1)

	key := keys[0].(map[string]any)
	assert.Equal(t, "ci", key["name"])
	// the hash must never appear in a response
	_, leaked := key["key_hash"]
	assert.False(t, leaked)
}

func TestRevokeKeyHandler(t *testing.T) {
	ks := &stubKeyStore{}
	id := uuid.New()

	r := chi.NewRouter()
	r.Delete("/api/v1/admin/keys/{keyID}", handler.NewRevokeKeyHandler(ks))

	req := httptest.NewRequest("DELETE", "/api/v1/admin/keys/"+id.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, ks.revoked)
}

func TestRevokeKeyHandler_NotFound(t *testing.T) {
	ks := &stubKeyStore{revokeErr: store.ErrNotFound}

	r := chi.NewRouter()
	r.Delete("/api/v1/admin/keys/{keyID}", handler.NewRevokeKeyHandler(ks))

	req := httptest.NewRequest("DELETE", "/api/v1/admin/keys/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRevokeKeyHandler_InvalidID(t *testing.T) {
	r := chi.NewRouter()
	r.Delete("/api/v1/admin/keys/{keyID}", handler.NewRevokeKeyHandler(&stubKeyStore{}))

	req := httptest.NewRequest("DELETE", "/api/v1/admin/keys/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
