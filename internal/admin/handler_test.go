package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"log/slog"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"dronewatch/internal/auth"
)

type fakeUserStore struct {
	users       map[int64]*auth.User
	deactivated []int64
	createErr   error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[int64]*auth.User{}}
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (f *fakeUserStore) GetByUsername(ctx context.Context, username string) (*auth.User, error) {
	return nil, auth.ErrNotFound
}

func (f *fakeUserStore) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, auth.ErrNotFound
}

func (f *fakeUserStore) Create(ctx context.Context, username, email, hash string, role auth.Role) (*auth.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	id := int64(len(f.users) + 1)
	u := &auth.User{
		ID: id, Username: username, Email: email, PasswordHash: hash,
		Role: role, IsActive: true, CreatedAt: time.Now().UTC(),
	}
	f.users[id] = u
	return u, nil
}

func (f *fakeUserStore) Deactivate(ctx context.Context, id int64) error {
	u, ok := f.users[id]
	if !ok {
		return auth.ErrNotFound
	}
	u.IsActive = false
	f.deactivated = append(f.deactivated, id)
	return nil
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return errors.New("not implemented")
}

func (f *fakeUserStore) UpdateProfile(ctx context.Context, id int64, username, email string) (*auth.User, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeUserStore) List(ctx context.Context, limit, offset int) ([]auth.User, error) {
	var out []auth.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserStore) CountAll(ctx context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

func (f *fakeUserStore) CountActive(ctx context.Context) (int64, error) {
	var n int64
	for _, u := range f.users {
		if u.IsActive {
			n++
		}
	}
	return n, nil
}

var _ auth.Store = (*fakeUserStore)(nil)

type fakeCounter struct {
	reports    int64
	violations int64
}

func (f *fakeCounter) CountReports(ctx context.Context) (int64, error)    { return f.reports, nil }
func (f *fakeCounter) CountViolations(ctx context.Context) (int64, error) { return f.violations, nil }

func setupAdmin(t *testing.T) (http.Handler, *fakeUserStore) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := newFakeUserStore()
	issuer := auth.NewIssuer("this-is-a-test-secret-with-32-bytes!", 15*time.Minute, 168*time.Hour)
	svc := auth.NewService(store, auth.NewRedisRefreshStore(client), issuer, auth.NewHasher(bcrypt.MinCost))

	h := NewHandler(store, svc, &fakeCounter{reports: 3, violations: 12}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Group(func(adm chi.Router) {
		adm.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := auth.WithIdentity(req.Context(), auth.Identity{UserID: 1, Role: auth.RoleAdmin})
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
		h.MountRoutes(adm)
	})
	return r, store
}

func TestAdminCreateUserWithRole(t *testing.T) {
	router, store := setupAdmin(t)

	body, _ := json.Marshal(map[string]string{
		"username": "bob",
		"email":    "bob@x.com",
		"password": "Pass1234",
		"role":     "admin",
	})
	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, store.users, 1)
	for _, u := range store.users {
		assert.Equal(t, auth.RoleAdmin, u.Role)
		assert.NotEqual(t, "Pass1234", u.PasswordHash)
	}
}

func TestAdminCreateUserConflict(t *testing.T) {
	router, store := setupAdmin(t)
	store.createErr = auth.ErrConflict

	body, _ := json.Marshal(map[string]string{
		"username": "bob",
		"email":    "bob@x.com",
		"password": "Pass1234",
	})
	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminCannotDeactivateSelf(t *testing.T) {
	router, store := setupAdmin(t)
	store.users[1] = &auth.User{ID: 1, Username: "root", Role: auth.RoleAdmin, IsActive: true}

	req := httptest.NewRequest(http.MethodDelete, "/users/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.deactivated)
	assert.True(t, store.users[1].IsActive)
}

func TestAdminDeactivateOtherUser(t *testing.T) {
	router, store := setupAdmin(t)
	store.users[2] = &auth.User{ID: 2, Username: "bob", Role: auth.RoleUser, IsActive: true}

	req := httptest.NewRequest(http.MethodDelete, "/users/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{2}, store.deactivated)
	assert.False(t, store.users[2].IsActive)
}

func TestAdminDeactivateMissingUser(t *testing.T) {
	router, _ := setupAdmin(t)

	req := httptest.NewRequest(http.MethodDelete, "/users/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminStats(t *testing.T) {
	router, store := setupAdmin(t)
	store.users[1] = &auth.User{ID: 1, IsActive: true}
	store.users[2] = &auth.User{ID: 2, IsActive: false}

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Stats map[string]int64 `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Stats["total_users"])
	assert.Equal(t, int64(1), resp.Stats["active_users"])
	assert.Equal(t, int64(3), resp.Stats["total_reports"])
	assert.Equal(t, int64(12), resp.Stats["total_violations"])
}
