package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pressplay/gamestore/internal/auth"
	"github.com/pressplay/gamestore/internal/users"
)

type fakeUserSource struct {
	users map[string]users.User
}

func (f *fakeUserSource) BySubject(_ context.Context, subjectID string) (users.User, error) {
	u, ok := f.users[subjectID]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func testIdentity() (*Identity, users.User) {
	u := users.User{
		ID:        primitive.NewObjectID(),
		SubjectID: "fb-uid-1",
		Email:     "ada@example.com",
		Role:      users.RoleCustomer,
	}
	ident := &Identity{Users: &fakeUserSource{users: map[string]users.User{u.SubjectID: u}}}
	return ident, u
}

func TestIdentityAttachesPrincipal(t *testing.T) {
	ident, u := testIdentity()

	var got auth.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.PrincipalFrom(r.Context())
		require.True(t, ok)
		got = p
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(HeaderSubjectID, u.SubjectID)
	req.Header.Set(HeaderEmail, u.Email)
	rec := httptest.NewRecorder()
	ident.Middleware(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, u.ID, got.UserID)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, users.RoleCustomer, got.Role)
}

func TestIdentityMissingHeader(t *testing.T) {
	ident, _ := testIdentity()

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rec := httptest.NewRecorder()
	ident.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run without identity")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "auth/no-identity", body.Code)
}

func TestIdentityUnknownSubject(t *testing.T) {
	ident, _ := testIdentity()

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(HeaderSubjectID, "nobody")
	rec := httptest.NewRecorder()
	ident.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run for unknown subject")
	})).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "user/not-found", body.Code)
}

func TestRequireRole(t *testing.T) {
	gate := RequireRole(users.RoleAdmin)
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	run := func(role users.Role) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
		p := auth.Principal{UserID: primitive.NewObjectID(), Role: role}
		req = req.WithContext(auth.WithPrincipal(req.Context(), p))
		rec := httptest.NewRecorder()
		gate(ok).ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, run(users.RoleAdmin).Code)
	assert.Equal(t, http.StatusForbidden, run(users.RoleCustomer).Code)
	assert.Equal(t, http.StatusForbidden, run(users.RoleRider).Code)

	// no principal at all
	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	rec := httptest.NewRecorder()
	gate(ok).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
