package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/annel0/mmo-game/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserRepo is a minimal auth.UserRepository double so these tests
// never touch auth.MemoryUserRepo's bcrypt cost directly.
type fakeUserRepo struct {
	byUsername map[string]*auth.User
	byID       map[uint64]*auth.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byUsername: map[string]*auth.User{}, byID: map[uint64]*auth.User{}}
}

func (f *fakeUserRepo) GetUserByUsername(username string) (*auth.User, error) {
	u, ok := f.byUsername[username]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetUserByID(id uint64) (*auth.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) CreateUser(username string, passwordHash string, isAdmin bool) (*auth.User, error) {
	if _, exists := f.byUsername[username]; exists {
		return nil, auth.ErrUserExists
	}
	u := &auth.User{ID: uint64(len(f.byID) + 1), Username: username, PasswordHash: passwordHash, IsAdmin: isAdmin, CreatedAt: time.Unix(0, 0)}
	f.byUsername[username] = u
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUserRepo) ValidateCredentials(username, password string) (*auth.User, error) {
	u, ok := f.byUsername[username]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, auth.ErrUserNotFound
	}
	return u, nil
}

// newTestServer builds a RestServer's routes directly rather than through
// NewRestServer: NewRestServer registers Prometheus collectors on the
// global default registry via middleware.NewPrometheusMiddleware, which
// panics on a second registration in the same process — fine for a
// single production instance, fatal for a test binary that needs a fresh
// server per test case. setupRoutes alone exercises every handler this
// file tests.
func newTestServer(t *testing.T) (*RestServer, *fakeUserRepo) {
	t.Helper()
	repo := newFakeUserRepo()
	hash, err := auth.HashPassword("s3cret!!")
	require.NoError(t, err)
	_, err = repo.CreateUser("operator", hash, true)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	rs := &RestServer{
		router:  gin.New(),
		users:   repo,
		port:    ":0",
		metrics: NewServerMetrics(),
	}
	rs.setupRoutes()
	return rs, repo
}

func doJSON(rs *RestServer, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	rs.router.ServeHTTP(rec, req)
	return rec
}

func TestHandleLoginSucceedsWithValidCredentials(t *testing.T) {
	rs, _ := newTestServer(t)

	rec := doJSON(rs, http.MethodPost, "/api/auth/login", LoginRequest{Username: "operator", Password: "s3cret!!"}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.IsAdmin)
}

func TestHandleLoginRejectsBadPassword(t *testing.T) {
	rs, _ := newTestServer(t)

	rec := doJSON(rs, http.MethodPost, "/api/auth/login", LoginRequest{Username: "operator", Password: "wrong"}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRouteRejectsMissingToken(t *testing.T) {
	rs, _ := newTestServer(t)

	rec := doJSON(rs, http.MethodGet, "/api/stats", nil, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRouteRejectsNonAdminToken(t *testing.T) {
	rs, repo := newTestServer(t)
	hash, err := auth.HashPassword("playerpass")
	require.NoError(t, err)
	_, err = repo.CreateUser("player1", hash, false)
	require.NoError(t, err)

	loginRec := doJSON(rs, http.MethodPost, "/api/auth/login", LoginRequest{Username: "player1", Password: "playerpass"}, nil)
	require.Equal(t, http.StatusOK, loginRec.Code)
	var login LoginResponse
	require.NoError(t, json.Unmarshal(loginRec.Body.Bytes(), &login))

	rec := doJSON(rs, http.MethodPost, "/api/admin/register",
		RegisterRequest{Username: "newuser", Password: "abcdef"},
		map[string]string{"Authorization": "Bearer " + login.Token})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminRegisterCreatesUserWithAdminToken(t *testing.T) {
	rs, _ := newTestServer(t)

	loginRec := doJSON(rs, http.MethodPost, "/api/auth/login", LoginRequest{Username: "operator", Password: "s3cret!!"}, nil)
	require.Equal(t, http.StatusOK, loginRec.Code)
	var login LoginResponse
	require.NoError(t, json.Unmarshal(loginRec.Body.Bytes(), &login))

	rec := doJSON(rs, http.MethodPost, "/api/admin/register",
		RegisterRequest{Username: "newplayer", Password: "abcdef"},
		map[string]string{"Authorization": "Bearer " + login.Token})

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestHealthEndpointNeedsNoAuth(t *testing.T) {
	rs, _ := newTestServer(t)

	rec := doJSON(rs, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}
