package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/splitsmart/splitsmart/internal/auth"
	"github.com/splitsmart/splitsmart/internal/models"
	"github.com/splitsmart/splitsmart/internal/storage"
	"github.com/splitsmart/splitsmart/internal/storage/sqlite"
)

type testEnv struct {
	e     *echo.Echo
	store storage.Store
	jwt   *auth.JWTManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager([]byte("test-secret-0123456789abcdef0123"), time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)

	e := echo.New()
	e.Validator = NewValidator()
	RegisterRoutes(e, store, authenticator, jwtManager)

	return &testEnv{e: e, store: store, jwt: jwtManager}
}

// createUser registers a user directly through the store and returns it with
// a valid session token.
func (env *testEnv) createUser(t *testing.T, username string) (*models.User, string) {
	t.Helper()

	user := models.NewUser(username, username+"@example.com", "unused-hash")
	require.NoError(t, env.store.CreateUser(context.Background(), user))

	token, err := env.jwt.Generate(user)
	require.NoError(t, err)
	return user, token
}

// befriend links two users directly through the store.
func (env *testEnv) befriend(t *testing.T, a, b *models.User) {
	t.Helper()
	require.NoError(t, env.store.CreateFriendship(context.Background(), a.ID, b.ID))
}

// request performs an HTTP request against the wired echo instance.
func (env *testEnv) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
