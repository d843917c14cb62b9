package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/proconnect/backend/src/controllers"
	"github.com/proconnect/backend/src/googleauth"
	"github.com/proconnect/backend/src/lib"
	"github.com/proconnect/backend/src/models"
	"github.com/proconnect/backend/src/routes"
	"github.com/proconnect/backend/src/store"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type fakeVerifier struct {
	identity *googleauth.Identity
	err      error
}

func (f *fakeVerifier) Verify(context.Context, string) (*googleauth.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	id := *f.identity
	return &id, nil
}

type testServer struct {
	app     *fiber.App
	store   store.Store
	uploads *lib.Uploads
	google  *fakeVerifier
}

// failingStore fails the named operations with errStoreDown and delegates
// everything else
type failingStore struct {
	store.Store
	fail map[string]bool
}

var errStoreDown = errors.New("store unavailable")

func (f *failingStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	if f.fail["CreateProfile"] {
		return errStoreDown
	}
	return f.Store.CreateProfile(ctx, profile)
}

func (f *failingStore) SaveUser(ctx context.Context, user *models.User) error {
	if f.fail["SaveUser"] {
		return errStoreDown
	}
	return f.Store.SaveUser(ctx, user)
}

func (f *failingStore) CreatePost(ctx context.Context, post *models.Post) error {
	if f.fail["CreatePost"] {
		return errStoreDown
	}
	return f.Store.CreatePost(ctx, post)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

// newTestServerWith lets wrap replace the store the handlers see
func newTestServerWith(t *testing.T, wrap func(store.Store) store.Store) *testServer {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := store.NewSQLite(filepath.Join(dir, "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close(context.Background()) })

	var s store.Store = sqlite
	if wrap != nil {
		s = wrap(s)
	}

	uploads, err := lib.NewUploads(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	google := &fakeVerifier{identity: &googleauth.Identity{}}
	h := controllers.NewHandler(s, uploads, google, zerolog.Nop(), 5*time.Second)
	app := routes.NewApp(h, s, routes.Options{UploadsDir: uploads.Dir, Log: zerolog.Nop()})

	return &testServer{app: app, store: s, uploads: uploads, google: google}
}

func (ts *testServer) do(t *testing.T, req *http.Request, token string) (int, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if len(body) > 0 {
		require.NoError(t, json.Unmarshal(body, &env), string(body))
	}
	return resp.StatusCode, env
}

func (ts *testServer) json(t *testing.T, method, path, token string, payload any) (int, envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return ts.do(t, req, token)
}

type formFile struct {
	field, name, contentType string
	content                  []byte
}

func (ts *testServer) multipart(t *testing.T, path, token string, fields map[string]string, files ...formFile) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		header := make(map[string][]string)
		header["Content-Disposition"] = []string{`form-data; name="` + f.field + `"; filename="` + f.name + `"`}
		header["Content-Type"] = []string{f.contentType}
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return ts.do(t, req, token)
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), string(env.Data))
	return out
}

type account struct {
	ID       string
	Username string
	Email    string
	Token    string
}

func (ts *testServer) register(t *testing.T, name, username, email, password string) {
	t.Helper()
	status, env := ts.json(t, http.MethodPost, "/register", "", map[string]string{
		"name": name, "username": username, "email": email, "password": password,
	})
	require.Equal(t, fiber.StatusOK, status, env.Message)
	require.True(t, env.Success)
}

func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	status, env := ts.json(t, http.MethodPost, "/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, fiber.StatusOK, status, env.Message)
	token := decode[struct {
		Token string `json:"token"`
	}](t, env).Token
	require.NotEmpty(t, token)
	return token
}

// signUp registers and logs in a user, returning its id and token
func (ts *testServer) signUp(t *testing.T, username string) account {
	t.Helper()
	email := username + "@x.com"
	ts.register(t, username, username, email, "secret1")
	token := ts.login(t, email, "secret1")

	status, env := ts.json(t, http.MethodGet, "/get_user_and_profile", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	profile := decode[struct {
		User struct {
			ID string `json:"_id"`
		} `json:"userId"`
	}](t, env)
	require.NotEmpty(t, profile.User.ID)

	return account{ID: profile.User.ID, Username: username, Email: email, Token: token}
}
