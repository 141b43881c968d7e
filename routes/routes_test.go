package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formwise/formwise/app"
	"github.com/formwise/formwise/config"
	"github.com/formwise/formwise/database"
)

// newTestApp opens a throwaway sqlite database with migrations applied and
// deliberately small ceilings so limit paths are cheap to reach.
func newTestApp(t *testing.T) app.App {
	t.Helper()

	cfg := config.Config{
		DBPath:       filepath.Join(t.TempDir(), "test.db"),
		TokenSecret:  "test-secret",
		TokenTTL:     time.Hour,
		MaxForms:     3,
		MaxFields:    5,
		MaxResponses: 3,
		RateLimit:    1000,
		RateWindow:   time.Minute,
	}

	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return app.App{
		DB:     db,
		JWT:    jwtauth.New("HS256", []byte(cfg.TokenSecret), nil),
		Config: cfg,
	}
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	r := httptest.NewRequest(method, path, reader)
	r.RemoteAddr = "127.0.0.1:9999"
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

// registerUser creates an account and returns a usable bearer token.
func registerUser(t *testing.T, h http.Handler, email string) string {
	t.Helper()

	w := doRequest(t, h, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":      email,
		"password":   "secret123",
		"first_name": "Jane",
		"last_name":  "Doe",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doRequest(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	token, ok := decodeBody(t, w)["access_token"].(string)
	require.True(t, ok)
	return token
}

func TestPing(t *testing.T) {
	h := Wire(newTestApp(t))

	w := doRequest(t, h, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", decodeBody(t, w)["detail"])
}

func TestGetAppConfig(t *testing.T) {
	h := Wire(newTestApp(t))

	w := doRequest(t, h, http.MethodGet, "/api/v1/config", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, 3.0, body["max_forms"])
	assert.Equal(t, 5.0, body["max_fields"])
	assert.Equal(t, 3.0, body["max_responses"])
}
