package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskapp/internal/auth"
	"taskapp/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Count   *int            `json:"count"`
}

type client struct {
	t      *testing.T
	r      *gin.Engine
	cookie *http.Cookie
}

func (c *client) do(method, path, body string) (int, result) {
	c.t.Helper()
	var rd *bytes.Reader
	if body == "" {
		rd = bytes.NewReader(nil)
	} else {
		rd = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == auth.SessionCookieName {
			if ck.MaxAge < 0 {
				continue
			}
			c.cookie = ck
		}
	}
	var res result
	if w.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	}
	return w.Code, res
}

func newTestApp(t *testing.T, env map[string]string) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("STORAGE_DRIVER", "memory")
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestHealthAndVersion(t *testing.T) {
	a := newTestApp(t, map[string]string{"VERSION": "1.2.3"})

	w := httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	a.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.JSONEq(t, `{"version":"1.2.3"}`, w.Body.String())
}

func TestTaskAPI(t *testing.T) {
	a := newTestApp(t, nil)
	alice := &client{t: t, r: a.Router()}

	code, _ := alice.do(http.MethodGet, "/api/v1/tasks", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, res := alice.do(http.MethodPost, "/api/v1/auth/register", `{"username":"alice","fullName":"Alice"}`)
	require.Equal(t, http.StatusCreated, code, res.Error)
	code, res = alice.do(http.MethodPost, "/api/v1/auth/register", `{"username":"ALICE"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Username already taken", res.Error)

	code, res = alice.do(http.MethodPost, "/api/v1/auth/login", `{"username":"  "}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Username is required", res.Error)
	code, _ = alice.do(http.MethodPost, "/api/v1/auth/login", `{"username":"nobody"}`)
	assert.Equal(t, http.StatusNotFound, code)
	require.Nil(t, alice.cookie)

	code, res = alice.do(http.MethodPost, "/api/v1/auth/login", `{"username":"alice"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Welcome, Alice!", res.Message)
	require.NotNil(t, alice.cookie)

	code, res = alice.do(http.MethodGet, "/api/v1/auth/me", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(res.Data), `"username":"alice"`)

	code, res = alice.do(http.MethodPost, "/api/v1/tasks", `{"title":"Write report","priority":"high","dueAt":"2999-01-01"}`)
	require.Equal(t, http.StatusCreated, code, res.Error)
	var task struct {
		ID    int64   `json:"id"`
		DueAt *string `json:"dueAt"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &task))
	require.NotNil(t, task.DueAt)

	code, _ = alice.do(http.MethodPost, "/api/v1/tasks", `{"title":"x","dueAt":"2000-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = alice.do(http.MethodPost, "/api/v1/tasks", `{"title":"x","priority":"urgent"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, res = alice.do(http.MethodGet, "/api/v1/tasks", "")
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, res.Count)
	assert.Equal(t, 1, *res.Count)

	code, res = alice.do(http.MethodPatch, "/api/v1/tasks/1", `{"dueAt":null}`)
	require.Equal(t, http.StatusOK, code, res.Error)
	require.NoError(t, json.Unmarshal(res.Data, &task))
	assert.Nil(t, task.DueAt)

	code, res = alice.do(http.MethodPost, "/api/v1/tasks/1/toggle", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Task completed", res.Message)

	code, res = alice.do(http.MethodGet, "/api/v1/tasks/stats", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"total":1,"completed":1,"pending":0,"overdue":0}`, string(res.Data))

	code, res = alice.do(http.MethodGet, "/api/v1/tasks/search?q=REPORT", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, *res.Count)

	code, res = alice.do(http.MethodGet, "/api/v1/tasks/overdue", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, *res.Count)

	code, _ = alice.do(http.MethodGet, "/api/v1/tasks/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = alice.do(http.MethodGet, "/api/v1/tasks/99", "")
	assert.Equal(t, http.StatusNotFound, code)

	bob := &client{t: t, r: a.Router()}
	code, _ = bob.do(http.MethodPost, "/api/v1/auth/register", `{"username":"bob"}`)
	require.Equal(t, http.StatusCreated, code)
	code, _ = bob.do(http.MethodPost, "/api/v1/auth/login", `{"username":"bob"}`)
	require.Equal(t, http.StatusOK, code)
	code, _ = bob.do(http.MethodGet, "/api/v1/tasks/1", "")
	assert.Equal(t, http.StatusNotFound, code, "tasks are scoped to their owner")
	code, _ = bob.do(http.MethodDelete, "/api/v1/tasks/1", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = alice.do(http.MethodDelete, "/api/v1/tasks/1", "")
	assert.Equal(t, http.StatusOK, code)

	old := alice.cookie
	code, res = alice.do(http.MethodPost, "/api/v1/auth/logout", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Logged out", res.Message)
	alice.cookie = old
	code, _ = alice.do(http.MethodGet, "/api/v1/tasks", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAuthRateLimit(t *testing.T) {
	a := newTestApp(t, map[string]string{"AUTH_RATE_LIMIT": "0.001", "AUTH_RATE_BURST": "1"})
	c := &client{t: t, r: a.Router()}

	code, _ := c.do(http.MethodPost, "/api/v1/auth/login", `{"username":"demo"}`)
	assert.Equal(t, http.StatusNotFound, code)
	code, res := c.do(http.MethodPost, "/api/v1/auth/login", `{"username":"demo"}`)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "too many requests", res.Error)
}
