package web

import (
	"context"
	"html/template"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/tasklist/app/web/mocks"
	"github.com/umputun/tasklist/app/web/persistence"
)

func TestNew(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		server, err := New(Config{Store: &mocks.PersistenceMock{}, Version: "v1.0.0"})
		require.NoError(t, err)
		assert.NotNil(t, server.validate)
		assert.NotNil(t, server.formDecoder)
		assert.Contains(t, server.templates, "base.html")
		assert.Contains(t, server.templates, "partials")
	})

	t.Run("store is required", func(t *testing.T) {
		_, err := New(Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Store is required")
	})
}

func TestServer_Routes(t *testing.T) {
	server, store := newTestServer(t)
	_, err := store.Create(t.Context(), "routed task")
	require.NoError(t, err)

	ts := httptest.NewServer(server.handler())
	defer ts.Close()

	get := func(t *testing.T, path string) (*http.Response, string) {
		t.Helper()
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp, string(body)
	}

	t.Run("ping", func(t *testing.T) {
		resp, body := get(t, "/ping")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "pong", body)
		assert.Equal(t, "tasklist", resp.Header.Get("App-Name"))
	})

	t.Run("index", func(t *testing.T) {
		resp, body := get(t, "/")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "routed task")
	})

	t.Run("api is not cached", func(t *testing.T) {
		resp, _ := get(t, "/api/tasks")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Cache-Control"), "no-cache")
	})

	t.Run("static files", func(t *testing.T) {
		resp, body := get(t, "/static/app.js")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "htmx:responseError")

		resp, _ = get(t, "/static/style.css")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unknown path", func(t *testing.T) {
		resp, _ := get(t, "/unknown")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("cross-origin write rejected", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/tasks", strings.NewReader(`{"text":"evil"}`))
		require.NoError(t, err)
		req.Header.Set("Sec-Fetch-Site", "cross-site")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		tasks, err := store.List(t.Context(), persistence.Filter{Search: "evil"})
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("oversized body rejected", func(t *testing.T) {
		big := `{"text":"` + strings.Repeat("x", 100*1024) + `"}`
		resp, err := http.Post(ts.URL+"/api/tasks", "application/json", strings.NewReader(big))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	})
}

func TestServer_BaseURL(t *testing.T) {
	store, err := persistence.NewSQLStore(t.Context(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	server, err := New(Config{Store: store, BaseURL: "/tasks"})
	require.NoError(t, err)

	ts := httptest.NewServer(server.handler())
	defer ts.Close()

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }}

	resp, err := client.Get(ts.URL + "/tasks")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, "/tasks/", resp.Header.Get("Location"))

	resp, err = client.Get(ts.URL + "/tasks/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `href="/tasks/static/style.css"`)
	assert.Contains(t, string(body), `hx-post="/tasks/web/tasks"`)

	resp, err = client.Get(ts.URL + "/tasks/api/tasks")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(ts.URL + "/api/tasks")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "routes should live under base url only")
}

func TestServer_WriteLimiter(t *testing.T) {
	store, err := persistence.NewSQLStore(t.Context(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()

	server, err := New(Config{Store: store, WriteRate: 1})
	require.NoError(t, err)
	handler := server.routes()

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{"text":"limited"}`))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, http.StatusCreated, codes[0])
	assert.Contains(t, codes, http.StatusTooManyRequests)

	// reads are not limited
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", http.NoBody)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestServer_render_ErrorHandling(t *testing.T) {
	server, _ := newTestServer(t)

	t.Run("template not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		server.render(rec, "nonexistent.html", "test", nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "Template not found")
	})

	t.Run("template execution error", func(t *testing.T) {
		server.templates["error.html"] = template.Must(template.New("error").Parse(`{{.NonExistentField}}`))
		rec := httptest.NewRecorder()
		server.render(rec, "error.html", "error", struct{}{})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "Template error")
	})

	t.Run("unknown partial", func(t *testing.T) {
		rec := httptest.NewRecorder()
		server.renderPartials(rec, TemplateData{}, "tasks-list", "no-such-partial")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "tasks-list", "partial output should not leak on failure")
	})
}

func TestTemplateHelpers(t *testing.T) {
	server := &Server{baseURL: "/base"}

	t.Run("humanTime", func(t *testing.T) {
		assert.Equal(t, "Never", server.humanTime(time.Time{}))
		assert.Equal(t, "Jan 15, 14:30", server.humanTime(time.Date(2024, 1, 15, 14, 30, 45, 0, time.Local)))
	})

	t.Run("url and cookie path", func(t *testing.T) {
		assert.Equal(t, "/base/web/tasks", server.url("/web/tasks"))
		assert.Equal(t, "/base/", server.cookiePath())

		root := &Server{}
		assert.Equal(t, "/web/tasks", root.url("/web/tasks"))
		assert.Equal(t, "/", root.cookiePath())
	})

	t.Run("shortVersion", func(t *testing.T) {
		tests := []struct{ in, want string }{
			{"", ""},
			{"unknown", "unknown"},
			{"v1.2.0", "v1.2.0"},
			{"v1.2.0-abc1234-20250101", "v1.2.0"},
			{"master-abc1234", "master"},
		}
		for _, tt := range tests {
			assert.Equal(t, tt.want, shortVersion(tt.in), "input %q", tt.in)
		}
	})
}

func TestServer_Run(t *testing.T) {
	server, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error)
	go func() {
		done <- server.Run(ctx, "127.0.0.1:0")
	}()

	// give server time to start
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "graceful shutdown is not an error")
	case <-time.After(6 * time.Second):
		t.Fatal("server did not stop in time")
	}
}
