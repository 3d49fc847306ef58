package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dkeye/Chat/internal/app"
	"github.com/dkeye/Chat/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *app.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<html>chat</html>"), 0o600))

	cfg := &config.Config{
		Mode:         "test",
		StaticPath:   static,
		SocketPath:   "/api/socket",
		ReadLimit:    4096,
		SendBuffer:   8,
		PingPeriod:   time.Second,
		PongWait:     2 * time.Second,
		WriteWait:    time.Second,
		ShutdownWait: time.Second,
		Secret:       "test-secret",
	}

	ctx, cancel := context.WithCancel(context.Background())
	hubs := app.NewHubManager(ctx)
	orch := &app.Orchestrator{Hubs: hubs, Policy: app.DropPolicy{}}
	t.Cleanup(func() {
		_ = hubs.Shutdown(time.Second)
		cancel()
	})
	return SetupRouter(ctx, cfg, orch), orch
}

func TestSocketBootstrapIsIdempotent(t *testing.T) {
	r, orch := setupTestRouter(t)

	_, ok := orch.Hubs.Current()
	require.False(t, ok)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/socket", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	first, ok := orch.Hubs.Current()
	require.True(t, ok)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/socket", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	second, _ := orch.Hubs.Current()
	assert.Same(t, first, second)
}

func TestHealth(t *testing.T) {
	r, orch := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Zero(t, body.Sessions)

	// Health never bootstraps the hub.
	_, ok := orch.Hubs.Current()
	assert.False(t, ok)
}

func TestIndexServedWithClientCookie(t *testing.T) {
	r, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "chat")

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "ChatSessions" {
			found = true
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, found, "session cookie not set")
}

func TestClientTokenStableAcrossRequests(t *testing.T) {
	r, _ := setupTestRouter(t)
	var seen []string
	r.GET("/whoami", func(c *gin.Context) {
		seen = append(seen, c.GetString("client_token"))
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Len(t, seen, 2)
	assert.NotEmpty(t, seen[0])
	assert.Equal(t, seen[0], seen[1])
}
