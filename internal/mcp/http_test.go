package mcp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justmcp/justmcp/internal/registry"
)

func newTestHTTPServer(t *testing.T) *HTTPServer {
	t.Helper()
	reg := registry.New()
	s := newTestServer(t, reg, &fakeExecutor{})
	return NewHTTPServer(s, "*", testLogger())
}

func TestHTTPServer_Health(t *testing.T) {
	h := newTestHTTPServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHTTPServer_Post_InitializeCreatesSession(t *testing.T) {
	h := newTestHTTPServer(t)

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test"}}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Mcp-Session-Id"))
}

func TestHTTPServer_Post_NotificationReturnsAccepted(t *testing.T) {
	h := newTestHTTPServer(t)

	body := `{"jsonrpc":"2.0","method":"notifications/initialized"}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHTTPServer_Post_EmptyBodyRejected(t *testing.T) {
	h := newTestHTTPServer(t)
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(""))
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPServer_Delete_UnknownSessionNotFound(t *testing.T) {
	h := newTestHTTPServer(t)
	req := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
	req.Header.Set("Mcp-Session-Id", "does-not-exist")
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPServer_Delete_RemovesSession(t *testing.T) {
	h := newTestHTTPServer(t)

	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","clientInfo":{"name":"test"}}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)
	sessionID := rec.Header().Get("Mcp-Session-Id")
	require.NotEmpty(t, sessionID)

	del := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
	del.Header.Set("Mcp-Session-Id", sessionID)
	delRec := httptest.NewRecorder()
	h.Handler().ServeHTTP(delRec, del)
	assert.Equal(t, http.StatusOK, delRec.Code)
}

func TestHTTPServer_Get_RequiresEventStreamAccept(t *testing.T) {
	h := newTestHTTPServer(t)
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPServer_UnsupportedMethodRejected(t *testing.T) {
	h := newTestHTTPServer(t)
	req := httptest.NewRequest(http.MethodPut, "/mcp", nil)
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHTTPServer_CORS_WildcardAllowsAnyOrigin(t *testing.T) {
	h := newTestHTTPServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()
	h.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
