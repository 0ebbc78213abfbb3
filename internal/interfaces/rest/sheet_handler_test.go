package rest_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetlens/sheetlens/internal/application/services"
	"github.com/sheetlens/sheetlens/internal/infrastructure/persistence"
	"github.com/sheetlens/sheetlens/internal/infrastructure/transport"
	"github.com/sheetlens/sheetlens/internal/interfaces/rest"
)

const gvizBody = `google.visualization.Query.setResponse({"status":"ok","table":{
  "cols":[{"id":"A","label":"System","type":"string"},{"id":"B","label":"Milestone","type":"string"}],
  "rows":[{"c":[{"v":"Billing"},{"v":"Q3"}]},{"c":[{"v":"CRM"},{"v":"Q4"}]}]}});`

func newRouter(t *testing.T, sheets http.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(sheets)
	t.Cleanup(srv.Close)

	store, err := persistence.NewStateRepository(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	client := transport.NewClientWithBaseURLs(srv.URL, srv.URL)
	svcMgr := services.NewServiceManager(client, store)
	handler := rest.NewSheetHandler(svcMgr)

	router := gin.New()
	api := router.Group("/api")
	sheetsGroup := api.Group("/sheets")
	sheetsGroup.POST("/load", handler.Load)
	sheetsGroup.GET("/current", handler.Current)
	sheetsGroup.POST("/reset", handler.Reset)
	sheetsGroup.GET("/last-url", handler.LastURL)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), "body: %s", w.Body.String())
	return w, decoded
}

func serveGviz(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.URL.Path, "/gviz/tq") {
		fmt.Fprint(w, gvizBody)
		return
	}
	http.NotFound(w, r)
}

func TestSheetHandler_LoadAndView(t *testing.T) {
	router := newRouter(t, serveGviz)

	w, body := doJSON(t, router, http.MethodPost, "/api/sheets/load",
		`{"url":"https://docs.google.com/spreadsheets/d/ABC123XYZ/edit"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/ABC123XYZ/edit", body["url"])
	require.NotNil(t, body["table"])

	// Unfiltered view
	w, body = doJSON(t, router, http.MethodGet, "/api/sheets/current", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["rows"], 2)
	assert.EqualValues(t, 2, body["total_rows"])

	// Facet filter
	w, body = doJSON(t, router, http.MethodGet, "/api/sheets/current?milestone=Q4", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["rows"], 1)

	// Search
	w, body = doJSON(t, router, http.MethodGet, "/api/sheets/current?q=bill", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["rows"], 1)

	// Persisted last URL
	w, body = doJSON(t, router, http.MethodGet, "/api/sheets/last-url", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/ABC123XYZ/edit", body["url"])
}

func TestSheetHandler_LoadRejectsBadLinks(t *testing.T) {
	router := newRouter(t, serveGviz)

	w, body := doJSON(t, router, http.MethodPost, "/api/sheets/load", `{"url":"https://example.com/not-a-sheet"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_LINK", body["code"])
	assert.Equal(t, true, body["is_error"])
	assert.NotEmpty(t, body["message"])

	w, body = doJSON(t, router, http.MethodPost, "/api/sheets/load", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_LINK", body["code"])
}

func TestSheetHandler_UnavailableSheetClearsView(t *testing.T) {
	router := newRouter(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	w, body := doJSON(t, router, http.MethodPost, "/api/sheets/load",
		`{"url":"https://docs.google.com/spreadsheets/d/ABC123XYZ/edit"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "SHEET_UNAVAILABLE", body["code"])
	assert.Contains(t, body["message"], "publicly viewable")

	// No stale table after the failure
	w, body = doJSON(t, router, http.MethodGet, "/api/sheets/current", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["rows"], 0)
	assert.Len(t, body["columns"], 0)
}

func TestSheetHandler_Reset(t *testing.T) {
	router := newRouter(t, serveGviz)

	w, _ := doJSON(t, router, http.MethodPost, "/api/sheets/load",
		`{"url":"https://docs.google.com/spreadsheets/d/ABC123XYZ/edit"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, router, http.MethodPost, "/api/sheets/reset", "")
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, router, http.MethodGet, "/api/sheets/current", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["columns"], 0)

	w, body = doJSON(t, router, http.MethodGet, "/api/sheets/last-url", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", body["url"])
}
