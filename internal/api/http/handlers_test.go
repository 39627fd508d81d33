package http

import (
	"bytes"
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressview/pressview/internal/auth"
	"github.com/pressview/pressview/internal/infrastructure/config"
	"github.com/pressview/pressview/internal/infrastructure/logging"
	"github.com/pressview/pressview/internal/match"
	"github.com/pressview/pressview/internal/proxy"
	"github.com/pressview/pressview/internal/wordpress"
)

// testRouter wires the handlers against a dead upstream: WordPress calls
// fail fast with 404, which exercises the degradation paths.
func testRouter(t *testing.T) (*gin.Engine, *Handlers) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	deadUpstream := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		stdhttp.NotFound(w, r)
	}))
	t.Cleanup(deadUpstream.Close)

	cfg := config.Default()
	logger := logging.NewNop()
	wpClient := wordpress.New(deadUpstream.URL, logger)
	events := proxy.NewLog()
	rewriter := proxy.NewRewriter(cfg.Proxy, logger)

	h := NewHandlers(Deps{
		Config:    cfg,
		Logger:    logger,
		Registry:  proxy.NewRegistry(),
		Events:    events,
		Forwarder: proxy.NewForwarder(cfg.Proxy, rewriter, logger),
		Enricher:  proxy.NewEnricher(events, nil, logger),
		Matcher:   match.New(logger),
		WordPress: wpClient,
		Sessions:  auth.NewStore(),
	})

	router := gin.New()
	router.GET("/proxy/simple", h.SimpleProxy)
	router.POST("/proxy/create", h.CreateProxy)
	router.GET("/proxy/info/:id", h.ProxyInfo)
	router.GET("/proxy/active", h.ActiveProxies)
	router.GET("/proxy/iframe", h.Iframe)
	router.POST("/proxy/track", h.Track)
	router.GET("/proxy/track-events", h.TrackEvents)
	router.GET("/proxy/selected-content", h.SelectedContent)
	router.POST("/proxy/fetch-post-data", h.FetchPostData)
	router.POST("/proxy/match", h.MatchContent)
	router.GET("/wordpress/search", h.WordPressSearch)
	router.GET("/wordpress/posts", h.WordPressPosts)
	router.POST("/wordpress/update-post", h.WordPressUpdatePost)
	return router, h
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSimpleProxyMissingURL(t *testing.T) {
	router, _ := testRouter(t)
	rec := doJSON(router, stdhttp.MethodGet, "/proxy/simple", nil)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Missing URL parameter")
}

func TestCreateProxyRoundTrip(t *testing.T) {
	router, h := testRouter(t)

	rec := doJSON(router, stdhttp.MethodPost, "/proxy/create", gin.H{"targetUrl": "https://demo.wordpress.com"})
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	var resp struct {
		Success  bool   `json:"success"`
		ProxyID  string `json:"proxyId"`
		ProxyURL string `json:"proxyUrl"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, proxy.TargetID("https://demo.wordpress.com"), resp.ProxyID)
	assert.Contains(t, resp.ProxyURL, "/proxy/simple?url=")

	// Info resolves the ID created above.
	rec = doJSON(router, stdhttp.MethodGet, "/proxy/info/"+resp.ProxyID, nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://demo.wordpress.com")

	// Registry survives duplicate creates.
	doJSON(router, stdhttp.MethodPost, "/proxy/create", gin.H{"targetUrl": "https://demo.wordpress.com"})
	assert.Len(t, h.registry.List(), 1)
}

func TestCreateProxyMissingTarget(t *testing.T) {
	router, _ := testRouter(t)
	rec := doJSON(router, stdhttp.MethodPost, "/proxy/create", gin.H{})
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Target URL is required")
}

func TestProxyInfoNotFound(t *testing.T) {
	router, _ := testRouter(t)
	rec := doJSON(router, stdhttp.MethodGet, "/proxy/info/nope", nil)
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Proxy not found")
}

func TestActiveProxiesEmpty(t *testing.T) {
	router, _ := testRouter(t)
	rec := doJSON(router, stdhttp.MethodGet, "/proxy/active", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestIframeDocument(t *testing.T) {
	router, _ := testRouter(t)
	rec := doJSON(router, stdhttp.MethodGet, "/proxy/iframe?url=https://example.com", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `sandbox="allow-scripts allow-forms"`)
	assert.Contains(t, rec.Body.String(), "https://example.com")
	assert.Contains(t, rec.Body.String(), "data-pressview-version", "wrapper carries the tracking script")

	rec = doJSON(router, stdhttp.MethodGet, "/proxy/iframe", nil)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
}

func TestIframeDocumentNormalizesTarget(t *testing.T) {
	router, _ := testRouter(t)

	// Schemeless targets get https:// prefixed before rendering.
	rec := doJSON(router, stdhttp.MethodGet, "/proxy/iframe?url=example.com", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `src="https://example.com"`)

	// Malformed targets are rejected before rendering anything.
	rec = doJSON(router, stdhttp.MethodGet, "/proxy/iframe?url=https%3A%2F%2F%25zz", nil)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid URL parameter")
}

func TestTrackStoresEvent(t *testing.T) {
	router, h := testRouter(t)

	rec := doJSON(router, stdhttp.MethodPost, "/proxy/track", gin.H{
		"type": "click", "url": "https://example.com",
	})
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)

	events, _ := h.events.Events()
	require.Len(t, events, 1)
	assert.Empty(t, h.events.Selections(), "plain click is not a selection")
}

func TestTrackSelectionEntersBothBuffers(t *testing.T) {
	router, h := testRouter(t)

	doJSON(router, stdhttp.MethodPost, "/proxy/track", gin.H{
		"type":      "content_selection",
		"postId":    "42",
		"timestamp": 1700000000,
		"url":       "https://demo.wordpress.com/post",
	})

	events, _ := h.events.Events()
	assert.Len(t, events, 1)
	require.Len(t, h.events.Selections(), 1)
	assert.Equal(t, "42", h.events.Selections()[0].PostID())
}

func TestSelectedContentEmptyIsArray(t *testing.T) {
	router, _ := testRouter(t)
	rec := doJSON(router, stdhttp.MethodGet, "/proxy/selected-content", nil)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestTrackEventsReplaysBacklog(t *testing.T) {
	router, h := testRouter(t)
	h.events.Append(proxy.Event{"type": "click", "n": 1})
	h.events.Append(proxy.Event{"type": "scroll", "n": 2})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(stdhttp.MethodGet, "/proxy/track-events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `"type":"click"`)
	assert.Contains(t, body, `"type":"scroll"`)
	assert.Equal(t, 2, bytes.Count(rec.Body.Bytes(), []byte("data: ")))
}

func TestFetchPostDataValidation(t *testing.T) {
	router, _ := testRouter(t)

	rec := doJSON(router, stdhttp.MethodPost, "/proxy/fetch-post-data", gin.H{"postId": "7"})
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Domain is required")

	rec = doJSON(router, stdhttp.MethodPost, "/proxy/fetch-post-data", gin.H{"domain": "demo.wordpress.com"})
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Either postId or slug is required")
}

func TestFetchPostDataNotFound(t *testing.T) {
	router, _ := testRouter(t)
	rec := doJSON(router, stdhttp.MethodPost, "/proxy/fetch-post-data", gin.H{
		"domain": "demo.wordpress.com", "postId": "7",
	})
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Post not found")
}

func TestMatchContentPatternDespiteDeadSite(t *testing.T) {
	router, _ := testRouter(t)

	rec := doJSON(router, stdhttp.MethodPost, "/proxy/match", gin.H{
		"content": "post-482 Hello world",
		"siteUrl": "demo.wordpress.com",
	})
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	var resp struct {
		Matched bool          `json:"matched"`
		Result  *match.Result `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Matched)
	assert.Equal(t, "482", resp.Result.ID)
	assert.Equal(t, match.MethodPattern, resp.Result.Method)
}

func TestMatchContentNoMatch(t *testing.T) {
	router, _ := testRouter(t)

	rec := doJSON(router, stdhttp.MethodPost, "/proxy/match", gin.H{
		"content": "nothing identifiable here",
		"siteUrl": "demo.wordpress.com",
	})
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"matched":false`)
}

func TestMatchContentValidation(t *testing.T) {
	router, _ := testRouter(t)

	rec := doJSON(router, stdhttp.MethodPost, "/proxy/match", gin.H{"siteUrl": "x"})
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)

	rec = doJSON(router, stdhttp.MethodPost, "/proxy/match", gin.H{"content": "x"})
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
}

func TestWordPressEndpointsRequireAuth(t *testing.T) {
	router, _ := testRouter(t)

	rec := doJSON(router, stdhttp.MethodGet, "/wordpress/search?siteUrl=x&searchTerm=y", nil)
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentication required")

	rec = doJSON(router, stdhttp.MethodGet, "/wordpress/posts?siteUrl=x", nil)
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)

	rec = doJSON(router, stdhttp.MethodPost, "/wordpress/update-post", gin.H{"siteUrl": "x"})
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
}

func TestWordPressEndpointsRequireSite(t *testing.T) {
	router, _ := testRouter(t)

	req := httptest.NewRequest(stdhttp.MethodGet, "/wordpress/posts", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Site URL is required")
}

func TestWordPressUpdatePostValidation(t *testing.T) {
	router, _ := testRouter(t)

	var buf bytes.Buffer
	json.NewEncoder(&buf).Encode(gin.H{"siteUrl": "demo.wordpress.com", "postId": 7})
	req := httptest.NewRequest(stdhttp.MethodPost, "/wordpress/update-post", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least one of content or title")
}
