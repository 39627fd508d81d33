package http

import (
	"encoding/json"
	"errors"
	"fmt"
	stdhttp "net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pressview/pressview/internal/proxy"
	"github.com/pressview/pressview/internal/wordpress"
)

// SimpleProxy forwards the target named in the url query parameter and
// serves the rewritten response.
func (h *Handlers) SimpleProxy(c *gin.Context) {
	raw := c.Query("url")
	if raw == "" {
		c.String(stdhttp.StatusBadRequest, "Missing URL parameter")
		return
	}

	target, err := proxy.NormalizeTarget(raw)
	if err != nil {
		c.String(stdhttp.StatusBadRequest, "Invalid URL parameter")
		return
	}

	h.forwarder.Forward(c.Writer, c.Request, target)
}

type createProxyRequest struct {
	TargetURL string `json:"targetUrl"`
}

// CreateProxy registers a proxy target and returns its deterministic ID
// plus the simple-proxy URL for it.
func (h *Handlers) CreateProxy(c *gin.Context) {
	var req createProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TargetURL == "" {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "Target URL is required"})
		return
	}

	target := h.registry.Create(req.TargetURL)
	if h.metrics != nil {
		h.metrics.SetTargetsActive(len(h.registry.List()))
	}

	c.JSON(stdhttp.StatusOK, gin.H{
		"success":  true,
		"proxyId":  target.ID,
		"proxyUrl": "/proxy/simple?url=" + url.QueryEscape(req.TargetURL),
	})
}

// ProxyInfo returns the registry entry for a proxy ID.
func (h *Handlers) ProxyInfo(c *gin.Context) {
	target, ok := h.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(stdhttp.StatusNotFound, gin.H{"error": "Proxy not found"})
		return
	}
	c.JSON(stdhttp.StatusOK, target)
}

// ActiveProxies lists all registered targets.
func (h *Handlers) ActiveProxies(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, h.registry.List())
}

// Iframe serves the sandboxed iframe wrapper document for a target URL.
// Schemeless targets are normalized the same way the simple proxy does, so
// the rendered src is always absolute.
func (h *Handlers) Iframe(c *gin.Context) {
	raw := c.Query("url")
	if raw == "" {
		c.String(stdhttp.StatusBadRequest, "URL parameter is required")
		return
	}

	target, err := proxy.NormalizeTarget(raw)
	if err != nil {
		c.String(stdhttp.StatusBadRequest, "Invalid URL parameter")
		return
	}

	doc, err := proxy.IframeDocument(target.String())
	if err != nil {
		c.String(stdhttp.StatusInternalServerError, "Failed to render iframe document")
		return
	}
	c.Data(stdhttp.StatusOK, "text/html; charset=utf-8", []byte(doc))
}

// Track ingests one tracking event from the injected script. Selections
// additionally enter the selected-content buffer and may be enriched
// asynchronously; the response never waits for enrichment.
func (h *Handlers) Track(c *gin.Context) {
	var ev proxy.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "invalid event payload"})
		return
	}

	h.events.Append(ev)
	if h.metrics != nil {
		h.metrics.RecordTrackingEvent(ev.Type())
	}

	if ev.IsSelection() {
		h.events.AppendSelection(ev)
		h.enricher.Maybe(ev, h.sessions.TokenFromRequest(c))
	}

	c.JSON(stdhttp.StatusOK, gin.H{"success": true})
}

// TrackEvents streams tracking events over SSE: the buffered window is
// replayed immediately, then new events are polled every second until the
// client disconnects.
func (h *Handlers) TrackEvents(c *gin.Context) {
	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(stdhttp.StatusOK)

	if h.metrics != nil {
		h.metrics.IncStreamSubscribers()
		defer h.metrics.DecStreamSubscribers()
	}

	backlog, seq := h.events.Events()
	for _, ev := range backlog {
		writeSSE(w, ev)
	}
	w.Flush()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fresh, next := h.events.EventsSince(seq)
			seq = next
			if len(fresh) == 0 {
				continue
			}
			for _, ev := range fresh {
				writeSSE(w, ev)
			}
			w.Flush()
		}
	}
}

func writeSSE(w gin.ResponseWriter, ev proxy.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

// SelectedContent returns the selected-content buffer, newest last.
func (h *Handlers) SelectedContent(c *gin.Context) {
	selections := h.events.Selections()
	if selections == nil {
		selections = []proxy.Event{}
	}
	c.JSON(stdhttp.StatusOK, selections)
}

type fetchPostDataRequest struct {
	PostID string `json:"postId"`
	Slug   string `json:"slug"`
	Domain string `json:"domain"`
}

// FetchPostData resolves a post or page on a domain by ID or slug.
func (h *Handlers) FetchPostData(c *gin.Context) {
	var req fetchPostDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "Domain is required"})
		return
	}
	if req.Domain == "" {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "Domain is required"})
		return
	}
	if req.PostID == "" && req.Slug == "" {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "Either postId or slug is required"})
		return
	}

	token := h.sessions.TokenFromRequest(c)
	data, err := h.wp.FetchContent(c.Request.Context(), req.Domain, token, req.PostID, req.Slug)
	if err != nil {
		if errors.Is(err, wordpress.ErrNotFound) {
			c.JSON(stdhttp.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		h.logger.Warn("post data fetch failed",
			zap.String("domain", req.Domain),
			zap.Error(err),
		)
		c.JSON(stdhttp.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(stdhttp.StatusOK, gin.H{"success": true, "data": data})
}

type matchRequest struct {
	Content string `json:"content"`
	SiteURL string `json:"siteUrl"`
}

// MatchContent runs the paste-matching heuristics server-side: candidate
// posts and pages are pulled from the site, then matched against the
// pasted text.
func (h *Handlers) MatchContent(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "Content is required"})
		return
	}
	if req.SiteURL == "" {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "Site URL is required"})
		return
	}

	token := h.sessions.TokenFromRequest(c)
	ctx := c.Request.Context()

	var posts []wordpress.Post
	items, err := h.wp.ListAll(ctx, req.SiteURL, token)
	if err != nil {
		h.logger.Warn("candidate fetch failed, matching on text only",
			zap.String("site", req.SiteURL),
			zap.Error(err),
		)
	}
	for _, item := range items {
		posts = append(posts, item.Post)
	}

	result := h.matcher.Match(ctx, req.Content, posts, req.SiteURL, token)
	if result == nil {
		c.JSON(stdhttp.StatusOK, gin.H{"matched": false})
		return
	}
	c.JSON(stdhttp.StatusOK, gin.H{"matched": true, "result": result})
}
