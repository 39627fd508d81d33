package http

import (
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pressview/pressview/internal/wordpress"
)

// requireAuth resolves the caller's access token, writing a 401 when none
// is present. The bool reports whether the request may proceed.
func (h *Handlers) requireAuth(c *gin.Context) (string, bool) {
	token := h.sessions.TokenFromRequest(c)
	if token == "" {
		c.JSON(stdhttp.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return "", false
	}
	return token, true
}

// requireSite reads the siteUrl query parameter, writing a 400 when absent.
func requireSite(c *gin.Context) (string, bool) {
	site := c.Query("siteUrl")
	if site == "" {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "Site URL is required"})
		return "", false
	}
	return site, true
}

// writeWordPressError maps client errors to HTTP responses: upstream API
// failures keep their status, missing content is 404, the rest is 500.
func (h *Handlers) writeWordPressError(c *gin.Context, err error) {
	if errors.Is(err, wordpress.ErrNotFound) {
		c.JSON(stdhttp.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	var apiErr *wordpress.APIError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Body})
		return
	}
	h.logger.Warn("wordpress request failed", zap.Error(err))
	c.JSON(stdhttp.StatusInternalServerError, gin.H{"error": err.Error()})
}

// WordPressSearch finds the first post or page containing the search term,
// optionally restricted to one field via contentType.
func (h *Handlers) WordPressSearch(c *gin.Context) {
	token, ok := h.requireAuth(c)
	if !ok {
		return
	}
	site := c.Query("siteUrl")
	term := c.Query("searchTerm")
	if site == "" || term == "" {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "Site URL and search term are required"})
		return
	}

	result, err := h.wp.Search(c.Request.Context(), site, token, term, c.Query("contentType"))
	if err != nil {
		h.writeWordPressError(c, err)
		return
	}
	c.JSON(stdhttp.StatusOK, result)
}

// WordPressSearchContent returns every post and page whose content
// contains the search term.
func (h *Handlers) WordPressSearchContent(c *gin.Context) {
	token, ok := h.requireAuth(c)
	if !ok {
		return
	}
	site := c.Query("siteUrl")
	term := c.Query("searchTerm")
	if site == "" || term == "" {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "Site URL and search term are required"})
		return
	}

	items, err := h.wp.SearchContent(c.Request.Context(), site, token, term)
	if err != nil {
		h.writeWordPressError(c, err)
		return
	}
	c.JSON(stdhttp.StatusOK, items)
}

// WordPressSearchSlug looks up posts by exact slug. The response is a list
// for parity with the upstream API: one element on a hit, empty on a miss.
func (h *Handlers) WordPressSearchSlug(c *gin.Context) {
	token, ok := h.requireAuth(c)
	if !ok {
		return
	}
	site := c.Query("siteUrl")
	slug := c.Query("slug")
	if site == "" || slug == "" {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "Site URL and slug are required"})
		return
	}

	post, err := h.wp.GetPostBySlug(c.Request.Context(), site, token, slug)
	if err != nil {
		if errors.Is(err, wordpress.ErrNotFound) {
			c.JSON(stdhttp.StatusOK, []wordpress.Post{})
			return
		}
		h.writeWordPressError(c, err)
		return
	}
	c.JSON(stdhttp.StatusOK, []wordpress.Post{*post})
}

// WordPressPosts lists the site's posts.
func (h *Handlers) WordPressPosts(c *gin.Context) {
	token, ok := h.requireAuth(c)
	if !ok {
		return
	}
	site, ok := requireSite(c)
	if !ok {
		return
	}

	posts, err := h.wp.ListPosts(c.Request.Context(), site, token)
	if err != nil {
		h.writeWordPressError(c, err)
		return
	}
	c.JSON(stdhttp.StatusOK, posts)
}

// WordPressPages lists the site's pages.
func (h *Handlers) WordPressPages(c *gin.Context) {
	token, ok := h.requireAuth(c)
	if !ok {
		return
	}
	site, ok := requireSite(c)
	if !ok {
		return
	}

	pages, err := h.wp.ListPages(c.Request.Context(), site, token)
	if err != nil {
		h.writeWordPressError(c, err)
		return
	}
	c.JSON(stdhttp.StatusOK, pages)
}

type updateRequest struct {
	SiteURL string `json:"siteUrl"`
	// IDs arrive as numbers or strings depending on the client.
	PostID  json.Number `json:"postId"`
	PageID  json.Number `json:"pageId"`
	Title   *string     `json:"title"`
	Content *string     `json:"content"`
	Excerpt *string     `json:"excerpt"`
}

func (r updateRequest) update() wordpress.Update {
	return wordpress.Update{
		Title:   r.Title,
		Content: r.Content,
		Excerpt: r.Excerpt,
	}
}

// WordPressUpdatePost updates a post's title, content, or excerpt.
func (h *Handlers) WordPressUpdatePost(c *gin.Context) {
	token, ok := h.requireAuth(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, err := strconv.Atoi(req.PostID.String())
	if req.SiteURL == "" || err != nil || (req.Content == nil && req.Title == nil) {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "Site URL, post ID, and at least one of content or title are required"})
		return
	}

	post, err := h.wp.UpdatePost(c.Request.Context(), req.SiteURL, token, id, req.update())
	if err != nil {
		h.writeWordPressError(c, err)
		return
	}
	c.JSON(stdhttp.StatusOK, post)
}

// WordPressUpdatePage updates a page's title, content, or excerpt.
func (h *Handlers) WordPressUpdatePage(c *gin.Context) {
	token, ok := h.requireAuth(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, err := strconv.Atoi(req.PageID.String())
	if req.SiteURL == "" || err != nil || (req.Content == nil && req.Title == nil) {
		c.JSON(stdhttp.StatusBadRequest, gin.H{"error": "Site URL, page ID, and at least one of content or title are required"})
		return
	}

	page, err := h.wp.UpdatePage(c.Request.Context(), req.SiteURL, token, id, req.update())
	if err != nil {
		h.writeWordPressError(c, err)
		return
	}
	c.JSON(stdhttp.StatusOK, page)
}
