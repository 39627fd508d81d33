package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pressview/pressview/internal/infrastructure/config"
	"github.com/pressview/pressview/internal/infrastructure/logging"
	"github.com/pressview/pressview/internal/wordpress"
)

// Handlers serves the OAuth gateway endpoints.
type Handlers struct {
	oauth    *OAuth
	sessions *Store
	wp       *wordpress.Client
	cfg      config.WordPressConfig
	logger   *logging.Logger
}

// NewHandlers wires the OAuth gateway.
func NewHandlers(oauth *OAuth, sessions *Store, wp *wordpress.Client, cfg config.WordPressConfig, logger *logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		oauth:    oauth,
		sessions: sessions,
		wp:       wp,
		cfg:      cfg,
		logger:   logger,
	}
}

// RedirectToOAuth sends the client to the WordPress.com authorize page.
func (h *Handlers) RedirectToOAuth(c *gin.Context) {
	c.Redirect(http.StatusFound, h.oauth.AuthorizeURL())
}

// Callback completes the flow: exchanges the code, issues a session, sets
// the cookie, and bounces the client to the dashboard.
func (h *Handlers) Callback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.String(http.StatusBadRequest, "No authorization code received")
		return
	}

	token, err := h.oauth.Exchange(c.Request.Context(), code)
	if err != nil {
		h.logger.Error("oauth code exchange failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sessionID := h.sessions.Issue(token)
	SetSessionCookie(c, sessionID)
	c.Redirect(http.StatusFound, h.cfg.DashboardURL)
}

// Check reports whether the caller holds an authenticated session.
func (h *Handlers) Check(c *gin.Context) {
	authenticated := h.sessions.TokenFromRequest(c) != ""
	c.JSON(http.StatusOK, gin.H{"authenticated": authenticated})
}

type verifyRequest struct {
	SiteURL string `json:"siteUrl"`
	Token   string `json:"token"`
}

// Verify checks that a WordPress site is reachable with the supplied
// credentials and returns its settings summary.
func (h *Handlers) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SiteURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Site URL is required"})
		return
	}

	token := req.Token
	if token == "" {
		token = h.sessions.TokenFromRequest(c)
	}

	info, err := h.wp.VerifySite(c.Request.Context(), req.SiteURL, token)
	if err != nil {
		status := http.StatusInternalServerError
		var apiErr *wordpress.APIError
		if errors.As(err, &apiErr) {
			status = apiErr.Status
		}
		h.logger.Warn("site verification failed",
			zap.String("site", req.SiteURL),
			zap.Error(err),
		)
		c.JSON(status, gin.H{
			"error":   "Failed to verify WordPress site access",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"siteInfo": gin.H{
			"title":       info.Title,
			"description": info.Description,
			"url":         info.URL,
		},
	})
}
