// Package http contains the Gin HTTP handlers for the proxy, matching,
// WordPress passthrough, and tracking endpoints.
package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"

	"github.com/pressview/pressview/internal/auth"
	"github.com/pressview/pressview/internal/infrastructure/config"
	"github.com/pressview/pressview/internal/infrastructure/logging"
	"github.com/pressview/pressview/internal/infrastructure/monitoring"
	"github.com/pressview/pressview/internal/match"
	"github.com/pressview/pressview/internal/proxy"
	"github.com/pressview/pressview/internal/wordpress"
)

// Handlers holds all HTTP handler dependencies.
type Handlers struct {
	cfg       *config.Config
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	registry  *proxy.Registry
	events    *proxy.Log
	forwarder *proxy.Forwarder
	enricher  *proxy.Enricher
	matcher   *match.Matcher
	wp        *wordpress.Client
	sessions  *auth.Store
}

// Deps bundles the collaborators the handlers need.
type Deps struct {
	Config    *config.Config
	Logger    *logging.Logger
	Metrics   *monitoring.Metrics
	Registry  *proxy.Registry
	Events    *proxy.Log
	Forwarder *proxy.Forwarder
	Enricher  *proxy.Enricher
	Matcher   *match.Matcher
	WordPress *wordpress.Client
	Sessions  *auth.Store
}

// NewHandlers creates the handler set.
func NewHandlers(d Deps) *Handlers {
	logger := d.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		cfg:       d.Config,
		logger:    logger,
		metrics:   d.Metrics,
		registry:  d.Registry,
		events:    d.Events,
		forwarder: d.Forwarder,
		enricher:  d.Enricher,
		matcher:   d.Matcher,
		wp:        d.WordPress,
		sessions:  d.Sessions,
	}
}

// Root returns basic service information.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{
		"service": "pressview",
		"status":  "running",
	})
}

// Health returns service health status.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"status": "healthy"})
}
