// Package server wires configuration, logging, metrics, and all HTTP
// handlers into a runnable service.
package server

import (
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/pressview/pressview/internal/api/http"
	"github.com/pressview/pressview/internal/api/middleware"
	"github.com/pressview/pressview/internal/api/ws"
	"github.com/pressview/pressview/internal/auth"
	"github.com/pressview/pressview/internal/infrastructure/config"
	"github.com/pressview/pressview/internal/infrastructure/logging"
	"github.com/pressview/pressview/internal/infrastructure/monitoring"
	"github.com/pressview/pressview/internal/match"
	"github.com/pressview/pressview/internal/proxy"
	"github.com/pressview/pressview/internal/wordpress"
)

// Server wraps the HTTP server and dependencies.
type Server struct {
	router  *gin.Engine
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance.
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	logger.Info("Initializing pressview server",
		zap.String("port", cfg.Server.Port),
		zap.String("wordpress_api", cfg.WordPress.APIBase),
	)

	metrics := monitoring.NewMetrics()

	// Core collaborators
	wpClient := wordpress.New(cfg.WordPress.APIBase, logger).WithObserver(metrics.RecordUpstreamCall)
	sessions := auth.NewStore()
	oauth := auth.NewOAuth(cfg.WordPress, logger)

	registry := proxy.NewRegistry()
	events := proxy.NewLog()
	enricher := proxy.NewEnricher(events, wpClient, logger)

	rewriter := proxy.NewRewriter(cfg.Proxy, logger).WithObserver(metrics.RecordRewrite)
	forwarder := proxy.NewForwarder(cfg.Proxy, rewriter, logger)

	matcher := match.New(logger).WithSearcher(wpClient)

	// Router and middleware
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(dashboardOrigin(cfg.WordPress.DashboardURL))))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(cfg.RateLimit))
	}

	// Handlers
	handlers := apihttp.NewHandlers(apihttp.Deps{
		Config:    cfg,
		Logger:    logger,
		Metrics:   metrics,
		Registry:  registry,
		Events:    events,
		Forwarder: forwarder,
		Enricher:  enricher,
		Matcher:   matcher,
		WordPress: wpClient,
		Sessions:  sessions,
	})
	authHandlers := auth.NewHandlers(oauth, sessions, wpClient, cfg.WordPress, logger)
	wsHandler := ws.NewHandler(events, metrics, logger)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Proxy
	router.GET("/proxy/simple", handlers.SimpleProxy)
	router.POST("/proxy/create", handlers.CreateProxy)
	router.GET("/proxy/info/:id", handlers.ProxyInfo)
	router.GET("/proxy/active", handlers.ActiveProxies)
	router.GET("/proxy/iframe", handlers.Iframe)

	// Tracking
	router.POST("/proxy/track", handlers.Track)
	router.GET("/proxy/track-events", handlers.TrackEvents)
	router.GET("/proxy/selected-content", handlers.SelectedContent)
	router.POST("/proxy/fetch-post-data", handlers.FetchPostData)
	router.POST("/proxy/match", handlers.MatchContent)
	router.GET("/proxy/stream", wsHandler.HandleConnection)

	// WordPress passthrough
	router.GET("/wordpress/search", handlers.WordPressSearch)
	router.GET("/wordpress/search/content", handlers.WordPressSearchContent)
	router.GET("/wordpress/search/slug", handlers.WordPressSearchSlug)
	router.GET("/wordpress/posts", handlers.WordPressPosts)
	router.GET("/wordpress/get-pages", handlers.WordPressPages)
	router.POST("/wordpress/update-post", handlers.WordPressUpdatePost)
	router.POST("/wordpress/page-update", handlers.WordPressUpdatePage)

	// OAuth gateway
	router.GET("/auth/redirectToOAuth", authHandlers.RedirectToOAuth)
	router.GET("/auth/callback", authHandlers.Callback)
	router.GET("/auth/check", authHandlers.Check)
	router.POST("/auth/verify", authHandlers.Verify)

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	s.logger.Sync()
	return nil
}

// dashboardOrigin reduces the configured dashboard URL to its origin for
// the CORS allow list.
func dashboardOrigin(dashboardURL string) string {
	parsed, err := url.Parse(dashboardURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}
