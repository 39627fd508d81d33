/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the
service, tracking HTTP requests, proxy rewrite outcomes, tracking events,
WordPress API calls, and system metrics.

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Plug into the rewriter
	rewriter.WithObserver(metrics.RecordRewrite)

	// Plug into the WordPress client
	client.WithObserver(metrics.RecordUpstreamCall)

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
