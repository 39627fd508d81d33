// Package main is the entry point for the pressview server.
//
// The server sits between a dashboard frontend and third-party WordPress
// sites: it proxies site HTML with a selection payload injected, collects
// the tracking events that payload emits, matches pasted content back to
// posts, and brokers WordPress.com OAuth plus REST API access.
//
// Architecture:
//
//	Dashboard (browser) → pressview → third-party sites (proxy)
//	                               → WordPress REST API
//
// The server provides:
//   - Response-rewriting proxy with script injection
//   - Tracking event ingestion, SSE and WebSocket streams
//   - Content-to-post matching heuristics
//   - WordPress search, fetch, and update passthrough
//   - WordPress.com OAuth gateway
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	./server -port 8000
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
