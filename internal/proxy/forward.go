package proxy

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pressview/pressview/internal/infrastructure/config"
	"github.com/pressview/pressview/internal/infrastructure/logging"
)

// ErrInvalidTarget indicates the requested proxy target is not a usable URL.
var ErrInvalidTarget = errors.New("proxy: invalid target url")

var schemeRe = regexp.MustCompile(`^https?://`)

// outboundHeaders is the fixed browser-like header set sent upstream to
// reduce anti-bot blocking by third-party sites.
var outboundHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Accept-Encoding":           "gzip, deflate",
	"Cache-Control":             "no-cache",
	"Pragma":                    "no-cache",
	"Upgrade-Insecure-Requests": "1",
}

// Forwarder fetches a target URL and hands the response to the rewriter.
// One upstream attempt per request; no retries.
type Forwarder struct {
	client   *http.Client
	rewriter *Rewriter
	logger   *logging.Logger
}

// NewForwarder creates a forwarder with a bounded upstream timeout. The
// transport's automatic decompression is disabled so the rewriter sees the
// wire bytes and the declared Content-Encoding together.
func NewForwarder(cfg config.ProxyConfig, rewriter *Rewriter, logger *logging.Logger) *Forwarder {
	if logger == nil {
		logger = logging.NewNop()
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableCompression = true

	return &Forwarder{
		client: &http.Client{
			Timeout:   cfg.UpstreamTimeout,
			Transport: transport,
		},
		rewriter: rewriter,
		logger:   logger,
	}
}

// NormalizeTarget prefixes a missing scheme with https:// and validates the
// result. Malformed targets return ErrInvalidTarget before any network use.
func NormalizeTarget(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidTarget
	}
	if !schemeRe.MatchString(raw) {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return nil, ErrInvalidTarget
	}
	return parsed, nil
}

// Forward fetches target and serves the rewritten response. The outbound
// request uses the target's own path and query, not the incoming proxy
// path, since the target travels as a query parameter.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request, target *url.URL) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		f.serveUpstreamError(w, err)
		return
	}
	for key, value := range outboundHeaders {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("upstream fetch failed",
			zap.String("target", target.String()),
			zap.Error(err),
		)
		f.serveUpstreamError(w, err)
		return
	}

	f.rewriter.ServeUpstream(w, resp)
}

// serveUpstreamError maps connection-level failures (refused, DNS, TLS) to
// a 502 with the error message in the body.
func (f *Forwarder) serveUpstreamError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusBadGateway)
	fmt.Fprintf(w, "Proxy Error: %v", err)
}
