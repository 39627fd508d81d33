package proxy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/saintfish/chardet"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/pressview/pressview/internal/infrastructure/config"
	"github.com/pressview/pressview/internal/infrastructure/logging"
)

// Rewrite outcomes, for logging and metrics.
const (
	OutcomePassThrough = "pass_through"
	OutcomeInjected    = "injected"
	OutcomeFallback    = "fallback"
	OutcomeError       = "error"
)

// frameHeaders defeat iframe embedding and are stripped from rewritten
// responses when the strip option is enabled.
var frameHeaders = []string{"X-Frame-Options", "Content-Security-Policy"}

// Rewriter turns upstream HTML responses into client-facing responses with
// the selection payload injected. Non-HTML and non-2xx responses stream
// through untouched.
type Rewriter struct {
	logger            *logging.Logger
	stripFrameHeaders bool
	maxBodyBytes      int64
	observe           func(outcome string)
}

// NewRewriter creates a rewriter from proxy configuration.
func NewRewriter(cfg config.ProxyConfig, logger *logging.Logger) *Rewriter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Rewriter{
		logger:            logger,
		stripFrameHeaders: cfg.StripFrameHeaders,
		maxBodyBytes:      cfg.MaxBodyBytes,
		observe:           func(string) {},
	}
}

// WithObserver registers an outcome callback for metrics collection.
func (rw *Rewriter) WithObserver(fn func(outcome string)) *Rewriter {
	if fn != nil {
		rw.observe = fn
	}
	return rw
}

// ServeUpstream writes the client-facing response for an upstream response.
// The upstream body is always consumed; the client always receives some
// response, even when processing fails.
func (rw *Rewriter) ServeUpstream(w http.ResponseWriter, resp *http.Response) {
	defer resp.Body.Close()

	body := resp.Body
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		// Upstream gave no hint; sniff the first chunk.
		sniffed, rest := sniffContentType(body)
		contentType = sniffed
		body = rest
	}

	isHTML := strings.Contains(contentType, "text/html")
	isSuccess := resp.StatusCode >= 200 && resp.StatusCode < 300

	if !isHTML || !isSuccess {
		rw.passThrough(w, resp, body)
		return
	}

	buf, err := rw.buffer(body)
	if err != nil {
		rw.logger.Error("failed to buffer upstream body", zap.Error(err))
		rw.serveError(w)
		return
	}

	modified, err := rw.rewrite(buf, resp.Header.Get("Content-Encoding"))
	if err != nil {
		rw.logger.Warn("rewrite failed, serving raw upstream bytes",
			zap.String("content_encoding", resp.Header.Get("Content-Encoding")),
			zap.Error(err),
		)
		rw.serveFallback(w, resp, buf)
		return
	}

	rw.serveModified(w, resp, modified)
}

// rewrite decompresses, re-decodes, and injects the selection payload.
func (rw *Rewriter) rewrite(buf []byte, contentEncoding string) ([]byte, error) {
	decompressed, err := decompress(buf, contentEncoding)
	if err != nil {
		return nil, err
	}
	doc := ensureUTF8(decompressed, rw.logger)
	return Inject(doc), nil
}

// Inject inserts the selection payload immediately before the closing body
// tag, or appends it when the document has none. Exactly one insertion.
func Inject(doc []byte) []byte {
	payload := []byte(InjectionPayload())
	idx := lastIndexFold(doc, []byte("</body>"))
	if idx < 0 {
		return append(doc, payload...)
	}
	out := make([]byte, 0, len(doc)+len(payload))
	out = append(out, doc[:idx]...)
	out = append(out, payload...)
	out = append(out, doc[idx:]...)
	return out
}

// decompress inflates the buffer according to its declared encoding. A
// "deflate" label is tried as zlib first and raw deflate second, since some
// servers mislabel headerless streams.
func decompress(buf []byte, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(buf))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case "deflate":
		if r, err := zlib.NewReader(bytes.NewReader(buf)); err == nil {
			defer r.Close()
			if out, err := io.ReadAll(r); err == nil {
				return out, nil
			}
		}
		r := flate.NewReader(bytes.NewReader(buf))
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		return out, nil
	case "", "identity":
		return buf, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

// ensureUTF8 re-decodes non-UTF-8 documents using charset detection. When
// detection or decoding fails the original bytes are returned unchanged.
func ensureUTF8(doc []byte, logger *logging.Logger) []byte {
	if utf8.Valid(doc) {
		return doc
	}

	det, err := chardet.NewTextDetector().DetectBest(doc)
	if err != nil {
		logger.Debug("charset detection failed", zap.Error(err))
		return doc
	}

	r, err := charset.NewReaderLabel(det.Charset, bytes.NewReader(doc))
	if err != nil {
		logger.Debug("no decoder for detected charset", zap.String("charset", det.Charset))
		return doc
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return doc
	}
	return decoded
}

// buffer reads the whole body, bounded by the configured cap.
func (rw *Rewriter) buffer(body io.Reader) ([]byte, error) {
	limited := io.LimitReader(body, rw.maxBodyBytes+1)
	buf, err := io.ReadAll(limited)
	if err != nil {
		return buf, err
	}
	if int64(len(buf)) > rw.maxBodyBytes {
		return buf, errors.New("upstream body exceeds buffering cap")
	}
	return buf, nil
}

// passThrough streams a response the rewriter must not touch: headers
// verbatim, status preserved, body copied through.
func (rw *Rewriter) passThrough(w http.ResponseWriter, resp *http.Response, body io.Reader) {
	copyHeaders(w.Header(), resp.Header, nil)
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, body); err != nil {
		rw.logger.Debug("pass-through copy interrupted", zap.Error(err))
	}
	rw.observe(OutcomePassThrough)
}

// serveModified emits the injected document with corrected headers.
func (rw *Rewriter) serveModified(w http.ResponseWriter, resp *http.Response, body []byte) {
	skip := map[string]bool{"Content-Encoding": true, "Content-Length": true}
	if rw.stripFrameHeaders {
		for _, h := range frameHeaders {
			skip[h] = true
		}
	}
	copyHeaders(w.Header(), resp.Header, skip)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(body); err != nil {
		rw.logger.Debug("client write interrupted", zap.Error(err))
	}
	rw.observe(OutcomeInjected)
}

// serveFallback emits the raw buffered bytes after a processing failure,
// stripping only the encoding header the client can no longer trust.
func (rw *Rewriter) serveFallback(w http.ResponseWriter, resp *http.Response, buf []byte) {
	copyHeaders(w.Header(), resp.Header, map[string]bool{"Content-Encoding": true, "Content-Length": true})
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	w.WriteHeader(status)
	if _, err := w.Write(buf); err != nil {
		rw.logger.Debug("fallback write interrupted", zap.Error(err))
		rw.observe(OutcomeError)
		return
	}
	rw.observe(OutcomeFallback)
}

// serveError is the terminal path when not even raw bytes are available.
func (rw *Rewriter) serveError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusBadGateway)
	_, _ = w.Write([]byte("Proxy Error: failed to process upstream response"))
	rw.observe(OutcomeError)
}

// sniffContentType reads a detection window from body and returns the
// detected type plus a reader replaying the consumed bytes.
func sniffContentType(body io.ReadCloser) (string, io.ReadCloser) {
	head := make([]byte, 3072)
	n, _ := io.ReadFull(body, head)
	detected := mimetype.Detect(head[:n]).String()
	combined := io.MultiReader(bytes.NewReader(head[:n]), body)
	return detected, readCloser{Reader: combined, Closer: body}
}

type readCloser struct {
	io.Reader
	io.Closer
}

// copyHeaders copies src headers into dst, skipping canonical names in skip.
func copyHeaders(dst, src http.Header, skip map[string]bool) {
	for key, values := range src {
		if skip != nil && skip[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}

// lastIndexFold finds the last case-insensitive occurrence of sep in s.
func lastIndexFold(s, sep []byte) int {
	return bytes.LastIndex(bytes.ToLower(s), bytes.ToLower(sep))
}
