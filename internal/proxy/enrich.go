package proxy

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/pressview/pressview/internal/infrastructure/logging"
	"github.com/pressview/pressview/internal/wordpress"
)

// ContentFetcher resolves a post or page for enrichment.
// *wordpress.Client satisfies it.
type ContentFetcher interface {
	FetchContent(ctx context.Context, domain, token, postID, slug string) (*wordpress.ContentSummary, error)
}

// Enricher augments selected-content events with WordPress API data after
// the tracking response has been sent. Failures are logged and otherwise
// ignored: tracking never fails because enrichment failed.
type Enricher struct {
	log     *Log
	fetcher ContentFetcher
	logger  *logging.Logger
	timeout time.Duration
}

// NewEnricher creates an enricher over the shared event log.
func NewEnricher(log *Log, fetcher ContentFetcher, logger *logging.Logger) *Enricher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Enricher{
		log:     log,
		fetcher: fetcher,
		logger:  logger,
		timeout: 15 * time.Second,
	}
}

// Maybe kicks off asynchronous enrichment when the event qualifies: a post
// ID is present and the originating URL is a wordpress.com site. The call
// returns immediately.
func (e *Enricher) Maybe(ev Event, token string) {
	postID := ev.PostID()
	if postID == "" || e.fetcher == nil {
		return
	}

	parsed, err := url.Parse(ev.URL())
	if err != nil || !wordpress.IsWordPressCom(parsed.Hostname()) {
		return
	}
	domain := parsed.Hostname()

	go e.run(ev, domain, token, postID)
}

func (e *Enricher) run(ev Event, domain, token, postID string) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	data, err := e.fetcher.FetchContent(ctx, domain, token, postID, "")
	if err != nil {
		e.logger.Warn("selection enrichment failed",
			zap.String("domain", domain),
			zap.String("post_id", postID),
			zap.Error(err),
		)
		return
	}

	// Original fields survive enrichment; only wpApiData and the marker
	// are added.
	enriched := make(Event, len(ev)+2)
	for k, v := range ev {
		enriched[k] = v
	}
	enriched["wpApiData"] = data
	enriched["enriched"] = true

	// Swap the original selection in place; when it has already been
	// evicted the enriched copy is appended as a new entry.
	if !e.log.ReplaceSelection(ev["timestamp"], ev["postId"], enriched) {
		e.log.AppendSelection(enriched)
	}
	e.log.Append(enriched)
	e.logger.Debug("selection enriched",
		zap.String("domain", domain),
		zap.String("post_id", postID),
	)
}
