// Package match associates freeform pasted text with a WordPress post or
// page using layered heuristics: precise-but-narrow ID extraction first,
// broad-but-unreliable numeric salvage last. The score on a Result lets
// callers gate auto-apply behavior on confidence.
package match

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/pressview/pressview/internal/infrastructure/logging"
	"github.com/pressview/pressview/internal/wordpress"
)

// Method tags how a paste was associated with an ID.
type Method string

const (
	MethodPattern   Method = "pattern-match"
	MethodDirectID  Method = "direct-id-match"
	MethodContent   Method = "content-match"
	MethodAPISearch Method = "api-search-match"
	MethodNumber    Method = "number-extraction"
)

// Confidence scores per method. Content-match scores are computed.
const (
	scoreDirectID  = 10
	scoreAPISearch = 9
	scorePattern   = 8
	scoreNumber    = 1
)

// Result describes a successful match. It is transient per paste operation.
type Result struct {
	ID           string `json:"id"`
	Method       Method `json:"matchMethod"`
	Score        int    `json:"score"`
	MatchedField string `json:"matchedField,omitempty"`
	Title        string `json:"title,omitempty"`
}

// RemoteSearcher delegates to the WordPress server-side search when local
// strategies come up empty. *wordpress.Client satisfies it.
type RemoteSearcher interface {
	Search(ctx context.Context, site, token, term, field string) (*wordpress.SearchResult, error)
}

// Matcher runs the ordered matching strategies.
type Matcher struct {
	logger   *logging.Logger
	searcher RemoteSearcher
}

// New creates a matcher.
func New(logger *logging.Logger) *Matcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Matcher{logger: logger}
}

// WithSearcher enables the remote search fallback.
func (m *Matcher) WithSearcher(s RemoteSearcher) *Matcher {
	m.searcher = s
	return m
}

// Match resolves pasted text against cached posts. Strategies run in fixed
// order and the first success wins; a nil result means no confident match,
// not an error. site and token are only consulted for the remote fallback.
func (m *Matcher) Match(ctx context.Context, text string, posts []wordpress.Post, site, token string) *Result {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// Explicit ID markers beat everything else.
	if id := ExtractPostID(text); id != "" {
		if post := findByID(posts, id); post != nil {
			return &Result{
				ID:     id,
				Method: MethodDirectID,
				Score:  scoreDirectID,
				Title:  post.Title.Text(),
			}
		}
		return &Result{ID: id, Method: MethodPattern, Score: scorePattern}
	}

	if res := m.matchByContent(text, posts); res != nil {
		return res
	}

	if m.searcher != nil && site != "" && token != "" {
		if res := m.searchRemote(ctx, text, site, token); res != nil {
			return res
		}
	}

	// Numeric salvage: any integer in the plausible post-ID range.
	for _, raw := range numberRe.FindAllString(text, -1) {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n >= 100000 {
			continue
		}
		return &Result{ID: strconv.Itoa(n), Method: MethodNumber, Score: scoreNumber}
	}

	return nil
}

// matchByContent scores every cached post against the paste and returns the
// highest scorer, ties broken by first-encountered order.
func (m *Matcher) matchByContent(text string, posts []wordpress.Post) *Result {
	if len(posts) == 0 {
		return nil
	}

	paste := Normalize(text)
	if paste == "" {
		return nil
	}
	sample := head(paste, 100)

	var best *Result
	for i := range posts {
		post := &posts[i]
		content := post.Content.Text()
		title := post.Title.Text()
		excerpt := post.Excerpt.Text()

		contentLower := strings.ToLower(content)
		score := 0

		if sample != "" && strings.Contains(contentLower, sample) {
			score += 2
		}
		if title != "" && strings.Contains(paste, strings.ToLower(title)) {
			score++
		}
		if excerpt != "" && strings.Contains(paste, strings.ToLower(excerpt)) {
			score++
		}

		// Long pastes get two extra probe samples from the middle and end.
		if len(paste) > 150 {
			mid := len(paste) / 2
			middleSample := paste[max(0, mid-50):min(len(paste), mid+50)]
			endSample := paste[len(paste)-100:]
			if strings.Contains(contentLower, middleSample) {
				score++
			}
			if strings.Contains(contentLower, endSample) {
				score++
			}
		}

		if contentLower != "" {
			switch ratio := overlapRatio(paste, contentLower); {
			case ratio > 0.7:
				score += 2
			case ratio > 0.5:
				score++
			}
		}

		if score > 0 && (best == nil || score > best.Score) {
			best = &Result{
				ID:     strconv.Itoa(post.ID),
				Method: MethodContent,
				Score:  score,
				Title:  title,
			}
		}
	}
	return best
}

func (m *Matcher) searchRemote(ctx context.Context, text, site, token string) *Result {
	res, err := m.searcher.Search(ctx, site, token, Normalize(text), "")
	if err != nil {
		m.logger.Warn("remote search fallback failed", zap.String("site", site), zap.Error(err))
		return nil
	}
	if res == nil || !res.Found {
		return nil
	}
	return &Result{
		ID:           strconv.Itoa(res.PostID),
		Method:       MethodAPISearch,
		Score:        scoreAPISearch,
		MatchedField: res.MatchedField,
	}
}

// overlapRatio slides a 4-word window over the shorter text (stepping by 2
// words) and reports the fraction of windows found verbatim in the longer.
func overlapRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	shorter, longer := a, b
	if len(a) > len(b) {
		shorter, longer = b, a
	}

	words := strings.Split(shorter, " ")
	const window = 4
	matched, total := 0, 0
	for i := 0; i+window <= len(words); i += 2 {
		total++
		if strings.Contains(longer, strings.Join(words[i:i+window], " ")) {
			matched++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

var (
	normalizePolicy = bluemonday.StrictPolicy()
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// Normalize strips HTML tags, lowercases, and collapses whitespace.
func Normalize(s string) string {
	plain := normalizePolicy.Sanitize(s)
	plain = whitespaceRe.ReplaceAllString(plain, " ")
	return strings.ToLower(strings.TrimSpace(plain))
}

func findByID(posts []wordpress.Post, id string) *wordpress.Post {
	for i := range posts {
		if strconv.Itoa(posts[i].ID) == id {
			return &posts[i]
		}
	}
	return nil
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
