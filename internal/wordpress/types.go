package wordpress

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Rendered wraps a WordPress rendered-HTML field.
type Rendered struct {
	Rendered string `json:"rendered"`
}

var (
	stripPolicy = bluemonday.StrictPolicy()
	spaceRe     = regexp.MustCompile(`\s+`)
)

// Text returns the field stripped of HTML tags with whitespace collapsed.
func (r Rendered) Text() string {
	plain := stripPolicy.Sanitize(r.Rendered)
	return strings.TrimSpace(spaceRe.ReplaceAllString(plain, " "))
}

// Post represents a WordPress post or page as returned by the wp/v2 API.
// Only the fields this service reads or writes are mapped.
type Post struct {
	ID      int      `json:"id"`
	Date    string   `json:"date,omitempty"`
	Slug    string   `json:"slug,omitempty"`
	Link    string   `json:"link,omitempty"`
	Author  int      `json:"author,omitempty"`
	Title   Rendered `json:"title"`
	Excerpt Rendered `json:"excerpt"`
	Content Rendered `json:"content"`
}

// ContentSummary is the condensed shape handed to tracking enrichment.
type ContentSummary struct {
	Type    string `json:"type"` // "post" or "page"
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Date    string `json:"date,omitempty"`
	Link    string `json:"link,omitempty"`
	Author  int    `json:"author,omitempty"`
}

// Summary converts a fetched post into its enrichment shape.
func (p *Post) Summary(contentType string) *ContentSummary {
	return &ContentSummary{
		Type:    contentType,
		ID:      p.ID,
		Title:   p.Title.Rendered,
		Excerpt: p.Excerpt.Rendered,
		Date:    p.Date,
		Link:    p.Link,
		Author:  p.Author,
	}
}

// Update carries a partial post/page update. Nil fields are left untouched.
type Update struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Excerpt *string `json:"excerpt,omitempty"`
}

// Empty reports whether the update would change nothing.
func (u Update) Empty() bool {
	return u.Title == nil && u.Content == nil && u.Excerpt == nil
}

// SiteInfo holds the subset of wp/v2 settings used for site verification.
type SiteInfo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// SearchResult is the outcome of a server-side content search.
type SearchResult struct {
	Found          bool   `json:"found"`
	PostID         int    `json:"postId,omitempty"`
	Type           string `json:"type,omitempty"` // "post" or "page"
	MatchedField   string `json:"matchedField,omitempty"`
	MatchedContent string `json:"matchedContent,omitempty"`
}

// SiteIdentifier reduces a site URL to the bare host form the
// WordPress.com API expects (no scheme, no trailing slash).
func SiteIdentifier(siteURL string) string {
	s := strings.TrimSpace(siteURL)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	return strings.TrimSuffix(s, "/")
}

// IsWordPressCom reports whether host is a wordpress.com site.
func IsWordPressCom(host string) bool {
	host = strings.ToLower(SiteIdentifier(host))
	return host == "wordpress.com" || strings.HasSuffix(host, ".wordpress.com")
}
