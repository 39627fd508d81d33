package match

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Field class conventions used by WordPress themes and the block editor.
var (
	titleClasses = []string{
		"entry-title", "post-title", "wp-block-post-title",
		"site-title", "article-title", "page-title",
	}
	contentClasses = []string{
		"entry-content", "post-content", "wp-block-post-content",
		"article-content", "page-content", "content-area",
	}
	excerptClasses = []string{
		"entry-summary", "post-excerpt", "wp-block-post-excerpt",
		"article-excerpt", "excerpt-content",
	}
)

// ClassifyFragment guesses which post field a pasted HTML fragment came
// from ("title", "content", "excerpt") by inspecting its markup. Returns ""
// when the fragment carries no recognizable WordPress conventions.
func ClassifyFragment(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return ""
	}

	el := doc.Find("body").Children().First()
	if el.Length() == 0 {
		return ""
	}

	// Heading tags are titles regardless of class.
	switch goquery.NodeName(el) {
	case "h1", "h2", "h3":
		return "title"
	}

	if matchesClass(el, titleClasses) {
		return "title"
	}
	if matchesClass(el, excerptClasses) {
		return "excerpt"
	}
	if matchesClass(el, contentClasses) {
		return "content"
	}

	// Paragraph-heavy fragments default to content.
	if el.Is("p") || el.Find("p").Length() > 0 {
		return "content"
	}

	return ""
}

// matchesClass checks the element and its descendants for any of the class
// substrings.
func matchesClass(sel *goquery.Selection, patterns []string) bool {
	if classContains(sel, patterns) {
		return true
	}
	found := false
	sel.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if classContains(s, patterns) {
			found = true
			return false
		}
		return true
	})
	return found
}

func classContains(sel *goquery.Selection, patterns []string) bool {
	class, _ := sel.Attr("class")
	class = strings.ToLower(class)
	for _, p := range patterns {
		if strings.Contains(class, p) {
			return true
		}
	}
	return false
}
