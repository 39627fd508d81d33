package match

import "regexp"

// idPattern is one entry in the ordered ID-extraction table. Patterns are
// evaluated top to bottom; the first capture wins.
type idPattern struct {
	name string
	re   *regexp.Regexp
}

// idPatterns covers the markup and URL shapes WordPress uses to expose
// post and page IDs.
var idPatterns = []idPattern{
	{"css-class", regexp.MustCompile(`(?i)post-(\d+)`)},
	{"postid-attr", regexp.MustCompile(`(?i)postid=["']?(\d+)["']?`)},
	{"json-field", regexp.MustCompile(`(?i)post_id["']?\s*:\s*["']?(\d+)`)},
	{"data-attr", regexp.MustCompile(`(?i)data-id=["']?(\d+)["']?`)},
	{"wp-post-class", regexp.MustCompile(`(?i)wp-post-(\d+)`)},
	{"page-id-class", regexp.MustCompile(`(?i)page-id-(\d+)`)},
	{"url-param", regexp.MustCompile(`(?i)post_id=(\d+)`)},
}

var numberRe = regexp.MustCompile(`\d+`)

// ExtractPostID scans text for an explicit WordPress ID marker and returns
// the captured ID, or "" when no pattern applies.
func ExtractPostID(text string) string {
	for _, p := range idPatterns {
		if m := p.re.FindStringSubmatch(text); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}
