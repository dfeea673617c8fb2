package papersources

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// CleanText removes markup from upstream titles and snippets (PubMed titles
// carry <i> and <sup>, Scholar snippets carry <b>), decodes entities and
// collapses whitespace.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	stripped := html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.Join(strings.Fields(stripped), " ")
}
