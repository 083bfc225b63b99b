package mindmap

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultSourceBase is the article base URL generated maps point into.
const DefaultSourceBase = "https://en.wikipedia.org/wiki/"

var nonAnchor = regexp.MustCompile(`[^\w-]`)

// SectionURL builds the link for the "view section" action: the source page
// plus an anchor for section. The anchor is left off when section is the
// page itself.
func SectionURL(base, pageTitle, section string) string {
	if base == "" {
		base = DefaultSourceBase
	}
	u := strings.TrimRight(base, "/") + "/" + url.PathEscape(strings.ReplaceAll(pageTitle, " ", "_"))
	if section == "" || section == pageTitle {
		return u
	}
	anchor := nonAnchor.ReplaceAllString(strings.ReplaceAll(section, " ", "_"), "")
	return u + "#" + anchor
}
