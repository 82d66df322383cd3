// Package htmlsanitize cleans admin-authored email HTML and user-submitted
// text with bluemonday.
package htmlsanitize

import (
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richPolicy  = newRichPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("u", "s", "sub", "sup", "mark")
	p.AllowAttrs("colspan", "rowspan").OnElements("td", "th")
	p.AllowAttrs("class").OnElements("table", "tr", "td", "th")
	p.AllowAttrs("style").OnElements("p", "span", "div", "td")
	return p
}

// Sanitize keeps formatting, links, lists and tables and removes scripts,
// event handlers, iframes and style blocks.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return richPolicy.Sanitize(s)
}

// SanitizeToHTML is Sanitize for use inside html/template.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// StripTags removes all markup, leaving text. Entities stay escaped.
func StripTags(s string) string {
	return strings.TrimSpace(plainPolicy.Sanitize(s))
}

// IsPlainText reports whether s contains no tag-looking markup.
func IsPlainText(s string) bool {
	return !strings.Contains(s, "<") || !strings.Contains(s, ">")
}
