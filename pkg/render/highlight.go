package render

import (
	"html"
	"regexp"
	"strings"
)

// Best-effort lexical highlighting. Recognized tokens are wrapped in span
// tags; everything else passes through untouched. Content is HTML-escaped
// before any tagging so raw code can never be interpreted as structural
// markup by the presentation layer.

// markupTag matches an escaped opening or closing tag name, e.g. &lt;div or
// &lt;/div.
var markupTag = regexp.MustCompile(`(&lt;/?)([a-zA-Z][a-zA-Z0-9-]*)`)

// cssSelector matches the selector part of a line ending in an opening
// brace.
var cssSelector = regexp.MustCompile(`(?m)^([^{\n]+?)(\s*\{)`)

// cssProperty matches a property name followed by a colon at the start of a
// line.
var cssProperty = regexp.MustCompile(`(?m)^(\s+)([-a-zA-Z]+)(\s*:)`)

// Highlight escapes content and tags recognized tokens for the given
// language. Unrecognized languages come back escaped but untagged.
func Highlight(language, content string) string {
	escaped := html.EscapeString(content)
	switch strings.ToLower(language) {
	case "html", "xml", "svg", "markup":
		return markupTag.ReplaceAllString(escaped, `$1<span class="tok-tag">$2</span>`)
	case "css":
		tagged := cssSelector.ReplaceAllString(escaped, `<span class="tok-selector">$1</span>$2`)
		return cssProperty.ReplaceAllString(tagged, `$1<span class="tok-prop">$2</span>$3`)
	default:
		return escaped
	}
}
