// Package richtext holds the few operations performed on the sanitized HTML
// fragments that make up question and instruction text. The content itself is
// opaque; nothing here parses it beyond tag detection and stripping.
package richtext

import (
	"regexp"
	"strings"
)

var (
	tagRegex    = regexp.MustCompile(`(?i)<[a-z][\s\S]*>`)
	stripRegex  = regexp.MustCompile(`<[^>]*>?`)
	entityRegex = regexp.MustCompile(`&(?:[a-zA-Z][a-zA-Z0-9]*|#[0-9]+|#[xX][0-9a-fA-F]+);`)
)

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
	"\n", "<br />",
)

// LooksLikeHTML reports whether s already contains a markup tag or a
// character reference, i.e. was produced by FromPlain or by the editor.
func LooksLikeHTML(s string) bool {
	return tagRegex.MatchString(s) || entityRegex.MatchString(s)
}

// FromPlain converts legacy plain text into a rich-text fragment: HTML
// special characters are escaped and newlines become line breaks. Text that
// already looks like HTML is returned unchanged, so FromPlain is idempotent.
func FromPlain(s string) string {
	if s == "" || LooksLikeHTML(s) {
		return s
	}
	return escaper.Replace(s)
}

// StripTags removes every markup tag and keeps the remaining bytes as-is.
func StripTags(s string) string {
	return stripRegex.ReplaceAllString(s, "")
}

// IsBlank reports whether the fragment has no visible text.
func IsBlank(s string) bool {
	text := StripTags(s)
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	return strings.TrimSpace(text) == ""
}
