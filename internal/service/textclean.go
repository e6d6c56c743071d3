package service

import (
	"regexp"
	"strings"
)

var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	blankLinePattern  = regexp.MustCompile(`\n\s*\n+`)
)

// Only this fixed entity set is decoded; anything else is left verbatim.
var htmlEntityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// CleanHTML strips tags, decodes a small set of entities and collapses all
// whitespace runs to a single space.
func CleanHTML(s string) string {
	if s == "" {
		return ""
	}
	text := htmlTagPattern.ReplaceAllString(s, " ")
	text = htmlEntityReplacer.Replace(text)
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// collapseBlankLines keeps paragraph breaks but drops runs of empty lines.
func collapseBlankLines(s string) string {
	return strings.TrimSpace(blankLinePattern.ReplaceAllString(s, "\n\n"))
}
