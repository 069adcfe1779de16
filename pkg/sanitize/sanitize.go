// Package sanitize derives filesystem-safe directory and file names from
// session titles.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const maxLength = 100

// quoteRunes are apostrophe-like characters stripped outright, not replaced
// with a hyphen, so "What's" becomes "whats".
const quoteRunes = "'’‘“”`‛\"″‟„ʻʼ"

var (
	separatorRe = regexp.MustCompile(`[\s\-–—_]+`)
	punctRe     = regexp.MustCompile(`[,:;!?]+`)
	invalidRe   = regexp.MustCompile(`[<>:"/\\|?*()\[\]{}]+`)
	hyphenRunRe = regexp.MustCompile(`-+`)
)

// Filename normalizes a title into a lowercase hyphenated slug capped at 100
// characters. The cap prefers cutting at the last hyphen within the tail 20
// characters so names never end mid-word when a boundary exists. Sanitizing an
// already-sanitized string returns it unchanged.
func Filename(name string) string {
	name = norm.NFKD.String(name)
	name = strings.ToLower(name)

	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(quoteRunes, r) {
			return -1
		}
		return r
	}, name)

	name = separatorRe.ReplaceAllString(name, "-")
	name = punctRe.ReplaceAllString(name, "-")
	name = invalidRe.ReplaceAllString(name, "")
	name = hyphenRunRe.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-. ")

	if len(name) > maxLength {
		// Never split a multi-byte sequence; NFKD output keeps combining
		// marks, so the cap can land mid-rune.
		cut := maxLength
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		truncated := name[:cut]
		if lastHyphen := strings.LastIndex(truncated, "-"); lastHyphen > maxLength-20 {
			truncated = truncated[:lastHyphen]
		}
		name = truncated
	}

	return name
}
