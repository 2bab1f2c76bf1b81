// Package sanitize provides text sanitization utilities for user input that
// is stored or forwarded to a language model.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// htmlTagRegex matches HTML tags
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
	// markerRegex matches anything that looks like our prompt data fences
	markerRegex = regexp.MustCompile(`<<<\s*(BEGIN|END)_USER_DATA\s*>>>`)
)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text sanitizes a string for safe text storage by stripping HTML.
func Text(s string) string {
	return StripHTML(s)
}

// ChatMessage prepares a chat turn for inclusion in a model prompt. It
// drops control characters other than newline and tab, removes forged data
// fences and truncates to maxLen runes.
func ChatMessage(s string, maxLen int) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sb.WriteRune(r)
	}
	result := markerRegex.ReplaceAllString(sb.String(), "")
	result = strings.TrimSpace(result)

	if maxLen > 0 {
		runes := []rune(result)
		if len(runes) > maxLen {
			result = string(runes[:maxLen]) + "... [truncated]"
		}
	}
	return result
}
