package utils

import (
	"regexp"
	"strings"
)

// Instagram DMs render markdown literally, so outbound text is flattened to
// plain text with bullet characters before delivery.
var (
	boldRe          = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	boldUnderRe     = regexp.MustCompile(`__([^_]+)__`)
	italicRe        = regexp.MustCompile(`\*([^*]+)\*`)
	italicUnderRe   = regexp.MustCompile(`_([^_]+)_`)
	strikethroughRe = regexp.MustCompile(`~~([^~]+)~~`)
	inlineCodeRe    = regexp.MustCompile("`([^`]+)`")
	headingRe       = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	listMarkerRe    = regexp.MustCompile(`(?m)^[-*]\s+`)
	blankRunsRe     = regexp.MustCompile(`\n{3,}`)
)

// FlattenMarkdown strips markdown emphasis, headings and code spans and
// converts list markers to bullet characters.
func FlattenMarkdown(text string) string {
	if text == "" {
		return text
	}

	out := boldRe.ReplaceAllString(text, "$1")
	out = boldUnderRe.ReplaceAllString(out, "$1")
	out = italicRe.ReplaceAllString(out, "$1")
	out = italicUnderRe.ReplaceAllString(out, "$1")
	out = strikethroughRe.ReplaceAllString(out, "$1")
	out = inlineCodeRe.ReplaceAllString(out, "$1")
	out = headingRe.ReplaceAllString(out, "")
	out = listMarkerRe.ReplaceAllString(out, "• ")
	out = blankRunsRe.ReplaceAllString(out, "\n\n")

	return strings.TrimSpace(out)
}
