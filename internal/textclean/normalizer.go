// Package textclean turns the raw text of a Wikipedia paragraph into a clean
// biography string.
//
// Normalization is an ordered pipeline of named passes. Later passes assume
// the earlier ones already ran, so the order in Default is part of the contract:
//
//	citations      -> strip [1], [a], [note 3] markers
//	pronunciations -> strip IPA and "Language: [...]" annotations inside (...)
//	cleanup        -> drop parentheses emptied by the previous pass
//
// Text without citation markers or parenthesized annotations passes through
// unchanged, parentheses included.
package textclean

import (
	"regexp"
	"strings"
	"unicode"
)

type Pass struct {
	Name  string
	Apply func(string) string
}

type Pipeline []Pass

var Default = Pipeline{
	{Name: "citations", Apply: StripCitations},
	{Name: "pronunciations", Apply: StripPronunciations},
	{Name: "cleanup", Apply: Cleanup},
}

// Normalize runs the Default pipeline.
func Normalize(text string) string {
	return Default.Run(text)
}

// Run applies every pass in order. A pass that panics leaves its input as is.
func (p Pipeline) Run(text string) string {
	for _, pass := range p {
		text = applySafely(pass.Apply, text)
	}
	return text
}

func applySafely(fn func(string) string, text string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = text
		}
	}()
	return fn(text)
}

const citationToken = `\[(?:\d{1,3}|[a-zA-Z]|note \d{1,3})\]`

var (
	citationRe       = regexp.MustCompile(` ?` + citationToken)
	spanCitationRe   = regexp.MustCompile(citationToken)
	ipaRe            = regexp.MustCompile(`(^|[\s;,])/[^/]+/([\s;,]|$)`)
	langPronRe       = regexp.MustCompile(`(?:\p{L}+\s+)?pronunciation:\s*\[[^\]]*\]`)
	langRe           = regexp.MustCompile(`\p{L}+:\s*\[[^\]]*\]`)
	spaceRunRe       = regexp.MustCompile(`\s{2,}`)
	separatorRunRe   = regexp.MustCompile(`\s*([;,])(?:\s*[;,])+\s*`)
	spaceBeforeSepRe = regexp.MustCompile(`\s+([;,])`)
	emptyParenRe     = regexp.MustCompile(` ?\(\s*\)`)
	emptiedSpanRe    = regexp.MustCompile(` ?` + regexp.QuoteMeta(emptiedSpan))
)

const audioGlyph = "ⓘ"

// emptiedSpan stands in for a span whose whole content was annotation. NUL
// never survives HTML parsing, so it cannot collide with scraped text.
const emptiedSpan = "(\x00)"

// StripCitations removes footnote markers such as [1], [b] or [note 2],
// together with a single space in front of them.
func StripCitations(text string) string {
	return citationRe.ReplaceAllString(text, "")
}

// StripPronunciations rewrites every balanced top-level (...) span that holds
// a pronunciation annotation. Spans without one are copied byte for byte, and
// an unbalanced "(" leaves the remainder of the text untouched. A span left
// with nothing in it is written as a marker that Cleanup removes.
func StripPronunciations(text string) string {
	if !strings.Contains(text, "(") {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	rest := text
	for {
		open := strings.IndexByte(rest, '(')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		closeIdx := matchingParen(rest, open)
		if closeIdx < 0 {
			b.WriteString(rest)
			break
		}

		b.WriteString(rest[:open])
		content := rest[open+1 : closeIdx]
		cleaned := cleanSpanSafely(content)
		if cleaned == "" && content != "" {
			b.WriteString(emptiedSpan)
		} else {
			b.WriteByte('(')
			b.WriteString(cleaned)
			b.WriteByte(')')
		}
		rest = rest[closeIdx+1:]
	}

	return b.String()
}

// Cleanup drops the spans StripPronunciations emptied, with one preceding
// space. Parentheses that were empty in the source are kept.
func Cleanup(text string) string {
	if !strings.Contains(text, emptiedSpan) {
		return text
	}
	return emptiedSpanRe.ReplaceAllString(text, "")
}

func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func cleanSpanSafely(content string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = content
		}
	}()
	return cleanSpan(content)
}

func cleanSpan(content string) string {
	s := spanCitationRe.ReplaceAllString(content, "")
	s = stripIPA(s)
	s = langPronRe.ReplaceAllString(s, "")
	s = langRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, audioGlyph, "")

	if s == content {
		return content
	}
	return tidy(s)
}

// stripIPA repeats until stable because adjacent groups share a boundary
// character that a single ReplaceAll consumes.
func stripIPA(s string) string {
	for i := 0; i < 8; i++ {
		next := ipaRe.ReplaceAllString(s, "${1}${2}")
		if next == s {
			return s
		}
		s = next
	}
	return s
}

func tidy(s string) string {
	s = emptyParenRe.ReplaceAllString(s, "")
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = separatorRunRe.ReplaceAllString(s, "$1 ")
	s = spaceBeforeSepRe.ReplaceAllString(s, "$1")
	return strings.TrimFunc(s, isSeparatorOrSpace)
}

func isSeparatorOrSpace(r rune) bool {
	return unicode.IsSpace(r) || r == ';' || r == ','
}
