// normalize.go - Cleanup stages applied to a document reply before JSON decoding

package ai

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Stage is one named text transformation
type Stage struct {
	Name  string
	Apply func(string) string
}

// Pipeline runs stages in order
type Pipeline []Stage

// Run applies every stage to s
func (p Pipeline) Run(s string) string {
	for _, stage := range p {
		s = stage.Apply(s)
	}
	return s
}

// Names lists the stage names in order
func (p Pipeline) Names() []string {
	names := make([]string, len(p))
	for i, stage := range p {
		names[i] = stage.Name
	}
	return names
}

// DefaultPipeline is the cleanup every document reply goes through
func DefaultPipeline() Pipeline {
	return Pipeline{
		{Name: "strip_code_fences", Apply: StripCodeFences},
		{Name: "normalize_hebrew_ltd", Apply: NormalizeHebrewLtd},
		{Name: "escape_control_characters", Apply: EscapeControlCharacters},
	}
}

var codeFence = regexp.MustCompile("```[A-Za-z0-9_-]*")

// StripCodeFences removes markdown fence markers, with or without a language tag
func StripCodeFences(s string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(s, ""))
}

const (
	hebrewLtdASCII     = `בע"מ`
	hebrewLtdGershayim = "בע״מ"
)

// NormalizeHebrewLtd rewrites בע"מ with a gershayim so the quote no longer ends a JSON string
func NormalizeHebrewLtd(s string) string {
	return strings.ReplaceAll(s, hebrewLtdASCII, hebrewLtdGershayim)
}

// EscapeControlCharacters escapes raw control characters and stray backslashes that appear
// inside JSON string literals. Text outside string literals is left alone.
func EscapeControlCharacters(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])

		if !inString {
			if r == '"' {
				inString = true
			}
			b.WriteRune(r)
			i += size
			continue
		}

		switch {
		case r == '"':
			inString = false
			b.WriteRune(r)
		case r == '\\':
			if i+1 < len(s) && strings.IndexByte(`"\/bfnrtu`, s[i+1]) >= 0 {
				b.WriteByte('\\')
				b.WriteByte(s[i+1])
				i += 2
				continue
			}
			b.WriteString(`\\`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\b':
			b.WriteString(`\b`)
		case r == '\f':
			b.WriteString(`\f`)
		case r < 0x20:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			b.WriteRune(r)
		}
		i += size
	}

	return b.String()
}
