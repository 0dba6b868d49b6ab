package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/dgallion1/torahtrack/internal/torah"
)

// ErrInvalidRange is wrapped by every ParseError.
var ErrInvalidRange = errors.New("invalid verse range")

// ParseError reports a verse-range string that does not match
// "<book> <chapter>:<verse>-<chapter>:<verse>".
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not parse verse range %q: %v", e.Input, e.Err)
	}
	return fmt.Sprintf("could not parse verse range %q", e.Input)
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidRange, e.Err}
	}
	return []error{ErrInvalidRange}
}

// rangeGrammar matches one or more book-name words followed by a span that
// closes the input. Span is a single token so the book name can never swallow
// the chapter numbers.
//
//nolint:govet // participle grammar tags are not standard struct tags
type rangeGrammar struct {
	Book []string `@Word+`
	Span string   `@Span`
}

var rangeLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Span", Pattern: `[0-9]+:[0-9]+-[0-9]+:[0-9]+`},
	{Name: "Word", Pattern: `[^\s]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var rangeParser = participle.MustBuild[rangeGrammar](
	participle.Lexer(rangeLexer),
	participle.Elide("Whitespace"),
)

// ParseVerseRange parses the primary segment of a leyning string such as
// "Genesis 6:9-11:32|Haftarah" or "Numbers 28:9-28:15; Numbers 28:19-28:25".
// Everything from the first '|', ';' or ',' onward is dropped.
func ParseVerseRange(raw string) (torah.VerseRange, error) {
	s := raw
	if i := strings.IndexAny(s, "|;,"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return torah.VerseRange{}, &ParseError{Input: raw, Err: errors.New("empty reference")}
	}

	parsed, err := rangeParser.ParseString("", s)
	if err != nil {
		return torah.VerseRange{}, &ParseError{Input: s, Err: err}
	}

	nums, err := splitSpan(parsed.Span)
	if err != nil {
		return torah.VerseRange{}, &ParseError{Input: s, Err: err}
	}

	return torah.VerseRange{
		Book:         torah.Book(strings.Join(parsed.Book, " ")),
		StartChapter: nums[0],
		StartVerse:   nums[1],
		EndChapter:   nums[2],
		EndVerse:     nums[3],
		Raw:          s,
	}, nil
}

// MustParseVerseRange is ParseVerseRange for literals known to be valid.
func MustParseVerseRange(raw string) torah.VerseRange {
	vr, err := ParseVerseRange(raw)
	if err != nil {
		panic(err)
	}
	return vr
}

func splitSpan(span string) ([4]int, error) {
	var out [4]int
	start, end, ok := strings.Cut(span, "-")
	if !ok {
		return out, fmt.Errorf("span %q has no '-'", span)
	}
	parts := make([]string, 0, 4)
	for _, half := range []string{start, end} {
		ch, v, ok := strings.Cut(half, ":")
		if !ok {
			return out, fmt.Errorf("span %q has no ':'", span)
		}
		parts = append(parts, ch, v)
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return out, fmt.Errorf("span %q: %w", span, err)
		}
		out[i] = n
	}
	return out, nil
}
