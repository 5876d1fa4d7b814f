// Package template matches transcribed phrases against a compact pattern
// language and pulls named arguments out of the winning phrase:
//
//	[alt1|alt2]   matches any one of the alternatives; groups may nest
//	$name         captures one or more words into the named field
//	literal text  matches case-insensitively with flexible whitespace
//
// "[set|start] a timer for $duration" matches "start a timer for ten
// minutes" with duration = "ten minutes". The same $name may appear in
// different alternatives of one group. Captures are non-greedy unless the
// template is compiled greedy, which lets a trailing field swallow
// embedded keywords ("remind me to $task at $time" keeping "go to bed"
// intact).
package template

import (
	"fmt"
	"regexp"
	"strings"
)

// Template is one compiled phrase pattern.
type Template struct {
	pattern string
	re      *regexp.Regexp
	fields  map[int]string // capturing group index -> field name
}

// Parse compiles a pattern with non-greedy captures.
func Parse(pattern string) (*Template, error) { return compile(pattern, false) }

// ParseGreedy compiles a pattern whose captures take as many words as
// possible.
func ParseGreedy(pattern string) (*Template, error) { return compile(pattern, true) }

// MustParse is Parse for package-level pattern tables; it panics on error.
func MustParse(pattern string) *Template {
	t, err := Parse(pattern)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the original pattern.
func (t *Template) String() string { return t.pattern }

// Match reports whether text matches the full pattern and returns the
// captured fields by name. Matching is case-insensitive, whitespace between
// words is flexible, and trailing punctuation on the text is ignored.
// A field appearing in an unmatched alternative is absent from the result.
func (t *Template) Match(text string) (map[string]string, bool) {
	m := t.re.FindStringSubmatch(clean(text))
	if m == nil {
		return nil, false
	}
	caps := make(map[string]string)
	for idx, name := range t.fields {
		if v := strings.TrimSpace(m[idx]); v != "" {
			caps[name] = v
		}
	}
	return caps, true
}

// clean trims surrounding whitespace and the trailing punctuation that STT
// engines like to append.
func clean(text string) string {
	return strings.TrimRight(strings.TrimSpace(text), "?!., ")
}

// compiler turns the pattern language into an anchored regular expression,
// numbering capturing groups as it goes.
type compiler struct {
	greedy bool
	groups int
	fields map[int]string
}

func compile(pattern string, greedy bool) (*Template, error) {
	c := &compiler{greedy: greedy, fields: make(map[int]string)}
	body, err := c.fragment(pattern)
	if err != nil {
		return nil, fmt.Errorf("template: %q: %w", pattern, err)
	}
	re, err := regexp.Compile(`(?i)^` + body + `$`)
	if err != nil {
		return nil, fmt.Errorf("template: %q: %w", pattern, err)
	}
	return &Template{pattern: pattern, re: re, fields: c.fields}, nil
}

func (c *compiler) fragment(s string) (string, error) {
	var out strings.Builder
	for i := 0; i < len(s); {
		switch {
		case s[i] == '[':
			end, err := closingBracket(s, i)
			if err != nil {
				return "", err
			}
			alts := splitAlternatives(s[i+1 : end])
			parts := make([]string, len(alts))
			for j, alt := range alts {
				if strings.TrimSpace(alt) == "" {
					return "", fmt.Errorf("empty alternative")
				}
				p, err := c.fragment(alt)
				if err != nil {
					return "", err
				}
				parts[j] = p
			}
			out.WriteString(`(?:` + strings.Join(parts, "|") + `)`)
			i = end + 1
		case s[i] == '$':
			name := fieldName(s[i+1:])
			if name == "" {
				return "", fmt.Errorf("bad field at %q", s[i:])
			}
			c.groups++
			c.fields[c.groups] = name
			if c.greedy {
				out.WriteString(`(.+)`)
			} else {
				out.WriteString(`(.+?)`)
			}
			i += 1 + len(name)
		case s[i] == ' ' || s[i] == '\t':
			for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
				i++
			}
			out.WriteString(`\s+`)
		default:
			out.WriteString(regexp.QuoteMeta(s[i : i+1]))
			i++
		}
	}
	return out.String(), nil
}

// closingBracket finds the ] matching the [ at position open.
func closingBracket(s string, open int) (int, error) {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unclosed group")
}

// splitAlternatives splits on top-level | characters, respecting nesting.
func splitAlternatives(s string) []string {
	var alts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
		case '|':
			if depth == 0 {
				alts = append(alts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(alts, s[start:])
}

func fieldName(s string) string {
	for i := 0; i < len(s); i++ {
		ch := s[i]
		ok := ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' ||
			i > 0 && ch >= '0' && ch <= '9'
		if !ok {
			return s[:i]
		}
	}
	return s
}

// Set is an ordered collection of templates scored as a unit.
type Set struct {
	templates []*Template
}

// NewSet compiles all patterns; it panics on an invalid pattern, since sets
// are built from literals at startup.
func NewSet(patterns ...string) *Set {
	s := &Set{}
	for _, p := range patterns {
		s.templates = append(s.templates, MustParse(p))
	}
	return s
}

// NewGreedySet is NewSet with greedy captures.
func NewGreedySet(patterns ...string) *Set {
	s := &Set{}
	for _, p := range patterns {
		t, err := ParseGreedy(p)
		if err != nil {
			panic(err)
		}
		s.templates = append(s.templates, t)
	}
	return s
}

// Match returns the captures of the first template that matches text.
func (s *Set) Match(text string) (map[string]string, bool) {
	for _, t := range s.templates {
		if caps, ok := t.Match(text); ok {
			return caps, ok
		}
	}
	return nil, false
}

// Score is 1 when any template matches text and 0 otherwise. Commands that
// want graded confidence combine this with [KeywordScore].
func (s *Set) Score(text string) float64 {
	if _, ok := s.Match(text); ok {
		return 1
	}
	return 0
}

// KeywordScore is the fraction of keywords present in text, a soft signal
// for commands without a rigid phrase shape. Returns 0 for no keywords.
func KeywordScore(text string, keywords ...string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if w = strings.Trim(w, ".,!?;:'\""); w != "" {
			words[w] = true
		}
	}
	hits := 0
	for _, k := range keywords {
		if words[strings.ToLower(k)] {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}
