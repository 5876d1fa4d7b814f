// Package phonetic matches misheard words against a known vocabulary using
// Double Metaphone encoding with Jaro-Winkler ranking.
//
// Whisper-style recognisers reliably produce a real English word, just not
// always the spoken one ("whether" for "weather", "remainder" for
// "reminder"). Every vocabulary term is scored by Jaro-Winkler similarity;
// terms whose Double Metaphone codes overlap the input's qualify at a
// relaxed threshold, all others at a strict one. The highest-scoring
// qualifier wins.
//
// Multi-word terms are supported; similarity considers both the full
// strings and their space-stripped forms.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.92
)

// Option configures a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum similarity for a phonetically
// aligned term to be accepted. Default 0.70.
func WithPhoneticThreshold(t float64) Option {
	return func(m *Matcher) { m.phoneticThreshold = t }
}

// WithFuzzyThreshold sets the minimum similarity for the non-phonetic
// fallback pass. Kept deliberately strict so short free-text words are not
// rewritten into vocabulary terms. Default 0.92.
func WithFuzzyThreshold(t float64) Option {
	return func(m *Matcher) { m.fuzzyThreshold = t }
}

// Matcher scores input phrases against a compiled [Vocabulary]. It is
// read-only after construction and safe for concurrent use.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a [Matcher] with the supplied options applied.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// term is one vocabulary entry with its precomputed phonetic codes.
type term struct {
	text   string
	lower  string
	tokens []string
	codes  map[string]struct{}
}

// Vocabulary is a compiled set of known terms. Compile once, share freely.
type Vocabulary struct {
	terms    []term
	maxWords int
}

// Compile precomputes phonetic codes for every entry. Blank entries are
// dropped; duplicates are kept (harmless, first match wins on equal score).
func Compile(entries []string) *Vocabulary {
	v := &Vocabulary{}
	for _, e := range entries {
		lower := strings.ToLower(strings.TrimSpace(e))
		if lower == "" {
			continue
		}
		tokens := strings.Fields(lower)
		v.terms = append(v.terms, term{
			text:   lower,
			lower:  lower,
			tokens: tokens,
			codes:  codesForTokens(tokens),
		})
		if len(tokens) > v.maxWords {
			v.maxWords = len(tokens)
		}
	}
	return v
}

// MaxWords returns the token count of the longest term, bounding the n-gram
// window a caller needs to consider.
func (v *Vocabulary) MaxWords() int { return v.maxWords }

// Len returns the number of compiled terms.
func (v *Vocabulary) Len() int { return len(v.terms) }

// Match finds the vocabulary term most phonetically similar to phrase.
// When matched is false, corrected equals phrase unchanged and confidence
// is 0. An input that already equals a term matches itself with confidence 1.
func (m *Matcher) Match(phrase string, v *Vocabulary) (corrected string, confidence float64, matched bool) {
	lower := strings.ToLower(strings.TrimSpace(phrase))
	if v == nil || len(v.terms) == 0 || lower == "" {
		return phrase, 0, false
	}
	tokens := strings.Fields(lower)
	inputCodes := codesForTokens(tokens)

	var (
		bestTerm  string
		bestScore float64
	)

	// A term qualifies at the relaxed threshold when it phonetically aligns,
	// at the strict one otherwise. The highest-scoring qualifier wins.
	for i := range v.terms {
		t := &v.terms[i]
		threshold := m.fuzzyThreshold
		if codesOverlap(inputCodes, t.codes) {
			threshold = m.phoneticThreshold
		}
		score := similarity(tokens, t.tokens, lower, t.lower)
		if score >= threshold && score > bestScore {
			bestTerm, bestScore = t.text, score
		}
	}

	if bestTerm == "" {
		return phrase, 0, false
	}
	return bestTerm, bestScore, true
}

// codesForTokens unions the Double Metaphone codes of all tokens. Codes the
// encoder leaves empty are skipped.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, tok := range tokens {
		p, s := matchr.DoubleMetaphone(tok)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// similarity is the better Jaro-Winkler score of the full strings and the
// space-stripped strings. The stripped view lets a split transcription
// ("time or") line up against its single-word term. Per-token pairing is
// deliberately not used: it would score any window containing a vocabulary
// word as a perfect match and swallow the neighbouring words.
func similarity(inputTokens, termTokens []string, inputFull, termFull string) float64 {
	score := matchr.JaroWinkler(inputFull, termFull, false)

	if len(inputTokens) > 1 || len(termTokens) > 1 {
		joined1 := strings.Join(inputTokens, "")
		joined2 := strings.Join(termTokens, "")
		if s := matchr.JaroWinkler(joined1, joined2, false); s > score {
			score = s
		}
	}
	return score
}
