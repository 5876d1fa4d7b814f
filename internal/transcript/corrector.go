// Package transcript repairs recognition errors in transcribed commands
// before they reach the dispatcher.
//
// Speech recognition tends to substitute a similar-sounding English word for
// domain vocabulary: "whether" for "weather", "remainder" for "reminder",
// "time or" for "timer". The [Corrector] walks the transcript with n-gram
// windows and replaces spans that phonetically align with a known command
// vocabulary, leaving everything else untouched so free text inside timers
// and reminders survives intact.
package transcript

import (
	"strings"

	"github.com/MrWong99/fireside/internal/transcript/phonetic"
)

// DefaultVocabulary lists the command words the built-in commands key on.
// Extra site-specific terms can be appended via configuration.
func DefaultVocabulary() []string {
	return []string{
		"timer", "timers", "reminder", "reminders", "remind",
		"cancel", "weather", "forecast", "temperature",
		"o'clock", "midnight", "noon",
		"morning", "afternoon", "evening", "tonight", "tomorrow",
		// Correctly transcribed command words that must never be rewritten
		// into a near neighbour ("time" into "timer").
		"time", "clock", "minute", "minutes", "hour", "hours",
		"second", "seconds",
	}
}

// Correction records one replacement applied to a transcript.
type Correction struct {
	// Original is the span as transcribed.
	Original string
	// Corrected is the vocabulary term that replaced it.
	Corrected string
	// Confidence is the similarity score that justified the replacement.
	Confidence float64
}

// Option configures a [Corrector].
type Option func(*Corrector)

// WithMatcher replaces the default phonetic matcher, mainly to tune
// thresholds in tests.
func WithMatcher(m *phonetic.Matcher) Option {
	return func(c *Corrector) { c.matcher = m }
}

// Corrector rewrites transcripts against a fixed vocabulary. It is read-only
// after construction and safe for concurrent use.
type Corrector struct {
	matcher *phonetic.Matcher
	vocab   *phonetic.Vocabulary
	exact   map[string]struct{}
}

// NewCorrector compiles terms into a vocabulary. Terms already spelled
// correctly in a transcript are never rewritten.
func NewCorrector(terms []string, opts ...Option) *Corrector {
	c := &Corrector{
		matcher: phonetic.New(),
		vocab:   phonetic.Compile(terms),
		exact:   make(map[string]struct{}, len(terms)),
	}
	for _, t := range terms {
		c.exact[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Correct returns text with vocabulary-aligned spans replaced, plus the list
// of corrections applied. Unmatched text passes through verbatim; when no
// correction applies the input is returned unchanged.
//
// Windows are tried longest-first at each position so multi-word terms beat
// partial single-word matches, mirroring how a reader resolves "time or"
// into "timer".
func (c *Corrector) Correct(text string) (string, []Correction) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 || c.vocab.Len() == 0 {
		return text, nil
	}

	maxN := c.vocab.MaxWords()
	// A two-word window still catches split single words ("time or").
	if maxN < 2 {
		maxN = 2
	}

	var (
		out         []string
		corrections []Correction
	)

	i := 0
	for i < len(tokens) {
		n := maxN
		if i+n > len(tokens) {
			n = len(tokens) - i
		}

		replaced := false
		for ; n >= 1; n-- {
			window := strings.Join(tokens[i:i+n], " ")
			key := strings.ToLower(trimPunct(window))
			if _, ok := c.exact[key]; ok {
				// Already a vocabulary term; leave it and move on.
				break
			}
			if len(key) < minCorrectLen {
				continue
			}
			term, conf, ok := c.matcher.Match(key, c.vocab)
			if !ok || term == key {
				continue
			}
			if n > 1 && !mergeAllowed(tokens[i:i+n], term, conf) {
				continue
			}
			out = append(out, term)
			corrections = append(corrections, Correction{
				Original:   window,
				Corrected:  term,
				Confidence: conf,
			})
			i += n
			replaced = true
			break
		}

		if !replaced {
			out = append(out, tokens[i])
			i++
		}
	}

	if len(corrections) == 0 {
		return text, nil
	}
	return strings.Join(out, " "), corrections
}

// minCorrectLen is the shortest span eligible for correction. Three-letter
// words sit too close to everything ("tim" reads as "time") to rewrite
// safely.
const minCorrectLen = 4

// splitConfidence is the similarity a multi-token window must reach before
// its tokens are merged into one term. Genuine split transcriptions clear
// it ("time or" scores 0.967 against "timer"); windows that merely contain
// or border a vocabulary word fall short ("remind me" scores 0.95 against
// "reminder").
const splitConfidence = 0.96

// mergeAllowed guards multi-token replacements. Collapsing several words
// into one term deletes words from the transcript, so it is only allowed
// when the whole window reads as one split-up term and the term is not
// simply one of the window's own tokens.
func mergeAllowed(windowTokens []string, term string, conf float64) bool {
	if conf < splitConfidence {
		return false
	}
	for _, tok := range windowTokens {
		if strings.ToLower(trimPunct(tok)) == term {
			return false
		}
	}
	return true
}

// trimPunct strips sentence punctuation so "weather?" still matches.
func trimPunct(s string) string {
	return strings.Trim(s, ".,!?")
}
