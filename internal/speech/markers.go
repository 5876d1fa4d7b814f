// Package speech serialises all spoken output of the assistant. Every
// response, timer announcement, and reminder flows through a single
// [Channel], so at most one utterance plays at a time and playback order is
// strictly first-in first-out.
//
// Spoken text may embed inline sound-effect markers of the form
// [[chime.wav]]. Markers are split out of the text before synthesis and the
// referenced clips are played in sequence with the surrounding speech.
package speech

import "strings"

// SegmentKind distinguishes spoken text from sound-effect playback.
type SegmentKind int

const (
	// SegmentText is synthesised via TTS.
	SegmentText SegmentKind = iota
	// SegmentSound names a clip in the sound library.
	SegmentSound
)

// Segment is one piece of an utterance after marker splitting.
type Segment struct {
	Kind SegmentKind
	// Value is the text to speak, or the sound name without directory
	// (e.g., "chime.wav").
	Value string
}

// ParseSegments splits text on [[name]] markers into an ordered list of text
// and sound segments. Text segments are trimmed; empty ones are dropped.
// A marker with no closing ]] is treated as literal text.
func ParseSegments(text string) []Segment {
	var segs []Segment
	for {
		start := strings.Index(text, "[[")
		if start < 0 {
			break
		}
		end := strings.Index(text[start+2:], "]]")
		if end < 0 {
			break
		}
		end += start + 2

		if t := strings.TrimSpace(text[:start]); t != "" {
			segs = append(segs, Segment{Kind: SegmentText, Value: t})
		}
		if name := strings.TrimSpace(text[start+2 : end]); name != "" {
			segs = append(segs, Segment{Kind: SegmentSound, Value: name})
		}
		text = text[end+2:]
	}
	if t := strings.TrimSpace(text); t != "" {
		segs = append(segs, Segment{Kind: SegmentText, Value: t})
	}
	return segs
}

// StripMarkers removes all [[name]] markers from text, collapsing the
// surrounding whitespace. Used for logging and for the "say that again"
// history, where sound effects are noise.
func StripMarkers(text string) string {
	var parts []string
	for _, seg := range ParseSegments(text) {
		if seg.Kind == SegmentText {
			parts = append(parts, seg.Value)
		}
	}
	return strings.Join(parts, " ")
}
