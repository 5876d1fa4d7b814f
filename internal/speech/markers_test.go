package speech

import (
	"reflect"
	"testing"
)

func TestParseSegments(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want []Segment
	}{
		{
			name: "plain text",
			in:   "Timer set for five minutes.",
			want: []Segment{{SegmentText, "Timer set for five minutes."}},
		},
		{
			name: "leading sound",
			in:   "[[chime.wav]] Your timer is done.",
			want: []Segment{
				{SegmentSound, "chime.wav"},
				{SegmentText, "Your timer is done."},
			},
		},
		{
			name: "sound between text",
			in:   "Five minute timer [[ding]] complete.",
			want: []Segment{
				{SegmentText, "Five minute timer"},
				{SegmentSound, "ding"},
				{SegmentText, "complete."},
			},
		},
		{
			name: "adjacent sounds",
			in:   "[[a.wav]][[b.wav]]",
			want: []Segment{
				{SegmentSound, "a.wav"},
				{SegmentSound, "b.wav"},
			},
		},
		{
			name: "unterminated marker is literal",
			in:   "hello [[broken",
			want: []Segment{{SegmentText, "hello [[broken"}},
		},
		{
			name: "empty marker dropped",
			in:   "a [[]] b",
			want: []Segment{
				{SegmentText, "a"},
				{SegmentText, "b"},
			},
		},
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ParseSegments(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSegments(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStripMarkers(t *testing.T) {
	t.Parallel()
	got := StripMarkers("[[chime.wav]] Your timer [[ding]] is done.")
	want := "Your timer is done."
	if got != want {
		t.Errorf("StripMarkers = %q, want %q", got, want)
	}
}
