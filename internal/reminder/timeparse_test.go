package reminder

import (
	"errors"
	"testing"
	"time"
)

// base is a Wednesday at 10:00 local time.
var base = time.Date(2026, 3, 4, 10, 0, 0, 0, time.Local)

func TestParseWhen_EquivalentForms(t *testing.T) {
	t.Parallel()
	want := time.Date(2026, 3, 4, 20, 50, 0, 0, time.Local)
	for _, phrase := range []string{
		"8:50 PM",
		"8 50 p.m.",
		"850pm",
		"8:50pm",
		"at 8 50 pm",
		"2050",
	} {
		got, err := ParseWhen(phrase, base)
		if err != nil {
			t.Errorf("ParseWhen(%q): %v", phrase, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseWhen(%q) = %v, want %v", phrase, got, want)
		}
	}
}

func TestParseWhen_AmbiguousResolvesToNearestFuture(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		phrase string
		now    time.Time
		want   time.Time
	}{
		{
			name:   "bare 846 morning still ahead",
			phrase: "846",
			now:    time.Date(2026, 3, 4, 8, 0, 0, 0, time.Local),
			want:   time.Date(2026, 3, 4, 8, 46, 0, 0, time.Local),
		},
		{
			name:   "bare 846 morning passed picks evening",
			phrase: "846",
			now:    base, // 10:00
			want:   time.Date(2026, 3, 4, 20, 46, 0, 0, time.Local),
		},
		{
			name:   "bare 846 evening passed picks tomorrow morning",
			phrase: "846",
			now:    time.Date(2026, 3, 4, 21, 0, 0, 0, time.Local),
			want:   time.Date(2026, 3, 5, 8, 46, 0, 0, time.Local),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseWhen(tt.phrase, tt.now)
			if err != nil {
				t.Fatalf("ParseWhen: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseWhen_NamedTimes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		phrase string
		want   time.Time
	}{
		{"noon", time.Date(2026, 3, 4, 12, 0, 0, 0, time.Local)},
		{"midnight", time.Date(2026, 3, 5, 0, 0, 0, 0, time.Local)},
		{"8 o'clock in the morning", time.Date(2026, 3, 5, 8, 0, 0, 0, time.Local)},
		{"8 in the evening", time.Date(2026, 3, 4, 20, 0, 0, 0, time.Local)},
		{"tonight at 9", time.Date(2026, 3, 4, 21, 0, 0, 0, time.Local)},
	}
	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			t.Parallel()
			got, err := ParseWhen(tt.phrase, base)
			if err != nil {
				t.Fatalf("ParseWhen(%q): %v", tt.phrase, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseWhen(%q) = %v, want %v", tt.phrase, got, tt.want)
			}
		})
	}
}

func TestParseWhen_DayQualifiers(t *testing.T) {
	t.Parallel()
	tests := []struct {
		phrase string
		want   time.Time
	}{
		// base is Wednesday 2026-03-04 at 10:00.
		{"tomorrow at 9 am", time.Date(2026, 3, 5, 9, 0, 0, 0, time.Local)},
		// Explicit day, ambiguous hour 9: morning hours 7-11 read as AM.
		{"tomorrow at 9", time.Date(2026, 3, 5, 9, 0, 0, 0, time.Local)},
		// Explicit day, ambiguous hour 6 reads as PM.
		{"tomorrow at 6", time.Date(2026, 3, 5, 18, 0, 0, 0, time.Local)},
		{"on friday at noon", time.Date(2026, 3, 6, 12, 0, 0, 0, time.Local)},
		// Today's weekday with a time already past rolls a full week.
		{"on wednesday at 8 am", time.Date(2026, 3, 11, 8, 0, 0, 0, time.Local)},
	}
	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			t.Parallel()
			got, err := ParseWhen(tt.phrase, base)
			if err != nil {
				t.Fatalf("ParseWhen(%q): %v", tt.phrase, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseWhen(%q) = %v, want %v", tt.phrase, got, tt.want)
			}
		})
	}
}

func TestParseWhen_Errors(t *testing.T) {
	t.Parallel()
	for _, phrase := range []string{"", "to feed the cat", "sometime soon"} {
		if _, err := ParseWhen(phrase, base); !errors.Is(err, ErrNoTime) {
			t.Errorf("ParseWhen(%q): got %v, want ErrNoTime", phrase, err)
		}
	}
	if _, err := ParseWhen("25:99", base); err == nil {
		t.Error("ParseWhen(25:99) should fail")
	}
}

func TestFlipPronouns(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"take my pills", "take your pills"},
		{"remind me that I left the oven on", "remind you that you left the oven on"},
		{"call our landlord", "call your landlord"},
		{"water the plants", "water the plants"},
	}
	for _, tt := range tests {
		if got := FlipPronouns(tt.in); got != tt.want {
			t.Errorf("FlipPronouns(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
