package timer

import (
	"errors"
	"testing"
	"time"
)

func TestParsePhrase(t *testing.T) {
	t.Parallel()
	tests := []struct {
		phrase string
		want   time.Duration
	}{
		{"five minutes", 5 * time.Minute},
		{"set a timer for five minutes", 5 * time.Minute},
		{"1 minute", time.Minute},
		{"90 seconds", 90 * time.Second},
		{"ninety seconds", 90 * time.Second},
		{"twenty five minutes", 25 * time.Minute},
		{"an hour", time.Hour},
		{"an hour and twenty minutes", time.Hour + 20*time.Minute},
		{"five and a half minutes", 5*time.Minute + 30*time.Second},
		{"half an hour", 30 * time.Minute},
		{"a minute and a half", 90 * time.Second},
		{"two hours thirty minutes", 2*time.Hour + 30*time.Minute},
		{"a hundred seconds", 100 * time.Second},
		{"one hour, twenty minutes", time.Hour + 20*time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			t.Parallel()
			got, err := ParsePhrase(tt.phrase)
			if err != nil {
				t.Fatalf("ParsePhrase(%q): %v", tt.phrase, err)
			}
			if got != tt.want {
				t.Errorf("ParsePhrase(%q) = %v, want %v", tt.phrase, got, tt.want)
			}
		})
	}
}

func TestParsePhrase_NoDuration(t *testing.T) {
	t.Parallel()
	for _, phrase := range []string{"", "set a timer", "five", "banana bread"} {
		if _, err := ParsePhrase(phrase); !errors.Is(err, ErrNoDuration) {
			t.Errorf("ParsePhrase(%q): got %v, want ErrNoDuration", phrase, err)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Minute, "five minutes"},
		{time.Minute, "one minute"},
		{90 * time.Second, "one and a half minutes"},
		{time.Hour + 20*time.Minute, "one hour and twenty minutes"},
		{45 * time.Second, "forty five seconds"},
		{2 * time.Hour, "two hours"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestName(t *testing.T) {
	t.Parallel()
	if got := Name(5 * time.Minute); got != "five minute timer" {
		t.Errorf("Name(5m) = %q, want %q", got, "five minute timer")
	}
	if got := Name(5*time.Minute + 30*time.Second); got != "five and a half minute timer" {
		t.Errorf("Name(5m30s) = %q", got)
	}
}
