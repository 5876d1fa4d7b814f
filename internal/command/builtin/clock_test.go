package builtin

import (
	"context"
	"testing"
	"time"
)

func TestClockDayAndDate(t *testing.T) {
	t.Parallel()
	c := NewClockCommand()
	c.now = func() time.Time {
		return time.Date(2026, time.August, 30, 15, 4, 0, 0, time.Local)
	}

	tests := []struct {
		text string
		want string
	}{
		{"what day is it", "Today is Sunday, August 30."},
		{"what day of the week is it", "Today is Sunday, August 30."},
		{"what is the date", "Today is Sunday, August 30, 2026."},
		{"what's today's date", "Today is Sunday, August 30, 2026."},
		{"what time is it", "It is 3:04 PM."},
	}
	for _, tt := range tests {
		if got := c.Score(tt.text); got != 1 {
			t.Errorf("Score(%q) = %v, want 1", tt.text, got)
		}
		resp, err := c.Handle(context.Background(), tt.text)
		if err != nil {
			t.Fatalf("Handle(%q): %v", tt.text, err)
		}
		if resp.Text != tt.want {
			t.Errorf("Handle(%q) = %q, want %q", tt.text, resp.Text, tt.want)
		}
	}
}
