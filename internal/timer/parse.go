// Package timer runs countdown timers that announce their completion through
// the assistant's speech output. Durations arrive as transcribed speech
// ("five and a half minutes"), so the package includes a phrase parser and a
// formatter that names timers the way people say them.
package timer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNoDuration is returned when a phrase contains no parseable duration.
var ErrNoDuration = errors.New("timer: no duration found in phrase")

// wordNumbers maps spoken number words to values. Tens and ones compose
// additively ("twenty five" = 25).
var wordNumbers = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

var units = map[string]time.Duration{
	"second": time.Second, "seconds": time.Second,
	"minute": time.Minute, "minutes": time.Minute,
	"hour": time.Hour, "hours": time.Hour,
}

// ParsePhrase extracts a duration from a transcribed phrase such as
// "five minutes", "an hour and twenty minutes", "ninety seconds", or
// "half an hour". Number words, digits, and "and a half" are understood.
// Returns [ErrNoDuration] if nothing resembling a duration is present.
func ParsePhrase(phrase string) (time.Duration, error) {
	var (
		total    time.Duration
		num      int
		numSet   bool
		halfSet  bool
		found    bool
		lastUnit time.Duration
	)

	for _, tok := range strings.Fields(strings.ToLower(phrase)) {
		tok = strings.Trim(tok, ".,!?")
		switch {
		case tok == "and":
			// connector, ignore

		case tok == "a" || tok == "an":
			// "an hour" means one, but "half an hour" already carries the
			// quantity.
			if !numSet && !halfSet {
				num, numSet = 1, true
			}

		case tok == "half":
			halfSet = true

		case tok == "hundred":
			if !numSet {
				num = 1
			}
			num *= 100
			numSet = true

		default:
			if v, ok := wordNumbers[tok]; ok {
				num += v
				numSet = true
				continue
			}
			if v, err := strconv.Atoi(tok); err == nil && v >= 0 {
				num += v
				numSet = true
				continue
			}
			if unit, ok := units[tok]; ok {
				if !numSet && !halfSet {
					num = 1
				}
				total += time.Duration(num) * unit
				if halfSet {
					total += unit / 2
				}
				num, numSet, halfSet = 0, false, false
				lastUnit = unit
				found = true
			}
		}
	}

	// A trailing "and a half" halves the most recent unit: "a minute and a half".
	if halfSet && lastUnit > 0 {
		total += lastUnit / 2
	}

	if !found || total <= 0 {
		return 0, ErrNoDuration
	}
	return total, nil
}

// numberWords renders 0-99 as spoken words; larger values fall back to digits.
func numberWords(n int) string {
	if n < 0 {
		return strconv.Itoa(n)
	}
	for word, v := range wordNumbers {
		if v == n && (n < 20 || n%10 == 0) {
			return word
		}
	}
	if n < 100 {
		tens := n / 10 * 10
		return numberWords(tens) + " " + numberWords(n%10)
	}
	return strconv.Itoa(n)
}

// FormatDuration renders a duration the way it would be spoken:
// "five minutes", "one hour and twenty minutes", "five and a half minutes".
func FormatDuration(d time.Duration) string {
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)

	var parts []string
	if h > 0 {
		parts = append(parts, spoken(h, "hour"))
	}
	// "X and a half minutes" reads better than "X minutes and thirty seconds".
	if m > 0 && s == 30 && h == 0 {
		return fmt.Sprintf("%s and a half minutes", numberWords(m))
	}
	if m > 0 {
		parts = append(parts, spoken(m, "minute"))
	}
	if s > 0 || len(parts) == 0 {
		parts = append(parts, spoken(s, "second"))
	}
	return strings.Join(parts, " and ")
}

// Name builds the spoken timer name for a duration, e.g. "five minute timer".
// The unit stays singular because the phrase is attributive.
func Name(d time.Duration) string {
	spoken := FormatDuration(d)
	spoken = strings.ReplaceAll(spoken, "hours", "hour")
	spoken = strings.ReplaceAll(spoken, "minutes", "minute")
	spoken = strings.ReplaceAll(spoken, "seconds", "second")
	return spoken + " timer"
}

func spoken(n int, unit string) string {
	if n == 1 {
		return "one " + unit
	}
	return numberWords(n) + " " + unit + "s"
}
