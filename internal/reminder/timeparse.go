// Package reminder schedules spoken reminders for clock times. Times arrive
// as transcriptions, which are messy: "8:50 PM", "8 50 p.m.", "850pm", and a
// bare "846" all mean the same thing. The parser here accepts what speech
// recognition actually produces and resolves ambiguous 12-hour times to the
// nearest future occurrence.
package reminder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNoTime is returned when a phrase contains no recognisable clock time.
var ErrNoTime = errors.New("reminder: no time found in phrase")

type meridiem int

const (
	meridiemUnknown meridiem = iota
	meridiemAM
	meridiemPM
)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday,
	"friday": time.Friday, "saturday": time.Saturday,
}

// parsed is the raw result of scanning a when-phrase, before resolution
// against the current time.
type parsed struct {
	hour      int
	minute    int
	exact24   bool // hour is unambiguous (24-hour form, noon, midnight)
	mer       meridiem
	dayOffset int          // 0 = unset/today, 1 = tomorrow
	weekday   time.Weekday // valid when hasWeekday
	hasWeekday bool
}

// ParseWhen extracts a clock time from a spoken phrase and resolves it to an
// absolute time after now.
//
// Accepted forms include "8:50 PM", "8 50 p.m.", "850pm", "2130", "noon",
// "midnight", "8 o'clock in the morning", "tomorrow at 9", and weekday
// qualifiers ("on friday at noon"). A time with no AM/PM indicator resolves
// to its nearest future occurrence; on an explicitly named future day,
// hours seven through eleven read as morning and the rest as evening.
func ParseWhen(phrase string, now time.Time) (time.Time, error) {
	p, err := scan(phrase)
	if err != nil {
		return time.Time{}, err
	}
	return resolve(p, now)
}

// scan tokenises the phrase and extracts time-of-day and day qualifiers.
func scan(phrase string) (parsed, error) {
	norm := strings.ToLower(phrase)
	norm = strings.NewReplacer(
		"a.m.", "am", "p.m.", "pm",
		"a.m", "am", "p.m", "pm",
		"o'clock", "", "oclock", "",
		",", " ", "?", " ", "!", " ",
	).Replace(norm)

	p := parsed{hour: -1, minute: -1}

	for _, tok := range strings.Fields(norm) {
		tok = strings.Trim(tok, ".")
		switch tok {
		case "", "at", "on", "the", "in", "around", "about":
			continue
		case "am":
			p.mer = meridiemAM
			continue
		case "pm":
			p.mer = meridiemPM
			continue
		case "noon", "midday":
			p.hour, p.minute, p.exact24 = 12, 0, true
			continue
		case "midnight":
			p.hour, p.minute, p.exact24 = 0, 0, true
			continue
		case "morning":
			p.mer = meridiemAM
			continue
		case "afternoon", "evening", "night":
			p.mer = meridiemPM
			continue
		case "tonight":
			p.mer = meridiemPM
			continue
		case "today":
			continue
		case "tomorrow":
			p.dayOffset = 1
			continue
		}
		if wd, ok := weekdays[tok]; ok {
			p.weekday, p.hasWeekday = wd, true
			continue
		}

		// Numeric token, possibly with a glued am/pm suffix ("850pm").
		suffix := meridiemUnknown
		if strings.HasSuffix(tok, "am") {
			suffix, tok = meridiemAM, strings.TrimSuffix(tok, "am")
		} else if strings.HasSuffix(tok, "pm") {
			suffix, tok = meridiemPM, strings.TrimSuffix(tok, "pm")
		}
		if tok == "" {
			continue
		}
		h, m, ok := parseClockToken(tok)
		if !ok {
			continue
		}
		if suffix != meridiemUnknown {
			p.mer = suffix
		}
		switch {
		case p.hour < 0:
			p.hour, p.minute = h, m
		case p.minute < 0 && m < 0 && h <= 59:
			// "8 50": a second bare number is the minutes.
			p.minute = h
		}
	}

	if p.hour < 0 {
		return parsed{}, ErrNoTime
	}
	if p.minute < 0 {
		p.minute = 0
	}
	if p.hour > 23 || p.minute > 59 {
		return parsed{}, fmt.Errorf("reminder: %d:%02d is not a valid clock time", p.hour, p.minute)
	}
	if p.hour > 12 || p.hour == 0 {
		p.exact24 = true
	}
	return p, nil
}

// parseClockToken interprets a digit token as a clock reading. Returns
// minute -1 when the token carries only an hour.
//
//	"8"    -> 8, -1
//	"8:50" -> 8, 50
//	"850"  -> 8, 50
//	"2130" -> 21, 30
func parseClockToken(tok string) (hour, minute int, ok bool) {
	if h, m, found := strings.Cut(tok, ":"); found {
		hv, err1 := strconv.Atoi(h)
		mv, err2 := strconv.Atoi(m)
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		return hv, mv, true
	}
	v, err := strconv.Atoi(tok)
	if err != nil || v < 0 {
		return 0, 0, false
	}
	switch {
	case len(tok) <= 2:
		return v, -1, true
	case len(tok) == 3:
		return v / 100, v % 100, true
	case len(tok) == 4:
		return v / 100, v % 100, true
	}
	return 0, 0, false
}

// resolve turns a scanned time into an absolute future time relative to now.
func resolve(p parsed, now time.Time) (time.Time, error) {
	loc := now.Location()
	explicitDay := p.dayOffset > 0 || p.hasWeekday

	day := now.AddDate(0, 0, p.dayOffset)
	if p.hasWeekday {
		day = nextWeekday(now, p.weekday)
	}

	build := func(d time.Time, hour int) time.Time {
		return time.Date(d.Year(), d.Month(), d.Day(), hour, p.minute, 0, 0, loc)
	}

	// Unambiguous hour.
	if p.exact24 || p.mer != meridiemUnknown {
		hour := p.hour
		if !p.exact24 {
			hour = to24(p.hour, p.mer)
		}
		at := build(day, hour)
		if !explicitDay && !at.After(now) {
			at = at.AddDate(0, 0, 1)
		}
		if p.hasWeekday && !at.After(now) {
			at = at.AddDate(0, 0, 7)
		}
		return at, nil
	}

	amHour := p.hour % 12
	pmHour := amHour + 12

	if explicitDay {
		// The whole day is ahead, so "nearest future" cannot disambiguate.
		// Morning hours read as morning; the rest as evening.
		hour := pmHour
		if p.hour >= 7 && p.hour <= 11 {
			hour = amHour
		}
		at := build(day, hour)
		if p.hasWeekday && !at.After(now) {
			at = at.AddDate(0, 0, 7)
		}
		return at, nil
	}

	// Nearest future occurrence: today AM, today PM, then tomorrow AM.
	for _, cand := range []time.Time{
		build(now, amHour),
		build(now, pmHour),
		build(now.AddDate(0, 0, 1), amHour),
	} {
		if cand.After(now) {
			return cand, nil
		}
	}
	return time.Time{}, fmt.Errorf("reminder: cannot resolve %d:%02d to a future time", p.hour, p.minute)
}

// to24 converts a 12-hour reading with known meridiem to a 24-hour hour.
func to24(hour int, m meridiem) int {
	hour %= 12
	if m == meridiemPM {
		hour += 12
	}
	return hour
}

// nextWeekday returns the next date with the given weekday, today included.
func nextWeekday(now time.Time, wd time.Weekday) time.Time {
	days := (int(wd) - int(now.Weekday()) + 7) % 7
	return now.AddDate(0, 0, days)
}

// pronounFlips rewrites first-person words so a reminder set as "remind me
// to take my pills" is announced as "take your pills".
var pronounFlips = map[string]string{
	"i": "you", "me": "you", "my": "your", "mine": "yours",
	"myself": "yourself", "im": "you're", "i'm": "you're",
	"we": "you", "us": "you", "our": "your", "ours": "yours",
}

// FlipPronouns rewrites first-person pronouns to second person, word by word.
func FlipPronouns(text string) string {
	words := strings.Fields(text)
	for i, w := range words {
		trimmed := strings.Trim(strings.ToLower(w), ".,!?")
		if flip, ok := pronounFlips[trimmed]; ok {
			words[i] = strings.Replace(w, strings.Trim(w, ".,!?"), flip, 1)
		}
	}
	return strings.Join(words, " ")
}
