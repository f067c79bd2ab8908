package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WorkingHours maps a lowercase weekday name to its "HH:MM-HH:MM" windows.
// A missing or empty entry is a day off.
type WorkingHours map[string][]string

// Window is a working range in minutes from midnight, half-open [Start, End).
type Window struct {
	Start int
	End   int
}

var weekdayNames = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// WeekdayName returns the lowercase key used in WorkingHours.
func WeekdayName(day time.Weekday) string {
	return weekdayNames[day]
}

// ParseWindow parses "HH:MM-HH:MM".
func ParseWindow(raw string) (Window, error) {
	start, end, ok := strings.Cut(strings.TrimSpace(raw), "-")
	if !ok {
		return Window{}, fmt.Errorf("%w: window %q is not HH:MM-HH:MM", ErrInvalidWorkingHours, raw)
	}
	s, err := ParseClock(start)
	if err != nil {
		return Window{}, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return Window{}, err
	}
	if s >= e {
		return Window{}, fmt.Errorf("%w: window %q ends before it starts", ErrInvalidWorkingHours, raw)
	}
	return Window{Start: s, End: e}, nil
}

// ParseClock parses "HH:MM" into minutes from midnight.
func ParseClock(raw string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidWorkingHours, raw)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("%w: bad hour in %q", ErrInvalidWorkingHours, raw)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: bad minute in %q", ErrInvalidWorkingHours, raw)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Validate enforces known weekday keys and chronologically ordered,
// non-overlapping windows within each day.
func (w WorkingHours) Validate() error {
	for day, windows := range w {
		if !isWeekday(day) {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidWorkingHours, day)
		}
		prevEnd := -1
		for _, raw := range windows {
			win, err := ParseWindow(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", day, err)
			}
			if win.Start < prevEnd {
				return fmt.Errorf("%w: %s windows overlap or are out of order", ErrInvalidWorkingHours, day)
			}
			prevEnd = win.End
		}
	}
	return nil
}

// Windows returns the parsed windows for the weekday.
func (w WorkingHours) Windows(day time.Weekday) ([]Window, error) {
	raw := w[WeekdayName(day)]
	out := make([]Window, 0, len(raw))
	for _, r := range raw {
		win, err := ParseWindow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, win)
	}
	return out, nil
}

// WorkingDays lists weekdays with at least one window, Sunday first.
func (w WorkingHours) WorkingDays() []string {
	days := make([]string, 0, len(w))
	for _, name := range weekdayNames {
		if len(w[name]) > 0 {
			days = append(days, name)
		}
	}
	return days
}

// Clone returns a deep copy.
func (w WorkingHours) Clone() WorkingHours {
	if w == nil {
		return nil
	}
	out := make(WorkingHours, len(w))
	for k, v := range w {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func isWeekday(name string) bool {
	for _, d := range weekdayNames {
		if d == name {
			return true
		}
	}
	return false
}
