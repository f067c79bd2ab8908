package store

import (
	"errors"
	"testing"
	"time"
)

func TestWorkingHoursValidate(t *testing.T) {
	tests := []struct {
		name    string
		hours   WorkingHours
		wantErr bool
	}{
		{"empty schedule", WorkingHours{}, false},
		{"split day", WorkingHours{"monday": {"08:00-12:00", "13:00-17:00"}}, false},
		{"touching windows", WorkingHours{"monday": {"08:00-12:00", "12:00-14:00"}}, false},
		{"day off", WorkingHours{"saturday": {}}, false},
		{"overlap", WorkingHours{"monday": {"08:00-12:00", "11:00-14:00"}}, true},
		{"out of order", WorkingHours{"monday": {"13:00-17:00", "08:00-12:00"}}, true},
		{"inverted window", WorkingHours{"monday": {"12:00-08:00"}}, true},
		{"bad clock", WorkingHours{"monday": {"8-12"}}, true},
		{"unknown day", WorkingHours{"Funday": {"08:00-12:00"}}, true},
		{"minute out of range", WorkingHours{"monday": {"08:61-12:00"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.hours.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidWorkingHours) {
					t.Fatalf("expected ErrInvalidWorkingHours, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestWorkingHoursWindowsAndDays(t *testing.T) {
	hours := WorkingHours{
		"friday": {"08:00-13:00"},
		"sunday": {"08:00-10:30", "14:00-18:00"},
		"monday": {},
	}
	wins, err := hours.Windows(time.Sunday)
	if err != nil {
		t.Fatalf("windows: %v", err)
	}
	if len(wins) != 2 || wins[0] != (Window{Start: 480, End: 630}) || wins[1] != (Window{Start: 840, End: 1080}) {
		t.Fatalf("unexpected windows %+v", wins)
	}
	if wins, _ := hours.Windows(time.Monday); len(wins) != 0 {
		t.Fatalf("expected monday off, got %+v", wins)
	}
	days := hours.WorkingDays()
	if len(days) != 2 || days[0] != "sunday" || days[1] != "friday" {
		t.Fatalf("unexpected working days %v", days)
	}
}

func TestClockRoundTrip(t *testing.T) {
	m, err := ParseClock("09:30")
	if err != nil || m != 570 {
		t.Fatalf("parse clock: %d %v", m, err)
	}
	if got := FormatClock(m); got != "09:30" {
		t.Fatalf("format clock: %s", got)
	}
	if _, err := ParseClock("24:00"); err != nil {
		t.Fatalf("24:00 should be accepted as end of day: %v", err)
	}
}
