package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// ClockTime is a time of day within the planning day, stored as minutes
// since midnight. The planner reasons about a single day, so a full
// time.Time with date and zone is more than the domain needs.
type ClockTime int

// ParseClockTime parses a zero-padded 24-hour "HH:MM" string.
func ParseClockTime(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%2d:%2d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid clock time %q: want HH:MM", s)
	}
	if h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid clock time %q: hour out of range", s)
	}
	if m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid clock time %q: minute out of range", s)
	}
	return ClockTime(h*60 + m), nil
}

// String formats the clock time as zero-padded "HH:MM".
func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Add returns the clock time shifted by d, truncated to whole minutes.
func (t ClockTime) Add(d time.Duration) ClockTime {
	return t + ClockTime(d/time.Minute)
}

// Sub returns the duration from other to t.
func (t ClockTime) Sub(other ClockTime) time.Duration {
	return time.Duration(t-other) * time.Minute
}

// MarshalJSON serializes the clock time as an "HH:MM" string.
func (t ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON deserializes an "HH:MM" string into a ClockTime.
func (t *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TimeWindow is a half-open [Start, End) interval within the planning day.
type TimeWindow struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// Validate checks that the window is well-formed: start strictly before end,
// both within one day.
func (w TimeWindow) Validate() error {
	if w.Start < 0 || w.End > 24*60 {
		return fmt.Errorf("time window %s outside planning day", w)
	}
	if w.Start >= w.End {
		return fmt.Errorf("time window %s: start must precede end", w)
	}
	return nil
}

// Duration returns the length of the window.
func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Overlaps reports whether two windows share any time.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start < other.End && other.Start < w.End
}

// Contains reports whether other lies entirely within w.
func (w TimeWindow) Contains(other TimeWindow) bool {
	return w.Start <= other.Start && other.End <= w.End
}

// String formats the window as "HH:MM - HH:MM".
func (w TimeWindow) String() string {
	return fmt.Sprintf("%s - %s", w.Start, w.End)
}
