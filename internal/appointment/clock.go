package appointment

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimeLabel parses a 12-hour wall-clock label like "2:30 PM" into
// hour-of-day and minute. "12:00 AM" normalizes to hour 0 and "12:00 PM" to
// hour 12; getting this wrong is a classic off-by-twelve-hours bug.
func ParseTimeLabel(label string) (hour, minute int, err error) {
	trimmed := strings.ToUpper(strings.TrimSpace(label))

	var meridiem string
	switch {
	case strings.HasSuffix(trimmed, "AM"):
		meridiem = "AM"
	case strings.HasSuffix(trimmed, "PM"):
		meridiem = "PM"
	default:
		return 0, 0, fmt.Errorf("appointment: time label %q missing AM/PM meridiem", label)
	}
	trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, meridiem))

	hh, mm, ok := strings.Cut(trimmed, ":")
	if !ok {
		return 0, 0, fmt.Errorf("appointment: time label %q is not h:mm", label)
	}
	hour, err = strconv.Atoi(strings.TrimSpace(hh))
	if err != nil {
		return 0, 0, fmt.Errorf("appointment: time label %q: bad hour", label)
	}
	minute, err = strconv.Atoi(strings.TrimSpace(mm))
	if err != nil {
		return 0, 0, fmt.Errorf("appointment: time label %q: bad minute", label)
	}
	if hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("appointment: time label %q out of range", label)
	}

	if hour == 12 {
		hour = 0
	}
	if meridiem == "PM" {
		hour += 12
	}
	return hour, minute, nil
}

// NormalizeTimeLabel returns the canonical form of a label, e.g. "02:30 pm"
// becomes "2:30 PM". Slots are compared and stored by canonical label so the
// uniqueness constraint cannot be dodged by formatting variants.
func NormalizeTimeLabel(label string) (string, error) {
	hour, minute, err := ParseTimeLabel(label)
	if err != nil {
		return "", err
	}
	meridiem := "AM"
	display := hour
	switch {
	case hour == 0:
		display = 12
	case hour == 12:
		meridiem = "PM"
	case hour > 12:
		display = hour - 12
		meridiem = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, meridiem), nil
}

// CombineDateTime resolves a calendar day plus a time label into the concrete
// start instant, in the date's location (the single operating timezone).
func CombineDateTime(date time.Time, label string) (time.Time, error) {
	hour, minute, err := ParseTimeLabel(label)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}
