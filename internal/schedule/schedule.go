package schedule

import (
	"errors"
	"time"
)

const (
	SlotMinutes        = 45
	MinDurationMinutes = 15
	MaxDurationMinutes = 480
)

var (
	ErrInvalidDate     = errors.New("invalid date format")
	ErrInvalidTime     = errors.New("invalid time format")
	ErrInvalidDuration = errors.New("invalid duration")
)

type TimeRange struct {
	Start string
	End   string
}

// Interval is a half-open [Start, End) span.
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start time.Time, minutes int) Interval {
	return Interval{Start: start, End: EndOf(start, minutes)}
}

func EndOf(start time.Time, minutes int) time.Time {
	return start.Add(time.Duration(minutes) * time.Minute)
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching endpoints do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

func OverlapsAny(current Interval, reserved []Interval) bool {
	for _, r := range reserved {
		if Overlaps(current, r) {
			return true
		}
	}
	return false
}

func ValidDuration(minutes int) bool {
	return minutes >= MinDurationMinutes && minutes <= MaxDurationMinutes
}

func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

func ParseClockToMinutes(timeStr string) (int, error) {
	tm, err := time.Parse("15:04", timeStr)
	if err != nil {
		return 0, ErrInvalidTime
	}
	return tm.Hour()*60 + tm.Minute(), nil
}

func IsDatePast(dateStr string, loc *time.Location, now time.Time) (bool, error) {
	date, err := ParseDate(dateStr, loc)
	if err != nil {
		return false, err
	}
	startToday := time.Date(now.In(loc).Year(), now.In(loc).Month(), now.In(loc).Day(), 0, 0, 0, 0, loc)
	return date.Before(startToday), nil
}

// DayBounds returns [00:00, next 00:00) of the given date in loc.
func DayBounds(date time.Time, loc *time.Location) Interval {
	d := date.In(loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return Interval{Start: start, End: start.AddDate(0, 0, 1)}
}

func dayRanges(day time.Weekday) []TimeRange {
	switch day {
	case time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday:
		return []TimeRange{{Start: "09:00", End: "12:00"}, {Start: "14:00", End: "17:00"}}
	case time.Saturday:
		return []TimeRange{{Start: "09:00", End: "13:00"}}
	default:
		return nil
	}
}

// GenerateSlots lays a grid of back-to-back slots of the given duration over
// the consultant working hours of dateStr.
func GenerateSlots(dateStr string, duration int, loc *time.Location) ([]Interval, error) {
	date, err := ParseDate(dateStr, loc)
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}

	ranges := dayRanges(date.Weekday())
	slots := make([]Interval, 0)
	for _, tr := range ranges {
		startMin, err := ParseClockToMinutes(tr.Start)
		if err != nil {
			return nil, err
		}
		endMin, err := ParseClockToMinutes(tr.End)
		if err != nil {
			return nil, err
		}

		for cursor := startMin; cursor+duration <= endMin; cursor += duration {
			start := date.Add(time.Duration(cursor) * time.Minute)
			slots = append(slots, NewInterval(start, duration))
		}
	}

	return slots, nil
}

func FilterOverlapping(slots []Interval, reserved []Interval) []Interval {
	filtered := make([]Interval, 0, len(slots))
	for _, s := range slots {
		if !OverlapsAny(s, reserved) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func FilterPast(slots []Interval, now time.Time) []Interval {
	filtered := make([]Interval, 0, len(slots))
	for _, s := range slots {
		if s.Start.After(now) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func Clocks(slots []Interval, loc *time.Location) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start.In(loc).Format("15:04"))
	}
	return out
}
