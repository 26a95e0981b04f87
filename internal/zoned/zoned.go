// Package zoned converts between wall-clock fields in an IANA time zone and
// absolute instants.
//
// Local times that fall into a daylight-saving gap resolve forward by the
// length of the gap (02:30 on a spring-forward night becomes 03:30 in the
// new offset). Local times that occur twice during a fall-back fold resolve
// to the earlier instant.
package zoned

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrUnknownZone indicates the zone name is empty, "Local", or not in the tz database.
	ErrUnknownZone = errors.New("zoned: unknown time zone")
	// ErrInvalidDate indicates a value that is not a real YYYY-MM-DD calendar date.
	ErrInvalidDate = errors.New("zoned: invalid date")
	// ErrInvalidClock indicates a value that is not a HH:MM wall-clock time.
	ErrInvalidClock = errors.New("zoned: invalid clock time")
)

// transitionWindow bounds the search for an offset change around a local time.
// Real zones never place two transitions this close together.
const transitionWindow = 48 * time.Hour

var (
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// Date is a calendar date without a zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a strict YYYY-MM-DD value and rejects impossible dates.
func ParseDate(value string) (Date, error) {
	value = strings.TrimSpace(value)
	if !datePattern.MatchString(value) {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// AddDays returns the date n calendar days later, normalising month and year.
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.civil().After(other.civil())
}

// DaysUntil returns the number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.civil().Sub(d.civil()) / (24 * time.Hour))
}

func (d Date) civil() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// ParseClock parses a strict HH:MM value into minutes after midnight.
func ParseClock(value string) (int, error) {
	value = strings.TrimSpace(value)
	if !clockPattern.MatchString(value) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	hour := int(value[0]-'0')*10 + int(value[1]-'0')
	minute := int(value[3]-'0')*10 + int(value[4]-'0')
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, value)
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes after midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// LoadLocation resolves an IANA zone name. "Local" and the empty string are
// rejected because they do not name a portable zone.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZone, name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZone, name)
	}
	return loc, nil
}

// ToInstant converts wall-clock fields observed in loc into an absolute instant.
func ToInstant(loc *time.Location, year int, month time.Month, day, hour, minute int) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	naive := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)

	// Two-pass correction: read the offset at the naive guess, subtract it,
	// then re-read at the corrected instant and subtract again if it moved.
	first := offsetAt(loc, naive)
	guess := naive.Add(-first)
	if second := offsetAt(loc, guess); second != first {
		guess = naive.Add(-second)
	}

	before := offsetAt(loc, naive.Add(-transitionWindow))
	after := offsetAt(loc, naive.Add(transitionWindow))
	if before == after {
		return guess.UTC()
	}
	return resolveTransition(loc, naive, before, after).UTC()
}

// DateInstant converts a date and a minute-of-day into an absolute instant.
func DateInstant(loc *time.Location, date Date, minuteOfDay int) time.Time {
	return ToInstant(loc, date.Year, date.Month, date.Day, minuteOfDay/60, minuteOfDay%60)
}

// StartOfDay returns the first instant of date in loc.
func StartOfDay(loc *time.Location, date Date) time.Time {
	return DateInstant(loc, date, 0)
}

// Parts renders an instant as its local date (YYYY-MM-DD) and time (HH:MM) in loc.
func Parts(loc *time.Location, instant time.Time) (date, clock string) {
	if loc == nil {
		loc = time.UTC
	}
	local := instant.In(loc)
	return local.Format(time.DateOnly), local.Format("15:04")
}

// resolveTransition picks the canonical instant for a local time near an
// offset change. Every offset that maps the local time back onto itself is a
// valid reading; the earliest wins. No valid reading means the local time sits
// in a gap, which moves forward by the gap length.
func resolveTransition(loc *time.Location, naive time.Time, before, after time.Duration) time.Time {
	var (
		best  time.Time
		found bool
	)
	for _, offset := range []time.Duration{before, after} {
		candidate := naive.Add(-offset)
		if offsetAt(loc, candidate) != offset {
			continue
		}
		if !found || candidate.Before(best) {
			best = candidate
			found = true
		}
	}
	if found {
		return best
	}
	return naive.Add(-before)
}

func offsetAt(loc *time.Location, instant time.Time) time.Duration {
	_, offset := instant.In(loc).Zone()
	return time.Duration(offset) * time.Second
}
