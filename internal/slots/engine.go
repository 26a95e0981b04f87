// Package slots expands a room's wall-clock scheduling rules into absolute
// slot identifiers.
package slots

import (
	"errors"
	"sort"
	"time"

	"github.com/example/availability-scheduler/internal/zoned"
)

// DefaultMaxSpanDays bounds the inclusive date range of a room.
const DefaultMaxSpanDays = 21

var (
	// ErrInvalidDate indicates malformed dates, an inverted range, or a range that is too long.
	ErrInvalidDate = errors.New("slots: invalid date range")
	// ErrInvalidWindow indicates a malformed daily window or one that does not start before it ends.
	ErrInvalidWindow = errors.New("slots: invalid daily window")
	// ErrInvalidGranularity indicates a slot length other than 15, 30 or 60 minutes.
	ErrInvalidGranularity = errors.New("slots: invalid granularity")
	// ErrInvalidTimeZone indicates an unrecognised IANA zone.
	ErrInvalidTimeZone = errors.New("slots: invalid time zone")
)

// Rules holds the five scheduling fields of a room.
type Rules struct {
	StartDate   string
	EndDate     string
	DayStart    string
	DayEnd      string
	SlotMinutes int
	TimeZone    string
}

// Parsed is the validated form of Rules.
type Parsed struct {
	Start       zoned.Date
	End         zoned.Date
	DayStart    int
	DayEnd      int
	SlotMinutes int
	Location    *time.Location
}

// ExpiresAt is the first instant of the day after End in the rules' zone.
func (p Parsed) ExpiresAt() time.Time {
	return zoned.StartOfDay(p.Location, p.End.AddDays(1))
}

// Engine validates rules and generates slots.
type Engine struct {
	maxSpanDays int
}

// NewEngine constructs an Engine. A non-positive maxSpanDays selects DefaultMaxSpanDays.
func NewEngine(maxSpanDays int) *Engine {
	if maxSpanDays <= 0 {
		maxSpanDays = DefaultMaxSpanDays
	}
	return &Engine{maxSpanDays: maxSpanDays}
}

// Parse validates rules in a fixed order (dates, window, granularity, zone)
// and returns the first failure.
func (e *Engine) Parse(rules Rules) (Parsed, error) {
	return e.parse(rules, e.maxSpanDays)
}

// ParseStored is Parse without the span cap, for rooms created under an
// earlier, larger cap.
func (e *Engine) ParseStored(rules Rules) (Parsed, error) {
	return e.parse(rules, 0)
}

func (e *Engine) parse(rules Rules, maxSpanDays int) (Parsed, error) {
	start, err := zoned.ParseDate(rules.StartDate)
	if err != nil {
		return Parsed{}, ErrInvalidDate
	}
	end, err := zoned.ParseDate(rules.EndDate)
	if err != nil {
		return Parsed{}, ErrInvalidDate
	}
	if start.After(end) {
		return Parsed{}, ErrInvalidDate
	}
	if maxSpanDays > 0 && start.DaysUntil(end)+1 > maxSpanDays {
		return Parsed{}, ErrInvalidDate
	}

	dayStart, err := zoned.ParseClock(rules.DayStart)
	if err != nil {
		return Parsed{}, ErrInvalidWindow
	}
	dayEnd, err := zoned.ParseClock(rules.DayEnd)
	if err != nil {
		return Parsed{}, ErrInvalidWindow
	}
	if dayStart >= dayEnd {
		return Parsed{}, ErrInvalidWindow
	}

	switch rules.SlotMinutes {
	case 15, 30, 60:
	default:
		return Parsed{}, ErrInvalidGranularity
	}

	loc, err := zoned.LoadLocation(rules.TimeZone)
	if err != nil {
		return Parsed{}, ErrInvalidTimeZone
	}

	return Parsed{
		Start:       start,
		End:         end,
		DayStart:    dayStart,
		DayEnd:      dayEnd,
		SlotMinutes: rules.SlotMinutes,
		Location:    loc,
	}, nil
}

// Validate reports the first rule violation, if any.
func (e *Engine) Validate(rules Rules) error {
	_, err := e.Parse(rules)
	return err
}

// Generate validates rules and returns their slot identifiers.
func (e *Engine) Generate(rules Rules) ([]string, error) {
	parsed, err := e.Parse(rules)
	if err != nil {
		return nil, err
	}
	return Expand(parsed), nil
}

// Expand produces one identifier per tick in [DayStart, DayEnd) on every date
// in [Start, End], ascending and de-duplicated. Ticks that land in a DST gap
// snap forward and may collide with the next tick; the duplicate is dropped.
func Expand(p Parsed) []string {
	if p.SlotMinutes <= 0 || p.DayStart >= p.DayEnd {
		return nil
	}

	perDay := (p.DayEnd - p.DayStart + p.SlotMinutes - 1) / p.SlotMinutes
	minutes := make([]int64, 0, perDay*(p.Start.DaysUntil(p.End)+1))
	for date := p.Start; !date.After(p.End); date = date.AddDays(1) {
		for m := p.DayStart; m < p.DayEnd; m += p.SlotMinutes {
			minutes = append(minutes, zoned.DateInstant(p.Location, date, m).Unix()/60)
		}
	}

	sort.Slice(minutes, func(i, j int) bool { return minutes[i] < minutes[j] })

	ids := make([]string, 0, len(minutes))
	for i, m := range minutes {
		if i > 0 && minutes[i-1] == m {
			continue
		}
		ids = append(ids, FormatID(time.Unix(m*60, 0)))
	}
	return ids
}
