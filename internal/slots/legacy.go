package slots

import (
	"strings"
	"time"

	"github.com/example/availability-scheduler/internal/zoned"
)

// MigrateLegacyKey resolves an old "YYYY-MM-DD|HH:MM" unavailability key,
// read as wall-clock time in loc, to the current slot identifier.
func MigrateLegacyKey(loc *time.Location, key string) (string, bool) {
	datePart, clockPart, ok := strings.Cut(key, "|")
	if !ok {
		return "", false
	}
	date, err := zoned.ParseDate(datePart)
	if err != nil {
		return "", false
	}
	minute, err := zoned.ParseClock(clockPart)
	if err != nil {
		return "", false
	}
	return FormatID(zoned.DateInstant(loc, date, minute)), true
}

// IsLegacyKey reports whether key uses the composite date|time form.
func IsLegacyKey(key string) bool {
	return strings.Contains(key, "|")
}
