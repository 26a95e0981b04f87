package slots

import (
	"sort"
	"strconv"
	"time"
)

// FormatID renders an instant as a slot identifier: whole minutes since the
// Unix epoch in decimal.
func FormatID(instant time.Time) string {
	return strconv.FormatInt(instant.Unix()/60, 10)
}

// ParseID converts a slot identifier back into its instant.
func ParseID(id string) (time.Time, bool) {
	if !Valid(id) {
		return time.Time{}, false
	}
	minutes, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(minutes*60, 0).UTC(), true
}

// Valid reports whether id is syntactically a slot identifier: a non-empty
// run of ASCII digits without a leading zero.
func Valid(id string) bool {
	if id == "" || len(id) > 12 {
		return false
	}
	if id[0] == '0' && len(id) > 1 {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}

// Sort orders identifiers chronologically.
func Sort(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})
}
