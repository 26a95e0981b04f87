package scheduler

import (
	"sort"

	"github.com/samber/lo"
)

// Marks is one member's set of unavailable slots.
type Marks struct {
	MemberID string
	Slots    []string
}

// Index maps each slot to the members who marked it unavailable. Slots nobody
// marked are absent.
type Index struct {
	bySlot map[string][]string
}

// BuildIndex aggregates marks into a conflict index. Duplicate ids within one
// member's marks count once.
func BuildIndex(marks []Marks) Index {
	bySlot := make(map[string][]string)
	for _, m := range marks {
		for _, slot := range lo.Uniq(m.Slots) {
			bySlot[slot] = append(bySlot[slot], m.MemberID)
		}
	}
	for slot := range bySlot {
		sort.Strings(bySlot[slot])
	}
	return Index{bySlot: bySlot}
}

// Counts returns slot -> number of unavailable members.
func (i Index) Counts() map[string]int {
	return lo.MapValues(i.bySlot, func(members []string, _ string) int {
		return len(members)
	})
}

// Detailed returns slot -> unavailable member ids.
func (i Index) Detailed() map[string][]string {
	return lo.MapValues(i.bySlot, func(members []string, _ string) []string {
		return append([]string(nil), members...)
	})
}

// Count returns the number of members unavailable at slot.
func (i Index) Count(slot string) int {
	return len(i.bySlot[slot])
}

// Len returns the number of slots with at least one conflict.
func (i Index) Len() int {
	return len(i.bySlot)
}
