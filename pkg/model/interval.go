package model

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End). All overlap and
// containment rules in the booking engine are defined on half-open ranges so
// a booking ending at 10:00 and another starting at 10:00 never conflict.
type Interval struct {
	Start time.Time `json:"start" bson:"start"`
	End   time.Time `json:"end" bson:"end"`
}

func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Contains reports whether o lies fully within i.
func (i Interval) Contains(o Interval) bool {
	return !o.Start.Before(i.Start) && !o.End.After(i.End)
}

// Subtract removes busy from i, returning the zero, one or two remaining
// sub-intervals in order.
func (i Interval) Subtract(busy Interval) []Interval {
	if !i.Overlaps(busy) {
		return []Interval{i}
	}

	var out []Interval
	if i.Start.Before(busy.Start) {
		out = append(out, Interval{Start: i.Start, End: busy.Start})
	}
	if busy.End.Before(i.End) {
		out = append(out, Interval{Start: busy.End, End: i.End})
	}
	return out
}

// SubtractAll returns the free sub-intervals of span after removing every
// busy interval. The busy slice may be unsorted and may contain intervals
// that overlap each other or extend beyond the span.
func SubtractAll(span Interval, busy []Interval) []Interval {
	if !span.Valid() {
		return nil
	}
	if len(busy) == 0 {
		return []Interval{span}
	}

	sorted := make([]Interval, 0, len(busy))
	for _, b := range busy {
		if b.Valid() && span.Overlaps(b) {
			sorted = append(sorted, b)
		}
	}
	if len(sorted) == 0 {
		return []Interval{span}
	}
	sort.Slice(sorted, func(a, b int) bool {
		return sorted[a].Start.Before(sorted[b].Start)
	})

	free := make([]Interval, 0, len(sorted)+1)
	cursor := span.Start
	for _, b := range sorted {
		if b.Start.After(cursor) {
			free = append(free, Interval{Start: cursor, End: minTime(b.Start, span.End)})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
		if !cursor.Before(span.End) {
			return free
		}
	}
	if cursor.Before(span.End) {
		free = append(free, Interval{Start: cursor, End: span.End})
	}
	return free
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
