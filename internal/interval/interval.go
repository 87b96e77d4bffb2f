// Package interval decides whether a candidate reservation overlaps the
// bookings already held on a field.
package interval

import (
	"time"

	"github.com/Shivanand-hulikatti/field-booking/internal/model"
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the interval is non-empty.
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Overlaps reports whether a and b share at least one instant. Intervals
// that only touch (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// HasConflict reports whether [start, end) overlaps any booking on fieldID.
// Bookings on other fields are ignored so callers may pass an unfiltered slice.
func HasConflict(fieldID string, start, end time.Time, existing []model.Booking) bool {
	_, found := FirstConflict(fieldID, start, end, existing)
	return found
}

// FirstConflict returns the first booking on fieldID that overlaps [start, end).
func FirstConflict(fieldID string, start, end time.Time, existing []model.Booking) (model.Booking, bool) {
	candidate := Interval{Start: start, End: end}
	for _, b := range existing {
		if b.FieldID != fieldID {
			continue
		}
		if Overlaps(candidate, Interval{Start: b.Start, End: b.End}) {
			return b, true
		}
	}
	return model.Booking{}, false
}
