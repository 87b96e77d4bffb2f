package interval

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Shivanand-hulikatti/field-booking/internal/model"
)

var base = time.Date(2030, time.March, 4, 10, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return base.Add(time.Duration(h-10)*time.Hour + time.Duration(m)*time.Minute)
}

func booking(field string, start, end time.Time) model.Booking {
	return model.Booking{ID: field + start.Format("1504"), FieldID: field, Start: start, End: end}
}

func Test_HasConflict(t *testing.T) {
	existing := []model.Booking{booking("f1", at(10, 0), at(11, 0))}

	tests := []struct {
		name  string
		field string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"back to back after", "f1", at(11, 0), at(12, 0), false},
		{"back to back before", "f1", at(9, 0), at(10, 0), false},
		{"partial overlap end", "f1", at(10, 30), at(11, 30), true},
		{"partial overlap start", "f1", at(9, 30), at(10, 30), true},
		{"contained", "f1", at(10, 15), at(10, 45), true},
		{"containing", "f1", at(9, 0), at(12, 0), true},
		{"identical", "f1", at(10, 0), at(11, 0), true},
		{"other field", "f2", at(10, 0), at(11, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasConflict(tt.field, tt.start, tt.end, existing))
		})
	}
}

func Test_HasConflict_NoExistingBookings(t *testing.T) {
	assert.False(t, HasConflict("f1", at(10, 0), at(11, 0), nil))
}

func Test_FirstConflict_ReturnsOverlappingBooking(t *testing.T) {
	existing := []model.Booking{
		booking("f1", at(8, 0), at(9, 0)),
		booking("f1", at(10, 0), at(11, 0)),
	}

	got, found := FirstConflict("f1", at(10, 30), at(12, 0), existing)

	assert.True(t, found)
	assert.Equal(t, existing[1].ID, got.ID)
}

func Test_Interval_Valid(t *testing.T) {
	assert.True(t, Interval{Start: at(10, 0), End: at(11, 0)}.Valid())
	assert.False(t, Interval{Start: at(10, 0), End: at(10, 0)}.Valid())
	assert.False(t, Interval{Start: at(11, 0), End: at(10, 0)}.Valid())
}

// Overlap must be symmetric and must agree with the disjointness condition
// a.End <= b.Start || b.End <= a.Start for arbitrary pairs.
func Test_Overlaps_RandomPairs(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))

	randomInterval := func() Interval {
		start := base.Add(time.Duration(rng.IntN(48)) * 15 * time.Minute)
		return Interval{Start: start, End: start.Add(time.Duration(rng.IntN(8)+1) * 15 * time.Minute)}
	}

	for i := 0; i < 5000; i++ {
		a, b := randomInterval(), randomInterval()
		disjoint := !a.End.After(b.Start) || !b.End.After(a.Start)

		assert.Equal(t, !disjoint, Overlaps(a, b), "a=%v b=%v", a, b)
		assert.Equal(t, Overlaps(a, b), Overlaps(b, a), "a=%v b=%v", a, b)
	}
}
