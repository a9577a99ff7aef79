package conflict

import (
	"time"

	"gigbook/internal/models"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Overlaps reports whether two half-open intervals intersect.
// Touching intervals (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// EventInterval is the slot an event occupies. Without an end or a duration only the
// start second is taken.
func EventInterval(e *models.Event) Interval {
	switch {
	case e.EndAt != nil:
		return Interval{Start: e.StartAt, End: *e.EndAt}
	case e.TotalHours != nil && *e.TotalHours > 0:
		return Interval{Start: e.StartAt, End: e.StartAt.Add(models.HoursToDuration(*e.TotalHours))}
	default:
		return Interval{Start: e.StartAt, End: e.StartAt.Add(time.Second)}
	}
}
