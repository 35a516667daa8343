package schedule

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// RepairIntervals validates raw appointment intervals and snaps broken ones to
// a default duration before they are used for conflict detection. A record is
// broken when its end is missing, not after its start, or past the end of the
// working window by more than slack. Repairs defend against bad upstream data;
// the stored record itself is never touched. Output is sorted by start.
//
// window may be a zero value (e.g. at creation time when the day's window is
// not resolved); the slack check is skipped then.
func RepairIntervals(raw []RawInterval, window WorkingWindow, defaultDuration, slack time.Duration, logger *zap.Logger) []BookedInterval {
	out := make([]BookedInterval, 0, len(raw))

	for _, r := range raw {
		iv := BookedInterval{Start: r.Start}
		switch {
		case r.End == nil:
			iv.End = r.Start.Add(defaultDuration)
		case !r.End.After(r.Start):
			logger.Warn("appointment interval inverted, snapping to default duration",
				zap.Time("start", r.Start),
				zap.Time("end", *r.End))
			iv.End = r.Start.Add(defaultDuration)
		case window.Valid() && r.End.After(window.End.Add(slack)):
			logger.Warn("appointment runs past closing beyond slack, snapping to default duration",
				zap.Time("start", r.Start),
				zap.Time("end", *r.End),
				zap.Time("window_end", window.End))
			iv.End = r.Start.Add(defaultDuration)
		default:
			iv.End = *r.End
		}
		out = append(out, iv)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})

	return out
}

// Overlaps is the half-open interval test: [aStart, aEnd) intersects
// [bStart, bEnd) iff aStart < bEnd && bStart < aEnd.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// FindConflict returns the first existing interval overlapping the proposed
// one. Existing intervals are expected sorted by start.
func FindConflict(proposed BookedInterval, existing []BookedInterval) (BookedInterval, bool) {
	for _, iv := range existing {
		if Overlaps(proposed.Start, proposed.End, iv.Start, iv.End) {
			return iv, true
		}
	}
	return BookedInterval{}, false
}
