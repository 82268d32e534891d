package schedule

import (
	"sort"
	"time"
)

// Event is one timetable occurrence. Start precedes End for every
// event the extractor emits.
type Event struct {
	Start       time.Time
	End         time.Time
	Summary     string
	Location    string
	Description string
}

// WeekResult is the outcome of fetching and parsing a single week. It
// only lives for one refresh pass.
type WeekResult struct {
	WeekCode string
	Events   []Event
}

type occurrenceKey struct {
	start   int64
	end     int64
	summary string
}

// Merge combines per-week results into one list ordered by start time.
// Overlapping fetch windows report the same occurrence twice, so events
// sharing (start, end, summary) are collapsed to the first copy seen.
// The sort is stable: equal starts keep encounter order.
func Merge(results []WeekResult) []Event {
	seen := make(map[occurrenceKey]struct{})
	var merged []Event
	for _, res := range results {
		for _, ev := range res.Events {
			key := occurrenceKey{ev.Start.Unix(), ev.End.Unix(), ev.Summary}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, ev)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Start.Before(merged[j].Start)
	})
	return merged
}
