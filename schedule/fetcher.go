package schedule

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrSessionInvalid aborts a refresh before any per-week call is made.
// Recovery requires renewing the session cookies externally; the engine
// never retries on its own.
var ErrSessionInvalid = errors.New("portal rejected the session")

// ErrAllWeeksFailed marks a refresh in which every week unit failed.
// The cache keeps whatever document it already holds.
var ErrAllWeeksFailed = errors.New("every week fetch failed")

var errNoWeekCode = errors.New("portal returned no week code")

// Portal is the slice of the portal client the fetcher drives.
type Portal interface {
	ProbeSession(ctx context.Context) bool
	ResolveWeek(ctx context.Context, date time.Time) (string, error)
	FetchWeek(ctx context.Context, weekCode string) (string, error)
}

// Window is the fetch window around today: one week unit per offset in
// [-Before, After].
type Window struct {
	Before int
	After  int
}

// Fetcher runs one refresh pass: a session probe gate, then one
// resolve-fetch-extract unit per week in the window, all weeks
// concurrently. Units succeed or fail independently; a failed unit is
// logged and dropped without touching its siblings.
type Fetcher struct {
	Portal    Portal
	Extractor *Extractor
	Window    Window
	Logger    *zap.Logger

	// Now is the clock used to anchor the window; tests override it.
	Now func() time.Time
}

// Refresh fetches every week in the window and returns the merged,
// deduplicated, start-ordered event list. It fails only when the
// session probe is rejected (ErrSessionInvalid, before any per-week
// call) or when every single week unit failed (ErrAllWeeksFailed).
func (f *Fetcher) Refresh(ctx context.Context) ([]Event, error) {
	if !f.Portal.ProbeSession(ctx) {
		return nil, ErrSessionInvalid
	}

	today := f.now().In(f.Extractor.Location)

	offsets := make([]int, 0, f.Window.Before+f.Window.After+1)
	for off := -f.Window.Before; off <= f.Window.After; off++ {
		offsets = append(offsets, off)
	}

	results := make([]WeekResult, len(offsets))
	succeeded := make([]bool, len(offsets))

	var wg sync.WaitGroup
	for i, off := range offsets {
		wg.Add(1)
		go func(i, off int) {
			defer wg.Done()
			res, err := f.fetchWeek(ctx, today.AddDate(0, 0, 7*off))
			if err != nil {
				f.Logger.Warn("week fetch failed",
					zap.Int("week_offset", off), zap.Error(err))
				return
			}
			results[i] = res
			succeeded[i] = true
		}(i, off)
	}
	wg.Wait()

	var fetched []WeekResult
	for i := range results {
		if succeeded[i] {
			fetched = append(fetched, results[i])
		}
	}
	if len(fetched) == 0 {
		return nil, ErrAllWeeksFailed
	}

	events := Merge(fetched)
	f.Logger.Info("refresh complete",
		zap.Int("weeks_fetched", len(fetched)),
		zap.Int("weeks_requested", len(offsets)),
		zap.Int("events", len(events)))
	return events, nil
}

func (f *Fetcher) fetchWeek(ctx context.Context, date time.Time) (WeekResult, error) {
	code, err := f.Portal.ResolveWeek(ctx, date)
	if err != nil {
		return WeekResult{}, err
	}
	if code == "" {
		return WeekResult{}, errNoWeekCode
	}
	blob, err := f.Portal.FetchWeek(ctx, code)
	if err != nil {
		return WeekResult{}, err
	}
	events := f.Extractor.Extract(blob)
	f.Logger.Debug("week fetched",
		zap.String("week_code", code), zap.Int("events", len(events)))
	return WeekResult{WeekCode: code, Events: events}, nil
}

func (f *Fetcher) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}
