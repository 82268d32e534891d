package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dmfcosta/isep-ics-server/cache"
	cal "github.com/dmfcosta/isep-ics-server/calendar"
	"github.com/dmfcosta/isep-ics-server/portal"
	"github.com/dmfcosta/isep-ics-server/schedule"
)

const weekBlob = `events: [{
	'start': new Date(2025, 8, 15, 9, 0),
	'end': new Date(2025, 8, 15, 10, 30),
	'title': '<b>Algorithms</b> Sala B-203',
	'body': '<p>Turma 2DA</p>'
}]`

// fakePortal serves the three portal endpoints and counts hits.
func fakePortal(t *testing.T, hits *int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		switch {
		case strings.HasSuffix(r.URL.Path, "/getCodeWeekByData"):
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"d": "W1"})
		case strings.HasSuffix(r.URL.Path, "/mudar_semana"):
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"d": weekBlob})
		default: // session probe
			w.WriteHeader(http.StatusOK)
		}
	}))
}

func TestBridgeEndToEnd(t *testing.T) {
	var hits int64
	srv := fakePortal(t, &hits)
	defer srv.Close()

	loc, err := time.LoadLocation("Europe/Lisbon")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	logger := zap.NewNop()

	client := portal.NewClient(portal.Options{
		BaseURL:  srv.URL,
		CodeUser: "123456",
		Timeout:  5 * time.Second,
	}, portal.NewStaticCredentials(map[string]string{"S": "v"}), logger)

	now := time.Date(2025, time.September, 15, 12, 0, 0, 0, loc)
	manager := &cache.Manager{
		Builder: documentBuilder{
			fetcher: &schedule.Fetcher{
				Portal:    client,
				Extractor: &schedule.Extractor{Location: loc, Logger: logger},
				Window:    schedule.Window{}, // today only
				Logger:    logger,
				Now:       func() time.Time { return now },
			},
			serializer: &cal.Serializer{
				Timezone: "Europe/Lisbon",
				Now:      func() time.Time { return now },
			},
		},
		Prober: client,
		TTL:    15 * time.Minute,
		Logger: logger,
		Now:    func() time.Time { return now },
	}

	doc := manager.Document(context.Background())

	if !strings.HasPrefix(doc, "BEGIN:VCALENDAR\r\n") {
		t.Fatalf("not a calendar document:\n%s", doc)
	}
	if got := strings.Count(doc, "BEGIN:VEVENT"); got != 1 {
		t.Fatalf("event blocks = %d, want 1", got)
	}
	if !strings.Contains(doc, "SUMMARY:Algorithms Sala B-203\r\n") {
		t.Errorf("summary line missing; document:\n%s", doc)
	}
	if !strings.Contains(doc, "LOCATION:B-203\r\n") {
		t.Errorf("location line missing")
	}
	// 09:00 in Lisbon is 08:00Z during September.
	if !strings.Contains(doc, "DTSTART:20250915T080000Z\r\n") {
		t.Errorf("start timestamp missing or not UTC")
	}

	// A second call inside the TTL serves the cache: same text, no new
	// portal traffic.
	before := atomic.LoadInt64(&hits)
	again := manager.Document(context.Background())
	if again != doc {
		t.Errorf("cached document differs")
	}
	if after := atomic.LoadInt64(&hits); after != before {
		t.Errorf("portal hit %d more times inside TTL window", after-before)
	}

	snap := manager.HealthSnapshot(context.Background())
	if !snap.SessionValid || snap.EventsCount != 1 {
		t.Errorf("health snapshot = %+v", snap)
	}
}
