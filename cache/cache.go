package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Builder produces a freshly serialized calendar document.
type Builder interface {
	BuildDocument(ctx context.Context) (string, error)
}

// Prober reports current session validity for health snapshots.
type Prober interface {
	ProbeSession(ctx context.Context) bool
}

// Health is the snapshot served by the health endpoint. Zero timestamps
// mean no refresh has ever succeeded.
type Health struct {
	SessionValid    bool
	EventsCount     int
	ExpiresAt       time.Time
	LastRefreshedAt time.Time
}

// Manager owns the one cached calendar document. It moves between three
// states: empty (never refreshed), fresh (now before expiry) and stale.
// A failed refresh keeps the prior state untouched; stale content is
// deliberately served over errors, because a slightly old timetable
// beats none.
type Manager struct {
	Builder Builder
	Prober  Prober
	TTL     time.Duration
	Logger  *zap.Logger

	// Now is the freshness clock; tests override it.
	Now func() time.Time

	mu          sync.Mutex
	document    string
	hasDocument bool
	expiresAt   time.Time
	refreshedAt time.Time
}

// Document returns the best available calendar text, refreshing first
// when the cache is empty or past its TTL. Repeated calls inside the
// TTL window return the identical text without touching the portal.
// When a refresh fails and nothing was ever cached, the result is the
// empty string; the caller still serves it with a success status.
//
// The mutex is held across the refresh, so concurrent callers that
// observe staleness together trigger one remote pass, not a storm.
func (m *Manager) Document(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.hasDocument && now.Before(m.expiresAt) {
		return m.document
	}

	doc, err := m.Builder.BuildDocument(ctx)
	if err != nil {
		m.Logger.Warn("refresh failed, serving prior document",
			zap.Error(err), zap.Bool("have_document", m.hasDocument))
		return m.document
	}

	m.document = doc
	m.hasDocument = true
	m.expiresAt = now.Add(m.TTL)
	m.refreshedAt = now
	m.Logger.Info("cache refreshed",
		zap.Int("events", countEvents(doc)),
		zap.Time("expires_at", m.expiresAt))
	return m.document
}

// HealthSnapshot probes the session and reports cache metadata. The
// probe is always fresh: cache freshness has no bearing on whether the
// portal still accepts the cookies.
func (m *Manager) HealthSnapshot(ctx context.Context) Health {
	valid := m.Prober.ProbeSession(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	return Health{
		SessionValid:    valid,
		EventsCount:     countEvents(m.document),
		ExpiresAt:       m.expiresAt,
		LastRefreshedAt: m.refreshedAt,
	}
}

func countEvents(doc string) int {
	return strings.Count(doc, "BEGIN:VEVENT")
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}
