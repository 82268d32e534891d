package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	t "github.com/dmfcosta/isep-ics-server/types"
)

// HealthHandler reports session validity (a fresh probe, independent of
// cache freshness), the cached event count and the cache timestamps.
func (h Handlers) HealthHandler(c *fiber.Ctx) error {
	snap := h.Cache.HealthSnapshot(c.UserContext())

	h.Logger.Info("HealthHandler",
		zap.Bool("session_valid", snap.SessionValid),
		zap.Int("events_count", snap.EventsCount))

	resp := t.HealthResponse{
		Status:       "ok",
		SessionValid: snap.SessionValid,
		EventsCount:  snap.EventsCount,
	}
	if !snap.ExpiresAt.IsZero() {
		resp.CacheExpires = snap.ExpiresAt.Format(time.RFC3339)
	}
	if !snap.LastRefreshedAt.IsZero() {
		resp.LastRefresh = snap.LastRefreshedAt.Format(time.RFC3339)
	}
	return c.JSON(resp)
}
