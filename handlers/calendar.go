package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CalendarHandler serves the cached calendar document, refreshing it
// first when stale. It always answers 200 with the best available
// document, even when that is stale or empty; failures only ever show
// up on the health endpoint.
func (h Handlers) CalendarHandler(c *fiber.Ctx) error {
	doc := h.Cache.Document(c.UserContext())

	h.Logger.Info("CalendarHandler", zap.Int("bytes", len(doc)))

	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	return c.SendString(doc)
}
