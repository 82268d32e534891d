package handlers

import (
	"github.com/dmfcosta/isep-ics-server/cache"
	"go.uber.org/zap"
)

type Handlers struct {
	Logger *zap.Logger
	Cache  *cache.Manager
}
