package types

// HealthResponse is the JSON body of the health endpoint. Field names
// match what the cookie monitoring tooling polls for.
type HealthResponse struct {
	Status       string `json:"status"`
	CacheExpires string `json:"cache_expires,omitempty"`
	SessionValid bool   `json:"session_valid"`
	EventsCount  int    `json:"events_count"`
	LastRefresh  string `json:"last_refresh,omitempty"`
}
