package constants

// Stable route paths shared by router and deploy manifests.
const (
	PathHealth = "/health"
	PathReady  = "/ready"
	PathWS     = "/ws"
)
