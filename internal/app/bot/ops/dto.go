package ops

// HealthInput represents the input for health check endpoint
type HealthInput struct{}

// HealthOutput represents the output for health check endpoint
type HealthOutput struct {
	Body HealthResponse
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status" example:"OK" doc:"Health status of the service"`
}

// StatusInput represents the input for the sync status endpoint
type StatusInput struct{}

// StatusOutput represents the output for the sync status endpoint
type StatusOutput struct {
	Body StatusResponse
}

// StatusResponse reports the process-local sync state of the bot
type StatusResponse struct {
	Connected      bool   `json:"connected" doc:"Whether the gateway connection is up"`
	GuildID        string `json:"guild_id" doc:"Statically configured target guild"`
	SyncInProgress bool   `json:"sync_in_progress" doc:"Whether a full-guild sync is running"`
	LastFullSync   string `json:"last_full_sync,omitempty" doc:"RFC 3339 time of the last successful full sync"`
	UptimeSeconds  int64  `json:"uptime_seconds" doc:"Seconds since process start"`
}
