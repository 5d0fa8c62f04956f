package api

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Up          bool   `json:"up"`
	Error       string `json:"error,omitempty"`
	JailCount   int    `json:"jail_count"`
	FailedCount int    `json:"failed_count"`
	LastPoll    string `json:"last_poll,omitempty"` // RFC3339
}

// JailResponse is one jail in GET /api/v1/jails or GET /api/v1/jails/{name}.
// Counter fields are omitted when fail2ban did not report them.
type JailResponse struct {
	Jail            string `json:"jail"`
	CurrentlyBanned *int64 `json:"currently_banned,omitempty"`
	CurrentlyFailed *int64 `json:"currently_failed,omitempty"`
	TotalBanned     *int64 `json:"total_banned,omitempty"`
	TotalFailed     *int64 `json:"total_failed,omitempty"`
	LastError       string `json:"last_error,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"` // RFC3339
	SeenAt          string `json:"seen_at"`              // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
