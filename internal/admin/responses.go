package admin

import "time"

// IssueTokenRequest asks for a bearer token for Actor. TTL is a Go duration
// string; empty uses the configured default.
type IssueTokenRequest struct {
	Actor string `json:"actor"`
	TTL   string `json:"ttl,omitempty"`
}

// IssueTokenResponse is returned by POST /admin/tokens.
type IssueTokenResponse struct {
	Token     string    `json:"token"`
	JTI       string    `json:"jti"`
	Actor     string    `json:"actor"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RevokeTokenRequest revokes the token with JTI, plus any listed in JTIs.
type RevokeTokenRequest struct {
	JTI  string   `json:"jti,omitempty"`
	JTIs []string `json:"jtis,omitempty"`
}

// AuditEventsResponse is returned by GET /admin/audit.
type AuditEventsResponse struct {
	Events []AuditEventResponse `json:"events"`
}

type AuditEventResponse struct {
	ID             string    `json:"id,omitempty"`
	Category       string    `json:"category"`
	Timestamp      time.Time `json:"timestamp"`
	Registry       string    `json:"registry"`
	RecordID       uint64    `json:"record_id,omitempty"`
	Actor          string    `json:"actor"`
	Owner          string    `json:"owner,omitempty"`
	Action         string    `json:"action"`
	Status         string    `json:"status,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	RequestID      string    `json:"request_id,omitempty"`
}
