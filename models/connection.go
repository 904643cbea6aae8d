package models

import "time"

const (
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
	PlatformLinkedIn  = "linkedin"
)

// IsValidPlatform reports whether the platform identifier is supported.
func IsValidPlatform(v string) bool {
	switch v {
	case PlatformFacebook, PlatformInstagram, PlatformLinkedIn:
		return true
	default:
		return false
	}
}

// AccountInfo is the profile fetched for a connected account. Best-effort:
// a connection without profile info is still usable for publishing.
type AccountInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Connection is an authenticated link to one platform. At most one active
// connection per platform. The access token is persisted but must never be
// logged or returned in API responses; only the publish gateway reads it.
type Connection struct {
	Platform    string      `json:"platform"`
	AccessToken string      `json:"access_token"`
	Account     AccountInfo `json:"account"`
	ConnectedAt time.Time   `json:"connected_at"`
}

// ConnectionInfo is the redacted view of a Connection safe for responses.
type ConnectionInfo struct {
	Platform    string      `json:"platform"`
	Account     AccountInfo `json:"account"`
	ConnectedAt time.Time   `json:"connected_at"`
}

// Info returns the redacted view of the connection.
func (c Connection) Info() ConnectionInfo {
	return ConnectionInfo{
		Platform:    c.Platform,
		Account:     c.Account,
		ConnectedAt: c.ConnectedAt,
	}
}
