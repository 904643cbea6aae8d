package platform

import "fmt"

// AuthError means a connection could not be established or was missing.
// The connection stays absent; nothing is published.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Message, e.Err)
	}
	return "authentication failed: " + e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// PublishError is a rejection from the platform during publish. Message
// carries the platform's reported error text verbatim; no retry is
// attempted and no history record is written.
type PublishError struct {
	Phase   string // "upload" or "post"
	Message string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed during %s: %s", e.Phase, e.Message)
}
