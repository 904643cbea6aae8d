package ai

import "fmt"

// GenerationError is a hard failure of a text or image generation call.
// Any GenerationError aborts the whole batch; re-issuing the prompt is the
// only recovery.
type GenerationError struct {
	Stage   string // "text" or "image"
	Version int
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("version %d: %s generation failed: %v", e.Version, e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
