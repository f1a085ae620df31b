package pipeline

import "errors"

// Sentinel errors surfaced to the HTTP layer. Everything else coming out of
// Handle is an internal failure.
var (
	// ErrUnauthorized: bearer token absent or malformed. Checked before any
	// resource is allocated.
	ErrUnauthorized = errors.New("authorization token required")

	// ErrEmptyUpload: missing file part, empty filename or zero bytes.
	ErrEmptyUpload = errors.New("no audio file provided")

	// ErrNoSpeech: the transcriber returned empty or whitespace-only text.
	// A normal outcome, not a crash.
	ErrNoSpeech = errors.New("no speech detected in audio")
)
