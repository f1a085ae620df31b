// Package backend defines the capability boundaries the pipeline depends on:
// transcription, reply generation and speech synthesis. Each capability is
// polymorphic over its provider; the pipeline never sees provider identity.
package backend

import (
	"context"
	"errors"
)

// ErrUnavailable indicates a backend is not configured or not ready. Any
// other error returned by a backend is a call failure.
var ErrUnavailable = errors.New("backend unavailable")

// Transcriber converts spoken audio into text. An empty string with a nil
// error means no speech was detected; that is a normal outcome.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// ReplyGenerator produces a textual reply for a transcript.
type ReplyGenerator interface {
	Generate(ctx context.Context, transcript string) (string, error)
}

// Synthesizer converts text into audio bytes in the provider's native codec.
// The result must pass through the transcoder before reaching a client.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
