// Package pipeline sequences a voice request end to end: validate, stage,
// transcribe, reply, synthesize, transcode. Once a request is past
// transcription the caller always gets playable wire-format audio back:
// synthesis or transcoding failures degrade to generated silence, and a
// silence failure degrades further to a static minimal header.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/esp-voice-lab/internal/backend"
	"github.com/esp-voice-lab/internal/logging"
	"github.com/esp-voice-lab/internal/transcode"
	"github.com/esp-voice-lab/internal/wire"
)

const (
	// DefaultMaxReplyChars caps reply text so synthesis cost and payload
	// size stay bounded for the device.
	DefaultMaxReplyChars = 200

	// truncationMarker is appended to replies cut at the cap.
	truncationMarker = "..."

	// apologyText replaces the reply when generation fails; producing some
	// spoken answer beats returning an HTTP error to a speaker-only device.
	apologyText = "Lo siento, no puedo responder en este momento. Inténtalo de nuevo."

	// silenceSeconds is the length of the generated-silence fallback.
	silenceSeconds = 1.0
)

// Upload is one inbound audio clip as received from the HTTP layer.
type Upload struct {
	Filename string
	Data     []byte
}

// Result is the outcome of a successfully handled request. Audio always
// satisfies the wire contract. Fallback records which degradation branch
// produced the audio: "" (normal), "silence" or "minimal".
type Result struct {
	Audio      []byte
	Transcript string
	Reply      string
	Fallback   string
}

// Pipeline orchestrates one request at a time; it holds no per-request state
// and is safe for concurrent use once constructed.
type Pipeline struct {
	STT     backend.Transcriber
	Replier backend.ReplyGenerator
	TTS     backend.Synthesizer

	// ToWire and Silence are swappable for tests; nil means the real
	// implementations.
	ToWire  func([]byte) ([]byte, error)
	Silence func(seconds float64) ([]byte, error)

	MaxReplyChars int
	StagingDir    string
}

func (p *Pipeline) toWire(data []byte) ([]byte, error) {
	if p.ToWire != nil {
		return p.ToWire(data)
	}
	return transcode.ToWire(data)
}

func (p *Pipeline) silence(seconds float64) ([]byte, error) {
	if p.Silence != nil {
		return p.Silence(seconds)
	}
	return wire.Silence(seconds)
}

func (p *Pipeline) maxReplyChars() int {
	if p.MaxReplyChars > 0 {
		return p.MaxReplyChars
	}
	return DefaultMaxReplyChars
}

// Ready reports whether the transcription backend is wired; without it every
// request would fail with ErrUnavailable.
func (p *Pipeline) Ready() bool { return p.STT != nil }

// Handle runs the full pipeline for one request. It returns a Result on the
// audio path or one of the sentinel errors (ErrUnauthorized, ErrEmptyUpload,
// ErrNoSpeech, backend.ErrUnavailable) for failures before or during
// transcription. Every temporary file created along the way is released
// before Handle returns, on every path.
func (p *Pipeline) Handle(ctx context.Context, authHeader string, up Upload) (*Result, error) {
	// Presence/shape check only; no pipeline resource exists yet.
	if !ValidToken(authHeader) {
		return nil, ErrUnauthorized
	}
	if up.Filename == "" || len(up.Data) == 0 {
		return nil, ErrEmptyUpload
	}

	cid := uuid.NewString()
	st := NewStaging(p.StagingDir)
	defer st.Cleanup()

	inPath, err := st.Create("upload", ".wav", up.Data)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	if dur, derr := wire.Duration(up.Data); derr == nil {
		logging.Infow("processing audio", "file", up.Filename, "bytes", len(up.Data), "duration_s", dur, "staged", inPath, "correlation_id", cid)
	} else {
		logging.Infow("processing audio", "file", up.Filename, "bytes", len(up.Data), "staged", inPath, "correlation_id", cid)
	}

	if p.STT == nil {
		return nil, fmt.Errorf("stt: %w", backend.ErrUnavailable)
	}
	transcript, err := p.STT.Transcribe(ctx, up.Data)
	if err != nil {
		if errors.Is(err, backend.ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("transcription failed: %w", err)
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, ErrNoSpeech
	}
	logging.Infow("transcription", "text", transcript, "correlation_id", cid)

	reply := p.generateReply(ctx, transcript, cid)
	audio, fallback := p.speak(ctx, st, reply, cid)

	logging.Infow("response ready", "bytes", len(audio), "fallback", fallback, "correlation_id", cid)
	return &Result{Audio: audio, Transcript: transcript, Reply: reply, Fallback: fallback}, nil
}

// generateReply asks the reply backend for an answer. Generation has no
// failure mode that aborts the request: any error downgrades to the static
// apology. The reply is truncated at the cap with a visible marker.
func (p *Pipeline) generateReply(ctx context.Context, transcript, cid string) string {
	reply := apologyText
	if p.Replier != nil {
		if r, err := p.Replier.Generate(ctx, transcript); err != nil {
			logging.Warnw("reply generation failed, using apology", "err", err, "correlation_id", cid)
		} else if strings.TrimSpace(r) == "" {
			logging.Warnw("reply generation returned empty text, using apology", "correlation_id", cid)
		} else {
			reply = r
		}
	}
	if limit := p.maxReplyChars(); len(reply) > limit {
		// Back up to a rune boundary so the cut never splits a multibyte
		// character; replies are routinely Spanish.
		cut := limit
		for cut > 0 && !utf8.RuneStart(reply[cut]) {
			cut--
		}
		reply = reply[:cut] + truncationMarker
	}
	return reply
}

// speak synthesizes reply text and normalizes it to the wire format,
// degrading along the fallback chain on any failure. It always returns a
// valid wire payload.
func (p *Pipeline) speak(ctx context.Context, st *Staging, text, cid string) ([]byte, string) {
	if p.TTS == nil {
		logging.Warnw("no synthesizer configured, falling back to silence", "correlation_id", cid)
		return p.fallbackAudio(cid)
	}

	raw, err := p.TTS.Synthesize(ctx, text)
	if err != nil {
		logging.Warnw("synthesis failed, falling back to silence", "err", err, "correlation_id", cid)
		return p.fallbackAudio(cid)
	}

	// Stage the intermediate codec buffer so a transcoder crash can't leak
	// it past the request.
	if path, serr := st.Create("tts", ".bin", raw); serr != nil {
		logging.Debugw("failed to stage synthesized audio", "err", serr, "correlation_id", cid)
	} else {
		logging.Debugw("staged synthesized audio", "path", path, "bytes", len(raw), "correlation_id", cid)
	}

	out, err := p.toWire(raw)
	if err != nil {
		logging.Warnw("transcode failed, falling back to silence", "err", err, "correlation_id", cid)
		return p.fallbackAudio(cid)
	}
	if verr := wire.Validate(out); verr != nil || len(out) <= wire.HeaderSize {
		logging.Warnw("transcoded audio failed validation, falling back to silence", "err", verr, "correlation_id", cid)
		return p.fallbackAudio(cid)
	}
	return out, ""
}

// fallbackAudio is the two-level degradation: generated silence first, then
// the hard-coded minimal header. The device expects a WAV-shaped payload on
// every request; it has no separate error-display channel.
func (p *Pipeline) fallbackAudio(cid string) ([]byte, string) {
	sil, err := p.silence(silenceSeconds)
	if err != nil {
		logging.Errorw("silence generation failed, using minimal header", "err", err, "correlation_id", cid)
		return wire.Minimal(), "minimal"
	}
	if verr := wire.Validate(sil); verr != nil {
		logging.Errorw("silence generator produced invalid audio, using minimal header", "err", verr, "correlation_id", cid)
		return wire.Minimal(), "minimal"
	}
	return sil, "silence"
}

// ValidToken accepts "Bearer <nonempty>". Credential verification is an
// external concern.
func ValidToken(header string) bool {
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")) != ""
}
