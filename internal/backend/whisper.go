package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/esp-voice-lab/internal/logging"
)

// WhisperClient transcribes audio by POSTing it to a Whisper-style HTTP STT
// service that answers {"text": "..."}.
type WhisperClient struct {
	URL      string
	Language string
	Client   *http.Client
	Timeout  time.Duration
	Attempts int
}

// NewWhisperClient returns a client for the given STT endpoint, or nil if
// endpoint is empty. A nil *WhisperClient reports ErrUnavailable.
func NewWhisperClient(endpoint, language string, timeout time.Duration) *WhisperClient {
	if strings.TrimSpace(endpoint) == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WhisperClient{
		URL:      endpoint,
		Language: language,
		Client:   &http.Client{Timeout: timeout},
		Timeout:  timeout,
		Attempts: 3,
	}
}

// Transcribe posts the WAV bytes and returns the trimmed transcript. An
// empty transcript with a nil error means no speech was detected.
func (w *WhisperClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if w == nil || w.URL == "" {
		return "", fmt.Errorf("stt: %w", ErrUnavailable)
	}

	endpoint := w.URL
	if u, err := url.Parse(w.URL); err == nil && w.Language != "" {
		q := u.Query()
		q.Set("language", w.Language)
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}

	resp, err := postWithRetries(ctx, w.Client, endpoint, "audio/wav", audio, "", w.Timeout, w.Attempts, "")
	if err != nil {
		return "", fmt.Errorf("stt request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		_, _ = io.ReadAll(resp.Body)
		return "", fmt.Errorf("stt: %w", ErrUnavailable)
	}
	if resp.StatusCode >= 300 {
		_, _ = io.ReadAll(resp.Body)
		logging.Warnw("stt: returned non-2xx", "status", resp.StatusCode)
		return "", fmt.Errorf("stt returned status %d", resp.StatusCode)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("stt: decode response: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}
