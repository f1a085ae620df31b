package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/esp-voice-lab/internal/logging"
)

// TTSClient synthesizes speech by POSTing {"text": ...} to an external TTS
// service and returning the raw audio body. The returned bytes are in the
// service's native codec and must be transcoded before reaching a client.
type TTSClient struct {
	URL       string
	AuthToken string
	Client    *http.Client
	Timeout   time.Duration
	Attempts  int
}

// NewTTSClient returns a client for the given TTS endpoint, or nil if
// endpoint is empty. A nil *TTSClient reports ErrUnavailable.
func NewTTSClient(endpoint, authToken string, timeout time.Duration) *TTSClient {
	if strings.TrimSpace(endpoint) == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TTSClient{
		URL:       endpoint,
		AuthToken: authToken,
		Client:    &http.Client{Timeout: timeout},
		Timeout:   timeout,
		Attempts:  2,
	}
}

// Synthesize sends text to the TTS service and returns the audio bytes.
func (t *TTSClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if t == nil || t.URL == "" {
		return nil, fmt.Errorf("tts: %w", ErrUnavailable)
	}
	body, _ := json.Marshal(map[string]string{"text": text})
	resp, err := postWithRetries(ctx, t.Client, t.URL, "application/json", body, t.AuthToken, t.Timeout, t.Attempts, "")
	if err != nil {
		logging.Debugw("tts: POST failed", "err", err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		_, _ = io.ReadAll(resp.Body)
		logging.Warnw("tts: returned non-2xx", "status", resp.StatusCode)
		return nil, fmt.Errorf("tts returned status %d", resp.StatusCode)
	}
	audio, rerr := io.ReadAll(resp.Body)
	if rerr != nil {
		logging.Debugw("tts: failed to read response body", "err", rerr)
		return nil, rerr
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("tts returned empty audio")
	}
	return audio, nil
}
