package backend

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/esp-voice-lab/internal/logging"
)

// postWithRetries posts body to url with retry/backoff and returns the
// response. Caller must close resp.Body. Transport errors are retried with
// exponential backoff; HTTP error statuses are returned to the caller.
// The timeout covers each attempt including the body read, via the client.
func postWithRetries(ctx context.Context, client *http.Client, url, contentType string, body []byte, authToken string, timeout time.Duration, attempts int, correlationID string) (*http.Response, error) {
	if attempts <= 0 {
		attempts = 1
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	for i := 0; i < attempts; i++ {
		req, rerr := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if rerr != nil {
			logging.Debugw("postWithRetries: new request error", "err", rerr, "correlation_id", correlationID)
			return nil, rerr
		}
		req.Header.Set("Content-Type", contentType)
		if authToken != "" {
			req.Header.Set("Authorization", "Bearer "+authToken)
		}
		if correlationID != "" {
			req.Header.Set("X-Correlation-ID", correlationID)
		}

		resp, err := client.Do(req)
		if err != nil {
			logging.Debugw("postWithRetries: POST attempt failed", "attempt", i+1, "err", err, "correlation_id", correlationID)
			if ctx.Err() != nil {
				return nil, err
			}
			if i < attempts-1 {
				time.Sleep(time.Duration(200*(1<<i)) * time.Millisecond)
				continue
			}
			return nil, err
		}
		return resp, nil
	}
	return nil, fmt.Errorf("no response from postWithRetries")
}
