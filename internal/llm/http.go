package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// maxErrorBody caps how much of a failed response ends up in an error message.
const maxErrorBody = 512

// StatusError is a non-2xx answer from a model provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.Code, e.Body)
}

// Retryable reports rate limiting and provider-side failures. Nothing in the
// pipeline retries on its own; callers resubmit.
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// SendJSON POSTs body as JSON and returns the raw response. Provider clients
// own the URL and auth headers. A non-2xx answer returns the body together
// with a *StatusError.
func SendJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}
	reqID := uuid.NewString()
	start := time.Now()
	elapsed := func() int64 { return time.Since(start).Milliseconds() }

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger.Debug("llm.http.request", "req_id", reqID, "url", url, "prompt_bytes", len(payload))
	resp, err := client.Do(req)
	if err != nil {
		logger.Error("llm.http.send_failed", "req_id", reqID, "error", err, "elapsed_ms", elapsed())
		return nil, 0, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("llm.http.body_close_failed", "req_id", reqID, "error", cerr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		snippet := raw
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		serr := &StatusError{Code: resp.StatusCode, Body: string(snippet)}
		logger.Warn("llm.http.status", "req_id", reqID, "status", resp.StatusCode,
			"retryable", serr.Retryable(), "elapsed_ms", elapsed())
		return raw, resp.StatusCode, serr
	}

	logger.Info("llm.http.ok", "req_id", reqID, "status", resp.StatusCode,
		"response_bytes", len(raw), "elapsed_ms", elapsed())
	return raw, resp.StatusCode, nil
}
