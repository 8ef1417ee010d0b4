package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/expense-tracker/internal/llm"
)

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "gpt-test", body["model"])
		require.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  {\"items\":[]}  "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/", Model: "gpt-test"}, nil)
	out, err := c.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, `{"items":[]}`, out)
}

func TestComplete_Errors(t *testing.T) {
	status := http.StatusTooManyRequests
	body := `{"error":{"message":"slow down"}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := c.Complete(context.Background(), "p")
	require.ErrorContains(t, err, "429")
	var serr *llm.StatusError
	require.ErrorAs(t, err, &serr)
	require.True(t, serr.Retryable())

	status, body = http.StatusOK, `{"choices":[]}`
	_, err = c.Complete(context.Background(), "p")
	require.ErrorContains(t, err, "no choices")
}
