package anthropic_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/safehands/guide/pkg/generation/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *anthropic.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := anthropic.NewClient(anthropic.Config{
		APIKey:  "test-key",
		Options: []option.RequestOption{option.WithBaseURL(server.URL), option.WithMaxRetries(0)},
	})
	require.NoError(t, err)

	return client
}

func TestClient_Generate(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [
				{"type": "text", "text": "Look for the magnifying glass "},
				{"type": "text", "text": "at the bottom of the screen."}
			],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 12}
		}`))
	})

	text, err := client.Generate(context.Background(), "Where is search?")
	require.NoError(t, err)
	assert.Equal(t, "Look for the magnifying glass at the bottom of the screen.", text)
	assert.Equal(t, anthropic.DefaultModel, client.Model())
}

func TestClient_GenerateServerError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	})

	_, err := client.Generate(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Anthropic messages request failed")
}

func TestNewClient_RequiresKey(t *testing.T) {
	t.Parallel()

	_, err := anthropic.NewClient(anthropic.Config{})
	require.Error(t, err)
}
