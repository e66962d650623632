package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/mailmesh/search"
)

const searchReply = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-sonnet-4-20250514",
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 10, "output_tokens": 20},
  "content": [
    {"type": "server_tool_use", "id": "srvtoolu_1", "name": "web_search", "input": {"query": "mt fuji"}},
    {"type": "web_search_tool_result", "tool_use_id": "srvtoolu_1", "content": [
      {"type": "web_search_result", "title": "Fuji", "url": "https://example.org/fuji", "encrypted_content": "x"},
      {"type": "web_search_result", "title": "Fuji again", "url": "https://example.org/fuji", "encrypted_content": "y"}
    ]},
    {"type": "text", "text": "Mount Fuji is 3,776 m tall."}
  ]
}`

func newTestSearcher(t *testing.T, handler http.HandlerFunc) *Searcher {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := anthropic.NewClient(option.WithBaseURL(srv.URL), option.WithAPIKey("test"), option.WithMaxRetries(0))

	return NewSearcherFromClient(&client)
}

func TestSearch(t *testing.T) {
	var body map[string]any

	s := newTestSearcher(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchReply))
	})

	res, err := s.Search(context.Background(), "  how tall is mt fuji ")
	require.NoError(t, err)

	assert.Equal(t, "how tall is mt fuji", res.Query)
	assert.Equal(t, "Mount Fuji is 3,776 m tall.", res.Summary)
	assert.Equal(t, []search.Source{{Title: "Fuji", URL: "https://example.org/fuji"}}, res.Sources)

	tools, ok := body["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
	assert.Equal(t, "web_search", tools[0].(map[string]any)["name"])
}

func TestSearchEmptyQuery(t *testing.T) {
	s := newTestSearcher(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})

	_, err := s.Search(context.Background(), " ")
	assert.ErrorIs(t, err, search.ErrEmptyQuery)
}

func TestSearchProviderError(t *testing.T) {
	s := newTestSearcher(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`))
	})

	_, err := s.Search(context.Background(), "q")
	assert.Error(t, err)
}
