package openai

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
)

func newServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model          string `json:"model"`
			ResponseFormat struct {
				Type string `json:"type"`
			} `json:"response_format"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body.Model)
		assert.Equal(t, "json_object", body.ResponseFormat.Type)
		assert.Len(t, body.Messages, 3)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(url string) *Client {
	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: url + "/v1",
		Model:   "test-model",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExtractFields(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"variable_symbol":"2024001234","due_date":"2025-06-26","currency":"czk"}`)

	rec, raw, err := newClient(srv.URL).ExtractFields(t.Context(), llm.ExtractRequest{
		Text:    "Faktura 2024001234",
		Missing: []string{invoice.FieldDueDate},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, "2024001234", invoice.Value(rec.VariableSymbol))
	assert.Equal(t, "2025-06-26", invoice.Value(rec.DueDate))
	assert.Equal(t, "CZK", invoice.Value(rec.Currency))
}

func TestExtractFieldsServerError(t *testing.T) {
	srv := newServer(t, http.StatusInternalServerError, "")

	_, _, err := newClient(srv.URL).ExtractFields(t.Context(), llm.ExtractRequest{Text: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrExternalExtractor))
}

func TestExtractFieldsBadContent(t *testing.T) {
	srv := newServer(t, http.StatusOK, `I could not find anything.`)

	_, _, err := newClient(srv.URL).ExtractFields(t.Context(), llm.ExtractRequest{Text: "x"})
	assert.True(t, errors.Is(err, common.ErrExternalExtractor))
}
