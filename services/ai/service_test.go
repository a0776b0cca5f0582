package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperdesk/paperdesk/config"
	er "github.com/paperdesk/paperdesk/internal/errors"
	"github.com/paperdesk/paperdesk/internal/logger"
)

func testLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{LogLevel: "error"})
	appLogger.InitLogger()
	return appLogger
}

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var request chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		require.Len(t, request.Messages, 2)
		assert.Equal(t, "system", request.Messages[0].Role)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
}

func newTestService(baseURL string) *aiService {
	return NewAIService(&config.LLMConfig{
		APIKey:         "test-key",
		BaseURL:        baseURL,
		Model:          "test-model",
		TimeoutSeconds: 5,
	}, testLogger()).(*aiService)
}

func TestExtractDocument(t *testing.T) {
	server := completionServer(t, "```json\n{\"category\": \"banking\"}\n```")
	defer server.Close()

	completion, err := newTestService(server.URL).ExtractDocument(context.Background(), "statement text")
	require.NoError(t, err)
	assert.Contains(t, completion, "banking")
}

func TestExtractDocument_EmptyText(t *testing.T) {
	_, err := newTestService("http://unused").ExtractDocument(context.Background(), "   ")
	assert.ErrorIs(t, err, er.ErrEmptyDocumentText)
}

func TestComplete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	_, err := newTestService(server.URL).ClassifyDocument(context.Background(), "text")
	assert.ErrorIs(t, err, er.ErrNoCompletion)
}

func TestComplete_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestService(server.URL).ClassifyDocument(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFindBlankFields_FiltersToKnownFields(t *testing.T) {
	server := completionServer(t, `["iban", "favourite_color", "Full_Name"]`)
	defer server.Close()

	fields, err := newTestService(server.URL).FindBlankFields(context.Background(), "form text", []string{"full_name", "iban", "phone"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"iban", "full_name"}, fields)
}

func TestParseStringArray(t *testing.T) {
	tests := []struct {
		name       string
		completion string
		want       []string
	}{
		{"clean array", `["a", "b"]`, []string{"a", "b"}},
		{"fenced array", "```json\n[\"a\", \"b\"]\n```", []string{"a", "b"}},
		{"array in prose", `The blank fields are ["iban"] as far as I can tell.`, []string{"iban"}},
		{"bullet list fallback", "- iban\n- phone", []string{"iban", "phone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseStringArray(tt.completion))
		})
	}
}

func TestClip(t *testing.T) {
	long := make([]byte, maxDocumentChars+100)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, clip(string(long)), maxDocumentChars)
	assert.Equal(t, "short", clip("short"))
}
