// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package text_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-media-digest/internal/cloud"
	"github.com/jaycherian/gcp-go-media-digest/internal/text"
)

func TestOpenAIGenerator(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "  es \n"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 1, "total_tokens": 13}
		}`)
	}))
	defer srv.Close()

	clientConfig := openai.DefaultConfig("test-key")
	clientConfig.BaseURL = srv.URL + "/v1"
	gen := text.NewOpenAIGenerator(openai.NewClientWithConfig(clientConfig), cloud.OpenAIModel{Model: "gpt-4o-mini", Temperature: 0.1, RateLimit: 5})

	out, err := gen.Generate(context.Background(), "detect the language", "Text to analyze: hola")
	require.NoError(t, err)
	assert.Equal(t, "es", out)
	assert.Equal(t, "gpt-4o-mini", gen.Name())

	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "detect the language", got.Messages[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, got.Messages[1].Role)
	assert.Equal(t, "Text to analyze: hola", got.Messages[1].Content)
}

func TestOpenAIGeneratorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error": {"message": "slow down", "type": "rate_limit"}}`)
	}))
	defer srv.Close()

	clientConfig := openai.DefaultConfig("test-key")
	clientConfig.BaseURL = srv.URL + "/v1"
	gen := text.NewOpenAIGenerator(openai.NewClientWithConfig(clientConfig), cloud.OpenAIModel{Model: "gpt-4o-mini"})

	_, err := gen.Generate(context.Background(), "x", "y")
	assert.Error(t, err)
}

func TestGenAIGenerator(t *testing.T) {
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "Un resumen"}, {"text": " breve."}]}}],
			"usageMetadata": {"promptTokenCount": 20, "candidatesTokenCount": 4}
		}`)
	}))
	defer srv.Close()

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: srv.URL + "/"},
	})
	require.NoError(t, err)

	model := cloud.NewQuotaAwareModel(cloud.NewGenerateContentConfig(cloud.VertexAiLLMModel{Temperature: 0.1, TopP: 1}), "gemini-test", client.Models, 10)
	gen := text.NewGenAIGenerator(model)

	out, err := gen.Generate(context.Background(), "summarize this", "Text to summarize: algo")
	require.NoError(t, err)
	assert.Equal(t, "Un resumen breve.", out)
	assert.Equal(t, "gemini-test", gen.Name())

	raw, _ := json.Marshal(body)
	assert.Contains(t, string(raw), "summarize this")
	assert.Contains(t, string(raw), "Text to summarize: algo")
}
