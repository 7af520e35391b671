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

// Package text implements the language detection, summarization and
// translation services on top of a request/response text generator.
package text

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/jaycherian/gcp-go-media-digest/internal/cloud"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/cor"
)

// TextGenerator sends one system instruction plus one payload and returns
// the model's complete reply.
type TextGenerator interface {
	Generate(ctx context.Context, instruction string, payload string) (string, error)

	// Name identifies the backing model in results and logs.
	Name() string
}

type tokenCounters struct {
	input  metric.Int64Counter
	output metric.Int64Counter
}

func newTokenCounters(prefix string) tokenCounters {
	meter := otel.Meter(cor.MeterName)
	in, _ := meter.Int64Counter(fmt.Sprintf("%s.token.input", prefix))
	out, _ := meter.Int64Counter(fmt.Sprintf("%s.token.output", prefix))
	return tokenCounters{input: in, output: out}
}

// GenAIGenerator calls a Gemini model through the rate limited wrapper.
type GenAIGenerator struct {
	model    *cloud.QuotaAwareGenerativeAIModel
	counters tokenCounters
}

func NewGenAIGenerator(model *cloud.QuotaAwareGenerativeAIModel) *GenAIGenerator {
	return &GenAIGenerator{model: model, counters: newTokenCounters("gemini")}
}

func (g *GenAIGenerator) Name() string {
	return g.model.ModelName
}

func (g *GenAIGenerator) Generate(ctx context.Context, instruction string, payload string) (string, error) {
	out, err := cloud.GenerateTextResponse(ctx, g.counters.input, g.counters.output, g.model, instruction, cloud.NewTextPart(payload))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// OpenAIGenerator calls an OpenAI chat completion model.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float32
	limiter     *rate.Limiter
	counters    tokenCounters
}

func NewOpenAIGenerator(client *openai.Client, config cloud.OpenAIModel) *OpenAIGenerator {
	rps := config.RateLimit
	if rps <= 0 {
		rps = 1
	}
	return &OpenAIGenerator{
		client:      client,
		model:       config.Model,
		temperature: config.Temperature,
		limiter:     rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), rps),
		counters:    newTokenCounters("openai"),
	}
}

func (g *OpenAIGenerator) Name() string {
	return g.model
}

func (g *OpenAIGenerator) Generate(ctx context.Context, instruction string, payload string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instruction},
			{Role: openai.ChatMessageRoleUser, Content: payload},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	g.counters.input.Add(ctx, int64(resp.Usage.PromptTokens))
	g.counters.output.Add(ctx, int64(resp.Usage.CompletionTokens))
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// NewGenerator selects the generator for the configured provider.
func NewGenerator(config *cloud.Config, clients *cloud.ServiceClients) (TextGenerator, error) {
	switch config.Text.Provider {
	case cloud.ProviderGemini:
		model, ok := clients.AgentModels[config.Text.AgentModel]
		if !ok {
			return nil, fmt.Errorf("agent model %q is not configured", config.Text.AgentModel)
		}
		slog.Info("text generation via gemini", "model", model.ModelName)
		return NewGenAIGenerator(model), nil
	case cloud.ProviderOpenAI:
		if clients.OpenAIClient == nil {
			return nil, fmt.Errorf("openai client is not initialized")
		}
		slog.Info("text generation via openai", "model", config.OpenAI.Model)
		return NewOpenAIGenerator(clients.OpenAIClient, config.OpenAI), nil
	}
	return nil, fmt.Errorf("unknown text provider %q", config.Text.Provider)
}

// firstRunes returns at most n code points of s.
func firstRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
