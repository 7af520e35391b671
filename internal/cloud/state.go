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

package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ServiceClients holds the clients the configuration asks for. Clients for
// features that are not configured stay nil: a local CLI run with the OpenAI
// provider needs no Google Cloud project at all.
type ServiceClients struct {
	StorageClient   *storage.Client                         // Set when storage.output_bucket is configured.
	PubsubClient    *pubsub.Client                          // Set when topic subscriptions are configured.
	GenAIClient     *genai.Client                           // Set when the gemini provider is selected.
	BiqQueryClient  *bigquery.Client                        // Set when run history is enabled.
	IAMClient       *credentials.IamCredentialsClient       // Set when a signer service account is configured.
	OpenAIClient    *openai.Client                          // Set when the openai provider is selected.
	PubSubListeners map[string]*PubSubListener              // Keyed by the logical subscription name from the config.
	AgentModels     map[string]*QuotaAwareGenerativeAIModel // Keyed by the logical model name from the config.
}

func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
	if c.BiqQueryClient != nil {
		_ = c.BiqQueryClient.Close()
	}
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
}

// NewCloudServiceClients creates the clients required by config.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	cloud = &ServiceClients{
		PubSubListeners: make(map[string]*PubSubListener),
		AgentModels:     make(map[string]*QuotaAwareGenerativeAIModel),
	}
	defer func() {
		if err != nil {
			cloud.Close()
			cloud = nil
		}
	}()

	switch config.Text.Provider {
	case ProviderGemini:
		if err = cloud.initGenAI(ctx, config); err != nil {
			return cloud, err
		}
	case ProviderOpenAI:
		cloud.OpenAIClient = NewOpenAIClient(config.OpenAI)
	default:
		return cloud, fmt.Errorf("unknown text provider %q", config.Text.Provider)
	}

	if config.Storage.OutputBucket != "" {
		if cloud.StorageClient, err = storage.NewClient(ctx); err != nil {
			return cloud, fmt.Errorf("failed to create storage client: %w", err)
		}
	}

	if config.BigQueryDataSource.Enabled() {
		if cloud.BiqQueryClient, err = bigquery.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
			return cloud, fmt.Errorf("failed to create bigquery client: %w", err)
		}
	}

	if config.Application.SignerServiceAccountEmail != "" {
		if cloud.IAMClient, err = credentials.NewIamCredentialsClient(ctx); err != nil {
			return cloud, fmt.Errorf("failed to create iam credentials client: %w", err)
		}
	}

	if len(config.TopicSubscriptions) > 0 {
		if cloud.PubsubClient, err = pubsub.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
			return cloud, fmt.Errorf("failed to create pubsub client: %w", err)
		}
		for subKey, values := range config.TopicSubscriptions {
			cloud.PubSubListeners[subKey] = NewPubSubListener(cloud.PubsubClient, values.Name, nil)
		}
	}

	slog.Info("service clients ready",
		"project", config.Application.GoogleProjectId,
		"provider", config.Text.Provider,
		"storage", cloud.StorageClient != nil,
		"bigquery", cloud.BiqQueryClient != nil,
		"listeners", len(cloud.PubSubListeners))
	return cloud, nil
}

func (c *ServiceClients) initGenAI(ctx context.Context, config *Config) (err error) {
	clientConfig := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	if config.Application.GoogleProjectId != "" {
		clientConfig = &genai.ClientConfig{
			Project:  config.Application.GoogleProjectId,
			Location: config.Application.GoogleLocation,
			Backend:  genai.BackendVertexAI,
		}
	}
	c.GenAIClient, err = genai.NewClient(ctx, clientConfig)
	if err != nil {
		return fmt.Errorf("failed to create genai client: %w", err)
	}

	for amKey, values := range config.AgentModels {
		c.AgentModels[amKey] = NewQuotaAwareModel(NewGenerateContentConfig(values), values.Model, c.GenAIClient.Models, values.RateLimit)
	}
	return nil
}

// NewGenerateContentConfig converts a model entry from the config into the
// GenAI request settings.
func NewGenerateContentConfig(values VertexAiLLMModel) *genai.GenerateContentConfig {
	out := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](values.Temperature),
		TopP:             genai.Ptr[float32](values.TopP),
		MaxOutputTokens:  values.MaxTokens,
		SafetySettings:   DefaultSafetySettings,
		ResponseMIMEType: values.OutputFormat,
	}
	if values.TopK > 0 {
		out.TopK = genai.Ptr[float32](values.TopK)
	}
	if values.SystemInstructions != "" {
		out.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}}
	}
	return out
}

// NewOpenAIClient creates an OpenAI client, reading the key from the
// configured environment variable.
func NewOpenAIClient(values OpenAIModel) *openai.Client {
	keyEnv := values.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "OPENAI_API_KEY"
	}
	clientConfig := openai.DefaultConfig(os.Getenv(keyEnv))
	if values.BaseURL != "" {
		clientConfig.BaseURL = values.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}
