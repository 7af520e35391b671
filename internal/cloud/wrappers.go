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
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// QuotaAwareGenerativeAIModel paces calls to a GenAI model so that bursts of
// pipeline runs stay inside the project quota. Calls block until the limiter
// admits them or ctx is done.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig // Base generation settings shared by every call.
	ModelName               string
	ModelHandle             *genai.Models
	RateLimit               *rate.Limiter
}

func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, modelHandle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             modelHandle,
		RateLimit:               rate.NewLimiter(rate.Every(time.Second/time.Duration(requestsPerSecond)), requestsPerSecond),
	}
}

// GenerateContent waits for a token and issues a single request. When
// instruction is not empty it replaces the configured system instruction for
// this call only.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, instruction string, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, err
	}
	config := q.callConfig(instruction)
	return q.ModelHandle.GenerateContent(ctx, q.ModelName, content, config)
}

func (q *QuotaAwareGenerativeAIModel) callConfig(instruction string) *genai.GenerateContentConfig {
	var config genai.GenerateContentConfig
	if q.GenerativeContentConfig != nil {
		config = *q.GenerativeContentConfig
	}
	if instruction != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: instruction}}}
	}
	return &config
}
