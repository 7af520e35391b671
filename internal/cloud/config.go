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

// Package cloud defines the application configuration, loaded from TOML
// files, and the shared clients built from it (Google Cloud services, GenAI
// models, the OpenAI client and Pub/Sub listeners).
//
// This file centralizes all configuration-related structs.
//
// Structs:
//   - Paths: Local directories used by a pipeline run.
//   - Tools: Locations of the external binaries the pipeline shells out to.
//   - Recognizer: Speech model settings.
//   - TextServices: Which text generation provider backs detection, summaries and translation.
//   - VertexAiLLMModel: Configuration for a Vertex AI / Gemini model.
//   - OpenAIModel: Configuration for an OpenAI chat model.
//   - TopicSubscription: Configuration for a single Pub/Sub topic subscription.
//   - Storage: Optional Cloud Storage upload target.
//   - BigQueryDataSource: Optional run history table.
//   - Config: The top-level struct that aggregates all other configuration structs.
package cloud

import "google.golang.org/genai"

// DefaultSafetySettings disables content blocking. Transcripts are summarized
// verbatim and a blocked response would fail the whole run.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// Text generation providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Paths struct {
	VideoDownloadPath string            `toml:"video_download_path"` // Where acquired videos are written.
	AudioDownloadPath string            `toml:"audio_download_path"` // Where extracted audio is written.
	OutputPath        string            `toml:"output_path"`         // Default output root for run directories.
	TestPaths         map[string]string `toml:"test_paths"`          // Named fixtures used by integration tests.
}

type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
	YtDlp   string `toml:"yt_dlp"`
	Whisper string `toml:"whisper"`
}

type Recognizer struct {
	ModelName  string `toml:"model_name"` // Reported in transcript metadata.
	ModelPath  string `toml:"model_path"` // ggml model file for whisper.cpp.
	SampleRate int    `toml:"sample_rate"`
	Device     string `toml:"device"`   // auto, cpu, cuda or metal.
	Language   string `toml:"language"` // Spoken language hint, "auto" to let the model decide.
	BeamSize   int    `toml:"beam_size"`
	Threads    int    `toml:"threads"`
}

type TextServices struct {
	Provider              string `toml:"provider"`                // gemini or openai.
	AgentModel            string `toml:"agent_model"`             // Key into AgentModels when the provider is gemini.
	SummaryMaxLength      int    `toml:"summary_max_length"`      // Advisory character budget for summaries.
	DetectionPrefixLength int    `toml:"detection_prefix_length"` // Characters of transcript sent for language detection.
	DefaultFocus          string `toml:"default_focus"`           // Focus hints used when a request names none.
}

type VertexAiLLMModel struct {
	Model              string  `toml:"model"`               // The name of the Gemini model.
	SystemInstructions string  `toml:"system_instructions"` // Base system instructions, replaced per call by the text services.
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	OutputFormat       string  `toml:"output_format"` // Response MIME type, "text/plain" for the digest pipeline.
	RateLimit          int     `toml:"rate_limit"`    // Requests per second.
}

type OpenAIModel struct {
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
	BaseURL     string  `toml:"base_url"`    // Optional override, e.g. for a compatible gateway.
	APIKeyEnv   string  `toml:"api_key_env"` // Environment variable holding the key.
	RateLimit   int     `toml:"rate_limit"`  // Requests per second.
}

type TopicSubscription struct {
	Name             string `toml:"name"`               // The name of the Pub/Sub subscription.
	DeadLetterTopic     string `toml:"dead_letter_topic"`     // The name of the dead-letter topic for the subscription.
	MaxDeliveryAttempts int    `toml:"max_delivery_attempts"` // Deliveries before a message moves to the dead-letter topic.
	TimeoutInSeconds    int    `toml:"timeout_in_seconds"`    // Upper bound for one digest triggered by this subscription.
}

type Storage struct {
	OutputBucket string `toml:"output_bucket"` // When set, run artifacts are copied to this bucket.
	OutputPrefix string `toml:"output_prefix"` // Object name prefix inside the bucket.
}

type BigQueryDataSource struct {
	DatasetName string `toml:"dataset"`
	RunsTable   string `toml:"runs_table"`
}

// Enabled reports whether run history should be written.
func (b BigQueryDataSource) Enabled() bool {
	return b.DatasetName != "" && b.RunsTable != ""
}

type Config struct {
	Application struct {
		Name                      string `toml:"name"`
		GoogleProjectId           string `toml:"google_project_id"`
		GoogleLocation            string `toml:"location"`
		SignerServiceAccountEmail string `toml:"signer_service_account_email"` // Used to sign artifact URLs.
		LogLevel                  string `toml:"log_level"`
		HTTPPort                  int    `toml:"http_port"`
	} `toml:"application"`
	Paths              Paths                        `toml:"paths"`
	Tools              Tools                        `toml:"tools"`
	Recognizer         Recognizer                   `toml:"recognizer"`
	Text               TextServices                 `toml:"text"`
	Storage            Storage                      `toml:"storage"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // Keyed by a logical name (e.g., "DigestRequests").
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`        // Keyed by a logical name (e.g., "summary-flash").
	OpenAI             OpenAIModel                  `toml:"openai"`
}

// NewConfig returns a Config holding the built-in defaults. Values read by
// LoadConfig override them key by key.
func NewConfig() *Config {
	c := &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
	}
	c.Application.Name = "media-digest"
	c.Application.LogLevel = "info"
	c.Application.HTTPPort = 8080
	c.Paths = Paths{
		VideoDownloadPath: "downloads/video",
		AudioDownloadPath: "downloads/audio",
		TestPaths:         make(map[string]string),
	}
	c.Tools = Tools{FFmpeg: "ffmpeg", FFprobe: "ffprobe", YtDlp: "yt-dlp", Whisper: "whisper-cli"}
	c.Recognizer = Recognizer{
		ModelName:  "ggml-small",
		ModelPath:  "models/ggml-small.bin",
		SampleRate: 16000,
		Device:     "auto",
		Language:   "auto",
		BeamSize:   2,
	}
	c.Text = TextServices{
		Provider:              ProviderGemini,
		AgentModel:            "summary-flash",
		SummaryMaxLength:      2000,
		DetectionPrefixLength: 500,
		DefaultFocus:          "main points and key insights",
	}
	c.OpenAI = OpenAIModel{Model: "gpt-4o-mini", Temperature: 0.1, APIKeyEnv: "OPENAI_API_KEY", RateLimit: 5}
	return c
}
