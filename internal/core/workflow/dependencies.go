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

package workflow

import (
	"fmt"
	"time"

	"github.com/jaycherian/gcp-go-media-digest/internal/audio"
	"github.com/jaycherian/gcp-go-media-digest/internal/cloud"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-digest/internal/executor"
	"github.com/jaycherian/gcp-go-media-digest/internal/media"
	"github.com/jaycherian/gcp-go-media-digest/internal/speech"
	"github.com/jaycherian/gcp-go-media-digest/internal/text"
)

// NewDependencies builds the production collaborators from the configuration
// and the initialized service clients. External tools run through runner.
func NewDependencies(config *cloud.Config, clients *cloud.ServiceClients, runner executor.Runner) (Dependencies, error) {
	if rate := config.Recognizer.SampleRate; rate != 0 && rate != speech.RequiredSampleRate {
		return Dependencies{}, fmt.Errorf("recognizer sample rate must be %d, got %d", speech.RequiredSampleRate, rate)
	}

	generator, err := text.NewGenerator(config, clients)
	if err != nil {
		return Dependencies{}, err
	}

	deps := Dependencies{
		Downloader:   media.NewYtDlpDownloader(runner, config.Tools.YtDlp),
		Extractor:    media.NewFFmpegExtractor(runner, config.Tools.FFmpeg),
		Preprocessor: audio.NewPreprocessor(runner, config.Tools.FFmpeg, config.Tools.FFprobe),
		Recognizer: speech.NewWhisperRecognizer(runner, speech.WhisperConfig{
			BinaryPath: config.Tools.Whisper,
			ModelName:  config.Recognizer.ModelName,
			ModelPath:  config.Recognizer.ModelPath,
			Device:     config.Recognizer.Device,
			Language:   config.Recognizer.Language,
			BeamSize:   config.Recognizer.BeamSize,
			Threads:    config.Recognizer.Threads,
		}),
		Detector:     text.NewDetector(generator, config.Text.DetectionPrefixLength),
		Summarizer:   text.NewSummarizer(generator, config.Text.SummaryMaxLength),
		Translator:   text.NewTranslator(generator),
		Clock:        time.Now,
		VideoDir:     config.Paths.VideoDownloadPath,
		AudioDir:     config.Paths.AudioDownloadPath,
		OutputRoot:   config.Paths.OutputPath,
		DefaultFocus: config.Text.DefaultFocus,
	}

	if clients.StorageClient != nil && config.Storage.OutputBucket != "" {
		deps.Store = cloud.NewGCSArtifactStore(clients.StorageClient, config.Storage.OutputBucket, config.Storage.OutputPrefix)
	}
	if clients.BiqQueryClient != nil && config.BigQueryDataSource.Enabled() {
		deps.Recorder = clients.BiqQueryClient.
			Dataset(config.BigQueryDataSource.DatasetName).
			Table(config.BigQueryDataSource.RunsTable).
			Inserter()
	}
	return deps, nil
}

var _ commands.Preprocessor = (*audio.Preprocessor)(nil)
var _ commands.Summarizer = (*text.Summarizer)(nil)
var _ commands.Translator = (*text.Translator)(nil)
var _ commands.ArtifactStore = (*cloud.GCSArtifactStore)(nil)
