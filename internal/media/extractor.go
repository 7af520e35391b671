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

package media

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
	"github.com/jaycherian/gcp-go-media-digest/internal/executor"
)

const opExtract = "media.extract_audio"

// AudioExtractor pulls the audio track out of a video file.
type AudioExtractor interface {
	// ExtractAudio writes the audio of videoPath as MP3 into outputDir. An
	// empty filename defaults to "<video stem>_audio.mp3".
	ExtractAudio(ctx context.Context, videoPath string, outputDir string, filename string) (*model.MediaAsset, error)
}

// FFmpegExtractor implements AudioExtractor with ffmpeg and libmp3lame.
type FFmpegExtractor struct {
	runner     executor.Runner
	ffmpegPath string
	quality    string
}

func NewFFmpegExtractor(runner executor.Runner, ffmpegPath string) *FFmpegExtractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &FFmpegExtractor{runner: runner, ffmpegPath: ffmpegPath, quality: "2"}
}

// AudioFileName is the default audio file name for a video path.
func AudioFileName(videoPath string) string {
	base := filepath.Base(videoPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_audio.mp3"
}

func (e *FFmpegExtractor) ExtractAudio(ctx context.Context, videoPath string, outputDir string, filename string) (*model.MediaAsset, error) {
	info, err := os.Stat(videoPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, model.NotFoundError(opExtract, err, "video file %s does not exist", videoPath)
	}
	if err != nil {
		return nil, model.UnexpectedError(opExtract, err, "cannot stat %s", videoPath)
	}
	if info.IsDir() {
		return nil, model.InvalidInputError(opExtract, "%s is a directory", videoPath)
	}

	if filename == "" {
		filename = AudioFileName(videoPath)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(videoPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, model.UnexpectedError(opExtract, err, "failed to create %s", outputDir)
	}
	out := filepath.Join(outputDir, filename)

	_, err = e.runner.Run(ctx, e.ffmpegPath,
		"-y",
		"-hide_banner",
		"-v", "error",
		"-i", videoPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-q:a", e.quality,
		out)
	if err != nil {
		return nil, model.UnexpectedError(opExtract, err, "audio extraction from %s failed", videoPath)
	}
	if _, err := os.Stat(out); err != nil {
		return nil, model.UnexpectedError(opExtract, err, "ffmpeg did not produce %s", out)
	}

	slog.InfoContext(ctx, "audio extracted", "video", videoPath, "audio", out)
	return &model.MediaAsset{Path: out, Kind: model.MediaKindAudio, MIMEType: "audio/mpeg"}, nil
}
