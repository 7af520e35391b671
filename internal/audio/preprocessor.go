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

// Package audio turns an audio file into the mono waveform a speech model
// consumes. Decoding is delegated to ffprobe and ffmpeg; channel handling
// and resampling happen in process so the result does not depend on the
// installed ffmpeg build.
package audio

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strconv"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
	"github.com/jaycherian/gcp-go-media-digest/internal/executor"
)

const opPrepare = "audio.prepare"

// StreamInfo is the native layout of the first audio stream in a file.
type StreamInfo struct {
	SampleRate int
	Channels   int
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType  string `json:"codec_type"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
}

// Preprocessor loads audio files into mono waveforms at a requested rate.
type Preprocessor struct {
	runner      executor.Runner
	ffmpegPath  string
	ffprobePath string
}

// NewPreprocessor creates a Preprocessor using the given binaries.
func NewPreprocessor(runner executor.Runner, ffmpegPath string, ffprobePath string) *Preprocessor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Preprocessor{runner: runner, ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// Prepare decodes path at its native rate and channel count, downmixes to
// mono and resamples to targetRate.
func (p *Preprocessor) Prepare(ctx context.Context, path string, targetRate int) (*model.Waveform, error) {
	if targetRate <= 0 {
		return nil, model.InvalidInputError(opPrepare, "target sample rate must be positive, got %d", targetRate)
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, model.NotFoundError(opPrepare, err, "audio file %s does not exist", path)
	}
	if err != nil {
		return nil, model.UnexpectedError(opPrepare, err, "failed to stat %s", path)
	}
	if info.IsDir() {
		return nil, model.InvalidInputError(opPrepare, "%s is a directory", path)
	}

	stream, err := p.Inspect(ctx, path)
	if err != nil {
		return nil, err
	}

	interleaved, err := p.decode(ctx, path, stream)
	if err != nil {
		return nil, err
	}

	mono := Downmix(interleaved, stream.Channels)
	samples := Resample(mono, stream.SampleRate, targetRate)

	slog.DebugContext(ctx, "prepared waveform",
		"path", path,
		"native_rate", stream.SampleRate,
		"channels", stream.Channels,
		"target_rate", targetRate,
		"samples", len(samples))

	return &model.Waveform{Samples: samples, SampleRate: targetRate}, nil
}

// Inspect reads the sample rate and channel count of the first audio stream.
func (p *Preprocessor) Inspect(ctx context.Context, path string) (*StreamInfo, error) {
	res, err := p.runner.Run(ctx, p.ffprobePath,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=codec_type,sample_rate,channels",
		"-of", "json",
		path)
	if err != nil {
		return nil, model.UnexpectedError(opPrepare, err, "ffprobe failed for %s", path)
	}

	var out ffprobeOutput
	if err := json.Unmarshal(res.Stdout, &out); err != nil {
		return nil, model.UnexpectedError(opPrepare, err, "unreadable ffprobe output for %s", path)
	}
	if len(out.Streams) == 0 {
		return nil, model.InvalidInputError(opPrepare, "%s has no audio stream", path)
	}

	rate, err := strconv.Atoi(out.Streams[0].SampleRate)
	if err != nil || rate <= 0 {
		return nil, model.UnexpectedError(opPrepare, err, "invalid sample rate %q in %s", out.Streams[0].SampleRate, path)
	}
	channels := out.Streams[0].Channels
	if channels <= 0 {
		return nil, model.UnexpectedError(opPrepare, nil, "invalid channel count %d in %s", channels, path)
	}
	return &StreamInfo{SampleRate: rate, Channels: channels}, nil
}

// decode asks ffmpeg for raw little-endian float32 samples without any
// rate or layout conversion.
func (p *Preprocessor) decode(ctx context.Context, path string, stream *StreamInfo) ([]float32, error) {
	res, err := p.runner.Run(ctx, p.ffmpegPath,
		"-v", "error",
		"-nostdin",
		"-i", path,
		"-vn",
		"-map", "0:a:0",
		"-f", "f32le",
		"-acodec", "pcm_f32le",
		"-ac", strconv.Itoa(stream.Channels),
		"-ar", strconv.Itoa(stream.SampleRate),
		"pipe:1")
	if err != nil {
		return nil, model.UnexpectedError(opPrepare, err, "ffmpeg failed to decode %s", path)
	}
	return DecodeFloat32LE(res.Stdout), nil
}

// DecodeFloat32LE converts raw f32le bytes into samples, ignoring a trailing
// partial sample.
func DecodeFloat32LE(raw []byte) []float32 {
	n := len(raw) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out
}
