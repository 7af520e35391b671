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

package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
	"github.com/jaycherian/gcp-go-media-digest/internal/executor"
)

const opTranscribe = "speech.transcribe"

// WhisperConfig configures a whisper.cpp based recognizer.
type WhisperConfig struct {
	BinaryPath string // whisper.cpp CLI, "whisper-cli" when empty.
	ModelName  string // Human readable model id, e.g. "ggml-small".
	ModelPath  string // Path to the ggml model file.
	Device     string // auto, cpu, cuda or metal.
	Language   string // Spoken language or "auto".
	BeamSize   int
	Threads    int
}

// WhisperRecognizer runs the whisper.cpp command line tool. Decoding is
// pinned to temperature zero without fallback so a fixed model and input
// always give the same text.
type WhisperRecognizer struct {
	runner executor.Runner
	config WhisperConfig
	device string
}

// NewWhisperRecognizer builds a recognizer and resolves its compute device.
// The device is fixed for the lifetime of the recognizer.
func NewWhisperRecognizer(runner executor.Runner, config WhisperConfig) *WhisperRecognizer {
	if config.BinaryPath == "" {
		config.BinaryPath = "whisper-cli"
	}
	if config.ModelName == "" {
		config.ModelName = strings.TrimSuffix(filepath.Base(config.ModelPath), filepath.Ext(config.ModelPath))
	}
	if config.Language == "" {
		config.Language = "auto"
	}
	if config.BeamSize <= 0 {
		config.BeamSize = 2
	}
	if config.Threads <= 0 {
		config.Threads = min(runtime.NumCPU(), 8)
	}
	device := resolveDevice(runner, config.Device)
	slog.Info("speech recognizer ready", "model", config.ModelName, "device", device)
	return &WhisperRecognizer{runner: runner, config: config, device: device}
}

func resolveDevice(runner executor.Runner, requested string) string {
	switch strings.ToLower(requested) {
	case DeviceCPU:
		return DeviceCPU
	case DeviceCUDA:
		return DeviceCUDA
	case DeviceMetal:
		return DeviceMetal
	}
	if runner.LookPath("nvidia-smi") {
		return DeviceCUDA
	}
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		return DeviceMetal
	}
	return DeviceCPU
}

func (w *WhisperRecognizer) Name() string {
	return w.config.ModelName
}

func (w *WhisperRecognizer) Device() string {
	return w.device
}

type whisperOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
}

func (w *WhisperRecognizer) Transcribe(ctx context.Context, waveform *model.Waveform) (*model.Transcript, error) {
	if waveform == nil {
		panic("speech: Transcribe called with a nil waveform")
	}
	if waveform.SampleRate != RequiredSampleRate {
		panic(fmt.Sprintf("speech: waveform sample rate is %d, recognizer requires %d", waveform.SampleRate, RequiredSampleRate))
	}

	out := &model.Transcript{Recognizer: w.Name(), Device: w.device, Segments: make([]*model.Segment, 0)}
	if len(waveform.Samples) == 0 || isSilent(waveform.Samples) {
		slog.InfoContext(ctx, "silent waveform, skipping inference", "samples", len(waveform.Samples))
		return out, nil
	}

	workDir, err := os.MkdirTemp("", "whisper-")
	if err != nil {
		return nil, model.RecognitionError(opTranscribe, err, "failed to create work directory")
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			slog.Warn("failed to remove whisper work directory", "dir", workDir, "error", err)
		}
	}()

	wavPath := filepath.Join(workDir, "input.wav")
	if err := WriteWAV(wavPath, waveform); err != nil {
		return nil, model.RecognitionError(opTranscribe, err, "failed to write model input")
	}

	outBase := filepath.Join(workDir, "transcript")
	args := w.buildArgs(wavPath, outBase)
	if _, err := w.runner.Run(ctx, w.config.BinaryPath, args...); err != nil {
		return nil, model.RecognitionError(opTranscribe, err, "whisper.cpp transcription failed")
	}

	raw, err := os.ReadFile(outBase + ".json")
	if err != nil {
		return nil, model.RecognitionError(opTranscribe, err, "whisper.cpp completed but produced no transcript")
	}
	var parsed whisperOutput
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, model.RecognitionError(opTranscribe, err, "unreadable whisper.cpp output")
	}

	parts := make([]string, 0, len(parsed.Transcription))
	for _, seg := range parsed.Transcription {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		out.Segments = append(out.Segments, &model.Segment{
			Start: time.Duration(seg.Offsets.From) * time.Millisecond,
			End:   time.Duration(seg.Offsets.To) * time.Millisecond,
			Text:  text,
		})
	}
	out.Text = strings.Join(parts, " ")
	out.Language = parsed.Result.Language

	slog.InfoContext(ctx, "transcription complete",
		"model", w.Name(),
		"device", w.device,
		"segments", len(out.Segments),
		"duration", waveform.Duration().String())
	return out, nil
}

func (w *WhisperRecognizer) buildArgs(wavPath string, outBase string) []string {
	args := []string{
		"-m", w.config.ModelPath,
		"-f", wavPath,
		"-of", outBase,
		"-oj",
		"-np",
		"-l", w.config.Language,
		"-bs", strconv.Itoa(w.config.BeamSize),
		"-tp", "0",
		"-nf",
		"-t", strconv.Itoa(w.config.Threads),
	}
	if w.device == DeviceCPU {
		args = append(args, "-ng")
	}
	return args
}

// WriteWAV stores a waveform as 16-bit PCM mono.
func WriteWAV(path string, waveform *model.Waveform) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := wav.NewEncoder(f, waveform.SampleRate, 16, 1, 1)

	data := make([]int, len(waveform.Samples))
	for i, s := range waveform.Samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		data[i] = int(math.Round(v * math.MaxInt16))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: waveform.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		_ = f.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
