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

package speech_test

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"

	"github.com/go-audio/wav"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
	"github.com/jaycherian/gcp-go-media-digest/internal/executor"
	"github.com/jaycherian/gcp-go-media-digest/internal/speech"
	test "github.com/jaycherian/gcp-go-media-digest/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const whisperJSON = `{
  "result": {"language": "es"},
  "transcription": [
    {"offsets": {"from": 0, "to": 2100}, "text": " Hola a todos."},
    {"offsets": {"from": 2100, "to": 4000}, "text": " Bienvenidos al canal."},
    {"offsets": {"from": 4000, "to": 4200}, "text": "  "}
  ]
}`

// whisperHandler checks the WAV it receives and writes the canned JSON next
// to the requested output base.
func whisperHandler(t *testing.T) test.CommandHandler {
	return func(args []string) (executor.Result, error) {
		f, err := os.Open(test.ArgAfter(args, "-f"))
		require.NoError(t, err)
		defer f.Close()
		dec := wav.NewDecoder(f)
		require.True(t, dec.IsValidFile())
		assert.Equal(t, uint32(16000), dec.SampleRate)
		assert.Equal(t, uint16(1), dec.NumChans)
		assert.Equal(t, uint16(16), dec.BitDepth)

		err = os.WriteFile(test.ArgAfter(args, "-of")+".json", []byte(whisperJSON), 0o644)
		return executor.Result{}, err
	}
}

func newRecognizer(runner executor.Runner, device string) *speech.WhisperRecognizer {
	return speech.NewWhisperRecognizer(runner, speech.WhisperConfig{
		ModelPath: "/models/ggml-small.bin",
		Device:    device,
		BeamSize:  2,
		Threads:   2,
	})
}

func tone() *model.Waveform {
	return &model.Waveform{Samples: test.Sine(220, 16000, 16000, 0.4), SampleRate: 16000}
}

func TestTranscribe(t *testing.T) {
	runner := test.NewFakeRunner().On("whisper-cli", whisperHandler(t))
	r := newRecognizer(runner, speech.DeviceCPU)

	out, err := r.Transcribe(context.Background(), tone())
	require.NoError(t, err)

	assert.Equal(t, "Hola a todos. Bienvenidos al canal.", out.Text)
	assert.Equal(t, "ggml-small", out.Recognizer)
	assert.Equal(t, speech.DeviceCPU, out.Device)
	assert.Equal(t, "es", out.Language)
	require.Len(t, out.Segments, 2)
	assert.Equal(t, int64(2100), out.Segments[0].End.Milliseconds())

	calls := runner.CallsTo("whisper-cli")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Args, "-ng")
	assert.Contains(t, calls[0].Args, "-nf")
	assert.Equal(t, "0", test.ArgAfter(calls[0].Args, "-tp"))
	assert.Equal(t, "/models/ggml-small.bin", test.ArgAfter(calls[0].Args, "-m"))
}

func TestTranscribeIsRepeatable(t *testing.T) {
	runner := test.NewFakeRunner().On("whisper-cli", whisperHandler(t))
	r := newRecognizer(runner, speech.DeviceCPU)

	first, err := r.Transcribe(context.Background(), tone())
	require.NoError(t, err)
	second, err := r.Transcribe(context.Background(), tone())
	require.NoError(t, err)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, test.ArgAfter(runner.CallsTo("whisper-cli")[0].Args, "-bs"), test.ArgAfter(runner.CallsTo("whisper-cli")[1].Args, "-bs"))
}

func TestTranscribeSilence(t *testing.T) {
	runner := test.NewFakeRunner()
	r := newRecognizer(runner, speech.DeviceCPU)

	out, err := r.Transcribe(context.Background(), &model.Waveform{Samples: make([]float32, 3200), SampleRate: 16000})
	require.NoError(t, err)
	assert.Equal(t, "", out.Text)

	out, err = r.Transcribe(context.Background(), &model.Waveform{SampleRate: 16000})
	require.NoError(t, err)
	assert.Equal(t, "", out.Text)
	assert.Empty(t, runner.CallsTo("whisper-cli"))
}

func TestTranscribeWrongRatePanics(t *testing.T) {
	r := newRecognizer(test.NewFakeRunner(), speech.DeviceCPU)
	assert.Panics(t, func() {
		_, _ = r.Transcribe(context.Background(), &model.Waveform{Samples: []float32{0.1}, SampleRate: 44100})
	})
}

func TestTranscribeModelFailure(t *testing.T) {
	runner := test.NewFakeRunner().On("whisper-cli", func([]string) (executor.Result, error) {
		return executor.Result{}, errors.New("command 'whisper-cli' failed: exit status 3")
	})
	_, err := newRecognizer(runner, speech.DeviceCPU).Transcribe(context.Background(), tone())
	assert.ErrorIs(t, err, model.ErrRecognition)
}

func TestTranscribeMissingOutput(t *testing.T) {
	runner := test.NewFakeRunner().On("whisper-cli", func([]string) (executor.Result, error) {
		return executor.Result{}, nil
	})
	_, err := newRecognizer(runner, speech.DeviceCPU).Transcribe(context.Background(), tone())
	assert.ErrorIs(t, err, model.ErrRecognition)
}

func TestTranscribeCorruptOutput(t *testing.T) {
	runner := test.NewFakeRunner().On("whisper-cli", func(args []string) (executor.Result, error) {
		return executor.Result{}, os.WriteFile(test.ArgAfter(args, "-of")+".json", []byte("{not json"), 0o644)
	})
	_, err := newRecognizer(runner, speech.DeviceCPU).Transcribe(context.Background(), tone())
	assert.ErrorIs(t, err, model.ErrRecognition)
}

func TestDeviceSelection(t *testing.T) {
	assert.Equal(t, speech.DeviceCUDA, newRecognizer(test.NewFakeRunner().WithPath("nvidia-smi"), speech.DeviceAuto).Device())
	assert.Equal(t, speech.DeviceCPU, newRecognizer(test.NewFakeRunner().WithPath("nvidia-smi"), "CPU").Device())

	auto := newRecognizer(test.NewFakeRunner(), speech.DeviceAuto).Device()
	if runtime.GOOS == "darwin" && runtime.GOARCH == "arm64" {
		assert.Equal(t, speech.DeviceMetal, auto)
	} else {
		assert.Equal(t, speech.DeviceCPU, auto)
	}

	runner := test.NewFakeRunner().On("whisper-cli", whisperHandler(t))
	_, err := newRecognizer(runner, speech.DeviceCUDA).Transcribe(context.Background(), tone())
	require.NoError(t, err)
	assert.NotContains(t, runner.CallsTo("whisper-cli")[0].Args, "-ng")
}
