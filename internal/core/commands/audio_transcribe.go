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

package commands

import (
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
	"github.com/jaycherian/gcp-go-media-digest/internal/speech"
)

// AudioTranscribe prepares the extracted audio for the recognizer and runs it.
type AudioTranscribe struct {
	cor.BaseCommand
	preprocessor Preprocessor
	recognizer   speech.Recognizer
}

func NewAudioTranscribe(name string, preprocessor Preprocessor, recognizer speech.Recognizer) *AudioTranscribe {
	out := &AudioTranscribe{
		BaseCommand:  *cor.NewStageCommand(name, model.StageTranscribing),
		preprocessor: preprocessor,
		recognizer:   recognizer,
	}
	out.InputParamName = ParamAudio
	out.OutputParamName = ParamTranscript
	return out
}

func (c *AudioTranscribe) Execute(context cor.Context) {
	ctx := context.GetContext()
	audio := context.Get(c.GetInputParam()).(*model.MediaAsset)

	waveform, err := c.preprocessor.Prepare(ctx, audio.Path, speech.RequiredSampleRate)
	if err != nil {
		c.Fail(context, err)
		return
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("recognizer", c.recognizer.Name()),
		attribute.String("device", c.recognizer.Device()),
		attribute.Float64("audio_seconds", waveform.Duration().Seconds()),
	)

	transcript, err := c.recognizer.Transcribe(ctx, waveform)
	if err != nil {
		c.Fail(context, err)
		return
	}

	c.Succeed(context)
	slog.InfoContext(ctx, "audio transcribed",
		"recognizer", transcript.Recognizer,
		"device", transcript.Device,
		"characters", len([]rune(transcript.Text)),
		"segments", len(transcript.Segments))
	context.Add(c.GetOutputParam(), transcript)
	context.Add(cor.CtxOut, transcript)
}
