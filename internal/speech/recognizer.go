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

// Package speech wraps speech-to-text models behind the Recognizer interface.
package speech

import (
	"context"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
)

// RequiredSampleRate is the only rate the recognizers accept.
const RequiredSampleRate = 16000

// Compute devices a recognizer may run on.
const (
	DeviceAuto  = "auto"
	DeviceCPU   = "cpu"
	DeviceCUDA  = "cuda"
	DeviceMetal = "metal"
)

// Recognizer converts a 16 kHz mono waveform into a transcript.
type Recognizer interface {
	// Transcribe runs the model over waveform. Passing a waveform at any rate
	// other than RequiredSampleRate is a programming error and panics.
	Transcribe(ctx context.Context, waveform *model.Waveform) (*model.Transcript, error)

	// Name identifies the model, used in transcript metadata and logs.
	Name() string

	// Device is the compute device chosen when the recognizer was built.
	Device() string
}

// isSilent reports whether the buffer holds no signal at all.
func isSilent(samples []float32) bool {
	for _, s := range samples {
		if s != 0 {
			return false
		}
	}
	return true
}
