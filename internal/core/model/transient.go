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

// Package model defines the data contracts passed between the stages of the
// digest pipeline. This file, `transient.go`, holds the in-memory values that
// flow through a single run and are discarded (or written out as text) once
// the run completes.
package model

import (
	"fmt"
	"strings"
	"time"
)

// MediaKind distinguishes the two kinds of media a run handles.
type MediaKind string

const (
	MediaKindVideo MediaKind = "video"
	MediaKindAudio MediaKind = "audio"
)

// MediaAsset is a file on disk produced by acquisition or extraction. It is
// not mutated once created.
type MediaAsset struct {
	Path     string    `json:"path"`                // Absolute or working-directory relative path to the file.
	Kind     MediaKind `json:"kind"`                // Either video or audio.
	MIMEType string    `json:"mime_type,omitempty"` // Sniffed content type, when known (e.g., "video/mp4").
}

// Waveform is a decoded single-channel sample buffer.
type Waveform struct {
	Samples    []float32 // Mono samples in the range [-1, 1].
	SampleRate int       // Samples per second.
}

// Duration returns the playback length of the buffer.
func (w *Waveform) Duration() time.Duration {
	if w == nil || w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(w.Samples)) * time.Second / time.Duration(w.SampleRate)
}

// Segment is a timed slice of a transcript.
type Segment struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}

// Transcript is the recognizer output for one run.
type Transcript struct {
	Text       string     `json:"text"`
	Recognizer string     `json:"recognizer"`         // Model name used for recognition (e.g., "ggml-small").
	Device     string     `json:"device"`             // Compute device the model ran on ("cpu", "cuda", "metal").
	Language   string     `json:"language,omitempty"` // Language reported by the recognizer, if any.
	Segments   []*Segment `json:"segments,omitempty"`
}

// ConfidenceUncalibrated is returned as LanguageResult.Confidence by detectors
// that cannot report a real score. It is a marker, not a probability.
const ConfidenceUncalibrated = 1.0

// LanguageResult is the output of language detection.
type LanguageResult struct {
	Code       string  `json:"language_code"` // Lowercase two letter code, e.g. "fr".
	Confidence float64 `json:"confidence"`
	Detector   string  `json:"detector"`
}

// Summary formats.
const (
	SummaryFormatParagraph    = "paragraph"
	SummaryFormatBulletPoints = "bullet_points"
)

// SummaryResult is the output of summarization. Lengths are counted in
// Unicode code points of the exact strings involved.
type SummaryResult struct {
	Summary          string  `json:"summary"`
	FocusHints       string  `json:"focus_points,omitempty"`
	Model            string  `json:"model"`
	Format           string  `json:"format"`
	NumPoints        int     `json:"num_points,omitempty"`
	OriginalLength   int     `json:"original_length"`
	SummaryLength    int     `json:"summary_length"`
	CompressionRatio float64 `json:"compression_ratio"`
	MaxLength        int     `json:"max_length"`
}

// TranslationResult is the output of translation. A nil *TranslationResult
// means translation was skipped.
type TranslationResult struct {
	Text           string `json:"translated_text"`
	TargetLanguage string `json:"target_language"`
	Translator     string `json:"translator"`
}

// DigestRequest is the input of a pipeline run.
type DigestRequest struct {
	URL            string `json:"url"`
	TargetLanguage string `json:"target_language"`
	OutputRoot     string `json:"output_root,omitempty"`
	FocusHints     string `json:"focus_hints,omitempty"`
	BulletPoints   int    `json:"bullet_points,omitempty"` // When > 0, the summary is a bulleted list of this many points.
	AudioOnly      bool   `json:"audio_only,omitempty"`    // Download only the audio stream.
}

// DefaultTargetLanguage is used when a request does not name one.
const DefaultTargetLanguage = "en"

// Normalize fills defaults and lowercases the target language.
func (r *DigestRequest) Normalize() {
	r.URL = strings.TrimSpace(r.URL)
	r.TargetLanguage = strings.ToLower(strings.TrimSpace(r.TargetLanguage))
	if r.TargetLanguage == "" {
		r.TargetLanguage = DefaultTargetLanguage
	}
}

// Validate checks the request after Normalize.
func (r *DigestRequest) Validate() error {
	if r.URL == "" {
		return InvalidInputError("request.validate", "video url is required")
	}
	if !IsLanguageCode(r.TargetLanguage) {
		return InvalidInputError("request.validate", "target language %q is not a two letter code", r.TargetLanguage)
	}
	if r.BulletPoints < 0 {
		return InvalidInputError("request.validate", "bullet points must not be negative, got %d", r.BulletPoints)
	}
	return nil
}

// IsLanguageCode reports whether code is a lowercase two letter ASCII code.
func IsLanguageCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for i := 0; i < 2; i++ {
		if code[i] < 'a' || code[i] > 'z' {
			return false
		}
	}
	return true
}

// TranslationFileName returns the artifact name for a target language.
func TranslationFileName(lang string) string {
	return fmt.Sprintf("translation_%s.txt", lang)
}

// Artifact names written by every run.
const (
	TranscriptFileName = "transcription.txt"
	SummaryFileName    = "summary.txt"
)
