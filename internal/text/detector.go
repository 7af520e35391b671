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

package text

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
)

const (
	opDetect = "text.detect"

	// DefaultDetectionPrefix caps the characters sent for detection.
	DefaultDetectionPrefix = 500

	detectionInstruction = "You are a language detection expert. Analyze the following text " +
		"and return only the ISO 639-1 language code (2 letters). " +
		"For example: 'en' for English, 'es' for Spanish, etc."
)

// LanguageDetector returns the language of a text.
type LanguageDetector interface {
	Detect(ctx context.Context, text string) (*model.LanguageResult, error)
}

// Detector asks a text generator for the ISO 639-1 code of a text. Only the
// first prefixLength characters are sent. Generators report no confidence,
// so results carry model.ConfidenceUncalibrated.
type Detector struct {
	generator    TextGenerator
	prefixLength int
}

func NewDetector(generator TextGenerator, prefixLength int) *Detector {
	if prefixLength <= 0 {
		prefixLength = DefaultDetectionPrefix
	}
	return &Detector{generator: generator, prefixLength: prefixLength}
}

// Detect reports the language of text.
//
// Inputs:
//   - ctx: The context for the generator call.
//   - text: The transcript; only its prefix is sent.
//
// Outputs:
//   - *model.LanguageResult: The detected code with uncalibrated confidence.
//   - error: InvalidInput for empty text, Unexpected when the call fails or the reply holds no code.
func (d *Detector) Detect(ctx context.Context, text string) (*model.LanguageResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, model.InvalidInputError(opDetect, "text cannot be empty")
	}

	reply, err := d.generator.Generate(ctx, detectionInstruction, "Text to analyze: "+firstRunes(text, d.prefixLength))
	if err != nil {
		return nil, model.UnexpectedError(opDetect, err, "language detection failed")
	}

	code, ok := ParseLanguageCode(reply)
	if !ok {
		return nil, model.UnexpectedError(opDetect, nil, "no language code in reply %q", firstRunes(reply, 80))
	}
	return &model.LanguageResult{
		Code:       code,
		Confidence: model.ConfidenceUncalibrated,
		Detector:   d.generator.Name(),
	}, nil
}

// markedCode matches a code set off by quotes, brackets or parentheses, or
// following a colon: "(fr)", "'es'", "`de`", "code: ja".
var markedCode = regexp.MustCompile("(?:[(\\[\"'`*]\\s*([a-z]{2})\\s*[)\\]\"'`*])|(?::\\s*([a-z]{2})\\b)")

// fillerWords are English words that are also valid two letter codes. They
// are never taken from the start of a sentence.
var fillerWords = map[string]bool{
	"am": true, "an": true, "as": true, "at": true, "be": true,
	"by": true, "do": true, "he": true, "hi": true, "if": true, "in": true,
	"is": true, "it": true, "me": true, "my": true, "no": true, "of": true,
	"ok": true, "on": true, "or": true, "so": true, "to": true, "up": true,
	"us": true, "we": true,
}

// ParseLanguageCode extracts a two letter code from a model reply. In order
// of preference it accepts:
//   - a reply that is only the code, once quotes and punctuation are trimmed ("fr", "'ES'.");
//   - the last code set off by quotes, brackets or a colon ("It is French (fr).", "Is: de");
//   - a code ending the reply ("The language is de.", "It's fr");
//   - a code starting the reply that is not an English filler word ("pt (Portuguese)").
//
// Replies matching none of these report false.
func ParseLanguageCode(reply string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(reply))
	if bare := strings.TrimFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) }); model.IsLanguageCode(bare) {
		return bare, true
	}

	if matches := markedCode.FindAllStringSubmatch(lower, -1); len(matches) > 0 {
		last := matches[len(matches)-1]
		for _, group := range last[1:] {
			if model.IsLanguageCode(group) {
				return group, true
			}
		}
	}

	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(words) == 0 {
		return "", false
	}
	if last := words[len(words)-1]; model.IsLanguageCode(last) {
		return last, true
	}
	if first := words[0]; model.IsLanguageCode(first) && !fillerWords[first] {
		return first, true
	}
	return "", false
}
