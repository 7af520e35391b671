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

	"github.com/jaycherian/gcp-go-media-digest/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
	"github.com/jaycherian/gcp-go-media-digest/internal/text"
)

// LanguageDetect identifies the language of the transcript.
type LanguageDetect struct {
	cor.BaseCommand
	detector text.LanguageDetector
}

func NewLanguageDetect(name string, detector text.LanguageDetector) *LanguageDetect {
	out := &LanguageDetect{
		BaseCommand: *cor.NewStageCommand(name, model.StageDetectingLanguage),
		detector:    detector,
	}
	out.InputParamName = ParamTranscript
	out.OutputParamName = ParamLanguage
	return out
}

func (c *LanguageDetect) Execute(context cor.Context) {
	transcript := context.Get(c.GetInputParam()).(*model.Transcript)

	language, err := c.detector.Detect(context.GetContext(), transcript.Text)
	if err != nil {
		c.Fail(context, err)
		return
	}

	c.Succeed(context)
	slog.InfoContext(context.GetContext(), "language detected", "language", language.Code, "detector", language.Detector)
	context.Add(c.GetOutputParam(), language)
	context.Add(cor.CtxOut, language)
}
