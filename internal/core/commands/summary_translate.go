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
	"strings"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
)

// SummaryTranslate translates the summary into the requested language, or
// skips the translator when the detected language already matches. A skipped
// translation leaves ParamTranslation unset. The stage is chosen at run time.
type SummaryTranslate struct {
	cor.BaseCommand
	translator Translator
}

func NewSummaryTranslate(name string, translator Translator) *SummaryTranslate {
	out := &SummaryTranslate{BaseCommand: *cor.NewBaseCommand(name), translator: translator}
	out.InputParamName = ParamSummary
	out.OutputParamName = ParamTranslation
	return out
}

func (c *SummaryTranslate) IsExecutable(context cor.Context) bool {
	return c.BaseCommand.IsExecutable(context) &&
		context.Get(ParamLanguage) != nil &&
		context.Get(ParamRequest) != nil
}

// NeedsTranslation reports whether text detected as detected must be sent to
// the translator to end up in target.
func NeedsTranslation(detected string, target string) bool {
	return !strings.EqualFold(strings.TrimSpace(detected), strings.TrimSpace(target))
}

func (c *SummaryTranslate) Execute(context cor.Context) {
	summary := context.Get(c.GetInputParam()).(*model.SummaryResult)
	language := context.Get(ParamLanguage).(*model.LanguageResult)
	req := context.Get(ParamRequest).(*model.DigestRequest)

	if !NeedsTranslation(language.Code, req.TargetLanguage) {
		context.SetStage(model.StageSkippingTranslation)
		c.Succeed(context)
		slog.InfoContext(context.GetContext(), "summary already in target language, skipping translation", "language", language.Code)
		return
	}

	context.SetStage(model.StageTranslating)
	translation, err := c.translator.Translate(context.GetContext(), summary.Summary, req.TargetLanguage)
	if err != nil {
		c.Fail(context, err)
		return
	}

	c.Succeed(context)
	slog.InfoContext(context.GetContext(), "summary translated", "from", language.Code, "to", translation.TargetLanguage)
	context.Add(c.GetOutputParam(), translation)
	context.Add(cor.CtxOut, translation)
}
