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
)

// SummaryCreate summarizes the transcript, as a paragraph or as a bulleted
// list when the request asks for bullet points.
type SummaryCreate struct {
	cor.BaseCommand
	summarizer   Summarizer
	defaultFocus string
}

func NewSummaryCreate(name string, summarizer Summarizer, defaultFocus string) *SummaryCreate {
	out := &SummaryCreate{
		BaseCommand:  *cor.NewStageCommand(name, model.StageSummarizing),
		summarizer:   summarizer,
		defaultFocus: defaultFocus,
	}
	out.InputParamName = ParamTranscript
	out.OutputParamName = ParamSummary
	return out
}

func (c *SummaryCreate) Execute(context cor.Context) {
	transcript := context.Get(c.GetInputParam()).(*model.Transcript)

	focus := c.defaultFocus
	bullets := 0
	if req, ok := context.Get(ParamRequest).(*model.DigestRequest); ok {
		if req.FocusHints != "" {
			focus = req.FocusHints
		}
		bullets = req.BulletPoints
	}

	var summary *model.SummaryResult
	var err error
	if bullets > 0 {
		summary, err = c.summarizer.SummarizeBulletPoints(context.GetContext(), transcript.Text, bullets, focus)
	} else {
		summary, err = c.summarizer.Summarize(context.GetContext(), transcript.Text, focus)
	}
	if err != nil {
		c.Fail(context, err)
		return
	}

	c.Succeed(context)
	slog.InfoContext(context.GetContext(), "summary created",
		"format", summary.Format,
		"original_length", summary.OriginalLength,
		"summary_length", summary.SummaryLength,
		"compression_ratio", summary.CompressionRatio)
	context.Add(c.GetOutputParam(), summary)
	context.Add(cor.CtxOut, summary)
}
