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
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
)

const (
	opSummarize = "text.summarize"

	// DefaultSummaryMaxLength is the advisory character budget of a summary.
	DefaultSummaryMaxLength = 2000
)

// Summarizer condenses a text, optionally steered by focus hints. The
// maximum length is passed to the generator as a request and is not enforced.
type Summarizer struct {
	generator TextGenerator
	maxLength int
}

func NewSummarizer(generator TextGenerator, maxLength int) *Summarizer {
	if maxLength <= 0 {
		maxLength = DefaultSummaryMaxLength
	}
	return &Summarizer{generator: generator, maxLength: maxLength}
}

func (s *Summarizer) Summarize(ctx context.Context, text string, focusHints string) (*model.SummaryResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, model.InvalidInputError(opSummarize, "text to summarize cannot be empty")
	}

	var instruction string
	if focusHints != "" {
		instruction = fmt.Sprintf("You are an expert summarizer. Create a concise summary of the following text, "+
			"focusing particularly on these aspects: %s. "+
			"Aim to keep the summary under %d characters while maintaining accuracy and capturing key points.",
			focusHints, s.maxLength)
	} else {
		instruction = fmt.Sprintf("You are an expert summarizer. Create a concise but comprehensive summary "+
			"of the following text. Aim to keep the summary under %d characters while maintaining "+
			"accuracy and capturing key points.", s.maxLength)
	}

	summary, err := s.generate(ctx, instruction, text)
	if err != nil {
		return nil, err
	}
	out := s.result(text, summary, focusHints)
	out.Format = model.SummaryFormatParagraph
	return out, nil
}

// SummarizeBulletPoints extracts the numPoints most important points as a
// bulleted list.
func (s *Summarizer) SummarizeBulletPoints(ctx context.Context, text string, numPoints int, focusHints string) (*model.SummaryResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, model.InvalidInputError(opSummarize, "text to summarize cannot be empty")
	}
	if numPoints <= 0 {
		return nil, model.InvalidInputError(opSummarize, "number of points must be positive, got %d", numPoints)
	}

	instruction := fmt.Sprintf("You are an expert summarizer. Extract the %d most important points "+
		"from the following text as bullet points. ", numPoints)
	if focusHints != "" {
		instruction += fmt.Sprintf("Focus particularly on these aspects: %s.", focusHints)
	}

	summary, err := s.generate(ctx, instruction, text)
	if err != nil {
		return nil, err
	}
	out := s.result(text, summary, focusHints)
	out.Format = model.SummaryFormatBulletPoints
	out.NumPoints = numPoints
	return out, nil
}

func (s *Summarizer) generate(ctx context.Context, instruction string, text string) (string, error) {
	summary, err := s.generator.Generate(ctx, instruction, "Text to summarize: "+text)
	if err != nil {
		return "", model.UnexpectedError(opSummarize, err, "summarization failed")
	}
	if strings.TrimSpace(summary) == "" {
		return "", model.UnexpectedError(opSummarize, nil, "generator returned an empty summary")
	}
	return summary, nil
}

func (s *Summarizer) result(text string, summary string, focusHints string) *model.SummaryResult {
	original := utf8.RuneCountInString(text)
	length := utf8.RuneCountInString(summary)
	return &model.SummaryResult{
		Summary:          summary,
		FocusHints:       focusHints,
		Model:            s.generator.Name(),
		OriginalLength:   original,
		SummaryLength:    length,
		CompressionRatio: float64(length) / float64(original),
		MaxLength:        s.maxLength,
	}
}
