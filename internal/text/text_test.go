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

package text_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
	test "github.com/jaycherian/gcp-go-media-digest/internal/testutil"
	"github.com/jaycherian/gcp-go-media-digest/internal/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(reply string) *test.FakeGenerator {
	return test.NewFakeGenerator("fake-model", func(string, string) (string, error) {
		return reply, nil
	})
}

func TestDetect(t *testing.T) {
	gen := fixed("FR\n")
	res, err := text.NewDetector(gen, 0).Detect(context.Background(), "Bonjour tout le monde")
	require.NoError(t, err)
	assert.Equal(t, "fr", res.Code)
	assert.Equal(t, model.ConfidenceUncalibrated, res.Confidence)
	assert.Equal(t, "fake-model", res.Detector)
	assert.Contains(t, gen.Prompts()[0].Payload, "Bonjour tout le monde")
	assert.Contains(t, gen.Prompts()[0].Instruction, "ISO 639-1")
}

func TestDetectEmpty(t *testing.T) {
	gen := fixed("en")
	_, err := text.NewDetector(gen, 0).Detect(context.Background(), "")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	_, err = text.NewDetector(gen, 0).Detect(context.Background(), "  \n")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Equal(t, 0, gen.Calls())
}

func TestDetectUsesBoundedPrefix(t *testing.T) {
	gen := fixed("es")
	long := strings.Repeat("ñ", 1200)
	_, err := text.NewDetector(gen, 500).Detect(context.Background(), long)
	require.NoError(t, err)

	sent := strings.TrimPrefix(gen.Prompts()[0].Payload, "Text to analyze: ")
	assert.Equal(t, 500, utf8.RuneCountInString(sent))
}

func TestDetectUnusableReply(t *testing.T) {
	_, err := text.NewDetector(fixed("I cannot tell."), 0).Detect(context.Background(), "???")
	assert.ErrorIs(t, err, model.ErrUnexpected)
}

func TestDetectGeneratorFailure(t *testing.T) {
	gen := test.NewFakeGenerator("m", func(string, string) (string, error) {
		return "", errors.New("quota exceeded")
	})
	_, err := text.NewDetector(gen, 0).Detect(context.Background(), "hello")
	assert.ErrorIs(t, err, model.ErrUnexpected)
}

func TestParseLanguageCode(t *testing.T) {
	cases := map[string]string{
		"fr":                             "fr",
		"'ES'":                           "es",
		"`de`":                           "de",
		"en.":                            "en",
		"The language is it.":            "it",
		"pt (Portuguese)":                "pt",
		"Language code: ja":              "ja",
		"en - English":                   "en",
		"It is French (fr).":             "fr",
		"It's fr":                        "fr",
		"Is: de":                         "de",
		"An 'es'":                        "es",
		"**ko**":                         "ko",
		"It is written in Italian (it).": "it",
	}
	for in, want := range cases {
		got, ok := text.ParseLanguageCode(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseLanguageCodeRejectsFillerWords(t *testing.T) {
	for _, in := range []string{"unknown", "I cannot tell.", "It was written in Spanish"} {
		got, ok := text.ParseLanguageCode(in)
		assert.False(t, ok, "%s parsed as %s", in, got)
	}
}

func TestDetectDoesNotTakeLeadingEnglishWord(t *testing.T) {
	res, err := text.NewDetector(fixed("It is French (fr)."), 0).Detect(context.Background(), "bonjour à tous")
	require.NoError(t, err)
	assert.Equal(t, "fr", res.Code)
}

func TestSummarize(t *testing.T) {
	gen := fixed("Short summary.")
	input := "A fairly long transcript about Go concurrency patterns and channels."
	res, err := text.NewSummarizer(gen, 0).Summarize(context.Background(), input, "")
	require.NoError(t, err)

	assert.Equal(t, "Short summary.", res.Summary)
	assert.Equal(t, utf8.RuneCountInString(input), res.OriginalLength)
	assert.Equal(t, utf8.RuneCountInString(res.Summary), res.SummaryLength)
	assert.Equal(t, float64(res.SummaryLength)/float64(res.OriginalLength), res.CompressionRatio)
	assert.Equal(t, text.DefaultSummaryMaxLength, res.MaxLength)
	assert.Equal(t, model.SummaryFormatParagraph, res.Format)
	assert.Equal(t, "fake-model", res.Model)
	assert.Contains(t, gen.Prompts()[0].Instruction, "concise but comprehensive")
	assert.Contains(t, gen.Prompts()[0].Instruction, "2000 characters")
}

func TestSummarizeWithFocus(t *testing.T) {
	gen := fixed("Résumé sur les canaux.")
	res, err := text.NewSummarizer(gen, 300).Summarize(context.Background(), "Les canaux de Go sont typés.", "channels")
	require.NoError(t, err)
	assert.Equal(t, "channels", res.FocusHints)
	assert.Equal(t, 300, res.MaxLength)
	assert.Equal(t, 22, res.SummaryLength)
	assert.Contains(t, gen.Prompts()[0].Instruction, "focusing particularly on these aspects: channels")
}

func TestSummarizeEmpty(t *testing.T) {
	_, err := text.NewSummarizer(fixed("x"), 0).Summarize(context.Background(), "", "")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestSummarizeEmptyReply(t *testing.T) {
	_, err := text.NewSummarizer(fixed("  "), 0).Summarize(context.Background(), "text", "")
	assert.ErrorIs(t, err, model.ErrUnexpected)
}

func TestSummarizeBulletPoints(t *testing.T) {
	s := text.NewSummarizer(fixed("- a\n- b\n- c\n- d\n- e"), 0)

	for _, n := range []int{0, -1} {
		_, err := s.SummarizeBulletPoints(context.Background(), "some text", n, "")
		assert.ErrorIs(t, err, model.ErrInvalidInput, "numPoints=%d", n)
	}
	_, err := s.SummarizeBulletPoints(context.Background(), "", 5, "")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	res, err := s.SummarizeBulletPoints(context.Background(), "some text worth summarizing", 5, "risks")
	require.NoError(t, err)
	assert.Equal(t, model.SummaryFormatBulletPoints, res.Format)
	assert.Equal(t, 5, res.NumPoints)
	assert.Equal(t, "risks", res.FocusHints)
}

func TestTranslate(t *testing.T) {
	gen := test.NewFakeGenerator("fake-model", test.Echo)
	res, err := text.NewTranslator(gen).Translate(context.Background(), "hola", "en")
	require.NoError(t, err)
	assert.Equal(t, "TEXT TO TRANSLATE: HOLA", res.Text)
	assert.Equal(t, "en", res.TargetLanguage)
	assert.Equal(t, "fake-model", res.Translator)
	assert.Contains(t, gen.Prompts()[0].Instruction, "Translate the following text to en")
	assert.Contains(t, gen.Prompts()[0].Instruction, "meaning, tone, and style")

	_, err = text.NewTranslator(gen).Translate(context.Background(), "hola", " ")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestBatchTranslate(t *testing.T) {
	gen := test.NewFakeGenerator("fake-model", func(_ string, payload string) (string, error) {
		if strings.Contains(payload, "bad") {
			return "", errors.New("rejected")
		}
		return strings.TrimPrefix(payload, "Text to translate: ") + "!", nil
	})
	out, err := text.NewTranslator(gen).BatchTranslate(context.Background(), []string{"uno", "bad", "tres"}, "en")

	require.Len(t, out, 3)
	assert.Equal(t, "uno!", out[0].Text)
	assert.Nil(t, out[1])
	assert.Equal(t, "tres!", out[2].Text)
	assert.ErrorIs(t, err, model.ErrUnexpected)
	assert.Contains(t, err.Error(), "item 1")

	out, err = text.NewTranslator(gen).BatchTranslate(context.Background(), nil, "en")
	assert.NoError(t, err)
	assert.Empty(t, out)
}

func TestBatchTranslateConcurrentKeepsOrder(t *testing.T) {
	gen := test.NewFakeGenerator("fake-model", func(_ string, payload string) (string, error) {
		return strings.ToUpper(strings.TrimPrefix(payload, "Text to translate: ")), nil
	})
	texts := []string{"a", "b", "c", "d", "e", "f", "g"}
	out, err := text.NewTranslator(gen).WithWorkers(3).BatchTranslate(context.Background(), texts, "de")

	require.NoError(t, err)
	require.Len(t, out, len(texts))
	for i, in := range texts {
		assert.Equal(t, strings.ToUpper(in), out[i].Text)
		assert.Equal(t, "de", out[i].TargetLanguage)
	}
	assert.Equal(t, len(texts), gen.Calls())
}
