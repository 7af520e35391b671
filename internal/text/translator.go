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
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
)

const opTranslate = "text.translate"

// Translator renders text in a target language, keeping meaning, tone and
// style.
type Translator struct {
	generator TextGenerator
	workers   int
}

func NewTranslator(generator TextGenerator) *Translator {
	return &Translator{generator: generator, workers: 1}
}

// WithWorkers sets how many batch items are translated concurrently.
func (t *Translator) WithWorkers(workers int) *Translator {
	if workers < 1 {
		workers = 1
	}
	t.workers = workers
	return t
}

func (t *Translator) Translate(ctx context.Context, text string, targetLanguage string) (*model.TranslationResult, error) {
	targetLanguage = strings.TrimSpace(targetLanguage)
	if targetLanguage == "" {
		return nil, model.InvalidInputError(opTranslate, "target language is required")
	}

	instruction := fmt.Sprintf("You are a professional translator. Translate the following text to %s. "+
		"Maintain the original meaning, tone, and style as much as possible.", targetLanguage)

	translated, err := t.generator.Generate(ctx, instruction, "Text to translate: "+text)
	if err != nil {
		return nil, model.UnexpectedError(opTranslate, err, "translation to %s failed", targetLanguage)
	}
	return &model.TranslationResult{
		Text:           translated,
		TargetLanguage: targetLanguage,
		Translator:     t.generator.Name(),
	}, nil
}

type translateJob struct {
	index int
	text  string
}

type translateResult struct {
	index int
	value *model.TranslationResult
	err   error
}

// BatchTranslate translates each text independently. The result has one
// entry per input, in input order; entries whose translation failed are nil
// and their errors are joined into the returned error.
func (t *Translator) BatchTranslate(ctx context.Context, texts []string, targetLanguage string) ([]*model.TranslationResult, error) {
	jobs := make(chan translateJob, len(texts))
	results := make(chan translateResult, len(texts))

	var wg sync.WaitGroup
	for w := 0; w < min(t.workers, len(texts)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res, err := t.Translate(ctx, j.text, targetLanguage)
				results <- translateResult{index: j.index, value: res, err: err}
			}
		}()
	}

	for i, text := range texts {
		jobs <- translateJob{index: i, text: text}
	}
	close(jobs)
	wg.Wait()
	close(results)

	out := make([]*model.TranslationResult, len(texts))
	failed := make([]error, len(texts))
	for r := range results {
		out[r.index] = r.value
		if r.err != nil {
			failed[r.index] = fmt.Errorf("item %d: %w", r.index, r.err)
		}
	}
	return out, errors.Join(failed...)
}
