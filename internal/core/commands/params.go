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

// Package commands holds one cor.Command per stage of the digest pipeline.
// Commands exchange data through the named context parameters below and
// reach their collaborators through the small interfaces in this file.
package commands

import (
	"context"
	"io"
	"time"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
)

// Context parameter names shared by the digest commands.
const (
	ParamRequest     = "__digest_request__"
	ParamVideo       = "__video_asset__"
	ParamTitle       = "__video_title__"
	ParamAudio       = "__audio_asset__"
	ParamTranscript  = "__transcript__"
	ParamLanguage    = "__language__"
	ParamSummary     = "__summary__"
	ParamTranslation = "__translation__"
	ParamRunOutput   = "__run_output__"
)

// Preprocessor turns an audio file into a mono waveform at a fixed rate.
type Preprocessor interface {
	Prepare(ctx context.Context, path string, targetRate int) (*model.Waveform, error)
}

// Summarizer condenses a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, text string, focusHints string) (*model.SummaryResult, error)
	SummarizeBulletPoints(ctx context.Context, text string, numPoints int, focusHints string) (*model.SummaryResult, error)
}

// Translator translates a summary into a target language.
type Translator interface {
	Translate(ctx context.Context, text string, targetLanguage string) (*model.TranslationResult, error)
}

// ArtifactStore copies run artifacts to durable storage and returns their
// URI. Delete removes an object by that URI; deleting a missing object is not
// an error.
type ArtifactStore interface {
	Put(ctx context.Context, objectName string, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, uri string) error
}

// RowInserter streams rows into a table. *bigquery.Inserter satisfies it.
type RowInserter interface {
	Put(ctx context.Context, src interface{}) error
}

// Clock returns the current time. Run directories are named after it.
type Clock func() time.Time
