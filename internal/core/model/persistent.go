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

// This file holds RunOutput, the record of a finished pipeline run. It is
// both the value returned to callers and the row written to BigQuery.
package model

import (
	"time"

	"github.com/google/uuid"
)

// TimestampLayout formats the per-run directory name (YYYYMMDD_HHMMSS).
const TimestampLayout = "20060102_150405"

// RunOutput describes the artifacts and outcome of one run.
type RunOutput struct {
	RunID            string    `json:"run_id" bigquery:"run_id"`
	URL              string    `json:"url" bigquery:"url"`
	Title            string    `json:"title" bigquery:"title"`
	Timestamp        string    `json:"timestamp" bigquery:"timestamp"` // Directory timestamp component.
	CreateDate       time.Time `json:"create_date" bigquery:"create_date"`
	Dir              string    `json:"dir" bigquery:"dir"`
	TranscriptPath   string    `json:"transcript_path" bigquery:"transcript_path"`
	SummaryPath      string    `json:"summary_path" bigquery:"summary_path"`
	TranslationPath  string    `json:"translation_path" bigquery:"translation_path"`
	DetectedLanguage string    `json:"detected_language" bigquery:"detected_language"`
	TargetLanguage   string    `json:"target_language" bigquery:"target_language"`
	Translated       bool      `json:"translated" bigquery:"translated"`
	CompressionRatio float64   `json:"compression_ratio" bigquery:"compression_ratio"`
	Recognizer       string    `json:"recognizer" bigquery:"recognizer"`
	Device           string    `json:"device" bigquery:"device"`
	Stages           []string  `json:"stages" bigquery:"stages"`
	ArtifactURIs     []string  `json:"artifact_uris,omitempty" bigquery:"artifact_uris"` // gs:// locations when uploads are enabled.
	Status           string    `json:"status" bigquery:"status"`                         // Terminal stage, Done or Failed.
	Error            string    `json:"error,omitempty" bigquery:"error"`
}

// NewRunOutput creates the record for a run of url started at now. The run id
// is a UUIDv5 of the url and start time so that replays of the same request
// in the same second map to the same id.
func NewRunOutput(url string, now time.Time) *RunOutput {
	ts := now.Format(TimestampLayout)
	return &RunOutput{
		RunID:      runID(url, ts),
		URL:        url,
		Timestamp:  ts,
		CreateDate: now,
		Stages:     make([]string, 0),
	}
}

// SetTimestamp replaces the directory timestamp component, for instance after
// a collision suffix was appended, and derives the run id from it again.
func (r *RunOutput) SetTimestamp(ts string) {
	r.Timestamp = ts
	r.RunID = runID(r.URL, ts)
}

func runID(url string, ts string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(url+"@"+ts)).String()
}
