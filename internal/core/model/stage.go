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

package model

// Stage is a state of the digest pipeline. A run moves through the stages in
// declaration order, taking exactly one of Translating or SkippingTranslation,
// and ends in Done or Failed.
type Stage string

const (
	StageAcquiring           Stage = "Acquiring"
	StageExtracting          Stage = "Extracting"
	StageTranscribing        Stage = "Transcribing"
	StageDetectingLanguage   Stage = "DetectingLanguage"
	StageSummarizing         Stage = "Summarizing"
	StageTranslating         Stage = "Translating"
	StageSkippingTranslation Stage = "SkippingTranslation"
	StagePersisting          Stage = "Persisting"
	StageDone                Stage = "Done"
	StageFailed              Stage = "Failed"
)

// IsTerminal reports whether no further stage can follow s.
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageFailed
}
