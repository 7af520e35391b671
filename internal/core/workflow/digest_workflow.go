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

// Package workflow assembles the pipeline commands into runnable workflows.
// This file builds the digest chain from its Dependencies and owns the end
// of every run: it stamps the terminal stage, records the run history row
// and, on failure, removes whatever the run had already written.
//
// Structs:
//   - Dependencies: The collaborators and directories a digest needs.
//   - DigestWorkflow: The cor.Command that runs one digest per execution.
//
// Functions:
//   - NewDigestWorkflow: Builds the chain, defaulting the clock to time.Now.
//   - Run: Executes one digest for a request outside of a Pub/Sub listener.
package workflow

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
	"github.com/jaycherian/gcp-go-media-digest/internal/media"
	"github.com/jaycherian/gcp-go-media-digest/internal/speech"
	"github.com/jaycherian/gcp-go-media-digest/internal/text"
)

// Dependencies are the collaborators of a DigestWorkflow. Store and Recorder
// are optional; every other field is required.
type Dependencies struct {
	Downloader   media.Downloader
	Extractor    media.AudioExtractor
	Preprocessor commands.Preprocessor
	Recognizer   speech.Recognizer
	Detector     text.LanguageDetector
	Summarizer   commands.Summarizer
	Translator   commands.Translator
	Store        commands.ArtifactStore // Copies artifacts to Cloud Storage when set.
	Recorder     commands.RowInserter   // Records finished and failed runs in BigQuery when set.
	Clock        commands.Clock

	VideoDir      string // Download directory for videos.
	AudioDir      string // Directory for extracted audio.
	OutputRoot    string // Used when a request names no output root.
	PinOutputRoot bool   // Always write under OutputRoot, ignoring the request.
	DefaultFocus  string // Used when a request names no focus hints.
}

// DigestWorkflow runs one digest per execution:
//
//	Acquiring -> Extracting -> Transcribing -> DetectingLanguage -> Summarizing
//	-> Translating | SkippingTranslation -> Persisting -> Done
//
// Any failure aborts the run and marks it Failed. A run that fails after its
// files were written, while uploading or recording, has its run directory and
// uploaded objects removed, so a failed run leaves no artifacts. The workflow
// is the only place that sets the terminal stage and status; the run history
// row is written afterwards, for Done and Failed runs alike.
//
// The workflow is itself a cor.Command whose input is a JSON DigestRequest,
// so a Pub/Sub listener can execute it directly.
type DigestWorkflow struct {
	cor.BaseCommand
	deps     Dependencies
	chain    cor.Chain
	recorder *commands.RunPersistToBigQuery
}

func NewDigestWorkflow(deps Dependencies) *DigestWorkflow {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	out := &DigestWorkflow{BaseCommand: *cor.NewBaseCommand("digest-workflow"), deps: deps}
	out.initializeChain()
	return out
}

func (w *DigestWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	out.AddCommand(commands.NewDigestRequestReader("read-digest-request"))
	out.AddCommand(commands.NewVideoAcquire("acquire-video", w.deps.Downloader, w.deps.VideoDir))
	out.AddCommand(commands.NewAudioExtract("extract-audio", w.deps.Extractor, w.deps.AudioDir))
	out.AddCommand(commands.NewAudioTranscribe("transcribe-audio", w.deps.Preprocessor, w.deps.Recognizer))
	out.AddCommand(commands.NewLanguageDetect("detect-language", w.deps.Detector))
	out.AddCommand(commands.NewSummaryCreate("create-summary", w.deps.Summarizer, w.deps.DefaultFocus))
	out.AddCommand(commands.NewSummaryTranslate("translate-summary", w.deps.Translator))
	out.AddCommand(commands.NewOutputPersist("persist-outputs", w.deps.Clock, w.deps.OutputRoot).PinRoot(w.deps.PinOutputRoot))

	if w.deps.Store != nil {
		out.AddCommand(commands.NewOutputUpload("upload-outputs", w.deps.Store))
	}
	if w.deps.Recorder != nil {
		w.recorder = commands.NewRunPersist("record-run", w.deps.Recorder)
	}

	w.chain = out
}

// Execute runs the pipeline for the JSON request under CtxIn and leaves the
// RunOutput of a successful run under commands.ParamRunOutput.
func (w *DigestWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)

	run, _ := context.Get(commands.ParamRunOutput).(*model.RunOutput)
	if !context.HasErrors() && run == nil {
		context.AddError(w.GetName(), model.UnexpectedError("workflow.execute", nil, "pipeline finished without output"))
	}

	if !context.HasErrors() {
		finalize(run, context.GetStageHistory(), model.StageDone, nil)
		if w.recorder != nil {
			w.recorder.Execute(context)
		}
	}
	if context.HasErrors() {
		w.abort(context)
		return
	}

	context.SetStage(model.StageDone)
	w.Succeed(context)
	slog.InfoContext(context.GetContext(), "digest complete", "run_id", run.RunID, "dir", run.Dir, "stages", run.Stages)
}

// abort removes whatever the run already wrote, records the failed run when
// the request was readable and marks the context Failed.
func (w *DigestWorkflow) abort(chCtx cor.Context) {
	// cleanup and recording still run when the failure was a cancellation
	ctx := context.WithoutCancel(chCtx.GetContext())
	err := chCtx.Err()
	failedIn := chCtx.GetStage()

	run, persisted := chCtx.Get(commands.ParamRunOutput).(*model.RunOutput)
	if persisted {
		w.discard(ctx, run)
		chCtx.Remove(commands.ParamRunOutput)
	} else if req, ok := chCtx.Get(commands.ParamRequest).(*model.DigestRequest); ok {
		run = model.NewRunOutput(req.URL, w.deps.Clock())
		run.TargetLanguage = req.TargetLanguage
		if title, ok := chCtx.Get(commands.ParamTitle).(string); ok {
			run.Title = title
		}
	}

	if run != nil {
		finalize(run, chCtx.GetStageHistory(), model.StageFailed, err)
		if w.recorder != nil {
			if recErr := w.recorder.Record(ctx, run); recErr != nil {
				slog.WarnContext(ctx, "failed run not recorded", "run_id", run.RunID, "error", recErr)
			}
		}
	}

	chCtx.SetStage(model.StageFailed)
	w.Fail(chCtx, err)
	slog.ErrorContext(ctx, "digest failed", "stage", failedIn, "error", err)
}

// discard deletes the run directory and uploaded objects of a persisted run
// and clears their locations from the record.
func (w *DigestWorkflow) discard(ctx context.Context, run *model.RunOutput) {
	if run.Dir != "" {
		if err := commands.RemoveRunDir(run.Dir); err != nil {
			slog.WarnContext(ctx, "failed to remove run directory", "dir", run.Dir, "error", err)
		}
	}
	if w.deps.Store != nil {
		commands.DiscardArtifacts(ctx, w.deps.Store, run.ArtifactURIs)
	}
	run.Dir, run.TranscriptPath, run.SummaryPath, run.TranslationPath = "", "", "", ""
	run.ArtifactURIs = nil
}

// finalize sets the terminal status of run. Stages ends with terminal.
func finalize(run *model.RunOutput, history []model.Stage, terminal model.Stage, err error) {
	run.Stages = commands.StageNames(append(history, terminal))
	run.Status = string(terminal)
	if err != nil {
		run.Error = err.Error()
	}
}

// Run executes one digest for req and returns its RunOutput, or the error of
// the stage that failed.
//
// Inputs:
//   - ctx: bounds the whole run; cancelling it fails the current stage.
//   - req: the digest request, normalized and validated by the chain.
//
// Outputs:
//   - *model.RunOutput: the Done run with the paths of its three files.
//   - error: a *model.Error whose kind tells which class of failure ended the run.
func (w *DigestWorkflow) Run(ctx context.Context, req *model.DigestRequest) (*model.RunOutput, error) {
	if req == nil {
		return nil, model.InvalidInputError("workflow.run", "digest request is required")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, model.UnexpectedError("workflow.run", err, "failed to encode digest request")
	}

	chCtx := cor.NewBaseContext()
	chCtx.SetContext(ctx)
	defer chCtx.Close()
	chCtx.Add(cor.CtxIn, string(body))

	w.Execute(chCtx)

	if err := chCtx.Err(); err != nil {
		return nil, err
	}
	return chCtx.Get(commands.ParamRunOutput).(*model.RunOutput), nil
}
