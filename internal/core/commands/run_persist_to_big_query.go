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
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
)

// RunPersistToBigQuery streams a RunOutput into the BigQuery run history
// table. It does not change the row: the workflow sets the terminal status,
// stage list and error before recording, for finished and failed runs alike.
type RunPersistToBigQuery struct {
	cor.BaseCommand
	inserter RowInserter
}

// NewRunPersist writes through inserter, normally the Inserter of the
// configured runs table.
func NewRunPersist(name string, inserter RowInserter) *RunPersistToBigQuery {
	out := &RunPersistToBigQuery{BaseCommand: *cor.NewBaseCommand(name), inserter: inserter}
	out.InputParamName = ParamRunOutput
	out.OutputParamName = ParamRunOutput
	return out
}

// Execute records the RunOutput held under ParamRunOutput.
func (s *RunPersistToBigQuery) Execute(context cor.Context) {
	run := context.Get(s.GetInputParam()).(*model.RunOutput)

	if err := s.Record(context.GetContext(), run); err != nil {
		s.Fail(context, err)
		return
	}

	s.Succeed(context)
	context.Add(s.GetOutputParam(), run)
	context.Add(cor.CtxOut, run)
}

// Record inserts run as one row.
//
// Inputs:
//   - ctx: carries the span of the caller; the insert gets a child span.
//   - run: the finalized run record.
//
// Outputs:
//   - error: an UnexpectedError wrapping the insert failure, or nil.
func (s *RunPersistToBigQuery) Record(ctx context.Context, run *model.RunOutput) error {
	ctx, span := s.GetTracer().Start(ctx, s.GetName())
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", run.RunID),
		attribute.String("status", run.Status),
	)

	if err := s.inserter.Put(ctx, run); err != nil {
		span.RecordError(err)
		return model.UnexpectedError("output.record", err, "bigquery insert failed for run %s", run.RunID)
	}
	slog.InfoContext(ctx, "run recorded", "run_id", run.RunID, "status", run.Status, "title", run.Title)
	return nil
}

// StageNames converts a stage history to its string form.
func StageNames(stages []model.Stage) []string {
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = string(s)
	}
	return out
}
