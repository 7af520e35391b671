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

package workflow_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"

	"github.com/jaycherian/gcp-go-media-digest/internal/cloud"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/workflow"
	"github.com/jaycherian/gcp-go-media-digest/internal/telemetry"
)

const tName = "cloud.google.com/media/tests/workflow"

var (
	tracer = otel.Tracer(tName)
	logger = otelslog.NewLogger(tName)
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	telemetry.SetupLogging(os.Stderr, slog.LevelDebug)

	// no project id, so spans are recorded locally and nothing is exported
	config := cloud.NewConfig()
	config.Application.Name = "media-digest-test"
	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	_ = shutdown(ctx)
	os.Exit(code)
}

// runTraced runs one digest inside a test span.
func runTraced(t *testing.T, wf *workflow.DigestWorkflow, req *model.DigestRequest) (*model.RunOutput, error) {
	t.Helper()
	ctx, span := tracer.Start(context.Background(), t.Name())
	defer span.End()

	out, err := wf.Run(ctx, req)
	if err != nil {
		logger.ErrorContext(ctx, "digest failed", "error", err)
		return nil, err
	}
	logger.InfoContext(ctx, "digest complete", "dir", out.Dir, "translated", out.Translated)
	return out, nil
}
