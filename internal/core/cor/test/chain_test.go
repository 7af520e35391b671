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

package cor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
)

// appendCommand appends its suffix to the incoming string.
type appendCommand struct {
	cor.BaseCommand
	suffix string
	fail   error
}

func newAppend(name string, stage model.Stage, suffix string) *appendCommand {
	return &appendCommand{BaseCommand: *cor.NewStageCommand(name, stage), suffix: suffix}
}

func (a *appendCommand) Execute(context cor.Context) {
	if a.fail != nil {
		a.Fail(context, a.fail)
		return
	}
	in := context.Get(a.GetInputParam()).(string)
	a.Succeed(context)
	context.Add(a.GetOutputParam(), in+a.suffix)
}

func newContext(in string) cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(cor.CtxIn, in)
	return ctx
}

func TestChainPipesOutputToInput(t *testing.T) {
	chain := cor.NewBaseChain("pipe")
	chain.AddCommand(newAppend("a", model.StageAcquiring, "-a"))
	chain.AddCommand(newAppend("b", model.StageExtracting, "-b"))

	ctx := newContext("x")
	chain.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, ctx.Get(cor.CtxIn), "x-a-b")
	assert.Nil(t, ctx.Get(cor.CtxOut))
	assert.DeepEqual(t, ctx.GetStageHistory(), []model.Stage{model.StageAcquiring, model.StageExtracting})
	assert.Equal(t, ctx.GetStage(), model.StageExtracting)
}

func TestChainStopsOnFirstError(t *testing.T) {
	boom := errors.New("boom")
	failing := newAppend("b", model.StageExtracting, "-b")
	failing.fail = boom

	chain := cor.NewBaseChain("stop")
	chain.AddCommand(newAppend("a", model.StageAcquiring, "-a"))
	chain.AddCommand(failing)
	chain.AddCommand(newAppend("c", model.StageTranscribing, "-c"))

	ctx := newContext("x")
	chain.Execute(ctx)

	assert.True(t, ctx.HasErrors())
	assert.Equal(t, ctx.Err(), boom)
	assert.DeepEqual(t, ctx.GetStageHistory(), []model.Stage{model.StageAcquiring, model.StageExtracting})
}

func TestChainContinueOnFailure(t *testing.T) {
	failing := newAppend("a", model.StageAcquiring, "-a")
	failing.fail = errors.New("first")
	independent := newAppend("b", model.StageExtracting, "-b")
	independent.InputParamName = "seed"

	chain := cor.NewBaseChain("continue")
	chain.ContinueOnFailure(true)
	chain.AddCommand(failing)
	chain.AddCommand(independent)

	ctx := newContext("x")
	ctx.Add("seed", "y")
	chain.Execute(ctx)

	assert.Equal(t, ctx.Get(cor.CtxIn), "y-b")
	assert.Equal(t, len(ctx.GetErrors()), 1)
	assert.DeepEqual(t, ctx.GetStageHistory(), []model.Stage{model.StageAcquiring, model.StageExtracting})
}

func TestChainStopsWhenContextCancelled(t *testing.T) {
	chain := cor.NewBaseChain("cancel")
	chain.AddCommand(newAppend("a", model.StageAcquiring, "-a"))

	goCtx, cancel := context.WithCancel(context.Background())
	cancel()

	ctx := cor.NewBaseContext()
	ctx.SetContext(goCtx)
	ctx.Add(cor.CtxIn, "x")
	chain.Execute(ctx)

	assert.True(t, errors.Is(ctx.Err(), context.Canceled))
	assert.Equal(t, len(ctx.GetStageHistory()), 0)
}

func TestChainSkipsCommandWithoutInput(t *testing.T) {
	chain := cor.NewBaseChain("skip")
	chain.AddCommand(newAppend("a", model.StageAcquiring, "-a"))

	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	chain.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Equal(t, len(ctx.GetStageHistory()), 0)
}

func TestContextErrorOrder(t *testing.T) {
	ctx := cor.NewBaseContext()
	first, second := errors.New("first"), errors.New("second")
	ctx.AddError("z", first)
	ctx.AddError("a", second)
	ctx.AddError("z", first)

	assert.Equal(t, ctx.Err(), first)
	assert.Equal(t, len(ctx.GetErrors()), 2)
}

func TestContextCloseRemovesTempFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tmp.wav")
	assert.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	ctx := cor.NewBaseContext()
	ctx.AddTempFile(path)
	ctx.AddTempFile(filepath.Join(t.TempDir(), "already-gone"))
	ctx.Close()

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, len(ctx.GetTempFiles()), 0)
}
