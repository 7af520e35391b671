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

// Package cor (Chain of Responsibility) provides the runtime the digest
// pipeline is assembled from: commands that each perform one stage, chains
// that run commands in order, and a context that carries data, errors and
// the current pipeline stage between them.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/gcp-go-media-digest/internal/core/model"
)

const (
	// CtxIn is the default input key. A BaseChain fills it with the output of
	// the previous command.
	CtxIn = "__IN__"
	// CtxOut is the default output key. A BaseChain moves its value to CtxIn
	// before the next command runs.
	CtxOut = "__OUT__"
)

// MeterName is the instrumentation scope for every command metric.
const MeterName = "github.com/jaycherian/gcp-go-media-digest"

// Context is the shared state of a single chain execution.
type Context interface {
	// SetContext sets the Go context used for cancellation and tracing.
	SetContext(context context.Context)

	// GetContext returns the Go context.
	GetContext() context.Context

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records a failure, keyed by the name of the command that
	// produced it. Errors are kept in the order they were added.
	AddError(key string, err error)

	// GetErrors returns all recorded errors keyed by command name.
	GetErrors() map[string]error

	// Err returns the first recorded error, or nil.
	Err() error

	// Get returns the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes the value stored under key.
	Remove(key string)

	// HasErrors reports whether any error has been recorded.
	HasErrors() bool

	// SetStage moves the execution to stage and appends it to the history.
	SetStage(stage model.Stage)

	// GetStage returns the current stage, or "" before the first one.
	GetStage() model.Stage

	// GetStageHistory returns every stage entered, in order.
	GetStageHistory() []model.Stage

	// AddTempFile registers a file to delete on Close.
	AddTempFile(file string)

	// GetTempFiles returns the registered temporary files.
	GetTempFiles() []string

	// Close deletes the registered temporary files.
	Close()
}

type Executable interface {
	// Execute reads its inputs from context and writes its outputs back.
	Execute(context Context)
}

type Command interface {
	Executable

	// GetName returns the unique name of the command, used for logging and telemetry.
	GetName() string

	// GetStage returns the pipeline stage this command performs. Commands
	// that choose their stage at run time return "" and set it themselves.
	GetStage() model.Stage

	// GetInputParam returns the context key of the command's primary input.
	GetInputParam() string

	// GetOutputParam returns the context key of the command's primary output.
	GetOutputParam() string

	// IsExecutable reports whether the context holds what the command needs.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

type Chain interface {
	Command

	// ContinueOnFailure controls whether commands after a failed one still run.
	ContinueOnFailure(bool) Chain

	// AddCommand appends command to the chain.
	AddCommand(command Command) Chain
}
