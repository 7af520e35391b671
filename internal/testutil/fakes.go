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

package test

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/jaycherian/gcp-go-media-digest/internal/executor"
)

// CommandHandler produces the outcome of one fake process invocation.
type CommandHandler func(args []string) (executor.Result, error)

// FakeCall records one invocation seen by a FakeRunner.
type FakeCall struct {
	Name string
	Args []string
}

// FakeRunner is an executor.Runner that dispatches on the program name.
type FakeRunner struct {
	mu       sync.Mutex
	handlers map[string]CommandHandler
	paths    map[string]bool
	calls    []FakeCall
}

func NewFakeRunner() *FakeRunner {
	return &FakeRunner{handlers: make(map[string]CommandHandler), paths: make(map[string]bool)}
}

// On registers the handler for a program name.
func (f *FakeRunner) On(name string, handler CommandHandler) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[name] = handler
	return f
}

// WithPath makes LookPath report name as installed.
func (f *FakeRunner) WithPath(name string) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths[name] = true
	return f
}

func (f *FakeRunner) Run(_ context.Context, name string, args ...string) (executor.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, FakeCall{Name: name, Args: append([]string(nil), args...)})
	handler, ok := f.handlers[name]
	f.mu.Unlock()
	if !ok {
		return executor.Result{}, fmt.Errorf("command '%s' failed: unexpected command", name)
	}
	return handler(args)
}

func (f *FakeRunner) LookPath(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paths[name]
}

// CallsTo returns the recorded invocations of name.
func (f *FakeRunner) CallsTo(name string) []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, 0)
	for _, c := range f.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// ArgAfter returns the argument following flag, or "" when absent.
func ArgAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// EncodeFloat32LE is the inverse of the f32le decoding done by the audio package.
func EncodeFloat32LE(samples []float32) []byte {
	out := make([]byte, 4*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}

// Sine generates n samples of a sine tone.
func Sine(freq float64, rate int, n int, amplitude float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

// FakeGenerator is a text generator that answers from a function and records
// every prompt it was given.
type FakeGenerator struct {
	mu     sync.Mutex
	name   string
	Reply  func(instruction, payload string) (string, error)
	prompt []FakePrompt
}

// FakePrompt is one recorded generator call.
type FakePrompt struct {
	Instruction string
	Payload     string
}

func NewFakeGenerator(name string, reply func(instruction, payload string) (string, error)) *FakeGenerator {
	return &FakeGenerator{name: name, Reply: reply}
}

func (g *FakeGenerator) Name() string {
	return g.name
}

func (g *FakeGenerator) Generate(_ context.Context, instruction string, payload string) (string, error) {
	g.mu.Lock()
	g.prompt = append(g.prompt, FakePrompt{Instruction: instruction, Payload: payload})
	g.mu.Unlock()
	return g.Reply(instruction, payload)
}

// Prompts returns the recorded calls.
func (g *FakeGenerator) Prompts() []FakePrompt {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]FakePrompt(nil), g.prompt...)
}

// Calls returns how many times Generate was invoked.
func (g *FakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompt)
}

// Echo returns a generator reply that repeats the payload in upper case.
func Echo(_ string, payload string) (string, error) {
	return strings.ToUpper(payload), nil
}
