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

// Package executor runs external programs (ffmpeg, ffprobe, yt-dlp and
// whisper.cpp) on behalf of the pipeline. The Runner interface is the seam
// the pipeline components are tested through.
package executor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Result holds the captured output of a finished process.
type Result struct {
	Stdout []byte
	Stderr string
}

// Runner executes a named program with arguments.
type Runner interface {
	// Run executes name with args and waits for it to exit. A non-zero exit
	// status is returned as an error that includes the trimmed stderr.
	Run(ctx context.Context, name string, args ...string) (Result, error)

	// LookPath reports whether name resolves to an executable.
	LookPath(name string) bool
}

type processRunner struct{}

// New returns a Runner backed by os/exec.
func New() Runner {
	return &processRunner{}
}

func (r *processRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.DebugContext(ctx, "running external command", "command", name, "args", strings.Join(args, " "))
	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: strings.TrimSpace(stderr.String())}
	if err != nil {
		if res.Stderr != "" {
			return res, fmt.Errorf("command '%s' failed: %w\nstderr: %s", name, err, lastLines(res.Stderr, 20))
		}
		return res, fmt.Errorf("command '%s' failed: %w", name, err)
	}
	return res, nil
}

func (r *processRunner) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// lastLines keeps the tail of noisy tool output (ffmpeg prints a banner).
func lastLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
