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

package executor

import (
	"context"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	res, err := New().Run(context.Background(), "sh", "-c", "printf hello; printf oops >&2")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(res.Stdout))
	assert.Equal(t, "oops", res.Stderr)
}

func TestRunIncludesStderrOnFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	_, err := New().Run(context.Background(), "sh", "-c", "echo broken input >&2; exit 3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command 'sh' failed")
	assert.Contains(t, err.Error(), "broken input")
}

func TestLookPath(t *testing.T) {
	assert.False(t, New().LookPath("definitely-not-a-real-binary-4821"))
}

func TestLastLines(t *testing.T) {
	in := strings.Repeat("x\n", 30) + "end"
	out := lastLines(in, 3)
	assert.Equal(t, "x\nx\nend", out)
	assert.Equal(t, "a\nb", lastLines("a\nb", 5))
}
