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

package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolyphaseTapsStayBounded(t *testing.T) {
	r := newPolyphaseResampler(22051, 16000)
	require.Equal(t, 22051, r.orig)
	require.Equal(t, 16000, r.new)

	// each phase spans at most the kernel support plus one sample either side
	reach := lowpassFilterWidth * float64(r.orig) / (float64(r.new) * rolloff)
	limit := 2*int(math.Ceil(reach)) + 2
	total := 0
	for j, p := range r.phases {
		assert.LessOrEqual(t, len(p.taps), limit, "phase %d", j)
		total += len(p.taps)
	}
	assert.LessOrEqual(t, total, r.new*limit)
}

func TestPolyphaseTapsMatchFullKernel(t *testing.T) {
	r := newPolyphaseResampler(22051, 16000)
	baseFreq := float64(r.new) * rolloff
	scale := baseFreq / float64(r.orig)
	for _, j := range []int{0, 1, 7999, 15999} {
		p := r.phases[j]
		for idx := -r.width; idx < r.width+r.orig; idx++ {
			want := tap(idx, j, r.orig, r.new, baseFreq, scale)
			var got float64
			if k := idx - p.offset; k >= 0 && k < len(p.taps) {
				got = p.taps[k]
			}
			if want != got {
				t.Fatalf("phase %d idx %d: got %v want %v", j, idx, got, want)
			}
		}
	}
}
