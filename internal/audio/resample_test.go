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

package audio_test

import (
	"math"
	"testing"

	"github.com/jaycherian/gcp-go-media-digest/internal/audio"
	test "github.com/jaycherian/gcp-go-media-digest/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestResampledLength(t *testing.T) {
	assert.Equal(t, 16000, audio.ResampledLength(44100, 44100, 16000))
	assert.Equal(t, 363, audio.ResampledLength(1000, 44100, 16000)) // 362.81
	assert.Equal(t, 2000, audio.ResampledLength(1000, 8000, 16000))
	assert.Equal(t, 1, audio.ResampledLength(2, 48000, 16000)) // 0.67
	assert.Equal(t, 0, audio.ResampledLength(0, 48000, 16000))
}

func TestResampleOutputLength(t *testing.T) {
	for _, rate := range []int{8000, 11025, 22050, 32000, 44100, 48000} {
		in := test.Sine(440, rate, rate/2+7, 0.5)
		out := audio.Resample(in, rate, 16000)
		assert.Equal(t, audio.ResampledLength(len(in), rate, 16000), len(out), "rate %d", rate)
	}
}

func TestResampleSameRateCopies(t *testing.T) {
	in := []float32{0.1, -0.2, 0.3}
	out := audio.Resample(in, 16000, 16000)
	assert.Equal(t, in, out)
	out[0] = 9
	assert.Equal(t, float32(0.1), in[0])
}

func TestResampleEmpty(t *testing.T) {
	assert.Empty(t, audio.Resample(nil, 44100, 16000))
}

func TestResampleIsDeterministic(t *testing.T) {
	in := test.Sine(1000, 44100, 44100, 0.8)
	a := audio.Resample(in, 44100, 16000)
	b := audio.Resample(in, 44100, 16000)
	assert.Equal(t, a, b)
}

// A tone below the new Nyquist frequency keeps its amplitude and frequency.
func TestResamplePreservesTone(t *testing.T) {
	const (
		from = 48000
		to   = 16000
		freq = 1000.0
	)
	in := test.Sine(freq, from, from, 0.5)
	out := audio.Resample(in, from, to)

	// skip the filter edges
	mid := out[1000 : len(out)-1000]
	var sumSq float64
	crossings := 0
	for i, s := range mid {
		sumSq += float64(s) * float64(s)
		if i > 0 && (mid[i-1] < 0) != (s < 0) {
			crossings++
		}
	}
	rms := math.Sqrt(sumSq / float64(len(mid)))
	assert.InDelta(t, 0.5/math.Sqrt2, rms, 0.01)

	seconds := float64(len(mid)) / to
	assert.InDelta(t, 2*freq*seconds, float64(crossings), 4)
}

// A tone above the new Nyquist frequency is removed rather than aliased.
func TestResampleRejectsAboveNyquist(t *testing.T) {
	in := test.Sine(12000, 48000, 48000, 0.5)
	out := audio.Resample(in, 48000, 16000)
	mid := out[1000 : len(out)-1000]
	var sumSq float64
	for _, s := range mid {
		sumSq += float64(s) * float64(s)
	}
	rms := math.Sqrt(sumSq / float64(len(mid)))
	assert.Less(t, rms, 0.02)
}

func TestUpsampleKeepsDC(t *testing.T) {
	in := make([]float32, 800)
	for i := range in {
		in[i] = 0.25
	}
	out := audio.Resample(in, 8000, 16000)
	assert.Len(t, out, 1600)
	for _, s := range out[100 : len(out)-100] {
		assert.InDelta(t, 0.25, s, 0.01)
	}
}

func TestDownmix(t *testing.T) {
	stereo := []float32{1, 0, 0.5, 0.5, -1, 1, 0.2}
	mono := audio.Downmix(stereo, 2)
	assert.Equal(t, []float32{0.5, 0.5, 0}, mono)

	single := []float32{0.1, 0.2}
	out := audio.Downmix(single, 1)
	assert.Equal(t, single, out)

	surround := []float32{0.3, 0.3, 0.3, 0.6, 0.6, 0.6}
	assert.InDeltaSlice(t, []float32{0.3, 0.6}, audio.Downmix(surround, 3), 1e-6)
}

// Rates with no common factor still resample a tone cleanly.
func TestResampleCoprimeRates(t *testing.T) {
	for _, from := range []int{22051, 44056} {
		in := test.Sine(1000, from, from, 0.5)
		out := audio.Resample(in, from, 16000)
		assert.Equal(t, audio.ResampledLength(len(in), from, 16000), len(out), "rate %d", from)
		assert.Equal(t, out, audio.Resample(in, from, 16000), "rate %d", from)

		mid := out[1000 : len(out)-1000]
		var sumSq float64
		for _, s := range mid {
			sumSq += float64(s) * float64(s)
		}
		rms := math.Sqrt(sumSq / float64(len(mid)))
		assert.InDelta(t, 0.5/math.Sqrt2, rms, 0.01, "rate %d", from)
	}
}
