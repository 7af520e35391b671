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

// Package audio turns an audio file into the mono 16 kHz waveform the
// recognizer expects. This file holds the sample rate conversion: a Hann
// windowed sinc kernel split into one polyphase branch per output phase,
// each branch keeping only the taps inside the kernel support.
package audio

import (
	"math"
)

const (
	// lowpassFilterWidth is the number of zero crossings of the sinc kernel
	// kept on each side of the centre tap.
	lowpassFilterWidth = 6
	// rolloff places the filter cutoff just below the Nyquist frequency of
	// the lower of the two rates.
	rolloff = 0.99
)

// Downmix averages interleaved multi-channel samples into a single channel.
// Trailing samples that do not form a whole frame are dropped.
func Downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		out := make([]float32, len(interleaved))
		copy(out, interleaved)
		return out
	}
	frames := len(interleaved) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(interleaved[i*channels+ch])
		}
		out[i] = float32(sum / float64(channels))
	}
	return out
}

// ResampledLength returns round(n * to / from) computed without floating point.
func ResampledLength(n, from, to int) int {
	if n == 0 || from <= 0 || to <= 0 {
		return 0
	}
	num := 2*int64(n)*int64(to) + int64(from)
	return int(num / (2 * int64(from)))
}

// Resample converts mono samples from one rate to another with a Hann
// windowed sinc interpolator. The output is fully determined by the input
// and the two rates.
//
// Inputs:
//   - samples: mono samples at rate from.
//   - from, to: sample rates in Hz; any positive pair works, coprime ones included.
//
// Outputs:
//   - []float32: ResampledLength(len(samples), from, to) samples at rate to.
func Resample(samples []float32, from, to int) []float32 {
	if from == to {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out
	}
	if len(samples) == 0 || from <= 0 || to <= 0 {
		return []float32{}
	}

	r := newPolyphaseResampler(from, to)
	outLen := ResampledLength(len(samples), from, to)
	out := make([]float32, outLen)
	for m := 0; m < outLen; m++ {
		out[m] = r.sample(samples, m)
	}
	return out
}

// phase is one polyphase branch of the interpolation kernel, stored without
// its leading and trailing zero taps.
type phase struct {
	offset int // index of taps[0] relative to the block start
	taps   []float64
}

type polyphaseResampler struct {
	orig   int // reduced input rate
	new    int // reduced output rate
	width  int // kernel half-width, in input samples
	phases []phase
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func newPolyphaseResampler(from, to int) *polyphaseResampler {
	g := gcd(from, to)
	orig, nw := from/g, to/g

	baseFreq := float64(min(orig, nw)) * rolloff
	width := int(math.Ceil(lowpassFilterWidth * float64(orig) / baseFreq))
	scale := baseFreq / float64(orig)

	r := &polyphaseResampler{orig: orig, new: nw, width: width, phases: make([]phase, nw)}
	// taps are non-zero only within reach input samples of the phase centre
	reach := lowpassFilterWidth * float64(orig) / baseFreq
	kernel := make([]float64, 0, 2*width+3)
	for j := 0; j < nw; j++ {
		centre := float64(orig) * float64(j) / float64(nw)
		first := max(int(math.Floor(centre-reach)), -width)
		last := min(int(math.Ceil(centre+reach)), width+orig-1)

		kernel = kernel[:0]
		for idx := first; idx <= last; idx++ {
			kernel = append(kernel, tap(idx, j, orig, nw, baseFreq, scale))
		}
		lo, hi := 0, len(kernel)
		for lo < hi && kernel[lo] == 0 {
			lo++
		}
		for hi > lo && kernel[hi-1] == 0 {
			hi--
		}
		r.phases[j] = phase{offset: first + lo, taps: append([]float64(nil), kernel[lo:hi]...)}
	}
	return r
}

// tap is the kernel weight of input offset idx for output phase j.
func tap(idx, j, orig, nw int, baseFreq, scale float64) float64 {
	t := (float64(idx)/float64(orig) - float64(j)/float64(nw)) * baseFreq
	if t <= -lowpassFilterWidth || t >= lowpassFilterWidth {
		return 0
	}
	window := math.Cos(t * math.Pi / lowpassFilterWidth / 2)
	window *= window
	var sinc float64 = 1
	if t != 0 {
		x := t * math.Pi
		sinc = math.Sin(x) / x
	}
	return sinc * window * scale
}

// sample computes output sample m. Output m belongs to block m/new and uses
// phase m%new; input positions outside the buffer contribute zero.
func (r *polyphaseResampler) sample(in []float32, m int) float32 {
	block := m / r.new
	p := r.phases[m%r.new]
	start := block*r.orig + p.offset

	var acc float64
	for k, tap := range p.taps {
		i := start + k
		if i < 0 {
			continue
		}
		if i >= len(in) {
			break
		}
		acc += float64(in[i]) * tap
	}
	return float32(acc)
}
