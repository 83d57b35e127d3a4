// This file is part of bin2cas.
//
// bin2cas is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// bin2cas is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with bin2cas.  If not, see <https://www.gnu.org/licenses/>.

// Package waveform turns framed tape bytes into unsigned 8-bit PCM samples.
//
// Every bit of every byte becomes a pair of half-sine pulses. The widths of
// the two halves are taken from the pulse specification in force, which
// widens pulses at the positions where the ROM loader is slow to return to
// its sampling loop. A running fractional-sample error is carried between
// pulses so that the output never drifts from the ideal length by more than
// half a sample, no matter how long the run.
package waveform

import (
	"io"
	"math"

	"github.com/dragontape/bin2cas/curated"
	"github.com/dragontape/bin2cas/tape"
)

// sample amplitude around the 8-bit midpoint of 128.
const amplitude = 115

// midpoint sample value. also the value written during silence.
const midpoint = 0x80

// length of the silence prelude in source-clock ticks.
const silenceTicks = 0xda5c * 8

type cacheKey struct {
	period0 int
	period1 int
}

// Synth is the Modulator for WAV output. It owns the fractional-error
// accumulator and the cache of synthesized sine pairs.
type Synth struct {
	sink io.Writer
	rate int
	spec *tape.PulseSpec

	// fractional part of the previous period computation. carried forward
	// so long runs stay within half a sample of the ideal length
	aoError float64

	// synthesized pulse pairs keyed by their two half-period lengths. the
	// number of distinct keys is small because the same periods repeat for
	// every byte of a run
	sinewaves map[cacheKey][]byte
}

// New is the preferred method of initialisation for the Synth type. Samples
// are written to sink as they are synthesized.
func New(sink io.Writer, rate int, spec *tape.PulseSpec) *Synth {
	return &Synth{
		sink:      sink,
		rate:      rate,
		spec:      spec,
		sinewaves: make(map[cacheKey][]byte),
	}
}

// SetSpec implements the tape.Modulator interface.
func (sy *Synth) SetSpec(spec *tape.PulseSpec) {
	sy.spec = spec
}

// samples converts a length in source-clock ticks to a whole number of
// samples, accumulating the rounding residue for the next call.
func (sy *Synth) samples(ticks float64) int {
	p := sy.aoError + float64(sy.rate)*ticks/tape.SourceClock
	n := math.Round(p)
	sy.aoError = p - n
	return int(n)
}

// Bytes implements the tape.Modulator interface. Bits are emitted LSB
// first. The pulse-pair position is 0 for bit 0 of the first byte of the
// run, 1 for bits 1 to 7 of any byte and 2 for bit 0 of subsequent bytes.
func (sy *Synth) Bytes(phase tape.Phase, b []byte) error {
	for i, v := range b {
		for bit := 0; bit < 8; bit++ {
			position := 1
			if bit == 0 {
				if i == 0 {
					position = 0
				} else {
					position = 2
				}
			}

			delayLow, delayHigh := sy.spec.Pair(phase, position)
			half := float64(sy.spec.Cycles[(v>>bit)&0x01]) / 2

			period0 := sy.samples((half + float64(delayLow)) * 16)
			period1 := sy.samples((half + float64(delayHigh)) * 16)

			_, err := sy.sink.Write(sy.sinewave(period0, period1))
			if err != nil {
				return curated.Errorf(curated.OutputError, err)
			}
		}
	}

	return nil
}

// Silence implements the tape.Modulator interface. The quiet period before
// a leader is a constant midpoint sample held for a fixed number of
// source-clock ticks.
func (sy *Synth) Silence() error {
	n := sy.samples(silenceTicks)

	quiet := make([]byte, n)
	for i := range quiet {
		quiet[i] = midpoint
	}

	_, err := sy.sink.Write(quiet)
	if err != nil {
		return curated.Errorf(curated.OutputError, err)
	}
	return nil
}

// sinewave returns the samples for one pulse: a positive half-sine of
// period0 samples followed by a negative half-sine of period1 samples.
func (sy *Synth) sinewave(period0, period1 int) []byte {
	key := cacheKey{period0: period0, period1: period1}
	if wave, ok := sy.sinewaves[key]; ok {
		return wave
	}

	wave := make([]byte, 0, period0+period1)
	for i := 1; i <= period0; i++ {
		s := math.Round(amplitude * math.Sin(math.Pi*float64(i)/float64(period0+1)))
		wave = append(wave, byte(int(s)+midpoint))
	}
	for i := 1; i <= period1; i++ {
		s := math.Round(amplitude * math.Sin(math.Pi+math.Pi*float64(i)/float64(period1+1)))
		wave = append(wave, byte(int(s)+midpoint))
	}

	sy.sinewaves[key] = wave
	return wave
}
