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

package waveform_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/dragontape/bin2cas/tape"
	"github.com/dragontape/bin2cas/tape/waveform"
	"github.com/dragontape/bin2cas/test"
)

const rate = 9600

func TestSilence(t *testing.T) {
	buf := &bytes.Buffer{}
	sy := waveform.New(buf, rate, &tape.ROM)

	err := sy.Silence()
	test.ExpectSuccess(t, err)

	// 0xda5c * 8 source ticks at 9600Hz is 299.84 samples, rounded up
	test.Equate(t, buf.Len(), 300)
	for _, b := range buf.Bytes() {
		if b != 0x80 {
			t.Fatalf("silence contains sample %#02x", b)
		}
	}
}

// ideal length in samples of a run of bytes, all positional delays
// included, computed without any rounding.
func idealLength(spec *tape.PulseSpec, phase tape.Phase, b []byte) float64 {
	var ticks float64
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
			lo, hi := spec.Pair(phase, position)
			half := float64(spec.Cycles[(v>>bit)&0x01]) / 2
			ticks += (half + float64(lo)) * 16
			ticks += (half + float64(hi)) * 16
		}
	}
	return ticks * rate / tape.SourceClock
}

func TestPeriodDrift(t *testing.T) {
	// a long run must stay within a sample of the ideal length. the byte
	// values exercise both bit periods
	run := make([]byte, 1000)
	for i := range run {
		run[i] = byte(i)
	}

	for _, spec := range []*tape.PulseSpec{&tape.Simple, &tape.ROM, &tape.Fast} {
		buf := &bytes.Buffer{}
		sy := waveform.New(buf, rate, spec)

		err := sy.Bytes(tape.PhaseRest, run)
		test.ExpectSuccess(t, err)

		ideal := idealLength(spec, tape.PhaseRest, run)
		drift := math.Abs(float64(buf.Len()) - ideal)
		if drift > 1 {
			t.Errorf("%s: drift of %.3f samples over %d bytes", spec.Name, drift, len(run))
		}
	}
}

func TestPulseShape(t *testing.T) {
	buf := &bytes.Buffer{}
	sy := waveform.New(buf, rate, &tape.Simple)

	// one byte of zero bits: eight identical symmetric pulses
	err := sy.Bytes(tape.PhaseRest, []byte{0x00})
	test.ExpectSuccess(t, err)

	b := buf.Bytes()
	if len(b) == 0 {
		t.Fatal("no samples written")
	}

	// samples stay within the amplitude around the midpoint
	for _, s := range b {
		if s < 128-115 || s > 128+115 {
			t.Fatalf("sample %#02x out of range", s)
		}
	}

	// the first half-period is the positive lobe
	if b[0] < 0x80 {
		t.Errorf("waveform does not start with the positive lobe (%#02x)", b[0])
	}
}

func TestSineCache(t *testing.T) {
	// the repeated bytes make every pulse after the first few a cache hit.
	// a fresh synthesizer fed the same bytes must produce identical samples
	run := []byte{0x55, 0x55, 0x55, 0xaa, 0xaa, 0xaa}

	b1 := &bytes.Buffer{}
	sy1 := waveform.New(b1, rate, &tape.ROM)
	err := sy1.Bytes(tape.PhaseRest, run)
	test.ExpectSuccess(t, err)

	b2 := &bytes.Buffer{}
	sy2 := waveform.New(b2, rate, &tape.ROM)
	err = sy2.Bytes(tape.PhaseRest, run)
	test.ExpectSuccess(t, err)

	test.Equate(t, b1.Bytes(), b2.Bytes())
}
