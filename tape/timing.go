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

package tape

import (
	"strings"

	"github.com/dragontape/bin2cas/curated"
)

// SourceClock is the crystal frequency of the target machine in Hz. All
// waveform lengths are expressed in ticks of this clock divided by 16.
const SourceClock = 14318180

// PulseSpec describes how bytes are turned into audio pulses. Cycles holds
// the nominal waveform length for bit values 0 and 1, in source-clock ticks
// divided by 16.
//
// Leader, First and Rest each hold three (delay low, delay high) pairs. The
// delays widen the two half-periods of a bit to account for the time the ROM
// loader spends between samples. Within each set of six, the pairs apply to:
//
//	[0],[1]  bit 0 of the first byte of a run
//	[2],[3]  bits 1-7 of every byte
//	[4],[5]  bit 0 of every subsequent byte
//
// The three sets apply to the three parts of a framed block: Leader for
// leader and sync bytes, First for the kind and length bytes, Rest for the
// payload and checksum.
type PulseSpec struct {
	Name   string
	Cycles [2]uint16
	Leader [6]uint16
	First  [6]uint16
	Rest   [6]uint16
}

// Pair returns the (delay low, delay high) pair for the given phase and
// bit position.
//
// The phase selects which of the three delay sets is in force and the
// position index is 0 for bit 0 of the first byte, 1 for bits 1-7 and 2
// for bit 0 of subsequent bytes.
func (ps *PulseSpec) Pair(phase Phase, position int) (uint16, uint16) {
	var set *[6]uint16
	switch phase {
	case PhaseLeader:
		set = &ps.Leader
	case PhaseFirst:
		set = &ps.First
	case PhaseRest:
		set = &ps.Rest
	}
	return set[position*2], set[position*2+1]
}

// The three fixed pulse specifications.
//
// Simple writes symmetric pulses at the nominal CSAVE frequencies. ROM
// stretches the pulses to match the counting delays measured in the BASIC
// ROM's cassette input routine and is the safe default. Fast halves the
// nominal periods and is only usable together with the fast-timing setup
// code of the autorun loader, which reprograms the ROM pulse-width
// constants.
var (
	Simple = PulseSpec{
		Name:   "simple",
		Cycles: [2]uint16{746, 373},
	}

	ROM = PulseSpec{
		Name:   "rom",
		Cycles: [2]uint16{698, 349},
		Leader: [6]uint16{26, 26, 26, 26, 26, 26},
		First:  [6]uint16{152, 26, 26, 26, 88, 26},
		Rest:   [6]uint16{26, 26, 26, 26, 88, 26},
	}

	Fast = PulseSpec{
		Name:   "fast",
		Cycles: [2]uint16{370, 185},
		Leader: [6]uint16{13, 13, 13, 13, 13, 13},
		First:  [6]uint16{76, 13, 13, 13, 44, 13},
		Rest:   [6]uint16{13, 13, 13, 13, 44, 13},
	}
)

// FastPW is the 16 bit value the autorun loader writes into the ROM
// pulse-width locations when fast timing is selected.
const FastPW = 0x0c06

// SpecByName returns one of the user selectable pulse specifications. The
// fast specification cannot be selected by name; it is chosen per file.
func SpecByName(name string) (*PulseSpec, error) {
	switch strings.ToLower(name) {
	case "simple":
		return &Simple, nil
	case "rom":
		return &ROM, nil
	}
	return nil, curated.Errorf(curated.UsageError, curated.Errorf("unknown timing name (%s)", name))
}
