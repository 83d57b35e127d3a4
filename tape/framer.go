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
	"github.com/dragontape/bin2cas/curated"
)

// Phase selects which of a PulseSpec's three delay sets applies to a run of
// bytes.
type Phase int

// List of valid Phase values.
const (
	PhaseLeader Phase = iota
	PhaseFirst
	PhaseRest
)

// DefaultLeaderCount is the number of leader bytes written before a block
// unless overridden per file.
const DefaultLeaderCount = 256

// Modulator instances turn byte runs into output. The CAS modulator writes
// the bytes unmodified; the waveform modulator synthesizes PCM pulses.
type Modulator interface {
	// SetSpec changes the pulse specification for subsequent byte runs.
	SetSpec(spec *PulseSpec)

	// Bytes emits a run of bytes under the given phase. The first byte of
	// the run is the "first byte" for the purposes of pulse-pair selection.
	Bytes(phase Phase, b []byte) error

	// Silence emits the inter-block quiet period that precedes a leader.
	Silence() error
}

// Framer produces the on-tape framing around blocks: leaders, sync bytes,
// the block header, the checksum and the trailing leader byte.
type Framer struct {
	mod Modulator
}

// NewFramer is the preferred method of initialisation for the Framer type.
func NewFramer(mod Modulator) *Framer {
	return &Framer{mod: mod}
}

// SetSpec changes the pulse specification used by the underlying modulator.
func (fr *Framer) SetSpec(spec *PulseSpec) {
	fr.mod.SetSpec(spec)
}

// WriteLeader emits the silence prelude followed by count leader bytes.
func (fr *Framer) WriteLeader(count int) error {
	err := fr.mod.Silence()
	if err != nil {
		return err
	}
	return fr.leaderRun(count)
}

// TrailingLeader emits a run of leader bytes with no silence prelude. Used
// to end a file cleanly.
func (fr *Framer) TrailingLeader(count int) error {
	return fr.leaderRun(count)
}

func (fr *Framer) leaderRun(count int) error {
	filler := make([]byte, count)
	for i := range filler {
		filler[i] = LeaderByte
	}
	return fr.mod.Bytes(PhaseLeader, filler)
}

// BlockOut frames and emits a single block: sync bytes, kind and length,
// payload, checksum and the trailing leader byte.
func (fr *Framer) BlockOut(blk Block) error {
	if len(blk.Payload) > MaxPayload {
		return curated.Errorf(curated.OutputError, curated.Errorf("block payload too long (%d bytes)", len(blk.Payload)))
	}

	err := fr.mod.Bytes(PhaseLeader, []byte{LeaderByte, SyncByte})
	if err != nil {
		return err
	}

	err = fr.mod.Bytes(PhaseFirst, []byte{blk.Kind, byte(len(blk.Payload))})
	if err != nil {
		return err
	}

	body := make([]byte, 0, len(blk.Payload)+1)
	body = append(body, blk.Payload...)
	body = append(body, blk.Checksum())
	err = fr.mod.Bytes(PhaseRest, body)
	if err != nil {
		return err
	}

	return fr.mod.Bytes(PhaseLeader, []byte{LeaderByte})
}
