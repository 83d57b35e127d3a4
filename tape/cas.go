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
	"io"

	"github.com/dragontape/bin2cas/curated"
)

// number of leader bytes standing in for the silence prelude in a CAS file.
// the format has no way of expressing quiet tape.
const casSilenceBytes = 94

// CAS is the Modulator for cassette-data files. There is no audio encoding:
// framed bytes pass through to the output unmodified and pulse
// specifications are ignored.
type CAS struct {
	w io.Writer
}

// NewCAS is the preferred method of initialisation for the CAS type.
func NewCAS(w io.Writer) *CAS {
	return &CAS{w: w}
}

// SetSpec implements the Modulator interface. A CAS file carries no timing
// so the specification is discarded.
func (cas *CAS) SetSpec(_ *PulseSpec) {
}

// Bytes implements the Modulator interface.
func (cas *CAS) Bytes(_ Phase, b []byte) error {
	_, err := cas.w.Write(b)
	if err != nil {
		return curated.Errorf(curated.OutputError, err)
	}
	return nil
}

// Silence implements the Modulator interface. Silence cannot be represented
// in a CAS file so a short run of leader bytes is written instead.
func (cas *CAS) Silence() error {
	filler := make([]byte, casSilenceBytes)
	for i := range filler {
		filler[i] = LeaderByte
	}
	return cas.Bytes(PhaseLeader, filler)
}
