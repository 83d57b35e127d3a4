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

package binloader

import (
	"github.com/dragontape/bin2cas/tape"
)

// EmitBlocks writes the file to tape: an optional filename block, the
// coalesced segment as data blocks of up to 255 bytes, the end-of-file
// block, and a trailing leader.
//
// When EOFData is set the final chunk of data travels in the EOF block
// itself. When EOF is unset no EOF block is written at all, which is only
// useful when another file follows immediately.
func (fl *File) EmitBlocks(fr *tape.Framer, def *tape.PulseSpec) error {
	fr.SetSpec(fl.Spec(def))

	if fl.FNBlock {
		err := fr.WriteLeader(fl.LeaderCount)
		if err != nil {
			return err
		}
		err = fr.BlockOut(tape.NamefileBlock(fl.Name, fl.Type, tape.EncodingBinary, tape.GapContinuous, fl.Exec, fl.Load))
		if err != nil {
			return err
		}
	}

	err := fr.WriteLeader(fl.LeaderCount)
	if err != nil {
		return err
	}

	data := fl.Segments[0].Data

	for len(data) > int(tape.MaxPayload) {
		err = fr.BlockOut(tape.Block{Kind: tape.KindData, Payload: data[:tape.MaxPayload]})
		if err != nil {
			return err
		}
		data = data[tape.MaxPayload:]
	}

	if fl.EOFData && fl.EOF {
		err = fr.BlockOut(tape.Block{Kind: tape.KindEOF, Payload: data})
		if err != nil {
			return err
		}
	} else {
		if len(data) > 0 {
			err = fr.BlockOut(tape.Block{Kind: tape.KindData, Payload: data})
			if err != nil {
				return err
			}
		}
		if fl.EOF {
			err = fr.BlockOut(tape.Block{Kind: tape.KindEOF})
			if err != nil {
				return err
			}
		}
	}

	return fr.TrailingLeader(fl.LeaderCount)
}
