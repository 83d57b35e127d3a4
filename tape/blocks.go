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
	"fmt"
	"strings"
)

// List of valid block kinds. The kind byte follows the sync sequence on
// tape.
const (
	KindNamefile = 0x00
	KindData     = 0x01
	KindEOF      = 0xff
)

// The two bytes that precede every block. A run of LeaderByte values lets
// the ROM loader lock its bit timing; the sync byte marks the start of the
// block header.
const (
	LeaderByte = 0x55
	SyncByte   = 0x3c
)

// Values for the file type field of a filename block.
const (
	TypeBASIC  = 0x00
	TypeData   = 0x01
	TypeBinary = 0x02
)

// Values for the encoding field of a filename block.
const (
	EncodingBinary = 0x00
	EncodingASCII  = 0xff
)

// Values for the gap field of a filename block. A gapped file has a leader
// before every block.
const (
	GapContinuous = 0x00
	GapGapped     = 0xff
)

// MaxPayload is the longest payload a single block can carry. The length
// field is a single byte.
const MaxPayload = 255

// Block is a single tape block before framing. The checksum and the framing
// bytes around the payload are produced at emit time by the Framer.
type Block struct {
	Kind    byte
	Payload []byte
}

// Checksum implements the block checksum rule: the kind byte, the length
// byte and every payload byte summed modulo 256.
func (blk Block) Checksum() byte {
	c := blk.Kind + byte(len(blk.Payload))
	for _, b := range blk.Payload {
		c += b
	}
	return c
}

func (blk Block) String() string {
	switch blk.Kind {
	case KindNamefile:
		return fmt.Sprintf("namefile block (%d bytes)", len(blk.Payload))
	case KindData:
		return fmt.Sprintf("data block (%d bytes)", len(blk.Payload))
	case KindEOF:
		return fmt.Sprintf("eof block (%d bytes)", len(blk.Payload))
	}
	return fmt.Sprintf("unknown block kind (%#02x)", blk.Kind)
}

// NamefileBlock builds the standard 15 byte filename block payload: the
// name space-padded to eight characters; the type, encoding and gap fields;
// and the big-endian exec and load addresses.
func NamefileBlock(name string, ftype byte, encoding byte, gap byte, exec uint16, load uint16) Block {
	if len(name) > 8 {
		name = name[:8]
	}
	name = name + strings.Repeat(" ", 8-len(name))

	payload := make([]byte, 0, 15)
	payload = append(payload, []byte(name)...)
	payload = append(payload, ftype, encoding, gap)
	payload = append(payload, byte(exec>>8), byte(exec))
	payload = append(payload, byte(load>>8), byte(load))

	return Block{Kind: KindNamefile, Payload: payload}
}
