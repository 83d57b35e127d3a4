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
	"github.com/dragontape/bin2cas/curated"
	"github.com/dragontape/bin2cas/logger"
	"github.com/dragontape/bin2cas/tape"
)

// Decoder instances parse one input container format into a File. Decoders
// only set name, type, load and exec values that have not been set already,
// preserving overrides given on the command line.
type Decoder interface {
	Decode(data []byte, fl *File) error
	String() string
}

// Raw is the Decoder for plain binary files: the whole file is one segment
// at address zero.
type Raw struct{}

func (dec Raw) String() string {
	return "raw"
}

// Decode implements the Decoder interface.
func (dec Raw) Decode(data []byte, fl *File) error {
	fl.Segments = append(fl.Segments, Segment{
		Start: 0,
		Size:  uint32(len(data)),
		Data:  data,
	})
	return nil
}

// DragonDOS is the Decoder for DragonDOS binary files: a nine byte header
// giving type, start, size and exec, followed by the payload.
type DragonDOS struct{}

func (dec DragonDOS) String() string {
	return "dragondos"
}

// Decode implements the Decoder interface.
func (dec DragonDOS) Decode(data []byte, fl *File) error {
	if len(data) < 9 {
		return curated.Errorf(curated.InputError, curated.Errorf("dragondos: file too short for header"))
	}
	if data[0] != 0x55 || data[8] != 0xaa {
		return curated.Errorf(curated.InputError, curated.Errorf("dragondos: bad header magic"))
	}

	if !fl.HasType {
		switch data[1] {
		case 1:
			fl.Type = tape.TypeBASIC
		case 2:
			fl.Type = tape.TypeBinary
		default:
			fl.Type = tape.TypeBinary
		}
		fl.HasType = true
	}

	start := uint16(data[2])<<8 | uint16(data[3])
	size := uint16(data[4])<<8 | uint16(data[5])
	exec := uint16(data[6])<<8 | uint16(data[7])

	payload := data[9:]
	if len(payload) > int(size) {
		payload = payload[:size]
	} else if len(payload) < int(size) {
		logger.Logf("dragondos", "short read: header says %d bytes, file has %d", size, len(payload))
	}

	fl.Segments = append(fl.Segments, Segment{
		Start: start,
		Size:  uint32(len(payload)),
		Data:  payload,
	})

	if !fl.HasLoad {
		fl.Load = start
		fl.HasLoad = true
	}
	if !fl.HasExec {
		fl.Exec = exec
		fl.HasExec = true
	}

	return nil
}

// CoCo is the Decoder for Tandy Color Computer DECB binary files: a stream
// of chunks, each with a type byte, until the exec chunk or end of file.
type CoCo struct{}

func (dec CoCo) String() string {
	return "coco"
}

// Decode implements the Decoder interface.
func (dec CoCo) Decode(data []byte, fl *File) error {
	segments := 0

	for len(data) > 0 {
		tag := data[0]
		data = data[1:]

		switch tag {
		case 0x00:
			if len(data) < 4 {
				logger.Log("coco", "short read in data chunk header")
				return nil
			}
			size := uint16(data[0])<<8 | uint16(data[1])
			start := uint16(data[2])<<8 | uint16(data[3])
			data = data[4:]

			payload := data
			if len(payload) > int(size) {
				payload = payload[:size]
			} else if len(payload) < int(size) {
				logger.Logf("coco", "short read: chunk says %d bytes, file has %d", size, len(payload))
			}
			data = data[len(payload):]

			fl.Segments = append(fl.Segments, Segment{
				Start: start,
				Size:  uint32(len(payload)),
				Data:  payload,
			})
			segments++

			if !fl.HasLoad {
				fl.Load = start
				fl.HasLoad = true
			}

		case 0xff:
			if len(data) < 2 {
				logger.Log("coco", "short read in exec chunk")
				return nil
			}
			size := uint16(data[0])<<8 | uint16(data[1])
			data = data[2:]

			if segments == 0 {
				// an exec chunk with no preceding data chunks is a BASIC
				// program. the "size" field is the program length and there
				// is no exec address
				payload := data
				if len(payload) > int(size) {
					payload = payload[:size]
				} else if len(payload) < int(size) {
					logger.Logf("coco", "short read: basic chunk says %d bytes, file has %d", size, len(payload))
				}
				data = data[len(payload):]

				fl.Segments = append(fl.Segments, Segment{
					Start: 0,
					Size:  uint32(len(payload)),
					Data:  payload,
				})
				segments++

				if !fl.HasType {
					fl.Type = tape.TypeBASIC
					fl.HasType = true
				}
				if !fl.HasExec {
					fl.Exec = 0
					fl.HasExec = true
				}
				continue
			}

			// an exec chunk following binary data should have a zero size.
			// the exec address is read either way
			if size != 0 {
				logger.Logf("coco", "exec chunk with non-zero size (%d)", size)
			}
			if len(data) < 2 {
				logger.Log("coco", "short read in exec address")
				return nil
			}
			exec := uint16(data[0])<<8 | uint16(data[1])

			if !fl.HasExec {
				fl.Exec = exec
				fl.HasExec = true
			}

			// no further data follows the exec chunk
			return nil

		default:
			logger.Logf("coco", "unknown chunk tag (%#02x)", tag)
			return nil
		}
	}

	return nil
}
