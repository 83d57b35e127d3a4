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

// Package binloader reads binary program images in the raw, DragonDOS and
// CoCo (DECB) container formats and prepares them for tape emission. A
// loaded file holds a list of memory segments; before emission the list is
// coalesced into a single zero-padded segment covering the whole image.
package binloader

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/dragontape/bin2cas/curated"
	"github.com/dragontape/bin2cas/dzip"
	"github.com/dragontape/bin2cas/tape"
)

// the target address space. no segment may extend beyond this
const addressSpace = 0x10000

// Segment is a run of bytes with a target load address. When Dzip is true
// the data is compressed and OSize records the size it unpacks to.
type Segment struct {
	Start uint16
	Size  uint32
	Data  []byte
	Dzip  bool
	OSize uint32
}

// End returns the address one past the last byte of the segment, before any
// compression.
func (seg Segment) End() uint32 {
	return uint32(seg.Start) + seg.Size
}

// File is one input file prepared for tape emission. The Has fields record
// whether the corresponding value was given on the command line or supplied
// by a container header; decoders only fill values that are still unset.
type File struct {
	Name string
	Type byte

	Load  uint16
	Exec  uint16
	ZLoad uint16

	HasType  bool
	HasLoad  bool
	HasExec  bool
	HasZLoad bool

	Segments []Segment

	// per-file emission options
	FNBlock     bool
	EOF         bool
	EOFData     bool
	Fast        bool
	Flasher     bool
	LeaderCount int
}

// NewFile returns a File with the default emission options: a filename
// block, a bare EOF block and the default leader length.
func NewFile() *File {
	return &File{
		Type:        tape.TypeBinary,
		FNBlock:     true,
		EOF:         true,
		LeaderCount: tape.DefaultLeaderCount,
	}
}

// SetNameFromPath fills in the file name from the basename of an input
// path, if a name has not been given already: up to eight characters before
// the first dot, uppercased.
func (fl *File) SetNameFromPath(path string) {
	if fl.Name != "" {
		return
	}

	name := filepath.Base(path)
	if i := strings.Index(name, "."); i >= 0 {
		name = name[:i]
	}
	if len(name) > 8 {
		name = name[:8]
	}
	fl.Name = strings.ToUpper(name)
}

// Spec returns the pulse specification for the file's timing selection.
func (fl *File) Spec(def *tape.PulseSpec) *tape.PulseSpec {
	if fl.Fast {
		return &tape.Fast
	}
	return def
}

// Coalesce merges the file's segments into a single contiguous segment.
// Segments are sorted by start address; gaps between them are zero-filled.
// Overlapping segments and images extending past the 64KiB address space
// are errors. An empty segment list coalesces to one empty segment at
// address zero.
func (fl *File) Coalesce() error {
	if len(fl.Segments) == 0 {
		fl.Segments = []Segment{{}}
		return nil
	}
	if len(fl.Segments) == 1 {
		if fl.Segments[0].End() > addressSpace {
			return curated.Errorf(curated.SegmentError, curated.Errorf("segment extends past the end of memory"))
		}
		return nil
	}

	sort.SliceStable(fl.Segments, func(i, j int) bool {
		return fl.Segments[i].Start < fl.Segments[j].Start
	})

	start := fl.Segments[0].Start
	data := make([]byte, 0)
	end := uint32(start)

	for _, seg := range fl.Segments {
		if uint32(seg.Start) < end {
			return curated.Errorf(curated.SegmentError, curated.Errorf("overlapping segments at %#04x", seg.Start))
		}
		if seg.End() > addressSpace {
			return curated.Errorf(curated.SegmentError, curated.Errorf("segment extends past the end of memory"))
		}

		// zero-fill the gap up to the start of this segment
		for end < uint32(seg.Start) {
			data = append(data, 0)
			end++
		}

		data = append(data, seg.Data...)
		end += seg.Size
	}

	fl.Segments = []Segment{{
		Start: start,
		Size:  end - uint32(start),
		Data:  data,
	}}

	return nil
}

// Crunch passes the coalesced segment through the external compressor. On
// success the segment holds the compressed bytes and remembers the original
// size for the in-place unpacker.
func (fl *File) Crunch(t dzip.Transform) error {
	seg := &fl.Segments[0]

	crunched, err := t.Compress(seg.Data)
	if err != nil {
		return err
	}

	seg.Dzip = true
	seg.OSize = seg.Size
	seg.Data = crunched
	seg.Size = uint32(len(crunched))

	return nil
}
