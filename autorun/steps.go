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

package autorun

import (
	"fmt"

	"github.com/dragontape/bin2cas/binloader"
)

// Step is one entry in the autorun sequence: either a file to load or a
// directive that pokes the video hardware between loads.
type Step interface {
	String() string
}

// FileStep loads one prepared file.
type FileStep struct {
	File *binloader.File
}

func (s FileStep) String() string {
	return fmt.Sprintf("load %s", s.File.Name)
}

// SetVDG writes a display mode to the video display generator.
type SetVDG uint8

func (s SetVDG) String() string {
	return fmt.Sprintf("vdg %#02x", uint8(s))
}

// SetSAMV writes the display mode bits of the synchronous address
// multiplexer.
type SetSAMV uint8

func (s SetSAMV) String() string {
	return fmt.Sprintf("sam-v %#02x", uint8(s))
}

// SetSAMF writes the display offset bits of the synchronous address
// multiplexer. The offset also decides which memory cell the cursor
// flasher blinks.
type SetSAMF uint8

func (s SetSAMF) String() string {
	return fmt.Sprintf("sam-f %#02x", uint8(s))
}

// SetLDS points the system stack somewhere safe before loading over it.
type SetLDS uint16

func (s SetLDS) String() string {
	return fmt.Sprintf("lds %#04x", uint16(s))
}
