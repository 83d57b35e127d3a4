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

package autorun_test

import (
	"bytes"
	"testing"

	"github.com/dragontape/bin2cas/autorun"
	"github.com/dragontape/bin2cas/binloader"
	"github.com/dragontape/bin2cas/tape"
	"github.com/dragontape/bin2cas/test"
)

// a compressed screen image loading high at its zload address, and a
// compressed game with an exec address, the way the CoCo decoder would
// leave it.
func fixture() (*binloader.File, *binloader.File) {
	screen := binloader.NewFile()
	screen.Name = "SCREEN"
	screen.Load = 0x0e00
	screen.HasLoad = true
	screen.Fast = true
	screen.Segments = []binloader.Segment{{
		Start: 0,
		Size:  0x0400,
		Data:  make([]byte, 0x0400),
		Dzip:  true,
		OSize: 0x1800,
	}}

	game := binloader.NewFile()
	game.Name = "GAME"
	game.Load = 0x3000
	game.HasLoad = true
	game.Exec = 0x4e20
	game.HasExec = true
	game.Fast = true
	game.Segments = []binloader.Segment{{
		Start: 0x3000,
		Size:  0x0200,
		Data:  make([]byte, 0x0200),
		Dzip:  true,
		OSize: 0x0800,
	}}

	return screen, game
}

func TestBuildLoader(t *testing.T) {
	screen, game := fixture()

	cmp := autorun.NewComposer("SCREEN", true)
	cmp.Add(autorun.FileStep{File: screen})
	cmp.Add(autorun.SetVDG(8))
	cmp.Add(autorun.SetSAMV(4))
	cmp.Add(autorun.SetSAMF(7))
	cmp.Add(autorun.FileStep{File: game})

	loader, stub, err := cmp.Build()
	test.ExpectSuccess(t, err)

	// the header: name, type, encoding and gap, then the colon that BASIC
	// reads after the hijack, then the stub's load address
	if !bytes.HasPrefix(loader, []byte{
		'S', 'C', 'R', 'E', 'E', 'N', ' ', ' ',
		0x02, 0x00, 0x00,
		':', 0x00,
		0x00, 0xa6,
	}) {
		t.Fatalf("bad loader header: % 02x", loader[:16])
	}

	// fast timing needs the architecture probe and the pulse-width value
	if !bytes.Contains(loader, []byte{0xb6, 0xa0, 0x00, 0x84, 0x20, 0x97, 0x10}) {
		t.Error("architecture probe missing")
	}
	if !bytes.Contains(loader, []byte{0xcc, 0x0c, 0x06}) {
		t.Error("fast pulse-width value missing")
	}

	// the vdg poke
	if !bytes.Contains(loader, []byte{0x86, 0x08, 0xb7, 0xff, 0x22}) {
		t.Error("vdg poke missing")
	}

	// sam-v 4: display mode bits 100, poked from bit 0 up -> clear, clear, set
	if !bytes.Contains(loader, []byte{
		0xb7, 0xff, 0xc0,
		0xb7, 0xff, 0xc2,
		0xb7, 0xff, 0xc5,
	}) {
		t.Error("sam-v pokes missing")
	}

	// sam-f 7: offset bits 0000111 -> set, set, set, clear x4
	if !bytes.Contains(loader, []byte{
		0xb7, 0xff, 0xc7,
		0xb7, 0xff, 0xc9,
		0xb7, 0xff, 0xcb,
		0xb7, 0xff, 0xcc,
		0xb7, 0xff, 0xce,
		0xb7, 0xff, 0xd0,
		0xb7, 0xff, 0xd2,
	}) {
		t.Error("sam-f pokes missing")
	}

	// the screen loads at zload = 0x0e00 + 0x1800 + 1 - 0x0400 = 0x2201
	if !bytes.Contains(loader, []byte{0x8e, 0x22, 0x01}) {
		t.Error("screen zload placement missing")
	}

	// the screen unpack call: ldx #load; ldd #load+size; ldu #oload
	if !bytes.Contains(loader, []byte{
		0x8e, 0x22, 0x01,
		0xcc, 0x26, 0x01,
		0xce, 0x0e, 0x00,
	}) {
		t.Error("screen dunzip call missing")
	}

	// the jump to the game's exec address
	if !bytes.Contains(loader, []byte{0x7e, 0x4e, 0x20}) {
		t.Error("jmp to exec missing")
	}

	// the stub: a pointer to the colon at 0x01e5 and a jump to the loader
	// entry point at 0x01e9
	test.Equate(t, stub, []byte{0x01, 0xe5, 0x7e, 0x01, 0xe9})
}

func TestBuildContainment(t *testing.T) {
	// every symbol the loader references resolves: Build() fails otherwise.
	// the implicit labels are exec, flash_addr and fast_pw
	screen, game := fixture()

	cmp := autorun.NewComposer("SCREEN", true)
	cmp.Add(autorun.FileStep{File: screen})
	cmp.Add(autorun.FileStep{File: game})

	_, _, err := cmp.Build()
	test.ExpectSuccess(t, err)
}

func TestFlasherPatch(t *testing.T) {
	screen, game := fixture()
	screen.Segments[0].Dzip = false
	game.Segments[0].Dzip = false
	screen.Flasher = true

	cmp := autorun.NewComposer("SCREEN", false)
	cmp.Add(autorun.FileStep{File: screen})
	cmp.Add(autorun.FileStep{File: game})

	loader, _, err := cmp.Build()
	test.ExpectSuccess(t, err)

	// the first file turns the flasher on by patching the store opcode in,
	// the second turns it off again
	if !bytes.Contains(loader, []byte{0x86, 0xb7, 0xb7}) {
		t.Error("flasher enable patch missing")
	}
	if !bytes.Contains(loader, []byte{0x86, 0x8c, 0xb7}) {
		t.Error("flasher disable patch missing")
	}

	// the flash snippet itself, with the default flash address
	if !bytes.Contains(loader, []byte{0xb6, 0x04, 0x00, 0x88, 0xff}) {
		t.Error("flash snippet missing")
	}

	// no flasher anywhere: the snippet is left out entirely
	screen.Flasher = false
	cmp = autorun.NewComposer("SCREEN", false)
	cmp.Add(autorun.FileStep{File: screen})
	cmp.Add(autorun.FileStep{File: game})

	loader, _, err = cmp.Build()
	test.ExpectSuccess(t, err)
	if bytes.Contains(loader, []byte{0x88, 0xff}) {
		t.Error("flash snippet present without a flasher step")
	}
}

func TestNoFastSetupForCAS(t *testing.T) {
	screen, game := fixture()
	screen.Segments[0].Dzip = false
	game.Segments[0].Dzip = false

	// fast files but CAS output: the fast-timing setup must not appear
	cmp := autorun.NewComposer("SCREEN", false)
	cmp.Add(autorun.FileStep{File: screen})
	cmp.Add(autorun.FileStep{File: game})

	loader, _, err := cmp.Build()
	test.ExpectSuccess(t, err)

	if bytes.Contains(loader, []byte{0xb6, 0xa0, 0x00}) {
		t.Error("architecture probe present in CAS loader")
	}
}

func TestEmit(t *testing.T) {
	screen, game := fixture()
	screen.Segments[0].Dzip = false
	screen.Fast = false
	game.Segments[0].Dzip = false
	game.Fast = false

	cmp := autorun.NewComposer("SCREEN", false)
	cmp.Add(autorun.FileStep{File: screen})
	cmp.Add(autorun.FileStep{File: game})

	buf := &bytes.Buffer{}
	fr := tape.NewFramer(tape.NewCAS(buf))

	err := cmp.Emit(fr, &tape.ROM)
	test.ExpectSuccess(t, err)

	// the loader travels as an oversized filename block: sync bytes
	// followed by the namefile kind and a length much larger than the
	// standard fifteen bytes
	b := buf.Bytes()
	i := bytes.Index(b, []byte{0x55, 0x3c, 0x00})
	if i < 0 {
		t.Fatal("no namefile block in output")
	}
	if b[i+3] <= 15 {
		t.Errorf("loader block is not oversized (%d bytes)", b[i+3])
	}

	// the files themselves must not have filename blocks: exactly one
	// namefile block in the whole stream
	if bytes.Index(b[i+4:], []byte{0x55, 0x3c, 0x00}) >= 0 {
		t.Error("unexpected second namefile block")
	}
}
