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

package asm6809_test

import (
	"testing"

	"github.com/dragontape/bin2cas/asm6809"
	"github.com/dragontape/bin2cas/test"
)

func TestLiteralBytes(t *testing.T) {
	asm := asm6809.New()
	asm.Org(0x1000)

	err := asm.Emit(0x86, 0x41, 0x39)
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, asm.Link())

	test.Equate(t, asm.Bytes(), []byte{0x86, 0x41, 0x39})
	test.Equate(t, asm.PC(), 0x1003)
}

func TestAbsoluteRelocations(t *testing.T) {
	asm := asm6809.New()
	asm.Org(0x2000)

	// a forward reference to "target" in both widths
	err := asm.Emit(
		0x7e, ">target", // jmp >target
		"<target", // low byte only
		"target",
		0x39, // rts
	)
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, asm.Link())

	// target is declared at 0x2004
	test.Equate(t, asm.Bytes(), []byte{0x7e, 0x20, 0x04, 0x04, 0x39})
}

func TestRelativeRelocations(t *testing.T) {
	asm := asm6809.New()
	asm.Org(0x1000)

	err := asm.Emit(
		"loop",
		0x12,             // nop
		0x20, "&<loop",   // bra loop: -3 from the following address
		0x16, "&>escape", // lbra escape
		"escape",
	)
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, asm.Link())

	test.Equate(t, asm.Bytes(), []byte{0x12, 0x20, 0xfd, 0x16, 0x00, 0x00})
}

func TestBackwardRelative(t *testing.T) {
	asm := asm6809.New()
	asm.Org(0x0100)

	// a branch-to-self has a relative offset of -2
	err := asm.Emit("halt", 0x20, "&<halt")
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, asm.Link())

	test.Equate(t, asm.Bytes(), []byte{0x20, 0xfe})
}

func TestLinkIdempotent(t *testing.T) {
	asm := asm6809.New()
	asm.Org(0x1000)

	err := asm.Emit(0x8e, ">data", "data", 0x01, 0x02)
	test.ExpectSuccess(t, err)

	test.ExpectSuccess(t, asm.Link())
	once := asm.Bytes()
	test.ExpectSuccess(t, asm.Link())
	twice := asm.Bytes()

	test.Equate(t, once, twice)
}

func TestUndefinedLabel(t *testing.T) {
	asm := asm6809.New()
	asm.Org(0x1000)

	err := asm.Emit(0x7e, ">nowhere")
	test.ExpectSuccess(t, err)
	test.ExpectFailure(t, asm.Link())
}

func TestLabelsSurviveOrg(t *testing.T) {
	asm := asm6809.New()

	asm.Org(0x01da)
	err := asm.Emit("entry", 0x39)
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, asm.Link())

	// a second blob can reference labels from the first
	asm.Org(0x00a6)
	err = asm.Emit(">entry")
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, asm.Link())

	test.Equate(t, asm.Bytes(), []byte{0x01, 0xda})
}

func TestSetLabel(t *testing.T) {
	asm := asm6809.New()
	asm.SetLabel("exec", 0x4e20)
	asm.Org(0x1000)

	err := asm.Emit(0x7e, ">exec")
	test.ExpectSuccess(t, err)
	test.ExpectSuccess(t, asm.Link())

	test.Equate(t, asm.Bytes(), []byte{0x7e, 0x4e, 0x20})
}

func TestBadTokens(t *testing.T) {
	asm := asm6809.New()
	asm.Org(0x1000)

	// labels must start with a lowercase letter
	test.ExpectFailure(t, asm.Emit("Loop"))

	// an empty symbol is meaningless
	test.ExpectFailure(t, asm.Emit(">"))

	test.ExpectFailure(t, asm.Emit(3.14))
}
