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

// Package asm6809 is a minimal two-phase assembler for position-dependent
// 6809 machine code. There is no mnemonic table: programs are sequences of
// opcode bytes and symbolic tokens. The emit phase accumulates bytes and
// records relocations; the link phase patches them once every label is
// known.
//
// A token is one of:
//
//	0x86          a literal byte
//	"loop"        declare the label "loop" at the current program counter
//	"<sym"        one placeholder byte, patched with the low byte of sym
//	">sym"        two placeholder bytes, patched with sym big-endian
//	"&<sym"       as "<sym" but relative to the pc after the placeholder
//	"&>sym"       as ">sym" but relative to the pc after the placeholder
//
// The relative forms are for branch operands, which the 6809 counts from
// the address of the following instruction.
//
// Labels may be referenced before they are declared; resolution waits for
// Link(). The label table survives Org() so that separately linked blobs
// can reference one another. Linking is idempotent.
package asm6809

import (
	"strings"

	"github.com/dragontape/bin2cas/curated"
)

type reloc struct {
	// the symbolic token as emitted, prefixes included
	token string

	// the program counter after the placeholder bytes. relative values are
	// computed against this address
	pc uint16
}

// width and name of a symbolic token.
func (r reloc) parse() (size int, relative bool, name string) {
	t := r.token
	if strings.HasPrefix(t, "&") {
		relative = true
		t = t[1:]
	}
	if strings.HasPrefix(t, ">") {
		size = 2
	} else {
		size = 1
	}
	name = t[1:]
	return size, relative, name
}

// Assembler accumulates one code blob at a time. Org() begins a new blob;
// the label table is shared between blobs.
type Assembler struct {
	org    uint16
	pc     uint16
	labels map[string]uint16
	relocs []reloc
	data   []byte
}

// New is the preferred method of initialisation for the Assembler type.
func New() *Assembler {
	return &Assembler{
		labels: make(map[string]uint16),
	}
}

// Org begins a new code blob at the given address. The program counter,
// data and relocation list reset; the label table does not.
func (asm *Assembler) Org(addr uint16) {
	asm.org = addr
	asm.pc = addr
	asm.relocs = nil
	asm.data = nil
}

// PC returns the current program counter.
func (asm *Assembler) PC() uint16 {
	return asm.pc
}

// Origin returns the address of the current blob.
func (asm *Assembler) Origin() uint16 {
	return asm.org
}

// SetLabel declares a label at an arbitrary address. Used for values that
// exist outside the assembled code, the exec address of a loaded program
// for example.
func (asm *Assembler) SetLabel(name string, addr uint16) {
	asm.labels[name] = addr
}

// Label returns the address of a declared label.
func (asm *Assembler) Label(name string) (uint16, bool) {
	addr, ok := asm.labels[name]
	return addr, ok
}

// Emit appends tokens to the current blob. Integer tokens are literal
// bytes. String tokens declare labels or emit placeholder bytes for the
// linker, as described in the package documentation.
func (asm *Assembler) Emit(tokens ...interface{}) error {
	for _, tok := range tokens {
		switch t := tok.(type) {
		case int:
			asm.data = append(asm.data, byte(t))
			asm.pc++

		case byte:
			asm.data = append(asm.data, t)
			asm.pc++

		case string:
			if strings.HasPrefix(t, "<") || strings.HasPrefix(t, ">") || strings.HasPrefix(t, "&") {
				r := reloc{token: t}
				size, _, name := r.parse()
				if name == "" {
					return curated.Errorf(curated.AssemblyError, curated.Errorf("empty symbol in token %q", t))
				}
				for i := 0; i < size; i++ {
					asm.data = append(asm.data, 0)
				}
				asm.pc += uint16(size)
				r.pc = asm.pc
				asm.relocs = append(asm.relocs, r)
				continue
			}

			// a bare string declares a label at the current pc
			if t == "" || t[0] < 'a' || t[0] > 'z' {
				return curated.Errorf(curated.AssemblyError, curated.Errorf("bad label name %q", t))
			}
			asm.labels[t] = asm.pc

		default:
			return curated.Errorf(curated.AssemblyError, curated.Errorf("unsupported token type %T", t))
		}
	}

	return nil
}

// Link resolves every relocation in the current blob. Missing labels are an
// error. Linking more than once gives the same result.
func (asm *Assembler) Link() error {
	for _, r := range asm.relocs {
		size, relative, name := r.parse()

		addr, ok := asm.labels[name]
		if !ok {
			return curated.Errorf(curated.AssemblyError, curated.Errorf("undefined label %q", name))
		}

		value := addr
		if relative {
			value = addr - r.pc
		}

		offset := int(r.pc) - size - int(asm.org)
		if size == 1 {
			asm.data[offset] = byte(value)
		} else {
			asm.data[offset] = byte(value >> 8)
			asm.data[offset+1] = byte(value)
		}
	}

	return nil
}

// Bytes returns a copy of the current blob.
func (asm *Assembler) Bytes() []byte {
	b := make([]byte, len(asm.data))
	copy(b, asm.data)
	return b
}

// References returns the symbol names of the current blob's relocations.
func (asm *Assembler) References() []string {
	refs := make([]string, 0, len(asm.relocs))
	for _, r := range asm.relocs {
		_, _, name := r.parse()
		refs = append(refs, name)
	}
	return refs
}
