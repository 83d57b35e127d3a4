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

// Package autorun synthesizes the self-contained 6809 loader that makes a
// tape start itself. The loader is carried inside an oversized filename
// block: the ROM reads the block into the cassette buffer, consuming the
// first fifteen bytes as an ordinary file header, and the rest of the block
// is the loader code sitting in the buffer ready to run.
//
// The header's load address points a tiny second block at the BASIC
// interpreter's input pointer. When the ROM finishes loading, the pointer
// aims at a colon hidden inside the file header, BASIC carries on as if
// nothing happened, and the statement it finds next jumps into the loader.
package autorun

import (
	"github.com/dragontape/bin2cas/asm6809"
	"github.com/dragontape/bin2cas/binloader"
	"github.com/dragontape/bin2cas/curated"
	"github.com/dragontape/bin2cas/logger"
	"github.com/dragontape/bin2cas/tape"
)

// the cassette buffer, where the ROM places filename block contents.
const loaderOrigin = 0x01da

// the BASIC interpreter's input pointer. the hijack stub loads here.
const stubOrigin = 0x00a6

// the flash cell when the SAM display offset has not been moved.
const defaultFlashAddr = 0x0400

// Composer accumulates autorun steps and emits the assembled loader
// followed by every file's data blocks.
type Composer struct {
	name  string
	wav   bool
	steps []Step
}

// NewComposer is the preferred method of initialisation for the Composer
// type. The name appears in the loader's filename block. The wav flag
// enables the fast-timing setup code, which has no meaning in a CAS file.
func NewComposer(name string, wav bool) *Composer {
	return &Composer{
		name: name,
		wav:  wav,
	}
}

// Add a step to the autorun sequence.
func (cmp *Composer) Add(s Step) {
	cmp.steps = append(cmp.steps, s)
}

// Steps returns the accumulated steps.
func (cmp *Composer) Steps() []Step {
	return cmp.steps
}

// load placement for a file step. compressed parts load high so the
// unpacker can expand them downwards in place.
func placement(fl *binloader.File) (load uint16, size uint32, oload uint16, osize uint32) {
	seg := fl.Segments[0]

	oload = seg.Start
	if fl.HasLoad {
		oload = fl.Load
	}
	size = seg.Size

	if !seg.Dzip {
		return oload, size, oload, size
	}

	osize = seg.OSize
	if fl.HasZLoad {
		load = fl.ZLoad
	} else {
		load = oload + uint16(osize) + 1 - uint16(size)
	}
	return load, size, oload, osize
}

// Build assembles and links the main loader and the hijack stub. The two
// blobs are linked independently but share one label table.
func (cmp *Composer) Build() (loader []byte, stub []byte, err error) {
	asm := asm6809.New()
	asm.SetLabel("fast_pw", tape.FastPW)
	asm.SetLabel("flash_addr", defaultFlashAddr)

	anyFast := false
	anyDzip := false
	anyFlasher := false
	for _, s := range cmp.steps {
		if fs, ok := s.(FileStep); ok {
			anyFast = anyFast || fs.File.Fast
			anyDzip = anyDzip || fs.File.Segments[0].Dzip
			anyFlasher = anyFlasher || fs.File.Flasher
		}
	}

	asm.Org(loaderOrigin)

	// the filename block header. the ROM consumes these fifteen bytes as a
	// file header; the last four double as data for the BASIC hijack
	name := cmp.name
	if len(name) > 8 {
		name = name[:8]
	}
	for i := 0; i < 8; i++ {
		if i < len(name) {
			err = asm.Emit(int(name[i]))
		} else {
			err = asm.Emit(int(' '))
		}
		if err != nil {
			return nil, nil, err
		}
	}
	err = asm.Emit(
		tape.TypeBinary, tape.EncodingBinary, tape.GapContinuous,
		// exec address slot: the ':' is what BASIC reads after the hijack
		"colon", int(':'), 0x00,
		// load address slot: the hijack stub loads over the input pointer
		int(stubOrigin>>8), int(stubOrigin&0xff),
	)
	if err != nil {
		return nil, nil, err
	}

	// entry point. the hijacked statement jumps here
	err = asm.Emit("exec_loader")
	if err != nil {
		return nil, nil, err
	}

	if anyFast && cmp.wav {
		err = cmp.fastSetup(asm)
		if err != nil {
			return nil, nil, err
		}
	}

	err = cmp.stepCode(asm)
	if err != nil {
		return nil, nil, err
	}

	err = cmp.loadPart(asm, anyFlasher)
	if err != nil {
		return nil, nil, err
	}

	if anyDzip {
		err = cmp.dunzip(asm)
		if err != nil {
			return nil, nil, err
		}
	}

	err = asm.Link()
	if err != nil {
		return nil, nil, err
	}
	loader = asm.Bytes()

	// the hijack stub: the new value for the input pointer, then a jump
	// for the statement it points into
	asm.Org(stubOrigin)
	err = asm.Emit(">colon", 0x7e, ">exec_loader")
	if err != nil {
		return nil, nil, err
	}
	err = asm.Link()
	if err != nil {
		return nil, nil, err
	}
	stub = asm.Bytes()

	logger.Logf("autorun", "loader is %d bytes, %d steps", len(loader), len(cmp.steps))

	return loader, stub, nil
}

// architecture probe and pulse-width reprogramming for fast timing. bit 5
// of the ROM byte at $a000 separates Dragon from CoCo; the pulse-width
// constants live at different direct-page addresses on the two machines.
func (cmp *Composer) fastSetup(asm *asm6809.Assembler) error {
	return asm.Emit(
		0xb6, 0xa0, 0x00, // lda >$a000
		0x84, 0x20, // anda #$20
		0x97, 0x10, // sta <$10
		0xcc, ">fast_pw", // ldd #fast_pw
		0x0d, 0x10, // tst <$10
		0x26, "&<fast_coco", // bne fast_coco
		0x97, 0x8f, // sta <$8f
		0xd7, 0x90, // stb <$90
		0x20, "&<fast_done", // bra fast_done
		"fast_coco",
		0x97, 0x92, // sta <$92
		0xd7, 0x94, // stb <$94
		"fast_done",
	)
}

// code for the step sequence: video pokes, stack moves and one load (and
// possibly unpack) call per file.
func (cmp *Composer) stepCode(asm *asm6809.Assembler) error {
	prevVDG := -1
	prevSAMV := -1
	prevSAMF := -1
	flasherOn := false
	lastExec := uint16(0)

	for _, s := range cmp.steps {
		var err error

		switch step := s.(type) {
		case SetVDG:
			v := int(step) & 0xf8
			if v == prevVDG {
				continue
			}
			prevVDG = v
			err = asm.Emit(
				0x86, v, // lda #mode
				0xb7, 0xff, 0x22, // sta >$ff22
			)

		case SetSAMV:
			// one poke per display-mode bit that changes. even addresses
			// clear a bit, odd addresses set it. the first directive pokes
			// every bit because the machine state is unknown
			for bit := 0; bit < 3; bit++ {
				v := (int(step) >> bit) & 0x01
				if prevSAMV >= 0 && v == (prevSAMV>>bit)&0x01 {
					continue
				}
				err = asm.Emit(0xb7, 0xff, 0xc0+2*bit+v) // sta >$ffcx
				if err != nil {
					return err
				}
			}
			prevSAMV = int(step)
			continue

		case SetSAMF:
			for bit := 0; bit < 7; bit++ {
				v := (int(step) >> bit) & 0x01
				if prevSAMF >= 0 && v == (prevSAMF>>bit)&0x01 {
					continue
				}
				err = asm.Emit(0xb7, 0xff, 0xc6+2*bit+v) // sta >$ffcx
				if err != nil {
					return err
				}
			}
			prevSAMF = int(step)
			asm.SetLabel("flash_addr", uint16(int(step)&0x7f)*512)
			continue

		case SetLDS:
			err = asm.Emit(0x10, 0xce, int(step)>>8, int(step)&0xff) // lds #v

		case FileStep:
			fl := step.File
			load, size, oload, _ := placement(fl)

			if fl.Flasher != flasherOn {
				flasherOn = fl.Flasher
				opcode := 0x8c // cmpx#: flasher store disabled
				if flasherOn {
					opcode = 0xb7 // sta extended: flasher store enabled
				}
				err = asm.Emit(
					0x86, opcode, // lda #opcode
					0xb7, ">mod_flash", // sta >mod_flash
				)
				if err != nil {
					return err
				}
			}

			err = asm.Emit(
				0x8e, int(load>>8), int(load&0xff), // ldx #load
				0x8d, "&<load_part", // bsr load_part
			)
			if err != nil {
				return err
			}

			if fl.Segments[0].Dzip {
				end := load + uint16(size)
				err = asm.Emit(
					0x8e, int(load>>8), int(load&0xff), // ldx #load
					0xcc, int(end>>8), int(end&0xff), // ldd #load+size
					0xce, int(oload>>8), int(oload&0xff), // ldu #oload
					0x8d, "&<dunzip", // bsr dunzip
				)
			}

			if fl.HasExec {
				lastExec = fl.Exec
			}
		}

		if err != nil {
			return err
		}
	}

	asm.SetLabel("exec", lastExec)
	return asm.Emit(0x7e, ">exec") // jmp >exec
}

// the loader core. reads blocks through the ROM's cassette vectors until
// an EOF block, turning the motor off on the way out. the flash snippet is
// only assembled when some step wants the cursor flasher; its store opcode
// is patched by the step code to switch the flashing on and off.
func (cmp *Composer) loadPart(asm *asm6809.Assembler, flasher bool) error {
	err := asm.Emit(
		"load_part",
		0xad, 0x9f, 0xa0, 0x04, // jsr [>$a004]  CSRDON
		"l0",
		0x9f, 0x7e, // stx <$7e      block load address
	)
	if err != nil {
		return err
	}

	if flasher {
		err = asm.Emit(
			0xb6, ">flash_addr", // lda >flash_addr
			0x88, 0xff, // eora #$ff
			"mod_flash",
			0xb7, ">flash_addr", // sta >flash_addr (or cmpx # when patched off)
		)
		if err != nil {
			return err
		}
	}

	err = asm.Emit(
		0xad, 0x9f, 0xa0, 0x06, // jsr [>$a006]  BLKIN
		0x26, "&<io_error", // bne io_error
		0x96, 0x7c, // lda <$7c      block type
		0x4c, // inca          $ff (EOF) becomes zero
		0x26, "&<l0", // bne l0
		0xb6, 0xff, 0x21, // lda >$ff21    cassette motor off
		0x84, 0xf7, // anda #$f7
		0xb7, 0xff, 0x21, // sta >$ff21
		0x39, // rts
	)
	if err != nil {
		return err
	}

	err = asm.Emit(
		"io_error",
		0xb6, 0xff, 0x21, // lda >$ff21    motor off before complaining
		0x84, 0xf7, // anda #$f7
		0xb7, 0xff, 0x21, // sta >$ff21
		0x8e, ">io_str", // ldx #io_str
		"io_print",
		0xa6, 0x80, // lda ,x+
		0x27, "&<io_halt", // beq io_halt
		0xad, 0x9f, 0xa0, 0x02, // jsr [>$a002]  OUTCH
		0x20, "&<io_print", // bra io_print
		"io_halt",
		0x20, "&<io_halt", // bra io_halt
	)
	if err != nil {
		return err
	}

	err = asm.Emit("io_str")
	if err != nil {
		return err
	}
	for _, c := range []byte("I/O ERROR") {
		err = asm.Emit(int(c))
		if err != nil {
			return err
		}
	}
	return asm.Emit(0x00)
}

// the in-place unpacker. on entry X is the compressed data, D is its end
// and U is where the unpacked data goes. groups start with two bytes read
// into A and B; the sign of B picks between a literal run and the two
// back-reference encodings.
func (cmp *Composer) dunzip(asm *asm6809.Assembler) error {
	return asm.Emit(
		"dunzip",
		0xdd, 0x76, // std <$76      end of compressed data
		"du_next",
		0x9c, 0x76, // cmpx <$76
		0x27, "&<du_ret", // beq du_ret
		0xec, 0x81, // ldd ,x++
		0x5d, // tstb
		0x2b, "&<du_ref", // bmi du_ref

		// literal run of d+1 bytes
		0xc3, 0x00, 0x01, // addd #1
		0x1f, 0x02, // tfr d,y
		"du_lit",
		0xa6, 0x80, // lda ,x+
		0xa7, 0xc0, // sta ,u+
		0x31, 0x3f, // leay -1,y
		0x26, "&<du_lit", // bne du_lit
		0x20, "&<du_next", // bra du_next

		"du_ref",
		0x4d, // tsta
		0x2b, "&<du_long", // bmi du_long

		// 7+7: offset in b, count in a
		0x34, 0x02, // pshs a
		0xc4, 0x7f, // andb #$7f
		0x4f, // clra
		0xdd, 0x78, // std <$78      offset
		0x35, 0x02, // puls a
		0x8b, 0x02, // adda #2
		0x97, 0x7a, // sta <$7a      count
		0x20, "&<du_copy", // bra du_copy

		// 14+8: offset in a:b, count in a following byte
		"du_long",
		0x84, 0x3f, // anda #$3f
		0xdd, 0x78, // std <$78      offset
		0xa6, 0x80, // lda ,x+
		0x8b, 0x02, // adda #2
		0x97, 0x7a, // sta <$7a      count

		"du_copy",
		0x34, 0x10, // pshs x
		0x1f, 0x30, // tfr u,d
		0x93, 0x78, // subd <$78
		0x1f, 0x01, // tfr d,x
		"du_copy_l",
		0xa6, 0x80, // lda ,x+
		0xa7, 0xc0, // sta ,u+
		0x0a, 0x7a, // dec <$7a
		0x26, "&<du_copy_l", // bne du_copy_l
		0x35, 0x10, // puls x
		0x20, "&<du_next", // bra du_next

		"du_ret",
		0x39, // rts
	)
}

// Emit assembles the loader and writes the whole autorun programme to tape:
// the loader as an oversized filename block, the hijack stub as an EOF
// block with payload, then every file's data blocks.
func (cmp *Composer) Emit(fr *tape.Framer, def *tape.PulseSpec) error {
	loader, stub, err := cmp.Build()
	if err != nil {
		return err
	}

	if len(loader) > tape.MaxPayload {
		return curated.Errorf(curated.AssemblyError, curated.Errorf("loader too large for a single block (%d bytes)", len(loader)))
	}

	// the loader and stub are read by the unmodified ROM so they always use
	// the default timing
	fr.SetSpec(def)

	err = fr.WriteLeader(tape.DefaultLeaderCount)
	if err != nil {
		return err
	}
	err = fr.BlockOut(tape.Block{Kind: tape.KindNamefile, Payload: loader})
	if err != nil {
		return err
	}
	err = fr.BlockOut(tape.Block{Kind: tape.KindEOF, Payload: stub})
	if err != nil {
		return err
	}

	for _, s := range cmp.steps {
		fs, ok := s.(FileStep)
		if !ok {
			continue
		}

		// the loader supplies load addresses itself. a filename block would
		// only confuse the ROM, which is done loading by now
		fs.File.FNBlock = false

		err = fs.File.EmitBlocks(fr, def)
		if err != nil {
			return err
		}
	}

	return nil
}
