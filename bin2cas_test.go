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

package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/dragontape/bin2cas/test"
)

// leader length in a CAS file: the silence stand-in plus the leader proper.
const casLeader = 94 + 256

func leaderBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = 0x55
	}
	return b
}

func TestRawToCAS(t *testing.T) {
	dir := t.TempDir()

	in := filepath.Join(dir, "hello.bin")
	err := os.WriteFile(in, []byte{0x48, 0x49}, 0600)
	test.ExpectSuccess(t, err)

	out := filepath.Join(dir, "out.cas")
	code := run([]string{"-o", out, "-B", "-l", "0x1000", "-e", "0x1000", "-n", "HI", in}, io.Discard)
	test.Equate(t, code, 0)

	got, err := os.ReadFile(out)
	test.ExpectSuccess(t, err)

	expected := make([]byte, 0)

	// filename block
	expected = append(expected, leaderBytes(casLeader)...)
	expected = append(expected, 0x55, 0x3c, 0x00, 0x0f)
	expected = append(expected, 'H', 'I', ' ', ' ', ' ', ' ', ' ', ' ')
	expected = append(expected, 0x02, 0x00, 0x00)
	expected = append(expected, 0x10, 0x00) // exec
	expected = append(expected, 0x10, 0x00) // load
	expected = append(expected, 0x82, 0x55)

	// data block
	expected = append(expected, leaderBytes(casLeader)...)
	expected = append(expected, 0x55, 0x3c, 0x01, 0x02, 0x48, 0x49, 0x94, 0x55)

	// eof block and trailing leader
	expected = append(expected, 0x55, 0x3c, 0xff, 0x00, 0xff, 0x55)
	expected = append(expected, leaderBytes(256)...)

	test.Equate(t, got, expected)
}

func TestVersionAndHelp(t *testing.T) {
	test.Equate(t, run([]string{"--version"}, io.Discard), 0)
	test.Equate(t, run([]string{"--help"}, io.Discard), 0)
}

func TestUsageErrors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.bin")
	err := os.WriteFile(in, []byte{0x00}, 0600)
	test.ExpectSuccess(t, err)

	// missing output file
	test.Equate(t, run([]string{in}, io.Discard), 1)

	// unknown option
	test.Equate(t, run([]string{"-o", "x.cas", "--frobnicate", in}, io.Discard), 1)

	// unknown timing name
	test.Equate(t, run([]string{"-o", "x.cas", "-t", "warp", in}, io.Discard), 1)

	// fast timing makes no sense in a file format without timing
	out := filepath.Join(dir, "x.cas")
	test.Equate(t, run([]string{"-o", out, "--fast", in}, io.Discard), 1)

	// no input files
	test.Equate(t, run([]string{"-o", out}, io.Discard), 1)

	// format cannot be inferred from the extension
	test.Equate(t, run([]string{"-o", filepath.Join(dir, "x.tap"), in}, io.Discard), 1)

	// input file does not exist
	test.Equate(t, run([]string{"-o", out, filepath.Join(dir, "missing.bin")}, io.Discard), 1)
}

func TestStickyOptions(t *testing.T) {
	dir := t.TempDir()

	a := filepath.Join(dir, "a.bin")
	err := os.WriteFile(a, []byte{0x01}, 0600)
	test.ExpectSuccess(t, err)
	b := filepath.Join(dir, "b.bin")
	err = os.WriteFile(b, []byte{0x02}, 0600)
	test.ExpectSuccess(t, err)

	out := filepath.Join(dir, "out.cas")
	code := run([]string{"-o", out, "-B", "--leader", "4", "-n", "FIRST", "-l", "0x1000", a, b}, io.Discard)
	test.Equate(t, code, 0)

	got, err := os.ReadFile(out)
	test.ExpectSuccess(t, err)

	// the leader override sticks to both files but the name does not: the
	// second file falls back to its basename
	expected := make([]byte, 0)

	expected = append(expected, leaderBytes(94+4)...)
	fnb := []byte{0x55, 0x3c, 0x00, 0x0f, 'F', 'I', 'R', 'S', 'T', ' ', ' ', ' ', 0x02, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00}
	fnb = append(fnb, checksum(fnb[2:]), 0x55)
	expected = append(expected, fnb...)
	expected = append(expected, leaderBytes(94+4)...)
	expected = append(expected, 0x55, 0x3c, 0x01, 0x01, 0x01, 0x03, 0x55)
	expected = append(expected, 0x55, 0x3c, 0xff, 0x00, 0xff, 0x55)
	expected = append(expected, leaderBytes(4)...)

	expected = append(expected, leaderBytes(94+4)...)
	fnb = []byte{0x55, 0x3c, 0x00, 0x0f, 'B', ' ', ' ', ' ', ' ', ' ', ' ', ' ', 0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	fnb = append(fnb, checksum(fnb[2:]), 0x55)
	expected = append(expected, fnb...)
	expected = append(expected, leaderBytes(94+4)...)
	expected = append(expected, 0x55, 0x3c, 0x01, 0x01, 0x02, 0x04, 0x55)
	expected = append(expected, 0x55, 0x3c, 0xff, 0x00, 0xff, 0x55)
	expected = append(expected, leaderBytes(4)...)

	test.Equate(t, got, expected)
}

func TestRawToWAV(t *testing.T) {
	dir := t.TempDir()

	in := filepath.Join(dir, "hello.bin")
	err := os.WriteFile(in, []byte{0x48, 0x49}, 0600)
	test.ExpectSuccess(t, err)

	out := filepath.Join(dir, "out.wav")
	code := run([]string{"-o", out, "-B", "-l", "0x1000", "-e", "0x1000", in}, io.Discard)
	test.Equate(t, code, 0)

	f, err := os.Open(out)
	test.ExpectSuccess(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("not a valid wav file")
	}
	test.Equate(t, dec.NumChans, uint16(1))
	test.Equate(t, dec.BitDepth, uint16(8))
	test.Equate(t, dec.SampleRate, uint32(9600))

	dur, err := dec.Duration()
	test.ExpectSuccess(t, err)
	if dur.Seconds() < 1 {
		t.Errorf("output suspiciously short (%.2fs)", dur.Seconds())
	}
}

func checksum(b []byte) byte {
	var c byte
	for _, v := range b {
		c += v
	}
	return c
}
