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

// Package dzip runs the external dzip compressor over a byte sequence. The
// integration contract is bytes in, bytes out; how the child process is fed
// is a detail of the Transform implementation. The matching in-place
// decompressor is part of the autorun loader.
package dzip

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/dragontape/bin2cas/curated"
	"github.com/dragontape/bin2cas/logger"
)

// name of the external compressor, found on the host PATH.
const command = "dzip"

// Transform instances compress a byte sequence.
type Transform interface {
	Compress(data []byte) ([]byte, error)
}

// New returns the preferred Transform for the host: the pipe-driven
// implementation.
func New() Transform {
	return Piped{}
}

// Piped runs "dzip -c" as a child process with the segment piped through
// stdin and stdout.
type Piped struct{}

// Compress implements the Transform interface.
func (tr Piped) Compress(data []byte) ([]byte, error) {
	cmd := exec.Command(command, "-c")
	cmd.Stdin = bytes.NewReader(data)

	out := &bytes.Buffer{}
	cmd.Stdout = out
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		return nil, curated.Errorf(curated.DzipError, err)
	}

	if out.Len() == 0 {
		return nil, curated.Errorf(curated.DzipError, curated.Errorf("compressor produced no output"))
	}

	logger.Logf("dzip", "%d bytes compressed to %d", len(data), out.Len())

	return out.Bytes(), nil
}

// TempFile runs "dzip -k" over a file in a freshly created temporary
// directory and reads the result back. It exists for hosts where piped
// stdio is not workable. The directory is removed on every exit path.
type TempFile struct{}

// Compress implements the Transform interface.
func (tr TempFile) Compress(data []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "bin2cas")
	if err != nil {
		return nil, curated.Errorf(curated.DzipError, err)
	}
	defer os.RemoveAll(dir)

	fn := filepath.Join(dir, "segment")
	err = os.WriteFile(fn, data, 0600)
	if err != nil {
		return nil, curated.Errorf(curated.DzipError, err)
	}

	cmd := exec.Command(command, "-k", fn)
	cmd.Stderr = os.Stderr
	err = cmd.Run()
	if err != nil {
		return nil, curated.Errorf(curated.DzipError, err)
	}

	crunched, err := os.ReadFile(fn + ".dz")
	if err != nil {
		return nil, curated.Errorf(curated.DzipError, err)
	}

	if len(crunched) == 0 {
		return nil, curated.Errorf(curated.DzipError, curated.Errorf("compressor produced no output"))
	}

	logger.Logf("dzip", "%d bytes compressed to %d", len(data), len(crunched))

	return crunched, nil
}
