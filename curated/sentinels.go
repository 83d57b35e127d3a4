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

package curated

// List of error patterns used across the project. Using these constants with
// Errorf() means the origin of an error can be tested for with Is() and Has()
// without string matching at the call site.
const (
	// UsageError is returned for bad command line input. Like every other
	// fatal error it is printed to stderr and the program exits with status 1.
	UsageError = "usage error: %v"

	// InputError covers input files that cannot be opened or parsed at all.
	// Recoverable oddities in an input file (short reads, unknown chunk tags)
	// are logged as warnings instead.
	InputError = "input error: %v"

	// SegmentError indicates an invariant violation in segment layout:
	// overlapping segments or an image larger than the 64KiB address space.
	SegmentError = "segment error: %v"

	// AssemblyError indicates a problem during code generation for the
	// autorun loader. Most commonly a relocation against an undefined label.
	AssemblyError = "assembly error: %v"

	// DzipError indicates the external compressor could not be run or
	// produced no output.
	DzipError = "dzip error: %v"

	// OutputError indicates a problem writing the CAS or WAV output file.
	OutputError = "output error: %v"
)
