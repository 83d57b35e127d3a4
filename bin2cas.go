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

// bin2cas converts binary program images into cassette files for the
// Dragon 32/64 and Tandy Color Computer, either as CAS block streams or as
// WAV audio a real machine will load. It can also synthesize a 6809 autorun
// loader so the tape starts itself.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dragontape/bin2cas/autorun"
	"github.com/dragontape/bin2cas/binloader"
	"github.com/dragontape/bin2cas/curated"
	"github.com/dragontape/bin2cas/dzip"
	"github.com/dragontape/bin2cas/logger"
	"github.com/dragontape/bin2cas/tape"
	"github.com/dragontape/bin2cas/tape/waveform"
	"github.com/dragontape/bin2cas/wavwriter"
)

const version = "bin2cas 1.0"

const helpText = `usage: bin2cas -o FILE [options] file...

global options:
  -o, --output FILE   output file (required)
      --cas           write a CAS block stream
      --wav           write WAV audio
  -r, --wav-rate HZ   WAV sample rate (default 9600)
  -t, --timing NAME   pulse timing, "rom" or "simple" (default rom)
      --autorun       build an autorun loader for the files that follow
      --help          print this message
      --version       print version

per-file options (apply to the next and subsequent files):
  -B                  input is a raw binary image
  -D                  input is a DragonDOS binary
  -C                  input is a CoCo (DECB) binary
  -i FILE             input file (for names beginning with "-")
  -n NAME             tape filename
  -l ADDR             load address
  -e ADDR             exec address
      --zload ADDR    load address for compressed data
      --leader N      leader length in bytes
      --[no-]filename emit a filename block
  -z, --[no-]dzip     compress with the external dzip
      --[no-]fast     fast timing (WAV only)
      --[no-]eof-data carry the last data chunk in the EOF block
      --[no-]eof      emit an EOF block
      --[no-]flasher  flash a cursor while loading
  -l and --zload apply to the next file only; so do -n and -e unless
  --autorun has been given.

autorun directives (inserted into the load sequence in order):
      --vdg V  --sam-v V  --sam-f V  --lds V

addresses and values accept decimal or 0x-prefixed hex.
`

// output file formats.
const (
	formatUnset = iota
	formatCAS
	formatWAV
)

// options that stick from file to file. a copy is taken into each file
// record as the file is consumed; some fields reset after the copy.
type pending struct {
	decoder  binloader.Decoder
	leader   int
	fnblock  bool
	name     string
	load     uint16
	hasLoad  bool
	exec     uint16
	hasExec  bool
	zload    uint16
	hasZLoad bool
	crunch   bool
	fast     bool
	eofData  bool
	eof      bool
	flasher  bool
}

type session struct {
	output  string
	format  int
	rate    int
	spec    *tape.PulseSpec
	autorun bool

	pend  pending
	steps []autorun.Step
}

func newSession() *session {
	return &session{
		rate: 9600,
		spec: &tape.ROM,
		pend: pending{
			decoder: binloader.Raw{},
			leader:  tape.DefaultLeaderCount,
			fnblock: true,
			eof:     true,
		},
	}
}

func usageError(pattern string, values ...interface{}) error {
	return curated.Errorf(curated.UsageError, curated.Errorf(pattern, values...))
}

// parseNum accepts decimal and 0x-prefixed hex.
func parseNum(s string, bits int) (uint64, error) {
	base := 10
	digits := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		digits = s[2:]
	}
	v, err := strconv.ParseUint(digits, base, bits)
	if err != nil {
		return 0, usageError("bad numeric value %q", s)
	}
	return v, nil
}

// parse walks the argument list in order. options accumulate in the
// pending record; every input file snapshots the record into a file step.
func (ses *session) parse(args []string) (bool, error) {
	i := 0
	next := func(opt string) (string, error) {
		i++
		if i >= len(args) {
			return "", usageError("missing value for %s", opt)
		}
		return args[i], nil
	}

	for ; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "--help":
			fmt.Print(helpText)
			return false, nil
		case "--version":
			fmt.Println(version)
			return false, nil

		case "-o", "--output":
			v, err := next(arg)
			if err != nil {
				return false, err
			}
			ses.output = v
		case "--cas":
			ses.format = formatCAS
		case "--wav":
			ses.format = formatWAV
		case "-r", "--wav-rate":
			v, err := next(arg)
			if err != nil {
				return false, err
			}
			n, err := parseNum(v, 32)
			if err != nil {
				return false, err
			}
			ses.rate = int(n)
		case "-t", "--timing":
			v, err := next(arg)
			if err != nil {
				return false, err
			}
			spec, err := tape.SpecByName(v)
			if err != nil {
				return false, err
			}
			ses.spec = spec

		case "--autorun":
			ses.autorun = true
		case "--no-autorun":
			ses.autorun = false

		case "--vdg", "--sam-v", "--sam-f", "--lds":
			v, err := next(arg)
			if err != nil {
				return false, err
			}
			n, err := parseNum(v, 16)
			if err != nil {
				return false, err
			}
			switch arg {
			case "--vdg":
				ses.steps = append(ses.steps, autorun.SetVDG(n))
			case "--sam-v":
				ses.steps = append(ses.steps, autorun.SetSAMV(n))
			case "--sam-f":
				ses.steps = append(ses.steps, autorun.SetSAMF(n))
			case "--lds":
				ses.steps = append(ses.steps, autorun.SetLDS(n))
			}

		case "-B":
			ses.pend.decoder = binloader.Raw{}
		case "-D":
			ses.pend.decoder = binloader.DragonDOS{}
		case "-C":
			ses.pend.decoder = binloader.CoCo{}

		case "--leader":
			v, err := next(arg)
			if err != nil {
				return false, err
			}
			n, err := parseNum(v, 32)
			if err != nil {
				return false, err
			}
			ses.pend.leader = int(n)
		case "--filename":
			ses.pend.fnblock = true
		case "--no-filename":
			ses.pend.fnblock = false
		case "-n":
			v, err := next(arg)
			if err != nil {
				return false, err
			}
			ses.pend.name = strings.ToUpper(v)
		case "-l":
			v, err := next(arg)
			if err != nil {
				return false, err
			}
			n, err := parseNum(v, 16)
			if err != nil {
				return false, err
			}
			ses.pend.load = uint16(n)
			ses.pend.hasLoad = true
		case "-e":
			v, err := next(arg)
			if err != nil {
				return false, err
			}
			n, err := parseNum(v, 16)
			if err != nil {
				return false, err
			}
			ses.pend.exec = uint16(n)
			ses.pend.hasExec = true
		case "--zload":
			v, err := next(arg)
			if err != nil {
				return false, err
			}
			n, err := parseNum(v, 16)
			if err != nil {
				return false, err
			}
			ses.pend.zload = uint16(n)
			ses.pend.hasZLoad = true
		case "-z", "--dzip":
			ses.pend.crunch = true
		case "--no-dzip":
			ses.pend.crunch = false
		case "--fast":
			ses.pend.fast = true
		case "--no-fast":
			ses.pend.fast = false
		case "--eof-data":
			ses.pend.eofData = true
		case "--no-eof-data":
			ses.pend.eofData = false
		case "--eof":
			ses.pend.eof = true
		case "--no-eof":
			ses.pend.eof = false
		case "--flasher":
			ses.pend.flasher = true
		case "--no-flasher":
			ses.pend.flasher = false

		case "-i":
			v, err := next(arg)
			if err != nil {
				return false, err
			}
			err = ses.consume(v)
			if err != nil {
				return false, err
			}

		default:
			if strings.HasPrefix(arg, "-") {
				return false, usageError("unknown option %s", arg)
			}
			err := ses.consume(arg)
			if err != nil {
				return false, err
			}
		}
	}

	return true, ses.check()
}

// consume reads, decodes and prepares one input file and appends it to the
// step list.
func (ses *session) consume(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return curated.Errorf(curated.InputError, err)
	}

	fl := binloader.NewFile()
	fl.Name = ses.pend.name
	fl.Load = ses.pend.load
	fl.HasLoad = ses.pend.hasLoad
	fl.Exec = ses.pend.exec
	fl.HasExec = ses.pend.hasExec
	fl.ZLoad = ses.pend.zload
	fl.HasZLoad = ses.pend.hasZLoad
	fl.FNBlock = ses.pend.fnblock
	fl.EOF = ses.pend.eof
	fl.EOFData = ses.pend.eofData
	fl.Fast = ses.pend.fast
	fl.Flasher = ses.pend.flasher
	fl.LeaderCount = ses.pend.leader

	err = ses.pend.decoder.Decode(data, fl)
	if err != nil {
		return err
	}
	fl.SetNameFromPath(path)

	err = fl.Coalesce()
	if err != nil {
		return err
	}

	if ses.pend.crunch {
		err = fl.Crunch(dzip.New())
		if err != nil {
			return err
		}
	}

	logger.Logf("bin2cas", "%s: %s, %d bytes at %#04x", path, ses.pend.decoder.String(),
		fl.Segments[0].Size, fl.Segments[0].Start)

	ses.steps = append(ses.steps, autorun.FileStep{File: fl})

	// load addresses never stick between files. names and exec addresses
	// only stick while an autorun sequence is being gathered
	ses.pend.load = 0
	ses.pend.hasLoad = false
	ses.pend.zload = 0
	ses.pend.hasZLoad = false
	if !ses.autorun {
		ses.pend.name = ""
		ses.pend.exec = 0
		ses.pend.hasExec = false
	}

	return nil
}

// check validates the session once the whole command line has been walked.
func (ses *session) check() error {
	if ses.output == "" {
		return usageError("no output file specified")
	}

	if ses.format == formatUnset {
		switch strings.ToLower(filepath.Ext(ses.output)) {
		case ".cas":
			ses.format = formatCAS
		case ".wav":
			ses.format = formatWAV
		default:
			return usageError("cannot infer output format, use --cas or --wav")
		}
	}

	if ses.format == formatCAS {
		for _, s := range ses.steps {
			if fs, ok := s.(autorun.FileStep); ok && fs.File.Fast {
				return usageError("fast timing cannot be used with CAS output")
			}
		}
	}

	files := 0
	for _, s := range ses.steps {
		if _, ok := s.(autorun.FileStep); ok {
			files++
		}
	}
	if files == 0 {
		return usageError("no input files")
	}

	return nil
}

// emit drives the framer over the gathered steps.
func (ses *session) emit() error {
	var fr *tape.Framer
	var finish func() error

	switch ses.format {
	case formatCAS:
		f, err := os.Create(ses.output)
		if err != nil {
			return curated.Errorf(curated.OutputError, err)
		}
		w := bufio.NewWriter(f)
		fr = tape.NewFramer(tape.NewCAS(w))
		finish = func() error {
			err := w.Flush()
			if err != nil {
				f.Close()
				return curated.Errorf(curated.OutputError, err)
			}
			err = f.Close()
			if err != nil {
				return curated.Errorf(curated.OutputError, err)
			}
			return nil
		}

	case formatWAV:
		aw := wavwriter.New(ses.output, ses.rate)
		fr = tape.NewFramer(waveform.New(aw, ses.rate, ses.spec))
		finish = aw.Close
	}

	if ses.autorun {
		name := ""
		for _, s := range ses.steps {
			if fs, ok := s.(autorun.FileStep); ok {
				name = fs.File.Name
				break
			}
		}

		cmp := autorun.NewComposer(name, ses.format == formatWAV)
		for _, s := range ses.steps {
			cmp.Add(s)
		}

		err := cmp.Emit(fr, ses.spec)
		if err != nil {
			return err
		}
	} else {
		for _, s := range ses.steps {
			fs, ok := s.(autorun.FileStep)
			if !ok {
				logger.Logf("bin2cas", "ignoring directive %s without --autorun", s.String())
				continue
			}
			err := fs.File.EmitBlocks(fr, ses.spec)
			if err != nil {
				return err
			}
		}
	}

	return finish()
}

func run(args []string, stderr io.Writer) int {
	logger.SetEcho(stderr)

	ses := newSession()

	proceed, err := ses.parse(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if !proceed {
		return 0
	}

	err = ses.emit()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}
