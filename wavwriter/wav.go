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

// Package wavwriter writes unsigned 8-bit mono PCM to disk as a WAV file.
// Samples are buffered in memory in their entirety and the file is written
// on Close(), when the final sample count is known and the RIFF chunk sizes
// can be stated correctly.
package wavwriter

import (
	"os"

	"github.com/youpy/go-wav"

	"github.com/dragontape/bin2cas/curated"
	"github.com/dragontape/bin2cas/logger"
)

// WavWriter accumulates PCM samples and encodes them as a RIFF/WAVE file.
// It implements io.Writer so a waveform synthesizer can write samples to it
// directly.
type WavWriter struct {
	filename string
	rate     int
	buffer   []byte
}

// New is the preferred method of initialisation for the WavWriter type.
func New(filename string, rate int) *WavWriter {
	return &WavWriter{
		filename: filename,
		rate:     rate,
		buffer:   make([]byte, 0),
	}
}

// Write implements the io.Writer interface. Every byte is one unsigned
// 8-bit sample.
func (aw *WavWriter) Write(p []byte) (int, error) {
	aw.buffer = append(aw.buffer, p...)
	return len(p), nil
}

// SampleCount returns the number of samples written so far.
func (aw *WavWriter) SampleCount() uint64 {
	return uint64(len(aw.buffer))
}

// Close writes the buffered samples to disk. The WAV header is written with
// the final sample count: PCM format, one channel, eight bits per sample.
func (aw *WavWriter) Close() (rerr error) {
	f, err := os.Create(aw.filename)
	if err != nil {
		return curated.Errorf(curated.OutputError, err)
	}
	defer func() {
		err := f.Close()
		if err != nil {
			rerr = curated.Errorf(curated.OutputError, err)
		}
	}()

	enc := wav.NewWriter(f, uint32(len(aw.buffer)), 1, uint32(aw.rate), 8)
	if enc == nil {
		return curated.Errorf(curated.OutputError, curated.Errorf("bad parameters for wav encoding"))
	}

	logger.Logf("wavwriter", "writing %d samples to %s", len(aw.buffer), aw.filename)

	samples := make([]wav.Sample, len(aw.buffer))
	for i, v := range aw.buffer {
		samples[i].Values[0] = int(v)
	}

	err = enc.WriteSamples(samples)
	if err != nil {
		return curated.Errorf(curated.OutputError, err)
	}

	return nil
}
