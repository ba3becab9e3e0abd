// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// BytesPerSample is the size of one encoded temperature.
const BytesPerSample = 4

// EncodedLen returns the size of the binary encoding of a width x height grid.
func EncodedLen(width, height int) int {
	return width * height * BytesPerSample
}

// MarshalBinary returns the grid as little endian IEEE-754 float32, row-major,
// without any header. The dimensions must be transmitted out of band.
func (g *Grid) MarshalBinary() ([]byte, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	out := make([]byte, EncodedLen(g.Width, g.Height))
	for i, v := range g.Pix {
		binary.LittleEndian.PutUint32(out[i*BytesPerSample:], math.Float32bits(v))
	}
	return out, nil
}

// WriteTo implements io.WriterTo with the same encoding as MarshalBinary.
func (g *Grid) WriteTo(w io.Writer) (int64, error) {
	b, err := g.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// Decode reads a grid of the specified dimensions encoded by MarshalBinary.
//
// It fails if r holds more or less than exactly EncodedLen(width, height)
// bytes.
func Decode(r io.Reader, width, height int) (*Grid, error) {
	g, err := NewGrid(width, height)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, EncodedLen(width, height))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("reading %dx%d grid: %w", width, height, err)
	}
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n != 0 {
		return nil, fmt.Errorf("trailing data after %dx%d grid", width, height)
	}
	for i := range g.Pix {
		g.Pix[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*BytesPerSample:]))
	}
	return g, nil
}

// WriteFile writes the binary encoding of g to path and returns the number of
// bytes written.
func WriteFile(path string, g *Grid) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	w := bufio.NewWriter(f)
	n, err := g.WriteTo(w)
	if err == nil {
		err = w.Flush()
	}
	if err2 := f.Close(); err == nil {
		err = err2
	}
	if err == nil && n != int64(EncodedLen(g.Width, g.Height)) {
		err = fmt.Errorf("short write: %d bytes", n)
	}
	return n, err
}

// ReadFile decodes the grid at path with the specified dimensions.
func ReadFile(path string, width, height int) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(bufio.NewReader(f), width, height)
}
