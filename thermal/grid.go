// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermal contains the temperature grid produced from a radiometric
// raster and its canonical binary encoding.
package thermal

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// Grid is a row-major grid of temperatures in °C.
//
// It is built once by the radiometric converter and must not be modified
// afterward.
type Grid struct {
	Width  int
	Height int
	Pix    []float32 // len(Pix) == Width*Height, row 0 first.
}

// Stats are aggregate values over a Grid, in °C.
type Stats struct {
	Min  float64
	Max  float64
	Mean float64
}

// NewGrid returns a zero-filled grid.
func NewGrid(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions %dx%d", width, height)
	}
	return &Grid{Width: width, Height: height, Pix: make([]float32, width*height)}, nil
}

// Bounds returns the grid's rectangle, anchored at (0, 0).
func (g *Grid) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// At returns the temperature at (x, y).
func (g *Grid) At(x, y int) float32 {
	return g.Pix[y*g.Width+x]
}

// Stats returns the minimum, maximum and mean temperature. NaN samples are
// ignored.
func (g *Grid) Stats() Stats {
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	sum := 0.
	n := 0
	for _, v := range g.Pix {
		f := float64(v)
		if math.IsNaN(f) {
			continue
		}
		if f < s.Min {
			s.Min = f
		}
		if f > s.Max {
			s.Max = f
		}
		sum += f
		n++
	}
	if n == 0 {
		return Stats{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN()}
	}
	s.Mean = sum / float64(n)
	return s
}

// Equal returns true if both grids have the same dimensions and bit-identical
// samples.
func (g *Grid) Equal(r *Grid) bool {
	if g.Width != r.Width || g.Height != r.Height || len(g.Pix) != len(r.Pix) {
		return false
	}
	for i := range g.Pix {
		if math.Float32bits(g.Pix[i]) != math.Float32bits(r.Pix[i]) {
			return false
		}
	}
	return true
}

func (g *Grid) check() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("invalid grid dimensions %dx%d", g.Width, g.Height)
	}
	if len(g.Pix) != g.Width*g.Height {
		return errors.New("grid buffer size mismatches its dimensions")
	}
	return nil
}
