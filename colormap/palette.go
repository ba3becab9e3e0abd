// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package colormap

import (
	"image/color"
	"math"

	"gonum.org/v1/plot/palette"
)

// ColorMap returns m spanning [min, max] as a gonum/plot palette.ColorMap, so
// legends drawn by plot use exactly the same lookup as the rendered images.
func (m *Map) ColorMap(min, max float64) palette.ColorMap {
	return &plotMap{m: m, min: min, max: max, alpha: 1}
}

type plotMap struct {
	m        *Map
	min, max float64
	alpha    float64
}

func (p *plotMap) At(v float64) (color.Color, error) {
	switch {
	case math.IsNaN(v):
		return nil, palette.ErrNaN
	case v < p.min:
		return nil, palette.ErrUnderflow
	case v > p.max:
		return nil, palette.ErrOverflow
	}
	c := p.m.At(Normalize(v, p.min, p.max))
	if p.alpha == 1 {
		return c, nil
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(p.alpha*255 + 0.5)}, nil
}

func (p *plotMap) Max() float64 {
	return p.max
}

func (p *plotMap) Min() float64 {
	return p.min
}

func (p *plotMap) SetMax(v float64) {
	p.max = v
}

func (p *plotMap) SetMin(v float64) {
	p.min = v
}

func (p *plotMap) Alpha() float64 {
	return p.alpha
}

func (p *plotMap) SetAlpha(v float64) {
	p.alpha = math.Max(0, math.Min(1, v))
}

func (p *plotMap) Palette(colors int) palette.Palette {
	out := make(colorList, colors)
	for i := range out {
		v := 0.
		if colors > 1 {
			v = float64(i) / float64(colors-1)
		}
		out[i] = p.m.At(v)
	}
	return out
}

type colorList []color.Color

func (c colorList) Colors() []color.Color {
	return c
}
