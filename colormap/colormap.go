// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package colormap implements named, deterministic 256 entries color lookup
// tables.
package colormap

import (
	"fmt"
	"image/color"
	"math"
	"sort"
)

// Size is the number of entries in each table.
const Size = 256

// Map is a color lookup table indexed by a normalized value in [0, 1].
type Map struct {
	Name   string
	Colors [Size]color.RGBA
}

// Normalize maps t linearly from [min, max] to [0, 1], saturating outside the
// range. NaN is mapped to 0.
func Normalize(t, min, max float64) float64 {
	v := (t - min) / (max - min)
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Index returns the table entry closest to the normalized value v.
func Index(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 1 {
		return Size - 1
	}
	return uint8(math.Round(v * (Size - 1)))
}

// At returns the color for the normalized value v.
func (m *Map) At(v float64) color.RGBA {
	return m.Colors[Index(v)]
}

// Lookup returns the named colormap.
func Lookup(name string) (*Map, error) {
	if m, ok := maps[name]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("unknown colormap %q; valid: %v", name, Names())
}

// Names returns the sorted list of known colormaps.
func Names() []string {
	out := make([]string, 0, len(maps))
	for k := range maps {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

//

var maps = map[string]*Map{}

func init() {
	register("turbo", turbo)
	register("gray", gray)
	register("hot", hot)
}

func register(name string, f func(x float64) (r, g, b float64)) {
	m := &Map{Name: name}
	for i := range m.Colors {
		r, g, b := f(float64(i) / (Size - 1))
		m.Colors[i] = color.RGBA{R: to8(r), G: to8(g), B: to8(b), A: 255}
	}
	maps[name] = m
}

func to8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// turbo is the polynomial fit of Google's Turbo colormap.
//
// https://ai.googleblog.com/2019/08/turbo-improved-rainbow-colormap-for.html
func turbo(x float64) (r, g, b float64) {
	r = 0.13572138 + x*(4.61539260+x*(-42.66032258+x*(132.13108234+x*(-152.94239396+x*59.28637943))))
	g = 0.09140261 + x*(2.19418839+x*(4.84296658+x*(-14.18503333+x*(4.27729857+x*2.82956604))))
	b = 0.10667330 + x*(12.64194608+x*(-60.58204836+x*(110.36276771+x*(-89.90310912+x*27.34824973))))
	return clamp01(r), clamp01(g), clamp01(b)
}

func gray(x float64) (r, g, b float64) {
	return x, x, x
}

// hot goes black, red, yellow, white.
func hot(x float64) (r, g, b float64) {
	return clamp01(3 * x), clamp01(3*x - 1), clamp01(3*x - 2)
}
