// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package colorize renders temperature grids as displayable images.
package colorize

import (
	"bufio"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"

	"github.com/maruel/go-thermal/colormap"
	"github.com/maruel/go-thermal/config"
	"github.com/maruel/go-thermal/thermal"
	"golang.org/x/image/draw"
)

// Colorizer maps temperatures to colors over a fixed range.
//
// It is immutable and safe for concurrent use.
type Colorizer struct {
	Min float64
	Max float64
	Map *colormap.Map
}

// New returns the Colorizer described by the render range and colormap of
// cfg.
func New(cfg *config.Config) (*Colorizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m, err := colormap.Lookup(cfg.Colormap)
	if err != nil {
		return nil, err
	}
	return &Colorizer{Min: cfg.MinCelsius, Max: cfg.MaxCelsius, Map: m}, nil
}

// Color returns the color of the temperature t in °C. Temperatures outside the
// range saturate to the colormap's extremes.
func (c *Colorizer) Color(t float64) color.RGBA {
	return c.Map.At(colormap.Normalize(t, c.Min, c.Max))
}

// Render returns an image of the same dimensions as g.
func (c *Colorizer) Render(g *thermal.Grid) *image.RGBA {
	img := image.NewRGBA(g.Bounds())
	for y := 0; y < g.Height; y++ {
		row := g.Pix[y*g.Width : (y+1)*g.Width]
		pix := img.Pix[y*img.Stride:]
		for x, t := range row {
			k := c.Color(float64(t))
			pix[4*x] = k.R
			pix[4*x+1] = k.G
			pix[4*x+2] = k.B
			pix[4*x+3] = k.A
		}
	}
	return img
}

// Thumbnail returns src scaled down to fit in a size x size box, preserving
// its aspect ratio. Images already small enough are returned as is.
func Thumbnail(src image.Image, size int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= size && h <= size {
		return src
	}
	if w >= h {
		h = max(1, h*size/w)
		w = size
	} else {
		w = max(1, w*size/h)
		h = size
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// EncodeJPEG writes img to w with the quality in [1, 100].
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

// WriteJPEG writes img to path and returns the file size.
func WriteJPEG(path string, img image.Image, quality int) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	cw := &countWriter{w: f}
	w := bufio.NewWriter(cw)
	err = EncodeJPEG(w, img, quality)
	if err == nil {
		err = w.Flush()
	}
	if err2 := f.Close(); err == nil {
		err = err2
	}
	return cw.n, err
}

//

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
