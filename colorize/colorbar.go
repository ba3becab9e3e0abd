// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package colorize

import (
	"fmt"
	"image/color"

	"github.com/maruel/go-thermal/colormap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Colorbar dimensions.
const (
	ColorbarWidth  = 0.7 * vg.Inch
	ColorbarHeight = 3.2 * vg.Inch
)

// Colorbar returns a slim vertical legend of the colormap over the render
// range, with its axis labelled in °C.
func (c *Colorizer) Colorbar() *plot.Plot {
	p := plot.New()
	p.BackgroundColor = color.Transparent
	p.HideX()
	p.Y.Padding = 0
	p.Y.Label.Text = "°C"
	p.Add(&plotter.ColorBar{
		ColorMap: c.Map.ColorMap(c.Min, c.Max),
		Vertical: true,
		Colors:   colormap.Size,
	})
	return p
}

// WriteColorbar renders the legend to path. The format is deduced from the
// extension, normally ".png".
func (c *Colorizer) WriteColorbar(path string) error {
	if err := c.Colorbar().Save(ColorbarWidth, ColorbarHeight, path); err != nil {
		return fmt.Errorf("colorbar: %w", err)
	}
	return nil
}
