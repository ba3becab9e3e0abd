// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// thermal-convert converts a single radiometric raster to its temperature
// grid and colorized preview.
//
// Usage: thermal-convert [flags] <raster.tif> <out_prefix>
//
// It writes <out_prefix>.bin and <out_prefix>.jpg.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/maruel/go-thermal/colorize"
	"github.com/maruel/go-thermal/colormap"
	"github.com/maruel/go-thermal/config"
	"github.com/maruel/go-thermal/radiometric"
	"github.com/maruel/go-thermal/thermal"
)

func mainImpl() error {
	def := config.Default()
	minC := flag.Float64("min", def.MinCelsius, "lowest temperature of the render range in °C")
	maxC := flag.Float64("max", def.MaxCelsius, "highest temperature of the render range in °C")
	cmap := flag.String("colormap", def.Colormap, "colormap, one of "+strings.Join(colormap.Names(), ", "))
	quality := flag.Int("q", def.ThermalQuality, "JPEG quality")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	if flag.NArg() != 2 {
		return errors.New("usage: thermal-convert [flags] <raster.tif> <out_prefix>")
	}
	cfg := def
	cfg.MinCelsius = *minC
	cfg.MaxCelsius = *maxC
	cfg.Colormap = *cmap
	cfg.ThermalQuality = *quality
	c, err := colorize.New(&cfg)
	if err != nil {
		return err
	}

	src, prefix := flag.Arg(0), flag.Arg(1)
	g, err := radiometric.Load(src)
	if err != nil {
		return err
	}
	log.Printf("%s: %dx%d", src, g.Width, g.Height)
	n1, err := thermal.WriteFile(prefix+".bin", g)
	if err != nil {
		return err
	}
	n2, err := colorize.WriteJPEG(prefix+".jpg", c.Render(g), cfg.ThermalQuality)
	if err != nil {
		return err
	}
	s := g.Stats()
	fmt.Printf("Size: %dx%d\n", g.Width, g.Height)
	// Extrema are exact samples, so they map back to the raw counts.
	lo, hi := radiometric.FromCelsius(s.Min), radiometric.FromCelsius(s.Max)
	fmt.Printf("Min:  %s (DN %d)\n", lo.Temperature(), lo)
	fmt.Printf("Max:  %s (DN %d)\n", hi.Temperature(), hi)
	fmt.Printf("Mean: %s\n", radiometric.ToTemperature(s.Mean))
	fmt.Printf("Wrote %s.bin and %s.jpg (%s)\n", prefix, prefix, humanize.Bytes(uint64(n1+n2)))
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nthermal-convert: %s.\n", err)
		os.Exit(1)
	}
}
