// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// thermalsite builds a browsable site out of a directory of thermal and
// visible light shots.
//
// Usage: thermalsite [flags] <input_root> <site_out>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/maruel/go-thermal/colormap"
	"github.com/maruel/go-thermal/config"
	"github.com/maruel/go-thermal/site"
	"github.com/maruel/interrupt"
)

func mainImpl() error {
	defPath, _ := config.DefaultPath()
	configPath := flag.String("config", defPath, "JSON configuration file")
	writeConfig := flag.Bool("writeConfig", false, "write the effective config file and exit")
	minC := flag.Float64("min", 0, "lowest temperature of the render range in °C; overrides the config")
	maxC := flag.Float64("max", 0, "highest temperature of the render range in °C; overrides the config")
	cmap := flag.String("colormap", "", "colormap, one of "+strings.Join(colormap.Names(), ", ")+"; overrides the config")
	workers := flag.Int("j", 0, "number of shots processed concurrently; overrides the config")
	sqlite := flag.Bool("sqlite", false, "also write data/shots.sqlite")
	serve := flag.String("serve", "", "serve the site on this address once built, e.g. :8010")
	cpuprofile := flag.String("cpuprofile", "", "dump CPU profile in file")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min":
			cfg.MinCelsius = *minC
		case "max":
			cfg.MaxCelsius = *maxC
		case "colormap":
			cfg.Colormap = *cmap
		case "j":
			cfg.Workers = *workers
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}
	if *writeConfig {
		return cfg.Save(*configPath)
	}
	if flag.NArg() != 2 {
		return errors.New("usage: thermalsite [flags] <input_root> <site_out>")
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	interrupt.HandleCtrlC()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-interrupt.Channel:
			cancel()
		case <-ctx.Done():
		}
	}()

	in, out := flag.Arg(0), flag.Arg(1)
	stats, err := site.Build(ctx, &cfg, in, out, site.Options{SQLite: *sqlite})
	if err != nil {
		return err
	}
	fmt.Printf("%s\n", stats)
	if *serve == "" {
		fmt.Printf("Done. Site written to %s\n", out)
		return nil
	}
	return serveSite(ctx, *serve, out)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nthermalsite: %s.\n", err)
		os.Exit(1)
	}
}
