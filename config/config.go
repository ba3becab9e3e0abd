// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config holds the settings shared by every stage of the thermal site
// build.
//
// A Config is created once at startup, optionally loaded from a JSON file,
// then passed read-only to each component.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/maruel/go-thermal/colormap"
)

// Config is the process-wide build configuration.
type Config struct {
	VisibleSuffix  string   // Visible light JPEG, e.g. "-visible.jpg".
	RasterSuffixes []string // Radiometric raster, e.g. "-radiometric.tif".
	PreviewSuffix  string   // Radiometric JPEG preview; recognized but never converted.

	MinCelsius float64 // Lowest temperature of the render range.
	MaxCelsius float64 // Highest temperature of the render range.
	Colormap   string  // One of colormap.Names().

	ThermalQuality int // JPEG quality of the colorized preview.
	ThumbQuality   int // JPEG quality of the thumbnail.
	ThumbSize      int // Bounding box of the thumbnail, in pixels.

	Workers int // Number of shots processed concurrently; 1 is sequential.
}

// Default returns the configuration used when nothing else is specified.
func Default() Config {
	return Config{
		VisibleSuffix:  "-visible.jpg",
		RasterSuffixes: []string{"-radiometric.tif", "-radiometric.tiff"},
		PreviewSuffix:  "-radiometric.jpg",
		MinCelsius:     24,
		MaxCelsius:     50,
		Colormap:       "turbo",
		ThermalQuality: 92,
		ThumbQuality:   85,
		ThumbSize:      512,
		Workers:        1,
	}
}

// Validate returns an error describing the first invalid setting.
func (c *Config) Validate() error {
	if !(c.MinCelsius < c.MaxCelsius) {
		return fmt.Errorf("invalid render range [%g, %g]", c.MinCelsius, c.MaxCelsius)
	}
	if _, err := colormap.Lookup(c.Colormap); err != nil {
		return err
	}
	if len(c.RasterSuffixes) == 0 {
		return errors.New("at least one raster suffix is required")
	}
	seen := map[string]bool{}
	for _, s := range append([]string{c.VisibleSuffix, c.PreviewSuffix}, c.RasterSuffixes...) {
		if strings.TrimSpace(s) == "" {
			return errors.New("empty file suffix")
		}
		if seen[s] {
			return fmt.Errorf("suffix %q is used twice", s)
		}
		seen[s] = true
	}
	if c.ThermalQuality < 1 || c.ThermalQuality > 100 {
		return fmt.Errorf("thermal JPEG quality %d out of [1, 100]", c.ThermalQuality)
	}
	if c.ThumbQuality < 1 || c.ThumbQuality > 100 {
		return fmt.Errorf("thumbnail JPEG quality %d out of [1, 100]", c.ThumbQuality)
	}
	if c.ThumbSize < 1 {
		return fmt.Errorf("invalid thumbnail size %d", c.ThumbSize)
	}
	if c.Workers < 1 {
		return fmt.Errorf("invalid worker count %d", c.Workers)
	}
	return nil
}

// Normalize replaces unset fields with their default value.
//
// The render range is left alone since 0°C is a valid bound.
func (c *Config) Normalize() {
	d := Default()
	if c.VisibleSuffix == "" {
		c.VisibleSuffix = d.VisibleSuffix
	}
	if len(c.RasterSuffixes) == 0 {
		c.RasterSuffixes = d.RasterSuffixes
	}
	if c.PreviewSuffix == "" {
		c.PreviewSuffix = d.PreviewSuffix
	}
	if c.Colormap == "" {
		c.Colormap = d.Colormap
	}
	if c.ThermalQuality == 0 {
		c.ThermalQuality = d.ThermalQuality
	}
	if c.ThumbQuality == 0 {
		c.ThumbQuality = d.ThumbQuality
	}
	if c.ThumbSize == 0 {
		c.ThumbSize = d.ThumbSize
	}
	if c.Workers == 0 {
		c.Workers = d.Workers
	}
}

// DefaultPath returns ~/.config/thermal/thermalsite.json.
func DefaultPath() (string, error) {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".config", "thermal", "thermalsite.json"), nil
}

// Load reads the JSON file at path on top of Default().
//
// A missing file is not an error. Fields absent from the file keep their
// default value, fields explicitly zeroed are normalized back.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, err
	}
	d := json.NewDecoder(bytes.NewReader(data))
	d.DisallowUnknownFields()
	if err := d.Decode(&c); err != nil {
		return c, fmt.Errorf("%s is invalid json: %w", path, err)
	}
	c.Normalize()
	return c, nil
}

// Save writes the config as indented JSON, creating the parent directory.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
