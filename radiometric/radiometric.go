// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package radiometric converts single band radiometric rasters into
// temperature grids.
//
// Each sample is a raw digital number (DN). The physical calibration is the
// fixed linear transform °C = DN/40 - 100, independent of any calibration
// field embedded in the file.
package radiometric

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/maruel/go-thermal/thermal"
	tiffhdr "github.com/rwcarlsen/goexif/tiff"
	"golang.org/x/image/tiff"
	"periph.io/x/periph/conn/physic"
)

// ErrMultiBand is returned when the raster is not a single band image.
var ErrMultiBand = errors.New("radiometric: only single band rasters are supported")

// ErrEmpty is returned when the raster has no pixel.
var ErrEmpty = errors.New("radiometric: empty raster")

// ErrEncoding is returned when the samples are not stored as raw unsigned
// counts. The TIFF decoder would silently invert or reinterpret them.
var ErrEncoding = errors.New("radiometric: unsupported sample encoding")

// TIFF tags checked before decoding.
const (
	tagPhotometric  = 262
	tagSampleFormat = 339

	photometricWhiteIsZero = 0
	sampleFormatUint       = 1
)

// DN is a raw radiometric sample. Each 1 increment is 0.025°C.
type DN uint16

// Celsius returns the temperature DN/40 - 100.
func (d DN) Celsius() float64 {
	return float64(d)/40 - 100
}

// Temperature returns the temperature as a physic.Temperature.
//
// The conversion is done in integer nano-Kelvin so it is exact.
func (d DN) Temperature() physic.Temperature {
	return physic.ZeroCelsius - 100*physic.Celsius + physic.Temperature(d)*(physic.Celsius/40)
}

// FromCelsius returns the DN closest to the temperature c, saturated to the
// representable range.
func FromCelsius(c float64) DN {
	v := (c + 100) * 40
	if v <= 0 {
		return 0
	}
	if v >= 65535 {
		return 65535
	}
	return DN(v + 0.5)
}

// Convert converts a single band raster into a temperature grid.
//
// *image.Gray16 samples are used as is; *image.Gray samples are widened.
// Any other image type is rejected with ErrMultiBand.
func Convert(img image.Image) (*thermal.Grid, error) {
	r := img.Bounds()
	if r.Empty() {
		return nil, ErrEmpty
	}
	g, err := thermal.NewGrid(r.Dx(), r.Dy())
	if err != nil {
		return nil, err
	}
	switch src := img.(type) {
	case *image.Gray16:
		for y := 0; y < g.Height; y++ {
			o := src.PixOffset(r.Min.X, r.Min.Y+y)
			row := g.Pix[y*g.Width : (y+1)*g.Width]
			for x := range row {
				d := DN(uint16(src.Pix[o+2*x])<<8 | uint16(src.Pix[o+2*x+1]))
				row[x] = float32(d.Celsius())
			}
		}
	case *image.Gray:
		for y := 0; y < g.Height; y++ {
			o := src.PixOffset(r.Min.X, r.Min.Y+y)
			row := g.Pix[y*g.Width : (y+1)*g.Width]
			for x := range row {
				row[x] = float32(DN(src.Pix[o+x]).Celsius())
			}
		}
	default:
		return nil, fmt.Errorf("%w, got %T", ErrMultiBand, img)
	}
	return g, nil
}

// Decode decodes a TIFF raster and converts it.
func Decode(r io.Reader) (*thermal.Grid, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return decode(b)
}

// Load reads the TIFF raster at path and converts it.
func Load(path string) (*thermal.Grid, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := decode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

func decode(b []byte) (*thermal.Grid, error) {
	if err := checkEncoding(b); err != nil {
		return nil, err
	}
	img, err := tiff.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	return Convert(img)
}

// checkEncoding rejects the first image of the TIFF stream b when its samples
// are inverted (WhiteIsZero) or not unsigned integers. A header that can't be
// parsed is left to the image decoder.
func checkEncoding(b []byte) error {
	t, err := tiffhdr.Decode(bytes.NewReader(b))
	if err != nil || len(t.Dirs) == 0 {
		return nil
	}
	for _, tag := range t.Dirs[0].Tags {
		switch tag.Id {
		case tagPhotometric:
			if tag.Count == 0 {
				break
			}
			if v, err := tag.Int(0); err == nil && v == photometricWhiteIsZero {
				return fmt.Errorf("%w: WhiteIsZero photometric interpretation", ErrEncoding)
			}
		case tagSampleFormat:
			for i := 0; i < int(tag.Count); i++ {
				if v, err := tag.Int(i); err != nil || v != sampleFormatUint {
					return fmt.Errorf("%w: sample format %s", ErrEncoding, tag)
				}
			}
		}
	}
	return nil
}

// ToTemperature converts a °C value back into a physic.Temperature for
// display.
func ToTemperature(c float64) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(c*float64(physic.Celsius))
}
