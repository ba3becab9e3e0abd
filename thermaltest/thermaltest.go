// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermaltest synthesizes radiometric rasters and visible light
// photographs for tests.
package thermaltest

import (
	"bufio"
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"os"

	"golang.org/x/image/tiff"
)

// BaseDN is the DN value of 30°C.
const BaseDN = 5200

type vector struct {
	intensity float64
	x         float64
	y         float64
}

// noise is cheezy but gets us a plausible thermal scene.
type noise struct {
	rand    *rand.Rand
	vectors []vector
}

func makeNoise(seed int64, w, h int) *noise {
	n := &noise{rand: rand.New(rand.NewSource(seed))}
	n.vectors = make([]vector, 10)
	for i := range n.vectors {
		n.vectors[i].intensity = n.rand.NormFloat64() * 4000
		n.vectors[i].x = n.rand.Float64() * float64(w)
		n.vectors[i].y = n.rand.Float64() * float64(h)
	}
	return n
}

func (n *noise) render(img *image.Gray16) {
	dynamicRange := 1200.
	r := img.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		fy := float64(y)
		for x := r.Min.X; x < r.Max.X; x++ {
			fx := float64(x)
			value := float64(BaseDN)
			for _, vect := range n.vectors {
				distance := (vect.x-fx)*(vect.x-fx) + (vect.y-fy)*(vect.y-fy) + 1
				value += vect.intensity / distance
			}
			if value >= BaseDN+dynamicRange {
				value = BaseDN + dynamicRange
			}
			if value < BaseDN-dynamicRange {
				value = BaseDN - dynamicRange
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(value)})
		}
	}
}

// Raster returns a deterministic w x h DN raster for the seed.
func Raster(w, h int, seed int64) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, w, h))
	makeNoise(seed, w, h).render(img)
	return img
}

// Ramp returns a 1 pixel high raster holding the DN values in order.
func Ramp(dns ...uint16) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, len(dns), 1))
	for i, d := range dns {
		img.SetGray16(i, 0, color.Gray16{Y: d})
	}
	return img
}

// WriteTIFF writes img as an uncompressed TIFF.
func WriteTIFF(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	err = tiff.Encode(w, img, nil)
	if err == nil {
		err = w.Flush()
	}
	if err2 := f.Close(); err == nil {
		err = err2
	}
	return err
}

// Visible returns a w x h gradient photograph; seed shifts its colors.
func Visible(w, h int, seed int64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x*255/w) + uint8(seed),
				G: uint8(y*255/h) + uint8(seed*7),
				B: uint8(seed * 13),
				A: 255,
			})
		}
	}
	return img
}

// EncodeJPEG encodes img and embeds x as an EXIF APP1 segment when non-nil.
func EncodeJPEG(img image.Image, x *Exif) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	b := buf.Bytes()
	if x == nil {
		return b, nil
	}
	app1 := x.app1()
	out := make([]byte, 0, len(b)+len(app1))
	// Right after SOI.
	out = append(out, b[:2]...)
	out = append(out, app1...)
	return append(out, b[2:]...), nil
}

// WriteJPEG encodes img with EXIF x to path.
func WriteJPEG(path string, img image.Image, x *Exif) error {
	b, err := EncodeJPEG(img, x)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
