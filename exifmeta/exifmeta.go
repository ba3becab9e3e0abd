// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package exifmeta extracts the camera, capture time and GPS location
// embedded in a visible light photograph.
package exifmeta

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// ErrNoGPS is returned by GPS lookups when the location is absent or
// malformed.
var ErrNoGPS = errors.New("exifmeta: no usable GPS location")

// TimeLayout is the layout used to render Meta.Time.
const TimeLayout = "2006-01-02T15:04:05"

// GPS is a location in signed decimal degrees.
type GPS struct {
	Lat float64
	Lon float64
}

// Meta is the metadata of a photograph. Zero values mean absent.
type Meta struct {
	Camera string    // Make and model, space separated.
	Time   time.Time // Wall clock time as recorded by the camera.
	GPS    *GPS
}

// HasTime returns true if a capture time was found.
func (m *Meta) HasTime() bool {
	return !m.Time.IsZero()
}

// FormatTime returns the capture time formatted with TimeLayout, or "".
func (m *Meta) FormatTime() string {
	if !m.HasTime() {
		return ""
	}
	return m.Time.Format(TimeLayout)
}

// Decode reads the EXIF data of a JPEG or TIFF stream.
//
// It always returns a non-nil Meta; fields that cannot be extracted are left
// zero. The error reports why the EXIF block could not be decoded at all;
// missing individual tags are not errors.
func Decode(r io.Reader) (*Meta, error) {
	m := &Meta{}
	x, err := exif.Decode(r)
	if err != nil {
		if x == nil {
			return m, err
		}
		// Partial decode; use whatever was loaded.
	}
	m.Camera = camera(x)
	if t, err := x.DateTime(); err == nil {
		m.Time = t
	}
	if g, err := location(x); err == nil {
		m.GPS = g
	}
	return m, nil
}

// DMSToDecimal converts a degree, minute, second triple and its hemisphere
// reference to signed decimal degrees.
//
// ref is one of "N", "S", "E", "W" or "" which is treated as positive.
// Negative components, minutes or seconds of 60 or more and unknown
// references are rejected.
func DMSToDecimal(deg, min, sec float64, ref string) (float64, error) {
	for _, v := range []float64{deg, min, sec} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return 0, fmt.Errorf("invalid DMS component %g", v)
		}
	}
	if min >= 60 || sec >= 60 {
		return 0, fmt.Errorf("invalid DMS %g %g %g", deg, min, sec)
	}
	sign := 1.
	switch strings.ToUpper(strings.TrimSpace(ref)) {
	case "", "N", "E":
	case "S", "W":
		sign = -1
	default:
		return 0, fmt.Errorf("invalid hemisphere reference %q", ref)
	}
	return sign * (deg + min/60 + sec/3600), nil
}

//

func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

func camera(x *exif.Exif) string {
	return strings.TrimSpace(stringTag(x, exif.Make) + " " + stringTag(x, exif.Model))
}

func location(x *exif.Exif) (*GPS, error) {
	lat, err := coordinate(x, exif.GPSLatitude, exif.GPSLatitudeRef)
	if err != nil {
		return nil, err
	}
	lon, err := coordinate(x, exif.GPSLongitude, exif.GPSLongitudeRef)
	if err != nil {
		return nil, err
	}
	if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
		return nil, ErrNoGPS
	}
	return &GPS{Lat: lat, Lon: lon}, nil
}

func coordinate(x *exif.Exif, value, ref exif.FieldName) (float64, error) {
	tag, err := x.Get(value)
	if err != nil {
		return 0, ErrNoGPS
	}
	if tag.Count < 3 || tag.Format() != tiff.RatVal {
		return 0, ErrNoGPS
	}
	var dms [3]float64
	for i := range dms {
		num, den, err := tag.Rat2(i)
		if err != nil || den == 0 {
			return 0, ErrNoGPS
		}
		dms[i] = float64(num) / float64(den)
	}
	v, err := DMSToDecimal(dms[0], dms[1], dms[2], stringTag(x, ref))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoGPS, err)
	}
	return v, nil
}
