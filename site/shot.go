// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package site

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"io/fs"
	"log"
	"os"
	"sync/atomic"

	"github.com/maruel/go-thermal/colorize"
	"github.com/maruel/go-thermal/config"
	"github.com/maruel/go-thermal/exifmeta"
	"github.com/maruel/go-thermal/manifest"
	"github.com/maruel/go-thermal/media"
	"github.com/maruel/go-thermal/radiometric"
	"github.com/maruel/go-thermal/thermal"
	"github.com/maruel/go-thermal/triple"
)

// builder holds the state shared by the shots of a run. Its methods are safe
// for concurrent use.
type builder struct {
	cfg   *config.Config
	c     *colorize.Colorizer
	l     *Layout
	store *media.Store

	bytes  atomic.Int64
	failed atomic.Int32
	dups   atomic.Int32
}

// shot converts one triple and returns its record.
//
// A problem with the raster or with writing the derived files fails the
// shot, and the files already written for it are removed. A problem with the
// visible image only degrades the record.
func (b *builder) shot(t *triple.Triple) (r *manifest.Record, err error) {
	if t.Err != nil {
		log.Printf("%s: %v", t, t.Err)
	}
	var written []string
	var size int64
	var rgb *media.Entry
	defer func() {
		if err == nil {
			b.bytes.Add(size)
			if rgb != nil && rgb.Dup {
				b.dups.Add(1)
			}
			return
		}
		for _, p := range written {
			if err2 := os.Remove(p); err2 != nil && !errors.Is(err2, fs.ErrNotExist) {
				log.Printf("%s: cleanup: %v", t, err2)
			}
		}
		if rgb != nil {
			if err2 := b.store.Release(rgb.Hash); err2 != nil {
				log.Printf("%s: cleanup: %v", t, err2)
			}
		}
		r = nil
		err = &ShotError{Shot: t.String(), Err: err}
	}()
	// write records p before writing so a partial file is removed too.
	write := func(rel string, f func(p string) (int64, error)) error {
		p := b.l.Path(rel)
		written = append(written, p)
		n, err := f(p)
		size += n
		return err
	}

	g, err := radiometric.Load(t.Raster)
	if err != nil {
		return nil, err
	}
	id := manifest.ShotID(t.Dir, t.Stem)
	st := g.Stats()
	r = &manifest.Record{
		ID:           id,
		Stem:         t.Stem,
		Source:       t.Dir,
		ThermalColor: thermalColorPath(id),
		ThermalDN:    thermalDNPath(id),
		Thumb:        thumbPath(id),
		Size:         manifest.Size{W: g.Width, H: g.Height},
		Temp:         manifest.NewTemp(st.Min, st.Max, st.Mean),
	}
	err = write(r.ThermalDN, func(p string) (int64, error) {
		return thermal.WriteFile(p, g)
	})
	if err != nil {
		return nil, err
	}
	img := b.c.Render(g)
	err = write(r.ThermalColor, func(p string) (int64, error) {
		return colorize.WriteJPEG(p, img, b.cfg.ThermalQuality)
	})
	if err != nil {
		return nil, err
	}
	var src image.Image = img
	if t.Visible != "" {
		var v image.Image
		if v, rgb, err = b.visible(t, r); err != nil {
			return nil, err
		}
		if v != nil {
			src = v
		}
	}
	err = write(r.Thumb, func(p string) (int64, error) {
		return colorize.WriteJPEG(p, colorize.Thumbnail(src, b.cfg.ThumbSize), b.cfg.ThumbQuality)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// visible stores the visible image of t and fills the related fields of r.
//
// It returns the decoded image when possible and the stored entry, nil if the
// file couldn't be read. Only a failure to store the file is returned as an
// error.
func (b *builder) visible(t *triple.Triple, r *manifest.Record) (image.Image, *media.Entry, error) {
	data, err := os.ReadFile(t.Visible)
	if err != nil {
		log.Printf("%s: visible image: %v", t, err)
		return nil, nil, nil
	}
	e, err := b.store.Put(data)
	if err != nil {
		return nil, nil, err
	}
	r.RGB = manifest.Optional(e.Path)
	r.RGBHash = manifest.Optional(e.Hash)
	m, err := exifmeta.Decode(bytes.NewReader(data))
	if err != nil {
		log.Printf("%s: exif: %v", t, err)
	}
	r.Camera = manifest.Optional(m.Camera)
	r.DateTime = manifest.Optional(m.FormatTime())
	if m.GPS != nil {
		r.GPS = &manifest.Location{Lat: m.GPS.Lat, Lon: m.GPS.Lon}
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		log.Printf("%s: visible image: %v", t, err)
		return nil, &e, nil
	}
	return img, &e, nil
}
