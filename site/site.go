// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package site builds a browsable thermal site out of a directory of shots.
//
// A run discovers the shots, processes each one independently, then reduces
// the results into the manifest in a deterministic order. Per-shot failures
// are logged and counted; only input and output root failures abort the run.
package site

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"

	"github.com/dustin/go-humanize"
	"github.com/maruel/go-thermal/colorize"
	"github.com/maruel/go-thermal/config"
	"github.com/maruel/go-thermal/manifest"
	"github.com/maruel/go-thermal/media"
	"github.com/maruel/go-thermal/triple"
	"golang.org/x/sync/errgroup"
)

// Options are the optional outputs of a run.
type Options struct {
	SQLite bool // Also write data/shots.sqlite.
}

// Stats summarizes a run.
type Stats struct {
	Discovered int   // Stems found, eligible or not.
	Indexed    int   // Records in db.json.
	Features   int   // Features in points.geojson.
	Skipped    int   // Stems without a radiometric raster.
	Failed     int   // Shots that could not be processed.
	Duplicates int   // Visible images already stored for another shot.
	Bytes      int64 // Bytes written.
}

func (s *Stats) String() string {
	return fmt.Sprintf("%d stems: %d shots indexed, %d features, %d skipped, %d failed, %d duplicate images; %s written",
		s.Discovered, s.Indexed, s.Features, s.Skipped, s.Failed, s.Duplicates, humanize.Bytes(uint64(s.Bytes)))
}

// ShotError is a recoverable error affecting one shot.
type ShotError struct {
	Shot string
	Err  error
}

func (e *ShotError) Error() string {
	return e.Shot + ": " + e.Err.Error()
}

func (e *ShotError) Unwrap() error {
	return e.Err
}

// Build replaces out with the site generated from the shots found in in.
//
// It returns an error only for fatal conditions: invalid configuration,
// unusable input or output root, or ctx being canceled.
func Build(ctx context.Context, cfg *config.Config, in, out string, opts Options) (*Stats, error) {
	c, err := colorize.New(cfg)
	if err != nil {
		return nil, err
	}
	// Discover first so an unreadable input leaves the previous site intact.
	res, err := triple.Find(in, triple.Suffixes{
		Visible: cfg.VisibleSuffix,
		Raster:  cfg.RasterSuffixes,
		Preview: cfg.PreviewSuffix,
	})
	if err != nil {
		return nil, fmt.Errorf("input root: %w", err)
	}
	l, err := Prepare(in, out)
	if err != nil {
		return nil, err
	}
	s := &Stats{
		Discovered: len(res.Triples) + len(res.Skipped),
		Skipped:    len(res.Skipped),
	}
	for i := range res.Skipped {
		log.Printf("%s: skipped: %v", &res.Skipped[i], triple.ErrNoRaster)
	}
	if err := c.WriteColorbar(l.Path(ColorbarFile)); err != nil {
		return nil, err
	}
	s.Bytes += fileSize(l.Path(ColorbarFile))

	b := &builder{
		cfg:   cfg,
		c:     c,
		l:     l,
		store: media.NewStore(l.Path(RGBDir), RGBDir),
	}
	records := make([]*manifest.Record, len(res.Triples))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Workers)
	for i := range res.Triples {
		t := &res.Triples[i]
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			r, err := b.shot(t)
			if err != nil {
				log.Printf("%v", err)
				b.failed.Add(1)
				return nil
			}
			records[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	m, err := manifest.Build(records)
	if err != nil {
		return nil, err
	}
	n, err := m.WriteFiles(l.Path(DataDir))
	s.Bytes += n
	if err != nil {
		return nil, err
	}
	if opts.SQLite {
		p := l.Path(path.Join(DataDir, manifest.SQLiteFile))
		if err := m.WriteSQLite(ctx, p); err != nil {
			return nil, err
		}
		s.Bytes += fileSize(p)
	}
	s.Indexed = m.Len()
	s.Features = len(m.Points().Features)
	s.Failed = int(b.failed.Load())
	s.Duplicates = int(b.dups.Load())
	s.Bytes += b.bytes.Load() + b.store.Bytes()
	return s, nil
}

//

func fileSize(p string) int64 {
	fi, err := os.Stat(p)
	if err != nil {
		return 0
	}
	return fi.Size()
}
