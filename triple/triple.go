// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package triple discovers shots in a directory tree.
//
// A shot is the group of files sharing a stem in the same directory: the
// visible light photograph, the radiometric raster and the radiometric preview.
// Files are classified by exact filename suffix, not by extension.
package triple

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Kind is the role of a file in a shot.
type Kind int

// Valid values for Kind.
const (
	Unknown Kind = iota
	Visible
	Raster
	Preview
)

func (k Kind) String() string {
	switch k {
	case Visible:
		return "visible"
	case Raster:
		return "raster"
	case Preview:
		return "preview"
	default:
		return "unknown"
	}
}

// Suffixes are the recognized filename suffixes.
type Suffixes struct {
	Visible string
	Raster  []string
	Preview string
}

// Classify returns the kind of the filename and its stem. When more than one
// suffix matches, the longest wins.
func (s *Suffixes) Classify(name string) (Kind, string) {
	kind := Unknown
	best := ""
	try := func(k Kind, suffix string) {
		if suffix != "" && len(suffix) > len(best) && len(name) > len(suffix) && strings.HasSuffix(name, suffix) {
			kind = k
			best = suffix
		}
	}
	try(Visible, s.Visible)
	for _, r := range s.Raster {
		try(Raster, r)
	}
	try(Preview, s.Preview)
	if kind == Unknown {
		return Unknown, ""
	}
	return kind, name[:len(name)-len(best)]
}

// Triple is the set of files of one shot.
//
// Paths are absolute, or relative to the current directory if the root was.
// Empty means absent.
type Triple struct {
	Stem    string
	Dir     string // Directory relative to the root, slash separated, "." for the root.
	Visible string
	Raster  string
	Preview string // Recognized but never converted.
	Err     error  // First error encountered on one of this shot's files.
}

// Eligible returns true if the shot can be processed.
func (t *Triple) Eligible() bool {
	return t.Raster != ""
}

func (t *Triple) String() string {
	return path.Join(t.Dir, t.Stem)
}

// Result is the outcome of Find.
type Result struct {
	Triples []Triple // Eligible shots, sorted by stem then directory.
	Skipped []Triple // Shots lacking a radiometric raster, same order.
}

// Find scans root recursively and groups files into triples.
//
// An unreadable directory is fatal. An unreadable file is recorded in the Err
// field of its triple.
func Find(root string, s Suffixes) (*Result, error) {
	type key struct{ dir, stem string }
	groups := map[key]*Triple{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		kind, stem := s.Classify(d.Name())
		if kind == Unknown {
			return nil
		}
		rel, err := filepath.Rel(root, filepath.Dir(p))
		if err != nil {
			return err
		}
		k := key{filepath.ToSlash(rel), stem}
		t := groups[k]
		if t == nil {
			t = &Triple{Stem: stem, Dir: k.dir}
			groups[k] = t
		}
		if err := checkFile(p); err != nil && t.Err == nil {
			t.Err = err
		}
		dst := t.slot(kind)
		if *dst != "" {
			log.Printf("%s: ignoring %s, already have %s", t, p, *dst)
			return nil
		}
		*dst = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := &Result{}
	for _, t := range groups {
		if t.Eligible() {
			out.Triples = append(out.Triples, *t)
		} else {
			out.Skipped = append(out.Skipped, *t)
		}
	}
	sortTriples(out.Triples)
	sortTriples(out.Skipped)
	return out, nil
}

func (t *Triple) slot(k Kind) *string {
	switch k {
	case Visible:
		return &t.Visible
	case Raster:
		return &t.Raster
	default:
		return &t.Preview
	}
}

// checkFile ensures p is a readable regular file, following symlinks.
func checkFile(p string) error {
	fi, err := os.Stat(p)
	if err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%s: not a regular file", p)
	}
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	return f.Close()
}

func sortTriples(t []Triple) {
	sort.Slice(t, func(i, j int) bool {
		if t[i].Stem != t[j].Stem {
			return t[i].Stem < t[j].Stem
		}
		return t[i].Dir < t[j].Dir
	})
}

// ErrNoRaster is the reason a shot is skipped.
var ErrNoRaster = errors.New("no radiometric raster")
