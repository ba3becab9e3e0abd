// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package site

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Directories and files of the site, relative to its root and slash
// separated, as referenced from db.json.
const (
	DataDir         = "data"
	RGBDir          = "media/rgb"
	ThermalColorDir = "media/thermal_color"
	ThermalDNDir    = "media/thermal_dn"
	ThumbsDir       = "media/thumbs"
	ImgDir          = "assets/img"
	ColorbarFile    = ImgDir + "/colorbar.png"
)

var dirs = []string{DataDir, RGBDir, ThermalColorDir, ThermalDNDir, ThumbsDir, ImgDir}

// Layout is an output site directory.
type Layout struct {
	Root string
}

// Path returns the file path of the site relative path rel.
func (l *Layout) Path(rel string) string {
	return filepath.Join(l.Root, filepath.FromSlash(rel))
}

// Media paths of a shot, relative to the site root.
func thermalColorPath(id string) string { return path.Join(ThermalColorDir, id+".jpg") }
func thermalDNPath(id string) string    { return path.Join(ThermalDNDir, id+".bin") }
func thumbPath(id string) string        { return path.Join(ThumbsDir, id+".jpg") }

// Prepare replaces out with an empty site tree.
//
// It refuses to proceed when in isn't a directory, or when deleting out would
// delete in. Symlinks are resolved on both sides before comparing.
func Prepare(in, out string) (*Layout, error) {
	absIn, err := filepath.Abs(in)
	if err != nil {
		return nil, err
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(absIn)
	if err != nil {
		return nil, fmt.Errorf("input root: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("input root %s is not a directory", in)
	}
	realIn, err := resolve(absIn)
	if err != nil {
		return nil, fmt.Errorf("input root: %w", err)
	}
	realOut, err := resolve(absOut)
	if err != nil {
		return nil, fmt.Errorf("output root: %w", err)
	}
	if contains(absOut, absIn) || contains(realOut, realIn) {
		return nil, fmt.Errorf("refusing to replace %s, it contains the input %s", out, in)
	}
	if err := os.RemoveAll(absOut); err != nil {
		return nil, fmt.Errorf("output root: %w", err)
	}
	l := &Layout{Root: absOut}
	for _, d := range dirs {
		if err := os.MkdirAll(l.Path(d), 0755); err != nil {
			return nil, fmt.Errorf("output root: %w", err)
		}
	}
	return l, nil
}

// resolve evaluates the symlinks of p. When p doesn't exist, its nearest
// existing parent is resolved and the missing elements are appended.
func resolve(p string) (string, error) {
	rest := ""
	for {
		r, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(r, rest), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(p)
		if parent == p {
			return filepath.Join(p, rest), nil
		}
		rest = filepath.Join(filepath.Base(p), rest)
		p = parent
	}
}

// contains returns true if child is parent or below it.
func contains(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
