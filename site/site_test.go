// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package site

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/maruel/go-thermal/colorize"
	"github.com/maruel/go-thermal/config"
	"github.com/maruel/go-thermal/manifest"
	"github.com/maruel/go-thermal/media"
	"github.com/maruel/go-thermal/radiometric"
	"github.com/maruel/go-thermal/thermal"
	"github.com/maruel/go-thermal/thermaltest"
	"github.com/maruel/go-thermal/triple"
)

// makeInput creates:
//   - a: raster and geotagged visible image.
//   - day2/a: same stem in another directory, visible image byte-identical to
//     a's.
//   - c: raster only.
//   - d: preview only.
//   - e: corrupt raster.
//   - f: raster and a visible image that isn't a JPEG.
func makeInput(t *testing.T) string {
	in := t.TempDir()
	mkdir(t, filepath.Join(in, "day2"))
	raster := func(rel string, w, h int, seed int64) {
		if err := thermaltest.WriteTIFF(filepath.Join(in, rel), thermaltest.Raster(w, h, seed)); err != nil {
			t.Fatal(err)
		}
	}
	raster("a-radiometric.tif", 32, 24, 1)
	raster("day2/a-radiometric.tiff", 32, 24, 2)
	raster("c-radiometric.tif", 20, 10, 3)
	raster("f-radiometric.tif", 16, 16, 4)
	x := &thermaltest.Exif{
		Make:             "FLIR",
		Model:            "E8",
		DateTimeOriginal: "2025:03:04 10:20:30",
		GPS: &thermaltest.GPS{
			LatRef: "S",
			Lat:    thermaltest.Deg(40, 30, 0),
			LonRef: "E",
			Lon:    thermaltest.Deg(121, 0, 0),
		},
	}
	vis, err := thermaltest.EncodeJPEG(thermaltest.Visible(640, 480, 5), x)
	if err != nil {
		t.Fatal(err)
	}
	write(t, filepath.Join(in, "a-visible.jpg"), vis)
	write(t, filepath.Join(in, "day2", "a-visible.jpg"), vis)
	write(t, filepath.Join(in, "d-radiometric.jpg"), vis)
	write(t, filepath.Join(in, "e-radiometric.tif"), []byte("II*\x00garbage"))
	write(t, filepath.Join(in, "f-visible.jpg"), []byte("not a jpeg"))
	return in
}

func TestBuild(t *testing.T) {
	in := makeInput(t)
	out := filepath.Join(t.TempDir(), "site")
	// Stale content is removed.
	mkdir(t, filepath.Join(out, "old"))
	cfg := config.Default()
	s, err := Build(context.Background(), &cfg, in, out, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := Stats{Discovered: 6, Indexed: 4, Features: 2, Skipped: 1, Failed: 1, Duplicates: 1, Bytes: s.Bytes}
	if diff := cmp.Diff(want, *s); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if s.Bytes == 0 {
		t.Fatal("no bytes written")
	}
	if _, err := os.Stat(filepath.Join(out, "old")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stale directory kept: %v", err)
	}
	l := &Layout{Root: out}
	if _, err := os.Stat(l.Path(ColorbarFile)); err != nil {
		t.Fatal(err)
	}

	records := readDB(t, l)
	if len(records) != 4 {
		t.Fatalf("%d records", len(records))
	}
	a := records[manifest.ShotID(".", "a")]
	a2 := records[manifest.ShotID("day2", "a")]
	c := records[manifest.ShotID(".", "c")]
	f := records[manifest.ShotID(".", "f")]
	if a == nil || a2 == nil || c == nil || f == nil {
		t.Fatalf("missing records: %v", records)
	}
	if records[manifest.ShotID(".", "d")] != nil || records[manifest.ShotID(".", "e")] != nil {
		t.Fatal("unexpected record")
	}

	// Byte-identical visible images are stored once.
	if a.RGBHash == nil || a2.RGBHash == nil || *a.RGBHash != *a2.RGBHash || *a.RGB != *a2.RGB {
		t.Fatalf("%v %v", a.RGB, a2.RGB)
	}
	rgb, err := os.ReadDir(l.Path(RGBDir))
	if err != nil {
		t.Fatal(err)
	}
	if len(rgb) != 2 {
		t.Fatalf("expected a's and f's visible images, got %d files", len(rgb))
	}

	if *a.Camera != "FLIR E8" || *a.DateTime != "2025-03-04T10:20:30" {
		t.Fatalf("%s %s", *a.Camera, *a.DateTime)
	}
	if diff := cmp.Diff(&manifest.Location{Lat: -40.5, Lon: 121}, a.GPS); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	// Raster only.
	if c.RGB != nil || c.RGBHash != nil || c.Camera != nil || c.DateTime != nil || c.GPS != nil {
		t.Fatalf("%+v", c)
	}
	// Undecodable visible image is still stored.
	if f.RGB == nil || f.Camera != nil || f.GPS != nil {
		t.Fatalf("%+v", f)
	}

	// The .bin round trips to the grid converted from the raster.
	for _, line := range []struct {
		r   *manifest.Record
		src string
	}{
		{a, "a-radiometric.tif"},
		{a2, "day2/a-radiometric.tiff"},
		{c, "c-radiometric.tif"},
	} {
		p := l.Path(line.r.ThermalDN)
		fi, err := os.Stat(p)
		if err != nil {
			t.Fatal(err)
		}
		if fi.Size() != int64(4*line.r.Size.W*line.r.Size.H) {
			t.Fatalf("%s: %d bytes for %dx%d", line.src, fi.Size(), line.r.Size.W, line.r.Size.H)
		}
		got, err := thermal.ReadFile(p, line.r.Size.W, line.r.Size.H)
		if err != nil {
			t.Fatal(err)
		}
		orig, err := radiometric.Load(filepath.Join(in, filepath.FromSlash(line.src)))
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(orig) {
			t.Fatalf("%s: grid mismatch", line.src)
		}
		for _, rel := range []string{line.r.ThermalColor, line.r.Thumb} {
			if _, err := os.Stat(l.Path(rel)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if c.Size != (manifest.Size{W: 20, H: 10}) {
		t.Fatal(c.Size)
	}

	var fc manifest.FeatureCollection
	readJSON(t, l.Path(DataDir+"/"+manifest.PointsFile), &fc)
	var ids []string
	for _, ft := range fc.Features {
		ids = append(ids, ft.Properties.ID)
	}
	if diff := cmp.Diff([]string{a.ID, a2.ID}, ids); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if fc.Features[0].Geometry.Coordinates != [2]float64{121, -40.5} {
		t.Fatal(fc.Features[0].Geometry)
	}
	if _, err := os.Stat(l.Path(DataDir + "/" + manifest.SQLiteFile)); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("unexpected sqlite index")
	}
}

func TestBuild_deterministic(t *testing.T) {
	in := makeInput(t)
	var prev []byte
	for _, workers := range []int{1, 4} {
		cfg := config.Default()
		cfg.Workers = workers
		out := filepath.Join(t.TempDir(), "site")
		if _, err := Build(context.Background(), &cfg, in, out, Options{SQLite: true}); err != nil {
			t.Fatal(err)
		}
		db, err := os.ReadFile(filepath.Join(out, DataDir, manifest.DBFile))
		if err != nil {
			t.Fatal(err)
		}
		if prev != nil && !bytes.Equal(prev, db) {
			t.Fatalf("db.json differs with %d workers", workers)
		}
		prev = db
		if _, err := os.Stat(filepath.Join(out, DataDir, manifest.SQLiteFile)); err != nil {
			t.Fatal(err)
		}
	}
}

func TestBuild_thumbnail(t *testing.T) {
	in := makeInput(t)
	out := t.TempDir()
	cfg := config.Default()
	cfg.ThumbSize = 64
	if _, err := Build(context.Background(), &cfg, in, filepath.Join(out, "site"), Options{}); err != nil {
		t.Fatal(err)
	}
	l := &Layout{Root: filepath.Join(out, "site")}
	records := readDB(t, l)
	// From the 640x480 visible image.
	assertJPEGSize(t, l.Path(records[manifest.ShotID(".", "a")].Thumb), 64, 48)
	// From the 20x10 thermal preview, never upscaled.
	assertJPEGSize(t, l.Path(records[manifest.ShotID(".", "c")].Thumb), 20, 10)
}

func TestBuild_canceled(t *testing.T) {
	in := makeInput(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := config.Default()
	if _, err := Build(ctx, &cfg, in, filepath.Join(t.TempDir(), "site"), Options{}); !errors.Is(err, context.Canceled) {
		t.Fatal(err)
	}
}

func TestBuild_fail(t *testing.T) {
	in := makeInput(t)
	cfg := config.Default()
	ctx := context.Background()
	if _, err := Build(ctx, &cfg, in, in, Options{}); err == nil {
		t.Fatal("expected failure: output is input")
	}
	if _, err := Build(ctx, &cfg, in, filepath.Dir(in), Options{}); err == nil {
		t.Fatal("expected failure: output contains input")
	}
	if _, err := os.Stat(filepath.Join(in, "a-visible.jpg")); err != nil {
		t.Fatal(err)
	}
	if _, err := Build(ctx, &cfg, filepath.Join(in, "missing"), filepath.Join(t.TempDir(), "site"), Options{}); err == nil {
		t.Fatal("expected failure: missing input")
	}
	bad := cfg
	bad.MinCelsius = bad.MaxCelsius
	if _, err := Build(ctx, &bad, in, filepath.Join(t.TempDir(), "site"), Options{}); err == nil {
		t.Fatal("expected failure: invalid config")
	}
}

func TestPrepare_symlink(t *testing.T) {
	root := t.TempDir()
	real := filepath.Join(root, "real")
	mkdir(t, real)
	keep := filepath.Join(real, "a-radiometric.tif")
	write(t, keep, []byte("data"))
	link := filepath.Join(root, "link")
	if err := os.Symlink(real, link); err != nil {
		t.Skip(err)
	}
	parentLink := filepath.Join(root, "parent")
	if err := os.Symlink(root, parentLink); err != nil {
		t.Fatal(err)
	}
	data := []struct {
		name    string
		in, out string
	}{
		{"input is a link to output", link, real},
		{"output is a link to input", real, link},
		{"output through a linked parent", link, filepath.Join(parentLink, "real")},
	}
	for _, line := range data {
		if _, err := Prepare(line.in, line.out); err == nil {
			t.Fatalf("%s: expected failure", line.name)
		}
		if _, err := os.Stat(keep); err != nil {
			t.Fatalf("%s: input deleted: %v", line.name, err)
		}
	}
}

func TestPrepare_missingOutput(t *testing.T) {
	in := t.TempDir()
	root := t.TempDir()
	link := filepath.Join(root, "link")
	if err := os.Symlink(root, link); err != nil {
		t.Skip(err)
	}
	l, err := Prepare(in, filepath.Join(link, "new", "site"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(l.Path(ColorbarFile)); !errors.Is(err, os.ErrNotExist) {
		t.Fatal(err)
	}
	if fi, err := os.Stat(l.Path(ThumbsDir)); err != nil || !fi.IsDir() {
		t.Fatal(err)
	}
}

func TestBuild_unreadableInput(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	in := makeInput(t)
	locked := filepath.Join(in, "locked")
	mkdir(t, locked)
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(locked, 0755)
	out := filepath.Join(t.TempDir(), "site")
	marker := filepath.Join(out, DataDir, manifest.DBFile)
	mkdir(t, filepath.Dir(marker))
	write(t, marker, []byte("{}\n"))
	cfg := config.Default()
	if _, err := Build(context.Background(), &cfg, in, out, Options{}); err == nil {
		t.Fatal("expected failure")
	}
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("previous site deleted: %v", err)
	}
}

func TestShot_storeFailure(t *testing.T) {
	in := makeInput(t)
	b := newBuilder(t, in)
	vis, err := os.ReadFile(filepath.Join(in, "a-visible.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	// A directory in the way makes storing the visible image fail.
	mkdir(t, filepath.Join(b.l.Path(RGBDir), media.Sum(vis)+media.Ext))
	r, err := b.shot(shotA(in, "."))
	var serr *ShotError
	if r != nil || !errors.As(err, &serr) || serr.Shot != "a" {
		t.Fatalf("%v %v", r, err)
	}
	assertEmpty(t, b.l.Path(ThermalDNDir))
	assertEmpty(t, b.l.Path(ThermalColorDir))
	assertEmpty(t, b.l.Path(ThumbsDir))
	if n := b.bytes.Load(); n != 0 {
		t.Fatalf("%d bytes accounted for a failed shot", n)
	}
}

func TestShot_thumbnailFailure(t *testing.T) {
	in := makeInput(t)
	b := newBuilder(t, in)
	// day2/a shares its visible image with a.
	if _, err := b.shot(shotA(in, "day2")); err != nil {
		t.Fatal(err)
	}
	id := manifest.ShotID(".", "a")
	blocker := b.l.Path(thumbPath(id))
	mkdir(t, blocker)
	write(t, filepath.Join(blocker, "x"), []byte("x"))
	if _, err := b.shot(shotA(in, ".")); err == nil {
		t.Fatal("expected failure")
	}
	for _, rel := range []string{thermalDNPath(id), thermalColorPath(id)} {
		if _, err := os.Stat(b.l.Path(rel)); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("%s left behind: %v", rel, err)
		}
	}
	// The visible image is still referenced by day2/a.
	if b.store.Len() != 1 {
		t.Fatal(b.store.Len())
	}
	rgb, err := os.ReadDir(b.l.Path(RGBDir))
	if err != nil {
		t.Fatal(err)
	}
	if len(rgb) != 1 {
		t.Fatalf("%d files", len(rgb))
	}
	if n := b.dups.Load(); n != 0 {
		t.Fatalf("%d duplicates counted for a failed shot", n)
	}
}

func TestShot_thumbnailFailureReleasesVisible(t *testing.T) {
	in := makeInput(t)
	b := newBuilder(t, in)
	id := manifest.ShotID(".", "a")
	blocker := b.l.Path(thumbPath(id))
	mkdir(t, blocker)
	write(t, filepath.Join(blocker, "x"), []byte("x"))
	if _, err := b.shot(shotA(in, ".")); err == nil {
		t.Fatal("expected failure")
	}
	assertEmpty(t, b.l.Path(RGBDir))
	if b.store.Len() != 0 || b.store.Bytes() != 0 {
		t.Fatal(b.store.Len(), b.store.Bytes())
	}
}

func TestContains(t *testing.T) {
	sep := string(filepath.Separator)
	data := []struct {
		parent, child string
		want          bool
	}{
		{sep + "a", sep + "a", true},
		{sep + "a", filepath.Join(sep+"a", "b"), true},
		{sep + "a", sep + "ab", false},
		{filepath.Join(sep+"a", "b"), sep + "a", false},
		{sep + "a", filepath.Join(sep+"b", "..a"), false},
	}
	for _, line := range data {
		if got := contains(line.parent, line.child); got != line.want {
			t.Fatalf("contains(%q, %q) = %t", line.parent, line.child, got)
		}
	}
}

func TestStats_String(t *testing.T) {
	s := Stats{Discovered: 3, Indexed: 2, Features: 1, Skipped: 1, Bytes: 2500000}
	want := "3 stems: 2 shots indexed, 1 features, 1 skipped, 0 failed, 0 duplicate images; 2.5 MB written"
	if got := s.String(); got != want {
		t.Fatalf("%q", got)
	}
}

func newBuilder(t *testing.T, in string) *builder {
	cfg := config.Default()
	c, err := colorize.New(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	l, err := Prepare(in, filepath.Join(t.TempDir(), "site"))
	if err != nil {
		t.Fatal(err)
	}
	return &builder{cfg: &cfg, c: c, l: l, store: media.NewStore(l.Path(RGBDir), RGBDir)}
}

// shotA returns the triple "a" found in dir by makeInput.
func shotA(in, dir string) *triple.Triple {
	ext := ".tif"
	if dir != "." {
		ext = ".tiff"
	}
	d := filepath.Join(in, filepath.FromSlash(dir))
	return &triple.Triple{
		Stem:    "a",
		Dir:     dir,
		Visible: filepath.Join(d, "a-visible.jpg"),
		Raster:  filepath.Join(d, "a-radiometric"+ext),
	}
}

func assertEmpty(t *testing.T, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("%s: %d leftover files", dir, len(entries))
	}
}

func readDB(t *testing.T, l *Layout) map[string]*manifest.Record {
	var records map[string]*manifest.Record
	readJSON(t, l.Path(DataDir+"/"+manifest.DBFile), &records)
	return records
}

func readJSON(t *testing.T, p string, v any) {
	raw, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatal(err)
	}
}

func assertJPEGSize(t *testing.T, p string, w, h int) {
	f, err := os.Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != w || cfg.Height != h {
		t.Fatalf("%s: %dx%d; want %dx%d", p, cfg.Width, cfg.Height, w, h)
	}
}

func mkdir(t *testing.T, p string) {
	if err := os.MkdirAll(p, 0755); err != nil {
		t.Fatal(err)
	}
}

func write(t *testing.T, p string, b []byte) {
	if err := os.WriteFile(p, b, 0644); err != nil {
		t.Fatal(err)
	}
}
