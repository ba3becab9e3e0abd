// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package manifest aggregates processed shots into the site database and its
// point feature collection.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// Namespace is the UUID namespace of shot ids.
var Namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/maruel/go-thermal/shot"))

// ShotID returns the stable id of the shot stem found in dir, a slash
// separated path relative to the input root.
//
// Equal stems in different directories get different ids.
func ShotID(dir, stem string) string {
	return uuid.NewSHA1(Namespace, []byte(dir+"/"+stem)).String()
}

// Size is the raster dimensions in pixels.
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Location is in signed decimal degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Temp summarizes the temperature grid, in °C.
type Temp struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Record is the entry of one shot in db.json.
//
// Paths are relative to the site root. Nil pointers are serialized as null.
type Record struct {
	ID           string    `json:"id"`
	Stem         string    `json:"stem"`
	Source       string    `json:"source"`
	RGB          *string   `json:"rgb"`
	RGBHash      *string   `json:"rgb_hash"`
	ThermalColor string    `json:"thermal_color"`
	ThermalDN    string    `json:"thermal_dn"`
	Thumb        string    `json:"thumb"`
	Size         Size      `json:"size"`
	Camera       *string   `json:"camera"`
	DateTime     *string   `json:"datetime"`
	GPS          *Location `json:"gps"`
	Temp         *Temp     `json:"temp"`
}

// Optional returns nil for the empty string, &s otherwise.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// NewTemp returns nil if any value is not finite, since JSON can't represent
// it.
func NewTemp(min, max, mean float64) *Temp {
	for _, v := range []float64{min, max, mean} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
	}
	return &Temp{Min: min, Max: max, Mean: mean}
}

// Manifest is an ordered collection of records keyed by id.
type Manifest struct {
	records []*Record
	index   map[string]int
}

// New returns an empty Manifest.
func New() *Manifest {
	return &Manifest{index: map[string]int{}}
}

// Build sorts the records by stem then source and adds them in this order.
//
// It is the single reduction step of a run; records may be passed in
// completion order.
func Build(records []*Record) (*Manifest, error) {
	sorted := make([]*Record, 0, len(records))
	for _, r := range records {
		if r != nil {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Stem != sorted[j].Stem {
			return sorted[i].Stem < sorted[j].Stem
		}
		return sorted[i].Source < sorted[j].Source
	})
	m := New()
	for _, r := range sorted {
		if err := m.Add(r); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Add appends a record. Ids must be unique.
func (m *Manifest) Add(r *Record) error {
	if r.ID == "" {
		return fmt.Errorf("%s/%s: record without id", r.Source, r.Stem)
	}
	if _, ok := m.index[r.ID]; ok {
		return fmt.Errorf("duplicate shot id %s", r.ID)
	}
	m.index[r.ID] = len(m.records)
	m.records = append(m.records, r)
	return nil
}

// Get returns the record with this id or nil.
func (m *Manifest) Get(id string) *Record {
	if i, ok := m.index[id]; ok {
		return m.records[i]
	}
	return nil
}

// Records returns the records in order. The slice must not be modified.
func (m *Manifest) Records() []*Record {
	return m.records
}

// Len returns the number of records.
func (m *Manifest) Len() int {
	return len(m.records)
}

// MarshalJSON returns an object keyed by id, preserving the record order.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range m.records {
		if i != 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(r.ID)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.ID, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// File names written by WriteFiles.
const (
	DBFile     = "db.json"
	PointsFile = "points.geojson"
)

// WriteFiles writes db.json and points.geojson into dir and returns the number
// of bytes written.
func (m *Manifest) WriteFiles(dir string) (int64, error) {
	n1, err := writeJSON(filepath.Join(dir, DBFile), m)
	if err != nil {
		return n1, err
	}
	n2, err := writeJSON(filepath.Join(dir, PointsFile), m.Points())
	return n1 + n2, err
}

//

func writeJSON(path string, v any) (int64, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return 0, err
	}
	buf.WriteByte('\n')
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return 0, err
	}
	return int64(buf.Len()), nil
}
