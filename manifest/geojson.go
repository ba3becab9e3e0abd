// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package manifest

// FeatureCollection is a GeoJSON FeatureCollection of points.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a GeoJSON Feature.
type Feature struct {
	Type       string     `json:"type"`
	Geometry   Geometry   `json:"geometry"`
	Properties Properties `json:"properties"`
}

// Geometry is a GeoJSON Point.
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // [lon, lat]
}

// Properties is what the map popup displays.
type Properties struct {
	ID       string  `json:"id"`
	Camera   *string `json:"camera"`
	DateTime *string `json:"datetime"`
	Thumb    string  `json:"thumb"`
}

// Points returns one feature per record with a location, in manifest order.
func (m *Manifest) Points() *FeatureCollection {
	fc := &FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
	for _, r := range m.records {
		if r.GPS == nil {
			continue
		}
		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: [2]float64{r.GPS.Lon, r.GPS.Lat},
			},
			Properties: Properties{
				ID:       r.ID,
				Camera:   r.Camera,
				DateTime: r.DateTime,
				Thumb:    r.Thumb,
			},
		})
	}
	return fc
}
