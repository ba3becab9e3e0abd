// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package manifest

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteFile is the name of the optional shot index.
const SQLiteFile = "shots.sqlite"

const schema = `
	CREATE TABLE IF NOT EXISTS shots (
		id TEXT PRIMARY KEY,
		stem TEXT NOT NULL,
		source TEXT NOT NULL,
		rgb TEXT,
		rgb_hash TEXT,
		thermal_color TEXT NOT NULL,
		thermal_dn TEXT NOT NULL,
		thumb TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		camera TEXT,
		datetime TEXT,
		lat REAL,
		lon REAL,
		tmin REAL,
		tmax REAL,
		tmean REAL,
		ord INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS shots_ord ON shots(ord);
`

// WriteSQLite writes the records into the shots table of the SQLite database
// at path, in a single transaction. ord is the manifest order.
func (m *Manifest) WriteSQLite(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO shots
		(id, stem, source, rgb, rgb_hash, thermal_color, thermal_dn, thumb, width, height, camera, datetime, lat, lon, tmin, tmax, tmean, ord)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for i, r := range m.records {
		var lat, lon, tmin, tmax, tmean sql.NullFloat64
		if r.GPS != nil {
			lat = sql.NullFloat64{Float64: r.GPS.Lat, Valid: true}
			lon = sql.NullFloat64{Float64: r.GPS.Lon, Valid: true}
		}
		if r.Temp != nil {
			tmin = sql.NullFloat64{Float64: r.Temp.Min, Valid: true}
			tmax = sql.NullFloat64{Float64: r.Temp.Max, Valid: true}
			tmean = sql.NullFloat64{Float64: r.Temp.Mean, Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			r.ID, r.Stem, r.Source, nullString(r.RGB), nullString(r.RGBHash),
			r.ThermalColor, r.ThermalDN, r.Thumb, r.Size.W, r.Size.H,
			nullString(r.Camera), nullString(r.DateTime),
			lat, lon, tmin, tmax, tmean, i)
		if err != nil {
			return fmt.Errorf("insert %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
