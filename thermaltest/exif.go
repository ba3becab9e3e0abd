// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermaltest

import (
	"encoding/binary"
)

// Rational is an unsigned EXIF RATIONAL, numerator then denominator.
type Rational [2]uint32

// DMS is a degree, minute, second triple.
type DMS [3]Rational

// Deg returns the DMS for whole degrees, minutes and seconds.
func Deg(d, m, s uint32) DMS {
	return DMS{{d, 1}, {m, 1}, {s, 1}}
}

// GPS is the GPS IFD content.
type GPS struct {
	LatRef string // "N" or "S"; omitted when empty.
	Lat    DMS
	LonRef string // "E" or "W"; omitted when empty.
	Lon    DMS
}

// Exif is the subset of tags embedded by EncodeJPEG. Empty fields are
// omitted.
type Exif struct {
	Make             string
	Model            string
	DateTime         string // "2006:01:02 15:04:05"
	DateTimeOriginal string
	GPS              *GPS
}

// TIFF field types.
const (
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

var le = binary.LittleEndian

func ascii(tag uint16, s string) entry {
	return entry{tag: tag, typ: typeASCII, count: uint32(len(s) + 1), data: append([]byte(s), 0)}
}

func short(tag uint16, v uint16) entry {
	return entry{tag: tag, typ: typeShort, count: 1, data: le.AppendUint16(nil, v)}
}

func long(tag uint16, v uint32) entry {
	b := make([]byte, 4)
	le.PutUint32(b, v)
	return entry{tag: tag, typ: typeLong, count: 1, data: b}
}

func rationals(tag uint16, d DMS) entry {
	b := make([]byte, 0, 24)
	for _, r := range d {
		b = le.AppendUint32(b, r[0])
		b = le.AppendUint32(b, r[1])
	}
	return entry{tag: tag, typ: typeRational, count: 3, data: b}
}

// ifdLen returns the size of the IFD including its out of line values.
func ifdLen(entries []entry) int {
	n := 2 + 12*len(entries) + 4
	for _, e := range entries {
		if len(e.data) > 4 {
			n += (len(e.data) + 1) &^ 1
		}
	}
	return n
}

// appendIFD serializes an IFD located at offset off in the TIFF stream.
func appendIFD(b []byte, entries []entry, off int) []byte {
	b = le.AppendUint16(b, uint16(len(entries)))
	extra := off + 2 + 12*len(entries) + 4
	var tail []byte
	for _, e := range entries {
		b = le.AppendUint16(b, e.tag)
		b = le.AppendUint16(b, e.typ)
		b = le.AppendUint32(b, e.count)
		if len(e.data) <= 4 {
			var v [4]byte
			copy(v[:], e.data)
			b = append(b, v[:]...)
			continue
		}
		b = le.AppendUint32(b, uint32(extra+len(tail)))
		tail = append(tail, e.data...)
		if len(e.data)&1 != 0 {
			tail = append(tail, 0)
		}
	}
	// No next IFD.
	b = le.AppendUint32(b, 0)
	return append(b, tail...)
}

// tiff returns the little endian TIFF stream holding the tags.
func (x *Exif) tiff() []byte {
	var ifd0, exifIFD, gpsIFD []entry
	if x.Make != "" {
		ifd0 = append(ifd0, ascii(0x010F, x.Make))
	}
	if x.Model != "" {
		ifd0 = append(ifd0, ascii(0x0110, x.Model))
	}
	if x.DateTime != "" {
		ifd0 = append(ifd0, ascii(0x0132, x.DateTime))
	}
	if x.DateTimeOriginal != "" {
		exifIFD = append(exifIFD, ascii(0x9003, x.DateTimeOriginal))
	}
	if g := x.GPS; g != nil {
		if g.LatRef != "" {
			gpsIFD = append(gpsIFD, ascii(0x0001, g.LatRef))
		}
		gpsIFD = append(gpsIFD, rationals(0x0002, g.Lat))
		if g.LonRef != "" {
			gpsIFD = append(gpsIFD, ascii(0x0003, g.LonRef))
		}
		gpsIFD = append(gpsIFD, rationals(0x0004, g.Lon))
	}

	// Pointers are fixed size so the layout can be computed before their
	// value is known.
	n0 := len(ifd0)
	if len(exifIFD) != 0 {
		ifd0 = append(ifd0, long(0x8769, 0))
	}
	if len(gpsIFD) != 0 {
		ifd0 = append(ifd0, long(0x8825, 0))
	}
	const ifd0Off = 8
	exifOff := ifd0Off + ifdLen(ifd0)
	gpsOff := exifOff
	if len(exifIFD) != 0 {
		gpsOff += ifdLen(exifIFD)
	}
	i := n0
	if len(exifIFD) != 0 {
		le.PutUint32(ifd0[i].data, uint32(exifOff))
		i++
	}
	if len(gpsIFD) != 0 {
		le.PutUint32(ifd0[i].data, uint32(gpsOff))
	}

	b := []byte{'I', 'I', 42, 0, ifd0Off, 0, 0, 0}
	b = appendIFD(b, ifd0, ifd0Off)
	if len(exifIFD) != 0 {
		b = appendIFD(b, exifIFD, exifOff)
	}
	if len(gpsIFD) != 0 {
		b = appendIFD(b, gpsIFD, gpsOff)
	}
	return b
}

// app1 returns the complete APP1 marker segment.
func (x *Exif) app1() []byte {
	payload := append([]byte("Exif\x00\x00"), x.tiff()...)
	b := []byte{0xFF, 0xE1}
	b = binary.BigEndian.AppendUint16(b, uint16(len(payload)+2))
	return append(b, payload...)
}
