// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermaltest

// GrayTIFF returns an uncompressed little endian 16 bits single band TIFF
// holding the DN values of a 1 pixel high raster.
//
// photometric is the PhotometricInterpretation tag value, 1 being
// BlackIsZero. A zero sampleFormat omits the SampleFormat tag.
func GrayTIFF(dns []uint16, photometric, sampleFormat uint16) []byte {
	pix := make([]byte, 0, 2*len(dns))
	for _, d := range dns {
		pix = le.AppendUint16(pix, d)
	}
	entries := []entry{
		long(256, uint32(len(dns))),
		long(257, 1),
		short(258, 16),
		short(259, 1),
		short(262, photometric),
		long(273, 0),
		short(277, 1),
		long(278, 1),
		long(279, uint32(len(pix))),
	}
	if sampleFormat != 0 {
		entries = append(entries, short(339, sampleFormat))
	}
	const ifdOff = 8
	// StripOffsets: the pixels follow the IFD.
	le.PutUint32(entries[5].data, uint32(ifdOff+ifdLen(entries)))
	b := []byte{'I', 'I', 42, 0, ifdOff, 0, 0, 0}
	b = appendIFD(b, entries, ifdOff)
	return append(b, pix...)
}
