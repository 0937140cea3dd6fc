// Package jpeglossless implements the reference JPEG Lossless (Process 14,
// Selection Value 1 and its sibling predictors 2-7) codec registered for
// transfer syntax 1.2.840.10008.1.2.4.70, grounded on the teacher pack's
// ITU-T T.81 Annex H decoder (other_examples' cocosip/go-dicom-codec
// lossless14sv1 decoder) and generalized from its single hardcoded
// predictor-1 path to the full predictor set spec §4.G requires, plus a
// matching encoder so the codec satisfies the package's lossless round-trip
// invariant.
package jpeglossless

// JPEG marker codes relevant to the lossless (non-DCT) subset of T.81.
const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOF3 = 0xC3 // Start of Frame, lossless, Huffman
	markerDHT  = 0xC4
	markerSOS  = 0xDA
	markerDRI  = 0xDD
	markerRST0 = 0xD0
	markerRST7 = 0xD7
)

func isRST(m byte) bool { return m >= markerRST0 && m <= markerRST7 }

// hasLength reports whether marker m is followed by a 2-byte length and
// payload, true for every marker except SOI/EOI and the RSTn restart
// markers, which are bare.
func hasLength(m byte) bool {
	if m == markerSOI || m == markerEOI || isRST(m) {
		return false
	}
	return true
}
