// Package charset resolves the DICOM SpecificCharacterSet (0008,0005)
// element into golang.org/x/text decoders, grounded on the teacher's
// dicom.go (parseSpecificCharacterSet) and the sibling fork's
// dicomio/charset.go, which split the same logic into its own package — the
// shape this module follows, since character decoding is cleanly separable
// from the stream cursor.
package charset

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
)

// CodingSystemType distinguishes the three decoder slots a PN value can use
// (spec §4.D "Options", Part2 Annex D.6.2). Only Japanese PN values ever
// populate all three; every other VR uses Ideographic alone.
type CodingSystemType int

const (
	Alphabetic CodingSystemType = iota
	Ideographic
	Phonetic
)

// CodingSystem holds up to three decoders selected by position within a
// SpecificCharacterSet value list.
type CodingSystem struct {
	Alphabetic  *encoding.Decoder
	Ideographic *encoding.Decoder
	Phonetic    *encoding.Decoder
}

// Decoder returns the decoder for t, or nil for the default (7-bit ASCII /
// UTF-8 passthrough) encoding.
func (cs CodingSystem) Decoder(t CodingSystemType) *encoding.Decoder {
	switch t {
	case Alphabetic:
		return cs.Alphabetic
	case Phonetic:
		return cs.Phonetic
	default:
		return cs.Ideographic
	}
}

var htmlEncodingNames = map[string]string{
	"ISO_IR 126": "iso-ir-126",
	"ISO_IR 144": "iso-ir-144",
	"ISO_IR 127": "iso-ir-127",
	"ISO_IR 138": "iso-ir-138",
	"ISO_IR 13":  "iso-ir-13",
	"ISO_IR 166": "iso-ir-166",
	"ISO_IR 148": "iso-ir-148",
}

// Resolve converts the value(s) of a SpecificCharacterSet element (spec §3,
// tag 0008,0005) into a CodingSystem. A single value populates all three
// slots with the same decoder; two values split Alphabetic from
// Ideographic/Phonetic; three assign each independently (Part3.5 6.1.2.3).
func Resolve(values []string) (CodingSystem, error) {
	var decoders []*encoding.Decoder
	for _, name := range values {
		d, err := decoderForName(name)
		if err != nil {
			return CodingSystem{}, err
		}
		decoders = append(decoders, d)
	}
	switch len(decoders) {
	case 0:
		return CodingSystem{}, nil
	case 1:
		return CodingSystem{decoders[0], decoders[0], decoders[0]}, nil
	case 2:
		return CodingSystem{decoders[0], decoders[1], decoders[1]}, nil
	default:
		return CodingSystem{decoders[0], decoders[1], decoders[2]}, nil
	}
}

func decoderForName(name string) (*encoding.Decoder, error) {
	if htmlName, ok := htmlEncodingNames[name]; ok {
		enc, err := htmlindex.Get(htmlName)
		if err != nil {
			return nil, fmt.Errorf("charset: %q: %w", name, err)
		}
		return enc.NewDecoder(), nil
	}
	switch name {
	case "", "ISO 2022 IR 6", "ISO_IR 100":
		if name == "ISO_IR 100" {
			return charmap.ISO8859_1.NewDecoder(), nil
		}
		return nil, nil // default 7-bit ASCII, no decoding needed
	case "ISO_IR 101":
		return charmap.ISO8859_2.NewDecoder(), nil
	case "ISO_IR 109":
		return charmap.ISO8859_3.NewDecoder(), nil
	case "ISO_IR 110":
		return charmap.ISO8859_4.NewDecoder(), nil
	case "ISO 2022 IR 13":
		return japanese.ShiftJIS.NewDecoder(), nil
	case "ISO 2022 IR 87", "ISO 2022 IR 159":
		return japanese.ISO2022JP.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("charset: unsupported specific character set %q", name)
	}
}

// Decode applies the appropriate decoder slot to raw bytes, returning the
// UTF-8 string. A nil decoder (default ASCII) passes the bytes through
// unchanged.
func Decode(cs CodingSystem, t CodingSystemType, raw []byte) (string, error) {
	d := cs.Decoder(t)
	if d == nil {
		return string(raw), nil
	}
	out, err := d.Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("charset: decode: %w", err)
	}
	return string(out), nil
}
