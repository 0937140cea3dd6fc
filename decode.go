package dicom

import (
	"encoding/binary"
	"math"

	"github.com/lucidhealth/dicom/charset"
)

// decodeElementValue turns raw wire bytes for (tag, vr) into the appropriate
// Element variant (spec §9 "Polymorphic element hierarchy"). The reader's
// ByteOrder has been applied to the *header* fields only; the *value* bytes
// for multi-byte numeric VRs are still in the stream's byte order, so
// numeric values are decoded with bo (spec §6 "Explicit VR BE").
func decodeElementValue(tag Tag, vr VR, raw []byte, bo binary.ByteOrder, specificCharacterSet []string) (Element, error) {
	switch vr.Class() {
	case ClassString:
		s := trimPad(raw, vr)
		values := splitBackslash(s)
		if vr == PN || vr == LO || vr == LT || vr == SH || vr == ST || vr == UT || vr == UC {
			cs, err := charset.Resolve(specificCharacterSet)
			if err == nil {
				for i, v := range values {
					if decoded, err := charset.Decode(cs, charset.Ideographic, []byte(v)); err == nil {
						values[i] = decoded
					}
				}
			}
		}
		return NewStringElement(tag, vr, values...), nil
	case ClassNumeric:
		return decodeNumeric(tag, vr, raw, bo), nil
	default:
		return NewBinaryElement(tag, vr, raw), nil
	}
}

// decodeNumeric decodes raw into a NumericElement using the active
// transfer-syntax byte order (spec §6 "Explicit VR BE": multibyte integer
// *and* numeric value fields are big-endian under that syntax, not just the
// header).
func decodeNumeric(tag Tag, vr VR, raw []byte, bo binary.ByteOrder) *NumericElement {
	e := &NumericElement{tag: tag, vr: vr}
	switch vr {
	case US:
		for i := 0; i+2 <= len(raw); i += 2 {
			e.Uint16s = append(e.Uint16s, bo.Uint16(raw[i:]))
		}
	case UL:
		for i := 0; i+4 <= len(raw); i += 4 {
			e.Uint32s = append(e.Uint32s, bo.Uint32(raw[i:]))
		}
	case SS:
		for i := 0; i+2 <= len(raw); i += 2 {
			e.Int16s = append(e.Int16s, int16(bo.Uint16(raw[i:])))
		}
	case SL:
		for i := 0; i+4 <= len(raw); i += 4 {
			e.Int32s = append(e.Int32s, int32(bo.Uint32(raw[i:])))
		}
	case FL:
		for i := 0; i+4 <= len(raw); i += 4 {
			e.Float32 = append(e.Float32, math.Float32frombits(bo.Uint32(raw[i:])))
		}
	case FD:
		for i := 0; i+8 <= len(raw); i += 8 {
			e.Float64 = append(e.Float64, math.Float64frombits(bo.Uint64(raw[i:])))
		}
	case AT:
		for i := 0; i+4 <= len(raw); i += 4 {
			e.Tags = append(e.Tags, Tag{
				Group:   bo.Uint16(raw[i:]),
				Element: bo.Uint16(raw[i+2:]),
			})
		}
	}
	return e
}
