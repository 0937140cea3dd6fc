package dicom

import (
	"encoding/binary"
	"fmt"

	"github.com/lucidhealth/dicom/dicomio"
)

// FileMetaMode and PreambleMode re-export dicomio's option enums under the
// root package, since callers configure Part-10 parsing without importing
// the stream-cursor package directly.
type PreambleMode = dicomio.PreambleMode
type FileMetaMode = dicomio.FileMetaMode

const (
	PreambleRequire  = dicomio.PreambleRequire
	PreambleOptional = dicomio.PreambleOptional
	PreambleIgnore   = dicomio.PreambleIgnore

	FileMetaRequire  = dicomio.FileMetaRequire
	FileMetaOptional = dicomio.FileMetaOptional
	FileMetaIgnore   = dicomio.FileMetaIgnore
)

// FileMeta is the result of framing a Part-10 stream (spec §4.E): preamble
// bytes (preserved byte-for-byte on round trip), the presence of the DICM
// magic, the File Meta Information dataset (group 0x0002), the resolved
// transfer syntax and the byte offset where the dataset proper begins.
type FileMeta struct {
	Preamble   []byte // nil if absent
	HasPreamble bool
	HasDICM    bool
	Dataset    *Dataset // group-0002 elements only
	TransferSyntax TransferSyntax
	DatasetStart int64 // offset, relative to the start of the original input, where the dataset begins
}

// ParseFileMeta implements the policy table of spec §4.E. buf is the whole
// input (or at least its first ~132+ bytes plus the FMI group); the
// remainder after DatasetStart is the dataset in FileMeta.TransferSyntax.
func ParseFileMeta(buf []byte, preambleMode PreambleMode, fileMetaMode FileMetaMode) (*FileMeta, error) {
	fm := &FileMeta{}
	pos := int64(0)

	hasPreambleRegion := len(buf) >= 132
	if hasPreambleRegion {
		candidateDICM := string(buf[128:132])
		if candidateDICM == "DICM" {
			fm.Preamble = buf[:128]
			fm.HasPreamble = true
			fm.HasDICM = true
			pos = 132
		}
	}

	if !fm.HasDICM {
		switch preambleMode {
		case PreambleRequire:
			return nil, fmt.Errorf("%w", ErrMissingPreamble)
		case PreambleOptional:
			// Decision pinned by SPEC_FULL.md open question 1: whenever DICM
			// was not found at offset 128 (a short input, or a 128-byte
			// region not followed by DICM), the stream is read from offset
			// 0: first the "looks like group 0008" heuristic, then a DICM
			// magic at offset 0.
			if looksLikeGroup0008(buf) {
				pos = 0
			} else if len(buf) >= 4 && string(buf[0:4]) == "DICM" {
				fm.HasDICM = true
				pos = 4
			} else {
				pos = 0
			}
		case PreambleIgnore:
			pos = 0
		}
	}

	if fileMetaMode == dicomio.FileMetaIgnore {
		fm.TransferSyntax, _ = ResolveTransferSyntax(ImplicitVRLittleEndian)
		fm.DatasetStart = pos
		fm.Dataset = NewDataset()
		return fm, nil
	}

	ds, consumed, err := parseFileMetaGroup(buf[pos:])
	if err != nil {
		if fileMetaMode == dicomio.FileMetaRequire {
			return nil, fmt.Errorf("%w: %v", ErrMissingFileMeta, err)
		}
		// optional: synthesize the default transfer syntax and treat
		// whatever follows as a raw dataset.
		fm.TransferSyntax, _ = ResolveTransferSyntax(ImplicitVRLittleEndian)
		fm.Dataset = NewDataset()
		fm.DatasetStart = pos
		return fm, nil
	}
	fm.Dataset = ds
	fm.DatasetStart = pos + int64(consumed)

	tsuid := ImplicitVRLittleEndian
	if e, ok := ds.Get(TagTransferSyntaxUID); ok {
		if se, ok := e.(*StringElement); ok && len(se.Values) > 0 {
			tsuid = se.Values[0]
		}
	}
	ts, err := ResolveTransferSyntax(tsuid)
	if err != nil {
		return nil, err
	}
	fm.TransferSyntax = ts
	return fm, nil
}

// looksLikeGroup0008 is the lenient-mode heuristic of spec §4.E: does the
// stream, read from offset 0 as an explicit-VR LE element header, look like
// a well-formed group-0008 element? This is necessarily a heuristic (spec
// §9 Open Questions); we require group 0x0008 and a plausible two-letter
// VR. The element's length field is not checked.
func looksLikeGroup0008(buf []byte) bool {
	if len(buf) < 8 {
		return false
	}
	group := binary.LittleEndian.Uint16(buf[0:2])
	if group != 0x0008 {
		return false
	}
	vr := string(buf[4:6])
	if !validVRString(vr) {
		return false
	}
	return true
}

func validVRString(vr string) bool {
	switch VR(vr) {
	case AE, AS, AT, CS, DA, DS, DT, FL, FD, IS, LO, LT, OB, OD, OF, OL, OV, OW,
		PN, SH, SL, SQ, SS, ST, SV, TM, UC, UI, UL, UN, UR, US, UT, UV:
		return true
	}
	return false
}

// parseFileMetaGroup decodes the group-0002 elements in explicit-VR little
// endian, the sole mandated FMI encoding (spec §4.E). It stops at the first
// non-0002 group, or at the boundary implied by the group length element if
// present.
func parseFileMetaGroup(buf []byte) (*Dataset, int, error) {
	ds := NewDataset()
	r := dicomio.NewReader(buf, binary.LittleEndian, true, dicomio.DefaultOptions())

	var groupLength uint32
	haveGroupLength := false
	groupBodyStart := int64(-1) // position right after the group-length element, once seen

	for !r.AtEnd() {
		startPos := r.Pos()
		if haveGroupLength && startPos-groupBodyStart >= int64(groupLength) {
			break
		}
		peeked, err := r.Peek(2)
		if err != nil {
			break
		}
		group := binary.LittleEndian.Uint16(peeked)
		if group != 0x0002 {
			break
		}
		h, err := r.TryReadElementHeader(nil)
		if err != nil {
			return ds, int(startPos), err
		}
		if h.Length == dicomio.UndefinedLength {
			return ds, int(startPos), fmt.Errorf("dicom: FMI element %s has undefined length", h.Tag)
		}
		valueBytes, err := r.TryReadValue(h.Length)
		if err != nil {
			return ds, int(startPos), err
		}
		owned := append([]byte(nil), valueBytes...)
		tag := Tag{Group: h.Tag.Group, Element: h.Tag.Element}
		elem := decodeStringOrBinary(tag, VR(h.VR), owned)
		ds.Put(elem)
		if tag == TagFileMetaInformationGroupLength {
			groupLength = binary.LittleEndian.Uint32(owned)
			haveGroupLength = true
			groupBodyStart = r.Pos()
		}
	}
	return ds, int(r.Pos()), nil
}

// decodeStringOrBinary renders an FMI value as a StringElement for string
// VRs (UI, SH, AE, ...) or a BinaryElement otherwise (OB for
// FileMetaInformationVersion). FMI never carries numeric or sequence VRs in
// practice.
func decodeStringOrBinary(tag Tag, vr VR, raw []byte) Element {
	if vr.Class() == ClassString {
		return NewStringElement(tag, vr, splitBackslash(trimPad(raw, vr))...)
	}
	return NewBinaryElement(tag, vr, raw)
}

func trimPad(b []byte, vr VR) string {
	s := string(b)
	pad := vr.PadByte()
	for len(s) > 0 && s[len(s)-1] == pad {
		s = s[:len(s)-1]
	}
	if pad == 0 { // UI pads with NUL but PadByte() for UI is 0
		for len(s) > 0 && s[len(s)-1] == 0 {
			s = s[:len(s)-1]
		}
	}
	return s
}

func splitBackslash(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
