package dicomio

import (
	"encoding/binary"
	"fmt"
)

// Reader is a zero-copy, stack-bound cursor over a single contiguous byte
// window (spec §4.D, §9 "Zero-copy stack-bound reader"). It never
// heap-allocates and never retains any data beyond the caller-provided
// window; every returned []byte is a sub-slice of that window and must be
// copied out (Retain, at the Element layer) before the window is reclaimed
// or a suspension point is crossed (spec §5).
type Reader struct {
	buf          []byte
	pos          int
	bo           binary.ByteOrder
	explicitVR   bool
	invalidVR    InvalidVRPolicy
	maxLength    uint32 // 0 means unbounded
}

// NewReader wraps buf for decoding under the given endianness and explicit/
// implicit VR mode.
func NewReader(buf []byte, bo binary.ByteOrder, explicitVR bool, opts Options) *Reader {
	return &Reader{
		buf:        buf,
		bo:         bo,
		explicitVR: explicitVR,
		invalidVR:  opts.InvalidVR,
		maxLength:  opts.MaxLength,
	}
}

// SetEncoding switches endianness/VR mode mid-stream, used when the Part-10
// framer hands off from FMI (always explicit-VR LE) to the dataset transfer
// syntax.
func (r *Reader) SetEncoding(bo binary.ByteOrder, explicitVR bool) {
	r.bo, r.explicitVR = bo, explicitVR
}

// Pos returns the current cursor offset within the window.
func (r *Reader) Pos() int64 { return int64(r.pos) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// AtEnd reports whether the cursor has consumed the whole window.
func (r *Reader) AtEnd() bool { return r.pos >= len(r.buf) }

// Peek returns the next n bytes without advancing the cursor. Returns
// ErrTruncated if fewer than n bytes remain.
func (r *Reader) Peek(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, ErrTruncated
	}
	return r.buf[r.pos : r.pos+n], nil
}

// Skip advances the cursor by n bytes without returning them.
func (r *Reader) Skip(n int) error {
	if r.Remaining() < n {
		return ErrTruncated
	}
	r.pos += n
	return nil
}

// ReadBytes returns the next n bytes and advances the cursor. The returned
// slice aliases the reader's window (zero-copy); see the Reader doc comment.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.Peek(n)
	if err != nil {
		return nil, err
	}
	r.pos += n
	return b, nil
}

// ReadUint16 reads one 16-bit integer in the reader's byte order.
func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return r.bo.Uint16(b), nil
}

// ReadUint32 reads one 32-bit integer in the reader's byte order.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return r.bo.Uint32(b), nil
}

// CheckDICMPrefix consumes 4 bytes and reports whether they spell "DICM"
// (spec §4.E). The cursor advances regardless of the result.
func (r *Reader) CheckDICMPrefix() (bool, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return false, err
	}
	return string(b) == "DICM", nil
}

// UndefinedLength is the sentinel 0xFFFFFFFF value (spec §4.D "Undefined
// length").
const UndefinedLength uint32 = 0xFFFFFFFF

// ElementHeader is the decoded result of TryReadElementHeader.
type ElementHeader struct {
	Tag       Tag
	VR        string // "" under implicit VR; resolved by the caller via the dictionary
	Length    uint32
	HeaderLen int // bytes consumed by the header itself
}

// Tag mirrors dicom.Tag without importing the root package (which imports
// dicomio for its stream operations); the two are structurally identical
// and the file/root package converts between them at the boundary.
type Tag struct {
	Group   uint16
	Element uint16
}

func (t Tag) IsItemGroup() bool { return t.Group == 0xFFFE }

// TryReadElementHeader decodes one element header (spec §4.D "Header
// format"). Under explicit VR, it reads tag(4) + VR(2), then either a
// 2-byte or 4-byte length depending on whether vr uses the long form; item
// tags (group 0xFFFE) are always implicit-form (tag+length only), even
// inside an otherwise explicit-VR stream, since items carry no VR of their
// own.
func (r *Reader) TryReadElementHeader(resolveVR func(tag Tag) (string, bool)) (ElementHeader, error) {
	start := r.pos
	g, err := r.ReadUint16()
	if err != nil {
		return ElementHeader{}, err
	}
	e, err := r.ReadUint16()
	if err != nil {
		return ElementHeader{}, err
	}
	tag := Tag{Group: g, Element: e}

	if !r.explicitVR || tag.IsItemGroup() {
		length, err := r.ReadUint32()
		if err != nil {
			return ElementHeader{}, err
		}
		if err := r.checkLength(length); err != nil {
			return ElementHeader{}, err
		}
		vr := ""
		if resolveVR != nil {
			vr, _ = resolveVR(tag)
		}
		return ElementHeader{Tag: tag, VR: vr, Length: length, HeaderLen: r.pos - start}, nil
	}

	vrBytes, err := r.ReadBytes(2)
	if err != nil {
		return ElementHeader{}, err
	}
	vr := string(vrBytes)
	long := vrHasLongLength(vr)
	if !validVR(vr) {
		switch r.invalidVR {
		case InvalidVRThrow:
			return ElementHeader{}, fmt.Errorf("%w: %q at %s", ErrInvalidVR, vr, tagString(tag))
		case InvalidVRMapToUN:
			vr = "UN"
		case InvalidVRPreserve:
			// keep the bytes as read
		}
	}
	if long {
		if err := r.Skip(2); err != nil { // reserved
			return ElementHeader{}, err
		}
		length, err := r.ReadUint32()
		if err != nil {
			return ElementHeader{}, err
		}
		if err := r.checkLength(length); err != nil {
			return ElementHeader{}, err
		}
		return ElementHeader{Tag: tag, VR: vr, Length: length, HeaderLen: r.pos - start}, nil
	}
	length16, err := r.ReadUint16()
	if err != nil {
		return ElementHeader{}, err
	}
	length := uint32(length16)
	if err := r.checkLength(length); err != nil {
		return ElementHeader{}, err
	}
	return ElementHeader{Tag: tag, VR: vr, Length: length, HeaderLen: r.pos - start}, nil
}

func (r *Reader) checkLength(length uint32) error {
	if length == UndefinedLength {
		return nil
	}
	if r.maxLength != 0 && length > r.maxLength {
		return ErrLengthLimitExceeded
	}
	if uint64(length) > uint64(r.Remaining()) {
		return ErrTruncated
	}
	return nil
}

// TryReadValue returns the next `length` bytes as the element's value
// window, zero-copy. Callers must not call this with UndefinedLength; that
// case (sequences and encapsulated pixel data) is handled by the file
// reader's item/delimiter scanning (spec §4.D).
func (r *Reader) TryReadValue(length uint32) ([]byte, error) {
	if length == UndefinedLength {
		return nil, fmt.Errorf("dicomio: TryReadValue called with undefined length")
	}
	return r.ReadBytes(int(length))
}

func tagString(t Tag) string {
	return fmt.Sprintf("(%04X,%04X)", t.Group, t.Element)
}

var longFormVRs = map[string]bool{
	"OB": true, "OD": true, "OF": true, "OL": true, "OV": true, "OW": true,
	"SQ": true, "SV": true, "UC": true, "UN": true, "UR": true, "UT": true, "UV": true,
}

func vrHasLongLength(vr string) bool { return longFormVRs[vr] }

var knownVRs = map[string]bool{
	"AE": true, "AS": true, "AT": true, "CS": true, "DA": true, "DS": true,
	"DT": true, "FL": true, "FD": true, "IS": true, "LO": true, "LT": true,
	"OB": true, "OD": true, "OF": true, "OL": true, "OV": true, "OW": true,
	"PN": true, "SH": true, "SL": true, "SQ": true, "SS": true, "ST": true,
	"SV": true, "TM": true, "UC": true, "UI": true, "UL": true, "UN": true,
	"UR": true, "US": true, "UT": true, "UV": true,
}

func validVR(vr string) bool { return knownVRs[vr] }
