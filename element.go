package dicom

import (
	"fmt"
	"math"
)

// Element is the common contract shared by every element variant (spec §9
// "Polymorphic element hierarchy"): a tagged variant of
// {String, Numeric, Binary, Sequence, FragmentedPixelData} behind one small
// interface, reserving virtual dispatch for the pixel-data codec trait
// rather than for the element hierarchy itself.
type Element interface {
	Tag() Tag
	VR() VR
	Length() uint32
	// Bytes returns the raw, wire-format value bytes. For StringElement and
	// NumericElement this is computed on demand; for BinaryElement it may be
	// a borrowed window (see Retain).
	Bytes() []byte
	// Retain promotes any borrowed byte window into owned storage, so the
	// element can safely outlive the buffer it was parsed from (spec §3
	// "Lifecycles", §5 "Buffer ownership").
	Retain()
	fmt.Stringer
}

// StringElement holds one or more string-VR values (PN, LO, SH, CS, UI, DA,
// TM, DS, IS, AE, ...).
type StringElement struct {
	tag    Tag
	vr     VR
	Values []string
}

func NewStringElement(tag Tag, vr VR, values ...string) *StringElement {
	return &StringElement{tag: tag, vr: vr, Values: values}
}

func (e *StringElement) Tag() Tag  { return e.tag }
func (e *StringElement) VR() VR    { return e.vr }
func (e *StringElement) Retain()   {}

func (e *StringElement) Length() uint32 {
	return uint32(len(e.Bytes()))
}

func (e *StringElement) Bytes() []byte {
	joined := ""
	for i, v := range e.Values {
		if i > 0 {
			joined += "\\"
		}
		joined += v
	}
	b := []byte(joined)
	if len(b)%2 == 1 {
		b = append(b, e.vr.PadByte())
	}
	return b
}

func (e *StringElement) String() string {
	return fmt.Sprintf("%s %s %v", e.tag, e.vr, e.Values)
}

// NumericElement holds a fixed-width numeric VR (US, UL, SS, SL, FL, FD, AT,
// OV/SV/UV). Values are stored as a Go slice of the natural width; Bytes()
// encodes them little-endian (callers needing big-endian must use the
// Stream writer directly, which re-encodes per the active transfer syntax).
type NumericElement struct {
	tag Tag
	vr  VR
	// Exactly one of the following is populated, chosen by vr.
	Uint16s []uint16
	Uint32s []uint32
	Int16s  []int16
	Int32s  []int32
	Float32 []float32
	Float64 []float64
	Tags    []Tag // AT
}

func (e *NumericElement) Tag() Tag { return e.tag }
func (e *NumericElement) VR() VR   { return e.vr }
func (e *NumericElement) Retain()  {}

func (e *NumericElement) Length() uint32 {
	n := len(e.Uint16s) + len(e.Int16s)
	n2 := len(e.Uint32s) + len(e.Int32s) + len(e.Float32) + len(e.Tags)
	n3 := len(e.Float64)
	return uint32(n*2 + n2*4 + n3*8)
}

func (e *NumericElement) Bytes() []byte {
	// Encoded lazily by the writer (dicomio), which knows the active byte
	// order; Bytes() here returns a little-endian rendering for callers that
	// just want a byte view (e.g. hashing in tests).
	w := newByteEncoder()
	switch e.vr {
	case US:
		for _, v := range e.Uint16s {
			w.u16(v)
		}
	case UL:
		for _, v := range e.Uint32s {
			w.u32(v)
		}
	case SS:
		for _, v := range e.Int16s {
			w.u16(uint16(v))
		}
	case SL:
		for _, v := range e.Int32s {
			w.u32(uint32(v))
		}
	case FL:
		for _, v := range e.Float32 {
			w.f32(v)
		}
	case FD:
		for _, v := range e.Float64 {
			w.f64(v)
		}
	case AT:
		for _, t := range e.Tags {
			w.u16(t.Group)
			w.u16(t.Element)
		}
	}
	return w.buf
}

func (e *NumericElement) String() string {
	return fmt.Sprintf("%s %s (numeric, %d bytes)", e.tag, e.vr, e.Length())
}

// BinaryElement holds an opaque byte-string VR (OB, OW, OD, OF, OL, OV, UN)
// outside of PixelData, which uses PixelDataElement instead.
type BinaryElement struct {
	tag     Tag
	vr      VR
	data    []byte
	pooled  bool // true if data aliases a pooled buffer and must be Retain()ed
	owner   *pooledBuffer
}

func NewBinaryElement(tag Tag, vr VR, data []byte) *BinaryElement {
	return &BinaryElement{tag: tag, vr: vr, data: data}
}

func (e *BinaryElement) Tag() Tag       { return e.tag }
func (e *BinaryElement) VR() VR         { return e.vr }
func (e *BinaryElement) Length() uint32 { return uint32(len(e.data)) }
func (e *BinaryElement) Bytes() []byte  { return e.data }

func (e *BinaryElement) Retain() {
	if !e.pooled {
		return
	}
	owned := make([]byte, len(e.data))
	copy(owned, e.data)
	e.data = owned
	e.pooled = false
	e.owner = nil
}

func (e *BinaryElement) String() string {
	return fmt.Sprintf("%s %s (%d bytes)", e.tag, e.vr, len(e.data))
}

// pooledBuffer is a ring-buffer slot a BinaryElement may borrow from (spec
// §4.F, §5 "Buffer ownership"). It is a marker type only: no ring buffer
// exists in this module, and the dicomio package hands out slices of its
// in-memory input rather than ring-buffer slots.
type pooledBuffer struct{}

// SequenceElement holds nested datasets (VR=SQ).
type SequenceElement struct {
	tag             Tag
	Items           []*Dataset
	UndefinedLength bool
}

func NewSequenceElement(tag Tag, items ...*Dataset) *SequenceElement {
	return &SequenceElement{tag: tag, Items: items}
}

func (e *SequenceElement) Tag() Tag  { return e.tag }
func (e *SequenceElement) VR() VR    { return SQ }
func (e *SequenceElement) Retain()   {}

func (e *SequenceElement) Length() uint32 {
	if e.UndefinedLength {
		return 0xFFFFFFFF
	}
	var n uint32
	for range e.Items {
		n += 8 // item header; body length added by the writer per item
	}
	return n
}

func (e *SequenceElement) Bytes() []byte { return nil }

func (e *SequenceElement) String() string {
	return fmt.Sprintf("%s SQ (%d items)", e.tag, len(e.Items))
}

// PixelFragment is one item of an encapsulated PixelData fragment sequence
// (spec §3 "Transfer syntax", §4.F "Pixel data").
type PixelFragment struct {
	Data []byte
}

// PixelDataElement is the fragment-sequence variant of PixelData under an
// encapsulated (compressed) transfer syntax. Native pixel data instead uses
// a plain BinaryElement (OW/OB).
type PixelDataElement struct {
	tag               Tag
	vr                VR
	BasicOffsetTable  []uint32 // byte offsets into the concatenated frame stream; may be empty
	Fragments         []PixelFragment
}

// NewEncapsulatedPixelData constructs a PixelDataElement with tag
// (7FE0,0010), VR OB, and the given Basic Offset Table; fragments are
// appended to the returned element's Fragments field.
func NewEncapsulatedPixelData(basicOffsetTable []uint32) *PixelDataElement {
	return &PixelDataElement{
		tag:              TagPixelData,
		vr:               OB,
		BasicOffsetTable: basicOffsetTable,
	}
}

func (e *PixelDataElement) Tag() Tag { return e.tag }
func (e *PixelDataElement) VR() VR   { return e.vr }
func (e *PixelDataElement) Retain()  {}

func (e *PixelDataElement) Length() uint32 { return 0xFFFFFFFF }

func (e *PixelDataElement) Bytes() []byte {
	var out []byte
	for _, f := range e.Fragments {
		out = append(out, f.Data...)
	}
	return out
}

func (e *PixelDataElement) String() string {
	return fmt.Sprintf("%s %s (encapsulated, %d fragments)", e.tag, e.vr, len(e.Fragments))
}

// FrameFragments returns, for frame index i, the fragment(s) that make up
// that frame. When the Basic Offset Table is non-empty, frame boundaries are
// resolved from it; otherwise each fragment is treated as exactly one frame,
// the default rule pinned by SPEC_FULL.md's open-question decision 2.
func (e *PixelDataElement) FrameFragments(frameIndex int, numberOfFrames int) ([]PixelFragment, error) {
	if len(e.BasicOffsetTable) > 0 {
		if frameIndex < 0 || frameIndex >= len(e.BasicOffsetTable) {
			return nil, fmt.Errorf("dicom: frame %d out of range (%d entries in BOT)", frameIndex, len(e.BasicOffsetTable))
		}
		start := e.BasicOffsetTable[frameIndex]
		var end uint32 = 0xFFFFFFFF
		if frameIndex+1 < len(e.BasicOffsetTable) {
			end = e.BasicOffsetTable[frameIndex+1]
		}
		var frag []PixelFragment
		var pos uint32
		for _, f := range e.Fragments {
			flen := uint32(len(f.Data))
			if pos >= start && pos < end {
				frag = append(frag, f)
			}
			pos += flen
		}
		return frag, nil
	}
	if frameIndex < 0 || frameIndex >= len(e.Fragments) {
		return nil, fmt.Errorf("dicom: frame %d out of range (%d fragments, no BOT)", frameIndex, len(e.Fragments))
	}
	return []PixelFragment{e.Fragments[frameIndex]}, nil
}

type byteEncoderLE struct{ buf []byte }

func newByteEncoder() *byteEncoderLE { return &byteEncoderLE{} }

func (w *byteEncoderLE) u16(v uint16) {
	w.buf = append(w.buf, byte(v), byte(v>>8))
}
func (w *byteEncoderLE) u32(v uint32) {
	w.buf = append(w.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
func (w *byteEncoderLE) f32(v float32) {
	w.u32(math.Float32bits(v))
}
func (w *byteEncoderLE) f64(v float64) {
	bits := math.Float64bits(v)
	w.buf = append(w.buf,
		byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24),
		byte(bits>>32), byte(bits>>40), byte(bits>>48), byte(bits>>56))
}
