package dicom

import (
	"encoding/binary"
	"math"

	"github.com/lucidhealth/dicom/dicomio"
)

// NewNumericU32Element is a convenience constructor for single-value UL/SL
// elements, used internally for group-length elements and exported for
// callers building command sets or synthetic FMI elements by hand.
func NewNumericU32Element(tag Tag, vr VR, v uint32) *NumericElement {
	return &NumericElement{tag: tag, vr: vr, Uint32s: []uint32{v}}
}

// NewNumericU16Element is the US-width counterpart of NewNumericU32Element,
// used by DIMSE command sets whose fields are all US-valued.
func NewNumericU16Element(tag Tag, v uint16) *NumericElement {
	return &NumericElement{tag: tag, vr: US, Uint16s: []uint16{v}}
}

// writeElement serializes one element's header and value onto w, the
// inverse of readOneElement (spec §4.D, §6 "Element encoding reference").
// Sequences recurse; encapsulated PixelData writes its fragment sequence
// with undefined length and a sequence-delimitation item.
func writeElement(w *dicomio.Writer, e Element) error {
	tag := toIOTag(e.Tag())
	switch v := e.(type) {
	case *SequenceElement:
		return writeSequence(w, v)
	case *PixelDataElement:
		return writeEncapsulatedPixelData(w, v)
	case *NumericElement:
		value := encodeNumeric(v, w.ByteOrder())
		w.WriteElementHeader(tag, string(v.VR()), uint32(len(value)))
		w.WriteBytes(value)
		return nil
	default:
		value := e.Bytes()
		w.WriteElementHeader(tag, string(e.VR()), uint32(len(value)))
		w.WriteBytes(value)
		return nil
	}
}

func toIOTag(t Tag) dicomio.Tag { return dicomio.Tag{Group: t.Group, Element: t.Element} }

func encodeNumeric(e *NumericElement, bo binary.ByteOrder) []byte {
	var buf []byte
	put16 := func(v uint16) {
		var b [2]byte
		bo.PutUint16(b[:], v)
		buf = append(buf, b[:]...)
	}
	put32 := func(v uint32) {
		var b [4]byte
		bo.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}
	switch e.VR() {
	case US:
		for _, v := range e.Uint16s {
			put16(v)
		}
	case UL:
		for _, v := range e.Uint32s {
			put32(v)
		}
	case SS:
		for _, v := range e.Int16s {
			put16(uint16(v))
		}
	case SL:
		for _, v := range e.Int32s {
			put32(uint32(v))
		}
	case FL:
		for _, v := range e.Float32 {
			put32(math.Float32bits(v))
		}
	case FD:
		for _, v := range e.Float64 {
			bits := math.Float64bits(v)
			var b [8]byte
			bo.PutUint64(b[:], bits)
			buf = append(buf, b[:]...)
		}
	case AT:
		for _, t := range e.Tags {
			put16(t.Group)
			put16(t.Element)
		}
	}
	return buf
}

func writeSequence(w *dicomio.Writer, seq *SequenceElement) error {
	if seq.UndefinedLength {
		w.WriteElementHeader(toIOTag(seq.tag), "SQ", dicomio.UndefinedLength)
	} else {
		// compute total length first by encoding to a scratch writer
		scratch := dicomio.NewWriter(w.ByteOrder(), w.ExplicitVR())
		for _, item := range seq.Items {
			if err := writeItem(scratch, item, w.ByteOrder(), w.ExplicitVR()); err != nil {
				return err
			}
		}
		body, err := scratch.Finish()
		if err != nil {
			return err
		}
		w.WriteElementHeader(toIOTag(seq.tag), "SQ", uint32(len(body)))
		w.WriteBytes(body)
		return nil
	}
	for _, item := range seq.Items {
		if err := writeItem(w, item, w.ByteOrder(), w.ExplicitVR()); err != nil {
			return err
		}
	}
	w.WriteElementHeader(toIOTag(TagSequenceDelimitationItem), "", 0)
	return nil
}

func writeItem(w *dicomio.Writer, item *Dataset, bo binary.ByteOrder, explicitVR bool) error {
	inner := dicomio.NewWriter(bo, explicitVR)
	for _, e := range item.Elements() {
		if err := writeElement(inner, e); err != nil {
			return err
		}
	}
	body, err := inner.Finish()
	if err != nil {
		return err
	}
	w.WriteElementHeader(toIOTag(TagItem), "", uint32(len(body)))
	w.WriteBytes(body)
	return nil
}

func writeEncapsulatedPixelData(w *dicomio.Writer, pd *PixelDataElement) error {
	w.WriteElementHeader(toIOTag(pd.tag), string(pd.vr), dicomio.UndefinedLength)
	botBuf := make([]byte, 4*len(pd.BasicOffsetTable))
	for i, off := range pd.BasicOffsetTable {
		binary.LittleEndian.PutUint32(botBuf[i*4:], off)
	}
	w.WriteElementHeader(toIOTag(TagItem), "", uint32(len(botBuf)))
	w.WriteBytes(botBuf)
	for _, frag := range pd.Fragments {
		w.WriteElementHeader(toIOTag(TagItem), "", uint32(len(frag.Data)))
		w.WriteBytes(frag.Data)
	}
	w.WriteElementHeader(toIOTag(TagSequenceDelimitationItem), "", 0)
	return nil
}
