package dicomio

import (
	"bytes"
	"encoding/binary"
)

// Writer is the symmetric inverse of Reader: it accumulates an encoded
// element stream into an internal buffer under a configurable byte order
// and explicit/implicit VR mode. Unlike Reader it does allocate (via
// bytes.Buffer), since a writer's whole purpose is to produce owned output;
// the zero-copy discipline applies only to decoding (spec §4.D).
type Writer struct {
	buf        bytes.Buffer
	bo         binary.ByteOrder
	explicitVR bool
	err        error

	// stack supports PushEncoding/PopEncoding, used the same way the
	// teacher's Encoder supports Push/PopTransferSyntax: to temporarily
	// switch encoding while writing a sub-stream (e.g. FMI, which is always
	// explicit-VR little-endian regardless of the dataset's transfer
	// syntax) and restore it afterward.
	stack []encodingState
}

type encodingState struct {
	bo         binary.ByteOrder
	explicitVR bool
}

func NewWriter(bo binary.ByteOrder, explicitVR bool) *Writer {
	return &Writer{bo: bo, explicitVR: explicitVR}
}

func (w *Writer) PushEncoding(bo binary.ByteOrder, explicitVR bool) {
	w.stack = append(w.stack, encodingState{w.bo, w.explicitVR})
	w.bo, w.explicitVR = bo, explicitVR
}

func (w *Writer) PopEncoding() {
	n := len(w.stack) - 1
	s := w.stack[n]
	w.stack = w.stack[:n]
	w.bo, w.explicitVR = s.bo, s.explicitVR
}

func (w *Writer) SetError(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *Writer) Error() error { return w.err }

// Finish returns the accumulated bytes and any error set during encoding.
func (w *Writer) Finish() ([]byte, error) {
	doassert(len(w.stack) == 0)
	return w.buf.Bytes(), w.err
}

func doassert(cond bool) {
	if !cond {
		panic("dicomio: Writer.Finish called with unbalanced Push/PopEncoding")
	}
}

func (w *Writer) WriteUint16(v uint16) {
	var b [2]byte
	w.bo.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteUint32(v uint32) {
	var b [4]byte
	w.bo.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteBytes(b []byte) { w.buf.Write(b) }

func (w *Writer) WriteString(s string) { w.buf.WriteString(s) }

func (w *Writer) WriteZeros(n int) {
	var zeros [64]byte
	for n > 0 {
		k := n
		if k > len(zeros) {
			k = len(zeros)
		}
		w.buf.Write(zeros[:k])
		n -= k
	}
}

// ExplicitVR reports the writer's current VR mode.
func (w *Writer) ExplicitVR() bool { return w.explicitVR }

// ByteOrder reports the writer's current byte order.
func (w *Writer) ByteOrder() binary.ByteOrder { return w.bo }

// WriteElementHeader writes tag/VR/length per spec §4.D and §6 ("Element
// encoding reference"). Item-group tags (0xFFFE) are always written in the
// implicit (tag+length) form, even under an explicit-VR writer.
func (w *Writer) WriteElementHeader(tag Tag, vr string, length uint32) {
	w.WriteUint16(tag.Group)
	w.WriteUint16(tag.Element)
	if !w.explicitVR || tag.IsItemGroup() {
		w.WriteUint32(length)
		return
	}
	w.WriteString(vr)
	if vrHasLongLength(vr) {
		w.WriteZeros(2)
		w.WriteUint32(length)
	} else {
		w.WriteUint16(uint16(length))
	}
}
