package dicom

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
	"github.com/lucidhealth/dicom/dicomio"
)

// Options is the root-package configuration surface of spec §6, layering
// pixel-data acquisition strategy and sequence-depth policy on top of
// dicomio.Options (the stream-cursor tunables).
type Options struct {
	dicomio.Options
	PixelData PixelDataMode
}

// PixelDataMode names a pixel-data acquisition strategy (spec §6).
// ReadFile and ReadFileBytes do not consult Options.PixelData: pixel data
// is always read fully into memory, whichever mode is set.
type PixelDataMode int

const (
	PixelDataBuffered PixelDataMode = iota
	PixelDataLazy
	PixelDataSkip
)

// DefaultFileOptions mirrors dicomio.DefaultOptions with buffered pixel
// data, the least surprising default for a one-shot ReadFile call.
func DefaultFileOptions() Options {
	return Options{Options: dicomio.DefaultOptions(), PixelData: PixelDataBuffered}
}

// ReadFile parses a complete Part-10 stream: preamble, DICM magic, File
// Meta Information and dataset (spec §4.E, §4.F, §6 "File format").
func ReadFile(r io.Reader, opts Options) (*Dataset, *FileMeta, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	return ReadFileBytes(raw, opts)
}

// ReadFileBytes is ReadFile over an in-memory buffer.
func ReadFileBytes(raw []byte, opts Options) (*Dataset, *FileMeta, error) {
	fm, err := ParseFileMeta(raw, opts.Preamble, opts.FileMeta)
	if err != nil {
		return nil, nil, err
	}
	body := raw[fm.DatasetStart:]

	// Deflated Explicit VR Little Endian wraps the dataset (never the FMI)
	// in a raw zlib/deflate stream (spec §4.F "Writer", §9 open question
	// 3: "deflated transfer syntaxes must deflate the FMI too? Per the
	// standard, no").
	if fm.TransferSyntax.Deflated && opts.Deflate != dicomio.DeflateOff {
		inflated, err := inflateDeflatedBody(body)
		if err != nil {
			return nil, nil, fmt.Errorf("dicom: inflating deflated dataset: %w", err)
		}
		body = inflated
	}

	ds, err := readDataset(body, fm.TransferSyntax, opts, 0)
	if err != nil {
		return nil, nil, err
	}
	return ds, fm, nil
}

func inflateDeflatedBody(body []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		// Some encoders write raw DEFLATE without the zlib header/checksum
		// for this transfer syntax; fall back accordingly.
		fr := flate.NewReader(bytes.NewReader(body))
		defer fr.Close()
		return io.ReadAll(fr)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func readDataset(body []byte, ts TransferSyntax, opts Options, depth int) (*Dataset, error) {
	r := dicomio.NewReader(body, ts.ByteOrder(), ts.ExplicitVR, opts.Options)
	ds := NewDataset()
	var charSet []string

	for !r.AtEnd() {
		elem, err := readOneElement(r, ts, opts, depth, charSet)
		if err != nil {
			return ds, err
		}
		if elem == nil { // sequence/item delimiter consumed with nothing to add
			continue
		}
		ds.Put(elem)
		if elem.Tag() == TagSpecificCharacterSet {
			if se, ok := elem.(*StringElement); ok {
				charSet = se.Values
			}
		}
	}
	return ds, ds.Validate()
}

func readOneElement(r *dicomio.Reader, ts TransferSyntax, opts Options, depth int, charSet []string) (Element, error) {
	h, err := r.TryReadElementHeader(func(t dicomio.Tag) (string, bool) {
		entry, err := LookupTag(Tag{t.Group, t.Element})
		if err != nil {
			return "UN", false
		}
		return string(entry.VR), true
	})
	if err != nil {
		return nil, err
	}
	tag := Tag{h.Tag.Group, h.Tag.Element}
	vr := VR(h.VR)
	if vr == "" {
		vr = UN
	}

	switch {
	case tag == TagPixelData && h.Length == dicomio.UndefinedLength:
		return readEncapsulatedPixelData(r, tag, vr)
	case vr == SQ:
		items, err := readSequenceItems(r, tag, h.Length, ts, opts, depth)
		if err != nil {
			return nil, err
		}
		return items, nil
	case h.Length == dicomio.UndefinedLength:
		// Non-SQ undefined length only occurs for PixelData (handled
		// above); anything else is a framing error.
		return nil, fmt.Errorf("dicom: %s has undefined length but is not SQ or PixelData", tag)
	default:
		valueBytes, err := r.TryReadValue(h.Length)
		if err != nil {
			return nil, err
		}
		return decodeElementValue(tag, vr, valueBytes, ts.ByteOrder(), charSet)
	}
}

func readSequenceItems(r *dicomio.Reader, tag Tag, length uint32, ts TransferSyntax, opts Options, depth int) (*SequenceElement, error) {
	if depth+1 > int(opts.MaxSequenceDepth) {
		return nil, ErrSequenceDepthExceeded
	}
	seq := &SequenceElement{tag: tag}
	undefined := length == dicomio.UndefinedLength
	seq.UndefinedLength = undefined

	var endPos int64 = -1
	if !undefined {
		endPos = r.Pos() + int64(length)
	}

	for {
		if !undefined && r.Pos() >= endPos {
			break
		}
		if undefined && r.AtEnd() {
			break
		}
		itemHeader, err := r.TryReadElementHeader(nil)
		if err != nil {
			return nil, err
		}
		itemTag := Tag{itemHeader.Tag.Group, itemHeader.Tag.Element}
		if itemTag == TagSequenceDelimitationItem {
			break
		}
		if itemTag != TagItem {
			return nil, fmt.Errorf("dicom: expected item tag inside sequence %s, got %s", tag, itemTag)
		}
		var itemDs *Dataset
		if itemHeader.Length == dicomio.UndefinedLength {
			itemDs, err = readDatasetUntilItemDelimiter(r, ts, opts, depth+1)
		} else {
			itemBody, berr := r.TryReadValue(itemHeader.Length)
			if berr != nil {
				return nil, berr
			}
			itemDs, err = readDataset(itemBody, ts, opts, depth+1)
		}
		if err != nil {
			return nil, err
		}
		seq.Items = append(seq.Items, itemDs)
	}
	return seq, nil
}

// readDatasetUntilItemDelimiter parses an undefined-length item in place:
// elements are self-describing via their own length prefixes, so the item
// delimiter is recognised as the next element *header* rather than by
// scanning raw bytes for the FFFE,E00D pattern, which could false-positive
// inside a binary VR's value bytes.
func readDatasetUntilItemDelimiter(r *dicomio.Reader, ts TransferSyntax, opts Options, depth int) (*Dataset, error) {
	ds := NewDataset()
	var charSet []string
	for {
		peeked, err := r.Peek(4)
		if err != nil {
			return nil, ErrTruncated
		}
		group := binary.LittleEndian.Uint16(peeked[0:2])
		elem := binary.LittleEndian.Uint16(peeked[2:4])
		if group == 0xFFFE && elem == 0xE00D {
			if _, err := r.TryReadElementHeader(nil); err != nil { // consumes the zero-length delimiter
				return nil, err
			}
			return ds, ds.Validate()
		}
		e, err := readOneElement(r, ts, opts, depth, charSet)
		if err != nil {
			return nil, err
		}
		if e == nil {
			continue
		}
		ds.Put(e)
		if e.Tag() == TagSpecificCharacterSet {
			if se, ok := e.(*StringElement); ok {
				charSet = se.Values
			}
		}
	}
}

// readEncapsulatedPixelData builds the fragment sequence of spec §4.F
// "Pixel data": first item is the Basic Offset Table, remaining items are
// frame fragments, terminated by the sequence delimiter.
func readEncapsulatedPixelData(r *dicomio.Reader, tag Tag, vr VR) (*PixelDataElement, error) {
	pd := &PixelDataElement{tag: tag, vr: vr}
	first := true
	for {
		h, err := r.TryReadElementHeader(nil)
		if err != nil {
			return nil, err
		}
		itemTag := Tag{h.Tag.Group, h.Tag.Element}
		if itemTag == TagSequenceDelimitationItem {
			break
		}
		if itemTag != TagItem {
			return nil, fmt.Errorf("dicom: expected item tag in encapsulated PixelData, got %s", itemTag)
		}
		data, err := r.TryReadValue(h.Length)
		if err != nil {
			return nil, err
		}
		owned := append([]byte(nil), data...)
		if first {
			first = false
			pd.BasicOffsetTable = decodeBOT(owned)
			continue
		}
		pd.Fragments = append(pd.Fragments, PixelFragment{Data: owned})
	}
	return pd, nil
}

func decodeBOT(raw []byte) []uint32 {
	n := len(raw) / 4
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
	}
	return out
}

// WriteFile serializes fm and ds as a Part-10 stream. The FMI is always
// written explicit-VR little-endian regardless of ds's transfer syntax
// (spec §4.F "Writer"); the preamble is preserved byte-for-byte if present
// on fm, or 128 zero bytes otherwise.
func WriteFile(w io.Writer, fm *FileMeta, ds *Dataset) error {
	preamble := fm.Preamble
	if len(preamble) != 128 {
		preamble = make([]byte, 128)
	}
	if _, err := w.Write(preamble); err != nil {
		return err
	}
	if _, err := w.Write([]byte("DICM")); err != nil {
		return err
	}

	metaBytes, err := encodeFileMeta(fm.Dataset)
	if err != nil {
		return err
	}
	if _, err := w.Write(metaBytes); err != nil {
		return err
	}

	body, err := writeDataset(ds, fm.TransferSyntax)
	if err != nil {
		return err
	}
	if fm.TransferSyntax.Deflated {
		body, err = deflateBody(body)
		if err != nil {
			return err
		}
	}
	_, err = w.Write(body)
	return err
}

func encodeFileMeta(meta *Dataset) ([]byte, error) {
	w := dicomio.NewWriter(binary.LittleEndian, true)
	var groupBuf []byte
	{
		sub := dicomio.NewWriter(binary.LittleEndian, true)
		for _, e := range meta.Elements() {
			if e.Tag() == TagFileMetaInformationGroupLength {
				continue
			}
			if err := writeElement(sub, e); err != nil {
				return nil, err
			}
		}
		var err error
		groupBuf, err = sub.Finish()
		if err != nil {
			return nil, err
		}
	}
	if err := writeElement(w, NewNumericU32Element(TagFileMetaInformationGroupLength, UL, uint32(len(groupBuf)))); err != nil {
		return nil, err
	}
	w.WriteBytes(groupBuf)
	return w.Finish()
}

func writeDataset(ds *Dataset, ts TransferSyntax) ([]byte, error) {
	w := dicomio.NewWriter(ts.ByteOrder(), ts.ExplicitVR)
	for _, e := range ds.Elements() {
		if e.Tag().Group == 0x0002 {
			continue // FMI never appears twice
		}
		if err := writeElement(w, e); err != nil {
			return nil, err
		}
	}
	return w.Finish()
}

func deflateBody(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
