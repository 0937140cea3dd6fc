package jpeglossless

import (
	"encoding/binary"
	"fmt"

	"github.com/lucidhealth/dicom/codec"
)

// Codec implements codec.Codec for JPEG Lossless, Process 14 (transfer
// syntax 1.2.840.10008.1.2.4.70, predictor selector value 1 by convention,
// generalized here to accept any of the seven Annex H predictors a
// conforming SOS segment may request).
type Codec struct{}

func (Codec) Capabilities() codec.Capabilities {
	return codec.Capabilities{
		CanEncode:          true,
		CanDecode:          true,
		IsLossy:            false,
		SupportsMultiFrame: true,
		BitDepths:          []int{8, 9, 10, 11, 12, 13, 14, 15, 16},
		SamplesPerPixel:    []int{1, 3},
	}
}

type component struct {
	id              byte
	dcTableSelector int
	data            []int
}

type frame struct {
	precision  int
	width      int
	height     int
	components []*component
}

// Decode reconstructs one frame (spec §4.G "decode"). Each fragment is
// treated as a complete, independent JPEG Lossless stream for one frame,
// the common DICOM encapsulation for this transfer syntax.
func (c Codec) Decode(fragments []codec.Fragment, info codec.PixelInfo, frameIndex int, destination []byte) (int, error) {
	if frameIndex < 0 || frameIndex >= len(fragments) {
		return 0, &codec.Error{FrameIndex: frameIndex, Message: "frame index out of range for JPEG Lossless fragment list"}
	}
	fr, pt, selector, err := decodeStream(fragments[frameIndex].Data)
	if err != nil {
		return 0, &codec.Error{FrameIndex: frameIndex, Message: "decode", Err: err}
	}
	_ = selector
	_ = pt
	n := convertToBytes(fr, destination)
	return n, nil
}

func decodeStream(jpegData []byte) (*frame, int, int, error) {
	if len(jpegData) < 2 || jpegData[0] != 0xFF || jpegData[1] != markerSOI {
		return nil, 0, 0, fmt.Errorf("missing SOI marker")
	}
	pos := 2
	fr := &frame{}
	var dcTables [4]*huffmanTable
	pointTransform := 0
	selector := 1

	readMarker := func() (byte, error) {
		for pos+1 < len(jpegData) {
			if jpegData[pos] == 0xFF && jpegData[pos+1] != 0x00 && jpegData[pos+1] != 0xFF {
				m := jpegData[pos+1]
				pos += 2
				return m, nil
			}
			pos++
		}
		return 0, fmt.Errorf("unexpected end of stream looking for marker")
	}
	readSegment := func() ([]byte, error) {
		if pos+2 > len(jpegData) {
			return nil, fmt.Errorf("truncated segment length")
		}
		length := int(binary.BigEndian.Uint16(jpegData[pos:]))
		if length < 2 || pos+length > len(jpegData) {
			return nil, fmt.Errorf("invalid segment length %d", length)
		}
		seg := jpegData[pos+2 : pos+length]
		pos += length
		return seg, nil
	}

	for {
		m, err := readMarker()
		if err != nil {
			return nil, 0, 0, err
		}
		switch m {
		case markerSOF3:
			seg, err := readSegment()
			if err != nil {
				return nil, 0, 0, err
			}
			if err := parseSOF3(fr, seg); err != nil {
				return nil, 0, 0, err
			}
		case markerDHT:
			seg, err := readSegment()
			if err != nil {
				return nil, 0, 0, err
			}
			if err := parseDHT(&dcTables, seg); err != nil {
				return nil, 0, 0, err
			}
		case markerDRI:
			if _, err := readSegment(); err != nil {
				return nil, 0, 0, err
			}
		case markerSOS:
			seg, err := readSegment()
			if err != nil {
				return nil, 0, 0, err
			}
			if err := parseSOS(fr, seg, &pointTransform, &selector); err != nil {
				return nil, 0, 0, err
			}
			consumed, err := decodeScan(fr, jpegData[pos:], &dcTables, pointTransform, selector)
			if err != nil {
				return nil, 0, 0, err
			}
			pos += consumed
			return fr, pointTransform, selector, nil
		case markerEOI:
			return fr, pointTransform, selector, nil
		default:
			if hasLength(m) {
				if _, err := readSegment(); err != nil {
					return nil, 0, 0, err
				}
			}
		}
	}
}

func parseSOF3(fr *frame, data []byte) error {
	if len(data) < 6 {
		return fmt.Errorf("SOF3 segment too short")
	}
	fr.precision = int(data[0])
	if fr.precision < 2 || fr.precision > 16 {
		return fmt.Errorf("unsupported precision %d", fr.precision)
	}
	fr.height = int(data[1])<<8 | int(data[2])
	fr.width = int(data[3])<<8 | int(data[4])
	nf := int(data[5])
	if fr.width <= 0 || fr.height <= 0 {
		return fmt.Errorf("invalid SOF3 dimensions %dx%d", fr.width, fr.height)
	}
	if nf != 1 && nf != 3 {
		return fmt.Errorf("unsupported component count %d", nf)
	}
	if len(data) < 6+nf*3 {
		return fmt.Errorf("SOF3 segment truncated")
	}
	fr.components = make([]*component, nf)
	for i := 0; i < nf; i++ {
		off := 6 + i*3
		h := data[off+1] >> 4
		v := data[off+1] & 0x0F
		if h != 1 || v != 1 {
			return fmt.Errorf("unsupported sampling factors for lossless: %d x %d", h, v)
		}
		fr.components[i] = &component{id: data[off], data: make([]int, fr.width*fr.height)}
	}
	return nil
}

func parseDHT(tables *[4]*huffmanTable, data []byte) error {
	off := 0
	for off < len(data) {
		tcTh := data[off]
		tc := tcTh >> 4
		th := tcTh & 0x0F
		if th > 3 {
			return fmt.Errorf("invalid huffman table id %d", th)
		}
		off++
		t := &huffmanTable{}
		total := 0
		for i := 0; i < 16; i++ {
			if off >= len(data) {
				return fmt.Errorf("truncated DHT BITS list")
			}
			t.Bits[i] = int(data[off])
			total += t.Bits[i]
			off++
		}
		if off+total > len(data) {
			return fmt.Errorf("truncated DHT values")
		}
		t.Values = append([]byte(nil), data[off:off+total]...)
		off += total
		if err := t.build(); err != nil {
			return err
		}
		if tc == 0 {
			tables[th] = t
		}
	}
	return nil
}

func parseSOS(fr *frame, data []byte, pointTransform, selector *int) error {
	if len(data) < 1 {
		return fmt.Errorf("SOS segment empty")
	}
	ns := int(data[0])
	if len(data) < 1+ns*2+3 {
		return fmt.Errorf("SOS segment truncated")
	}
	for i := 0; i < ns; i++ {
		cs := data[1+i*2]
		td := data[1+i*2+1] >> 4
		var comp *component
		for _, c := range fr.components {
			if c.id == cs {
				comp = c
				break
			}
		}
		if comp == nil {
			return fmt.Errorf("SOS references unknown component %d", cs)
		}
		comp.dcTableSelector = int(td)
	}
	*selector = int(data[1+ns*2])
	if *selector < 1 || *selector > 7 {
		return fmt.Errorf("unsupported predictor selector %d", *selector)
	}
	*pointTransform = int(data[1+ns*2+2] & 0x0F)
	return nil
}

func decodeScan(fr *frame, rest []byte, tables *[4]*huffmanTable, pointTransform, selector int) (int, error) {
	end := len(rest)
	for i := 0; i+1 < len(rest); i++ {
		if rest[i] == 0xFF && rest[i+1] != 0x00 && !isRST(rest[i+1]) && rest[i+1] != 0xFF {
			end = i
			break
		}
	}
	r := newBitReader(rest[:end])

	for row := 0; row < fr.height; row++ {
		for col := 0; col < fr.width; col++ {
			for _, comp := range fr.components {
				table := tables[comp.dcTableSelector]
				if table == nil {
					return 0, fmt.Errorf("missing DC table %d", comp.dcTableSelector)
				}
				ssss, err := table.decodeSymbol(r)
				if err != nil {
					return 0, err
				}
				diff, err := receiveExtend(r, int(ssss))
				if err != nil {
					return 0, err
				}
				predicted := predictSample(selector, row, col, fr.precision, pointTransform, comp.data, fr.width)
				sample := predicted + diff
				modulus := 1 << uint(fr.precision)
				if sample < 0 {
					sample += modulus
				} else if sample >= modulus {
					sample -= modulus
				}
				comp.data[row*fr.width+col] = sample
			}
		}
	}
	return end, nil
}

func convertToBytes(fr *frame, destination []byte) int {
	nc := len(fr.components)
	bytesPerSample := (fr.precision + 7) / 8
	needed := fr.width * fr.height * nc * bytesPerSample
	if len(destination) < needed {
		return 0
	}
	offset := 0
	for y := 0; y < fr.height; y++ {
		for x := 0; x < fr.width; x++ {
			for _, comp := range fr.components {
				v := comp.data[y*fr.width+x]
				if bytesPerSample == 1 {
					destination[offset] = byte(v)
					offset++
				} else {
					destination[offset] = byte(v & 0xFF)
					destination[offset+1] = byte((v >> 8) & 0xFF)
					offset += 2
				}
			}
		}
	}
	return offset
}

func (c Codec) Validate(fragments []codec.Fragment, info codec.PixelInfo) []codec.Diagnostic {
	var diags []codec.Diagnostic
	for i, f := range fragments {
		if len(f.Data) < 4 || f.Data[0] != 0xFF || f.Data[1] != markerSOI {
			diags = append(diags, codec.Diagnostic{FrameIndex: i, Message: "fragment missing SOI marker"})
		}
	}
	return diags
}

func init() {
	codec.Default.Register("1.2.840.10008.1.2.4.70", Codec{}, codec.PriorityDefault, "jpeglossless")
}
