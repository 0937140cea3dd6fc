package jpeglossless

import (
	"github.com/lucidhealth/dicom/codec"
)

// Encode compresses raw native pixel data into one JPEG Lossless stream per
// frame using predictor selector 1 (Process 14, Selection Value 1 — the
// specific syntax this transfer-syntax UID names), building a per-component
// DC Huffman table from the actual difference-category statistics of that
// frame rather than shipping a fixed table, matching how a real lossless
// JPEG encoder builds its DHT segment.
func (c Codec) Encode(raw []byte, info codec.PixelInfo, opts codec.EncodeOptions) ([]codec.Fragment, []uint32, error) {
	bytesPerSample := info.BytesPerSample()
	width, height := int(info.Columns), int(info.Rows)
	nc := int(info.SamplesPerPixel)
	frameSize := width * height * nc * bytesPerSample
	numFrames := info.NumberOfFrames
	if numFrames <= 0 {
		numFrames = 1
	}

	fragments := make([]codec.Fragment, numFrames)
	var bot []uint32
	var cursor uint32
	for f := 0; f < numFrames; f++ {
		frameBytes := raw[f*frameSize : (f+1)*frameSize]
		components := unpackComponents(frameBytes, width, height, nc, bytesPerSample)
		stream := encodeStream(components, width, height, info.BitsStored)
		fragments[f] = codec.Fragment{Data: stream}
		if opts.EmitBasicOffsetTable {
			bot = append(bot, cursor)
		}
		cursor += uint32(len(stream))
	}
	return fragments, bot, nil
}

func unpackComponents(raw []byte, width, height, nc, bytesPerSample int) [][]int {
	out := make([][]int, nc)
	for c := range out {
		out[c] = make([]int, width*height)
	}
	offset := 0
	for i := 0; i < width*height; i++ {
		for c := 0; c < nc; c++ {
			if bytesPerSample == 1 {
				out[c][i] = int(raw[offset])
				offset++
			} else {
				out[c][i] = int(raw[offset]) | int(raw[offset+1])<<8
				offset += 2
			}
		}
	}
	return out
}

const encodeSelector = 1

func encodeStream(components [][]int, width, height int, precision uint16) []byte {
	diffs := make([][]int, len(components))
	for c, data := range components {
		diffs[c] = make([]int, width*height)
		for row := 0; row < height; row++ {
			for col := 0; col < width; col++ {
				predicted := predictSample(encodeSelector, row, col, int(precision), 0, data, width)
				diffs[c][row*width+col] = data[row*width+col] - predicted
			}
		}
	}

	tables := make([]*huffmanTable, len(components))
	for c, d := range diffs {
		freq := make(map[byte]int)
		for _, v := range d {
			freq[byte(ssssCategory(v))]++
		}
		tables[c] = buildHuffmanFromFrequencies(freq)
	}

	var out []byte
	out = append(out, 0xFF, markerSOI)
	out = append(out, encodeSOF3(components, width, height, precision)...)
	for c := range components {
		out = append(out, encodeDHT(c, tables[c])...)
	}
	sos, scan := encodeSOSAndScan(components, diffs, tables, width, height)
	out = append(out, sos...)
	out = append(out, scan...)
	out = append(out, 0xFF, markerEOI)
	return out
}

func encodeSOF3(components [][]int, width, height int, precision uint16) []byte {
	nc := len(components)
	length := 2 + 1 + 2 + 2 + 1 + nc*3
	seg := make([]byte, 0, length+2)
	seg = append(seg, 0xFF, markerSOF3)
	seg = append(seg, byte(length>>8), byte(length))
	seg = append(seg, byte(precision))
	seg = append(seg, byte(height>>8), byte(height))
	seg = append(seg, byte(width>>8), byte(width))
	seg = append(seg, byte(nc))
	for i := 0; i < nc; i++ {
		seg = append(seg, byte(i+1), 0x11, 0x00) // component id, H=V=1, quant table unused
	}
	return seg
}

func encodeDHT(tableID int, t *huffmanTable) []byte {
	var values []byte
	for l := 1; l <= 16; l++ {
		for _, v := range t.Values {
			if t.codeLens[v] == l {
				values = append(values, v)
			}
		}
	}
	length := 2 + 1 + 16 + len(values)
	seg := make([]byte, 0, length+2)
	seg = append(seg, 0xFF, markerDHT)
	seg = append(seg, byte(length>>8), byte(length))
	seg = append(seg, byte(tableID)) // Tc=0 (lossless/DC), Th=tableID
	for i := 0; i < 16; i++ {
		seg = append(seg, byte(t.Bits[i]))
	}
	seg = append(seg, values...)
	return seg
}

func encodeSOSAndScan(components [][]int, diffs [][]int, tables []*huffmanTable, width, height int) ([]byte, []byte) {
	nc := len(components)
	length := 2 + 1 + nc*2 + 3
	seg := make([]byte, 0, length+2)
	seg = append(seg, 0xFF, markerSOS)
	seg = append(seg, byte(length>>8), byte(length))
	seg = append(seg, byte(nc))
	for i := 0; i < nc; i++ {
		seg = append(seg, byte(i+1), byte(i<<4))
	}
	seg = append(seg, byte(encodeSelector), 0x00, 0x00) // Ss, Se (unused), Ah/Al=0

	w := &bitWriter{}
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			for c := 0; c < nc; c++ {
				v := diffs[c][row*width+col]
				ssss := ssssCategory(v)
				_ = tables[c].encodeSymbol(w, byte(ssss))
				if ssss > 0 {
					w.writeBits(encodeExtendBits(v, ssss), ssss)
				}
			}
		}
	}
	w.flush()
	return seg, w.out
}
