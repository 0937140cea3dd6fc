// Package rle implements the DICOM RLE Lossless transfer syntax
// (1.2.840.10008.1.2.5), PS3.5 Annex G: a per-byte-plane segment table
// followed by PackBits-compressed runs, grounded on the teacher pack's two
// independent RLE implementations (jpfielding/dicos.go's
// pkg/compress/rle/packbits.go for the PackBits primitive, codeninja55's
// dicom/pixel/rle.go for segment-to-plane interleaving).
package rle

import (
	"encoding/binary"
	"fmt"

	"github.com/lucidhealth/dicom/codec"
)

const maxSegments = 15
const headerSize = 64 // 4-byte segment count + 15 4-byte offsets

// Codec implements codec.Codec for RLE Lossless.
type Codec struct{}

func (Codec) Capabilities() codec.Capabilities {
	return codec.Capabilities{
		CanEncode:          true,
		CanDecode:          true,
		IsLossy:            false,
		SupportsMultiFrame: true,
		BitDepths:          []int{8, 16},
		SamplesPerPixel:    []int{1, 3},
	}
}

// Decode reconstructs one frame from its RLE-encoded fragments. A frame
// under RLE Lossless is always carried as a single fragment (PS3.5 Annex G
// does not split one frame's segment table across fragments).
func (c Codec) Decode(fragments []codec.Fragment, info codec.PixelInfo, frameIndex int, destination []byte) (int, error) {
	if frameIndex < 0 || frameIndex >= len(fragments) {
		return 0, &codec.Error{FrameIndex: frameIndex, Message: "frame index out of range for RLE fragment list"}
	}
	data := fragments[frameIndex].Data
	if len(data) < headerSize {
		return 0, &codec.Error{FrameIndex: frameIndex, ByteOffset: 0, Message: fmt.Sprintf("RLE header truncated: %d bytes", len(data))}
	}

	numSegments := binary.LittleEndian.Uint32(data[0:4])
	if numSegments == 0 || numSegments > maxSegments {
		return 0, &codec.Error{FrameIndex: frameIndex, ByteOffset: 0, Message: fmt.Sprintf("invalid RLE segment count %d", numSegments)}
	}
	offsets := make([]uint32, maxSegments)
	for i := 0; i < maxSegments; i++ {
		offsets[i] = binary.LittleEndian.Uint32(data[4+i*4:])
	}

	bytesPerSample := info.BytesPerSample()
	samplesPerPlane := int(info.Rows) * int(info.Columns)
	expectedPlanes := bytesPerSample * int(info.SamplesPerPixel)
	if int(numSegments) != expectedPlanes {
		return 0, &codec.Error{FrameIndex: frameIndex, Message: fmt.Sprintf("segment count %d does not match bytes-per-sample*samples-per-pixel %d", numSegments, expectedPlanes)}
	}

	frameSize := info.FrameSize()
	if len(destination) < frameSize {
		return 0, &codec.Error{FrameIndex: frameIndex, Message: fmt.Sprintf("destination buffer too small: have %d need %d", len(destination), frameSize)}
	}

	for seg := 0; seg < int(numSegments); seg++ {
		start := int(offsets[seg])
		end := len(data)
		if seg+1 < int(numSegments) {
			end = int(offsets[seg+1])
		}
		if start < 0 || end > len(data) || start > end {
			return 0, &codec.Error{FrameIndex: frameIndex, ByteOffset: start, Message: fmt.Sprintf("segment %d bounds out of range", seg)}
		}
		plane, err := decodePackBits(data[start:end], samplesPerPlane)
		if err != nil {
			return 0, &codec.Error{FrameIndex: frameIndex, ByteOffset: start, Message: fmt.Sprintf("segment %d", seg), Err: err}
		}
		// Segments are ordered: for each sample, most significant byte
		// first (PS3.5 Annex G.2). For SamplesPerPixel>1, planes cycle
		// sample-major:
		// segment order is (sample 0 MSB..LSB, sample 1 MSB..LSB, ...).
		sample := seg / bytesPerSample
		byteIdx := seg % bytesPerSample
		// Segments store bytes most-significant-first; byteIdx 0 is MSB.
		shift := (bytesPerSample - 1 - byteIdx) * 8
		for i := 0; i < samplesPerPlane && i < len(plane); i++ {
			outIdx := (i*int(info.SamplesPerPixel) + sample) * bytesPerSample
			if outIdx+bytesPerSample > len(destination) {
				continue
			}
			// Accumulate this byte-plane's contribution without
			// clobbering bytes already written by other segments.
			word := readWord(destination[outIdx:outIdx+bytesPerSample], bytesPerSample)
			word &^= uint64(0xFF) << uint(shift)
			word |= uint64(plane[i]) << uint(shift)
			writeWord(destination[outIdx:outIdx+bytesPerSample], bytesPerSample, word)
		}
	}
	return frameSize, nil
}

func readWord(b []byte, n int) uint64 {
	var w uint64
	for i := 0; i < n; i++ {
		w |= uint64(b[i]) << uint(i*8)
	}
	return w
}

func writeWord(b []byte, n int, w uint64) {
	for i := 0; i < n; i++ {
		b[i] = byte(w >> uint(i*8))
	}
}

// Encode splits raw pixel data (native, little-endian packed per
// BitsAllocated) into one RLE-encoded fragment per frame.
func (c Codec) Encode(raw []byte, info codec.PixelInfo, opts codec.EncodeOptions) ([]codec.Fragment, []uint32, error) {
	frameSize := info.FrameSize()
	if frameSize == 0 {
		return nil, nil, &codec.Error{Message: "zero-size frame in PixelInfo"}
	}
	numFrames := info.NumberOfFrames
	if numFrames <= 0 {
		numFrames = 1
	}
	if len(raw) < frameSize*numFrames {
		return nil, nil, &codec.Error{Message: fmt.Sprintf("raw pixel buffer too small: have %d need %d", len(raw), frameSize*numFrames)}
	}

	bytesPerSample := info.BytesPerSample()
	samplesPerPlane := int(info.Rows) * int(info.Columns)
	numSegments := bytesPerSample * int(info.SamplesPerPixel)
	if numSegments > maxSegments {
		return nil, nil, &codec.Error{Message: fmt.Sprintf("too many byte planes for RLE: %d (max %d)", numSegments, maxSegments)}
	}

	fragments := make([]codec.Fragment, numFrames)
	var bot []uint32
	var cursor uint32
	for f := 0; f < numFrames; f++ {
		frame := raw[f*frameSize : (f+1)*frameSize]
		planes := make([][]byte, numSegments)
		for seg := 0; seg < numSegments; seg++ {
			sample := seg / bytesPerSample
			byteIdx := seg % bytesPerSample
			shift := (bytesPerSample - 1 - byteIdx) * 8
			plane := make([]byte, samplesPerPlane)
			for i := 0; i < samplesPerPlane; i++ {
				outIdx := (i*int(info.SamplesPerPixel) + sample) * bytesPerSample
				word := readWord(frame[outIdx:outIdx+bytesPerSample], bytesPerSample)
				plane[i] = byte(word >> uint(shift))
			}
			planes[seg] = encodePackBits(plane)
		}

		buf := make([]byte, headerSize)
		binary.LittleEndian.PutUint32(buf[0:4], uint32(numSegments))
		offsets := make([]uint32, maxSegments)
		pos := uint32(headerSize)
		for seg, p := range planes {
			offsets[seg] = pos
			pos += uint32(len(p))
		}
		for i := 0; i < maxSegments; i++ {
			binary.LittleEndian.PutUint32(buf[4+i*4:], offsets[i])
		}
		for _, p := range planes {
			buf = append(buf, p...)
		}
		fragments[f] = codec.Fragment{Data: buf}
		if opts.EmitBasicOffsetTable {
			bot = append(bot, cursor)
		}
		cursor += uint32(len(buf))
	}
	return fragments, bot, nil
}

func (c Codec) Validate(fragments []codec.Fragment, info codec.PixelInfo) []codec.Diagnostic {
	var diags []codec.Diagnostic
	for i, f := range fragments {
		if len(f.Data) < headerSize {
			diags = append(diags, codec.Diagnostic{FrameIndex: i, Message: "fragment shorter than RLE header"})
			continue
		}
		n := binary.LittleEndian.Uint32(f.Data[0:4])
		if n == 0 || n > maxSegments {
			diags = append(diags, codec.Diagnostic{FrameIndex: i, Message: fmt.Sprintf("invalid segment count %d", n)})
		}
	}
	return diags
}

func init() {
	codec.Default.Register("1.2.840.10008.1.2.5", Codec{}, codec.PriorityDefault, "rle")
}
