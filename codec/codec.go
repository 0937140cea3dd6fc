// Package codec implements the transfer-syntax-keyed pixel-data codec
// registry (spec §4.G) and hosts the reference lossless codecs (JPEG
// Lossless Process 14 SV1 under codec/jpeglossless, RLE Lossless under
// codec/rle). The registry is deliberately separate from the dicom package's
// transfer-syntax table: resolving a transfer syntax is a framing concern,
// while resolving a codec for it is a pixel-data concern, and a caller may
// want to swap codecs without touching framing at all.
package codec

import "fmt"

// PixelInfo describes the geometry of the pixel data a codec operates on,
// mirroring the dataset elements that govern PixelData interpretation
// (Rows, Columns, SamplesPerPixel, BitsAllocated, BitsStored, ...).
type PixelInfo struct {
	Rows              uint16
	Columns           uint16
	SamplesPerPixel   uint16
	BitsAllocated     uint16
	BitsStored        uint16
	HighBit           uint16
	PixelRepresentation uint16 // 0 = unsigned, 1 = two's complement
	PlanarConfiguration uint16
	NumberOfFrames    int
}

// BytesPerSample returns the storage width of one sample, rounding up per
// BitsAllocated (spec §4.G "JPEG Lossless ... output is little-endian packed
// per bits_stored", but storage width follows BitsAllocated).
func (p PixelInfo) BytesPerSample() int {
	return (int(p.BitsAllocated) + 7) / 8
}

// FrameSize returns the number of bytes one decoded frame occupies.
func (p PixelInfo) FrameSize() int {
	return int(p.Rows) * int(p.Columns) * int(p.SamplesPerPixel) * p.BytesPerSample()
}

// Fragment is one item of an encapsulated PixelData fragment sequence, the
// codec package's view of dicom.PixelFragment (kept distinct so this package
// has no import-cycle dependency on the root package).
type Fragment struct {
	Data []byte
}

// EncodeOptions controls how Encode splits raw pixel data into fragments.
type EncodeOptions struct {
	// EmitBasicOffsetTable requests a populated BOT (one entry per frame)
	// rather than an empty one (spec §4.G "encode ... optionally emits a
	// populated Basic Offset Table").
	EmitBasicOffsetTable bool
}

// Capabilities is the capability set a codec declares (spec §4.G "Codec
// capability set").
type Capabilities struct {
	CanEncode            bool
	CanDecode            bool
	IsLossy              bool
	SupportsMultiFrame   bool
	SupportsParallelEncode bool
	BitDepths            []int
	SamplesPerPixel      []int
}

// Diagnostic is one structured validation finding (spec §4.G "validate").
type Diagnostic struct {
	FrameIndex int
	ByteOffset int
	Message    string
}

// Error is returned by Decode/Encode on failure; it always carries the
// frame index and byte offset at which the failure was detected (spec §4.G
// "A negative result carries (frame_index, byte_offset, message)").
type Error struct {
	FrameIndex int
	ByteOffset int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("codec: frame=%d offset=%d: %s: %v", e.FrameIndex, e.ByteOffset, e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Codec is the contract every transfer-syntax-specific pixel codec
// implements (spec §4.G "Operations").
type Codec interface {
	Capabilities() Capabilities
	Decode(fragments []Fragment, info PixelInfo, frameIndex int, destination []byte) (int, error)
	Encode(raw []byte, info PixelInfo, opts EncodeOptions) ([]Fragment, []uint32, error)
	Validate(fragments []Fragment, info PixelInfo) []Diagnostic
}
