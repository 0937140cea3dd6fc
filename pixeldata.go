package dicom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucidhealth/dicom/codec"
)

// PixelInfo builds the codec.PixelInfo geometry governing PixelData
// interpretation (spec §4.F "Pixel data") from d's Image Pixel module
// elements (Rows, Columns, SamplesPerPixel, BitsAllocated, ...).
func (d *Dataset) PixelInfo() (codec.PixelInfo, error) {
	rows, err := d.getUS(TagRows)
	if err != nil {
		return codec.PixelInfo{}, err
	}
	columns, err := d.getUS(TagColumns)
	if err != nil {
		return codec.PixelInfo{}, err
	}
	samplesPerPixel, err := d.getUS(TagSamplesPerPixel)
	if err != nil {
		return codec.PixelInfo{}, err
	}
	bitsAllocated, err := d.getUS(TagBitsAllocated)
	if err != nil {
		return codec.PixelInfo{}, err
	}
	bitsStored, _ := d.getUS(TagBitsStored)
	highBit, _ := d.getUS(TagHighBit)
	pixelRepresentation, _ := d.getUS(TagPixelRepresentation)
	planarConfiguration, _ := d.getUS(TagPlanarConfiguration)

	return codec.PixelInfo{
		Rows:                rows,
		Columns:             columns,
		SamplesPerPixel:     samplesPerPixel,
		BitsAllocated:       bitsAllocated,
		BitsStored:          bitsStored,
		HighBit:             highBit,
		PixelRepresentation: pixelRepresentation,
		PlanarConfiguration: planarConfiguration,
		NumberOfFrames:      d.numberOfFrames(),
	}, nil
}

// numberOfFrames reads NumberOfFrames (0028,0008), an IS (Integer String)
// element; a missing or unparseable value defaults to one frame, the usual
// convention for single-frame images that omit it.
func (d *Dataset) numberOfFrames() int {
	e, ok := d.Get(TagNumberOfFrames)
	if !ok {
		return 1
	}
	se, ok := e.(*StringElement)
	if !ok || len(se.Values) == 0 {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(se.Values[0]))
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

func (d *Dataset) getUS(tag Tag) (uint16, error) {
	e, ok := d.Get(tag)
	if !ok {
		return 0, fmt.Errorf("dicom: missing required element %s for pixel geometry", tag)
	}
	ne, ok := e.(*NumericElement)
	if !ok || len(ne.Uint16s) == 0 {
		return 0, fmt.Errorf("dicom: element %s is not US-valued", tag)
	}
	return ne.Uint16s[0], nil
}

// DecodeFrame returns frameIndex's decoded pixel bytes from d's PixelData
// element, resolving the codec for transferSyntaxUID through codec.Default
// when PixelData is encapsulated (spec §4.G "Registry contract": a
// transfer-syntax-keyed lookup performed on demand, not at parse time).
// Native (non-encapsulated) PixelData is sliced directly, since no codec is
// involved.
func (d *Dataset) DecodeFrame(transferSyntaxUID string, frameIndex int) ([]byte, error) {
	elem, ok := d.Get(TagPixelData)
	if !ok {
		return nil, ErrNoPixelData
	}
	info, err := d.PixelInfo()
	if err != nil {
		return nil, err
	}

	switch pd := elem.(type) {
	case *PixelDataElement:
		c, ok := codec.Default.Lookup(transferSyntaxUID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoCodecRegistered, transferSyntaxUID)
		}
		fragments, err := pd.FrameFragments(frameIndex, info.NumberOfFrames)
		if err != nil {
			return nil, err
		}
		codecFragments := make([]codec.Fragment, len(fragments))
		for i, f := range fragments {
			codecFragments[i] = codec.Fragment{Data: f.Data}
		}
		dst := make([]byte, info.FrameSize())
		n, err := c.Decode(codecFragments, info, frameIndex, dst)
		if err != nil {
			return nil, err
		}
		return dst[:n], nil
	case *BinaryElement:
		frameSize := info.FrameSize()
		if frameSize <= 0 {
			return nil, fmt.Errorf("dicom: cannot determine frame size for %s", TagPixelData)
		}
		start := frameIndex * frameSize
		end := start + frameSize
		raw := pd.Bytes()
		if frameIndex < 0 || end > len(raw) {
			return nil, fmt.Errorf("dicom: frame %d out of range (%d bytes, frame size %d)", frameIndex, len(raw), frameSize)
		}
		return raw[start:end], nil
	default:
		return nil, fmt.Errorf("dicom: %s has unexpected element type %T", TagPixelData, elem)
	}
}
