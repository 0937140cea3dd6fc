package rle_test

import (
	"math/rand"
	"testing"

	"github.com/lucidhealth/dicom/codec"
	"github.com/lucidhealth/dicom/codec/rle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTripSingleSample8Bit(t *testing.T) {
	info := codec.PixelInfo{Rows: 4, Columns: 4, SamplesPerPixel: 1, BitsAllocated: 8, BitsStored: 8, NumberOfFrames: 1}
	raw := []byte{0, 0, 0, 1, 2, 2, 2, 2, 3, 4, 5, 6, 7, 7, 7, 7}

	c := rle.Codec{}
	frags, _, err := c.Encode(raw, info, codec.EncodeOptions{})
	require.NoError(t, err)
	require.Len(t, frags, 1)

	dest := make([]byte, info.FrameSize())
	n, err := c.Decode(frags, info, 0, dest)
	require.NoError(t, err)
	assert.Equal(t, len(raw), n)
	assert.Equal(t, raw, dest)
}

func TestEncodeDecodeRoundTrip16BitMultiSample(t *testing.T) {
	info := codec.PixelInfo{Rows: 8, Columns: 8, SamplesPerPixel: 3, BitsAllocated: 16, BitsStored: 16, NumberOfFrames: 2}
	rnd := rand.New(rand.NewSource(1))
	raw := make([]byte, info.FrameSize()*info.NumberOfFrames)
	rnd.Read(raw)

	c := rle.Codec{}
	frags, bot, err := c.Encode(raw, info, codec.EncodeOptions{EmitBasicOffsetTable: true})
	require.NoError(t, err)
	require.Len(t, frags, 2)
	require.Len(t, bot, 2)
	assert.EqualValues(t, 0, bot[0])

	for f := 0; f < info.NumberOfFrames; f++ {
		dest := make([]byte, info.FrameSize())
		_, err := c.Decode(frags, info, f, dest)
		require.NoError(t, err)
		assert.Equal(t, raw[f*info.FrameSize():(f+1)*info.FrameSize()], dest)
	}
}

func TestDecodeTruncatedHeaderErrors(t *testing.T) {
	c := rle.Codec{}
	info := codec.PixelInfo{Rows: 2, Columns: 2, SamplesPerPixel: 1, BitsAllocated: 8}
	_, err := c.Decode([]codec.Fragment{{Data: []byte{1, 2, 3}}}, info, 0, make([]byte, info.FrameSize()))
	assert.Error(t, err)
}
