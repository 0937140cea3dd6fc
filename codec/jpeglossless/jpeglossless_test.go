package jpeglossless_test

import (
	"math/rand"
	"testing"

	"github.com/lucidhealth/dicom/codec"
	"github.com/lucidhealth/dicom/codec/jpeglossless"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip8BitGradient(t *testing.T) {
	width, height := 16, 12
	info := codec.PixelInfo{Rows: uint16(height), Columns: uint16(width), SamplesPerPixel: 1, BitsAllocated: 8, BitsStored: 8, NumberOfFrames: 1}
	raw := make([]byte, width*height)
	for i := range raw {
		raw[i] = byte(i % 251)
	}

	c := jpeglossless.Codec{}
	frags, _, err := c.Encode(raw, info, codec.EncodeOptions{})
	require.NoError(t, err)
	require.Len(t, frags, 1)

	dest := make([]byte, len(raw))
	n, err := c.Decode(frags, info, 0, dest)
	require.NoError(t, err)
	assert.Equal(t, len(raw), n)
	assert.Equal(t, raw, dest)
}

func TestEncodeDecodeRoundTrip16BitRandom(t *testing.T) {
	width, height := 8, 8
	info := codec.PixelInfo{Rows: uint16(height), Columns: uint16(width), SamplesPerPixel: 1, BitsAllocated: 16, BitsStored: 12, NumberOfFrames: 1}
	rnd := rand.New(rand.NewSource(7))
	raw := make([]byte, width*height*2)
	for i := 0; i < width*height; i++ {
		v := uint16(rnd.Intn(1 << 12))
		raw[i*2] = byte(v)
		raw[i*2+1] = byte(v >> 8)
	}

	c := jpeglossless.Codec{}
	frags, _, err := c.Encode(raw, info, codec.EncodeOptions{})
	require.NoError(t, err)

	dest := make([]byte, len(raw))
	_, err = c.Decode(frags, info, 0, dest)
	require.NoError(t, err)
	assert.Equal(t, raw, dest)
}

func TestValidateRejectsMissingSOI(t *testing.T) {
	c := jpeglossless.Codec{}
	diags := c.Validate([]codec.Fragment{{Data: []byte{0x00, 0x01}}}, codec.PixelInfo{})
	assert.NotEmpty(t, diags)
}
