package dicomio_test

import (
	"encoding/binary"
	"testing"

	"github.com/lucidhealth/dicom/dicomio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplicitVRShortHeader(t *testing.T) {
	// (0010,0010) PN 10 "DOE^JOHN  " -> spec §8 boundary scenario 2.
	buf := []byte{0x10, 0x00, 0x10, 0x00, 'P', 'N', 0x0A, 0x00, 'D', 'O', 'E', '^', 'J', 'O', 'H', 'N', ' ', ' '}
	r := dicomio.NewReader(buf, binary.LittleEndian, true, dicomio.DefaultOptions())
	h, err := r.TryReadElementHeader(nil)
	require.NoError(t, err)
	assert.Equal(t, dicomio.Tag{Group: 0x0010, Element: 0x0010}, h.Tag)
	assert.Equal(t, "PN", h.VR)
	assert.EqualValues(t, 10, h.Length)
	assert.Equal(t, 8, h.HeaderLen)
	value, err := r.TryReadValue(h.Length)
	require.NoError(t, err)
	assert.Equal(t, "DOE^JOHN  ", string(value))
	assert.True(t, r.AtEnd())
}

func TestExplicitVRLongHeader(t *testing.T) {
	// (7FE0,0010) OB 8 | 00..07 -> spec §8 boundary scenario 2.
	buf := []byte{0xE0, 0x7F, 0x10, 0x00, 'O', 'B', 0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0, 1, 2, 3, 4, 5, 6, 7}
	r := dicomio.NewReader(buf, binary.LittleEndian, true, dicomio.DefaultOptions())
	h, err := r.TryReadElementHeader(nil)
	require.NoError(t, err)
	assert.Equal(t, "OB", h.VR)
	assert.EqualValues(t, 8, h.Length)
	assert.Equal(t, 12, h.HeaderLen)
	value, err := r.TryReadValue(h.Length)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 5, 6, 7}, value)
}

func TestImplicitVRHeader(t *testing.T) {
	buf := []byte{0x10, 0x00, 0x10, 0x00, 0x04, 0x00, 0x00, 0x00, 'J', 'O', 'H', 'N'}
	r := dicomio.NewReader(buf, binary.LittleEndian, false, dicomio.DefaultOptions())
	resolve := func(t dicomio.Tag) (string, bool) { return "PN", true }
	h, err := r.TryReadElementHeader(resolve)
	require.NoError(t, err)
	assert.Equal(t, "PN", h.VR)
	assert.EqualValues(t, 4, h.Length)
	assert.Equal(t, 8, h.HeaderLen)
}

func TestUndefinedLengthPassesThrough(t *testing.T) {
	buf := []byte{0x00, 0x20, 0x03, 0x00, 'S', 'Q', 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}
	r := dicomio.NewReader(buf, binary.LittleEndian, true, dicomio.DefaultOptions())
	h, err := r.TryReadElementHeader(nil)
	require.NoError(t, err)
	assert.Equal(t, dicomio.UndefinedLength, h.Length)
}

func TestTruncationIsReported(t *testing.T) {
	buf := []byte{0x10, 0x00, 0x10, 0x00, 'P', 'N', 0x0A, 0x00} // header says 10 bytes of value, none present
	r := dicomio.NewReader(buf, binary.LittleEndian, true, dicomio.DefaultOptions())
	_, err := r.TryReadElementHeader(nil)
	assert.ErrorIs(t, err, dicomio.ErrTruncated)
	_, err = r.TryReadValue(10)
	assert.ErrorIs(t, err, dicomio.ErrTruncated)
}

func TestInvalidVRPolicies(t *testing.T) {
	buf := []byte{0x10, 0x00, 0x10, 0x00, 'Z', 'Z', 0x00, 0x00}

	opts := dicomio.DefaultOptions()
	opts.InvalidVR = dicomio.InvalidVRThrow
	r := dicomio.NewReader(buf, binary.LittleEndian, true, opts)
	_, err := r.TryReadElementHeader(nil)
	assert.ErrorIs(t, err, dicomio.ErrInvalidVR)

	opts.InvalidVR = dicomio.InvalidVRMapToUN
	r = dicomio.NewReader(buf, binary.LittleEndian, true, opts)
	h, err := r.TryReadElementHeader(nil)
	require.NoError(t, err)
	assert.Equal(t, "UN", h.VR)

	opts.InvalidVR = dicomio.InvalidVRPreserve
	r = dicomio.NewReader(buf, binary.LittleEndian, true, opts)
	h, err = r.TryReadElementHeader(nil)
	require.NoError(t, err)
	assert.Equal(t, "ZZ", h.VR)
}

func TestMaxLengthLimit(t *testing.T) {
	buf := []byte{0xE0, 0x7F, 0x10, 0x00, 'O', 'B', 0x00, 0x00, 0x08, 0x00, 0x00, 0x00}
	opts := dicomio.DefaultOptions()
	opts.MaxLength = 4
	r := dicomio.NewReader(buf, binary.LittleEndian, true, opts)
	_, err := r.TryReadElementHeader(nil)
	assert.ErrorIs(t, err, dicomio.ErrLengthLimitExceeded)
}
