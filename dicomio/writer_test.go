package dicomio_test

import (
	"encoding/binary"
	"testing"

	"github.com/lucidhealth/dicom/dicomio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteExplicitVRShortRoundTrips(t *testing.T) {
	w := dicomio.NewWriter(binary.LittleEndian, true)
	w.WriteElementHeader(dicomio.Tag{Group: 0x0010, Element: 0x0010}, "PN", 10)
	w.WriteString("DOE^JOHN  ")
	out, err := w.Finish()
	require.NoError(t, err)

	want := []byte{0x10, 0x00, 0x10, 0x00, 'P', 'N', 0x0A, 0x00, 'D', 'O', 'E', '^', 'J', 'O', 'H', 'N', ' ', ' '}
	assert.Equal(t, want, out)
}

func TestWriteExplicitVRLongRoundTrips(t *testing.T) {
	w := dicomio.NewWriter(binary.LittleEndian, true)
	w.WriteElementHeader(dicomio.Tag{Group: 0x7FE0, Element: 0x0010}, "OB", 8)
	w.WriteBytes([]byte{0, 1, 2, 3, 4, 5, 6, 7})
	out, err := w.Finish()
	require.NoError(t, err)

	want := []byte{0xE0, 0x7F, 0x10, 0x00, 'O', 'B', 0x00, 0x00, 0x08, 0x00, 0x00, 0x00, 0, 1, 2, 3, 4, 5, 6, 7}
	assert.Equal(t, want, out)
}

func TestPushPopEncodingRestoresState(t *testing.T) {
	w := dicomio.NewWriter(binary.BigEndian, false)
	w.PushEncoding(binary.LittleEndian, true)
	assert.True(t, w.ExplicitVR())
	w.PopEncoding()
	assert.False(t, w.ExplicitVR())
	assert.Equal(t, binary.BigEndian, w.ByteOrder())
}

func TestItemGroupAlwaysImplicitForm(t *testing.T) {
	w := dicomio.NewWriter(binary.LittleEndian, true)
	w.WriteElementHeader(dicomio.Tag{Group: 0xFFFE, Element: 0xE000}, "", 0)
	out, err := w.Finish()
	require.NoError(t, err)
	assert.Len(t, out, 8) // tag(4) + length(4), no VR bytes even though writer is explicit-VR
}
