package dicom_test

import (
	"encoding/binary"
	"testing"

	"github.com/lucidhealth/dicom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTransferSyntaxKnownUID(t *testing.T) {
	ts, err := dicom.ResolveTransferSyntax(dicom.ExplicitVRBigEndian)
	require.NoError(t, err)
	assert.True(t, ts.ExplicitVR)
	assert.False(t, ts.LittleEndian)
	assert.False(t, ts.Deflated)
	assert.Equal(t, binary.BigEndian, ts.ByteOrder())
}

func TestResolveTransferSyntaxEmptyDefaultsToImplicitVRLE(t *testing.T) {
	ts, err := dicom.ResolveTransferSyntax("")
	require.NoError(t, err)
	assert.Equal(t, dicom.ImplicitVRLittleEndian, ts.UID)
}

func TestResolveTransferSyntaxUnknownUID(t *testing.T) {
	_, err := dicom.ResolveTransferSyntax("1.2.3.4.5.6.7.8.9")
	assert.ErrorIs(t, err, dicom.ErrUnknownTransferSyntax)
}

func TestIsEncapsulated(t *testing.T) {
	implicit, err := dicom.ResolveTransferSyntax(dicom.ImplicitVRLittleEndian)
	require.NoError(t, err)
	assert.False(t, implicit.IsEncapsulated())

	jpegLossless, err := dicom.ResolveTransferSyntax(dicom.JPEGLosslessProcess14SV1)
	require.NoError(t, err)
	assert.True(t, jpegLossless.IsEncapsulated())

	rle, err := dicom.ResolveTransferSyntax(dicom.RLELossless)
	require.NoError(t, err)
	assert.True(t, rle.IsEncapsulated())
}
