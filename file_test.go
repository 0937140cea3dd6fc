package dicom_test

import (
	"bytes"
	"testing"

	"github.com/lucidhealth/dicom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileThenReadFileRoundTrip(t *testing.T) {
	metaDS := dicom.NewDataset()
	metaDS.Put(dicom.NewStringElement(dicom.TagTransferSyntaxUID, dicom.UI, dicom.ExplicitVRLittleEndian))
	ts, err := dicom.ResolveTransferSyntax(dicom.ExplicitVRLittleEndian)
	require.NoError(t, err)
	fm := &dicom.FileMeta{Dataset: metaDS, TransferSyntax: ts}

	ds := dicom.NewDataset()
	ds.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0010, Element: 0x0010}, dicom.PN, "DOE^JOHN"))
	ds.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0010, Element: 0x0020}, dicom.LO, "ID1"))

	var buf bytes.Buffer
	require.NoError(t, dicom.WriteFile(&buf, fm, ds))

	gotDS, gotMeta, err := dicom.ReadFileBytes(buf.Bytes(), dicom.DefaultFileOptions())
	require.NoError(t, err)
	assert.True(t, gotMeta.HasPreamble)
	assert.True(t, gotMeta.HasDICM)
	assert.Equal(t, dicom.ExplicitVRLittleEndian, gotMeta.TransferSyntax.UID)
	assert.True(t, ds.Equal(gotDS))
}

func TestReadFileBytesDeflatedRoundTrip(t *testing.T) {
	metaDS := dicom.NewDataset()
	metaDS.Put(dicom.NewStringElement(dicom.TagTransferSyntaxUID, dicom.UI, dicom.DeflatedExplicitVRLittleEndian))
	ts, err := dicom.ResolveTransferSyntax(dicom.DeflatedExplicitVRLittleEndian)
	require.NoError(t, err)
	fm := &dicom.FileMeta{Dataset: metaDS, TransferSyntax: ts}

	ds := dicom.NewDataset()
	ds.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0008, Element: 0x0060}, dicom.CS, "CT"))

	var buf bytes.Buffer
	require.NoError(t, dicom.WriteFile(&buf, fm, ds))

	gotDS, gotMeta, err := dicom.ReadFileBytes(buf.Bytes(), dicom.DefaultFileOptions())
	require.NoError(t, err)
	assert.Equal(t, dicom.DeflatedExplicitVRLittleEndian, gotMeta.TransferSyntax.UID)
	assert.True(t, ds.Equal(gotDS))
}
