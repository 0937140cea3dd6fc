package dimse_test

import (
	"testing"

	"github.com/lucidhealth/dicom"
	"github.com/lucidhealth/dicom/dimse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeThenReassembleCommandOnly(t *testing.T) {
	msg := &dimse.Message{
		Command: &dimse.CommandSet{
			CommandField:        dimse.CommandCEchoRQ,
			MessageID:           3,
			AffectedSOPClassUID: "1.2.840.10008.1.1",
			CommandDataSetType:  dimse.DataSetTypeNone,
		},
		PresentationContextID: 1,
	}

	pdus, err := msg.Encode(16384, dicom.ExplicitVRLittleEndian)
	require.NoError(t, err)
	require.NotEmpty(t, pdus)

	r := dimse.NewReassembler(func(byte) string { return dicom.ExplicitVRLittleEndian })
	var got *dimse.Message
	for _, p := range pdus {
		m, complete, err := r.AddPDU(p)
		require.NoError(t, err)
		if complete {
			got = m
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, msg.Command.CommandField, got.Command.CommandField)
	assert.Equal(t, msg.Command.MessageID, got.Command.MessageID)
	assert.Nil(t, got.Dataset)
}

func TestEncodeThenReassembleWithDataset(t *testing.T) {
	ds := dicom.NewDataset()
	ds.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0010, Element: 0x0010}, dicom.PN, "DOE^JOHN"))

	msg := &dimse.Message{
		Command: &dimse.CommandSet{
			CommandField:           dimse.CommandCStoreRQ,
			MessageID:              5,
			AffectedSOPClassUID:    "1.2.840.10008.5.1.4.1.1.7",
			AffectedSOPInstanceUID: "1.2.3",
			CommandDataSetType:     dimse.DataSetTypePresent,
		},
		Dataset:                ds,
		PresentationContextID:  1,
	}

	// A small max PDU length forces fragmentation across several PDUs.
	pdus, err := msg.Encode(24, dicom.ExplicitVRLittleEndian)
	require.NoError(t, err)
	require.Greater(t, len(pdus), 1)

	r := dimse.NewReassembler(func(byte) string { return dicom.ExplicitVRLittleEndian })
	var got *dimse.Message
	for _, p := range pdus {
		m, complete, err := r.AddPDU(p)
		require.NoError(t, err)
		if complete {
			got = m
		}
	}
	require.NotNil(t, got)
	require.NotNil(t, got.Dataset)
	assert.True(t, ds.Equal(got.Dataset))
}

func TestEncodeMissingDatasetWhenRequiredErrors(t *testing.T) {
	msg := &dimse.Message{
		Command: &dimse.CommandSet{
			CommandField:       dimse.CommandCStoreRQ,
			MessageID:           1,
			CommandDataSetType: dimse.DataSetTypePresent,
		},
		PresentationContextID: 1,
	}
	_, err := msg.Encode(16384, dicom.ExplicitVRLittleEndian)
	assert.Error(t, err)
}
