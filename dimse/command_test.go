package dimse_test

import (
	"testing"

	"github.com/lucidhealth/dicom/dimse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandSetToDatasetAndBackRoundTrip(t *testing.T) {
	cmd := &dimse.CommandSet{
		CommandField:           dimse.CommandCStoreRQ,
		MessageID:              7,
		AffectedSOPClassUID:    "1.2.840.10008.5.1.4.1.1.7",
		AffectedSOPInstanceUID: "1.2.3.4.5",
		Priority:               dimse.PriorityMedium,
		CommandDataSetType:     dimse.DataSetTypePresent,
	}

	ds := cmd.ToDataset()
	got, err := dimse.CommandSetFromDataset(ds)
	require.NoError(t, err)
	assert.Equal(t, cmd.CommandField, got.CommandField)
	assert.Equal(t, cmd.MessageID, got.MessageID)
	assert.Equal(t, cmd.AffectedSOPClassUID, got.AffectedSOPClassUID)
	assert.Equal(t, cmd.AffectedSOPInstanceUID, got.AffectedSOPInstanceUID)
	assert.Equal(t, cmd.CommandDataSetType, got.CommandDataSetType)
	assert.True(t, got.HasDataset())
}

func TestCommandSetFromDatasetMissingCommandFieldErrors(t *testing.T) {
	cmd := &dimse.CommandSet{
		CommandField:       dimse.CommandCEchoRQ,
		MessageID:          1,
		CommandDataSetType: dimse.DataSetTypeNone,
	}
	ds := cmd.ToDataset()
	ds.Delete(ds.Elements()[0].Tag()) // CommandField is always the first element written

	_, err := dimse.CommandSetFromDataset(ds)
	assert.Error(t, err)
}

func TestResponseFieldForSetsResponseBit(t *testing.T) {
	assert.Equal(t, uint16(0x8001), dimse.ResponseFieldFor(dimse.CommandCStoreRQ))
	assert.Equal(t, uint16(0x8030), dimse.ResponseFieldFor(dimse.CommandCEchoRQ))
}

func TestIsPending(t *testing.T) {
	assert.True(t, dimse.IsPending(dimse.StatusPending))
	assert.True(t, dimse.IsPending(dimse.StatusPendingOptionalKeys))
	assert.False(t, dimse.IsPending(dimse.StatusSuccess))
}

func TestIsError(t *testing.T) {
	assert.False(t, dimse.IsError(dimse.StatusSuccess))
	assert.False(t, dimse.IsError(dimse.StatusPending))
	assert.False(t, dimse.IsError(dimse.StatusCancel))
	assert.False(t, dimse.IsError(0xB000)) // warning class
	assert.True(t, dimse.IsError(0xA700))  // error class
	assert.True(t, dimse.IsError(0xC000))
}

func TestHasDataset(t *testing.T) {
	present := &dimse.CommandSet{CommandDataSetType: dimse.DataSetTypePresent}
	none := &dimse.CommandSet{CommandDataSetType: dimse.DataSetTypeNone}
	assert.True(t, present.HasDataset())
	assert.False(t, none.HasDataset())
}
