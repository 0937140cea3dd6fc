package dicom_test

import (
	"testing"

	"github.com/lucidhealth/dicom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEncapsulatedPixelData builds a *PixelDataElement by round-tripping
// through WriteFile/ReadFile isn't needed here: the fragment layout is set up
// directly, matching how file.go's readEncapsulatedPixelData populates it.
func newEncapsulatedPixelData(t *testing.T, bot []uint32, fragments ...string) *dicom.PixelDataElement {
	t.Helper()
	ds := dicom.NewDataset()
	pd := dicom.NewEncapsulatedPixelData(bot)
	for _, f := range fragments {
		pd.Fragments = append(pd.Fragments, dicom.PixelFragment{Data: []byte(f)})
	}
	ds.Put(pd)
	elem, ok := ds.Get(dicom.TagPixelData)
	require.True(t, ok)
	got, ok := elem.(*dicom.PixelDataElement)
	require.True(t, ok)
	return got
}

func TestFrameFragmentsWithBasicOffsetTable(t *testing.T) {
	// Three fragments, 5/3/4 bytes; BOT marks frame boundaries at byte
	// offsets 0 and 8 into the concatenated fragment stream, so frame 0
	// spans the first two fragments and frame 1 is the third alone.
	pd := newEncapsulatedPixelData(t, []uint32{0, 8}, "AAAAA", "BBB", "CCCC")

	frame0, err := pd.FrameFragments(0, 2)
	require.NoError(t, err)
	require.Len(t, frame0, 2)
	assert.Equal(t, "AAAAA", string(frame0[0].Data))
	assert.Equal(t, "BBB", string(frame0[1].Data))

	frame1, err := pd.FrameFragments(1, 2)
	require.NoError(t, err)
	require.Len(t, frame1, 1)
	assert.Equal(t, "CCCC", string(frame1[0].Data))

	_, err = pd.FrameFragments(2, 2)
	assert.Error(t, err)
}

func TestFrameFragmentsEmptyBOTFallsBackToOneFragmentPerFrame(t *testing.T) {
	// No Basic Offset Table: SPEC_FULL.md's open-question decision 2 treats
	// each fragment as exactly one frame.
	pd := newEncapsulatedPixelData(t, nil, "AAAAA", "BBB", "CCCC")

	for i, want := range []string{"AAAAA", "BBB", "CCCC"} {
		frag, err := pd.FrameFragments(i, 3)
		require.NoError(t, err)
		require.Len(t, frag, 1)
		assert.Equal(t, want, string(frag[0].Data))
	}

	_, err := pd.FrameFragments(3, 3)
	assert.Error(t, err)
}
