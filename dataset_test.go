package dicom_test

import (
	"testing"

	"github.com/lucidhealth/dicom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutReplacesInPlace(t *testing.T) {
	ds := dicom.NewDataset()
	ds.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0008, Element: 0x0020}, dicom.DA, "20200101"))
	ds.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0010, Element: 0x0010}, dicom.PN, "DOE^JOHN"))
	ds.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0008, Element: 0x0020}, dicom.DA, "20210101"))

	require.Equal(t, 2, ds.Len())
	e, ok := ds.Get(dicom.Tag{Group: 0x0008, Element: 0x0020})
	require.True(t, ok)
	se := e.(*dicom.StringElement)
	assert.Equal(t, []string{"20210101"}, se.Values)

	elems := ds.Elements()
	require.Len(t, elems, 2)
	assert.Equal(t, dicom.Tag{Group: 0x0008, Element: 0x0020}, elems[0].Tag())
}

func TestElementsOrderedByGroupThenElement(t *testing.T) {
	ds := dicom.NewDataset()
	ds.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0010, Element: 0x0020}, dicom.LO, "ID1"))
	ds.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0008, Element: 0x0050}, dicom.SH, "ACC1"))
	ds.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0008, Element: 0x0020}, dicom.DA, "20200101"))

	elems := ds.Elements()
	require.Len(t, elems, 3)
	assert.Equal(t, dicom.Tag{Group: 0x0008, Element: 0x0020}, elems[0].Tag())
	assert.Equal(t, dicom.Tag{Group: 0x0008, Element: 0x0050}, elems[1].Tag())
	assert.Equal(t, dicom.Tag{Group: 0x0010, Element: 0x0020}, elems[2].Tag())
}

func TestMustGetNotFound(t *testing.T) {
	ds := dicom.NewDataset()
	_, err := ds.MustGet(dicom.Tag{Group: 0x0008, Element: 0x0018})
	assert.ErrorIs(t, err, dicom.ErrTagNotFound)
}

func TestDeleteRemovesFromOrderAndMap(t *testing.T) {
	ds := dicom.NewDataset()
	tag := dicom.Tag{Group: 0x0010, Element: 0x0010}
	ds.Put(dicom.NewStringElement(tag, dicom.PN, "DOE^JOHN"))
	ds.Delete(tag)

	_, ok := ds.Get(tag)
	assert.False(t, ok)
	assert.Equal(t, 0, ds.Len())
}

func TestValidateOrphanPrivateElement(t *testing.T) {
	ds := dicom.NewDataset()
	ds.Put(dicom.NewBinaryElement(dicom.Tag{Group: 0x0009, Element: 0x1001}, dicom.UN, []byte{1, 2, 3}))

	err := ds.Validate()
	assert.ErrorIs(t, err, dicom.ErrOrphanPrivateElement)
}

func TestValidatePrivateDataWithCreatorIsOK(t *testing.T) {
	ds := dicom.NewDataset()
	ds.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0009, Element: 0x0010}, dicom.LO, "ACME 1.0"))
	ds.Put(dicom.NewBinaryElement(dicom.Tag{Group: 0x0009, Element: 0x1001}, dicom.UN, []byte{1, 2, 3}))

	assert.NoError(t, ds.Validate())
}

func TestStripPrivateTagsRemovesUnkeptCreatorsAndData(t *testing.T) {
	ds := dicom.NewDataset()
	ds.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0009, Element: 0x0010}, dicom.LO, "ACME 1.0"))
	ds.Put(dicom.NewBinaryElement(dicom.Tag{Group: 0x0009, Element: 0x1001}, dicom.UN, []byte{1, 2, 3}))
	ds.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0008, Element: 0x0020}, dicom.DA, "20200101"))

	ds.StripPrivateTags(nil)

	assert.Equal(t, 1, ds.Len())
	_, ok := ds.Get(dicom.Tag{Group: 0x0008, Element: 0x0020})
	assert.True(t, ok)
}

func TestStripPrivateTagsKeepsWhenPredicateMatches(t *testing.T) {
	ds := dicom.NewDataset()
	ds.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0009, Element: 0x0010}, dicom.LO, "ACME 1.0"))
	ds.Put(dicom.NewBinaryElement(dicom.Tag{Group: 0x0009, Element: 0x1001}, dicom.UN, []byte{1, 2, 3}))

	ds.StripPrivateTags(func(creator string) bool { return creator == "ACME 1.0" })

	assert.Equal(t, 2, ds.Len())
}

func TestCloneIsIndependentOfOrder(t *testing.T) {
	ds := dicom.NewDataset()
	ds.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0010, Element: 0x0010}, dicom.PN, "DOE^JOHN"))
	clone := ds.Clone()
	clone.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0010, Element: 0x0020}, dicom.LO, "ID1"))

	assert.Equal(t, 1, ds.Len())
	assert.Equal(t, 2, clone.Len())
}

func TestEqualComparesTagsAndValues(t *testing.T) {
	a := dicom.NewDataset()
	a.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0010, Element: 0x0010}, dicom.PN, "DOE^JOHN"))
	b := dicom.NewDataset()
	b.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0010, Element: 0x0010}, dicom.PN, "DOE^JOHN"))

	assert.True(t, a.Equal(b))

	b.Put(dicom.NewStringElement(dicom.Tag{Group: 0x0010, Element: 0x0020}, dicom.LO, "ID1"))
	assert.False(t, a.Equal(b))
}
