package dicom_test

import (
	"testing"

	"github.com/lucidhealth/dicom"
	"github.com/stretchr/testify/assert"
)

func TestTagString(t *testing.T) {
	tag := dicom.Tag{Group: 0x0010, Element: 0x0010}
	assert.Equal(t, "(0010,0010)", tag.String())
}

func TestIsPrivate(t *testing.T) {
	assert.True(t, dicom.Tag{Group: 0x0009, Element: 0x0010}.IsPrivate())
	assert.False(t, dicom.Tag{Group: 0x0008, Element: 0x0010}.IsPrivate())
}

func TestIsPrivateCreator(t *testing.T) {
	assert.True(t, dicom.Tag{Group: 0x0009, Element: 0x0010}.IsPrivateCreator())
	assert.True(t, dicom.Tag{Group: 0x0009, Element: 0x00FF}.IsPrivateCreator())
	assert.False(t, dicom.Tag{Group: 0x0009, Element: 0x0009}.IsPrivateCreator())
	assert.False(t, dicom.Tag{Group: 0x0009, Element: 0x1001}.IsPrivateCreator())
}

func TestIsPrivateData(t *testing.T) {
	assert.True(t, dicom.Tag{Group: 0x0009, Element: 0x1001}.IsPrivateData())
	assert.False(t, dicom.Tag{Group: 0x0009, Element: 0x0010}.IsPrivateData())
	assert.False(t, dicom.Tag{Group: 0x0008, Element: 0x1001}.IsPrivateData())
}

func TestPrivateSlotAndCreatorTag(t *testing.T) {
	data := dicom.Tag{Group: 0x0009, Element: 0x1001}
	assert.EqualValues(t, 0x10, data.PrivateSlot())
	assert.Equal(t, dicom.Tag{Group: 0x0009, Element: 0x0010}, data.PrivateCreatorTag())
}
