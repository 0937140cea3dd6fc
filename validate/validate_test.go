package validate_test

import (
	"testing"

	"github.com/lucidhealth/dicom"
	"github.com/lucidhealth/dicom/validate"
	"github.com/stretchr/testify/assert"
)

func dsWith(e *dicom.StringElement) *dicom.Dataset {
	ds := dicom.NewDataset()
	ds.Put(e)
	return ds
}

func TestLeapYearDateValid(t *testing.T) {
	ds := dsWith(dicom.NewStringElement(dicom.Tag{Group: 0x0008, Element: 0x0020}, dicom.DA, "20240229"))
	diags := validate.Validate(ds, validate.ProfileStrict)
	assert.Empty(t, diags)
}

func TestLeapYearDateInvalid(t *testing.T) {
	ds := dsWith(dicom.NewStringElement(dicom.Tag{Group: 0x0008, Element: 0x0020}, dicom.DA, "20230229"))
	diags := validate.Validate(ds, validate.ProfileStrict)
	assert := assert.New(t)
	if assert.Len(diags, 1) {
		assert.Equal("INVALID_DATE_VALUE", diags[0].Code)
	}
}

func TestUIDFormatLeadingZero(t *testing.T) {
	ds := dsWith(dicom.NewStringElement(dicom.Tag{Group: 0x0002, Element: 0x0010}, dicom.UI, "1.02.3"))
	diags := validate.Validate(ds, validate.ProfileStrict)
	if assert.Len(t, diags, 1) {
		assert.Equal(t, "INVALID_UID_FORMAT", diags[0].Code)
	}
}

func TestUIDFormatEmptyComponent(t *testing.T) {
	ds := dsWith(dicom.NewStringElement(dicom.Tag{Group: 0x0002, Element: 0x0010}, dicom.UI, "1..3"))
	diags := validate.Validate(ds, validate.ProfileStrict)
	assert.NotEmpty(t, diags)
}

func TestUIDFormatTooLong(t *testing.T) {
	long := ""
	for i := 0; i < 70; i++ {
		long += "1"
	}
	ds := dsWith(dicom.NewStringElement(dicom.Tag{Group: 0x0002, Element: 0x0010}, dicom.UI, long))
	diags := validate.Validate(ds, validate.ProfileStrict)
	assert.NotEmpty(t, diags)
}

func TestUIDFormatValid(t *testing.T) {
	ds := dsWith(dicom.NewStringElement(dicom.Tag{Group: 0x0002, Element: 0x0010}, dicom.UI, "1.2.840.10008.1.2"))
	diags := validate.Validate(ds, validate.ProfileStrict)
	assert.Empty(t, diags)
}

func TestPermissiveProfileIgnoresFormatRules(t *testing.T) {
	ds := dsWith(dicom.NewStringElement(dicom.Tag{Group: 0x0008, Element: 0x0020}, dicom.DA, "20230229"))
	diags := validate.Validate(ds, validate.ProfilePermissive)
	assert.Empty(t, diags)
}

func TestLenientProfileDowngradesFormatRulesToWarning(t *testing.T) {
	ds := dsWith(dicom.NewStringElement(dicom.Tag{Group: 0x0008, Element: 0x0020}, dicom.DA, "20230229"))
	diags := validate.Validate(ds, validate.ProfileLenient)
	if assert.Len(t, diags, 1) {
		assert.Equal(t, validate.SeverityWarning, diags[0].Severity)
	}
}

func TestAgeStringValidation(t *testing.T) {
	ds := dsWith(dicom.NewStringElement(dicom.Tag{Group: 0x0010, Element: 0x1010}, dicom.AS, "032Y"))
	assert.Empty(t, validate.Validate(ds, validate.ProfileStrict))

	ds2 := dsWith(dicom.NewStringElement(dicom.Tag{Group: 0x0010, Element: 0x1010}, dicom.AS, "32Y"))
	assert.NotEmpty(t, validate.Validate(ds2, validate.ProfileStrict))
}
