package charset_test

import (
	"testing"

	"github.com/lucidhealth/dicom/charset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSingleValueFillsAllSlots(t *testing.T) {
	cs, err := charset.Resolve([]string{"ISO_IR 100"})
	require.NoError(t, err)
	assert.NotNil(t, cs.Alphabetic)
	assert.Same(t, cs.Alphabetic, cs.Ideographic)
	assert.Same(t, cs.Ideographic, cs.Phonetic)
}

func TestResolveEmptyIsDefaultASCII(t *testing.T) {
	cs, err := charset.Resolve(nil)
	require.NoError(t, err)
	out, err := charset.Decode(cs, charset.Alphabetic, []byte("DOE^JOHN"))
	require.NoError(t, err)
	assert.Equal(t, "DOE^JOHN", out)
}

func TestResolveUnsupportedNameErrors(t *testing.T) {
	_, err := charset.Resolve([]string{"ISO 2022 IR 149"})
	assert.Error(t, err)
}

func TestDecodeLatin1(t *testing.T) {
	cs, err := charset.Resolve([]string{"ISO_IR 100"})
	require.NoError(t, err)
	// 0xE9 in Latin-1 is 'é'.
	out, err := charset.Decode(cs, charset.Ideographic, []byte{0xE9})
	require.NoError(t, err)
	assert.Equal(t, "é", out)
}
