package codec_test

import (
	"testing"

	"github.com/lucidhealth/dicom/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCodec struct{ name string }

func (s stubCodec) Capabilities() codec.Capabilities { return codec.Capabilities{} }
func (s stubCodec) Decode(fragments []codec.Fragment, info codec.PixelInfo, frameIndex int, destination []byte) (int, error) {
	return 0, nil
}
func (s stubCodec) Encode(raw []byte, info codec.PixelInfo, opts codec.EncodeOptions) ([]codec.Fragment, []uint32, error) {
	return nil, nil, nil
}
func (s stubCodec) Validate(fragments []codec.Fragment, info codec.PixelInfo) []codec.Diagnostic {
	return nil
}

func TestRegisterHigherPriorityWins(t *testing.T) {
	r := codec.NewRegistry()
	r.Register("1.2.3", stubCodec{"low"}, codec.PriorityDefault, "a")
	r.Register("1.2.3", stubCodec{"high"}, codec.PriorityExplicitOverride, "b")
	c, ok := r.Lookup("1.2.3")
	require.True(t, ok)
	assert.Equal(t, stubCodec{"high"}, c)
}

func TestRegisterLowerPriorityDoesNotOverride(t *testing.T) {
	r := codec.NewRegistry()
	r.Register("1.2.3", stubCodec{"high"}, codec.PriorityExplicitOverride, "a")
	r.Register("1.2.3", stubCodec{"low"}, codec.PriorityDefault, "b")
	c, ok := r.Lookup("1.2.3")
	require.True(t, ok)
	assert.Equal(t, stubCodec{"high"}, c)
}

func TestEqualPriorityFirstRegisteredWins(t *testing.T) {
	r := codec.NewRegistry()
	r.Register("1.2.3", stubCodec{"first"}, codec.PriorityDefault, "a")
	r.Register("1.2.3", stubCodec{"second"}, codec.PriorityDefault, "b")
	c, ok := r.Lookup("1.2.3")
	require.True(t, ok)
	assert.Equal(t, stubCodec{"first"}, c)
}

func TestLookupMissingReturnsFalse(t *testing.T) {
	r := codec.NewRegistry()
	_, ok := r.Lookup("9.9.9")
	assert.False(t, ok)
}

func TestLookupFreezesAndNegativeCacheInvalidatedByRegister(t *testing.T) {
	r := codec.NewRegistry()
	assert.False(t, r.Frozen())
	_, ok := r.Lookup("9.9.9")
	assert.False(t, ok)
	assert.True(t, r.Frozen())

	// registering the previously-missing UID must invalidate the cached
	// negative lookup.
	r.Register("9.9.9", stubCodec{"late"}, codec.PriorityDefault, "late")
	c, ok := r.Lookup("9.9.9")
	require.True(t, ok)
	assert.Equal(t, stubCodec{"late"}, c)
}

func TestReset(t *testing.T) {
	r := codec.NewRegistry()
	r.Register("1.2.3", stubCodec{}, codec.PriorityDefault, "a")
	r.Lookup("1.2.3")
	r.Reset()
	assert.False(t, r.Frozen())
	_, ok := r.Lookup("1.2.3")
	assert.False(t, ok)
}
