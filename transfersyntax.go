package dicom

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// TransferSyntax is a UID plus the three encoding flags of spec §3
// "Transfer syntax".
type TransferSyntax struct {
	UID          string
	ExplicitVR   bool
	LittleEndian bool
	Deflated     bool
}

// ByteOrder returns the binary.ByteOrder implied by ts.
func (ts TransferSyntax) ByteOrder() binary.ByteOrder {
	if ts.LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Standard transfer syntax UIDs (spec §4.E, §6).
const (
	ImplicitVRLittleEndian         = "1.2.840.10008.1.2"
	ExplicitVRLittleEndian         = "1.2.840.10008.1.2.1"
	ExplicitVRBigEndian            = "1.2.840.10008.1.2.2"
	DeflatedExplicitVRLittleEndian = "1.2.840.10008.1.2.1.99"
	JPEGLosslessProcess14SV1       = "1.2.840.10008.1.2.4.70"
	RLELossless                    = "1.2.840.10008.1.2.5"
)

var standardTransferSyntaxes = map[string]TransferSyntax{
	ImplicitVRLittleEndian:         {ImplicitVRLittleEndian, false, true, false},
	ExplicitVRLittleEndian:         {ExplicitVRLittleEndian, true, true, false},
	ExplicitVRBigEndian:            {ExplicitVRBigEndian, true, false, false},
	DeflatedExplicitVRLittleEndian: {DeflatedExplicitVRLittleEndian, true, true, true},
	JPEGLosslessProcess14SV1:       {JPEGLosslessProcess14SV1, true, true, false},
	RLELossless:                    {RLELossless, true, true, false},
}

// ResolveTransferSyntax looks up a transfer syntax by UID. Unrecognised but
// well-formed compressed-syntax UIDs (anything under the JPEG/RLE/JPEG2000
// branches) are treated as explicit-VR little-endian with encapsulated pixel
// data, since their dataset framing is identical regardless of which pixel
// codec eventually claims them (spec §4.G, registry lookup is separate from
// framing).
func ResolveTransferSyntax(uid string) (TransferSyntax, error) {
	if ts, ok := standardTransferSyntaxes[uid]; ok {
		return ts, nil
	}
	if len(uid) == 0 {
		return standardTransferSyntaxes[ImplicitVRLittleEndian], nil
	}
	if strings.HasPrefix(uid, "1.2.840.10008.1.2.4.") || strings.HasPrefix(uid, "1.2.840.10008.1.2.5.") {
		return TransferSyntax{UID: uid, ExplicitVR: true, LittleEndian: true}, nil
	}
	return TransferSyntax{}, fmt.Errorf("%w: %q", ErrUnknownTransferSyntax, uid)
}

// IsEncapsulated reports whether pixel data under ts is carried as an
// encapsulated fragment sequence rather than a native pixel array (spec §3
// "Transfer syntax").
func (ts TransferSyntax) IsEncapsulated() bool {
	switch ts.UID {
	case ImplicitVRLittleEndian, ExplicitVRLittleEndian, ExplicitVRBigEndian, DeflatedExplicitVRLittleEndian:
		return false
	default:
		return true
	}
}
