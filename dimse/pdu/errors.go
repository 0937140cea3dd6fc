package pdu

import "errors"

// Sentinel errors for the PDU codec, part of spec §7's Network taxonomy
// ("PDU framing error, unexpected PDU for state, ...").
var (
	ErrFraming        = errors.New("dimse: PDU framing error")
	ErrItemTooLarge   = errors.New("dimse: sub-item length exceeds maximum")
	ErrUnexpectedItem = errors.New("dimse: unexpected sub-item type")
)
