// Package dimse implements the DICOM Message Service Element layer (spec
// §4.J, §6, §8, §9): association negotiation, command-set exchange, and
// the DIMSE services (C-ECHO, C-STORE, C-FIND, C-MOVE, C-GET, N-*). The
// teacher module has no network layer of its own, so the wire protocol and
// package shape here are grounded on codeninja55/go-radx's dimse
// subpackages, adapted onto this module's dataset codec, error, and
// logging conventions.
package dimse

import (
	"errors"
	"fmt"
)

// Sentinel errors for the Network error taxonomy (spec §7): unexpected
// PDU for the current association state, a presentation context that was
// never negotiated, association rejection, and deadline expiry.
var (
	ErrUnexpectedPDU        = errors.New("dimse: unexpected PDU for current association state")
	ErrContextNotNegotiated = errors.New("dimse: presentation context not negotiated")
	ErrAssociationRejected  = errors.New("dimse: association rejected")
	ErrAssociationAborted   = errors.New("dimse: association aborted")
	ErrTimeout              = errors.New("dimse: operation deadline exceeded")
	ErrNotEstablished       = errors.New("dimse: association not established")
)

// RejectError carries the peer's A-ASSOCIATE-RJ result/source/reason
// (spec §4.J "Negotiation" step 2's whole-association rejection path).
type RejectError struct {
	Result uint8
	Source uint8
	Reason uint8
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("dimse: association rejected (result=%d source=%d reason=%d)", e.Result, e.Source, e.Reason)
}

func (e *RejectError) Unwrap() error { return ErrAssociationRejected }

// AbortError carries the peer's or local A-ABORT source/reason (spec
// §4.J's Aborted sink state, reachable from any state).
type AbortError struct {
	Source uint8
	Reason uint8
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("dimse: association aborted (source=%d reason=%d)", e.Source, e.Reason)
}

func (e *AbortError) Unwrap() error { return ErrAssociationAborted }
