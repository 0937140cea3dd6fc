package pdu

import "io"

// Abort sources (DICOM PS3.8 Table 9-26).
const (
	AbortSourceServiceUser     uint8 = 0
	AbortSourceServiceProvider uint8 = 2
)

// Abort reasons, meaningful only when Source is AbortSourceServiceProvider.
const (
	AbortReasonNotSpecified         uint8 = 0
	AbortReasonUnrecognizedPDU      uint8 = 1
	AbortReasonUnexpectedPDU        uint8 = 2
	AbortReasonUnexpectedPDUParam   uint8 = 4
	AbortReasonInvalidPDUParamValue uint8 = 5
)

// Abort is the A-ABORT PDU. It can originate from either association
// peer (spec §4.J "Aborted" sink state, reachable from any state).
type Abort struct {
	Source uint8
	Reason uint8
}

func (p *Abort) Type() byte { return TypeAbort }

func (p *Abort) Encode(w io.Writer) error {
	if err := writeHeader(w, TypeAbort, 4); err != nil {
		return err
	}
	_, err := w.Write([]byte{0, 0, p.Source, p.Reason})
	return err
}

func (p *Abort) Decode(r io.Reader) error {
	var body [4]byte
	if _, err := io.ReadFull(r, body[:]); err != nil {
		return err
	}
	p.Source = body[2]
	p.Reason = body[3]
	return nil
}
