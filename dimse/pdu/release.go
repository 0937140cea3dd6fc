package pdu

import "io"

// ReleaseRQ is the A-RELEASE-RQ PDU: an empty body plus four reserved
// bytes (spec §4.J "Release").
type ReleaseRQ struct{}

func (p *ReleaseRQ) Type() byte { return TypeReleaseRQ }

func (p *ReleaseRQ) Encode(w io.Writer) error {
	if err := writeHeader(w, TypeReleaseRQ, 4); err != nil {
		return err
	}
	_, err := w.Write(make([]byte, 4))
	return err
}

func (p *ReleaseRQ) Decode(r io.Reader) error {
	_, err := io.CopyN(io.Discard, r, 4)
	if err == io.EOF {
		return nil
	}
	return err
}

// ReleaseRP is the A-RELEASE-RP PDU: the acknowledgment that completes
// the release handshake.
type ReleaseRP struct{}

func (p *ReleaseRP) Type() byte { return TypeReleaseRP }

func (p *ReleaseRP) Encode(w io.Writer) error {
	if err := writeHeader(w, TypeReleaseRP, 4); err != nil {
		return err
	}
	_, err := w.Write(make([]byte, 4))
	return err
}

func (p *ReleaseRP) Decode(r io.Reader) error {
	_, err := io.CopyN(io.Discard, r, 4)
	if err == io.EOF {
		return nil
	}
	return err
}
