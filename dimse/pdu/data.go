package pdu

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Message control header bits (spec §4.I "Presentation Data Value").
const (
	controlCommand      byte = 0x01
	controlLastFragment byte = 0x02
)

// PresentationDataValue is one PDV inside a P-DATA-TF PDU: a presentation
// context id, a message control header, and a fragment of either the
// command set or the dataset.
type PresentationDataValue struct {
	PresentationContextID byte
	MessageControlHeader  byte
	Data                  []byte
}

// IsCommand reports whether this PDV carries command-set bytes rather
// than dataset bytes.
func (pdv PresentationDataValue) IsCommand() bool {
	return pdv.MessageControlHeader&controlCommand != 0
}

// IsLastFragment reports whether this PDV is the last fragment of its
// command or dataset stream.
func (pdv PresentationDataValue) IsLastFragment() bool {
	return pdv.MessageControlHeader&controlLastFragment != 0
}

// DataTF is the P-DATA-TF PDU: one or more PDV fragments.
type DataTF struct {
	Items []PresentationDataValue
}

func (p *DataTF) Type() byte { return TypeData }

func (p *DataTF) Encode(w io.Writer) error {
	var buf bytes.Buffer
	for _, pdv := range p.Items {
		if err := encodePDV(&buf, pdv); err != nil {
			return err
		}
	}
	if err := writeHeader(w, TypeData, buf.Len()); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (p *DataTF) Decode(r io.Reader) error {
	for {
		pdv, err := decodePDV(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		p.Items = append(p.Items, pdv)
	}
}

func encodePDV(w io.Writer, pdv PresentationDataValue) error {
	length := uint32(len(pdv.Data) + 2)
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], length)
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{pdv.PresentationContextID, pdv.MessageControlHeader}); err != nil {
		return err
	}
	_, err := w.Write(pdv.Data)
	return err
}

func decodePDV(r io.Reader) (PresentationDataValue, error) {
	var pdv PresentationDataValue
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return pdv, err
	}
	length := binary.BigEndian.Uint32(lenBuf[:])
	if length > MaxLength {
		return pdv, fmt.Errorf("dimse: %w: PDV length %d exceeds maximum", ErrItemTooLarge, length)
	}
	if length < 2 {
		return pdv, fmt.Errorf("dimse: %w: PDV length %d too small for header", ErrFraming, length)
	}
	var idHeader [2]byte
	if _, err := io.ReadFull(r, idHeader[:]); err != nil {
		return pdv, err
	}
	pdv.PresentationContextID = idHeader[0]
	pdv.MessageControlHeader = idHeader[1]
	data := make([]byte, length-2)
	if _, err := io.ReadFull(r, data); err != nil {
		return pdv, err
	}
	pdv.Data = data
	return pdv, nil
}
