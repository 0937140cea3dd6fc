package pdu

import (
	"bytes"
	"encoding/binary"
	"io"
)

// PresentationContextRQ is one proposed presentation context inside an
// A-ASSOCIATE-RQ (spec §4.J "Negotiation" step 1).
type PresentationContextRQ struct {
	ID               uint8
	AbstractSyntax   string
	TransferSyntaxes []string
}

// PresentationContextAC is the peer's per-context verdict inside an
// A-ASSOCIATE-AC.
type PresentationContextAC struct {
	ID             uint8
	Result         uint8
	TransferSyntax string
}

// Presentation context result codes (spec §4.J step 2).
const (
	ResultAcceptance                   uint8 = 0
	ResultUserRejection                uint8 = 1
	ResultNoReason                     uint8 = 2
	ResultAbstractSyntaxNotSupported   uint8 = 3
	ResultTransferSyntaxesNotSupported uint8 = 4
)

// UserInformation carries the user-info sub-items negotiated at
// association time (spec §4.I "Sub-items").
type UserInformation struct {
	MaxPDULength           uint32
	ImplementationClassUID string
	ImplementationVersion  string
}

// AsyncOperations is the optional Asynchronous Operations Window
// sub-item (spec §4.I parenthetical "Async Ops").
type AsyncOperations struct {
	Invoked   uint16
	Performed uint16
}

// AssociateRQ is the A-ASSOCIATE-RQ PDU.
type AssociateRQ struct {
	ProtocolVersion      uint16
	CalledAETitle        [16]byte
	CallingAETitle       [16]byte
	ApplicationContext   string
	PresentationContexts []PresentationContextRQ
	UserInfo             UserInformation
	AsyncOps             *AsyncOperations
}

func (p *AssociateRQ) Type() byte { return TypeAssociateRQ }

func (p *AssociateRQ) Encode(w io.Writer) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, p.ProtocolVersion); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(0)); err != nil {
		return err
	}
	buf.Write(p.CalledAETitle[:])
	buf.Write(p.CallingAETitle[:])
	buf.Write(make([]byte, 32))

	if err := encodeItem(&buf, itemApplicationContext, []byte(p.ApplicationContext)); err != nil {
		return err
	}
	for _, pc := range p.PresentationContexts {
		if err := encodePresentationContextRQ(&buf, pc); err != nil {
			return err
		}
	}
	if err := encodeUserInformation(&buf, p.UserInfo, p.AsyncOps); err != nil {
		return err
	}

	if err := writeHeader(w, TypeAssociateRQ, buf.Len()); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (p *AssociateRQ) Decode(r io.Reader) error {
	if err := binary.Read(r, binary.BigEndian, &p.ProtocolVersion); err != nil {
		return err
	}
	if _, err := io.CopyN(io.Discard, r, 2); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, p.CalledAETitle[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, p.CallingAETitle[:]); err != nil {
		return err
	}
	if _, err := io.CopyN(io.Discard, r, 32); err != nil {
		return err
	}

	for {
		itemType, data, err := readItem(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		switch itemType {
		case itemApplicationContext:
			p.ApplicationContext = string(data)
		case itemPresentationContextRQ:
			pc, err := decodePresentationContextRQ(data)
			if err != nil {
				return err
			}
			p.PresentationContexts = append(p.PresentationContexts, pc)
		case itemUserInformation:
			ui, async, err := decodeUserInformation(data)
			if err != nil {
				return err
			}
			p.UserInfo = ui
			p.AsyncOps = async
		}
	}
	return nil
}

// AssociateAC is the A-ASSOCIATE-AC PDU.
type AssociateAC struct {
	ProtocolVersion      uint16
	CalledAETitle        [16]byte
	CallingAETitle       [16]byte
	ApplicationContext   string
	PresentationContexts []PresentationContextAC
	UserInfo             UserInformation
	AsyncOps             *AsyncOperations
}

func (p *AssociateAC) Type() byte { return TypeAssociateAC }

func (p *AssociateAC) Encode(w io.Writer) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, p.ProtocolVersion); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(0)); err != nil {
		return err
	}
	buf.Write(p.CalledAETitle[:])
	buf.Write(p.CallingAETitle[:])
	buf.Write(make([]byte, 32))

	if err := encodeItem(&buf, itemApplicationContext, []byte(p.ApplicationContext)); err != nil {
		return err
	}
	for _, pc := range p.PresentationContexts {
		if err := encodePresentationContextAC(&buf, pc); err != nil {
			return err
		}
	}
	if err := encodeUserInformation(&buf, p.UserInfo, p.AsyncOps); err != nil {
		return err
	}

	if err := writeHeader(w, TypeAssociateAC, buf.Len()); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (p *AssociateAC) Decode(r io.Reader) error {
	if err := binary.Read(r, binary.BigEndian, &p.ProtocolVersion); err != nil {
		return err
	}
	if _, err := io.CopyN(io.Discard, r, 2); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, p.CalledAETitle[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, p.CallingAETitle[:]); err != nil {
		return err
	}
	if _, err := io.CopyN(io.Discard, r, 32); err != nil {
		return err
	}

	for {
		itemType, data, err := readItem(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		switch itemType {
		case itemApplicationContext:
			p.ApplicationContext = string(data)
		case itemPresentationContextAC:
			pc, err := decodePresentationContextAC(data)
			if err != nil {
				return err
			}
			p.PresentationContexts = append(p.PresentationContexts, pc)
		case itemUserInformation:
			ui, async, err := decodeUserInformation(data)
			if err != nil {
				return err
			}
			p.UserInfo = ui
			p.AsyncOps = async
		}
	}
	return nil
}

// Rejection result/source/reason codes (DICOM PS3.8 Table 9-21).
const (
	RJResultPermanent uint8 = 1
	RJResultTransient uint8 = 2

	RJSourceServiceUser                 uint8 = 1
	RJSourceServiceProviderACSE         uint8 = 2
	RJSourceServiceProviderPresentation uint8 = 3
)

// AssociateRJ is the A-ASSOCIATE-RJ PDU.
type AssociateRJ struct {
	Result uint8
	Source uint8
	Reason uint8
}

func (p *AssociateRJ) Type() byte { return TypeAssociateRJ }

func (p *AssociateRJ) Encode(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteByte(0)
	buf.WriteByte(p.Result)
	buf.WriteByte(p.Source)
	buf.WriteByte(p.Reason)
	if err := writeHeader(w, TypeAssociateRJ, buf.Len()); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (p *AssociateRJ) Decode(r io.Reader) error {
	var body [4]byte
	if _, err := io.ReadFull(r, body[:]); err != nil {
		return err
	}
	p.Result = body[1]
	p.Source = body[2]
	p.Reason = body[3]
	return nil
}

func encodePresentationContextRQ(w io.Writer, pc PresentationContextRQ) error {
	var buf bytes.Buffer
	buf.WriteByte(pc.ID)
	buf.Write(make([]byte, 3))
	if err := encodeItem(&buf, itemAbstractSyntax, []byte(pc.AbstractSyntax)); err != nil {
		return err
	}
	for _, ts := range pc.TransferSyntaxes {
		if err := encodeItem(&buf, itemTransferSyntax, []byte(ts)); err != nil {
			return err
		}
	}
	return encodeItem(w, itemPresentationContextRQ, buf.Bytes())
}

func decodePresentationContextRQ(data []byte) (PresentationContextRQ, error) {
	var pc PresentationContextRQ
	r := bytes.NewReader(data)
	id, err := r.ReadByte()
	if err != nil {
		return pc, err
	}
	pc.ID = id
	if _, err := io.CopyN(io.Discard, r, 3); err != nil {
		return pc, err
	}
	for {
		itemType, itemData, err := readItem(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return pc, err
		}
		switch itemType {
		case itemAbstractSyntax:
			pc.AbstractSyntax = string(itemData)
		case itemTransferSyntax:
			pc.TransferSyntaxes = append(pc.TransferSyntaxes, string(itemData))
		}
	}
	return pc, nil
}

func encodePresentationContextAC(w io.Writer, pc PresentationContextAC) error {
	var buf bytes.Buffer
	buf.WriteByte(pc.ID)
	buf.WriteByte(0)
	buf.WriteByte(pc.Result)
	buf.WriteByte(0)
	if pc.Result == ResultAcceptance {
		if err := encodeItem(&buf, itemTransferSyntax, []byte(pc.TransferSyntax)); err != nil {
			return err
		}
	}
	return encodeItem(w, itemPresentationContextAC, buf.Bytes())
}

func decodePresentationContextAC(data []byte) (PresentationContextAC, error) {
	var pc PresentationContextAC
	r := bytes.NewReader(data)
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return pc, err
	}
	pc.ID = header[0]
	pc.Result = header[2]
	for {
		itemType, itemData, err := readItem(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return pc, err
		}
		if itemType == itemTransferSyntax {
			pc.TransferSyntax = string(itemData)
		}
	}
	return pc, nil
}

func encodeUserInformation(w io.Writer, ui UserInformation, async *AsyncOperations) error {
	var buf bytes.Buffer
	if ui.MaxPDULength > 0 {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], ui.MaxPDULength)
		if err := encodeItem(&buf, itemMaxLength, lenBuf[:]); err != nil {
			return err
		}
	}
	if ui.ImplementationClassUID != "" {
		if err := encodeItem(&buf, itemImplementationClassUID, []byte(ui.ImplementationClassUID)); err != nil {
			return err
		}
	}
	if async != nil {
		var asyncBuf [4]byte
		binary.BigEndian.PutUint16(asyncBuf[0:2], async.Invoked)
		binary.BigEndian.PutUint16(asyncBuf[2:4], async.Performed)
		if err := encodeItem(&buf, itemAsyncOperations, asyncBuf[:]); err != nil {
			return err
		}
	}
	if ui.ImplementationVersion != "" {
		if err := encodeItem(&buf, itemImplementationVersion, []byte(ui.ImplementationVersion)); err != nil {
			return err
		}
	}
	return encodeItem(w, itemUserInformation, buf.Bytes())
}

func decodeUserInformation(data []byte) (UserInformation, *AsyncOperations, error) {
	var ui UserInformation
	var async *AsyncOperations
	r := bytes.NewReader(data)
	for {
		itemType, itemData, err := readItem(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return ui, async, err
		}
		switch itemType {
		case itemMaxLength:
			if len(itemData) == 4 {
				ui.MaxPDULength = binary.BigEndian.Uint32(itemData)
			}
		case itemImplementationClassUID:
			ui.ImplementationClassUID = string(itemData)
		case itemImplementationVersion:
			ui.ImplementationVersion = string(itemData)
		case itemAsyncOperations:
			if len(itemData) == 4 {
				async = &AsyncOperations{
					Invoked:   binary.BigEndian.Uint16(itemData[0:2]),
					Performed: binary.BigEndian.Uint16(itemData[2:4]),
				}
			}
		}
	}
	return ui, async, nil
}
