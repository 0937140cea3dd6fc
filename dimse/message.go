package dimse

import (
	"fmt"

	"github.com/lucidhealth/dicom"
	"github.com/lucidhealth/dicom/dimse/pdu"
)

// Message is one DIMSE exchange: a command set and its optional dataset,
// scoped to one negotiated presentation context (spec §4.J "Message
// exchange", §6).
type Message struct {
	Command               *CommandSet
	Dataset               *dicom.Dataset
	PresentationContextID byte
}

// Encode fragments m into one or more P-DATA-TF PDUs, splitting the
// command and (if present) dataset streams at maxPDULength so no PDV
// exceeds the negotiated maximum (spec §4.I "max_pdu_length"). The
// command set is always Implicit VR Little Endian; the dataset, if any,
// is encoded under transferSyntaxUID, the transfer syntax negotiated for
// m's presentation context.
func (m *Message) Encode(maxPDULength uint32, transferSyntaxUID string) ([]*pdu.DataTF, error) {
	cmdBytes, err := dicom.EncodeImplicitVRLittleEndian(m.Command.ToDataset())
	if err != nil {
		return nil, fmt.Errorf("dimse: encode command set: %w", err)
	}

	var pdus []*pdu.DataTF
	pdus = append(pdus, fragmentStream(cmdBytes, m.PresentationContextID, true, maxPDULength)...)

	if m.Command.HasDataset() {
		if m.Dataset == nil {
			return nil, fmt.Errorf("dimse: command indicates a dataset but none was provided")
		}
		dsBytes, err := dicom.EncodeDataset(m.Dataset, transferSyntaxUID)
		if err != nil {
			return nil, fmt.Errorf("dimse: encode dataset: %w", err)
		}
		pdus = append(pdus, fragmentStream(dsBytes, m.PresentationContextID, false, maxPDULength)...)
	}
	return pdus, nil
}

// fragmentStream splits data into PDVs no larger than maxPDULength minus
// the PDV header overhead, packing each PDV into its own P-DATA-TF PDU.
// An empty stream still yields one zero-length, last-fragment PDV.
func fragmentStream(data []byte, pcID byte, isCommand bool, maxPDULength uint32) []*pdu.DataTF {
	const pdvHeaderOverhead = 6 // length(4) + context id(1) + control header(1)
	chunkSize := int(maxPDULength) - pdvHeaderOverhead
	if chunkSize <= 0 {
		chunkSize = len(data)
		if chunkSize == 0 {
			chunkSize = 1
		}
	}

	var control byte
	if isCommand {
		control |= controlBitCommand
	}

	if len(data) == 0 {
		return []*pdu.DataTF{{Items: []pdu.PresentationDataValue{{
			PresentationContextID: pcID,
			MessageControlHeader:  control | controlBitLast,
			Data:                  nil,
		}}}}
	}

	var out []*pdu.DataTF
	for offset := 0; offset < len(data); offset += chunkSize {
		end := offset + chunkSize
		if end > len(data) {
			end = len(data)
		}
		header := control
		if end == len(data) {
			header |= controlBitLast
		}
		out = append(out, &pdu.DataTF{Items: []pdu.PresentationDataValue{{
			PresentationContextID: pcID,
			MessageControlHeader:  header,
			Data:                  data[offset:end],
		}}})
	}
	return out
}

// Message control header bits, mirrored from the unexported constants in
// package pdu so fragmentStream can set them directly.
const (
	controlBitCommand byte = 0x01
	controlBitLast    byte = 0x02
)

// Reassembler accumulates P-DATA-TF PDUs for presentation contexts in
// flight and produces a complete Message once both the command stream and
// (if indicated) the dataset stream have reached their last fragment.
// transferSyntaxFor resolves a presentation context id to its negotiated
// dataset transfer syntax UID.
type Reassembler struct {
	pending          map[byte]*reassemblyState
	transferSyntaxFor func(pcID byte) string
}

type reassemblyState struct {
	pcID     byte
	cmdBuf   []byte
	cmdDone  bool
	command  *CommandSet
	dataBuf  []byte
	dataDone bool
}

// NewReassembler returns an empty Reassembler. transferSyntaxFor resolves
// a presentation context id to its negotiated dataset transfer syntax.
func NewReassembler(transferSyntaxFor func(pcID byte) string) *Reassembler {
	return &Reassembler{pending: make(map[byte]*reassemblyState), transferSyntaxFor: transferSyntaxFor}
}

// AddPDU feeds one P-DATA-TF PDU into the reassembler. It returns a
// completed Message once the command (and, if indicated, dataset) stream
// for a presentation context finishes, or (nil, false) while more
// fragments are still expected.
func (r *Reassembler) AddPDU(p *pdu.DataTF) (*Message, bool, error) {
	var lastCompleted *Message
	for _, pdv := range p.Items {
		st := r.pending[pdv.PresentationContextID]
		if st == nil {
			st = &reassemblyState{pcID: pdv.PresentationContextID}
			r.pending[pdv.PresentationContextID] = st
		}

		if pdv.IsCommand() {
			st.cmdBuf = append(st.cmdBuf, pdv.Data...)
			if pdv.IsLastFragment() {
				st.cmdDone = true
				ds, err := dicom.DecodeImplicitVRLittleEndian(st.cmdBuf)
				if err != nil {
					return nil, false, fmt.Errorf("dimse: decode command set: %w", err)
				}
				cmd, err := CommandSetFromDataset(ds)
				if err != nil {
					return nil, false, err
				}
				st.command = cmd
			}
		} else {
			st.dataBuf = append(st.dataBuf, pdv.Data...)
			if pdv.IsLastFragment() {
				st.dataDone = true
			}
		}

		if st.cmdDone && (st.command == nil || !st.command.HasDataset() || st.dataDone) {
			msg := &Message{Command: st.command, PresentationContextID: st.pcID}
			if st.command.HasDataset() {
				ds, err := dicom.DecodeDataset(st.dataBuf, r.transferSyntaxFor(pdv.PresentationContextID))
				if err != nil {
					return nil, false, fmt.Errorf("dimse: decode dataset: %w", err)
				}
				msg.Dataset = ds
			}
			delete(r.pending, pdv.PresentationContextID)
			lastCompleted = msg
		}
	}
	if lastCompleted != nil {
		return lastCompleted, true, nil
	}
	return nil, false, nil
}
