package dimse

import (
	"fmt"

	"github.com/lucidhealth/dicom"
)

// Command field values (spec §6 "DIMSE command-set").
const (
	CommandCStoreRQ        uint16 = 0x0001
	CommandCGetRQ          uint16 = 0x0010
	CommandCFindRQ         uint16 = 0x0020
	CommandCMoveRQ         uint16 = 0x0021
	CommandCEchoRQ         uint16 = 0x0030
	CommandNEventReportRQ  uint16 = 0x0100
	CommandNGetRQ          uint16 = 0x0110
	CommandNSetRQ          uint16 = 0x0120
	CommandNActionRQ       uint16 = 0x0130
	CommandNCreateRQ       uint16 = 0x0140
	CommandNDeleteRQ       uint16 = 0x0150
	CommandCCancelRQ       uint16 = 0x0FFF

	rspBit uint16 = 0x8000
)

// ResponseFieldFor returns the response command field for a request
// field, formed by setting the response bit (spec §6).
func ResponseFieldFor(requestField uint16) uint16 {
	return requestField | rspBit
}

// Status classes (spec §6 "Status").
const (
	StatusSuccess uint16 = 0x0000
	StatusPending uint16 = 0xFF00
	StatusPendingOptionalKeys uint16 = 0xFF01
	StatusCancel  uint16 = 0xFE00
)

// IsPending reports whether status belongs to the Pending class.
func IsPending(status uint16) bool {
	return status == StatusPending || status == StatusPendingOptionalKeys
}

// IsSuccess reports whether status is exactly Success.
func IsSuccess(status uint16) bool {
	return status == StatusSuccess
}

// IsError reports whether status falls in one of the error classes
// (spec §6: 0xA, 0xC, 0xD, 0xE group, or any nonzero value outside the
// recognized success/pending/cancel/warning classes).
func IsError(status uint16) bool {
	if IsSuccess(status) || IsPending(status) || status == StatusCancel {
		return false
	}
	top := status >> 12
	switch top {
	case 0xB: // warning
		return false
	case 0xA, 0xC, 0xD, 0xE:
		return true
	default:
		return status != 0
	}
}

// Priority values for the Priority (0000,0700) field.
const (
	PriorityLow    uint16 = 0x0002
	PriorityMedium uint16 = 0x0000
	PriorityHigh   uint16 = 0x0001
)

// CommandDataSetType values (spec §6): anything other than
// DataSetTypeNone means a dataset PDV follows the command PDV.
const (
	DataSetTypeNone    uint16 = 0x0101
	DataSetTypePresent uint16 = 0x0001
)

// CommandSet is the decoded form of a DIMSE command-set dataset (group
// 0x0000), independent of which service it belongs to.
type CommandSet struct {
	CommandField              uint16
	MessageID                 uint16
	MessageIDBeingRespondedTo uint16
	AffectedSOPClassUID       string
	AffectedSOPInstanceUID    string
	RequestedSOPClassUID      string
	RequestedSOPInstanceUID   string
	Priority                  uint16
	CommandDataSetType        uint16
	Status                    uint16
	MoveDestination           string
	MoveOriginatorAETitle     string
	MoveOriginatorMessageID   uint16

	NumberOfRemainingSuboperations uint16
	NumberOfCompletedSuboperations uint16
	NumberOfFailedSuboperations    uint16
	NumberOfWarningSuboperations   uint16
}

// HasDataset reports whether this command carries a following dataset
// PDV, per its CommandDataSetType field.
func (c *CommandSet) HasDataset() bool {
	return c.CommandDataSetType != DataSetTypeNone
}

// ToDataset renders c as an Implicit VR Little Endian command-set dataset,
// the fixed wire form every DIMSE command uses regardless of the
// association's negotiated transfer syntax (spec §4.J "Message exchange").
func (c *CommandSet) ToDataset() *dicom.Dataset {
	ds := dicom.NewDataset()
	putUS(ds, dicom.TagCommandField, c.CommandField)
	putUS(ds, dicom.TagMessageID, c.MessageID)
	if c.MessageIDBeingRespondedTo != 0 {
		putUS(ds, dicom.TagMessageIDBeingRespondedTo, c.MessageIDBeingRespondedTo)
	}
	putUI(ds, dicom.TagAffectedSOPClassUID, c.AffectedSOPClassUID)
	putUI(ds, dicom.TagAffectedSOPInstanceUID, c.AffectedSOPInstanceUID)
	putUI(ds, dicom.TagRequestedSOPClassUID, c.RequestedSOPClassUID)
	putUI(ds, dicom.TagRequestedSOPInstanceUID, c.RequestedSOPInstanceUID)
	if c.CommandField == CommandCStoreRQ || c.CommandField == CommandCFindRQ ||
		c.CommandField == CommandCGetRQ || c.CommandField == CommandCMoveRQ {
		putUS(ds, dicom.TagPriority, c.Priority)
	}
	putUS(ds, dicom.TagCommandDataSetType, c.CommandDataSetType)
	if c.CommandField&rspBit != 0 {
		putUS(ds, dicom.TagStatus, c.Status)
	}
	putUI(ds, dicom.TagMoveDestination, c.MoveDestination)
	putUI(ds, dicom.TagMoveOriginatorAETitle, c.MoveOriginatorAETitle)
	if c.MoveOriginatorMessageID != 0 {
		putUS(ds, dicom.TagMoveOriginatorMessageID, c.MoveOriginatorMessageID)
	}
	putUSIfNonZero(ds, dicom.TagNumberOfRemainingSuboperations, c.NumberOfRemainingSuboperations)
	putUSIfNonZero(ds, dicom.TagNumberOfCompletedSuboperations, c.NumberOfCompletedSuboperations)
	putUSIfNonZero(ds, dicom.TagNumberOfFailedSuboperations, c.NumberOfFailedSuboperations)
	putUSIfNonZero(ds, dicom.TagNumberOfWarningSuboperations, c.NumberOfWarningSuboperations)
	return ds
}

// CommandSetFromDataset reconstructs a CommandSet from its decoded form.
func CommandSetFromDataset(ds *dicom.Dataset) (*CommandSet, error) {
	c := &CommandSet{}
	var err error
	if c.CommandField, err = getUS(ds, dicom.TagCommandField); err != nil {
		return nil, fmt.Errorf("dimse: decode command set: %w", err)
	}
	c.MessageID, _ = getUS(ds, dicom.TagMessageID)
	c.MessageIDBeingRespondedTo, _ = getUS(ds, dicom.TagMessageIDBeingRespondedTo)
	c.AffectedSOPClassUID = getUI(ds, dicom.TagAffectedSOPClassUID)
	c.AffectedSOPInstanceUID = getUI(ds, dicom.TagAffectedSOPInstanceUID)
	c.RequestedSOPClassUID = getUI(ds, dicom.TagRequestedSOPClassUID)
	c.RequestedSOPInstanceUID = getUI(ds, dicom.TagRequestedSOPInstanceUID)
	c.Priority, _ = getUS(ds, dicom.TagPriority)
	c.CommandDataSetType, err = getUS(ds, dicom.TagCommandDataSetType)
	if err != nil {
		return nil, fmt.Errorf("dimse: decode command set: %w", err)
	}
	c.Status, _ = getUS(ds, dicom.TagStatus)
	c.MoveDestination = getUI(ds, dicom.TagMoveDestination)
	c.MoveOriginatorAETitle = getUI(ds, dicom.TagMoveOriginatorAETitle)
	c.MoveOriginatorMessageID, _ = getUS(ds, dicom.TagMoveOriginatorMessageID)
	c.NumberOfRemainingSuboperations, _ = getUS(ds, dicom.TagNumberOfRemainingSuboperations)
	c.NumberOfCompletedSuboperations, _ = getUS(ds, dicom.TagNumberOfCompletedSuboperations)
	c.NumberOfFailedSuboperations, _ = getUS(ds, dicom.TagNumberOfFailedSuboperations)
	c.NumberOfWarningSuboperations, _ = getUS(ds, dicom.TagNumberOfWarningSuboperations)
	return c, nil
}

func putUS(ds *dicom.Dataset, tag dicom.Tag, v uint16) {
	ds.Put(dicom.NewNumericU16Element(tag, v))
}

func putUSIfNonZero(ds *dicom.Dataset, tag dicom.Tag, v uint16) {
	if v != 0 {
		putUS(ds, tag, v)
	}
}

func putUI(ds *dicom.Dataset, tag dicom.Tag, v string) {
	if v == "" {
		return
	}
	ds.Put(dicom.NewStringElement(tag, dicom.UI, v))
}

func getUS(ds *dicom.Dataset, tag dicom.Tag) (uint16, error) {
	e, ok := ds.Get(tag)
	if !ok {
		return 0, fmt.Errorf("dimse: missing required element %s", tag)
	}
	ne, ok := e.(*dicom.NumericElement)
	if !ok || len(ne.Uint16s) == 0 {
		return 0, fmt.Errorf("dimse: element %s is not US-valued", tag)
	}
	return ne.Uint16s[0], nil
}

func getUI(ds *dicom.Dataset, tag dicom.Tag) string {
	e, ok := ds.Get(tag)
	if !ok {
		return ""
	}
	se, ok := e.(*dicom.StringElement)
	if !ok || len(se.Values) == 0 {
		return ""
	}
	return se.Values[0]
}
