package dicom

// EncodeImplicitVRLittleEndian serializes ds in Implicit VR Little Endian,
// the fixed wire encoding DIMSE command sets use regardless of the
// association's negotiated dataset transfer syntax (spec §4.J "Message
// exchange").
func EncodeImplicitVRLittleEndian(ds *Dataset) ([]byte, error) {
	ts, _ := ResolveTransferSyntax(ImplicitVRLittleEndian)
	return writeDataset(ds, ts)
}

// DecodeImplicitVRLittleEndian parses body as Implicit VR Little Endian,
// the inverse of EncodeImplicitVRLittleEndian.
func DecodeImplicitVRLittleEndian(body []byte) (*Dataset, error) {
	ts, _ := ResolveTransferSyntax(ImplicitVRLittleEndian)
	opts := DefaultFileOptions()
	return readDataset(body, ts, opts, 0)
}

// EncodeDataset serializes ds under the transfer syntax identified by
// transferSyntaxUID, the negotiated presentation-context encoding a DIMSE
// dataset PDV uses (spec §4.J "Message exchange": the command set is
// always Implicit VR LE, but the dataset that follows it uses whatever
// transfer syntax the association negotiated).
func EncodeDataset(ds *Dataset, transferSyntaxUID string) ([]byte, error) {
	ts, err := ResolveTransferSyntax(transferSyntaxUID)
	if err != nil {
		return nil, err
	}
	return writeDataset(ds, ts)
}

// DecodeDataset parses body under the transfer syntax identified by
// transferSyntaxUID, the inverse of EncodeDataset.
func DecodeDataset(body []byte, transferSyntaxUID string) (*Dataset, error) {
	ts, err := ResolveTransferSyntax(transferSyntaxUID)
	if err != nil {
		return nil, err
	}
	opts := DefaultFileOptions()
	return readDataset(body, ts, opts, 0)
}
