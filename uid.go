package dicom

// Well-known UIDs used by the core (spec §6, §8 boundary scenarios). The
// dataset-level UID dictionary beyond these is out of scope (spec §1): it is
// a data input, not part of the core.
const (
	UIDApplicationContextName = "1.2.840.10008.3.1.1.1"
	UIDVerificationSOPClass   = "1.2.840.10008.1.1" // C-ECHO

	// Implementation identity, as registered by the teacher
	// (https://www.medicalconnections.co.uk/Free_UID).
	DefaultImplementationClassUIDPrefix = "1.2.826.0.1.3680043.9.7133"
	DefaultImplementationClassUID       = DefaultImplementationClassUIDPrefix + ".1.1"
	DefaultImplementationVersionName    = "LUCIDDICOM_1_0"
)
