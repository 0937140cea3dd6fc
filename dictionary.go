package dicom

// Data dictionary: (group, element) -> VR, name, value multiplicity. The
// source data format (tab-separated, loaded via encoding/csv) follows the
// teacher's dictionary.go; the table itself is a working subset covering
// File Meta, identification, patient/study/series, command-set and pixel
// description tags rather than the full PS3.6 registry, which is explicitly
// out of scope for the core (spec §1: "the dictionary is a *data* input to
// the core").

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"sync"
)

// DictEntry describes one dictionary row.
type DictEntry struct {
	Tag  Tag
	VR   VR
	Name string
	VM   string
}

var (
	dictOnce sync.Once
	dict     map[Tag]DictEntry
	nameIdx  map[string]Tag
)

func dictionary() map[Tag]DictEntry {
	dictOnce.Do(func() {
		dict = make(map[Tag]DictEntry)
		nameIdx = make(map[string]Tag)
		r := csv.NewReader(bytes.NewReader([]byte(tagDictData)))
		r.Comma = '\t'
		r.Comment = '#'
		r.FieldsPerRecord = -1
		for {
			row, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				panic(fmt.Sprintf("dicom: malformed embedded dictionary: %v", err))
			}
			if len(row) < 4 {
				continue
			}
			tag, err := parseTagString(row[0])
			if err != nil {
				continue
			}
			e := DictEntry{Tag: tag, VR: VR(strings.ToUpper(row[1])), Name: row[2], VM: row[3]}
			dict[tag] = e
			nameIdx[e.Name] = tag
		}
	})
	return dict
}

func parseTagString(s string) (Tag, error) {
	s = strings.Trim(s, "()")
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Tag{}, fmt.Errorf("dicom: malformed tag %q", s)
	}
	var g, e uint32
	if _, err := fmt.Sscanf(parts[0], "%x", &g); err != nil {
		return Tag{}, err
	}
	if _, err := fmt.Sscanf(parts[1], "%x", &e); err != nil {
		return Tag{}, err
	}
	return Tag{Group: uint16(g), Element: uint16(e)}, nil
}

// LookupTag finds dictionary information for tag. Group-length elements
// (element 0x0000 of any even group) are always synthesized with VR=UL,
// since they are implicit in every group rather than individually listed.
func LookupTag(tag Tag) (DictEntry, error) {
	d := dictionary()
	if e, ok := d[tag]; ok {
		return e, nil
	}
	if tag.Group%2 == 0 && tag.Element == 0x0000 {
		return DictEntry{Tag: tag, VR: UL, Name: "GenericGroupLength", VM: "1"}, nil
	}
	return DictEntry{}, fmt.Errorf("%w: %s", ErrTagNotFound, tag)
}

// LookupTagByName finds a tag by its dictionary name.
func LookupTagByName(name string) (Tag, error) {
	dictionary()
	if t, ok := nameIdx[name]; ok {
		return t, nil
	}
	return Tag{}, fmt.Errorf("%w: name %q", ErrTagNotFound, name)
}

const tagDictData = `
0002,0000	UL	FileMetaInformationGroupLength	1
0002,0001	OB	FileMetaInformationVersion	1
0002,0002	UI	MediaStorageSOPClassUID	1
0002,0003	UI	MediaStorageSOPInstanceUID	1
0002,0010	UI	TransferSyntaxUID	1
0002,0012	UI	ImplementationClassUID	1
0002,0013	SH	ImplementationVersionName	1
0002,0016	AE	SourceApplicationEntityTitle	1
0008,0005	CS	SpecificCharacterSet	1-n
0008,0008	CS	ImageType	2-n
0008,0016	UI	SOPClassUID	1
0008,0018	UI	SOPInstanceUID	1
0008,0020	DA	StudyDate	1
0008,0021	DA	SeriesDate	1
0008,0030	TM	StudyTime	1
0008,0050	SH	AccessionNumber	1
0008,0052	CS	QueryRetrieveLevel	1
0008,0060	CS	Modality	1
0008,0090	PN	ReferringPhysicianName	1
0008,0201	SH	TimezoneOffsetFromUTC	1
0010,0010	PN	PatientName	1
0010,0020	LO	PatientID	1
0010,0030	DA	PatientBirthDate	1
0010,0040	CS	PatientSex	1
0010,1010	AS	PatientAge	1
0018,0050	DS	SliceThickness	1
0020,000D	UI	StudyInstanceUID	1
0020,000E	UI	SeriesInstanceUID	1
0020,0010	SH	StudyID	1
0020,0011	IS	SeriesNumber	1
0020,0013	IS	InstanceNumber	1
0020,0020	CS	PatientOrientation	2-n
0028,0002	US	SamplesPerPixel	1
0028,0004	CS	PhotometricInterpretation	1
0028,0006	US	PlanarConfiguration	1
0028,0008	IS	NumberOfFrames	1
0028,0010	US	Rows	1
0028,0011	US	Columns	1
0028,0100	US	BitsAllocated	1
0028,0101	US	BitsStored	1
0028,0102	US	HighBit	1
0028,0103	US	PixelRepresentation	1
0009,0010	LO	PrivateCreatorExample	1
7FE0,0010	OW	PixelData	1
FFFE,E000	NA	Item	1
FFFE,E00D	NA	ItemDelimitationItem	1
FFFE,E0DD	NA	SequenceDelimitationItem	1
0000,0002	UI	AffectedSOPClassUID	1
0000,0100	US	CommandField	1
0000,0110	US	MessageID	1
0000,0120	US	MessageIDBeingRespondedTo	1
0000,0600	AE	MoveDestination	1
0000,0700	US	Priority	1
0000,0800	US	CommandDataSetType	1
0000,0900	US	Status	1
0000,1000	UI	AffectedSOPInstanceUID	1
0000,1020	US	NumberOfRemainingSuboperations	1
0000,1021	US	NumberOfCompletedSuboperations	1
0000,1022	US	NumberOfFailedSuboperations	1
0000,1023	US	NumberOfWarningSuboperations	1
`
