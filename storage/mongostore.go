// Package storage provides a C-STORE persistence backend for a DIMSE SCP,
// storing instances' raw bytes in GridFS and a queryable field projection
// as a Mongo document per instance. Grounded on the teacher module's
// dicomMongo.go (MongoFields/MongoInsert), adapted from a DicomMessage
// channel pipeline onto a synchronous per-instance Store call (its
// signature differs from dimse/scp.StoreHandler's), and from the teacher's raw tag-string
// keys onto this module's Dataset/Tag types.
package storage

import (
	"context"
	"fmt"

	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/lucidhealth/dicom"
	"github.com/lucidhealth/dicom/dicomlog"
)

// IndexedTag is one dataset tag projected into the Mongo document's
// top-level fields and indexed for query-time lookup, mirroring the
// teacher's idxs/tags parameters to MongoInsert/MongoFields.
type IndexedTag struct {
	Tag   dicom.Tag
	Field string // bson field name, e.g. "PatientID"
}

// defaultIndexedTags are projected unconditionally; SOPInstanceUID is
// always indexed and unique, matching the teacher's hardcoded "00080018"
// special case.
var defaultIndexedTags = []IndexedTag{
	{Tag: dicom.Tag{Group: 0x0008, Element: 0x0018}, Field: "sop_instance_uid"},
	{Tag: dicom.Tag{Group: 0x0008, Element: 0x0050}, Field: "accession_number"},
	{Tag: dicom.Tag{Group: 0x0010, Element: 0x0020}, Field: "patient_id"},
	{Tag: dicom.Tag{Group: 0x0020, Element: 0x000D}, Field: "study_instance_uid"},
	{Tag: dicom.Tag{Group: 0x0020, Element: 0x000E}, Field: "series_instance_uid"},
}

// MongoStore is a C-STORE backend writing each instance's raw bytes to
// GridFS and a field projection to a Mongo collection.
type MongoStore struct {
	session        *mgo.Session
	database       string
	collectionName string
	indexedTags    []IndexedTag
}

// NewMongoStore dials dialInfo and ensures the configured indexes exist,
// the same EnsureIndex sequence MongoInsert runs per-call in the teacher
// (hoisted here to connection setup instead of every Store call).
func NewMongoStore(dialInfo *mgo.DialInfo, collectionName string, indexedTags []IndexedTag) (*MongoStore, error) {
	session, err := mgo.DialWithInfo(dialInfo)
	if err != nil {
		return nil, fmt.Errorf("storage: dial mongo: %w", err)
	}
	session.SetMode(mgo.Monotonic, true)

	if indexedTags == nil {
		indexedTags = defaultIndexedTags
	}
	collection := session.DB(dialInfo.Database).C(collectionName)
	for _, it := range indexedTags {
		unique := it.Field == "sop_instance_uid"
		index := mgo.Index{
			Key:        []string{it.Field},
			Unique:     unique,
			DropDups:   !unique,
			Background: true,
			Sparse:     true,
		}
		if err := collection.EnsureIndex(index); err != nil {
			return nil, fmt.Errorf("storage: ensure index %s: %w", it.Field, err)
		}
	}

	return &MongoStore{
		session:        session,
		database:       dialInfo.Database,
		collectionName: collectionName,
		indexedTags:    indexedTags,
	}, nil
}

// Close ends the Mongo session.
func (s *MongoStore) Close() {
	s.session.Close()
}

// Store persists ds's raw encoded bytes to GridFS and a field projection
// to the collection, skipping the insert if the SOP instance already
// exists (the teacher's Find-then-Insert dedup check).
func (s *MongoStore) Store(ctx context.Context, sopInstanceUID string, ds *dicom.Dataset, raw []byte) (uint16, error) {
	session := s.session.Clone()
	defer session.Close()
	db := session.DB(s.database)
	collection := db.C(s.collectionName)

	n, err := collection.Find(bson.M{"sop_instance_uid": sopInstanceUID}).Count()
	if err != nil {
		return 0xC000, fmt.Errorf("storage: find existing instance: %w", err)
	}
	if n > 0 {
		dicomlog.Vprintf(1, "storage: instance %s already stored", sopInstanceUID)
		return 0x0000, nil
	}

	doc := s.project(ds)
	if err := collection.Insert(doc); err != nil {
		return 0xC000, fmt.Errorf("storage: insert document: %w", err)
	}

	gridFile, err := db.GridFS(s.collectionName).Create(sopInstanceUID + ".dcm")
	if err != nil {
		return 0xC000, fmt.Errorf("storage: create gridfs file: %w", err)
	}
	gridFile.SetContentType("application/dicom")
	if _, err := gridFile.Write(raw); err != nil {
		gridFile.Close()
		return 0xC000, fmt.Errorf("storage: write gridfs file: %w", err)
	}
	if err := gridFile.Close(); err != nil {
		return 0xC000, fmt.Errorf("storage: close gridfs file: %w", err)
	}

	dicomlog.Vprintf(1, "storage: stored instance %s (%d bytes)", sopInstanceUID, len(raw))
	return 0x0000, nil
}

func (s *MongoStore) project(ds *dicom.Dataset) bson.M {
	doc := bson.M{}
	for _, it := range s.indexedTags {
		e, ok := ds.Get(it.Tag)
		if !ok {
			continue
		}
		se, ok := e.(*dicom.StringElement)
		if !ok || len(se.Values) == 0 {
			continue
		}
		doc[it.Field] = se.Values[0]
	}
	return doc
}

// Fetch retrieves an instance's raw bytes from GridFS by SOP Instance UID.
func (s *MongoStore) Fetch(ctx context.Context, sopInstanceUID string) ([]byte, error) {
	session := s.session.Clone()
	defer session.Close()
	db := session.DB(s.database)

	gridFile, err := db.GridFS(s.collectionName).Open(sopInstanceUID + ".dcm")
	if err != nil {
		return nil, fmt.Errorf("storage: open gridfs file: %w", err)
	}
	defer gridFile.Close()

	buf := make([]byte, gridFile.Size())
	if _, err := gridFile.Read(buf); err != nil {
		return nil, fmt.Errorf("storage: read gridfs file: %w", err)
	}
	return buf, nil
}

// Query matches stored instances against the projected fields present in
// query, returning their SOP Instance UIDs. This supports C-FIND/C-MOVE/
// C-GET handlers backed by MongoStore.
func (s *MongoStore) Query(ctx context.Context, query *dicom.Dataset) ([]string, error) {
	session := s.session.Clone()
	defer session.Close()
	collection := session.DB(s.database).C(s.collectionName)

	filter := bson.M{}
	for _, it := range s.indexedTags {
		e, ok := query.Get(it.Tag)
		if !ok {
			continue
		}
		se, ok := e.(*dicom.StringElement)
		if !ok || len(se.Values) == 0 || se.Values[0] == "" {
			continue
		}
		filter[it.Field] = se.Values[0]
	}

	var docs []bson.M
	if err := collection.Find(filter).All(&docs); err != nil {
		return nil, fmt.Errorf("storage: query: %w", err)
	}

	uids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if uid, ok := doc["sop_instance_uid"].(string); ok {
			uids = append(uids, uid)
		}
	}
	return uids, nil
}
