package scp

import (
	"strings"

	"github.com/gobwas/glob"

	"github.com/lucidhealth/dicom"
)

func sopClassUID(ds *dicom.Dataset) string {
	return stringValue(ds, dicom.TagMediaStorageSOPClassUID)
}

func sopInstanceUID(ds *dicom.Dataset) string {
	return stringValue(ds, dicom.TagMediaStorageSOPInstanceUID)
}

func stringValue(ds *dicom.Dataset, tag dicom.Tag) string {
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

// MatchesQuery reports whether candidate satisfies every key present in
// query, the C-FIND matching rule extended with DICOM's "*"/"?" universal
// wildcard matching for string-VR keys (supplementing the exact-match-only
// matching the teacher corpus's Mongo query layer performs, per DICOM
// PS3.4 C.2.2.2.4).
func MatchesQuery(candidate, query *dicom.Dataset) bool {
	for _, qe := range query.Elements() {
		se, ok := qe.(*dicom.StringElement)
		if !ok {
			continue
		}
		if len(se.Values) == 0 || allEmpty(se.Values) {
			continue // universal matching: empty key means "match anything"
		}
		ce, ok := candidate.Get(qe.Tag())
		if !ok {
			return false
		}
		cse, ok := ce.(*dicom.StringElement)
		if !ok {
			return false
		}
		if !anyValueMatches(se.Values, cse.Values) {
			return false
		}
	}
	return true
}

func allEmpty(values []string) bool {
	for _, v := range values {
		if v != "" {
			return false
		}
	}
	return true
}

func anyValueMatches(patterns, candidates []string) bool {
	for _, pattern := range patterns {
		g, err := compileWildcard(pattern)
		if err != nil {
			continue
		}
		for _, c := range candidates {
			if g.Match(c) {
				return true
			}
		}
	}
	return false
}

// compileWildcard translates DICOM's "*"/"?" wildcard syntax (already
// glob's own syntax) into a compiled matcher.
func compileWildcard(pattern string) (glob.Glob, error) {
	if !strings.ContainsAny(pattern, "*?") {
		return glob.Compile(glob.QuoteMeta(pattern))
	}
	return glob.Compile(pattern)
}
