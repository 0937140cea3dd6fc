package validate

import "github.com/lucidhealth/dicom"

// ElementContext supplies a rule everything it might need, per spec §4.H
// "element_context supplies: tag, declared VR, raw value bytes, dataset (for
// cross-element checks), and active character encoding."
type ElementContext struct {
	Tag                  dicom.Tag
	VR                   dicom.VR
	Raw                  []byte
	Dataset              *dicom.Dataset
	SpecificCharacterSet []string
}

// Rule is a stable-identified, pure predicate over an element's context
// (spec §4.H "Rule contract"). Rules are re-entrant and thread-safe (no
// rule may hold mutable state).
type Rule interface {
	ID() string
	Check(ctx ElementContext) *Diagnostic
}
