// Package validate implements the rule-catalogue validation engine of spec
// §4.H: a set of per-VR rules exposing a stable code and a pure predicate
// over an element's context, composed into named profiles. The
// collection/reporting shape (a Diagnostics list with HasErrors and
// Error) is grounded on the FHIR validator pack's
// codeninja55-go-radx/fhir/validation/validator.go; the rule taxonomy itself
// is DICOM-specific and has no teacher precedent, so it is built directly
// from spec §4.H's table.
package validate

import (
	"fmt"
	"strings"

	"github.com/lucidhealth/dicom"
)

// Severity classifies a Diagnostic (spec §4.H profiles: "diagnostics are
// errors" / "as warnings").
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Diagnostic is one rule violation (spec §7 "Validation": "one diagnostic
// per rule per element, each carrying severity ... stable code, and an
// optional suggested fix").
type Diagnostic struct {
	Code         string
	Severity     Severity
	Tag          dicom.Tag
	VR           dicom.VR
	Message      string
	SuggestedFix string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s[%s] %s %s: %s", d.Code, d.Severity, d.Tag, d.VR, d.Message)
}

// Diagnostics is an ordered collection of findings produced by a single
// Validate call.
type Diagnostics []*Diagnostic

func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (ds Diagnostics) Error() string {
	if len(ds) == 0 {
		return "no validation diagnostics"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation diagnostic(s):\n", len(ds))
	for i, d := range ds {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, d.Error())
	}
	return sb.String()
}
