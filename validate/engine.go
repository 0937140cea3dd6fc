package validate

import "github.com/lucidhealth/dicom"

// Validate walks ds (recursing into sequence items, per spec §4.H
// "dataset (for cross-element checks)") and runs profile's active rules
// over every element, returning every diagnostic produced.
func Validate(ds *dicom.Dataset, profile Profile) Diagnostics {
	var out Diagnostics
	rules := profile.activeRules()
	walkDataset(ds, nil, rules, profile, &out)
	return out
}

func walkDataset(ds *dicom.Dataset, charset []string, rules []Rule, profile Profile, out *Diagnostics) {
	cs := charset
	if e, ok := ds.Get(dicom.TagSpecificCharacterSet); ok {
		if se, ok := e.(*dicom.StringElement); ok {
			cs = se.Values
		}
	}
	for _, e := range ds.Elements() {
		ctx := ElementContext{
			Tag:                  e.Tag(),
			VR:                   e.VR(),
			Raw:                  e.Bytes(),
			Dataset:              ds,
			SpecificCharacterSet: cs,
		}
		for _, r := range rules {
			if d := r.Check(ctx); d != nil {
				d.Severity = profile.severityFor(r.ID(), d.Severity)
				*out = append(*out, d)
			}
		}
		if seq, ok := e.(*dicom.SequenceElement); ok {
			for _, item := range seq.Items {
				walkDataset(item, cs, rules, profile, out)
			}
		}
	}
}
