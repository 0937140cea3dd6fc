package validate

import (
	"strconv"
	"strings"

	"github.com/lucidhealth/dicom"
)

func diag(code string, sev Severity, ctx ElementContext, msg string, fix string) *Diagnostic {
	return &Diagnostic{Code: code, Severity: sev, Tag: ctx.Tag, VR: ctx.VR, Message: msg, SuggestedFix: fix}
}

func rawString(ctx ElementContext) string {
	s := strings.TrimRight(string(ctx.Raw), " \x00")
	return s
}

// uidFormatRule is spec §4.H "UID-format" (applies to VR=UI).
type uidFormatRule struct{}

func (uidFormatRule) ID() string { return "UID_FORMAT" }

func (uidFormatRule) Check(ctx ElementContext) *Diagnostic {
	if ctx.VR != dicom.UI {
		return nil
	}
	s := rawString(ctx)
	if s == "" {
		return nil
	}
	if len(s) > 64 {
		return diag("INVALID_UID_FORMAT", SeverityError, ctx, "UID exceeds 64 characters", "")
	}
	if strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return diag("INVALID_UID_FORMAT", SeverityError, ctx, "UID has leading or trailing dot", "")
	}
	if strings.Contains(s, "..") {
		return diag("INVALID_UID_FORMAT", SeverityError, ctx, "UID has an empty component", "")
	}
	for _, c := range s {
		if (c < '0' || c > '9') && c != '.' {
			return diag("INVALID_UID_FORMAT", SeverityError, ctx, "UID contains a character outside [0-9.]", "")
		}
	}
	for _, component := range strings.Split(s, ".") {
		if len(component) > 1 && component[0] == '0' {
			return diag("INVALID_UID_FORMAT", SeverityError, ctx, "UID component has a leading zero", "")
		}
	}
	return nil
}

// dateRule is spec §4.H "Date" (applies to VR=DA).
type dateRule struct{}

func (dateRule) ID() string { return "INVALID_DATE_VALUE" }

var daysInMonth = [...]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func isLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func (dateRule) Check(ctx ElementContext) *Diagnostic {
	if ctx.VR != dicom.DA {
		return nil
	}
	s := rawString(ctx)
	if s == "" {
		return nil
	}
	if len(s) != 4 && len(s) != 6 && len(s) != 8 {
		return diag("INVALID_DATE_VALUE", SeverityError, ctx, "date length must be 4, 6, or 8 digits", "")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return diag("INVALID_DATE_VALUE", SeverityError, ctx, "date contains a non-digit character", "")
		}
	}
	year, _ := strconv.Atoi(s[0:4])
	if len(s) >= 6 {
		month, _ := strconv.Atoi(s[4:6])
		if month < 1 || month > 12 {
			return diag("INVALID_DATE_VALUE", SeverityError, ctx, "month out of range 1-12", "")
		}
		if len(s) == 8 {
			day, _ := strconv.Atoi(s[6:8])
			maxDay := daysInMonth[month-1]
			if month == 2 && isLeapYear(year) {
				maxDay = 29
			}
			if day < 1 || day > maxDay {
				return diag("INVALID_DATE_VALUE", SeverityError, ctx, "day out of range for month/year", "")
			}
		}
	}
	return nil
}

// timeRule is spec §4.H "Time" (applies to VR=TM).
type timeRule struct{}

func (timeRule) ID() string { return "INVALID_TIME_VALUE" }

func (timeRule) Check(ctx ElementContext) *Diagnostic {
	if ctx.VR != dicom.TM {
		return nil
	}
	s := rawString(ctx)
	if s == "" {
		return nil
	}
	whole := s
	var frac string
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole = s[:i]
		frac = s[i+1:]
		if len(frac) < 1 || len(frac) > 6 {
			return diag("INVALID_TIME_VALUE", SeverityError, ctx, "fractional seconds must be 1-6 digits", "")
		}
		for _, c := range frac {
			if c < '0' || c > '9' {
				return diag("INVALID_TIME_VALUE", SeverityError, ctx, "fractional seconds contain a non-digit", "")
			}
		}
	}
	if len(whole) != 2 && len(whole) != 4 && len(whole) != 6 {
		return diag("INVALID_TIME_VALUE", SeverityError, ctx, "time length must be 2, 4, or 6 digits before any fraction", "")
	}
	for _, c := range whole {
		if c < '0' || c > '9' {
			return diag("INVALID_TIME_VALUE", SeverityError, ctx, "time contains a non-digit character", "")
		}
	}
	hh, _ := strconv.Atoi(whole[0:2])
	if hh > 23 {
		return diag("INVALID_TIME_VALUE", SeverityError, ctx, "hour out of range 0-23", "")
	}
	if len(whole) >= 4 {
		mm, _ := strconv.Atoi(whole[2:4])
		if mm > 59 {
			return diag("INVALID_TIME_VALUE", SeverityError, ctx, "minute out of range 0-59", "")
		}
	}
	if len(whole) == 6 {
		ss, _ := strconv.Atoi(whole[4:6])
		if ss > 59 {
			return diag("INVALID_TIME_VALUE", SeverityError, ctx, "second out of range 0-59", "")
		}
	}
	return nil
}

// codeStringRule is spec §4.H "Code-string" (applies to VR=CS).
type codeStringRule struct{}

func (codeStringRule) ID() string { return "INVALID_CODE_STRING" }

func (codeStringRule) Check(ctx ElementContext) *Diagnostic {
	if ctx.VR != dicom.CS {
		return nil
	}
	s := rawString(ctx)
	if len(s) > 16 {
		return diag("INVALID_CODE_STRING", SeverityError, ctx, "code string exceeds 16 characters", "")
	}
	for _, c := range s {
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == ' ' || c == '_') {
			return diag("INVALID_CODE_STRING", SeverityError, ctx, "code string contains a character outside [A-Z0-9 _]", "")
		}
	}
	return nil
}

// ageStringRule is spec §4.H "Age-string" (applies to VR=AS).
type ageStringRule struct{}

func (ageStringRule) ID() string { return "INVALID_AGE_STRING" }

func (ageStringRule) Check(ctx ElementContext) *Diagnostic {
	if ctx.VR != dicom.AS {
		return nil
	}
	s := rawString(ctx)
	if s == "" {
		return nil
	}
	if len(s) != 4 {
		return diag("INVALID_AGE_STRING", SeverityError, ctx, "age string must be exactly 4 characters", "")
	}
	for _, c := range s[:3] {
		if c < '0' || c > '9' {
			return diag("INVALID_AGE_STRING", SeverityError, ctx, "age string must begin with 3 digits", "")
		}
	}
	switch s[3] {
	case 'D', 'W', 'M', 'Y':
	default:
		return diag("INVALID_AGE_STRING", SeverityError, ctx, "age string unit must be one of D, W, M, Y", "")
	}
	return nil
}

// decimalStringRule is spec §4.H "Decimal-string" (applies to VR=DS).
type decimalStringRule struct{}

func (decimalStringRule) ID() string { return "INVALID_DECIMAL_STRING" }

func (decimalStringRule) Check(ctx ElementContext) *Diagnostic {
	if ctx.VR != dicom.DS {
		return nil
	}
	for _, v := range strings.Split(rawString(ctx), "\\") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return diag("INVALID_DECIMAL_STRING", SeverityError, ctx, "value is not a valid decimal string: "+v, "")
		}
	}
	return nil
}

// integerStringRule is spec §4.H "Integer-string" (applies to VR=IS).
type integerStringRule struct{}

func (integerStringRule) ID() string { return "INVALID_INTEGER_STRING" }

func (integerStringRule) Check(ctx ElementContext) *Diagnostic {
	if ctx.VR != dicom.IS {
		return nil
	}
	for _, v := range strings.Split(rawString(ctx), "\\") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		rest := v
		if rest[0] == '+' || rest[0] == '-' {
			rest = rest[1:]
		}
		if rest == "" {
			return diag("INVALID_INTEGER_STRING", SeverityError, ctx, "value has a sign but no digits: "+v, "")
		}
		for _, c := range rest {
			if c < '0' || c > '9' {
				return diag("INVALID_INTEGER_STRING", SeverityError, ctx, "value is not a valid integer string: "+v, "")
			}
		}
	}
	return nil
}

// applicationEntityRule is spec §4.H "Application-entity" (applies to VR=AE).
type applicationEntityRule struct{}

func (applicationEntityRule) ID() string { return "INVALID_APPLICATION_ENTITY" }

func (applicationEntityRule) Check(ctx ElementContext) *Diagnostic {
	if ctx.VR != dicom.AE {
		return nil
	}
	s := string(ctx.Raw)
	trimmed := strings.TrimRight(s, " ")
	if trimmed == "" && s != "" {
		return diag("INVALID_APPLICATION_ENTITY", SeverityError, ctx, "AE title is all space", "")
	}
	if strings.Contains(trimmed, "\\") {
		return diag("INVALID_APPLICATION_ENTITY", SeverityError, ctx, "AE title contains a backslash", "")
	}
	for _, c := range trimmed {
		if c < 0x20 || c == 0x7F {
			return diag("INVALID_APPLICATION_ENTITY", SeverityError, ctx, "AE title contains a control character", "")
		}
	}
	return nil
}

// stringLengthRule is spec §4.H "String-length" (applies to every string VR,
// per-VR maximum).
type stringLengthRule struct{}

func (stringLengthRule) ID() string { return "STRING_LENGTH_EXCEEDED" }

var maxStringLength = map[dicom.VR]int{
	dicom.AE: 16,
	dicom.AS: 4,
	dicom.CS: 16,
	dicom.DA: 8,
	dicom.DS: 16,
	dicom.DT: 26,
	dicom.IS: 12,
	dicom.LO: 64,
	dicom.LT: 10240,
	dicom.PN: 64 * 5, // up to 5 component groups of 64 chars each
	dicom.SH: 16,
	dicom.ST: 1024,
	dicom.TM: 14,
	dicom.UI: 64,
	dicom.UC: 1 << 32,
	dicom.UR: 1 << 32,
	dicom.UT: 1 << 32,
}

func (stringLengthRule) Check(ctx ElementContext) *Diagnostic {
	max, ok := maxStringLength[ctx.VR]
	if !ok {
		return nil
	}
	s := rawString(ctx)
	if len(s) > max {
		return diag("STRING_LENGTH_EXCEEDED", SeverityError, ctx, "value exceeds the maximum length for its VR", "")
	}
	return nil
}

// allRules is the full core rule catalogue (spec §4.H table), in the order
// profiles apply them.
var allRules = []Rule{
	uidFormatRule{},
	dateRule{},
	timeRule{},
	codeStringRule{},
	ageStringRule{},
	decimalStringRule{},
	integerStringRule{},
	applicationEntityRule{},
	stringLengthRule{},
}
