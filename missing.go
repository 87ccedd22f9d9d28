package autolocalize

import "strings"

// MissingFields returns the subset of fields considered empty in the
// given target locale of an all-locales document. The result for one
// locale is independent of every other locale's content.
func MissingFields(doc map[string]any, fields []FieldDescriptor, locale string) []FieldDescriptor {
	var missing []FieldDescriptor
	for _, fd := range fields {
		if isEmptyValue(fd, LocaleValue(doc, fd.Path, locale)) {
			missing = append(missing, fd)
		}
	}
	return missing
}

// isEmptyValue decides emptiness per field kind. Plain and multiline
// text are empty when absent or blank. Rich text is empty when absent,
// an empty sequence, or a recognized document whose flattened text is
// blank; an unrecognized non-string value is conservatively treated as
// empty rather than silently skipped.
func isEmptyValue(fd FieldDescriptor, v any) bool {
	if v == nil {
		return true
	}

	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}

	if fd.Kind != KindRichText {
		return true
	}

	if seq, ok := v.([]any); ok && len(seq) == 0 {
		return true
	}
	if DetectDialect(v) != DialectNone {
		return strings.TrimSpace(Flatten(v)) == ""
	}
	return true
}
