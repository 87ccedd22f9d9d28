// Package autolocalize fills in missing translations on multi-locale content records.
package autolocalize

// FieldKind classifies a translatable field.
type FieldKind string

const (
	// KindText is a single-line plain-text field.
	KindText FieldKind = "text"
	// KindTextarea is a multiline plain-text field.
	KindTextarea FieldKind = "textarea"
	// KindRichText is a structured rich-text field in one of the
	// recognized tree dialects.
	KindRichText FieldKind = "richText"
)

// FieldDescriptor identifies one translatable field within a record.
// Path is the dotted location of the field through nested groups and
// block variants; descriptors are produced in schema declaration order.
type FieldDescriptor struct {
	Path string
	Kind FieldKind
}

// Field describes one entry in a collection schema. Grouping fields
// carry child Fields; a blocks field carries named Block variants. A
// field without a Name (row-style layout groups) contributes its
// children under the parent's path prefix.
type Field struct {
	Name      string  `json:"name,omitempty" yaml:"name,omitempty"`
	Type      string  `json:"type" yaml:"type"`
	Localized bool    `json:"localized,omitempty" yaml:"localized,omitempty"`
	Fields    []Field `json:"fields,omitempty" yaml:"fields,omitempty"`
	Blocks    []Block `json:"blocks,omitempty" yaml:"blocks,omitempty"`
}

// Block is one named variant of a blocks field.
type Block struct {
	Slug   string  `json:"slug" yaml:"slug"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Collection is the schema of one record collection.
type Collection struct {
	Slug   string  `json:"slug" yaml:"slug"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// ChangeEvent is the post-mutation callback payload the engine receives
// from the host framework.
type ChangeEvent struct {
	// Collection is the schema of the collection the record belongs to.
	Collection *Collection

	// ID identifies the mutated record.
	ID string

	// Doc is the record as supplied by the host. Depending on the
	// triggering request it is either locale-scoped (each field already
	// resolved to one locale) or the all-locales shape (each localized
	// field a map from locale to value).
	Doc map[string]any

	// Locale is the locale Doc is scoped to. Empty or "all" means Doc
	// carries the all-locales shape.
	Locale string

	// Markers is request-scoped metadata from the host. A marker under
	// GuardMarkerKey means the change was produced by this engine.
	Markers map[string]string
}

// FieldTranslationRequest is one batch of fields to translate between a
// locale pair.
type FieldTranslationRequest struct {
	Collection   string
	SourceLocale string
	TargetLocale string

	// Paths lists the requested field paths in schema declaration order,
	// which fixes the prompt construction order.
	Paths []string

	// Values maps each path to its flattened source-locale text.
	Values map[string]string
}

// UpdateOptions carries write-request options for RecordStore.UpdateLocale.
type UpdateOptions struct {
	// SkipAccessControl bypasses the store's access checks; engine writes
	// are system writes, not made on behalf of the triggering user.
	SkipAccessControl bool

	// RequestMarker is the guard token attached to the write so the
	// resulting change event can be recognized as self-originated.
	RequestMarker string
}
