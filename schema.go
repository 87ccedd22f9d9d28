package autolocalize

// CollectFields walks a collection schema and returns a descriptor for
// every localized field of a translatable type, in declaration order.
// Non-localized fields (ids, dates, relations, canonical slugs) are
// invisible to the rest of the engine and are never translated or
// patched.
func CollectFields(fields []Field) []FieldDescriptor {
	return collectFields("", fields)
}

func collectFields(prefix string, fields []Field) []FieldDescriptor {
	var out []FieldDescriptor
	for _, f := range fields {
		path := joinPath(prefix, f.Name)

		switch FieldKind(f.Type) {
		case KindText, KindTextarea, KindRichText:
			if f.Localized {
				out = append(out, FieldDescriptor{Path: path, Kind: FieldKind(f.Type)})
			}
			continue
		}

		// Block variants extend the path with their own slug so that
		// same-named fields in different variants do not collide.
		for _, b := range f.Blocks {
			out = append(out, collectFields(joinPath(path, b.Slug), b.Fields)...)
		}

		// Grouping fields (named groups, anonymous rows/collapsibles)
		// contribute their children; an unnamed field inherits the
		// parent's prefix via joinPath.
		if len(f.Fields) > 0 {
			out = append(out, collectFields(path, f.Fields)...)
		}
	}
	return out
}

func joinPath(prefix, name string) string {
	if name == "" {
		return prefix
	}
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
