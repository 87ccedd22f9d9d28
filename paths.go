package autolocalize

import "strings"

// ValueAtPath resolves a dotted field path against a document. Map
// segments descend by key; a segment that lands on an array of block
// values selects the first element whose blockType matches the segment.
// Returns nil when the path cannot be resolved.
func ValueAtPath(doc map[string]any, path string) any {
	var cur any = doc
	for _, seg := range strings.Split(path, ".") {
		switch t := cur.(type) {
		case map[string]any:
			cur = t[seg]
		case []any:
			cur = blockBySlug(t, seg)
		default:
			return nil
		}
	}
	return cur
}

func blockBySlug(blocks []any, slug string) any {
	for _, b := range blocks {
		if m, ok := b.(map[string]any); ok {
			if bt, _ := m["blockType"].(string); bt == slug {
				return m
			}
		}
	}
	return nil
}

// LocaleValue reads one locale's value of a localized field from an
// all-locales document, where every localized leaf is a map from locale
// to value.
func LocaleValue(doc map[string]any, path, locale string) any {
	v := ValueAtPath(doc, path)
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m[locale]
}

// SetLocaleValue writes one locale's value of a localized field into an
// all-locales document, creating intermediate maps as needed. A segment
// that lands on an array of block values descends into the matching
// existing block element; when no element matches, there is no block
// instance to patch and the write is dropped.
func SetLocaleValue(doc map[string]any, path, locale string, value any) {
	segs := strings.Split(path, ".")
	var cur any = doc

	for _, seg := range segs[:len(segs)-1] {
		switch t := cur.(type) {
		case map[string]any:
			switch child := t[seg].(type) {
			case map[string]any:
				cur = child
			case []any:
				cur = child
			default:
				next := map[string]any{}
				t[seg] = next
				cur = next
			}
		case []any:
			m, ok := blockBySlug(t, seg).(map[string]any)
			if !ok {
				return
			}
			cur = m
		default:
			return
		}
	}

	parent, ok := cur.(map[string]any)
	if !ok {
		return
	}
	leaf := segs[len(segs)-1]
	locales, ok := parent[leaf].(map[string]any)
	if !ok {
		locales = map[string]any{}
		parent[leaf] = locales
	}
	locales[locale] = value
}
