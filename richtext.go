package autolocalize

import (
	"regexp"
	"strings"
)

// Dialect identifies which recognized rich-text tree shape a value holds.
type Dialect int

const (
	// DialectNone marks values that are not a recognized rich-text shape.
	// They are passed through untouched.
	DialectNone Dialect = iota
	// DialectNodeList is an ordered sequence of node objects, each holding
	// either a text leaf or a nested sequence of children.
	DialectNodeList
	// DialectRootTree is a single node of the fixed "root" kind whose
	// descendants mirror the same text/children shape.
	DialectRootTree
)

var newlineRuns = regexp.MustCompile(`\n{3,}`)

// DetectDialect classifies a field value. Detection happens once per
// value; flatten and reinject switch on the result instead of re-sniffing
// the shape at every call site.
func DetectDialect(v any) Dialect {
	switch t := v.(type) {
	case []any:
		for _, el := range t {
			if _, ok := el.(map[string]any); !ok {
				return DialectNone
			}
		}
		return DialectNodeList
	case map[string]any:
		if root, ok := t["root"].(map[string]any); ok {
			if _, ok := root["children"].([]any); ok {
				return DialectRootTree
			}
		}
	}
	return DialectNone
}

// Flatten renders a structured rich-text value as plain text for model
// consumption. The projection is lossy and one-way. Unrecognized shapes
// flatten to the empty string.
func Flatten(v any) string {
	switch DetectDialect(v) {
	case DialectNodeList:
		nodes := v.([]any)
		parts := make([]string, 0, len(nodes))
		for _, n := range nodes {
			parts = append(parts, nodeListText(n))
		}
		return tidy(strings.Join(parts, "\n"))
	case DialectRootTree:
		root := v.(map[string]any)["root"].(map[string]any)
		children, _ := root["children"].([]any)
		var b strings.Builder
		for _, child := range children {
			rootTreeText(child, &b)
		}
		return tidy(b.String())
	default:
		return ""
	}
}

// nodeListText renders one node of the sequence dialect: its own leaf
// text, or its children concatenated with no separator.
func nodeListText(n any) string {
	m, ok := n.(map[string]any)
	if !ok {
		return ""
	}
	if s, ok := m["text"].(string); ok {
		return s
	}
	children, ok := m["children"].([]any)
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, c := range children {
		b.WriteString(nodeListText(c))
	}
	return b.String()
}

// rootTreeText renders one node of the rooted dialect. Siblings are
// concatenated with no separator; line-break nodes contribute a newline.
func rootTreeText(n any, b *strings.Builder) {
	m, ok := n.(map[string]any)
	if !ok {
		return
	}
	if kind, _ := m["type"].(string); kind == "linebreak" {
		b.WriteString("\n")
		return
	}
	if s, ok := m["text"].(string); ok {
		b.WriteString(s)
		return
	}
	if children, ok := m["children"].([]any); ok {
		for _, c := range children {
			rootTreeText(c, b)
		}
	}
}

// tidy collapses runs of three or more newlines to exactly two and trims
// leading/trailing whitespace.
func tidy(s string) string {
	return strings.TrimSpace(newlineRuns.ReplaceAllString(s, "\n\n"))
}

// Reinject builds a target-locale value from the source-locale structure
// and a translated plain-text string. The result keeps the source's node
// shape, marks and attributes; the whole translated string goes into the
// first text leaf and every later leaf is blanked. The model is handed
// flattened text and returns a single string, so there is no reliable way
// to re-split it across the original leaves; a document with several text
// runs therefore loses its run boundaries in the target locale. When the
// source is not a recognized dialect the translated string is returned
// as-is and the patch degrades to a plain string assignment.
func Reinject(source any, translated string) any {
	dialect := DetectDialect(source)
	if dialect == DialectNone {
		return translated
	}

	clone := deepCopy(source)

	var leaves []map[string]any
	switch dialect {
	case DialectNodeList:
		for _, n := range clone.([]any) {
			leaves = collectTextLeaves(n, leaves)
		}
	case DialectRootTree:
		leaves = collectTextLeaves(clone.(map[string]any)["root"], leaves)
	}

	for i, leaf := range leaves {
		if i == 0 {
			leaf["text"] = translated
		} else {
			leaf["text"] = ""
		}
	}

	return clone
}

// collectTextLeaves gathers text-bearing nodes in document order.
func collectTextLeaves(n any, acc []map[string]any) []map[string]any {
	m, ok := n.(map[string]any)
	if !ok {
		return acc
	}
	if _, ok := m["text"].(string); ok {
		acc = append(acc, m)
	}
	if children, ok := m["children"].([]any); ok {
		for _, c := range children {
			acc = collectTextLeaves(c, acc)
		}
	}
	return acc
}

// deepCopy clones a JSON-shaped value so the source locale's structure is
// never mutated by reinjection.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = deepCopy(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = deepCopy(val)
		}
		return out
	default:
		return v
	}
}
