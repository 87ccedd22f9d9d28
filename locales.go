package autolocalize

import "strings"

// ScoreLocales counts, for every configured locale, how many of the
// tracked fields hold non-empty content in that locale. Scores are
// bounded by the field count; a score of 0 means the locale is entirely
// empty across tracked fields. The computation is pure: repeated calls
// on the same snapshot return the same result.
func ScoreLocales(doc map[string]any, fields []FieldDescriptor, locales []string) map[string]int {
	scores := make(map[string]int, len(locales))
	for _, locale := range locales {
		score := 0
		for _, fd := range fields {
			if hasContent(LocaleValue(doc, fd.Path, locale)) {
				score++
			}
		}
		scores[locale] = score
	}
	return scores
}

// hasContent reports whether a field value contributes to a locale's
// score: a non-blank plain string, or a structured document whose
// flattened text is non-blank.
func hasContent(v any) bool {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return strings.TrimSpace(Flatten(v)) != ""
}

// ResolveSourceLocale picks the locale to translate from. A configured
// source locale wins as long as it holds any content; otherwise the
// locale with the strictly highest completeness score is used, ties
// broken by first occurrence in the configured-locale order. When every
// locale is empty the framework's default locale is returned.
func ResolveSourceLocale(doc map[string]any, fields []FieldDescriptor, locales []string, configured, fallback string) string {
	scores := ScoreLocales(doc, fields, locales)

	if configured != "" && scores[configured] > 0 {
		return configured
	}

	best := ""
	bestScore := 0
	for _, locale := range locales {
		if scores[locale] > bestScore {
			best = locale
			bestScore = scores[locale]
		}
	}
	if bestScore == 0 {
		return fallback
	}
	return best
}
