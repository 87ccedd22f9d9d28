package provider

import (
	"context"
	"fmt"
)

// MockProvider is a mock AI provider for testing.
type MockProvider struct {
	Translations map[string]string         // Map of source text to translation
	Err          error                     // If set, every call fails with this error
	CallCount    int                       // Number of times TranslateFields was called
	LastRequest  *FieldTranslationRequest  // Last request received
	Requests     []FieldTranslationRequest // Every request received, in order
}

// NewMockProvider creates a new mock provider with default translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"Hello":       "Hola",
			"World":       "Mundo",
			"Hello World": "Hola Mundo",
		},
	}
}

// TranslateFields returns mock translations keyed by the requested paths.
func (m *MockProvider) TranslateFields(ctx context.Context, req FieldTranslationRequest) (map[string]string, error) {
	m.CallCount++
	m.LastRequest = &req
	m.Requests = append(m.Requests, req)

	if m.Err != nil {
		return nil, m.Err
	}

	results := make(map[string]string, len(req.Paths))
	for _, path := range req.Paths {
		text := req.Values[path]
		if translation, ok := m.Translations[text]; ok {
			results[path] = translation
		} else {
			// Bracketed text for unknown translations
			results[path] = fmt.Sprintf("[%s %s]", req.TargetLocale, text)
		}
	}

	return results, nil
}

// Reset clears the recorded calls.
func (m *MockProvider) Reset() {
	m.CallCount = 0
	m.LastRequest = nil
	m.Requests = nil
}

// Verify MockProvider implements Provider
var _ Provider = (*MockProvider)(nil)
