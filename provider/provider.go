// Package provider defines the AI provider interface and implementations.
package provider

import "github.com/playstateprojects/autolocalize"

// Provider is the interface for AI translation backends.
// This is an alias to the main package interface for convenience.
type Provider = autolocalize.Provider

// FieldTranslationRequest is an alias to the main package type.
type FieldTranslationRequest = autolocalize.FieldTranslationRequest
