// Package store provides record-store implementations.
package store

import "github.com/playstateprojects/autolocalize"

// RecordStore is the interface for record storage backends.
// This is an alias to the main package interface for convenience.
type RecordStore = autolocalize.RecordStore

// UpdateOptions is an alias to the main package type.
type UpdateOptions = autolocalize.UpdateOptions
