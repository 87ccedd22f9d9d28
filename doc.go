// Package autolocalize fills in missing translations on multi-locale
// content records.
//
// The engine runs as a post-mutation hook: given a record-change event it
// discovers which fields are translatable from the collection schema,
// picks a source locale by content completeness, detects which fields are
// empty in each target locale, asks an AI provider to translate the
// flattened source text, and writes the results back one locale at a
// time. Writes carry a guard marker so the engine ignores change events
// it produced itself.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/playstateprojects/autolocalize"
//	    "github.com/playstateprojects/autolocalize/provider"
//	    "github.com/playstateprojects/autolocalize/store"
//	)
//
//	func main() {
//	    p := provider.NewOpenAIProvider(provider.OpenAIConfig{
//	        APIKey: os.Getenv("OPENAI_API_KEY"),
//	    })
//
//	    engine := autolocalize.NewEngine(p, recordStore,
//	        autolocalize.WithLocales([]string{"en", "de", "fr"}),
//	        autolocalize.WithDefaultLocale("en"),
//	    )
//
//	    // Register as an after-change hook in the host framework:
//	    doc := engine.Process(context.Background(), autolocalize.ChangeEvent{
//	        Collection: articles,
//	        ID:         "abc123",
//	        Doc:        changedDoc,
//	        Markers:    requestMarkers,
//	    })
//	    _ = doc
//	}
package autolocalize
