package autolocalize

import (
	"context"
	"io"
	"log"
	"testing"
)

// stubProvider is a scripted provider for engine tests.
type stubProvider struct {
	translations map[string]string // source text → translation
	failLocales  map[string]error  // target locale → error
	requests     []FieldTranslationRequest
}

func (p *stubProvider) TranslateFields(ctx context.Context, req FieldTranslationRequest) (map[string]string, error) {
	p.requests = append(p.requests, req)

	if err, ok := p.failLocales[req.TargetLocale]; ok {
		return nil, err
	}

	out := make(map[string]string, len(req.Paths))
	for _, path := range req.Paths {
		if translated, ok := p.translations[req.Values[path]]; ok {
			out[path] = translated
		} else {
			out[path] = "<" + req.TargetLocale + "> " + req.Values[path]
		}
	}
	return out, nil
}

type storeUpdate struct {
	collection string
	id         string
	locale     string
	patch      map[string]any
	opts       UpdateOptions
}

// recordingStore serves one all-locales record and applies patches to it,
// so repeated engine invocations observe their own writes.
type recordingStore struct {
	doc       map[string]any
	findCalls int
	failWrite error
	updates   []storeUpdate
}

func (s *recordingStore) FindAllLocales(ctx context.Context, collection, id string) (map[string]any, error) {
	s.findCalls++
	return s.doc, nil
}

func (s *recordingStore) UpdateLocale(ctx context.Context, collection, id, locale string, patch map[string]any, opts UpdateOptions) (map[string]any, error) {
	if s.failWrite != nil {
		return nil, s.failWrite
	}
	s.updates = append(s.updates, storeUpdate{collection, id, locale, patch, opts})
	for path, value := range patch {
		SetLocaleValue(s.doc, path, locale, value)
	}
	return s.doc, nil
}

func testCollection() *Collection {
	return &Collection{
		Slug: "articles",
		Fields: []Field{
			{Name: "title", Type: "text", Localized: true},
			{Name: "body", Type: "richText", Localized: true},
			{Name: "slug", Type: "text"},
		},
	}
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestEngine(p Provider, s RecordStore, extra ...EngineOption) *Engine {
	opts := append([]EngineOption{
		WithLocales([]string{"en", "de"}),
		WithDefaultLocale("en"),
		WithLogger(quietLogger()),
	}, extra...)
	return NewEngine(p, s, opts...)
}

func TestEngine_GuardedEventIsNoOp(t *testing.T) {
	provider := &stubProvider{}
	store := &recordingStore{doc: map[string]any{
		"title": map[string]any{"en": "Hello", "de": ""},
	}}

	engine := newTestEngine(provider, store)

	doc := map[string]any{"title": "Hello"}
	got := engine.Process(context.Background(), ChangeEvent{
		Collection: testCollection(),
		ID:         "a1",
		Doc:        doc,
		Locale:     "en",
		Markers:    map[string]string{GuardMarkerKey: NewGuardToken()},
	})

	if len(provider.requests) != 0 {
		t.Error("guarded event must not reach the provider")
	}
	if store.findCalls != 0 || len(store.updates) != 0 {
		t.Error("guarded event must not touch the record store")
	}
	if got == nil {
		t.Error("the event document must be returned unchanged")
	}
}

func TestEngine_PlainTextTwoLocales(t *testing.T) {
	provider := &stubProvider{translations: map[string]string{"Hello": "Hallo"}}
	store := &recordingStore{doc: map[string]any{
		"title": map[string]any{"en": "Hello", "de": ""},
		"slug":  "hello",
	}}

	engine := newTestEngine(provider, store)

	engine.Process(context.Background(), ChangeEvent{
		Collection: testCollection(),
		ID:         "a1",
		Doc:        store.doc,
		Locale:     "all",
	})

	if len(provider.requests) != 1 {
		t.Fatalf("expected 1 provider call, got %d", len(provider.requests))
	}
	req := provider.requests[0]
	if req.SourceLocale != "en" || req.TargetLocale != "de" {
		t.Errorf("locale pair = %s→%s, want en→de", req.SourceLocale, req.TargetLocale)
	}
	if len(req.Paths) != 1 || req.Paths[0] != "title" {
		t.Errorf("paths = %v, want [title]", req.Paths)
	}

	if len(store.updates) != 1 {
		t.Fatalf("expected 1 write, got %d", len(store.updates))
	}
	update := store.updates[0]
	if update.locale != "de" {
		t.Errorf("write locale = %q, want de", update.locale)
	}
	if update.patch["title"] != "Hallo" {
		t.Errorf("patch title = %v, want Hallo", update.patch["title"])
	}
	if update.opts.RequestMarker == "" {
		t.Error("write must carry a guard token")
	}
	if !update.opts.SkipAccessControl {
		t.Error("engine writes are system writes")
	}

	// Source locale untouched
	if LocaleValue(store.doc, "title", "en") != "Hello" {
		t.Error("source locale was modified")
	}
}

func TestEngine_RichTextReinjection(t *testing.T) {
	provider := &stubProvider{translations: map[string]string{"Hello world": "Bonjour le monde"}}
	store := &recordingStore{doc: map[string]any{
		"title": map[string]any{"en": "", "fr": ""},
		"body": map[string]any{
			"en": []any{
				map[string]any{"children": []any{
					map[string]any{"text": "Hello "},
					map[string]any{"text": "world", "bold": true},
				}},
			},
			"fr": nil,
		},
	}}

	engine := NewEngine(provider, store,
		WithLocales([]string{"en", "fr"}),
		WithDefaultLocale("en"),
		WithLogger(quietLogger()),
	)

	engine.Process(context.Background(), ChangeEvent{
		Collection: testCollection(),
		ID:         "a1",
		Doc:        store.doc,
		Locale:     "all",
	})

	if len(store.updates) != 1 {
		t.Fatalf("expected 1 write, got %d", len(store.updates))
	}

	patched, ok := store.updates[0].patch["body"].([]any)
	if !ok {
		t.Fatalf("patched body is %T, want node list", store.updates[0].patch["body"])
	}
	if len(patched) != 1 {
		t.Fatalf("node count changed: %d", len(patched))
	}

	leaves := collectTextLeaves(patched[0], nil)
	if len(leaves) != 2 {
		t.Fatalf("expected 2 leaves, got %d", len(leaves))
	}
	if leaves[0]["text"] != "Bonjour le monde" {
		t.Errorf("first leaf = %q, want translated text", leaves[0]["text"])
	}
	if leaves[1]["text"] != "" {
		t.Errorf("second leaf = %q, want blank", leaves[1]["text"])
	}
	if leaves[1]["bold"] != true {
		t.Error("bold mark lost")
	}
}

func TestEngine_AllEmptyRecord(t *testing.T) {
	provider := &stubProvider{}
	store := &recordingStore{doc: map[string]any{
		"title": map[string]any{"en": "", "de": ""},
		"body":  map[string]any{"en": nil, "de": nil},
	}}

	engine := newTestEngine(provider, store)

	engine.Process(context.Background(), ChangeEvent{
		Collection: testCollection(),
		ID:         "a1",
		Doc:        store.doc,
		Locale:     "all",
	})

	if len(provider.requests) != 0 {
		t.Error("empty record must not reach the provider")
	}
	if len(store.updates) != 0 {
		t.Error("empty record must not be written")
	}
}

func TestEngine_PartialFailure(t *testing.T) {
	provider := &stubProvider{
		translations: map[string]string{"Hello": "Hallo"},
		failLocales: map[string]error{
			"fr": &ProviderError{Message: "request timed out", Retryable: true},
		},
	}
	store := &recordingStore{doc: map[string]any{
		"title": map[string]any{"en": "Hello", "de": "", "fr": "", "it": ""},
	}}

	engine := NewEngine(provider, store,
		WithLocales([]string{"en", "de", "fr", "it"}),
		WithDefaultLocale("en"),
		WithLogger(quietLogger()),
	)

	engine.Process(context.Background(), ChangeEvent{
		Collection: testCollection(),
		ID:         "a1",
		Doc:        store.doc,
		Locale:     "all",
	})

	if len(provider.requests) != 3 {
		t.Fatalf("expected 3 provider calls, got %d", len(provider.requests))
	}

	locales := make([]string, len(store.updates))
	for i, u := range store.updates {
		locales[i] = u.locale
	}
	if len(locales) != 2 || locales[0] != "de" || locales[1] != "it" {
		t.Errorf("written locales = %v, want [de it]", locales)
	}
}

func TestEngine_Idempotence(t *testing.T) {
	provider := &stubProvider{translations: map[string]string{"Hello": "Hallo"}}
	store := &recordingStore{doc: map[string]any{
		"title": map[string]any{"en": "Hello", "de": "", "fr": ""},
	}}

	engine := NewEngine(provider, store,
		WithLocales([]string{"en", "de", "fr"}),
		WithDefaultLocale("en"),
		WithLogger(quietLogger()),
	)

	event := ChangeEvent{
		Collection: testCollection(),
		ID:         "a1",
		Doc:        store.doc,
		Locale:     "all",
	}

	engine.Process(context.Background(), event)
	if len(store.updates) != 2 {
		t.Fatalf("first pass: expected 2 writes, got %d", len(store.updates))
	}

	// The first pass filled every target; the second must be a no-op.
	engine.Process(context.Background(), event)
	if len(store.updates) != 2 {
		t.Errorf("second pass performed %d extra writes", len(store.updates)-2)
	}
	if len(provider.requests) != 2 {
		t.Errorf("second pass performed %d extra provider calls", len(provider.requests)-2)
	}
}

func TestEngine_DryRun(t *testing.T) {
	provider := &stubProvider{translations: map[string]string{"Hello": "Hallo"}}
	store := &recordingStore{doc: map[string]any{
		"title": map[string]any{"en": "Hello", "de": ""},
	}}

	engine := newTestEngine(provider, store, WithDryRun(true))

	engine.Process(context.Background(), ChangeEvent{
		Collection: testCollection(),
		ID:         "a1",
		Doc:        store.doc,
		Locale:     "all",
	})

	if len(provider.requests) != 1 {
		t.Errorf("dry run still translates, got %d calls", len(provider.requests))
	}
	if len(store.updates) != 0 {
		t.Errorf("dry run must not write, got %d writes", len(store.updates))
	}
}

func TestEngine_GateFieldClosed(t *testing.T) {
	provider := &stubProvider{}
	store := &recordingStore{doc: map[string]any{
		"title":         map[string]any{"en": "Hello", "de": ""},
		"autoTranslate": false,
	}}

	engine := newTestEngine(provider, store, WithGateField("autoTranslate"))

	engine.Process(context.Background(), ChangeEvent{
		Collection: testCollection(),
		ID:         "a1",
		Doc:        store.doc,
		Locale:     "all",
	})

	if len(provider.requests) != 0 || len(store.updates) != 0 {
		t.Error("closed gate must be a no-op")
	}
}

func TestEngine_SequentialTargetOrder(t *testing.T) {
	provider := &stubProvider{}
	store := &recordingStore{doc: map[string]any{
		"title": map[string]any{"en": "Hello", "de": "", "fr": ""},
	}}

	engine := NewEngine(provider, store,
		WithLocales([]string{"en", "de", "fr"}),
		WithDefaultLocale("en"),
		WithTargetLocales([]string{"fr", "de"}),
		WithLogger(quietLogger()),
	)

	engine.Process(context.Background(), ChangeEvent{
		Collection: testCollection(),
		ID:         "a1",
		Doc:        store.doc,
		Locale:     "all",
	})

	if len(provider.requests) != 2 {
		t.Fatalf("expected 2 provider calls, got %d", len(provider.requests))
	}
	if provider.requests[0].TargetLocale != "fr" || provider.requests[1].TargetLocale != "de" {
		t.Errorf("targets processed out of configured order: %s, %s",
			provider.requests[0].TargetLocale, provider.requests[1].TargetLocale)
	}
}

func TestEngine_LocaleScopedEventRefetches(t *testing.T) {
	provider := &stubProvider{translations: map[string]string{"Hello": "Hallo"}}
	store := &recordingStore{doc: map[string]any{
		"title": map[string]any{"en": "Hello", "de": ""},
	}}

	engine := newTestEngine(provider, store)

	// The host delivered a locale-scoped document; the engine must fetch
	// the all-locales shape before scoring.
	engine.Process(context.Background(), ChangeEvent{
		Collection: testCollection(),
		ID:         "a1",
		Doc:        map[string]any{"title": "Hello"},
		Locale:     "en",
	})

	if store.findCalls != 1 {
		t.Errorf("expected 1 all-locales fetch, got %d", store.findCalls)
	}
	if len(store.updates) != 1 {
		t.Errorf("expected 1 write, got %d", len(store.updates))
	}
}

func TestEngine_SkipLegacyRichText(t *testing.T) {
	legacyTarget := []any{
		map[string]any{"children": []any{map[string]any{"text": ""}}},
	}
	doc := map[string]any{
		"title": map[string]any{"en": "", "de": ""},
		"body": map[string]any{
			"en": []any{map[string]any{"children": []any{map[string]any{"text": "Hello"}}}},
			"de": legacyTarget,
		},
	}

	provider := &stubProvider{}
	store := &recordingStore{doc: doc}
	engine := newTestEngine(provider, store, WithSkipLegacyRichText(true))

	engine.Process(context.Background(), ChangeEvent{
		Collection: testCollection(),
		ID:         "a1",
		Doc:        doc,
		Locale:     "all",
	})

	if len(provider.requests) != 0 || len(store.updates) != 0 {
		t.Error("legacy-format target must be left alone when the guard is on")
	}
}

func TestEngine_EmptyTranslationNotWritten(t *testing.T) {
	provider := &stubProvider{translations: map[string]string{"Hello": ""}}
	store := &recordingStore{doc: map[string]any{
		"title": map[string]any{"en": "Hello", "de": ""},
	}}

	engine := newTestEngine(provider, store)

	engine.Process(context.Background(), ChangeEvent{
		Collection: testCollection(),
		ID:         "a1",
		Doc:        store.doc,
		Locale:     "all",
	})

	if len(store.updates) != 0 {
		t.Error("an empty translation must not produce a write")
	}
}

func TestEngine_WriteFailureDoesNotPropagate(t *testing.T) {
	provider := &stubProvider{translations: map[string]string{"Hello": "Hallo"}}
	store := &recordingStore{
		doc: map[string]any{
			"title": map[string]any{"en": "Hello", "de": "", "fr": ""},
		},
		failWrite: &StoreError{Message: "write rejected"},
	}

	engine := NewEngine(provider, store,
		WithLocales([]string{"en", "de", "fr"}),
		WithDefaultLocale("en"),
		WithLogger(quietLogger()),
	)

	doc := engine.Process(context.Background(), ChangeEvent{
		Collection: testCollection(),
		ID:         "a1",
		Doc:        store.doc,
		Locale:     "all",
	})

	if doc == nil {
		t.Fatal("the document must always be returned")
	}
	// Both targets were still attempted despite the first write failing.
	if len(provider.requests) != 2 {
		t.Errorf("expected 2 provider calls, got %d", len(provider.requests))
	}
}

func TestEngine_NoTranslatableFields(t *testing.T) {
	provider := &stubProvider{}
	store := &recordingStore{doc: map[string]any{"slug": "hello"}}

	collection := &Collection{
		Slug:   "settings",
		Fields: []Field{{Name: "slug", Type: "text"}},
	}

	engine := newTestEngine(provider, store)

	engine.Process(context.Background(), ChangeEvent{
		Collection: collection,
		ID:         "s1",
		Doc:        store.doc,
		Locale:     "all",
	})

	if store.findCalls != 0 || len(provider.requests) != 0 {
		t.Error("a schema without translatable fields must be a no-op")
	}
}

func TestEngine_ExplicitFieldList(t *testing.T) {
	provider := &stubProvider{translations: map[string]string{"Hello": "Hallo", "Body": "Körper"}}
	store := &recordingStore{doc: map[string]any{
		"title": map[string]any{"en": "Hello", "de": ""},
		"body": map[string]any{
			"en": []any{map[string]any{"children": []any{map[string]any{"text": "Body"}}}},
			"de": nil,
		},
	}}

	engine := newTestEngine(provider, store, WithFields([]string{"title"}))

	engine.Process(context.Background(), ChangeEvent{
		Collection: testCollection(),
		ID:         "a1",
		Doc:        store.doc,
		Locale:     "all",
	})

	if len(provider.requests) != 1 {
		t.Fatalf("expected 1 provider call, got %d", len(provider.requests))
	}
	if paths := provider.requests[0].Paths; len(paths) != 1 || paths[0] != "title" {
		t.Errorf("paths = %v, want only the configured field", paths)
	}
}
