package autolocalize

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GuardMarkerKey is the request-metadata key carrying the self-origin
// marker on engine writes. A change event whose markers contain this key
// was produced by the engine and is ignored, which is the sole mechanism
// preventing the engine's own write from re-entering itself.
const GuardMarkerKey = "autolocalize-origin"

// NewGuardToken mints a fresh opaque marker for one outbound write. Tokens
// are never persisted and are invisible to unrelated change events.
func NewGuardToken() string {
	return uuid.NewString()
}

// Provider is the interface for AI translation backends. On success the
// returned map contains exactly the requested paths; an empty string
// value means the model found nothing to translate for that field.
type Provider interface {
	TranslateFields(ctx context.Context, req FieldTranslationRequest) (map[string]string, error)
}

// RecordStore is the record read/write surface the engine relies on. The
// engine never assumes a particular storage technology, only this shape.
type RecordStore interface {
	// FindAllLocales fetches a record with every localized field resolved
	// to a map from locale to value.
	FindAllLocales(ctx context.Context, collection, id string) (map[string]any, error)

	// UpdateLocale merges a patch into one locale of one record and
	// returns the updated record. Patch keys are the dotted field paths
	// produced by the schema walker; patch values are the per-locale
	// values to assign.
	UpdateLocale(ctx context.Context, collection, id, locale string, patch map[string]any, opts UpdateOptions) (map[string]any, error)
}

// DefaultRequestTimeout bounds a single provider call.
const DefaultRequestTimeout = 30 * time.Second

// Engine reconciles missing translations for one record-change event at a
// time. It holds no per-record state: every invocation constructs, uses
// and discards its working set.
type Engine struct {
	provider       Provider
	store          RecordStore
	locales        []string
	defaultLocale  string
	fields         []string
	sourceLocale   string
	targetLocales  []string
	gateField      string
	dryRun         bool
	skipLegacyRich bool
	requestTimeout time.Duration
	logger         *log.Logger
}

// EngineOption is a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLocales sets the configured locales. An empty list means
// localization is disabled and every event is a no-op.
func WithLocales(locales []string) EngineOption {
	return func(e *Engine) {
		e.locales = locales
	}
}

// WithDefaultLocale sets the framework's default locale, used as the
// source fallback when a record has no content anywhere.
func WithDefaultLocale(locale string) EngineOption {
	return func(e *Engine) {
		e.defaultLocale = locale
	}
}

// WithFields restricts translation to an explicit list of field paths
// instead of auto-detecting every localized text field from the schema.
func WithFields(paths []string) EngineOption {
	return func(e *Engine) {
		e.fields = paths
	}
}

// WithSourceLocale sets an explicit source locale. It is still skipped
// when it holds no content.
func WithSourceLocale(locale string) EngineOption {
	return func(e *Engine) {
		e.sourceLocale = locale
	}
}

// WithTargetLocales restricts the target locales. Default: all configured
// locales except the resolved source.
func WithTargetLocales(locales []string) EngineOption {
	return func(e *Engine) {
		e.targetLocales = locales
	}
}

// WithGateField names a boolean record field that opts a record out of
// translation when explicitly set to false.
func WithGateField(name string) EngineOption {
	return func(e *Engine) {
		e.gateField = name
	}
}

// WithDryRun logs would-be patches instead of writing them.
func WithDryRun(dryRun bool) EngineOption {
	return func(e *Engine) {
		e.dryRun = dryRun
	}
}

// WithSkipLegacyRichText drops a target field from the work set when its
// existing value already parses as the legacy node-list dialect, so old
// pre-migration content is never overwritten.
func WithSkipLegacyRichText(skip bool) EngineOption {
	return func(e *Engine) {
		e.skipLegacyRich = skip
	}
}

// WithRequestTimeout bounds each provider call. A timed-out call fails
// only the locale it was serving.
func WithRequestTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.requestTimeout = d
	}
}

// WithLogger sets the logger for failure reports and dry-run output.
func WithLogger(logger *log.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an Engine with the given provider and record store.
func NewEngine(provider Provider, store RecordStore, opts ...EngineOption) *Engine {
	e := &Engine{
		provider:       provider,
		store:          store,
		requestTimeout: DefaultRequestTimeout,
		logger:         log.New(os.Stderr, "autolocalize: ", log.LstdFlags),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Process runs one reconciliation pass for a record-change event and
// returns the (unmodified) document. It never returns an error: the
// triggering mutation must not fail because translation failed, so
// failures are logged per target locale and the remaining locales are
// still attempted. Repeated invocations are safe; only fields that are
// still empty are re-attempted.
func (e *Engine) Process(ctx context.Context, event ChangeEvent) map[string]any {
	doc := event.Doc

	// A change event carrying a guard marker was produced by one of our
	// own writes.
	if event.Markers[GuardMarkerKey] != "" {
		return doc
	}

	if len(e.locales) == 0 || event.Collection == nil || doc == nil {
		return doc
	}

	fields := e.translatableFields(event.Collection)
	if len(fields) == 0 {
		return doc
	}

	if e.gateField != "" {
		if enabled, ok := ValueAtPath(doc, e.gateField).(bool); ok && !enabled {
			return doc
		}
	}

	allLocales := doc
	if event.Locale != "" && event.Locale != "all" {
		fetched, err := e.store.FindAllLocales(ctx, event.Collection.Slug, event.ID)
		if err != nil {
			e.logf("%s/%s: fetching all-locale record: %v", event.Collection.Slug, event.ID, err)
			return doc
		}
		allLocales = fetched
	}

	source := ResolveSourceLocale(allLocales, fields, e.locales, e.sourceLocale, e.defaultLocale)

	// Flatten every field's source value up front, retaining the original
	// structured value per rich-text field for shape-preserving
	// reinjection later.
	sourceText := make(map[string]string, len(fields))
	sourceTrees := make(map[string]any)
	for _, fd := range fields {
		v := LocaleValue(allLocales, fd.Path, source)
		if fd.Kind == KindRichText {
			if DetectDialect(v) != DialectNone {
				sourceTrees[fd.Path] = v
				sourceText[fd.Path] = Flatten(v)
				continue
			}
		}
		if s, ok := v.(string); ok {
			sourceText[fd.Path] = strings.TrimSpace(s)
		}
	}

	if !anyContent(sourceText) {
		return doc
	}

	targets := e.targetLocales
	if len(targets) == 0 {
		targets = e.locales
	}

	// Strictly sequential across target locales: one outbound provider
	// request at a time per record event, and no interleaved partial
	// writes to the same record.
	for _, target := range targets {
		if target == source {
			continue
		}

		work := e.workSet(allLocales, fields, target, sourceText)
		if len(work) == 0 {
			continue
		}

		if err := e.translateLocale(ctx, event, source, target, work, sourceText, sourceTrees); err != nil {
			e.logf("%s/%s: %s→%s: %v", event.Collection.Slug, event.ID, source, target, err)
		}
	}

	return doc
}

// translatableFields resolves the tracked field descriptors for a
// collection, honoring an explicit field list when configured.
func (e *Engine) translatableFields(collection *Collection) []FieldDescriptor {
	all := CollectFields(collection.Fields)
	if len(e.fields) == 0 {
		return all
	}

	wanted := make(map[string]bool, len(e.fields))
	for _, p := range e.fields {
		wanted[p] = true
	}

	var out []FieldDescriptor
	for _, fd := range all {
		if wanted[fd.Path] {
			out = append(out, fd)
		}
	}
	return out
}

// workSet computes the fields to translate for one target locale: the
// missing fields that have source content, minus legacy-dialect targets
// when the legacy guard is enabled.
func (e *Engine) workSet(doc map[string]any, fields []FieldDescriptor, target string, sourceText map[string]string) []FieldDescriptor {
	var work []FieldDescriptor
	for _, fd := range MissingFields(doc, fields, target) {
		if sourceText[fd.Path] == "" {
			continue
		}
		if e.skipLegacyRich && fd.Kind == KindRichText {
			if DetectDialect(LocaleValue(doc, fd.Path, target)) == DialectNodeList {
				continue
			}
		}
		work = append(work, fd)
	}
	return work
}

// translateLocale performs the provider call and write-back for one
// (target locale, field set) unit of work.
func (e *Engine) translateLocale(ctx context.Context, event ChangeEvent, source, target string, work []FieldDescriptor, sourceText map[string]string, sourceTrees map[string]any) error {
	paths := make([]string, len(work))
	values := make(map[string]string, len(work))
	for i, fd := range work {
		paths[i] = fd.Path
		values[fd.Path] = sourceText[fd.Path]
	}

	callCtx, cancel := context.WithTimeout(ctx, e.requestTimeout)
	defer cancel()

	translated, err := e.provider.TranslateFields(callCtx, FieldTranslationRequest{
		Collection:   event.Collection.Slug,
		SourceLocale: source,
		TargetLocale: target,
		Paths:        paths,
		Values:       values,
	})
	if err != nil {
		return err
	}

	patch := make(map[string]any, len(work))
	for _, fd := range work {
		s := translated[fd.Path]
		// Empty string means the model had nothing to translate.
		if s == "" {
			continue
		}
		if fd.Kind == KindRichText {
			if tree, ok := sourceTrees[fd.Path]; ok {
				patch[fd.Path] = Reinject(tree, s)
				continue
			}
		}
		patch[fd.Path] = s
	}
	if len(patch) == 0 {
		return nil
	}

	if e.dryRun {
		e.logf("dry run: would update %s/%s locale %s with %s",
			event.Collection.Slug, event.ID, target, compactJSON(patch))
		return nil
	}

	_, err = e.store.UpdateLocale(ctx, event.Collection.Slug, event.ID, target, patch, UpdateOptions{
		SkipAccessControl: true,
		RequestMarker:     NewGuardToken(),
	})
	if err != nil {
		return &StoreError{
			Message:    "writing locale patch",
			Cause:      err,
			Collection: event.Collection.Slug,
			ID:         event.ID,
		}
	}
	return nil
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}

func anyContent(values map[string]string) bool {
	for _, v := range values {
		if v != "" {
			return true
		}
	}
	return false
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "<unencodable>"
	}
	return string(data)
}
