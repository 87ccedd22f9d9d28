// Command autolocalize runs one locale-reconciliation pass over a record.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/playstateprojects/autolocalize"
	"github.com/playstateprojects/autolocalize/provider"
	"github.com/playstateprojects/autolocalize/store"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = autolocalize.Version
	commit    = autolocalize.GitCommit
	buildDate = autolocalize.BuildDate
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("autolocalize", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Flags
	schemaFile := fs.String("schema", "", "Collection schema file (YAML)")
	recordFile := fs.String("record", "", "Record file in all-locales shape (JSON)")
	recordID := fs.String("id", "record-1", "Record id")
	locales := fs.String("locales", "", "Comma-separated configured locales (e.g., en,de,fr)")
	defaultLocale := fs.String("default-locale", "", "Framework default locale (default: first of --locales)")
	sourceLocale := fs.String("source", "", "Explicit source locale (default: auto-detect by completeness)")
	targetLocales := fs.String("targets", "", "Comma-separated target locales (default: all configured)")
	fieldList := fs.String("fields", "", "Comma-separated field paths (default: auto-detect from schema)")
	gateField := fs.String("gate-field", "", "Boolean record field that opts a record out when false")
	apiKey := fs.String("api-key", "", "OpenAI API key (default: OPENAI_API_KEY env)")
	model := fs.String("model", "gpt-4o-mini", "OpenAI model to use")
	timeoutSec := fs.Int("timeout", 30, "Per-request timeout in seconds")
	dryRun := fs.Bool("dry-run", false, "Log would-be patches instead of writing them")
	skipLegacy := fs.Bool("skip-legacy-richtext", false, "Never overwrite targets already holding legacy node-list rich text")
	jsonOutput := fs.Bool("json", false, "Output the resulting record as compact JSON")
	quiet := fs.Bool("quiet", false, "Suppress progress and dry-run output")
	showVersion := fs.Bool("version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", autolocalize.Name, version)
		if commit != "unknown" && commit != "" {
			fmt.Fprintf(stdout, "  commit:  %s\n", commit)
		}
		if buildDate != "unknown" && buildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
		}
		return nil
	}

	// Validate required flags
	if *schemaFile == "" {
		fs.Usage()
		return fmt.Errorf("--schema is required")
	}
	if *recordFile == "" {
		fs.Usage()
		return fmt.Errorf("--record is required")
	}
	localeList := splitList(*locales)
	if len(localeList) == 0 {
		fs.Usage()
		return fmt.Errorf("--locales is required")
	}

	collection, err := loadSchema(*schemaFile)
	if err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}

	doc, err := loadRecord(*recordFile)
	if err != nil {
		return fmt.Errorf("reading record: %w", err)
	}

	// Get API key
	key := *apiKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return fmt.Errorf("API key required (--api-key or OPENAI_API_KEY)")
	}

	fallback := *defaultLocale
	if fallback == "" {
		fallback = localeList[0]
	}

	recordStore := store.NewMemoryStore()
	recordStore.Seed(collection.Slug, *recordID, doc)

	var p autolocalize.Provider = provider.NewOpenAIProvider(provider.OpenAIConfig{
		APIKey: key,
		Model:  *model,
	})
	p = autolocalize.NewRetryableProvider(p, autolocalize.DefaultRetryConfig())

	logger := log.New(stderr, "autolocalize: ", log.LstdFlags)
	if *quiet {
		logger = log.New(io.Discard, "", 0)
	}

	opts := []autolocalize.EngineOption{
		autolocalize.WithLocales(localeList),
		autolocalize.WithDefaultLocale(fallback),
		autolocalize.WithRequestTimeout(time.Duration(*timeoutSec) * time.Second),
		autolocalize.WithDryRun(*dryRun),
		autolocalize.WithSkipLegacyRichText(*skipLegacy),
		autolocalize.WithLogger(logger),
	}
	if *sourceLocale != "" {
		opts = append(opts, autolocalize.WithSourceLocale(*sourceLocale))
	}
	if targets := splitList(*targetLocales); len(targets) > 0 {
		opts = append(opts, autolocalize.WithTargetLocales(targets))
	}
	if fields := splitList(*fieldList); len(fields) > 0 {
		opts = append(opts, autolocalize.WithFields(fields))
	}
	if *gateField != "" {
		opts = append(opts, autolocalize.WithGateField(*gateField))
	}

	engine := autolocalize.NewEngine(p, recordStore, opts...)

	engine.Process(context.Background(), autolocalize.ChangeEvent{
		Collection: collection,
		ID:         *recordID,
		Doc:        doc,
		Locale:     "all",
	})

	result, ok := recordStore.Record(collection.Slug, *recordID)
	if !ok {
		return fmt.Errorf("record disappeared from store")
	}

	if *jsonOutput {
		data, err := json.Marshal(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(data))
		return nil
	}

	if !*quiet {
		fmt.Fprintf(stderr, "Applied %d locale update(s)\n", len(recordStore.Updates()))
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(data))
	return nil
}

func loadSchema(path string) (*autolocalize.Collection, error) {
	data, err := os.ReadFile(path) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return nil, err
	}
	var collection autolocalize.Collection
	if err := yaml.Unmarshal(data, &collection); err != nil {
		return nil, err
	}
	if collection.Slug == "" {
		return nil, fmt.Errorf("schema has no collection slug")
	}
	return &collection, nil
}

func loadRecord(path string) (map[string]any, error) {
	data, err := os.ReadFile(path) // #nosec G304 - CLI tool reads user-specified files
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
