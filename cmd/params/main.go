// Package main imports and exports parameter sets. Export renders the
// store's resolved state (baseline plus any persisted overrides) as a
// nested JSON tree or a flat CSV; import bulk-loads a file through the
// priority-bypass path and optionally persists it to PostgreSQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"finplan-lab/internal/domain"
	"finplan-lab/internal/paramio"
	"finplan-lab/internal/params"
	"finplan-lab/internal/storage/migrations"
	pgstore "finplan-lab/internal/storage/postgres"
)

func main() {
	importPath := flag.String("import", "", "Parameter file to import")
	exportPath := flag.String("export", "", "File to export parameters to (\"-\" for stdout)")
	format := flag.String("format", "tree", "File format: tree (nested JSON) or csv (flat records)")
	source := flag.String("source", "profile", "Source priority for tree imports: user_override, advisor, profile, market_data, baseline")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Skip persistence, operate on the in-memory baseline only")
	migrate := flag.Bool("migrate", false, "Apply embedded migrations before running")

	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Str("component", "params").Logger()

	if (*importPath == "") == (*exportPath == "") {
		logger.Fatal().Msg("exactly one of --import or --export is required")
	}
	if *format != "tree" && *format != "csv" {
		logger.Fatal().Str("format", *format).Msg("format must be tree or csv")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal().Msg("--postgres-dsn is required (use --use-memory to skip persistence)")
	}

	priority, err := parseSource(*source)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid source")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	var recordStore *pgstore.ParameterRecordStore
	if !*useMemory {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to postgres")
		}
		defer pool.Close()

		if *migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				logger.Fatal().Err(err).Msg("apply migrations")
			}
			logger.Info().Msg("migrations applied")
		}
		recordStore = pgstore.NewParameterRecordStore(pool)
	}

	store := params.NewBaselineStore()
	if recordStore != nil {
		persisted, err := recordStore.List(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("load persisted parameters")
		}
		records := make([]domain.ParameterRecord, len(persisted))
		for i, r := range persisted {
			records[i] = *r
		}
		store.LoadRecords(records)
		logger.Info().Int("records", len(records)).Msg("persisted parameters loaded")
	}

	if *exportPath != "" {
		if err := runExport(store, *exportPath, *format); err != nil {
			logger.Fatal().Err(err).Msg("export failed")
		}
		logger.Info().Str("path", *exportPath).Int("parameters", store.Len()).Msg("export complete")
		return
	}

	imported, err := runImport(ctx, store, recordStore, *importPath, *format, priority)
	if err != nil {
		logger.Fatal().Err(err).Msg("import failed")
	}
	logger.Info().Str("path", *importPath).Int("records", imported).Msg("import complete")
}

// parseSource maps a source name to its priority.
func parseSource(name string) (domain.SourcePriority, error) {
	switch strings.ToLower(name) {
	case "user_override":
		return domain.SourceUserOverride, nil
	case "advisor":
		return domain.SourceAdvisor, nil
	case "profile":
		return domain.SourceProfile, nil
	case "market_data":
		return domain.SourceMarketData, nil
	case "baseline":
		return domain.SourceBaseline, nil
	default:
		return 0, fmt.Errorf("unknown source %q", name)
	}
}

// runExport writes the store's resolved state to path.
func runExport(store *params.Store, path, format string) error {
	w := os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == "csv" {
		return paramio.WriteCSV(w, store.ExportRecords())
	}
	return paramio.WriteTree(w, store)
}

// runImport bulk-loads the file into the store and persists the resulting
// records when a record store is configured.
func runImport(ctx context.Context, store *params.Store, recordStore *pgstore.ParameterRecordStore, path, format string, priority domain.SourcePriority) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	var records []domain.ParameterRecord
	switch format {
	case "csv":
		records, err = paramio.ReadCSV(f)
		if err != nil {
			return 0, err
		}
		store.LoadRecords(records)
	default:
		tree, err := paramio.ReadTree(f)
		if err != nil {
			return 0, err
		}
		paramio.ImportTree(store, tree, priority)
		records = store.ExportRecords()
	}

	if recordStore != nil {
		persist := make([]*domain.ParameterRecord, len(records))
		for i := range records {
			persist[i] = &records[i]
		}
		if err := recordStore.UpsertBulk(ctx, persist); err != nil {
			return 0, fmt.Errorf("persist imported records: %w", err)
		}
	}

	return len(records), nil
}
