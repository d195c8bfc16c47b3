// Package main provides the planning service: an HTTP API over the
// parameter store and the projection engine, with write-through
// persistence of accepted parameter writes and an append-only history
// feed.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"finplan-lab/internal/domain"
	"finplan-lab/internal/observability"
	"finplan-lab/internal/paramio"
	"finplan-lab/internal/params"
	"finplan-lab/internal/simulation"
	"finplan-lab/internal/storage"
	chstore "finplan-lab/internal/storage/clickhouse"
	"finplan-lab/internal/storage/memory"
	"finplan-lab/internal/storage/migrations"
	pgstore "finplan-lab/internal/storage/postgres"
)

// Server holds the API components.
type Server struct {
	store        *params.Store
	recordStore  storage.ParameterRecordStore
	historyStore storage.ParameterHistoryStore
	metrics      *observability.Metrics
	logger       zerolog.Logger
}

func main() {
	listenAddr := flag.String("listen", ":8080", "API HTTP address")
	metricsAddr := flag.String("metrics-listen", ":9090", "Prometheus metrics HTTP address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (history feed)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	migrate := flag.Bool("migrate", false, "Apply embedded migrations on startup")

	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Str("component", "server").Logger()

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal().Msg("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recordStore, historyStore, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory, *migrate)
	if err != nil {
		logger.Fatal().Err(err).Msg("create stores")
	}
	defer cleanup()

	store := params.NewBaselineStore()
	persisted, err := recordStore.List(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("load persisted parameters")
	}
	if len(persisted) > 0 {
		records := make([]domain.ParameterRecord, len(persisted))
		for i, r := range persisted {
			records[i] = *r
		}
		store.LoadRecords(records)
		logger.Info().Int("records", len(records)).Msg("persisted parameters loaded")
	}

	srv := &Server{
		store:        store,
		recordStore:  recordStore,
		historyStore: historyStore,
		metrics:      observability.NewMetrics(""),
		logger:       logger,
	}

	// Metrics endpoint on its own listener.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", srv.metrics.Handler())
		logger.Info().Str("addr", *metricsAddr).Msg("metrics listening")
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server")
		}
	}()

	api := &http.Server{
		Addr:              *listenAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := api.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
		cancel()
	}()

	logger.Info().Str("addr", *listenAddr).Int("parameters", store.Len()).Msg("API listening")
	if err := api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("API server")
	}
	logger.Info().Msg("shutdown complete")
}

// createStores wires the persistence backends. PostgreSQL holds current
// state; ClickHouse, when configured, receives the append-only history
// feed, otherwise history stays in PostgreSQL too.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory, migrate bool) (storage.ParameterRecordStore, storage.ParameterHistoryStore, func(), error) {
	if useMemory {
		return memory.NewParameterRecordStore(), memory.NewParameterHistoryStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if migrate {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("apply postgres migrations: %w", err)
		}
	}

	recordStore := pgstore.NewParameterRecordStore(pool)
	var historyStore storage.ParameterHistoryStore = pgstore.NewParameterHistoryStore(pool)
	cleanup := func() { pool.Close() }

	if clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		if migrate {
			if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
				conn.Close()
				pool.Close()
				return nil, nil, nil, fmt.Errorf("apply clickhouse migrations: %w", err)
			}
		}
		historyStore = chstore.NewParameterHistoryStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	}

	return recordStore, historyStore, cleanup, nil
}

// routes builds the API mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /v1/parameters", s.handleExportTree)
	mux.HandleFunc("GET /v1/parameters/{path...}", s.handleGetParameter)
	mux.HandleFunc("PUT /v1/parameters/{path...}", s.handlePutParameter)
	mux.HandleFunc("POST /v1/simulate", s.handleSimulate)

	return mux
}

// handleExportTree returns the store's resolved state as a nested tree.
func (s *Server) handleExportTree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, paramio.ExportTree(s.store))
}

// handleGetParameter returns the full parameter at the path, including
// metadata. Misses degrade through the store's fallback chain to a bare
// value; only a complete miss is a 404.
func (s *Server) handleGetParameter(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	s.metrics.ParamLookups.Inc()

	if p, ok := s.store.Lookup(path); ok {
		writeJSON(w, http.StatusOK, p)
		return
	}

	if v := s.store.Get(path, nil); v != nil {
		writeJSON(w, http.StatusOK, map[string]any{"path": path, "value": v})
		return
	}

	writeError(w, http.StatusNotFound, fmt.Sprintf("parameter %q not found", path))
}

// putParameterRequest is the PUT body for a parameter write.
type putParameterRequest struct {
	Value  any    `json:"value"`
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// handlePutParameter writes a value through the priority gate. Accepted
// writes are persisted write-through: the new record is upserted and one
// history row (the displaced value, attributed to the writing source) is
// appended.
func (s *Server) handlePutParameter(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")

	var req putParameterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	priority, err := parseSource(req.Source)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	previous, existed := s.store.Lookup(path)

	accepted := s.store.Set(path, req.Value, priority, req.Reason)
	if !accepted {
		s.metrics.ParamWritesRejected.WithLabelValues(priority.String()).Inc()
		writeJSON(w, http.StatusConflict, map[string]any{
			"accepted": false,
			"owner":    previous.Metadata.SourcePriority.String(),
		})
		return
	}
	s.metrics.ParamWritesAccepted.WithLabelValues(priority.String()).Inc()

	if err := s.persistWrite(r.Context(), path, previous, existed, priority, req.Reason); err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("write-through persistence")
	}

	writeJSON(w, http.StatusOK, map[string]any{"accepted": true})
}

// persistWrite upserts the current record and appends the displaced value
// to the history feed.
func (s *Server) persistWrite(ctx context.Context, path string, previous domain.Parameter, existed bool, priority domain.SourcePriority, reason string) error {
	current, ok := s.store.Lookup(path)
	if !ok {
		return fmt.Errorf("parameter %q vanished after accepted write", path)
	}

	start := time.Now()
	record := domain.ParameterRecord{
		Path:            current.Path,
		Value:           current.Value,
		SourcePriority:  current.Metadata.SourcePriority,
		UserOverridable: current.Metadata.UserOverridable,
		Volatility:      current.Metadata.Volatility,
		Confidence:      current.Metadata.Confidence,
		LastUpdated:     current.Metadata.LastUpdated,
	}
	if err := s.recordStore.Upsert(ctx, &record); err != nil {
		s.metrics.DBQueryErrors.WithLabelValues("postgres", "upsert").Inc()
		return fmt.Errorf("upsert record: %w", err)
	}
	s.metrics.DBQueryDuration.WithLabelValues("postgres", "upsert").Observe(time.Since(start).Seconds())

	if !existed {
		return nil
	}

	history := domain.ParameterHistoryRecord{
		RecordID:  uuid.NewString(),
		Path:      path,
		Value:     previous.Value,
		Source:    priority,
		Reason:    reason,
		Timestamp: current.Metadata.LastUpdated,
	}
	if err := s.historyStore.Append(ctx, &history); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// handleSimulate runs one projection from the posted config. Asset
// assumptions are re-read from the store per request so accepted
// parameter writes take effect immediately.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var cfg domain.SimulationConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid simulation config")
		return
	}

	runner := simulation.NewRunner(simulation.RunnerOptions{
		Assumptions:               params.AssumptionsFromStore(s.store),
		SequenceRiskMaxAdjustment: params.SequenceRiskMaxAdjustment(s.store),
	})

	start := time.Now()
	result, err := runner.Run(r.Context(), cfg)
	if err != nil {
		s.metrics.SimulationsTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.metrics.SimulationsTotal.WithLabelValues("ok").Inc()
	s.metrics.SimulationRuns.Add(float64(len(result.FinalAmounts)))
	s.metrics.SimulationDuration.Observe(time.Since(start).Seconds())
	if cfg.StressTest {
		s.metrics.StressPathsEvaluated.Add(float64(len(result.StressTestResults)))
	}

	s.logger.Info().
		Str("simulation_id", result.SimulationID).
		Int("runs", len(result.FinalAmounts)).
		Dur("elapsed", time.Since(start)).
		Msg("simulation complete")

	writeJSON(w, http.StatusOK, result)
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

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
