// Package main runs one Monte Carlo projection from a JSON config file and
// writes the report artifacts (Markdown summary plus CSVs) to an output
// directory.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"

	"finplan-lab/internal/domain"
	"finplan-lab/internal/paramio"
	"finplan-lab/internal/params"
	"finplan-lab/internal/reporting"
	"finplan-lab/internal/simulation"
)

func main() {
	configPath := flag.String("config", "", "Simulation config JSON file (required)")
	paramsPath := flag.String("params", "", "Optional parameter tree JSON imported over the baseline")
	outputDir := flag.String("output-dir", "output", "Output directory for report artifacts")
	seed := flag.Int64("seed", 0, "Override the config's random seed (0 keeps the config value)")
	jsonOut := flag.Bool("json", false, "Also print the raw result as JSON to stdout")

	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().Str("component", "simulate").Logger()

	if *configPath == "" {
		logger.Fatal().Msg("--config is required")
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

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	store := params.NewBaselineStore()
	if *paramsPath != "" {
		if err := importParams(store, *paramsPath); err != nil {
			logger.Fatal().Err(err).Str("path", *paramsPath).Msg("import parameters")
		}
		logger.Info().Str("path", *paramsPath).Int("parameters", store.Len()).Msg("parameters imported")
	}

	runner := simulation.NewRunner(simulation.RunnerOptions{
		Assumptions:               params.AssumptionsFromStore(store),
		SequenceRiskMaxAdjustment: params.SequenceRiskMaxAdjustment(store),
	})

	logger.Info().
		Int("runs", cfg.NumRuns).
		Int("horizon_years", cfg.TimeHorizonYears).
		Bool("withdrawal_phase", cfg.WithdrawalPhase).
		Msg("running projection")

	result, err := runner.Run(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("simulation failed")
	}

	if err := writeArtifacts(*outputDir, cfg, result); err != nil {
		logger.Fatal().Err(err).Msg("write report artifacts")
	}
	logger.Info().Str("simulation_id", result.SimulationID).Str("dir", *outputDir).Msg("report written")

	if *jsonOut {
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
	}
}

// loadConfig reads and parses the simulation config file.
func loadConfig(path string) (domain.SimulationConfig, error) {
	var cfg domain.SimulationConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// importParams loads a nested parameter tree over the baseline at profile
// priority.
func importParams(store *params.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	tree, err := paramio.ReadTree(f)
	if err != nil {
		return err
	}
	paramio.ImportTree(store, tree, domain.SourceProfile)
	return nil
}

// writeArtifacts renders the Markdown report and CSV exports.
func writeArtifacts(dir string, cfg domain.SimulationConfig, result *domain.SimulationResult) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	report := reporting.NewReport(cfg.WithDefaults(), result)

	files := map[string]string{
		"report.md":       reporting.RenderMarkdown(report),
		"percentiles.csv": reporting.RenderPercentilesCSV(report),
		"median_path.csv": reporting.RenderMedianPathCSV(report),
	}
	if len(result.StressTestResults) > 0 {
		files["stress.csv"] = reporting.RenderStressCSV(report)
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	resultJSON, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "result.json"), resultJSON, 0644); err != nil {
		return fmt.Errorf("write result.json: %w", err)
	}

	return nil
}
