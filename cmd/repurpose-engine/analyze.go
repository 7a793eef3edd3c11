// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/repurpose-engine/internal/history"
	"github.com/pdiddy/repurpose-engine/internal/report"
	"github.com/pdiddy/repurpose-engine/internal/secrets"
	"github.com/pdiddy/repurpose-engine/internal/sources"
	"github.com/pdiddy/repurpose-engine/internal/synthesis"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "repurpose-engine/0.1"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <molecule> <disease>",
	Short: "Run a full repurposing analysis for a molecule/disease pairing",
	Long: `Analyze gathers evidence about repurposing a molecule for a disease from
all configured sources, normalizes the findings, detects conflicts, and
synthesizes an aggregate confidence with a recommendation.

The result is printed as a summary table (or JSON with --json), written as a
report file, and recorded in the analysis history.`,
	Args: cobra.ExactArgs(2),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("data-dir", "data", "base directory for local evidence datasets")
	analyzeCmd.Flags().String("report-dir", "reports", "output directory for report files")
	analyzeCmd.Flags().String("history-dir", "history", "directory for the analysis history database")
	analyzeCmd.Flags().String("literature-url", "", "base URL of the literature API (empty disables the web source)")
	analyzeCmd.Flags().String("literature-key", "", "literature API key (default: .secrets/literature-api-key)")
	analyzeCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	analyzeCmd.Flags().Int("max-retries", 0, "maximum retries for rate-limited HTTP calls (default 5)")
	analyzeCmd.Flags().Float64("conflict-threshold", 0, "minimum severity recorded as a conflict (default 0.25)")
	analyzeCmd.Flags().Float64("penalty-factor", 0, "conflict penalty on aggregate confidence (default 0.5)")
	analyzeCmd.Flags().String("format", "markdown", "report file format: markdown or json")
	analyzeCmd.Flags().Bool("json", false, "print the result as JSON instead of a summary table")
	analyzeCmd.Flags().Bool("no-report", false, "skip writing a report file")
	analyzeCmd.Flags().Bool("no-history", false, "skip recording the run in history")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	req := types.Request{Molecule: args[0], Disease: args[1]}

	srcCfg := sourcesConfigFromFlags(cmd)
	synthCfg := synthesisConfig(cmd)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := sources.GatherAll(ctx, sources.Defaults(srcCfg), req, srcCfg, os.Stderr)

	// Source failures are non-fatal but belong in the recorded result.
	gatherWarnings := make([]string, 0, len(out.SourceErrors))
	for _, e := range out.SourceErrors {
		gatherWarnings = append(gatherWarnings, "source "+e)
	}

	res, err := synthesis.Synthesize(req, out.Findings, synthCfg, gatherWarnings...)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		if err := report.FormatJSON(res, os.Stdout); err != nil {
			return err
		}
	} else {
		report.FormatSummary(res, os.Stdout)
	}

	if noReport, _ := cmd.Flags().GetBool("no-report"); !noReport {
		reportDir, _ := cmd.Flags().GetString("report-dir")
		format, _ := cmd.Flags().GetString("format")
		path, err := report.WriteReport(res, types.ReportConfig{
			OutputDir: reportDir,
			Format:    types.ReportFormat(format),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", path)
	}

	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory {
		historyDir, _ := cmd.Flags().GetString("history-dir")
		store, err := history.NewStore(types.HistoryConfig{HistoryDir: historyDir})
		if err != nil {
			return err
		}
		defer store.Close()

		runID, err := store.Save(ctx, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Recorded as run %d\n", runID)
	}

	return nil
}

// sourcesConfigFromFlags builds the gathering configuration from flags,
// the config file, and loaded secrets, in that precedence order.
func sourcesConfigFromFlags(cmd *cobra.Command) types.SourcesConfig {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}

	literatureURL, _ := cmd.Flags().GetString("literature-url")
	if literatureURL == "" {
		literatureURL = viper.GetString("sources.literature_base_url")
	}
	literatureKey, _ := cmd.Flags().GetString("literature-key")
	if literatureKey == "" {
		literatureKey = viper.GetString("sources.literature_api_key")
	}
	maxRetries, _ := cmd.Flags().GetInt("max-retries")

	return types.SourcesConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		DataDir:           dataDir,
		LiteratureBaseURL: literatureURL,
		LiteratureAPIKey:  secretDefault(secrets.KeyLiteratureAPI, literatureKey),
		MaxRetries:        maxRetries,
	}
}

func synthesisConfig(cmd *cobra.Command) types.SynthesisConfig {
	threshold, _ := cmd.Flags().GetFloat64("conflict-threshold")
	if threshold == 0 {
		threshold = viper.GetFloat64("synthesis.conflict_threshold")
	}
	penalty, _ := cmd.Flags().GetFloat64("penalty-factor")
	if penalty == 0 {
		penalty = viper.GetFloat64("synthesis.penalty_factor")
	}

	cfg := types.SynthesisConfig{
		ConflictThreshold: threshold,
		PenaltyFactor:     penalty,
		RejectSeverity:    viper.GetFloat64("synthesis.reject_severity"),
		ProceedCutoff:     viper.GetFloat64("synthesis.proceed_cutoff"),
		CautionCutoff:     viper.GetFloat64("synthesis.caution_cutoff"),
	}
	if weights := viper.GetStringMap("synthesis.source_weights"); len(weights) > 0 {
		cfg.SourceWeights = make(map[string]float64, len(weights))
		for k := range weights {
			cfg.SourceWeights[k] = viper.GetFloat64("synthesis.source_weights." + k)
		}
	}
	return cfg
}
