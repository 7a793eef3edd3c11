// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/repurpose-engine/internal/sources"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect the evidence source collaborators",
	Long: `Sources lists the evidence collaborators and probes them against a
molecule/disease pairing without running synthesis.`,
}

// --- list subcommand ---

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the evidence sources and whether each is enabled",
	RunE:  runSourcesList,
}

func runSourcesList(cmd *cobra.Command, args []string) error {
	cfg := sourcesConfigFromFlags(cmd)
	enabled := make(map[types.SourceID]bool)
	for _, s := range sources.Defaults(cfg) {
		enabled[s.ID()] = true
	}

	fmt.Fprintf(os.Stdout, "%-10s  %s\n", "Source", "Status")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 20))
	for _, id := range types.KnownSources() {
		status := "enabled"
		if !enabled[id] {
			status = "disabled (no literature API configured)"
		}
		fmt.Fprintf(os.Stdout, "%-10s  %s\n", id, status)
	}
	return nil
}

// --- probe subcommand ---

var sourcesProbeCmd = &cobra.Command{
	Use:   "probe <molecule> <disease>",
	Short: "Gather raw findings from every source without synthesizing",
	Long: `Probe fans a request out to all enabled sources and prints the raw
findings each returns. Useful for checking datasets and API connectivity
before a full analysis.`,
	Args: cobra.ExactArgs(2),
	RunE: runSourcesProbe,
}

func runSourcesProbe(cmd *cobra.Command, args []string) error {
	req := types.Request{Molecule: args[0], Disease: args[1]}
	cfg := sourcesConfigFromFlags(cmd)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := sources.GatherAll(ctx, sources.Defaults(cfg), req, cfg, os.Stderr)

	if len(out.Findings) == 0 {
		fmt.Fprintln(os.Stdout, "No findings.")
	} else {
		fmt.Fprintf(os.Stdout, "%-10s  %-26s  %v\n", "Source", "Dimension", "Value")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 70))
		for _, f := range out.Findings {
			fmt.Fprintf(os.Stdout, "%-10s  %-26s  %v\n", f.Source, f.Dimension, f.Value)
		}
	}

	if len(out.SourceErrors) > 0 {
		return fmt.Errorf("%d source(s) failed", len(out.SourceErrors))
	}
	return nil
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	sourcesCmd.PersistentFlags().String("data-dir", "data", "base directory for local evidence datasets")
	sourcesCmd.PersistentFlags().String("literature-url", "", "base URL of the literature API (empty disables the web source)")
	sourcesCmd.PersistentFlags().String("literature-key", "", "literature API key (default: .secrets/literature-api-key)")
	sourcesCmd.PersistentFlags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	sourcesCmd.PersistentFlags().Int("max-retries", 0, "maximum retries for rate-limited HTTP calls (default 5)")

	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesProbeCmd)

	rootCmd.AddCommand(sourcesCmd)
}
