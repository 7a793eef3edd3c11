// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/repurpose-engine/internal/history"
	"github.com/pdiddy/repurpose-engine/internal/report"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage past analysis runs (list, show, export)",
	Long: `History manages the local SQLite record of past analysis runs. Use
subcommands to list recent runs, show one in full, or export the history.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent analysis runs, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	summaries, err := store.List(context.Background(), limit)
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-20s  %-24s  %-6s  %-9s  %s\n",
		"Run", "Molecule", "Disease", "Conf", "Conflicts", "Recommendation")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 84))
	for _, s := range summaries {
		fmt.Fprintf(os.Stdout, "%-4d  %-20s  %-24s  %-6.2f  %-9d  %s\n",
			s.ID, truncate(s.Molecule, 20), truncate(s.Disease, 24),
			s.AggregateConfidence, s.Conflicts, s.Recommendation)
	}
	fmt.Fprintf(os.Stdout, "\n%d run(s)\n", len(summaries))
	return nil
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one recorded run in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	runID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run ID %q", args[0])
	}

	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	res, err := store.Get(context.Background(), runID)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return report.FormatJSON(res, os.Stdout)
	}
	report.FormatSummary(res, os.Stdout)
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the analysis history to YAML or JSON",
	Long: `Export writes the full run history (or a molecule-filtered subset) to
export.yaml or export.json in the history directory.`,
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	molecule, _ := cmd.Flags().GetString("molecule")
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	historyDir, _ := cmd.Flags().GetString("history-dir")
	opts := history.ExportOptions{Molecule: molecule, Limit: limit}

	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background(), opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", filepath.Join(historyDir, "export.yaml"))
	case "json":
		if err := store.ExportJSON(context.Background(), opts); err != nil {
			return err
		}
		fmt.Printf("Exported to %s\n", filepath.Join(historyDir, "export.json"))
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	return nil
}

// --- shared helpers ---

func openHistory(cmd *cobra.Command) (*history.Store, error) {
	historyDir, _ := cmd.Flags().GetString("history-dir")
	maxResults, _ := cmd.Flags().GetInt("max-results")

	return history.NewStore(types.HistoryConfig{
		HistoryDir: historyDir,
		MaxResults: maxResults,
	})
}

// truncate shortens s to at most max display runes. It counts runes,
// not bytes, so a multi-byte name is never cut mid-rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	historyCmd.PersistentFlags().String("history-dir", "history", "directory for the analysis history database")
	historyCmd.PersistentFlags().Int("max-results", 20, "default maximum number of listed runs")

	// List flags.
	historyListCmd.Flags().Int("limit", 0, "maximum runs to list (0 = use default)")

	// Show flags.
	historyShowCmd.Flags().Bool("json", false, "output the run as JSON")

	// Export flags.
	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("molecule", "", "export only runs for one molecule")
	historyExportCmd.Flags().Int("limit", 0, "maximum runs to export (0 = all)")

	// Wire subcommands.
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)

	rootCmd.AddCommand(historyCmd)
}
