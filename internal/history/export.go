// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// ExportEntry holds one full run for export (R3.3).
type ExportEntry struct {
	ID                  int64                 `json:"id" yaml:"id"`
	Molecule            string                `json:"molecule" yaml:"molecule"`
	Disease             string                `json:"disease" yaml:"disease"`
	Recommendation      types.Recommendation  `json:"recommendation" yaml:"recommendation"`
	AggregateConfidence float64               `json:"aggregate_confidence" yaml:"aggregate_confidence"`
	Findings            []types.Finding       `json:"findings" yaml:"findings"`
	Conflicts           []types.ConflictRecord `json:"conflicts" yaml:"conflicts"`
	Warnings            []string              `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	GeneratedAt         time.Time             `json:"generated_at" yaml:"generated_at"`
}

// ExportOptions filters which runs are exported (R3.4).
type ExportOptions struct {
	// Molecule restricts the export to runs for one molecule
	// (case-insensitive). Empty exports all runs.
	Molecule string
	// Limit caps the number of exported runs, newest first. Zero means
	// no cap.
	Limit int
}

const exportLimit = 100000

// ExportYAML writes run history to historyDir/export.yaml (R3.1).
func (s *Store) ExportYAML(ctx context.Context, opts ExportOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.historyDir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes run history to historyDir/export.json (R3.2).
func (s *Store) ExportJSON(ctx context.Context, opts ExportOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	path := filepath.Join(s.historyDir, "export.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, opts ExportOptions) ([]ExportEntry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = exportLimit
	}

	summaries, err := s.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := []ExportEntry{}
	for _, sum := range summaries {
		if opts.Molecule != "" && !strings.EqualFold(sum.Molecule, opts.Molecule) {
			continue
		}
		res, err := s.Get(ctx, sum.ID)
		if err != nil {
			return nil, fmt.Errorf("loading run %d: %w", sum.ID, err)
		}
		entries = append(entries, ExportEntry{
			ID:                  sum.ID,
			Molecule:            res.Molecule,
			Disease:             res.Disease,
			Recommendation:      res.Recommendation,
			AggregateConfidence: res.AggregateConfidence,
			Findings:            res.Findings,
			Conflicts:           res.Conflicts,
			Warnings:            res.Warnings,
			GeneratedAt:         res.GeneratedAt,
		})
	}

	return entries, nil
}
