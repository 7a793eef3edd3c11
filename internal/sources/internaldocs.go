// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

const internalDocsDir = "internal_docs"

// InternalSource scans the internal knowledge directory of Markdown
// memos for prior work on the molecule and reports strategic alignment.
// Matching is plain case-insensitive substring search; the memos are
// short and curated, so no index is kept.
type InternalSource struct{}

func (s *InternalSource) ID() types.SourceID { return types.SourceInternal }

func (s *InternalSource) Gather(ctx context.Context, req types.Request, cfg types.SourcesConfig) ([]types.RawFinding, error) {
	dir := filepath.Join(cfg.DataDir, internalDocsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return s.noPriorWork(), nil
		}
		return nil, fmt.Errorf("reading internal docs %s: %w", dir, err)
	}

	molecule := strings.ToLower(strings.TrimSpace(req.Molecule))
	matched := 0
	strategic := false

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		text := strings.ToLower(string(data))
		if !strings.Contains(text, molecule) {
			continue
		}
		matched++
		if strings.Contains(text, "strateg") || strings.Contains(text, "priority") {
			strategic = true
		}
	}

	if matched == 0 {
		return s.noPriorWork(), nil
	}

	alignment := "Medium"
	if strategic {
		alignment = "High"
	}

	return []types.RawFinding{
		{
			Source:     string(types.SourceInternal),
			Dimension:  "strategic_alignment",
			Value:      alignment,
			Confidence: 0.75,
		},
		{
			Source:     string(types.SourceInternal),
			Dimension:  "prior_studies",
			Value:      float64(matched),
			Confidence: 0.75,
		},
	}, nil
}

// noPriorWork is the low-confidence default when no memo mentions the
// molecule: absence of internal evidence, not an error.
func (s *InternalSource) noPriorWork() []types.RawFinding {
	return []types.RawFinding{
		{
			Source:     string(types.SourceInternal),
			Dimension:  "strategic_alignment",
			Value:      "Low",
			Confidence: 0.4,
		},
	}
}
