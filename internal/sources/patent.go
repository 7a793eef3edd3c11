// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

const patentDataFile = "patent_data.json"

// now is overridden in tests to pin the expiry comparison year.
var now = time.Now

// patentEntry is one record in data/patent_data.json.
type patentEntry struct {
	MoleculeName string  `json:"molecule_name"`
	PatentHolder string  `json:"patent_holder"`
	ExpiryYear   int     `json:"expiry_year"`
	Jurisdiction string  `json:"jurisdiction"`
	Confidence   float64 `json:"confidence"`
}

// PatentSource reports patent status and freedom-to-operate posture from
// the local patent dataset. Multiple entries for one molecule (different
// jurisdictions or holders) each produce findings, so jurisdictional
// disagreements surface as conflicts downstream (R2.1-R2.3).
type PatentSource struct{}

func (s *PatentSource) ID() types.SourceID { return types.SourcePatent }

func (s *PatentSource) Gather(ctx context.Context, req types.Request, cfg types.SourcesConfig) ([]types.RawFinding, error) {
	path := filepath.Join(cfg.DataDir, patentDataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading patent data %s: %w", path, err)
	}

	var entries []patentEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing patent data: %w", err)
	}

	currentYear := now().Year()
	var findings []types.RawFinding

	for _, e := range entries {
		if !foldEqual(e.MoleculeName, req.Molecule) {
			continue
		}

		confidence := e.Confidence
		if confidence == 0 {
			confidence = 0.85
		}

		status := "Active"
		fto := "Risk"
		if e.ExpiryYear < currentYear {
			status = "Expired"
			fto = "Clear"
		}

		findings = append(findings,
			types.RawFinding{
				Source:     string(types.SourcePatent),
				Dimension:  "patent_status",
				Value:      status,
				Confidence: confidence,
			},
			types.RawFinding{
				Source:     string(types.SourcePatent),
				Dimension:  "patent_expiry_year",
				Value:      float64(e.ExpiryYear),
				Confidence: confidence,
			},
			types.RawFinding{
				Source:     string(types.SourcePatent),
				Dimension:  "fto_status",
				Value:      fto,
				Confidence: confidence,
			},
		)
	}

	return findings, nil
}
