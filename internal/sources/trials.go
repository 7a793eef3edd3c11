// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

const trialsDataFile = "clinical_trials.json"

// trialsEntry is one record in data/clinical_trials.json.
type trialsEntry struct {
	MoleculeName   string         `json:"molecule_name"`
	Disease        string         `json:"disease"`
	ActiveTrials   int            `json:"active_trials"`
	Phases         map[string]int `json:"phases"`
	KeySponsors    []string       `json:"key_sponsors"`
	LatestFindings string         `json:"latest_findings"`
	Confidence     float64        `json:"confidence"`
}

// TrialsSource reports clinical-trial activity for the molecule/disease
// pairing from the local trials dataset.
type TrialsSource struct{}

func (s *TrialsSource) ID() types.SourceID { return types.SourceTrials }

func (s *TrialsSource) Gather(ctx context.Context, req types.Request, cfg types.SourcesConfig) ([]types.RawFinding, error) {
	path := filepath.Join(cfg.DataDir, trialsDataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trials data %s: %w", path, err)
	}

	var entries []trialsEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing trials data: %w", err)
	}

	var findings []types.RawFinding
	for _, e := range entries {
		if !foldEqual(e.MoleculeName, req.Molecule) || !foldEqual(e.Disease, req.Disease) {
			continue
		}

		confidence := e.Confidence
		if confidence == 0 {
			confidence = 0.75
		}

		findings = append(findings,
			types.RawFinding{
				Source:     string(types.SourceTrials),
				Dimension:  "active_trials",
				Value:      float64(e.ActiveTrials),
				Confidence: confidence,
			},
			types.RawFinding{
				Source:     string(types.SourceTrials),
				Dimension:  "max_phase",
				Value:      float64(maxPhase(e.Phases)),
				Confidence: confidence,
			},
		)

		if e.LatestFindings != "" {
			findings = append(findings, types.RawFinding{
				Source:     string(types.SourceTrials),
				Dimension:  "trial_findings",
				Value:      e.LatestFindings,
				Kind:       types.ValueText,
				Confidence: confidence,
			})
		}
	}

	return findings, nil
}

// maxPhase returns the highest trial phase with at least one active
// trial. Phase keys follow the dataset convention phase_1..phase_3.
func maxPhase(phases map[string]int) int {
	best := 0
	for phase, count := range phases {
		if count <= 0 {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(phase, "phase_%d", &n); err != nil {
			continue
		}
		if n > best {
			best = n
		}
	}
	return best
}
