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

const marketDataFile = "market_data.json"

// marketEntry is one record in data/market_data.json.
type marketEntry struct {
	Disease          string  `json:"disease"`
	MarketSizeMUSD   float64 `json:"market_size_musd"`
	CAGRPercent      float64 `json:"cagr_percent"`
	Competition      string  `json:"competition"`
	OpportunityScore float64 `json:"opportunity_score"`
	Confidence       float64 `json:"confidence"`
}

// MarketSource reports commercial opportunity for the target disease
// from the local market dataset. Keyed by disease alone: the market for
// an indication does not depend on which molecule targets it.
type MarketSource struct{}

func (s *MarketSource) ID() types.SourceID { return types.SourceMarket }

func (s *MarketSource) Gather(ctx context.Context, req types.Request, cfg types.SourcesConfig) ([]types.RawFinding, error) {
	path := filepath.Join(cfg.DataDir, marketDataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading market data %s: %w", path, err)
	}

	var entries []marketEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing market data: %w", err)
	}

	var findings []types.RawFinding
	for _, e := range entries {
		if !foldEqual(e.Disease, req.Disease) {
			continue
		}

		confidence := e.Confidence
		if confidence == 0 {
			confidence = 0.7
		}

		findings = append(findings,
			types.RawFinding{
				Source:     string(types.SourceMarket),
				Dimension:  "market_size_musd",
				Value:      e.MarketSizeMUSD,
				Confidence: confidence,
			},
			types.RawFinding{
				Source:     string(types.SourceMarket),
				Dimension:  "opportunity_score",
				Value:      e.OpportunityScore,
				Confidence: confidence,
			},
		)

		if e.Competition != "" {
			findings = append(findings, types.RawFinding{
				Source:     string(types.SourceMarket),
				Dimension:  "competition",
				Value:      e.Competition,
				Confidence: confidence,
			})
		}
	}

	return findings, nil
}
