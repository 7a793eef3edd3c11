// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

const tradeDataFile = "exim_trade.csv"

// TradeSource reports sourcing and manufacturing risk from the local
// import/export dataset. The CSV carries one row per molecule, year,
// and country:
//
//	molecule,year,country,import_tons,export_tons,sourcing_risk,confidence
//
// Findings aggregate the most recent year on record for the molecule.
type TradeSource struct{}

func (s *TradeSource) ID() types.SourceID { return types.SourceTrade }

func (s *TradeSource) Gather(ctx context.Context, req types.Request, cfg types.SourcesConfig) ([]types.RawFinding, error) {
	path := filepath.Join(cfg.DataDir, tradeDataFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trade data %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing trade data: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	col := columnIndex(rows[0])
	for _, name := range []string{"molecule", "year", "import_tons", "sourcing_risk"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("trade data missing column %q", name)
		}
	}

	var (
		latestYear  int
		importTons  float64
		risk        string
		confSum     float64
		matchedRows int
	)

	for _, row := range rows[1:] {
		if !foldEqual(row[col["molecule"]], req.Molecule) {
			continue
		}
		year, err := strconv.Atoi(row[col["year"]])
		if err != nil {
			continue
		}

		if year > latestYear {
			latestYear = year
			importTons = 0
			risk = row[col["sourcing_risk"]]
		}
		if year == latestYear {
			if tons, err := strconv.ParseFloat(row[col["import_tons"]], 64); err == nil {
				importTons += tons
			}
		}

		if c, ok := col["confidence"]; ok {
			if conf, err := strconv.ParseFloat(row[c], 64); err == nil {
				confSum += conf
				matchedRows++
			}
		}
	}

	if latestYear == 0 {
		return nil, nil
	}

	confidence := 0.65
	if matchedRows > 0 {
		confidence = confSum / float64(matchedRows)
	}

	return []types.RawFinding{
		{
			Source:     string(types.SourceTrade),
			Dimension:  "sourcing_risk",
			Value:      risk,
			Confidence: confidence,
		},
		{
			Source:     string(types.SourceTrade),
			Dimension:  "annual_import_tons",
			Value:      importTons,
			Confidence: confidence,
		},
	}, nil
}

// columnIndex maps header names to column positions.
func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	return col
}
