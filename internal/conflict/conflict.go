// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package conflict detects cross-source disagreements within a batch of
// normalized findings. Implements: prd003-conflict-detection (R1-R3);
//
//	docs/ARCHITECTURE § Conflict Detection.
package conflict

import (
	"math"
	"sort"
	"strings"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// epsilon guards the numeric severity denominator against division by zero.
const epsilon = 1e-9

// Detect pairwise-compares findings that share a claim dimension and
// returns the disagreements whose severity exceeds threshold (R1.1-R1.4).
// Free-text values never conflict: automatic contradiction detection on
// prose is out of scope, so their severity is always 0 (R2.3).
//
// The output is ordered by descending severity, then dimension, then
// finding IDs, independent of the input permutation (R3.2). Pure function.
func Detect(findings []types.Finding, threshold float64) []types.ConflictRecord {
	groups := make(map[string][]types.Finding)
	for _, f := range findings {
		groups[f.Dimension] = append(groups[f.Dimension], f)
	}

	var records []types.ConflictRecord
	for dimension, group := range groups {
		if len(group) < 2 {
			continue
		}
		// Canonical pair order inside the group keeps FindingA/FindingB
		// assignment stable under input permutation.
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })

		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				severity := Severity(group[i].Value, group[j].Value)
				if severity <= threshold {
					continue
				}
				records = append(records, types.ConflictRecord{
					Dimension: dimension,
					FindingA:  group[i].ID,
					FindingB:  group[j].ID,
					Severity:  severity,
				})
			}
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Severity != records[j].Severity {
			return records[i].Severity > records[j].Severity
		}
		if records[i].Dimension != records[j].Dimension {
			return records[i].Dimension < records[j].Dimension
		}
		if records[i].FindingA != records[j].FindingA {
			return records[i].FindingA < records[j].FindingA
		}
		return records[i].FindingB < records[j].FindingB
	})

	return records
}

// Severity measures the disagreement between two claim values in [0,1].
// It is symmetric: Severity(a, b) == Severity(b, a) (R2.4).
//
//   - numeric vs numeric: min(1, |a−b| / max(|a|,|b|,ε)) (R2.1)
//   - categorical vs categorical: 1 if the labels differ after case and
//     whitespace folding, else 0 (R2.2)
//   - any free text: 0 (R2.3)
//   - kind mismatch (numeric vs categorical): 1, since the sources do
//     not even agree on the shape of the claim
func Severity(a, b types.Value) float64 {
	if a.Kind == types.ValueText || b.Kind == types.ValueText {
		return 0
	}
	if a.Kind != b.Kind {
		return 1
	}

	switch a.Kind {
	case types.ValueNumeric:
		diff := math.Abs(a.Number - b.Number)
		denom := math.Max(math.Max(math.Abs(a.Number), math.Abs(b.Number)), epsilon)
		return math.Min(1, diff/denom)
	case types.ValueCategorical:
		if foldLabel(a.Label) == foldLabel(b.Label) {
			return 0
		}
		return 1
	default:
		return 0
	}
}

// foldLabel lowercases a categorical label and collapses internal
// whitespace so "Phase III" and " phase  iii " compare equal.
func foldLabel(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}
