// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesis merges a batch of per-source findings into a single
// recommendation with an aggregate confidence score.
// Implements: prd004-synthesis (R1-R5);
//
//	docs/ARCHITECTURE § Synthesis.
package synthesis

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/pdiddy/repurpose-engine/internal/conflict"
	"github.com/pdiddy/repurpose-engine/internal/normalize"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// ErrEmptyBatch is returned when no valid findings remain after
// normalization. Synthesis cannot proceed on no evidence (R1.3).
var ErrEmptyBatch = errors.New("no valid findings in batch")

// Synthesize runs the full synthesis stage over a raw finding batch:
// normalize, detect conflicts, aggregate confidence, resolve the
// recommendation (R1.1). Malformed findings are dropped with a warning;
// the remainder proceeds (R1.2). The result is deterministic and
// independent of the input permutation (R1.4).
//
// Callers that gathered the batch may pass their own notices (failed
// sources) as gatherWarnings; they are folded into the result's sorted
// warnings so the result is complete at creation and never mutated.
//
// Synthesis is a pure computation over a completed batch: it performs
// no I/O and holds no state between requests, so independent requests
// may run in parallel without coordination.
func Synthesize(req types.Request, batch []types.RawFinding, cfg types.SynthesisConfig, gatherWarnings ...string) (*types.SynthesisResult, error) {
	cfg = cfg.Defaulted()

	findings, warnings, errs := normalize.Batch(batch)
	for _, err := range errs {
		warnings = append(warnings, fmt.Sprintf("dropped: %v", err))
	}
	warnings = append(warnings, gatherWarnings...)
	if len(findings) == 0 {
		return nil, fmt.Errorf("synthesizing %s/%s: %w", req.Molecule, req.Disease, ErrEmptyBatch)
	}

	conflicts := conflict.Detect(findings, cfg.ConflictThreshold)

	maxSeverity := 0.0
	if len(conflicts) > 0 {
		maxSeverity = conflicts[0].Severity
	}
	aggregate := Aggregate(findings, maxSeverity, cfg)

	// Canonical ordering makes the result identical for any permutation
	// of the same batch (R1.4).
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Dimension != findings[j].Dimension {
			return findings[i].Dimension < findings[j].Dimension
		}
		if findings[i].Source != findings[j].Source {
			return findings[i].Source < findings[j].Source
		}
		return findings[i].ID < findings[j].ID
	})
	sort.Strings(warnings)

	return &types.SynthesisResult{
		Molecule:            req.Molecule,
		Disease:             req.Disease,
		AggregateConfidence: aggregate,
		Recommendation:      Resolve(aggregate, maxSeverity, cfg),
		Conflicts:           conflicts,
		Findings:            findings,
		Warnings:            warnings,
		GeneratedAt:         time.Now().UTC(),
	}, nil
}

// Aggregate combines per-source confidences into one score in [0,1]
// (R2.1-R2.4). It takes the weighted mean of finding confidences, with
// weights from cfg.SourceWeights (uniform by default), then discounts
// by the most severe conflict:
//
//	aggregate = mean × (1 − maxSeverity × penaltyFactor)
//
// With the default penalty factor 0.5 a total contradiction halves the
// score: a severe conflict measurably reduces trust but never alone
// zeroes out otherwise-strong evidence. Holding confidences fixed, the
// aggregate never increases as maxSeverity grows (R2.4).
func Aggregate(findings []types.Finding, maxSeverity float64, cfg types.SynthesisConfig) float64 {
	cfg = cfg.Defaulted()

	var weighted, total float64
	for _, f := range findings {
		w := cfg.Weight(f.Source)
		weighted += w * f.Confidence
		total += w
	}
	if total == 0 {
		return 0
	}

	aggregate := (weighted / total) * (1 - maxSeverity*cfg.PenaltyFactor)
	return clamp01(aggregate)
}

// Resolve maps the aggregate confidence and conflict state to a
// recommendation. The branches are evaluated in fixed order, first
// match wins (R3.1-R3.4):
//
//  1. maxSeverity ≥ reject severity → REJECT (a severe contradiction is
//     disqualifying even with high average confidence)
//  2. aggregate ≥ proceed cutoff → PROCEED
//  3. aggregate ≥ caution cutoff → CAUTION
//  4. otherwise REJECT
//
// A stateless decision table; nothing persists between requests.
func Resolve(aggregate, maxSeverity float64, cfg types.SynthesisConfig) types.Recommendation {
	cfg = cfg.Defaulted()

	switch {
	case maxSeverity >= cfg.RejectSeverity:
		return types.Reject
	case aggregate >= cfg.ProceedCutoff:
		return types.Proceed
	case aggregate >= cfg.CautionCutoff:
		return types.Caution
	default:
		return types.Reject
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
