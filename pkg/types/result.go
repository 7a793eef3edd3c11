// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Request identifies one analysis: a candidate molecule and the target
// disease it may be repurposed for.
type Request struct {
	Molecule string `json:"molecule" yaml:"molecule"`
	Disease  string `json:"disease" yaml:"disease"`
}

// ConflictRecord is a detected disagreement between two findings on the
// same claim dimension. Read-only after detection. FindingA and FindingB
// reference Finding IDs, ordered so FindingA < FindingB.
// Per prd003-conflict-detection R1.2, R3.1.
type ConflictRecord struct {
	Dimension string  `json:"dimension" yaml:"dimension"`
	FindingA  string  `json:"finding_a" yaml:"finding_a"`
	FindingB  string  `json:"finding_b" yaml:"finding_b"`
	Severity  float64 `json:"severity" yaml:"severity"`
}

// Recommendation is the terminal categorical verdict of one analysis.
type Recommendation string

const (
	Proceed Recommendation = "PROCEED"
	Caution Recommendation = "CAUTION"
	Reject  Recommendation = "REJECT"
)

// SynthesisResult is the terminal artifact of one analysis request.
// It is produced once and never mutated; a new request produces a new
// result. Per prd004-synthesis R4.1-R4.4.
type SynthesisResult struct {
	// Molecule and Disease echo the analysis request.
	Molecule string `json:"molecule" yaml:"molecule"`
	Disease  string `json:"disease" yaml:"disease"`

	// AggregateConfidence is the synthesized trust score in [0,1]:
	// the weighted mean of finding confidences, discounted by the most
	// severe detected conflict.
	AggregateConfidence float64 `json:"aggregate_confidence" yaml:"aggregate_confidence"`

	// Recommendation is PROCEED, CAUTION, or REJECT.
	Recommendation Recommendation `json:"recommendation" yaml:"recommendation"`

	// Conflicts is ordered by descending severity, then dimension, then
	// finding IDs. All records reference findings sharing a dimension.
	Conflicts []ConflictRecord `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`

	// Findings are the contributing findings in canonical order
	// (dimension, source, ID).
	Findings []Finding `json:"findings" yaml:"findings"`

	// Warnings records non-fatal normalization notices: clamped
	// confidences and dropped malformed records. Sorted for determinism.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// GeneratedAt is when the synthesis ran.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}

// FindingByID returns the contributing finding with the given ID, or nil.
func (r *SynthesisResult) FindingByID(id string) *Finding {
	for i := range r.Findings {
		if r.Findings[i].ID == id {
			return &r.Findings[i]
		}
	}
	return nil
}

// MaxConflictSeverity returns the highest severity among detected
// conflicts, or 0 when there are none. Conflicts are ordered by
// descending severity, so this is the first record's severity.
func (r *SynthesisResult) MaxConflictSeverity() float64 {
	if len(r.Conflicts) == 0 {
		return 0
	}
	return r.Conflicts[0].Severity
}
