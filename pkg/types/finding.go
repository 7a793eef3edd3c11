// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the repurposing
// analysis pipeline: findings, conflicts, synthesis results, and the
// configuration structs consumed by each stage.
package types

import "time"

// SourceID identifies an evidence source. The set is closed: sources
// are known at design time and new ones require a code change, not a
// plugin. Per prd001-sources R1.1.
type SourceID string

const (
	SourcePatent   SourceID = "patent"
	SourceTrials   SourceID = "trials"
	SourceMarket   SourceID = "market"
	SourceWeb      SourceID = "web"
	SourceTrade    SourceID = "trade"
	SourceInternal SourceID = "internal"
)

// KnownSources returns the closed set of source identifiers in a fixed order.
func KnownSources() []SourceID {
	return []SourceID{
		SourcePatent,
		SourceTrials,
		SourceMarket,
		SourceWeb,
		SourceTrade,
		SourceInternal,
	}
}

// Valid reports whether s is a member of the known source set.
func (s SourceID) Valid() bool {
	switch s {
	case SourcePatent, SourceTrials, SourceMarket, SourceWeb, SourceTrade, SourceInternal:
		return true
	}
	return false
}

// ValueKind discriminates the Value union. Per prd002-normalization R2.1.
type ValueKind string

const (
	ValueNumeric     ValueKind = "numeric"
	ValueCategorical ValueKind = "categorical"
	ValueText        ValueKind = "text"
)

// Value is a closed tagged union over the three claim value shapes.
// Exactly one of Number, Label, or Text is meaningful, selected by Kind.
type Value struct {
	Kind   ValueKind `json:"kind" yaml:"kind"`
	Number float64   `json:"number,omitempty" yaml:"number,omitempty"`
	Label  string    `json:"label,omitempty" yaml:"label,omitempty"`
	Text   string    `json:"text,omitempty" yaml:"text,omitempty"`
}

// NumericValue builds a numeric Value.
func NumericValue(n float64) Value {
	return Value{Kind: ValueNumeric, Number: n}
}

// CategoricalValue builds a categorical Value.
func CategoricalValue(label string) Value {
	return Value{Kind: ValueCategorical, Label: label}
}

// TextValue builds a free-text Value. Free text is carried for the
// report but excluded from automatic conflict detection.
func TextValue(text string) Value {
	return Value{Kind: ValueText, Text: text}
}

// RawFinding is a finding as emitted by a source collaborator, before
// validation. Value may be a float64 (or any numeric type), a string,
// or a Value. A string is treated as categorical unless Kind is set to
// ValueText. Per prd002-normalization R1.1-R1.3.
type RawFinding struct {
	// Source is the claimed source identifier. Must be in the known set.
	Source string `json:"source" yaml:"source"`

	// Dimension names the claim dimension (e.g. "patent_status",
	// "market_size_musd", "active_trials"). Required.
	Dimension string `json:"dimension" yaml:"dimension"`

	// Value is the claimed value: numeric, categorical label, or free text.
	Value any `json:"value" yaml:"value"`

	// Kind optionally forces the value interpretation. Leave empty to
	// infer numeric from numbers and categorical from strings.
	Kind ValueKind `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Confidence is the source's self-reported confidence. Values outside
	// [0,1] are clamped during normalization with a warning.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Timestamp optionally records when the source produced the finding.
	Timestamp time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// Finding is a validated, canonicalized claim from one source about the
// molecule/disease pairing under analysis. Immutable once created.
// Per prd002-normalization R3.1-R3.4.
type Finding struct {
	// ID is a stable content-derived identifier, consistent across runs
	// for identical source, dimension, value, and confidence.
	ID string `json:"id" yaml:"id"`

	// Source is the validated source identifier.
	Source SourceID `json:"source" yaml:"source"`

	// Dimension names the claim dimension.
	Dimension string `json:"dimension" yaml:"dimension"`

	// Value is the canonicalized claim value.
	Value Value `json:"value" yaml:"value"`

	// Confidence lies in [0,1] after normalization.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Timestamp is zero when the source did not report one.
	Timestamp time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}
