// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize validates and canonicalizes raw findings from source
// collaborators. Implements: prd002-normalization (R1-R3);
//
//	docs/ARCHITECTURE § Normalization.
package normalize

import (
	"crypto/sha256"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// InvalidFindingError reports a structurally malformed raw finding.
// The offending record is dropped; the rest of the batch proceeds (R1.5).
type InvalidFindingError struct {
	// Index is the record's position in the input batch.
	Index int

	// Source is the claimed source identifier, possibly invalid.
	Source string

	// Reason describes the validation failure.
	Reason string
}

func (e *InvalidFindingError) Error() string {
	return fmt.Sprintf("invalid finding %d (source %q): %s", e.Index, e.Source, e.Reason)
}

// Finding validates and canonicalizes a single raw finding (R1, R2).
// Out-of-range confidence is clamped to [0,1] and reported as a warning,
// not an error (R2.4). A missing dimension, unknown source, or
// nil/unparseable value yields an *InvalidFindingError.
func Finding(index int, raw types.RawFinding) (types.Finding, []string, error) {
	source := types.SourceID(strings.TrimSpace(raw.Source))
	if !source.Valid() {
		return types.Finding{}, nil, &InvalidFindingError{
			Index: index, Source: raw.Source,
			Reason: fmt.Sprintf("unknown source %q", raw.Source),
		}
	}

	dimension := strings.TrimSpace(raw.Dimension)
	if dimension == "" {
		return types.Finding{}, nil, &InvalidFindingError{
			Index: index, Source: raw.Source,
			Reason: "missing claim dimension",
		}
	}

	value, err := coerceValue(raw.Value, raw.Kind)
	if err != nil {
		return types.Finding{}, nil, &InvalidFindingError{
			Index: index, Source: raw.Source,
			Reason: fmt.Sprintf("dimension %q: %v", dimension, err),
		}
	}

	// NaN compares false against every bound, so it would slip through
	// the clamp below and poison every downstream [0,1] invariant.
	if math.IsNaN(raw.Confidence) {
		return types.Finding{}, nil, &InvalidFindingError{
			Index: index, Source: raw.Source,
			Reason: fmt.Sprintf("dimension %q: confidence is NaN", dimension),
		}
	}

	var warnings []string
	confidence := raw.Confidence
	if confidence < 0 || confidence > 1 {
		clamped := confidence
		if clamped < 0 {
			clamped = 0
		} else if clamped > 1 {
			clamped = 1
		}
		warnings = append(warnings, fmt.Sprintf(
			"%s/%s: confidence %g out of range, clamped to %g",
			source, dimension, confidence, clamped))
		confidence = clamped
	}

	f := types.Finding{
		Source:     source,
		Dimension:  dimension,
		Value:      value,
		Confidence: confidence,
		Timestamp:  raw.Timestamp,
	}
	f.ID = stableID(f)
	return f, warnings, nil
}

// Batch normalizes a full batch. Malformed records are returned as
// errors; valid findings and clamp warnings are returned alongside so
// the caller can drop offenders and continue (R1.5).
func Batch(raw []types.RawFinding) ([]types.Finding, []string, []error) {
	var (
		findings []types.Finding
		warnings []string
		errs     []error
	)
	for i, r := range raw {
		f, w, err := Finding(i, r)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		warnings = append(warnings, w...)
		findings = append(findings, f)
	}
	return findings, warnings, errs
}

// coerceValue maps a raw value to the closed Value union (R2.1-R2.3).
// Numbers become numeric values. Strings become categorical labels
// unless kind forces free text. A typed Value passes through after
// kind validation.
func coerceValue(v any, kind types.ValueKind) (types.Value, error) {
	switch val := v.(type) {
	case nil:
		return types.Value{}, fmt.Errorf("nil value")
	case types.Value:
		return validateTyped(val)
	case float64:
		return numericOrErr(val, kind)
	case float32:
		return numericOrErr(float64(val), kind)
	case int:
		return numericOrErr(float64(val), kind)
	case int64:
		return numericOrErr(float64(val), kind)
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return types.Value{}, fmt.Errorf("empty string value")
		}
		if kind == types.ValueText {
			return types.TextValue(s), nil
		}
		if kind == types.ValueNumeric {
			n, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return types.Value{}, fmt.Errorf("unparseable numeric value %q", s)
			}
			return numericOrErr(n, kind)
		}
		return types.CategoricalValue(s), nil
	default:
		return types.Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}

// numericOrErr wraps a number, rejecting a forced non-numeric kind and
// non-finite values that would break severity and aggregation math.
func numericOrErr(n float64, kind types.ValueKind) (types.Value, error) {
	if kind != "" && kind != types.ValueNumeric {
		return types.Value{}, fmt.Errorf("numeric value declared as %q", kind)
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return types.Value{}, fmt.Errorf("non-finite numeric value %g", n)
	}
	return types.NumericValue(n), nil
}

// validateTyped checks that a pre-built Value carries a known kind.
func validateTyped(v types.Value) (types.Value, error) {
	switch v.Kind {
	case types.ValueNumeric:
		if math.IsNaN(v.Number) || math.IsInf(v.Number, 0) {
			return types.Value{}, fmt.Errorf("non-finite numeric value %g", v.Number)
		}
		return v, nil
	case types.ValueCategorical:
		if strings.TrimSpace(v.Label) == "" {
			return types.Value{}, fmt.Errorf("categorical value with empty label")
		}
		return v, nil
	case types.ValueText:
		if strings.TrimSpace(v.Text) == "" {
			return types.Value{}, fmt.Errorf("text value with empty body")
		}
		return v, nil
	default:
		return types.Value{}, fmt.Errorf("unknown value kind %q", v.Kind)
	}
}

// stableID generates a deterministic ID for a normalized finding: the
// first 12 hex characters of SHA-256 over source, dimension, value, and
// confidence (R3.2).
func stableID(f types.Finding) string {
	h := sha256.New()
	h.Write([]byte(f.Source))
	h.Write([]byte{0})
	h.Write([]byte(f.Dimension))
	h.Write([]byte{0})
	h.Write([]byte(f.Value.Kind))
	h.Write([]byte{0})
	fmt.Fprintf(h, "%g|%s|%s|%g", f.Value.Number, f.Value.Label, f.Value.Text, f.Confidence)
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}
