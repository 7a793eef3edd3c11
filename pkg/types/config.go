// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for sources that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "repurpose-engine/0.1"). Per prd001-sources R5.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SynthesisConfig holds the tunable constants of the synthesis stage.
// All thresholds are empirically chosen defaults, not derived values;
// zero means "use the default". Per prd004-synthesis R5.1-R5.5.
type SynthesisConfig struct {
	// ConflictThreshold is the minimum severity at which a numeric
	// disagreement is recorded as a conflict (default 0.25).
	ConflictThreshold float64 `json:"conflict_threshold" yaml:"conflict_threshold"`

	// PenaltyFactor scales how strongly the most severe conflict
	// discounts the aggregate confidence (default 0.5). A factor below 1
	// guarantees a single contradiction never alone zeroes out a score
	// built from otherwise-strong evidence.
	PenaltyFactor float64 `json:"penalty_factor" yaml:"penalty_factor"`

	// RejectSeverity is the conflict severity at or above which the
	// recommendation is REJECT regardless of aggregate confidence
	// (default 0.75).
	RejectSeverity float64 `json:"reject_severity" yaml:"reject_severity"`

	// ProceedCutoff is the minimum aggregate confidence for PROCEED
	// (default 0.75).
	ProceedCutoff float64 `json:"proceed_cutoff" yaml:"proceed_cutoff"`

	// CautionCutoff is the minimum aggregate confidence for CAUTION
	// (default 0.45). Below it the recommendation is REJECT.
	CautionCutoff float64 `json:"caution_cutoff" yaml:"caution_cutoff"`

	// SourceWeights maps source IDs to aggregation weights. Missing
	// sources weigh 1.0; negative weights are treated as 0.
	SourceWeights map[string]float64 `json:"source_weights,omitempty" yaml:"source_weights,omitempty"`
}

// Defaulted returns a copy of c with zero fields replaced by defaults.
func (c SynthesisConfig) Defaulted() SynthesisConfig {
	if c.ConflictThreshold <= 0 {
		c.ConflictThreshold = 0.25
	}
	if c.PenaltyFactor <= 0 {
		c.PenaltyFactor = 0.5
	}
	if c.RejectSeverity <= 0 {
		c.RejectSeverity = 0.75
	}
	if c.ProceedCutoff <= 0 {
		c.ProceedCutoff = 0.75
	}
	if c.CautionCutoff <= 0 {
		c.CautionCutoff = 0.45
	}
	return c
}

// Weight returns the aggregation weight for a source.
func (c SynthesisConfig) Weight(source SourceID) float64 {
	w, ok := c.SourceWeights[string(source)]
	if !ok {
		return 1.0
	}
	if w < 0 {
		return 0
	}
	return w
}

// SourcesConfig holds settings for the evidence-gathering stage.
// Per prd001-sources R5.1-R5.4.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline"`

	// DataDir is the base directory for local evidence datasets
	// (patent_data.json, clinical_trials.json, market_data.json,
	// exim_trade.csv, internal_docs/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// LiteratureBaseURL is the base URL of the literature API used by
	// the web source. Empty disables the web source.
	LiteratureBaseURL string `json:"literature_base_url,omitempty" yaml:"literature_base_url,omitempty"`

	// LiteratureAPIKey authenticates literature API requests. Loaded
	// from .secrets/literature-api-key when unset.
	LiteratureAPIKey string `json:"literature_api_key,omitempty" yaml:"literature_api_key,omitempty"`

	// MaxRetries bounds retry attempts for rate-limited HTTP calls
	// (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// HistoryConfig holds settings for the analysis history store.
// Per prd005-history R1.2, R2.3.
type HistoryConfig struct {
	// HistoryDir is the directory holding the SQLite database and exports.
	HistoryDir string `json:"history_dir" yaml:"history_dir"`

	// MaxResults is the default maximum number of listed runs (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ReportFormat selects the report output format. Per prd006-report R3.1.
type ReportFormat string

const (
	ReportMarkdown ReportFormat = "markdown"
	ReportJSON     ReportFormat = "json"
)

// ReportConfig holds settings for report rendering.
type ReportConfig struct {
	// OutputDir is the directory for rendered reports (e.g. "reports/").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Format selects the output format: markdown or json.
	Format ReportFormat `json:"format" yaml:"format"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Sources   SourcesConfig   `json:"sources" yaml:"sources"`
	Synthesis SynthesisConfig `json:"synthesis" yaml:"synthesis"`
	History   HistoryConfig   `json:"history" yaml:"history"`
	Report    ReportConfig    `json:"report" yaml:"report"`
}
