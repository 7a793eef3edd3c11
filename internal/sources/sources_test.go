package sources

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/repurpose-engine/pkg/types"
)

var testReq = types.Request{Molecule: "Metformin", Disease: "Alzheimer's Disease"}

func TestMain(m *testing.M) {
	// Pin the clock so expiry-year comparisons are stable.
	now = func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }
	os.Exit(m.Run())
}

func writeDataFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func dimensions(findings []types.RawFinding) map[string]types.RawFinding {
	byDim := make(map[string]types.RawFinding, len(findings))
	for _, f := range findings {
		byDim[f.Dimension] = f
	}
	return byDim
}

// --- patent ---

func TestPatentSource(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, patentDataFile, `[
		{"molecule_name": "Metformin", "patent_holder": "PharmaNova Ltd.", "expiry_year": 2024, "jurisdiction": "US", "confidence": 0.9},
		{"molecule_name": "Sildenafil", "patent_holder": "Other Corp", "expiry_year": 2031, "jurisdiction": "US", "confidence": 0.9}
	]`)

	src := &PatentSource{}
	findings, err := src.Gather(context.Background(), testReq, types.SourcesConfig{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 3 {
		t.Fatalf("got %d findings, want 3 (one matching entry)", len(findings))
	}

	byDim := dimensions(findings)
	if got := byDim["patent_status"].Value; got != "Expired" {
		t.Errorf("patent_status = %v, want Expired", got)
	}
	if got := byDim["fto_status"].Value; got != "Clear" {
		t.Errorf("fto_status = %v, want Clear", got)
	}
	if got := byDim["patent_expiry_year"].Value; got != 2024.0 {
		t.Errorf("patent_expiry_year = %v, want 2024", got)
	}
}

func TestPatentSource_ActivePatent(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, patentDataFile, `[
		{"molecule_name": "Metformin", "patent_holder": "PharmaNova Ltd.", "expiry_year": 2031}
	]`)

	src := &PatentSource{}
	findings, err := src.Gather(context.Background(), testReq, types.SourcesConfig{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}

	byDim := dimensions(findings)
	if got := byDim["patent_status"].Value; got != "Active" {
		t.Errorf("patent_status = %v, want Active", got)
	}
	if got := byDim["fto_status"].Value; got != "Risk" {
		t.Errorf("fto_status = %v, want Risk", got)
	}
	// No confidence in the entry: default applies.
	if got := byDim["patent_status"].Confidence; got != 0.85 {
		t.Errorf("default confidence = %g, want 0.85", got)
	}
}

func TestPatentSource_ConflictingJurisdictions(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, patentDataFile, `[
		{"molecule_name": "Metformin", "expiry_year": 2024, "jurisdiction": "US"},
		{"molecule_name": "Metformin", "expiry_year": 2029, "jurisdiction": "EU"}
	]`)

	src := &PatentSource{}
	findings, err := src.Gather(context.Background(), testReq, types.SourcesConfig{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}

	// Both entries emit, so downstream conflict detection can see the
	// Expired/Active disagreement.
	var statuses []string
	for _, f := range findings {
		if f.Dimension == "patent_status" {
			statuses = append(statuses, f.Value.(string))
		}
	}
	if len(statuses) != 2 || statuses[0] == statuses[1] {
		t.Errorf("statuses = %v, want one Expired and one Active", statuses)
	}
}

func TestPatentSource_MissingDataFile(t *testing.T) {
	src := &PatentSource{}
	_, err := src.Gather(context.Background(), testReq, types.SourcesConfig{DataDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected error for missing data file")
	}
}

// --- trials ---

func TestTrialsSource(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, trialsDataFile, `[
		{
			"molecule_name": "Metformin",
			"disease": "Alzheimer's Disease",
			"active_trials": 4,
			"phases": {"phase_1": 2, "phase_2": 1, "phase_3": 1},
			"latest_findings": "Improved cognition scores in phase 2 cohort.",
			"confidence": 0.8
		},
		{
			"molecule_name": "Metformin",
			"disease": "Type 2 Diabetes",
			"active_trials": 40,
			"phases": {"phase_3": 12},
			"confidence": 0.95
		}
	]`)

	src := &TrialsSource{}
	findings, err := src.Gather(context.Background(), testReq, types.SourcesConfig{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 3 {
		t.Fatalf("got %d findings, want 3 (disease filter)", len(findings))
	}

	byDim := dimensions(findings)
	if got := byDim["active_trials"].Value; got != 4.0 {
		t.Errorf("active_trials = %v, want 4", got)
	}
	if got := byDim["max_phase"].Value; got != 3.0 {
		t.Errorf("max_phase = %v, want 3", got)
	}
	if byDim["trial_findings"].Kind != types.ValueText {
		t.Errorf("trial_findings kind = %q, want text", byDim["trial_findings"].Kind)
	}
}

func TestMaxPhase(t *testing.T) {
	tests := []struct {
		phases map[string]int
		want   int
	}{
		{map[string]int{"phase_1": 2, "phase_2": 1, "phase_3": 1}, 3},
		{map[string]int{"phase_1": 2, "phase_3": 0}, 1},
		{map[string]int{}, 0},
		{nil, 0},
		{map[string]int{"unknown": 5}, 0},
	}
	for _, tt := range tests {
		if got := maxPhase(tt.phases); got != tt.want {
			t.Errorf("maxPhase(%v) = %d, want %d", tt.phases, got, tt.want)
		}
	}
}

// --- market ---

func TestMarketSource(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, marketDataFile, `[
		{
			"disease": "Alzheimer's Disease",
			"market_size_musd": 6100,
			"cagr_percent": 7.2,
			"competition": "Moderate",
			"opportunity_score": 7.5,
			"confidence": 0.7
		}
	]`)

	src := &MarketSource{}
	findings, err := src.Gather(context.Background(), testReq, types.SourcesConfig{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}

	byDim := dimensions(findings)
	if got := byDim["market_size_musd"].Value; got != 6100.0 {
		t.Errorf("market_size_musd = %v, want 6100", got)
	}
	if got := byDim["opportunity_score"].Value; got != 7.5 {
		t.Errorf("opportunity_score = %v, want 7.5", got)
	}
	if got := byDim["competition"].Value; got != "Moderate" {
		t.Errorf("competition = %v, want Moderate", got)
	}
}

// --- trade ---

func TestTradeSource(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, tradeDataFile, strings.Join([]string{
		"molecule,year,country,import_tons,export_tons,sourcing_risk,confidence",
		"Metformin,2024,India,820.5,120.0,Low,0.7",
		"Metformin,2025,India,910.0,135.5,Low,0.7",
		"Metformin,2025,China,440.0,80.0,Low,0.6",
		"Sildenafil,2025,India,55.0,10.0,High,0.8",
	}, "\n"))

	src := &TradeSource{}
	findings, err := src.Gather(context.Background(), testReq, types.SourcesConfig{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 2 {
		t.Fatalf("got %d findings, want 2", len(findings))
	}

	byDim := dimensions(findings)
	if got := byDim["sourcing_risk"].Value; got != "Low" {
		t.Errorf("sourcing_risk = %v, want Low", got)
	}
	// Latest year (2025) only: 910.0 + 440.0.
	if got := byDim["annual_import_tons"].Value; got != 1350.0 {
		t.Errorf("annual_import_tons = %v, want 1350", got)
	}
}

func TestTradeSource_NoMatchingRows(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, tradeDataFile, strings.Join([]string{
		"molecule,year,country,import_tons,export_tons,sourcing_risk,confidence",
		"Sildenafil,2025,India,55.0,10.0,High,0.8",
	}, "\n"))

	src := &TradeSource{}
	findings, err := src.Gather(context.Background(), testReq, types.SourcesConfig{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 0 {
		t.Errorf("got %d findings, want 0", len(findings))
	}
}

func TestTradeSource_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, tradeDataFile, "molecule,year\nMetformin,2025\n")

	src := &TradeSource{}
	_, err := src.Gather(context.Background(), testReq, types.SourcesConfig{DataDir: dir})
	if err == nil || !strings.Contains(err.Error(), "missing column") {
		t.Errorf("error = %v, want missing column", err)
	}
}

// --- internal docs ---

func TestInternalSource(t *testing.T) {
	dir := t.TempDir()
	docsDir := filepath.Join(dir, internalDocsDir)
	if err := os.MkdirAll(docsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeDataFile(t, docsDir, "memo-2024-metformin.md",
		"# Repurposing memo\n\nMetformin is a strategic priority for the CNS portfolio.\n")
	writeDataFile(t, docsDir, "memo-unrelated.md",
		"# Other program\n\nNothing relevant here.\n")

	src := &InternalSource{}
	findings, err := src.Gather(context.Background(), testReq, types.SourcesConfig{DataDir: dir})
	if err != nil {
		t.Fatal(err)
	}

	byDim := dimensions(findings)
	if got := byDim["strategic_alignment"].Value; got != "High" {
		t.Errorf("strategic_alignment = %v, want High", got)
	}
	if got := byDim["prior_studies"].Value; got != 1.0 {
		t.Errorf("prior_studies = %v, want 1", got)
	}
}

func TestInternalSource_NoPriorWork(t *testing.T) {
	src := &InternalSource{}
	findings, err := src.Gather(context.Background(), testReq, types.SourcesConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 1 {
		t.Fatalf("got %d findings, want 1", len(findings))
	}
	if findings[0].Value != "Low" || findings[0].Confidence != 0.4 {
		t.Errorf("no-prior-work finding = %+v, want Low/0.4", findings[0])
	}
}

// --- fan-out ---

type stubSource struct {
	id       types.SourceID
	findings []types.RawFinding
	err      error
}

func (s *stubSource) ID() types.SourceID { return s.id }

func (s *stubSource) Gather(_ context.Context, _ types.Request, _ types.SourcesConfig) ([]types.RawFinding, error) {
	return s.findings, s.err
}

func TestGatherAll_FailedSourceIsWarningNotFatal(t *testing.T) {
	srcs := []Source{
		&stubSource{id: types.SourcePatent, findings: []types.RawFinding{
			{Source: "patent", Dimension: "patent_status", Value: "Expired", Confidence: 0.9},
		}},
		&stubSource{id: types.SourceWeb, err: fmt.Errorf("connection refused")},
		&stubSource{id: types.SourceMarket, findings: []types.RawFinding{
			{Source: "market", Dimension: "opportunity_score", Value: 7.5, Confidence: 0.7},
		}},
	}

	var buf bytes.Buffer
	out := GatherAll(context.Background(), srcs, testReq, types.SourcesConfig{}, &buf)

	if len(out.Findings) != 2 {
		t.Errorf("got %d findings, want 2", len(out.Findings))
	}
	if len(out.SourceErrors) != 1 {
		t.Fatalf("got %d source errors, want 1", len(out.SourceErrors))
	}
	if !strings.Contains(out.SourceErrors[0], "web") {
		t.Errorf("source error %q does not name the source", out.SourceErrors[0])
	}
	if !strings.Contains(buf.String(), "warning: source web failed") {
		t.Errorf("progress output missing warning: %q", buf.String())
	}
}

func TestDefaults_WebRequiresEndpoint(t *testing.T) {
	withoutWeb := Defaults(types.SourcesConfig{})
	if len(withoutWeb) != 5 {
		t.Errorf("got %d sources without endpoint, want 5", len(withoutWeb))
	}

	withWeb := Defaults(types.SourcesConfig{LiteratureBaseURL: "https://lit.example.com"})
	if len(withWeb) != 6 {
		t.Errorf("got %d sources with endpoint, want 6", len(withWeb))
	}
}
