package conflict

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/pdiddy/repurpose-engine/internal/normalize"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// mustFinding builds a normalized finding for tests.
func mustFinding(t *testing.T, source, dimension string, value any, confidence float64) types.Finding {
	t.Helper()
	f, _, err := normalize.Finding(0, types.RawFinding{
		Source: source, Dimension: dimension, Value: value, Confidence: confidence,
	})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestSeverity_Numeric(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"identical", 100, 100, 0},
		{"quarter apart", 100, 75, 0.25},
		{"order of magnitude", 10, 100, 0.9},
		{"opposite signs capped at 1", -1, 1, 1},
		{"both zero", 0, 0, 0},
		{"one zero", 0, 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Severity(types.NumericValue(tt.a), types.NumericValue(tt.b))
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Severity(%g, %g) = %g, want %g", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSeverity_Categorical(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"Active", "active", 0},
		{"  Phase  III ", "phase iii", 0},
		{"Active", "Expired", 1},
		{"Low", "High", 1},
	}

	for _, tt := range tests {
		got := Severity(types.CategoricalValue(tt.a), types.CategoricalValue(tt.b))
		if got != tt.want {
			t.Errorf("Severity(%q, %q) = %g, want %g", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSeverity_TextNeverConflicts(t *testing.T) {
	text := types.TextValue("promising results in murine models")
	for _, other := range []types.Value{
		types.TextValue("no effect observed"),
		types.NumericValue(4),
		types.CategoricalValue("Active"),
	} {
		if got := Severity(text, other); got != 0 {
			t.Errorf("Severity(text, %v) = %g, want 0", other, got)
		}
	}
}

func TestSeverity_KindMismatch(t *testing.T) {
	if got := Severity(types.NumericValue(2026), types.CategoricalValue("Expired")); got != 1 {
		t.Errorf("numeric vs categorical severity = %g, want 1", got)
	}
}

func TestSeverity_Symmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		a := types.NumericValue(rng.Float64()*200 - 100)
		b := types.NumericValue(rng.Float64()*200 - 100)
		if Severity(a, b) != Severity(b, a) {
			t.Fatalf("severity asymmetric for %g, %g", a.Number, b.Number)
		}
	}
}

func TestDetect_FlagsDisagreementsAboveThreshold(t *testing.T) {
	findings := []types.Finding{
		mustFinding(t, "patent", "patent_status", "Active", 0.9),
		mustFinding(t, "web", "patent_status", "Expired", 0.85),
		mustFinding(t, "market", "market_size_musd", 1000.0, 0.7),
		mustFinding(t, "web", "market_size_musd", 1100.0, 0.6), // severity ~0.09, below threshold
	}

	records := Detect(findings, 0.25)
	if len(records) != 1 {
		t.Fatalf("got %d conflicts, want 1: %+v", len(records), records)
	}
	if records[0].Dimension != "patent_status" {
		t.Errorf("dimension = %q, want patent_status", records[0].Dimension)
	}
	if records[0].Severity != 1 {
		t.Errorf("severity = %g, want 1", records[0].Severity)
	}
}

func TestDetect_SingleFindingPerDimension(t *testing.T) {
	findings := []types.Finding{
		mustFinding(t, "patent", "patent_status", "Expired", 0.9),
		mustFinding(t, "trials", "active_trials", 4.0, 0.8),
	}
	if records := Detect(findings, 0.25); len(records) != 0 {
		t.Errorf("got %d conflicts, want 0", len(records))
	}
}

func TestDetect_ConflictsShareDimension(t *testing.T) {
	findings := []types.Finding{
		mustFinding(t, "patent", "patent_status", "Active", 0.9),
		mustFinding(t, "web", "patent_status", "Expired", 0.8),
		mustFinding(t, "trade", "sourcing_risk", "Low", 0.7),
		mustFinding(t, "internal", "sourcing_risk", "High", 0.6),
	}

	byID := make(map[string]types.Finding)
	for _, f := range findings {
		byID[f.ID] = f
	}

	for _, rec := range Detect(findings, 0.25) {
		a, okA := byID[rec.FindingA]
		b, okB := byID[rec.FindingB]
		if !okA || !okB {
			t.Fatalf("conflict references unknown finding: %+v", rec)
		}
		if a.Dimension != rec.Dimension || b.Dimension != rec.Dimension {
			t.Errorf("conflict %+v references findings from dimensions %q and %q",
				rec, a.Dimension, b.Dimension)
		}
	}
}

func TestDetect_OrderIndependentOfInputPermutation(t *testing.T) {
	findings := []types.Finding{
		mustFinding(t, "patent", "patent_status", "Active", 0.9),
		mustFinding(t, "web", "patent_status", "Expired", 0.8),
		mustFinding(t, "internal", "patent_status", "Unknown", 0.5),
		mustFinding(t, "market", "opportunity_score", 8.0, 0.7),
		mustFinding(t, "web", "opportunity_score", 3.0, 0.6),
	}

	want := Detect(findings, 0.25)

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 20; i++ {
		shuffled := make([]types.Finding, len(findings))
		copy(shuffled, findings)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := Detect(shuffled, 0.25)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("permutation %d changed output:\ngot  %+v\nwant %+v", i, got, want)
		}
	}
}

func TestDetect_OrderedBySeverityThenDimension(t *testing.T) {
	findings := []types.Finding{
		mustFinding(t, "market", "opportunity_score", 10.0, 0.7),
		mustFinding(t, "web", "opportunity_score", 6.0, 0.6), // severity 0.4
		mustFinding(t, "patent", "patent_status", "Active", 0.9),
		mustFinding(t, "web", "patent_status", "Expired", 0.8), // severity 1
		mustFinding(t, "trade", "sourcing_risk", "Low", 0.7),
		mustFinding(t, "internal", "sourcing_risk", "High", 0.6), // severity 1
	}

	records := Detect(findings, 0.25)
	if len(records) != 3 {
		t.Fatalf("got %d conflicts, want 3", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Severity > records[i-1].Severity {
			t.Errorf("records not in descending severity at %d: %+v", i, records)
		}
	}
	// Severity-1 ties break on dimension name.
	if records[0].Dimension != "patent_status" || records[1].Dimension != "sourcing_risk" {
		t.Errorf("tie-break order wrong: %q then %q", records[0].Dimension, records[1].Dimension)
	}
	if records[2].Dimension != "opportunity_score" {
		t.Errorf("lowest severity last, got %q", records[2].Dimension)
	}
}
