package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/gojiplus/statqa/domain/analysis"
	"github.com/gojiplus/statqa/domain/metadata"
)

func mustVariable(t *testing.T, name string, varType metadata.VariableType) *metadata.Variable {
	t.Helper()
	v, err := metadata.NewVariable(name, "", varType)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestUnivariateNumericTrace(t *testing.T) {
	v := mustVariable(t, "score", metadata.NumericContinuous)
	a := NewUnivariateAnalyzer(DefaultOptions())

	r, err := a.Analyze([]string{"1", "2", "3", "4", "5"}, v)
	if err != nil {
		t.Fatal(err)
	}
	if r == nil || !r.Analyzable || r.Numeric == nil {
		t.Fatalf("expected analyzable numeric result, got %+v", r)
	}

	if r.Numeric.Mean != 3 || r.Numeric.Median != 3 {
		t.Errorf("mean=%v median=%v, want 3 and 3", r.Numeric.Mean, r.Numeric.Median)
	}

	lines := r.Trace.Render()
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "mean = stats.Mean(valid)") {
		t.Errorf("trace missing mean operation:\n%s", joined)
	}
	if !strings.Contains(joined, "Result: 3.0") {
		t.Errorf("integral results must render with a decimal point:\n%s", joined)
	}

	// Derivation order is fixed: mean before median before std before skew
	// before the normality test.
	order := []string{
		"mean = stats.Mean(valid)",
		"median = stats.Median(valid)",
		"std = stats.StandardDeviationSample(valid)",
		"skew = sampleSkewness(valid)",
		"W, p = shapiroWilk(valid)",
	}
	last := -1
	for _, op := range order {
		idx := -1
		for i, line := range lines {
			if line == op {
				idx = i
				break
			}
		}
		if idx < 0 {
			t.Fatalf("trace missing operation %q:\n%s", op, joined)
		}
		if idx < last {
			t.Errorf("operation %q out of order:\n%s", op, joined)
		}
		last = idx
	}
}

func TestUnivariateNumericMissingAccounting(t *testing.T) {
	v := mustVariable(t, "income", metadata.NumericContinuous)
	v.MissingValues = []string{"-1", "999"}
	a := NewUnivariateAnalyzer(DefaultOptions())

	values := []string{"100", "-1", "200", "", "999", "300", "abc", "400"}
	r, err := a.Analyze(values, v)
	if err != nil {
		t.Fatal(err)
	}
	if r.Numeric.ValidN != 4 {
		t.Errorf("ValidN = %d, want 4", r.Numeric.ValidN)
	}
	if r.Numeric.DroppedN != 4 {
		t.Errorf("DroppedN = %d, want 4 (declared codes, blank, and non-coercible)", r.Numeric.DroppedN)
	}
	if r.Numeric.ValidN+r.Numeric.DroppedN != len(values) {
		t.Errorf("valid+dropped = %d, want total %d", r.Numeric.ValidN+r.Numeric.DroppedN, len(values))
	}
}

func TestUnivariateAllMissingYieldsNoResult(t *testing.T) {
	v := mustVariable(t, "income", metadata.NumericContinuous)
	v.MissingValues = []string{"-1"}
	a := NewUnivariateAnalyzer(DefaultOptions())

	r, err := a.Analyze([]string{"", "-1", "  ", "-1"}, v)
	if err != nil {
		t.Fatalf("all-missing series is a skip, not an error: %v", err)
	}
	if r != nil {
		t.Fatalf("expected nil result for zero valid observations, got %+v", r)
	}
}

func TestUnivariateSingleAndConstantSeries(t *testing.T) {
	v := mustVariable(t, "score", metadata.NumericContinuous)
	a := NewUnivariateAnalyzer(DefaultOptions())

	r, err := a.Analyze([]string{"7"}, v)
	if err != nil {
		t.Fatal(err)
	}
	if r.Numeric.StdDev != 0 || r.Numeric.Skewness != 0 {
		t.Errorf("single observation: std=%v skew=%v, want 0 and 0", r.Numeric.StdDev, r.Numeric.Skewness)
	}

	r, err = a.Analyze([]string{"5", "5", "5", "5", "5"}, v)
	if err != nil {
		t.Fatal(err)
	}
	if r.Numeric.StdDev != 0 || r.Numeric.Skewness != 0 {
		t.Errorf("constant series: std=%v skew=%v, want 0 and 0", r.Numeric.StdDev, r.Numeric.Skewness)
	}
	if r.Numeric.Normality.Conclusive {
		t.Error("zero-variance series should report an inconclusive normality check")
	}
}

func TestUnivariateUnknownType(t *testing.T) {
	v := mustVariable(t, "blob", metadata.TypeUnknown)
	a := NewUnivariateAnalyzer(DefaultOptions())

	r, err := a.Analyze([]string{"1", "2"}, v)
	if err != nil {
		t.Fatal(err)
	}
	if r == nil || r.Analyzable {
		t.Fatalf("unknown type should yield a flagged, unanalyzable result, got %+v", r)
	}
	if r.SkipReason != "unknown_type" {
		t.Errorf("SkipReason = %q", r.SkipReason)
	}
	if r.Trace.Len() != 1 {
		t.Errorf("expected only the dispatch note in the trace, got %v", r.Trace.Render())
	}
}

func TestUnivariateNilVariable(t *testing.T) {
	a := NewUnivariateAnalyzer(DefaultOptions())
	if _, err := a.Analyze([]string{"1"}, nil); err == nil {
		t.Error("nil variable should be an error")
	}
}

func TestUnivariateCategoricalProfile(t *testing.T) {
	v := mustVariable(t, "gender", metadata.CategoricalNominal)
	v.ValidValues = []metadata.ValueLabel{{Code: "1", Label: "Male"}, {Code: "2", Label: "Female"}}
	v.MissingValues = []string{"0"}
	a := NewUnivariateAnalyzer(DefaultOptions())

	r, err := a.Analyze([]string{"1", "2", "2", "0", "2", "1", ""}, v)
	if err != nil {
		t.Fatal(err)
	}
	p := r.Categorical
	if p.ValidN != 5 || p.DroppedN != 2 {
		t.Fatalf("valid=%d dropped=%d, want 5 and 2", p.ValidN, p.DroppedN)
	}
	if p.Mode.Code != "2" || p.Mode.Label != "Female" || p.Mode.Count != 3 {
		t.Errorf("mode = %+v, want code 2 (Female) count 3", p.Mode)
	}
	if math.Abs(p.Mode.Percent-60) > 1e-9 {
		t.Errorf("mode percent = %v, want 60", p.Mode.Percent)
	}

	// H = -(0.4 ln 0.4 + 0.6 ln 0.6)
	wantEntropy := -(0.4*math.Log(0.4) + 0.6*math.Log(0.6))
	if math.Abs(p.Entropy-wantEntropy) > 1e-9 {
		t.Errorf("entropy = %v, want %v", p.Entropy, wantEntropy)
	}
}

func TestUnivariateCategoricalModeTieBreak(t *testing.T) {
	v := mustVariable(t, "region", metadata.CategoricalNominal)
	v.ValidValues = []metadata.ValueLabel{
		{Code: "n", Label: "North"},
		{Code: "s", Label: "South"},
	}
	a := NewUnivariateAnalyzer(DefaultOptions())

	rows := []string{"s", "n", "s", "n"}
	reversed := []string{"n", "s", "n", "s"}

	r1, err := a.Analyze(rows, v)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := a.Analyze(reversed, v)
	if err != nil {
		t.Fatal(err)
	}

	// Tied counts resolve to the first-declared code regardless of row order.
	if r1.Categorical.Mode.Code != "n" || r2.Categorical.Mode.Code != "n" {
		t.Errorf("tie-break not row-order independent: %q vs %q",
			r1.Categorical.Mode.Code, r2.Categorical.Mode.Code)
	}
}

func TestUnivariateCategoricalUndeclaredCodes(t *testing.T) {
	v := mustVariable(t, "grade", metadata.CategoricalOrdinal)
	v.ValidValues = []metadata.ValueLabel{{Code: "1", Label: "Low"}}
	a := NewUnivariateAnalyzer(DefaultOptions())

	r, err := a.Analyze([]string{"10", "2", "1", "2", "10"}, v)
	if err != nil {
		t.Fatal(err)
	}
	codes := make([]string, 0, len(r.Categorical.Counts))
	for _, c := range r.Categorical.Counts {
		codes = append(codes, c.Code)
	}
	// Declared code first, then undeclared codes numerically: 2 before 10.
	want := []string{"1", "2", "10"}
	if len(codes) != len(want) {
		t.Fatalf("level codes = %v, want %v", codes, want)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("level order = %v, want %v", codes, want)
			break
		}
	}
}

func TestUnivariateAgeExample(t *testing.T) {
	v := mustVariable(t, "age", metadata.NumericContinuous)
	v.Units = "years"
	a := NewUnivariateAnalyzer(DefaultOptions())

	r, err := a.Analyze([]string{"25", "34", "45", "23", "56"}, v)
	if err != nil {
		t.Fatal(err)
	}
	if r.Numeric.ValidN != 5 || r.Numeric.DroppedN != 0 {
		t.Fatalf("valid=%d dropped=%d", r.Numeric.ValidN, r.Numeric.DroppedN)
	}
	if math.Abs(r.Numeric.Mean-36.6) > 1e-9 {
		t.Errorf("mean = %v, want 36.6", r.Numeric.Mean)
	}
	if r.Numeric.Median != 34 {
		t.Errorf("median = %v, want 34", r.Numeric.Median)
	}
	if r.Numeric.Min != 23 || r.Numeric.Max != 56 {
		t.Errorf("min=%v max=%v", r.Numeric.Min, r.Numeric.Max)
	}
	if r.Numeric.Normality.Test != "shapiro_wilk" {
		t.Errorf("normality test = %q, want shapiro_wilk below the size cutoff", r.Numeric.Normality.Test)
	}
	if r.AnalysisType != analysis.Univariate {
		t.Errorf("analysis type = %q", r.AnalysisType)
	}
}
