package interpret

import (
	"strings"
	"testing"

	"github.com/gojiplus/statqa/domain/analysis"
	"github.com/gojiplus/statqa/domain/metadata"
	statengine "github.com/gojiplus/statqa/internal/analysis"
)

func ageCodebook(t *testing.T) *metadata.Codebook {
	t.Helper()
	cb := metadata.NewCodebook("survey")
	v, err := metadata.NewVariable("age", "Respondent Age", metadata.NumericContinuous)
	if err != nil {
		t.Fatal(err)
	}
	v.Units = "years"
	if err := cb.Add(v); err != nil {
		t.Fatal(err)
	}
	return cb
}

func TestFormatNumericInsight(t *testing.T) {
	cb := ageCodebook(t)
	v, _ := cb.Variable("age")
	a := statengine.NewUnivariateAnalyzer(statengine.DefaultOptions())
	r, err := a.Analyze([]string{"25", "34", "45", "23", "56"}, v)
	if err != nil {
		t.Fatal(err)
	}

	got := NewInsightFormatter().Format(r, cb)
	for _, want := range []string{
		"Respondent Age",
		"36.6",
		"years",
		"N=5",
		"no missing values were dropped",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("insight missing %q:\n%s", want, got)
		}
	}
}

func TestFormatNumericReportsDropped(t *testing.T) {
	cb := ageCodebook(t)
	v, _ := cb.Variable("age")
	v.MissingValues = []string{"-1"}
	a := statengine.NewUnivariateAnalyzer(statengine.DefaultOptions())
	r, err := a.Analyze([]string{"25", "-1", "34", "", "45"}, v)
	if err != nil {
		t.Fatal(err)
	}

	got := NewInsightFormatter().Format(r, cb)
	if !strings.Contains(got, "N=3") {
		t.Errorf("insight should report valid N:\n%s", got)
	}
	if !strings.Contains(got, "2 missing values were dropped") {
		t.Errorf("insight should report the dropped count:\n%s", got)
	}
}

func TestFormatCategoricalInsight(t *testing.T) {
	cb := metadata.NewCodebook("survey")
	v, _ := metadata.NewVariable("gender", "Gender", metadata.CategoricalNominal)
	v.ValidValues = []metadata.ValueLabel{{Code: "1", Label: "Male"}, {Code: "2", Label: "Female"}}
	if err := cb.Add(v); err != nil {
		t.Fatal(err)
	}

	a := statengine.NewUnivariateAnalyzer(statengine.DefaultOptions())
	r, err := a.Analyze([]string{"1", "2", "2", "2", "1"}, v)
	if err != nil {
		t.Fatal(err)
	}

	got := NewInsightFormatter().Format(r, cb)
	for _, want := range []string{"Gender", "Female", "60", "N=5", "2 categories", "no missing values were dropped"} {
		if !strings.Contains(got, want) {
			t.Errorf("insight missing %q:\n%s", want, got)
		}
	}
}

func TestFormatCorrelationInsight(t *testing.T) {
	r := &analysis.Result{
		AnalysisType: analysis.Bivariate,
		Variables:    []string{"age", "income"},
		Analyzable:   true,
		Correlation:  &analysis.CorrelationResult{N: 120, DroppedN: 5, R: 0.72, PValue: 0.0002},
	}

	got := NewInsightFormatter().Format(r, nil)
	for _, want := range []string{"strong", "positive", "age", "income", "r=0.72", "<0.001", "N=120", "5 rows missing either variable were excluded"} {
		if !strings.Contains(got, want) {
			t.Errorf("insight missing %q:\n%s", want, got)
		}
	}
}

func TestFormatComparisonInsight(t *testing.T) {
	r := &analysis.Result{
		AnalysisType: analysis.Bivariate,
		Variables:    []string{"region", "income"},
		Analyzable:   true,
		Comparison: &analysis.GroupComparison{
			GroupVar: "region",
			ValueVar: "income",
			N:        50,
			Groups: []analysis.GroupMean{
				{Code: "n", Label: "North", N: 25, Mean: 52000},
				{Code: "s", Label: "South", N: 25, Mean: 48000},
			},
			Anova: &analysis.AnovaResult{F: 7.3, PValue: 0.009, EtaSquared: 0.13, DFBetween: 1, DFWithin: 48, Alpha: 0.05, Significant: true},
		},
	}

	got := NewInsightFormatter().Format(r, nil)
	for _, want := range []string{
		"Mean income by region",
		"North averages 52000 (n=25)",
		"South averages 48000 (n=25)",
		"N=50",
		"statistically significant",
		"F=7.3",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("insight missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "not statistically significant") {
		t.Errorf("significant comparison phrased as non-significant:\n%s", got)
	}
}

func TestFormatComparisonHonorsAnovaAlpha(t *testing.T) {
	r := &analysis.Result{
		AnalysisType: analysis.Bivariate,
		Variables:    []string{"region", "income"},
		Analyzable:   true,
		Comparison: &analysis.GroupComparison{
			GroupVar: "region",
			ValueVar: "income",
			N:        50,
			Groups: []analysis.GroupMean{
				{Code: "n", Label: "North", N: 25, Mean: 52000},
				{Code: "s", Label: "South", N: 25, Mean: 48000},
			},
			// p=0.009 clears the conventional 0.05 but not a stricter alpha;
			// the prose must follow the decision made at analysis time.
			Anova: &analysis.AnovaResult{F: 7.3, PValue: 0.009, EtaSquared: 0.13, DFBetween: 1, DFWithin: 48, Alpha: 0.001, Significant: false},
		},
	}

	got := NewInsightFormatter().Format(r, nil)
	if !strings.Contains(got, "not statistically significant") {
		t.Errorf("comparison should phrase against the carried alpha:\n%s", got)
	}
}

func TestFormatSkipsUnanalyzable(t *testing.T) {
	f := NewInsightFormatter()
	if got := f.Format(nil, nil); got != "" {
		t.Errorf("nil result should format empty, got %q", got)
	}
	r := &analysis.Result{Analyzable: false, SkipReason: "unknown_type"}
	if got := f.Format(r, nil); got != "" {
		t.Errorf("unanalyzable result should format empty, got %q", got)
	}
}

func TestStrengthWords(t *testing.T) {
	cases := []struct {
		r    float64
		want string
	}{
		{0.05, "negligible"},
		{-0.2, "weak"},
		{0.45, "moderate"},
		{-0.7, "strong"},
		{0.95, "very strong"},
	}
	for _, c := range cases {
		if got := strengthWord(c.r); got != c.want {
			t.Errorf("strengthWord(%v) = %q, want %q", c.r, got, c.want)
		}
	}
	if directionWord(-0.2) != "negative" || directionWord(0.2) != "positive" {
		t.Error("direction words wrong")
	}
}
