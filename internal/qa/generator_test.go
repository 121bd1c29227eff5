package qa

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gojiplus/statqa/domain/analysis"
	"github.com/gojiplus/statqa/domain/metadata"
	"github.com/gojiplus/statqa/ports"
)

type stubParaphraser struct {
	response []ports.ParaphrasedQuestion
	err      error
	calls    int
	lastQs   []string
	lastAns  string
}

func (s *stubParaphraser) Paraphrase(ctx context.Context, questions []string, answer string, perQuestion int) ([]ports.ParaphrasedQuestion, error) {
	s.calls++
	s.lastQs = questions
	s.lastAns = answer
	return s.response, s.err
}

func numericResult(t *testing.T) *analysis.Result {
	t.Helper()
	r := &analysis.Result{
		AnalysisType: analysis.Univariate,
		Variables:    []string{"age"},
		Analyzable:   true,
		Numeric:      &analysis.NumericProfile{ValidN: 5, Mean: 36.6},
	}
	r.Trace.RecordValue("mean = stats.Mean(valid)", 36.6)
	return r
}

func testCodebook(t *testing.T) *metadata.Codebook {
	t.Helper()
	cb := metadata.NewCodebook("survey")
	v, err := metadata.NewVariable("age", "Respondent Age", metadata.NumericContinuous)
	if err != nil {
		t.Fatal(err)
	}
	if err := cb.Add(v); err != nil {
		t.Fatal(err)
	}
	return cb
}

func TestGenerateTemplatePairs(t *testing.T) {
	g := NewGenerator()
	answer := "Respondent Age has a mean of 36.6 across N=5 valid observations; no missing values were dropped."

	pairs := g.Generate(context.Background(), numericResult(t), answer, testCodebook(t), "survey")
	if len(pairs) != 3 {
		t.Fatalf("expected 3 template pairs, got %d", len(pairs))
	}
	for _, p := range pairs {
		if p.Answer != answer {
			t.Errorf("answer altered: %q", p.Answer)
		}
		if p.Type != TypeDescriptive {
			t.Errorf("type = %q, want descriptive", p.Type)
		}
		if p.Source != analysis.SourceTemplate {
			t.Errorf("source = %q", p.Source)
		}
		if p.Dataset != "survey" {
			t.Errorf("dataset = %q", p.Dataset)
		}
		if p.ID == "" {
			t.Error("pair needs an ID")
		}
	}
	if pairs[0].Question != "What is the distribution of Respondent Age?" {
		t.Errorf("first template question = %q", pairs[0].Question)
	}
}

func TestGenerateIsDeterministicModuloIDs(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC) }
	g1 := NewGenerator(WithClock(now))
	g2 := NewGenerator(WithClock(now))
	answer := "answer text"

	p1 := g1.Generate(context.Background(), numericResult(t), answer, testCodebook(t), "survey")
	p2 := g2.Generate(context.Background(), numericResult(t), answer, testCodebook(t), "survey")

	if len(p1) != len(p2) {
		t.Fatalf("pair counts differ: %d vs %d", len(p1), len(p2))
	}
	for i := range p1 {
		if p1[i].Question != p2[i].Question || p1[i].Answer != p2[i].Answer || p1[i].Type != p2[i].Type {
			t.Errorf("pair %d differs: %+v vs %+v", i, p1[i], p2[i])
		}
		if !p1[i].Provenance.GeneratedAt.Equal(p2[i].Provenance.GeneratedAt) {
			t.Errorf("timestamps differ with a fixed clock")
		}
	}
}

func TestGenerateProvenance(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	g := NewGenerator(WithClock(func() time.Time { return now }))

	pairs := g.Generate(context.Background(), numericResult(t), "the answer contains 36.6", testCodebook(t), "survey")
	if len(pairs) == 0 {
		t.Fatal("expected pairs")
	}
	prov := pairs[0].Provenance
	if prov.Tool != analysis.ToolName || prov.ToolVersion != analysis.ToolVersion {
		t.Errorf("tool identity = %s %s", prov.Tool, prov.ToolVersion)
	}
	if prov.GenerationMethod != analysis.SourceTemplate {
		t.Errorf("generation_method = %q", prov.GenerationMethod)
	}
	if prov.AnalysisType != analysis.Univariate {
		t.Errorf("analysis_type = %q", prov.AnalysisType)
	}
	if len(prov.ComputationSteps) == 0 {
		t.Error("computation_steps must carry the rendered trace")
	}
	if !prov.GeneratedAt.Equal(now) {
		t.Errorf("generated_at = %v", prov.GeneratedAt)
	}
}

func TestGenerateSkipsUnanalyzable(t *testing.T) {
	g := NewGenerator()
	if pairs := g.Generate(context.Background(), nil, "answer", nil, "ds"); pairs != nil {
		t.Errorf("nil result should yield no pairs, got %v", pairs)
	}
	r := &analysis.Result{Analyzable: false}
	if pairs := g.Generate(context.Background(), r, "answer", nil, "ds"); pairs != nil {
		t.Errorf("unanalyzable result should yield no pairs, got %v", pairs)
	}
	if pairs := g.Generate(context.Background(), numericResult(t), "", nil, "ds"); pairs != nil {
		t.Errorf("empty answer should yield no pairs, got %v", pairs)
	}
}

func TestGenerateParaphraseSuccess(t *testing.T) {
	stub := &stubParaphraser{
		response: []ports.ParaphrasedQuestion{
			{Original: "q1", Paraphrases: []string{"p1a", "p1b"}},
			{Original: "q2", Paraphrases: []string{"p2a", ""}},
		},
	}
	g := NewGenerator(WithParaphraser(stub, 2))
	answer := "shared answer"

	pairs := g.Generate(context.Background(), numericResult(t), answer, testCodebook(t), "survey")
	if len(pairs) != 6 {
		t.Fatalf("expected 3 template + 3 paraphrase pairs, got %d", len(pairs))
	}
	if stub.calls != 1 {
		t.Fatalf("paraphraser called %d times", stub.calls)
	}
	if len(stub.lastQs) != 3 {
		t.Errorf("at most 3 questions go to the paraphraser, got %d", len(stub.lastQs))
	}
	if stub.lastAns != answer {
		t.Errorf("answer context = %q", stub.lastAns)
	}

	paraphrased := pairs[3:]
	for _, p := range paraphrased {
		if p.Source != analysis.SourceParaphrase {
			t.Errorf("source = %q, want %q", p.Source, analysis.SourceParaphrase)
		}
		if p.Answer != answer {
			t.Errorf("paraphrasing must never touch the answer, got %q", p.Answer)
		}
		if p.Provenance.GenerationMethod != analysis.SourceParaphrase {
			t.Errorf("provenance method = %q", p.Provenance.GenerationMethod)
		}
	}
}

func TestGenerateParaphraseFailureDegrades(t *testing.T) {
	stub := &stubParaphraser{err: errors.New("boom")}
	g := NewGenerator(WithParaphraser(stub, 2))

	pairs := g.Generate(context.Background(), numericResult(t), "answer", testCodebook(t), "survey")
	if len(pairs) != 3 {
		t.Fatalf("paraphrase failure must leave the template pairs intact, got %d pairs", len(pairs))
	}
	for _, p := range pairs {
		if p.Source != analysis.SourceTemplate {
			t.Errorf("unexpected source %q after degraded paraphrase", p.Source)
		}
	}
}

func TestInferQuestionType(t *testing.T) {
	if got := InferQuestionType(nil); got != "" {
		t.Errorf("nil result type = %q", got)
	}
	cases := []struct {
		r    *analysis.Result
		want string
	}{
		{&analysis.Result{Analyzable: true, Numeric: &analysis.NumericProfile{}}, TypeDescriptive},
		{&analysis.Result{Analyzable: true, Categorical: &analysis.CategoricalProfile{}}, TypeDistribution},
		{&analysis.Result{Analyzable: true, Correlation: &analysis.CorrelationResult{}}, TypeCorrelation},
		{&analysis.Result{Analyzable: true, Comparison: &analysis.GroupComparison{}}, TypeComparison},
		{&analysis.Result{Analyzable: false, Numeric: &analysis.NumericProfile{}}, ""},
	}
	for _, c := range cases {
		if got := InferQuestionType(c.r); got != c.want {
			t.Errorf("InferQuestionType = %q, want %q", got, c.want)
		}
	}
}

func TestComparisonTemplatesLeadWithValueLabel(t *testing.T) {
	questions := instantiate(TypeComparison, "Region", "Income")
	if questions[0] != "How does Income differ across Region groups?" {
		t.Errorf("comparison binding = %q", questions[0])
	}
}
