package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/gojiplus/statqa/domain/analysis"
	"github.com/gojiplus/statqa/domain/dataset"
	"github.com/gojiplus/statqa/domain/metadata"
	apperrors "github.com/gojiplus/statqa/internal/errors"
)

// BivariateAnalyzer computes a two-variable relationship profile,
// dispatched on the declared type pair:
//
//	numeric x numeric         -> Pearson correlation, two-sided p-value
//	categorical x numeric     -> grouped means (plus one-way ANOVA when possible)
//	numeric x categorical     -> same, roles swapped
//	categorical x categorical -> no defined test, explicit no-result
//
// Rows missing on either variable are excluded (complete-case, no
// imputation). Fewer than MinPairCount valid pairs yields no result.
type BivariateAnalyzer struct {
	opts Options
}

// NewBivariateAnalyzer creates an analyzer with the given method settings.
func NewBivariateAnalyzer(opts Options) *BivariateAnalyzer {
	return &BivariateAnalyzer{opts: opts}
}

// Analyze profiles the relationship between two variables. It returns
// (nil, nil) when the pair is not analyzable: too few complete cases, fewer
// than two non-empty groups, or a type combination with no defined test.
// The caller treats nil as an expected skip, never a failure.
func (b *BivariateAnalyzer) Analyze(ds *dataset.Dataset, va, vb *metadata.Variable) (*analysis.Result, error) {
	if va == nil || vb == nil {
		return nil, apperrors.InvalidInput("bivariate analyze: nil variable")
	}
	colA, okA := ds.Column(va.Name)
	colB, okB := ds.Column(vb.Name)
	if !okA || !okB {
		return nil, apperrors.InvalidInput(fmt.Sprintf("bivariate analyze: dataset missing column %s or %s", va.Name, vb.Name))
	}

	switch {
	case va.Type.IsNumeric() && vb.Type.IsNumeric():
		return b.correlate(colA, colB, va, vb)
	case va.Type.IsCategorical() && vb.Type.IsNumeric():
		return b.compareGroups(colA, colB, va, vb)
	case va.Type.IsNumeric() && vb.Type.IsCategorical():
		return b.compareGroups(colB, colA, vb, va)
	default:
		// categorical x categorical (or an unknown type in the pair) has no
		// defined procedure in this engine.
		return nil, nil
	}
}

func (b *BivariateAnalyzer) correlate(colA, colB []string, va, vb *metadata.Variable) (*analysis.Result, error) {
	x := make([]float64, 0, len(colA))
	y := make([]float64, 0, len(colA))
	total := minInt(len(colA), len(colB))
	for i := 0; i < total; i++ {
		fa, okA := numericValue(colA[i], va)
		fb, okB := numericValue(colB[i], vb)
		if !okA || !okB {
			continue
		}
		x = append(x, fa)
		y = append(y, fb)
	}
	n := len(x)
	if n < b.opts.MinPairCount {
		return nil, nil
	}

	r := &analysis.Result{
		AnalysisType: analysis.Bivariate,
		Variables:    []string{va.Name, vb.Name},
		Analyzable:   true,
	}
	t := &r.Trace
	t.RecordResult(
		fmt.Sprintf("paired = completeCases(%s, %s)", va.Name, vb.Name),
		fmt.Sprintf("%d pairs, %d dropped", n, total-n),
	)

	coeff, err := stats.Pearson(x, y)
	if err != nil {
		return nil, apperrors.Wrapf(err, "pearson correlation %s x %s", va.Name, vb.Name)
	}
	t.RecordValue("r = stats.Pearson(x, y)", coeff)

	p := pearsonPValue(coeff, n)
	t.RecordValue("p = twoSidedStudentT(r, n-2)", p)

	r.Correlation = &analysis.CorrelationResult{
		N:        n,
		DroppedN: total - n,
		R:        coeff,
		PValue:   p,
	}
	return r, nil
}

func (b *BivariateAnalyzer) compareGroups(groupCol, valueCol []string, groupVar, valueVar *metadata.Variable) (*analysis.Result, error) {
	groups := make(map[string][]float64)
	total := minInt(len(groupCol), len(valueCol))
	n := 0
	for i := 0; i < total; i++ {
		if groupVar.IsMissing(groupCol[i]) {
			continue
		}
		fv, ok := numericValue(valueCol[i], valueVar)
		if !ok {
			continue
		}
		code := strings.TrimSpace(groupCol[i])
		groups[code] = append(groups[code], fv)
		n++
	}
	if n < b.opts.MinPairCount || len(groups) < 2 {
		return nil, nil
	}

	r := &analysis.Result{
		AnalysisType: analysis.Bivariate,
		Variables:    []string{groupVar.Name, valueVar.Name},
		Analyzable:   true,
	}
	t := &r.Trace
	t.RecordResult(
		fmt.Sprintf("paired = completeCases(%s, %s)", groupVar.Name, valueVar.Name),
		fmt.Sprintf("%d pairs, %d dropped", n, total-n),
	)

	counts := make(map[string]int, len(groups))
	for code, vals := range groups {
		counts[code] = len(vals)
	}
	levels := canonicalLevels(counts, groupVar)

	groupMeans := make([]analysis.GroupMean, 0, len(levels))
	meanParts := make([]string, 0, len(levels))
	for _, code := range levels {
		vals := groups[code]
		mean, _ := stats.Mean(vals)
		gm := analysis.GroupMean{
			Code:  code,
			Label: groupVar.LabelFor(code),
			N:     len(vals),
			Mean:  mean,
		}
		groupMeans = append(groupMeans, gm)
		meanParts = append(meanParts, fmt.Sprintf("%s=%s (n=%d)", gm.Label, analysis.FormatNumber(mean), gm.N))
	}
	t.RecordResult(
		fmt.Sprintf("means = groupedMean(%s, by=%s)", valueVar.Name, groupVar.Name),
		strings.Join(meanParts, "; "),
	)

	r.Comparison = &analysis.GroupComparison{
		GroupVar: groupVar.Name,
		ValueVar: valueVar.Name,
		N:        n,
		DroppedN: total - n,
		Groups:   groupMeans,
	}

	if anova, ok := onewayANOVA(groups, levels, n, b.opts.Alpha); ok {
		t.RecordResult("F, p = onewayANOVA(groups)",
			fmt.Sprintf("F=%s, p=%s", analysis.FormatNumber(anova.F), analysis.FormatNumber(anova.PValue)))
		r.Comparison.Anova = anova
	}
	return r, nil
}

// onewayANOVA computes the F test and eta-squared over the groups, deciding
// significance at the given alpha. Requires at least two observations in
// every non-empty group; otherwise reports ok false and the comparison
// carries group means only.
func onewayANOVA(groups map[string][]float64, levels []string, n int, alpha float64) (*analysis.AnovaResult, bool) {
	k := len(levels)
	if k < 2 || n-k < 1 {
		return nil, false
	}

	grand := 0.0
	for _, vals := range groups {
		if len(vals) < 2 {
			return nil, false
		}
		for _, v := range vals {
			grand += v
		}
	}
	grand /= float64(n)

	ssb, ssw := 0.0, 0.0
	for _, code := range levels {
		vals := groups[code]
		mean, _ := stats.Mean(vals)
		ssb += float64(len(vals)) * (mean - grand) * (mean - grand)
		for _, v := range vals {
			ssw += (v - mean) * (v - mean)
		}
	}
	if ssw == 0 {
		return nil, false
	}

	dfB, dfW := k-1, n-k
	f := (ssb / float64(dfB)) / (ssw / float64(dfW))
	fdist := distuv.F{D1: float64(dfB), D2: float64(dfW)}
	p := 1 - fdist.CDF(f)
	return &analysis.AnovaResult{
		F:           f,
		PValue:      p,
		EtaSquared:  ssb / (ssb + ssw),
		DFBetween:   dfB,
		DFWithin:    dfW,
		Alpha:       alpha,
		Significant: p < alpha,
	}, true
}

// pearsonPValue computes the two-sided p-value for r via the Student's t
// transform with n-2 degrees of freedom.
func pearsonPValue(r float64, n int) float64 {
	if n < 3 {
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := math.Abs(r) * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.Survival(t)
}

// numericValue applies the variable's missing coding and numeric coercion to
// one raw cell.
func numericValue(raw string, v *metadata.Variable) (float64, bool) {
	if v.IsMissing(raw) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
