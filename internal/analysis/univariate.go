package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/gojiplus/statqa/domain/analysis"
	"github.com/gojiplus/statqa/domain/metadata"
	apperrors "github.com/gojiplus/statqa/internal/errors"
)

// UnivariateAnalyzer computes a single-variable statistical profile,
// dispatched on the variable's declared type. It never infers a type from
// the data.
type UnivariateAnalyzer struct {
	opts Options
}

// NewUnivariateAnalyzer creates an analyzer with the given method settings.
func NewUnivariateAnalyzer(opts Options) *UnivariateAnalyzer {
	return &UnivariateAnalyzer{opts: opts}
}

// Analyze profiles one raw value series. It returns (nil, nil) when zero
// valid observations remain after missing-value removal: an expected
// no-insight condition for the caller to skip, not an error. A variable of
// unknown type yields a result flagged unanalyzable rather than a guessed
// numeric or categorical treatment.
func (a *UnivariateAnalyzer) Analyze(values []string, v *metadata.Variable) (*analysis.Result, error) {
	if v == nil {
		return nil, apperrors.InvalidInput("univariate analyze: nil variable")
	}

	switch {
	case v.Type.IsNumeric():
		return a.analyzeNumeric(values, v)
	case v.Type.IsCategorical():
		return a.analyzeCategorical(values, v)
	default:
		r := &analysis.Result{
			AnalysisType: analysis.Univariate,
			Variables:    []string{v.Name},
			Analyzable:   false,
			SkipReason:   "unknown_type",
		}
		r.Trace.Record(fmt.Sprintf("dispatch(%s): declared type %q has no analysis procedure", v.Name, v.Type))
		return r, nil
	}
}

func (a *UnivariateAnalyzer) analyzeNumeric(values []string, v *metadata.Variable) (*analysis.Result, error) {
	valid := make([]float64, 0, len(values))
	dropped := 0
	for _, raw := range values {
		if v.IsMissing(raw) {
			dropped++
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			dropped++
			continue
		}
		valid = append(valid, f)
	}
	if len(valid) == 0 {
		return nil, nil
	}

	r := &analysis.Result{
		AnalysisType: analysis.Univariate,
		Variables:    []string{v.Name},
		Analyzable:   true,
	}
	t := &r.Trace
	t.RecordResult(
		fmt.Sprintf("valid = dropMissing(%s)", v.Name),
		fmt.Sprintf("%d valid, %d dropped", len(valid), dropped),
	)

	// Fixed derivation order: mean, median, std, skew, normality.
	mean, _ := stats.Mean(valid)
	t.RecordValue("mean = stats.Mean(valid)", mean)

	median, _ := stats.Median(valid)
	t.RecordValue("median = stats.Median(valid)", median)

	stdDev := 0.0
	if len(valid) > 1 {
		stdDev, _ = stats.StandardDeviationSample(valid)
	}
	t.RecordValue("std = stats.StandardDeviationSample(valid)", stdDev)

	skew := sampleSkewness(valid, mean, stdDev)
	t.RecordValue("skew = sampleSkewness(valid)", skew)

	norm := a.testNormality(valid, mean, stdDev, t)

	min, _ := stats.Min(valid)
	max, _ := stats.Max(valid)
	q25, q75 := quartiles(valid)
	t.RecordResult("q25, q75 = stats.Percentile(valid, 25), stats.Percentile(valid, 75)",
		fmt.Sprintf("%s, %s", analysis.FormatNumber(q25), analysis.FormatNumber(q75)))

	r.Numeric = &analysis.NumericProfile{
		ValidN:    len(valid),
		DroppedN:  dropped,
		Mean:      mean,
		Median:    median,
		StdDev:    stdDev,
		Skewness:  skew,
		Min:       min,
		Max:       max,
		Q25:       q25,
		Q75:       q75,
		Units:     v.Units,
		Normality: norm,
	}
	return r, nil
}

// testNormality runs Shapiro-Wilk below the cutoff and Anderson-Darling at
// or above it, recording which test ran. Degenerate samples (n < 3 or zero
// variance) still produce a recorded, inconclusive entry instead of failing.
func (a *UnivariateAnalyzer) testNormality(valid []float64, mean, stdDev float64, t *analysis.Trace) analysis.NormalityResult {
	if len(valid) < a.opts.NormalityCutoff {
		w, p, ok := shapiroWilk(valid)
		t.RecordResult("W, p = shapiroWilk(valid)",
			fmt.Sprintf("W=%s, p=%s", analysis.FormatNumber(w), analysis.FormatNumber(p)))
		return analysis.NormalityResult{
			Test:       testShapiroWilk,
			Statistic:  w,
			PValue:     p,
			Alpha:      a.opts.Alpha,
			IsNormal:   ok && p > a.opts.Alpha,
			Conclusive: ok,
		}
	}
	a2, p, ok := andersonDarling(valid, mean, stdDev)
	t.RecordResult("A2, p = andersonDarling(valid)",
		fmt.Sprintf("A2=%s, p=%s", analysis.FormatNumber(a2), analysis.FormatNumber(p)))
	return analysis.NormalityResult{
		Test:       testAndersonDarling,
		Statistic:  a2,
		PValue:     p,
		Alpha:      a.opts.Alpha,
		IsNormal:   ok && p > a.opts.Alpha,
		Conclusive: ok,
	}
}

func (a *UnivariateAnalyzer) analyzeCategorical(values []string, v *metadata.Variable) (*analysis.Result, error) {
	counts := make(map[string]int)
	dropped := 0
	validN := 0
	for _, raw := range values {
		if v.IsMissing(raw) {
			dropped++
			continue
		}
		counts[strings.TrimSpace(raw)]++
		validN++
	}
	if validN == 0 {
		return nil, nil
	}

	r := &analysis.Result{
		AnalysisType: analysis.Univariate,
		Variables:    []string{v.Name},
		Analyzable:   true,
	}
	t := &r.Trace
	t.RecordResult(
		fmt.Sprintf("valid = dropMissing(%s)", v.Name),
		fmt.Sprintf("%d valid, %d dropped", validN, dropped),
	)

	levels := canonicalLevels(counts, v)
	profileCounts := make([]analysis.CategoryCount, 0, len(levels))
	for _, code := range levels {
		c := counts[code]
		profileCounts = append(profileCounts, analysis.CategoryCount{
			Code:    code,
			Label:   v.LabelFor(code),
			Count:   c,
			Percent: 100 * float64(c) / float64(validN),
		})
	}
	t.RecordResult("counts = valueCounts(valid)", fmt.Sprintf("%d levels", len(profileCounts)))

	// First maximum over the canonical level order: ties resolve to the code
	// declared first in valid_values, independent of row order.
	mode := profileCounts[0]
	for _, cc := range profileCounts[1:] {
		if cc.Count > mode.Count {
			mode = cc
		}
	}
	t.RecordResult("mode = argmax(counts)", fmt.Sprintf("%s (%s), count=%d", mode.Code, mode.Label, mode.Count))

	entropy := 0.0
	for _, cc := range profileCounts {
		p := float64(cc.Count) / float64(validN)
		if p > 0 {
			entropy -= p * math.Log(p)
		}
	}
	t.RecordValue("entropy = shannonEntropy(counts / n)", entropy)

	r.Categorical = &analysis.CategoricalProfile{
		ValidN:   validN,
		DroppedN: dropped,
		Counts:   profileCounts,
		Mode:     mode,
		Entropy:  entropy,
	}
	return r, nil
}

// canonicalLevels orders observed codes: declared valid values first in
// declaration order, then undeclared codes in a stable numeric-aware sort.
func canonicalLevels(counts map[string]int, v *metadata.Variable) []string {
	seen := make(map[string]bool, len(counts))
	levels := make([]string, 0, len(counts))
	for _, vl := range v.ValidValues {
		if counts[vl.Code] > 0 {
			levels = append(levels, vl.Code)
			seen[vl.Code] = true
		}
	}
	extra := make([]string, 0)
	for code := range counts {
		if !seen[code] {
			extra = append(extra, code)
		}
	}
	sort.Slice(extra, func(i, j int) bool {
		fi, erri := strconv.ParseFloat(extra[i], 64)
		fj, errj := strconv.ParseFloat(extra[j], 64)
		if erri == nil && errj == nil {
			return fi < fj
		}
		return extra[i] < extra[j]
	})
	return append(levels, extra...)
}

// sampleSkewness computes bias-corrected sample skewness (adjusted
// Fisher-Pearson). Zero for n < 3 or zero spread.
func sampleSkewness(data []float64, mean, stdDev float64) float64 {
	n := float64(len(data))
	if len(data) < 3 || stdDev == 0 {
		return 0
	}
	sumCubed := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sumCubed += d * d * d
	}
	skew := sumCubed / n
	return skew * math.Sqrt(n*(n-1)) / (n - 2)
}

func quartiles(data []float64) (q25, q75 float64) {
	q25, _ = stats.Percentile(data, 25)
	q75, _ = stats.Percentile(data, 75)
	return q25, q75
}
