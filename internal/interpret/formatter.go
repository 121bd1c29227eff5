package interpret

import (
	"fmt"
	"math"
	"strings"

	"github.com/gojiplus/statqa/domain/analysis"
	"github.com/gojiplus/statqa/domain/metadata"
)

// InsightFormatter turns a structured analysis result into one
// natural-language statement. It phrases numbers that were already computed
// and never computes anything itself. Every formatted string reports the
// valid sample size and whether missing values were dropped.
type InsightFormatter struct{}

// NewInsightFormatter creates a formatter.
func NewInsightFormatter() *InsightFormatter {
	return &InsightFormatter{}
}

// Format renders any analyzable result. Unanalyzable or nil results yield
// an empty string, which callers treat as "no insight available".
func (f *InsightFormatter) Format(r *analysis.Result, cb *metadata.Codebook) string {
	if r == nil || !r.Analyzable {
		return ""
	}
	switch {
	case r.Numeric != nil:
		return f.formatNumeric(r, cb)
	case r.Categorical != nil:
		return f.formatCategorical(r, cb)
	case r.Correlation != nil:
		return f.formatCorrelation(r, cb)
	case r.Comparison != nil:
		return f.formatComparison(r, cb)
	}
	return ""
}

func (f *InsightFormatter) formatNumeric(r *analysis.Result, cb *metadata.Codebook) string {
	p := r.Numeric
	label := f.label(cb, r.Variables[0])

	units := ""
	if p.Units != "" {
		units = " " + p.Units
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s has a mean of %s%s and a median of %s (standard deviation %s) across N=%d valid observations",
		label,
		analysis.FormatStat(round(p.Mean, 4)), units,
		analysis.FormatStat(round(p.Median, 4)),
		analysis.FormatStat(round(p.StdDev, 4)),
		p.ValidN,
	)
	sb.WriteString(f.droppedClause(p.DroppedN))

	switch {
	case !p.Normality.Conclusive:
		fmt.Fprintf(&sb, " The %s normality check was inconclusive for this sample.", testName(p.Normality.Test))
	case p.Normality.IsNormal:
		fmt.Fprintf(&sb, " The distribution appears normal (%s statistic %s, p=%s).",
			testName(p.Normality.Test),
			analysis.FormatStat(round(p.Normality.Statistic, 4)),
			analysis.FormatPValue(p.Normality.PValue))
	default:
		fmt.Fprintf(&sb, " The distribution departs from normality (%s statistic %s, p=%s).",
			testName(p.Normality.Test),
			analysis.FormatStat(round(p.Normality.Statistic, 4)),
			analysis.FormatPValue(p.Normality.PValue))
	}
	return sb.String()
}

func (f *InsightFormatter) formatCategorical(r *analysis.Result, cb *metadata.Codebook) string {
	p := r.Categorical
	label := f.label(cb, r.Variables[0])

	var sb strings.Builder
	fmt.Fprintf(&sb, "The most common %s is %s, at %s%% of N=%d valid responses across %d categories",
		label,
		p.Mode.Label,
		analysis.FormatStat(round(p.Mode.Percent, 1)),
		p.ValidN,
		len(p.Counts),
	)
	sb.WriteString(f.droppedClause(p.DroppedN))
	return sb.String()
}

func (f *InsightFormatter) formatCorrelation(r *analysis.Result, cb *metadata.Codebook) string {
	p := r.Correlation
	labelA := f.label(cb, r.Variables[0])
	labelB := f.label(cb, r.Variables[1])

	var sb strings.Builder
	fmt.Fprintf(&sb, "There is a %s %s correlation between %s and %s (r=%s, p=%s) over N=%d complete pairs",
		strengthWord(p.R),
		directionWord(p.R),
		labelA, labelB,
		analysis.FormatStat(round(p.R, 4)),
		analysis.FormatPValue(p.PValue),
		p.N,
	)
	if p.DroppedN > 0 {
		fmt.Fprintf(&sb, "; %d rows missing either variable were excluded.", p.DroppedN)
	} else {
		sb.WriteString("; no rows were excluded for missing values.")
	}
	return sb.String()
}

func (f *InsightFormatter) formatComparison(r *analysis.Result, cb *metadata.Codebook) string {
	p := r.Comparison
	groupLabel := f.label(cb, p.GroupVar)
	valueLabel := f.label(cb, p.ValueVar)

	parts := make([]string, 0, len(p.Groups))
	for _, g := range p.Groups {
		parts = append(parts, fmt.Sprintf("%s averages %s (n=%d)", g.Label, analysis.FormatStat(round(g.Mean, 4)), g.N))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Mean %s by %s: %s, over N=%d complete pairs",
		valueLabel, groupLabel, strings.Join(parts, ", "), p.N)
	if p.DroppedN > 0 {
		fmt.Fprintf(&sb, "; %d rows missing either variable were excluded.", p.DroppedN)
	} else {
		sb.WriteString("; no rows were excluded for missing values.")
	}
	if p.Anova != nil {
		if p.Anova.Significant {
			fmt.Fprintf(&sb, " The group difference is statistically significant (F=%s, p=%s, eta-squared %s).",
				analysis.FormatStat(round(p.Anova.F, 3)),
				analysis.FormatPValue(p.Anova.PValue),
				analysis.FormatStat(round(p.Anova.EtaSquared, 3)))
		} else {
			fmt.Fprintf(&sb, " The group difference is not statistically significant (F=%s, p=%s).",
				analysis.FormatStat(round(p.Anova.F, 3)),
				analysis.FormatPValue(p.Anova.PValue))
		}
	}
	return sb.String()
}

func (f *InsightFormatter) droppedClause(dropped int) string {
	if dropped > 0 {
		return fmt.Sprintf("; %d missing values were dropped.", dropped)
	}
	return "; no missing values were dropped."
}

func (f *InsightFormatter) label(cb *metadata.Codebook, name string) string {
	if cb != nil {
		if v, ok := cb.Variable(name); ok {
			return v.DisplayLabel()
		}
	}
	return name
}

func testName(test string) string {
	switch test {
	case "shapiro_wilk":
		return "Shapiro-Wilk"
	case "anderson_darling":
		return "Anderson-Darling"
	}
	return test
}

func strengthWord(r float64) string {
	abs := math.Abs(r)
	switch {
	case abs < 0.1:
		return "negligible"
	case abs < 0.3:
		return "weak"
	case abs < 0.6:
		return "moderate"
	case abs < 0.8:
		return "strong"
	}
	return "very strong"
}

func directionWord(r float64) string {
	if r < 0 {
		return "negative"
	}
	return "positive"
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
