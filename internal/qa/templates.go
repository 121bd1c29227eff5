package qa

import (
	"fmt"

	"github.com/gojiplus/statqa/domain/analysis"
)

// Question categories inferred from the result's analysis type and
// statistic shape.
const (
	TypeDescriptive  = "descriptive"
	TypeDistribution = "distribution"
	TypeCorrelation  = "correlation"
	TypeComparison   = "comparison"
)

// InferQuestionType maps a result to its question category. Returns "" for
// results no template applies to.
func InferQuestionType(r *analysis.Result) string {
	if r == nil || !r.Analyzable {
		return ""
	}
	switch {
	case r.Numeric != nil:
		return TypeDescriptive
	case r.Categorical != nil:
		return TypeDistribution
	case r.Correlation != nil:
		return TypeCorrelation
	case r.Comparison != nil:
		return TypeComparison
	}
	return ""
}

// Question templates per category. Single-variable templates take one label,
// two-variable templates take both. The dispatch table is plain data so the
// full question surface stays reviewable in one place.
var (
	descriptiveTemplates = []string{
		"What is the distribution of %s?",
		"Can you summarize %s?",
		"What are the typical values of %s?",
	}
	distributionTemplates = []string{
		"What is the most common %s?",
		"How are responses distributed across %s categories?",
		"Which %s category appears most often?",
	}
	correlationTemplates = []string{
		"What is the relationship between %s and %s?",
		"How strongly are %s and %s associated?",
		"Is there a correlation between %s and %s?",
	}
	comparisonTemplates = []string{
		"How does %s differ across %s groups?",
		"Does %s vary by %s?",
		"Is there a difference in %s between %s groups?",
	}
)

// instantiate binds the templates for a question type to the variable
// label(s). labelA is the single-variable label; for two-variable types the
// ordering matches the formatter's phrasing.
func instantiate(qType, labelA, labelB string) []string {
	switch qType {
	case TypeDescriptive:
		return bindOne(descriptiveTemplates, labelA)
	case TypeDistribution:
		return bindOne(distributionTemplates, labelA)
	case TypeCorrelation:
		return bindTwo(correlationTemplates, labelA, labelB)
	case TypeComparison:
		// Comparison phrases ask about the measured value across grouping
		// variable groups, so the value label leads.
		return bindTwo(comparisonTemplates, labelB, labelA)
	}
	return nil
}

func bindOne(templates []string, label string) []string {
	out := make([]string, len(templates))
	for i, t := range templates {
		out[i] = fmt.Sprintf(t, label)
	}
	return out
}

func bindTwo(templates []string, labelA, labelB string) []string {
	out := make([]string, len(templates))
	for i, t := range templates {
		out[i] = fmt.Sprintf(t, labelA, labelB)
	}
	return out
}
