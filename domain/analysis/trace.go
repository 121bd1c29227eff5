package analysis

import (
	"fmt"
	"strconv"
	"strings"
)

// Step is one recorded computation: the operation that ran and, when the
// operation produced a value, the value it produced. The trace is kept as
// structured data and rendered to display strings only at the boundary, so
// the analyzer and the provenance exporter can never drift apart.
type Step struct {
	Operation string `json:"operation"`
	Result    string `json:"result,omitempty"`
}

// Trace is the ordered computation log embedded in every analysis result.
// Read top to bottom it is a replayable derivation of the final numbers.
type Trace struct {
	Steps []Step `json:"steps"`
}

// Record appends an operation with no produced value.
func (t *Trace) Record(operation string) {
	t.Steps = append(t.Steps, Step{Operation: operation})
}

// RecordResult appends an operation together with its produced value.
func (t *Trace) RecordResult(operation, result string) {
	t.Steps = append(t.Steps, Step{Operation: operation, Result: result})
}

// RecordValue appends an operation whose result is a single number.
func (t *Trace) RecordValue(operation string, value float64) {
	t.RecordResult(operation, FormatNumber(value))
}

// Render flattens the trace into display lines: every operation on its own
// line, followed by a "Result: <value>" line when the step produced one.
func (t *Trace) Render() []string {
	lines := make([]string, 0, len(t.Steps)*2)
	for _, s := range t.Steps {
		lines = append(lines, s.Operation)
		if s.Result != "" {
			lines = append(lines, "Result: "+s.Result)
		}
	}
	return lines
}

// Len returns the number of recorded steps.
func (t *Trace) Len() int { return len(t.Steps) }

// FormatNumber renders a float for trace lines. Integral values keep one
// decimal place ("3.0", not "3") so a result line always reads as a float.
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEaI") {
		s += ".0"
	}
	return s
}

// FormatStat renders a float for prose, trimming trailing zeros ("36.6").
func FormatStat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatPValue renders a p-value with conventional precision.
func FormatPValue(p float64) string {
	if p < 0.001 {
		return "<0.001"
	}
	return fmt.Sprintf("%.3f", p)
}
