package analysis

import "time"

// Tool identity stamped into every provenance block.
const (
	ToolName    = "statqa"
	ToolVersion = "0.2.0"
)

// Generation methods for Q/A pairs.
const (
	SourceTemplate   = "template"
	SourceParaphrase = "llm_paraphrase"
)

// Provenance ties a generated Q/A pair back to the computation that produced
// its answer. ComputationSteps is the rendered analyzer trace; the block is
// reconstructable from the Result alone.
type Provenance struct {
	GeneratedAt      time.Time `json:"generated_at"`
	Tool             string    `json:"tool"`
	ToolVersion      string    `json:"tool_version"`
	GenerationMethod string    `json:"generation_method"` // "template" or "llm_paraphrase"
	AnalysisType     Type      `json:"analysis_type"`
	Variables        []string  `json:"variables"`
	ComputationSteps []string  `json:"computation_steps"`
}

// QAPair is one question/answer record. The answer is always the formatter's
// text for the underlying result; paraphrasing rewords questions only.
type QAPair struct {
	ID         string     `json:"id"`
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Type       string     `json:"type"`
	Source     string     `json:"source"`
	Variables  []string   `json:"variables,omitempty"`
	Dataset    string     `json:"dataset,omitempty"`
	ChartPath  string     `json:"chart_path,omitempty"`
	Provenance Provenance `json:"provenance"`
}

// NewProvenance builds a provenance block for a result.
func NewProvenance(method string, r *Result, now time.Time) Provenance {
	return Provenance{
		GeneratedAt:      now.UTC(),
		Tool:             ToolName,
		ToolVersion:      ToolVersion,
		GenerationMethod: method,
		AnalysisType:     r.AnalysisType,
		Variables:        append([]string(nil), r.Variables...),
		ComputationSteps: r.Trace.Render(),
	}
}
