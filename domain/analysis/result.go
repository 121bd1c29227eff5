package analysis

// Type tags the kind of analysis that produced a result.
type Type string

const (
	Univariate Type = "univariate"
	Bivariate  Type = "bivariate"
)

// Result is the analyzer output. Exactly one of the payload pointers is set
// for an analyzable result; a result with Analyzable=false carries no
// statistics (unknown variable type). Results are immutable once returned.
type Result struct {
	AnalysisType Type     `json:"analysis_type"`
	Variables    []string `json:"variables"`
	Analyzable   bool     `json:"analyzable"`
	SkipReason   string   `json:"skip_reason,omitempty"`

	Numeric     *NumericProfile     `json:"numeric,omitempty"`
	Categorical *CategoricalProfile `json:"categorical,omitempty"`
	Correlation *CorrelationResult  `json:"correlation,omitempty"`
	Comparison  *GroupComparison    `json:"comparison,omitempty"`

	Trace Trace `json:"computation_log"`
}

// NormalityResult records which normality test ran and what it decided.
type NormalityResult struct {
	Test       string  `json:"test"` // "shapiro_wilk" or "anderson_darling"
	Statistic  float64 `json:"statistic"`
	PValue     float64 `json:"p_value"`
	Alpha      float64 `json:"alpha"`
	IsNormal   bool    `json:"is_normal"`
	Conclusive bool    `json:"conclusive"` // false for degenerate input (zero variance)
}

// NumericProfile is the univariate numeric payload.
type NumericProfile struct {
	ValidN    int     `json:"valid_n"`
	DroppedN  int     `json:"dropped_n"`
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	StdDev    float64 `json:"std_dev"`
	Skewness  float64 `json:"skewness"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Q25       float64 `json:"q25"`
	Q75       float64 `json:"q75"`
	Units     string  `json:"units,omitempty"`
	Normality NormalityResult `json:"normality"`
}

// CategoryCount is one categorical level with its frequency. Levels are
// listed in canonical order: declared valid values first, then undeclared
// codes sorted lexicographically, so ties resolve independently of row order.
type CategoryCount struct {
	Code    string  `json:"code"`
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// CategoricalProfile is the univariate categorical payload.
type CategoricalProfile struct {
	ValidN   int             `json:"valid_n"`
	DroppedN int             `json:"dropped_n"`
	Counts   []CategoryCount `json:"counts"`
	Mode     CategoryCount   `json:"mode"`
	Entropy  float64         `json:"entropy"` // Shannon entropy (nats) of the level distribution
}

// CorrelationResult is the numeric-numeric bivariate payload.
type CorrelationResult struct {
	N        int     `json:"n"`
	DroppedN int     `json:"dropped_n"`
	R        float64 `json:"r"`
	PValue   float64 `json:"p_value"` // two-sided
}

// GroupMean is the mean of the numeric variable within one category level.
type GroupMean struct {
	Code  string  `json:"code"`
	Label string  `json:"label"`
	N     int     `json:"n"`
	Mean  float64 `json:"mean"`
}

// AnovaResult is the optional one-way ANOVA over the group means. Present
// only when every non-empty group has at least two observations.
type AnovaResult struct {
	F           float64 `json:"f"`
	PValue      float64 `json:"p_value"`
	EtaSquared  float64 `json:"eta_squared"`
	DFBetween   int     `json:"df_between"`
	DFWithin    int     `json:"df_within"`
	Alpha       float64 `json:"alpha"`
	Significant bool    `json:"significant"`
}

// GroupComparison is the categorical-numeric bivariate payload.
type GroupComparison struct {
	GroupVar   string       `json:"group_var"`
	ValueVar   string       `json:"value_var"`
	N          int          `json:"n"`
	DroppedN   int          `json:"dropped_n"`
	Groups     []GroupMean  `json:"groups"`
	Anova      *AnovaResult `json:"anova,omitempty"`
}
