package analysis

// Options is the fixed numeric-method configuration shared by both
// analyzers. Every analyze call is a pure function of its inputs plus these
// settings.
type Options struct {
	// Alpha is the significance level for normality and correlation decisions.
	Alpha float64
	// NormalityCutoff selects the normality test: Shapiro-Wilk strictly below
	// the cutoff, Anderson-Darling at or above it.
	NormalityCutoff int
	// MinPairCount is the minimum valid paired observations for any bivariate
	// procedure.
	MinPairCount int
}

// DefaultOptions returns the conventional settings: alpha 0.05, small-sample
// cutoff 5000, minimum 10 paired observations.
func DefaultOptions() Options {
	return Options{
		Alpha:           0.05,
		NormalityCutoff: 5000,
		MinPairCount:    10,
	}
}
