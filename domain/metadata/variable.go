package metadata

import (
	"fmt"
	"strings"
)

// VariableType is the closed set of declared variable types. Every analyzer
// dispatch decision is driven by this tag; it is never inferred from data.
type VariableType string

const (
	NumericContinuous  VariableType = "numeric_continuous"
	NumericDiscrete    VariableType = "numeric_discrete"
	CategoricalNominal VariableType = "categorical_nominal"
	CategoricalOrdinal VariableType = "categorical_ordinal"
	TypeUnknown        VariableType = "unknown"
)

// ParseVariableType validates a raw type string against the enumeration.
func ParseVariableType(raw string) (VariableType, error) {
	t := VariableType(strings.TrimSpace(strings.ToLower(raw)))
	switch t {
	case NumericContinuous, NumericDiscrete, CategoricalNominal, CategoricalOrdinal, TypeUnknown:
		return t, nil
	}
	return "", fmt.Errorf("unknown variable type %q", raw)
}

// IsNumeric reports whether the type dispatches to the numeric branch.
func (t VariableType) IsNumeric() bool {
	return t == NumericContinuous || t == NumericDiscrete
}

// IsCategorical reports whether the type dispatches to the categorical branch.
func (t VariableType) IsCategorical() bool {
	return t == CategoricalNominal || t == CategoricalOrdinal
}

// ValueLabel maps one raw categorical code to its human-readable label.
// Declaration order is significant: modal-category ties are broken by the
// first-declared code, so valid values are a slice rather than a map.
type ValueLabel struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Variable is one column's declared metadata. Instances are built once by a
// codebook parser (or NewVariable) and are read-only during analysis.
type Variable struct {
	Name          string       `json:"name"`
	Label         string       `json:"label"`
	Type          VariableType `json:"var_type"`
	Description   string       `json:"description,omitempty"`
	Units         string       `json:"units,omitempty"`
	ValidValues   []ValueLabel `json:"valid_values,omitempty"`
	MissingValues []string     `json:"missing_values,omitempty"`

	// Declared plausible bounds. Advisory only: analyzers never clip data.
	RangeMin *float64 `json:"range_min,omitempty"`
	RangeMax *float64 `json:"range_max,omitempty"`
}

// NewVariable validates and constructs a Variable. An empty name or a type
// outside the enumeration is a schema violation and is rejected here, before
// the variable can ever reach an analyzer.
func NewVariable(name, label string, varType VariableType) (*Variable, error) {
	v := &Variable{Name: strings.TrimSpace(name), Label: strings.TrimSpace(label), Type: varType}
	if v.Name == "" {
		return nil, fmt.Errorf("variable name must not be empty")
	}
	if v.Label == "" {
		v.Label = v.Name
	}
	if _, err := ParseVariableType(string(varType)); err != nil {
		return nil, fmt.Errorf("variable %s: %w", v.Name, err)
	}
	return v, nil
}

// Validate re-checks the schema invariants, for variables built literally.
func (v *Variable) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("variable name must not be empty")
	}
	if _, err := ParseVariableType(string(v.Type)); err != nil {
		return fmt.Errorf("variable %s: %w", v.Name, err)
	}
	if v.RangeMin != nil && v.RangeMax != nil && *v.RangeMin > *v.RangeMax {
		return fmt.Errorf("variable %s: range_min %g exceeds range_max %g", v.Name, *v.RangeMin, *v.RangeMax)
	}
	return nil
}

// DisplayLabel returns the label, falling back to the name.
func (v *Variable) DisplayLabel() string {
	if v.Label != "" {
		return v.Label
	}
	return v.Name
}

// IsMissing reports whether a raw cell value must be treated as absent.
// Blank cells are always missing; declared missing codes match after trimming.
// The scan keeps Variable free of internal state, so a shared instance is
// safe for concurrent analyzers.
func (v *Variable) IsMissing(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return true
	}
	for _, m := range v.MissingValues {
		if strings.TrimSpace(m) == raw {
			return true
		}
	}
	return false
}

// LabelFor resolves a raw code to its declared label, falling back to the
// code itself for undeclared categories.
func (v *Variable) LabelFor(code string) string {
	for _, vl := range v.ValidValues {
		if vl.Code == code {
			return vl.Label
		}
	}
	return code
}

// ValueOrder returns the declared position of a code, or -1 if undeclared.
// Used for deterministic modal-category tie-breaking.
func (v *Variable) ValueOrder(code string) int {
	for i, vl := range v.ValidValues {
		if vl.Code == code {
			return i
		}
	}
	return -1
}
