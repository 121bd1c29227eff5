package metadata

import (
	"fmt"
)

// Codebook owns the variable metadata for one dataset. Built once by a parser
// or programmatically via Add, then read-only for the duration of analysis.
type Codebook struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Info        map[string]interface{} `json:"info,omitempty"` // dataset-level info (row counts, encoding, ...)

	variables map[string]*Variable
	order     []string
}

// NewCodebook creates an empty codebook.
func NewCodebook(name string) *Codebook {
	return &Codebook{
		Name:      name,
		Info:      make(map[string]interface{}),
		variables: make(map[string]*Variable),
	}
}

// Add registers a variable. Duplicate names and schema violations are
// rejected immediately so invalid metadata can never reach an analyzer.
func (c *Codebook) Add(v *Variable) error {
	if v == nil {
		return fmt.Errorf("codebook %s: nil variable", c.Name)
	}
	if err := v.Validate(); err != nil {
		return fmt.Errorf("codebook %s: %w", c.Name, err)
	}
	if c.variables == nil {
		c.variables = make(map[string]*Variable)
	}
	if _, exists := c.variables[v.Name]; exists {
		return fmt.Errorf("codebook %s: duplicate variable %s", c.Name, v.Name)
	}
	c.variables[v.Name] = v
	c.order = append(c.order, v.Name)
	return nil
}

// Variable looks up a variable by name.
func (c *Codebook) Variable(name string) (*Variable, bool) {
	v, ok := c.variables[name]
	return v, ok
}

// Names returns variable names in declaration order.
func (c *Codebook) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Len returns the number of declared variables.
func (c *Codebook) Len() int {
	return len(c.variables)
}
