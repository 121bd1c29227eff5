package codebook

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gojiplus/statqa/domain/metadata"
	apperrors "github.com/gojiplus/statqa/internal/errors"
)

// YAMLParser builds a Codebook from a YAML document of the form:
//
//	name: Survey Data
//	description: ...
//	variables:
//	  age:
//	    label: Respondent Age
//	    type: numeric_continuous
//	    units: years
//	    range_min: 18
//	    range_max: 99
//	    missing: [-1, 999]
//	  gender:
//	    label: Gender
//	    type: categorical_nominal
//	    values:
//	      1: Male
//	      2: Female
//	    missing: [0]
//
// Parsing walks yaml.Node directly so the declaration order of variables and
// of valid values survives: modal-category tie-breaking depends on it.
type YAMLParser struct{}

// NewYAMLParser creates a parser.
func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

// Parse decodes a YAML codebook. Schema violations (missing type, type
// outside the enumeration, duplicate names) fail immediately.
func (p *YAMLParser) Parse(source []byte) (*metadata.Codebook, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(source, &root); err != nil {
		return nil, apperrors.Wrap(err, "parse codebook yaml")
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, apperrors.SchemaViolation("codebook yaml: empty document")
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, apperrors.SchemaViolation("codebook yaml: top level must be a mapping")
	}

	cb := metadata.NewCodebook("")
	for i := 0; i < len(doc.Content)-1; i += 2 {
		key, value := doc.Content[i].Value, doc.Content[i+1]
		switch key {
		case "name":
			cb.Name = value.Value
		case "description":
			cb.Description = value.Value
		case "info":
			info := map[string]interface{}{}
			if err := value.Decode(&info); err != nil {
				return nil, apperrors.Wrap(err, "parse codebook info")
			}
			cb.Info = info
		case "variables":
			if value.Kind != yaml.MappingNode {
				return nil, apperrors.SchemaViolation("codebook yaml: variables must be a mapping")
			}
			for j := 0; j < len(value.Content)-1; j += 2 {
				v, err := parseVariableNode(value.Content[j].Value, value.Content[j+1])
				if err != nil {
					return nil, err
				}
				if err := cb.Add(v); err != nil {
					return nil, apperrors.Wrap(err, "add variable")
				}
			}
		}
	}
	if cb.Len() == 0 {
		return nil, apperrors.SchemaViolation("codebook yaml: no variables declared")
	}
	return cb, nil
}

func parseVariableNode(name string, node *yaml.Node) (*metadata.Variable, error) {
	if node.Kind != yaml.MappingNode {
		return nil, apperrors.SchemaViolation(fmt.Sprintf("variable %s: must be a mapping", name))
	}

	var label, typeStr, description, units string
	var rangeMin, rangeMax *float64
	var missing []string
	var values []metadata.ValueLabel

	for i := 0; i < len(node.Content)-1; i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		switch key {
		case "label":
			label = value.Value
		case "type":
			typeStr = value.Value
		case "description":
			description = value.Value
		case "units":
			units = value.Value
		case "range_min":
			f, err := strconv.ParseFloat(value.Value, 64)
			if err != nil {
				return nil, apperrors.SchemaViolation(fmt.Sprintf("variable %s: bad range_min %q", name, value.Value))
			}
			rangeMin = &f
		case "range_max":
			f, err := strconv.ParseFloat(value.Value, 64)
			if err != nil {
				return nil, apperrors.SchemaViolation(fmt.Sprintf("variable %s: bad range_max %q", name, value.Value))
			}
			rangeMax = &f
		case "missing":
			if value.Kind != yaml.SequenceNode {
				return nil, apperrors.SchemaViolation(fmt.Sprintf("variable %s: missing must be a list", name))
			}
			for _, item := range value.Content {
				missing = append(missing, strings.TrimSpace(item.Value))
			}
		case "values":
			if value.Kind != yaml.MappingNode {
				return nil, apperrors.SchemaViolation(fmt.Sprintf("variable %s: values must be a mapping", name))
			}
			for j := 0; j < len(value.Content)-1; j += 2 {
				values = append(values, metadata.ValueLabel{
					Code:  strings.TrimSpace(value.Content[j].Value),
					Label: value.Content[j+1].Value,
				})
			}
		}
	}

	varType, err := metadata.ParseVariableType(typeStr)
	if err != nil {
		return nil, apperrors.SchemaViolation(fmt.Sprintf("variable %s: %v", name, err))
	}
	v, err := metadata.NewVariable(name, label, varType)
	if err != nil {
		return nil, apperrors.SchemaViolation(err.Error())
	}
	v.Description = description
	v.Units = units
	v.RangeMin = rangeMin
	v.RangeMax = rangeMax
	v.MissingValues = missing
	v.ValidValues = values
	return v, nil
}
