package codebook

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/gojiplus/statqa/domain/metadata"
	apperrors "github.com/gojiplus/statqa/internal/errors"
)

// TextParser builds a Codebook from the plain-text declaration format:
//
//	# Codebook: Survey Data
//
//	# Variable: age
//	Label: Respondent Age
//	Type: numeric_continuous
//	Units: years
//	Range: 18-99
//	Missing: -1, 999
//	Description: Age of survey respondent in years
//
//	# Variable: gender
//	Label: Gender
//	Type: categorical_nominal
//	Values:
//	  1: Male
//	  2: Female
//	Missing: 0
type TextParser struct{}

// NewTextParser creates a parser.
func NewTextParser() *TextParser {
	return &TextParser{}
}

type textBlock struct {
	name  string
	lines []string
}

// Parse decodes the text format. Variables keep source order, as do their
// value declarations.
func (p *TextParser) Parse(source string) (*metadata.Codebook, error) {
	cb := metadata.NewCodebook("")
	var blocks []textBlock

	scanner := bufio.NewScanner(strings.NewReader(source))
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "# Codebook:"):
			cb.Name = strings.TrimSpace(strings.TrimPrefix(trimmed, "# Codebook:"))
		case strings.HasPrefix(trimmed, "# Variable:"):
			blocks = append(blocks, textBlock{name: strings.TrimSpace(strings.TrimPrefix(trimmed, "# Variable:"))})
		case trimmed == "" || strings.HasPrefix(trimmed, "#"):
			// blank lines and other comments separate blocks
		default:
			if len(blocks) > 0 {
				blocks[len(blocks)-1].lines = append(blocks[len(blocks)-1].lines, line)
			}
		}
	}

	if len(blocks) == 0 {
		return nil, apperrors.SchemaViolation("text codebook: no variable blocks found")
	}
	for _, block := range blocks {
		v, err := parseTextBlock(block)
		if err != nil {
			return nil, err
		}
		if err := cb.Add(v); err != nil {
			return nil, apperrors.Wrap(err, "add variable")
		}
	}
	return cb, nil
}

func parseTextBlock(block textBlock) (*metadata.Variable, error) {
	var label, typeStr, description, units string
	var rangeMin, rangeMax *float64
	var missing []string
	var values []metadata.ValueLabel
	inValues := false

	for _, line := range block.lines {
		trimmed := strings.TrimSpace(line)

		// Indented "code: label" lines continue a Values: section.
		if inValues && strings.HasPrefix(line, " ") {
			code, valueLabel, ok := strings.Cut(trimmed, ":")
			if !ok {
				return nil, apperrors.SchemaViolation(
					fmt.Sprintf("variable %s: bad value line %q", block.name, trimmed))
			}
			values = append(values, metadata.ValueLabel{
				Code:  strings.TrimSpace(code),
				Label: strings.TrimSpace(valueLabel),
			})
			continue
		}
		inValues = false

		key, rest, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		rest = strings.TrimSpace(rest)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "label":
			label = rest
		case "type":
			typeStr = rest
		case "description":
			description = rest
		case "units":
			units = rest
		case "range":
			lo, hi, ok := strings.Cut(rest, "-")
			if !ok {
				return nil, apperrors.SchemaViolation(
					fmt.Sprintf("variable %s: bad range %q (want min-max)", block.name, rest))
			}
			fLo, errLo := strconv.ParseFloat(strings.TrimSpace(lo), 64)
			fHi, errHi := strconv.ParseFloat(strings.TrimSpace(hi), 64)
			if errLo != nil || errHi != nil {
				return nil, apperrors.SchemaViolation(
					fmt.Sprintf("variable %s: bad range %q", block.name, rest))
			}
			rangeMin, rangeMax = &fLo, &fHi
		case "missing":
			for _, m := range strings.Split(rest, ",") {
				if m = strings.TrimSpace(m); m != "" {
					missing = append(missing, m)
				}
			}
		case "values":
			inValues = true
		}
	}

	varType, err := metadata.ParseVariableType(typeStr)
	if err != nil {
		return nil, apperrors.SchemaViolation(fmt.Sprintf("variable %s: %v", block.name, err))
	}
	v, err := metadata.NewVariable(block.name, label, varType)
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
