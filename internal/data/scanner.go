package data

import (
	"regexp"
	"strconv"
)

var (
	// numberPattern recognizes float literals: optional sign, optional
	// decimal point, optional exponent.
	numberPattern    = regexp.MustCompile(`[-+]?(?:\d*\.)?\d+(?:[eE][-+]?\d+)?`)
	separatorPattern = regexp.MustCompile(`[;,\s]+`)
)

// Numbers extracts every numeric token from a line, ignoring any non-numeric
// noise around it. When the scanner finds nothing, the line is split on
// whitespace, commas and semicolons and every field strconv.ParseFloat accepts
// is kept.
func Numbers(line string) []float64 {
	matches := numberPattern.FindAllString(line, -1)
	if len(matches) == 0 {
		return splitNumbers(line)
	}
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		// Out-of-range literals come back as ±Inf with ErrRange; keep the
		// value so instance validation can reject it with context.
		v, _ := strconv.ParseFloat(m, 64)
		out = append(out, v)
	}
	return out
}

func splitNumbers(line string) []float64 {
	var out []float64
	for _, field := range separatorPattern.Split(line, -1) {
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
