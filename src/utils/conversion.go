package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// AtoiSlice converts a comma-separated string to an int slice
func AtoiSlice(s string) ([]int, error) {
	strVals := strings.Split(s, ",")
	intVals := make([]int, len(strVals))
	for i, strVal := range strVals {
		strVal = strings.TrimSpace(strVal)
		intVal, err := strconv.Atoi(strVal)
		if err != nil {
			return nil, fmt.Errorf("failed to convert '%s' to int: %v", strVal, err)
		}
		intVals[i] = intVal
	}

	return intVals, nil
}

// ParseCurrencies splits "AUD, cad" into lower case iso codes, skipping blanks.
func ParseCurrencies(s string) []string {
	var out []string
	for _, c := range strings.Split(s, ",") {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			out = append(out, c)
		}
	}

	return out
}

// ParseFloatCell parses a spreadsheet cell. Blank cells and vendor error
// markers such as "#N/A N/A" are reported as not ok.
func ParseFloatCell(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.HasPrefix(cell, "#") {
		return 0, false
	}

	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}
