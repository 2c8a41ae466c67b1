package export

import "fmt"

// MaxRulesPerFile is the default chunk size of an output file
const MaxRulesPerFile = 50000

// Part is one output file of a split
type Part struct {
	Name  string
	Lines []string
}

// Splitter splits formatted rules into chunks of at most maxRules lines
type Splitter struct {
	maxRules int
}

// NewSplitter creates a splitter with the given max rules per file
func NewSplitter(maxRules int) *Splitter {
	if maxRules <= 0 {
		maxRules = MaxRulesPerFile
	}
	return &Splitter{maxRules: maxRules}
}

// Split divides lines into multiple parts if needed. A single part keeps
// baseName, otherwise parts are named baseName-partN.
func (s *Splitter) Split(lines []string, baseName string) []Part {
	if len(lines) <= s.maxRules {
		return []Part{{Name: baseName, Lines: lines}}
	}

	numParts := (len(lines) + s.maxRules - 1) / s.maxRules
	parts := make([]Part, 0, numParts)

	for i := 0; i < numParts; i++ {
		start := i * s.maxRules
		end := start + s.maxRules
		if end > len(lines) {
			end = len(lines)
		}

		parts = append(parts, Part{
			Name:  fmt.Sprintf("%s-part%d", baseName, i+1),
			Lines: lines[start:end],
		})
	}

	return parts
}

// uniqueLines drops repeated output lines, keeping the first
func uniqueLines(lines []string) []string {
	seen := make(map[string]bool, len(lines))
	result := make([]string, 0, len(lines))

	for _, l := range lines {
		if !seen[l] {
			seen[l] = true
			result = append(result, l)
		}
	}

	return result
}
