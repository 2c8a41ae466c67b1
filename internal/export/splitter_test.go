package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e"}

	tests := []struct {
		name      string
		maxRules  int
		wantNames []string
		wantSizes []int
	}{
		{"fits", 5, []string{"hosts"}, []int{5}},
		{"exact multiple", 1, []string{"hosts-part1", "hosts-part2", "hosts-part3", "hosts-part4", "hosts-part5"}, []int{1, 1, 1, 1, 1}},
		{"remainder", 2, []string{"hosts-part1", "hosts-part2", "hosts-part3"}, []int{2, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := NewSplitter(tt.maxRules).Split(lines, "hosts")
			require.Len(t, parts, len(tt.wantNames))
			for i, p := range parts {
				assert.Equal(t, tt.wantNames[i], p.Name)
				assert.Len(t, p.Lines, tt.wantSizes[i])
			}
		})
	}
}

func TestNewSplitterDefault(t *testing.T) {
	assert.Equal(t, MaxRulesPerFile, NewSplitter(0).maxRules)
}

func TestUniqueLines(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, uniqueLines([]string{"a", "b", "a", "b"}))
}
