package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestExport(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, WithClock(func() time.Time { return exportTime }), WithListInfo(ListInfo{Title: "Test List", MadeBy: "tests"}))

	results, err := e.Export(sampleRules(), []Format{FormatHosts, FormatAdGuard}, Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	hosts := results[0]
	assert.Equal(t, FormatHosts, hosts.Format)
	// the exception and the path rule have no hosts line
	assert.Equal(t, 3, hosts.Lines)
	assert.Equal(t, Counts{Total: 5, Blocking: 4, Unblocking: 1}, hosts.Counts)
	require.Len(t, hosts.Files, 1)
	assert.Equal(t, "hosts.txt", hosts.Files[0].Name)

	data, err := os.ReadFile(filepath.Join(dir, "hosts.txt"))
	require.NoError(t, err)
	content := string(data)
	assert.True(t, strings.HasPrefix(content, "# Title: Test List\n"))
	assert.Contains(t, content, "# Made by: tests\n")
	assert.Contains(t, content, "# Last modified: 2024-03-01T12:00:00Z\n")
	assert.Contains(t, content, "0.0.0.0 ads.example.com\n")
	assert.Contains(t, content, "0.0.0.0 tracker.example.com\n")
	assert.Contains(t, content, "0.0.0.0 dns.example.com\n")
	assert.NotContains(t, content, "good.example.com")

	adguard := results[1]
	assert.Equal(t, len(sampleRules()), adguard.Lines)
	data, err = os.ReadFile(filepath.Join(dir, "adguard.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "! Title: Test List\n"))
	assert.Contains(t, string(data), "example.com##.ad\n")
}

func TestExportSplitsLargeOutput(t *testing.T) {
	dir := t.TempDir()
	e := New(dir, WithMaxRulesPerFile(2))

	results, err := e.Export(sampleRules(), []Format{FormatDnsmasq}, Options{})
	require.NoError(t, err)
	require.Len(t, results[0].Files, 2)
	assert.Equal(t, "dnsmasq-part1.txt", results[0].Files[0].Name)
	assert.Equal(t, 2, results[0].Files[0].Rules)
	assert.Equal(t, "dnsmasq-part2.txt", results[0].Files[1].Name)
	assert.Equal(t, 1, results[0].Files[1].Rules)

	for _, f := range results[0].Files {
		assert.FileExists(t, filepath.Join(dir, f.Name))
	}
}

func TestExportDryRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	results, err := New(dir, WithDryRun(true)).Export(sampleRules(), []Format{FormatABP}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "abp.txt", results[0].Files[0].Name)
	assert.NoDirExists(t, dir)
}

func TestHeader(t *testing.T) {
	h := Header(DefaultListInfo(), FormatABP, Counts{Total: 3, Blocking: 2, Unblocking: 1}, exportTime)
	lines := strings.Split(strings.TrimSuffix(h, "\n"), "\n")
	assert.Equal(t, "[Adblock Plus 2.0]", lines[0])
	assert.Equal(t, "! Title: "+DefaultListInfo().Title, lines[1])
	assert.Contains(t, h, "! Total rules: 3\n")
	assert.Contains(t, h, "! Unblocking rules: 1\n")
	assert.NotContains(t, h, "Made by")
	assert.Equal(t, "!", lines[len(lines)-1])
}
