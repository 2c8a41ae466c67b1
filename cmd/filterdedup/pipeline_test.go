package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/filterdedup/internal/logger"
	"github.com/bnema/filterdedup/internal/models"
)

const listA = `! Title: List A
! Version: 1
||ads.example.com^
||tracker.example.net^
example.com##.ad-banner
example.com#$#abort-on-property-read foo
`

const listB = `! Title: List B
||ADS.example.com^
||www.tracker.example.net/
@@||good.example.org^
not a rule
`

func testConfig(t *testing.T, srvURL string) models.Config {
	t.Helper()
	local := filepath.Join(t.TempDir(), "custom.txt")
	require.NoError(t, os.WriteFile(local, []byte("||custom.example.com^\nexample.com##.ad-banner\n"), 0o644))

	return models.Config{
		HTTP: models.HTTPConfig{
			Timeout:     time.Second,
			Retries:     1,
			Backoff:     time.Millisecond,
			Concurrency: 2,
		},
		Output: models.OutputConfig{
			Dir:              t.TempDir(),
			Formats:          []string{"hosts", "adguard"},
			GenerateManifest: true,
		},
		Dedup: models.DedupConfig{Enabled: true, Maintainer: "Daniel Hipskind"},
		Lists: []models.FilterList{
			{Name: "List A", URL: srvURL + "/a.txt", Enabled: true},
			{Name: "List B", URL: srvURL + "/b.txt", Enabled: true},
			{Name: "Missing", URL: srvURL + "/missing.txt", Enabled: true},
			{Name: "Blockingmachine Rules", URL: local, Enabled: true},
			{Name: "Disabled", URL: srvURL + "/a.txt", Enabled: false},
		},
	}
}

func newListServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a.txt":
			_, _ = w.Write([]byte(listA))
		case "/b.txt":
			_, _ = w.Write([]byte(listB))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestRunPipeline(t *testing.T) {
	srv := newListServer()
	defer srv.Close()
	c := testConfig(t, srv.URL)

	var out bytes.Buffer
	m, err := runPipeline(context.Background(), c, buildOptions{}, logger.NewNop(), &out)
	require.NoError(t, err)

	require.Len(t, m.Lists, 4)
	assert.False(t, m.Lists["Missing"].Fetched)
	assert.True(t, m.Lists["List A"].Fetched)
	assert.Equal(t, "List A", m.Lists["List A"].Header.Title)
	assert.Equal(t, 1, m.Lists["List B"].Unrecognized)

	// the store keeps one cosmetic rule per selector across lists
	assert.Equal(t, 1, m.Store.Overwritten+m.Store.Duplicates)

	require.NotNil(t, m.Dedup)
	assert.Equal(t, 2, m.Dedup.Duplicates)
	assert.Equal(t, 2, m.Dedup.DuplicateGroups)

	hosts, err := os.ReadFile(filepath.Join(c.Output.Dir, "hosts.txt"))
	require.NoError(t, err)
	body := string(hosts)
	assert.Equal(t, 1, strings.Count(body, "0.0.0.0 ads.example.com\n"))
	assert.Contains(t, body, "0.0.0.0 custom.example.com\n")
	assert.Contains(t, body, "# Made by: Daniel Hipskind\n")
	assert.NotContains(t, body, "good.example.org")

	adguard, err := os.ReadFile(filepath.Join(c.Output.Dir, "adguard.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(adguard), "@@||good.example.org^\n")
	assert.Contains(t, string(adguard), "example.com#$#abort-on-property-read foo\n")

	data, err := os.ReadFile(filepath.Join(c.Output.Dir, "manifest.json"))
	require.NoError(t, err)
	var decoded Manifest
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, m.Dedup.UniqueRules, decoded.Dedup.UniqueRules)
	assert.Contains(t, out.String(), "Done!")
}

func TestRunPipelineNoDedupDryRun(t *testing.T) {
	srv := newListServer()
	defer srv.Close()
	c := testConfig(t, srv.URL)

	m, err := runPipeline(context.Background(), c, buildOptions{NoDedup: true, DryRun: true, Formats: []string{"dnsmasq"}}, logger.NewNop(), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Nil(t, m.Dedup)
	require.Len(t, m.Outputs, 1)
	assert.Equal(t, "dnsmasq.txt", m.Outputs[0].Files[0].Name)
	assert.NoFileExists(t, filepath.Join(c.Output.Dir, "dnsmasq.txt"))
	assert.NoFileExists(t, filepath.Join(c.Output.Dir, "manifest.json"))
}

func TestRunPipelineErrors(t *testing.T) {
	_, err := runPipeline(context.Background(), models.Config{}, buildOptions{}, logger.NewNop(), &bytes.Buffer{})
	assert.Error(t, err)

	c := models.Config{
		Lists:  []models.FilterList{{Name: "x", URL: "x.txt", Enabled: true}},
		Output: models.OutputConfig{Formats: []string{"json"}},
	}
	_, err = runPipeline(context.Background(), c, buildOptions{}, logger.NewNop(), &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown export format")
}

func TestDefaultConfigParses(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(defaultConfig)))

	var c models.Config
	require.NoError(t, v.Unmarshal(&c))
	require.NoError(t, c.Validate())

	assert.Equal(t, 30*time.Second, c.HTTP.Timeout)
	assert.Equal(t, 2*time.Second, c.HTTP.Backoff)
	assert.True(t, c.Dedup.Enabled)
	assert.Equal(t, 20, c.Dedup.Weights["maintainer"])
	assert.Equal(t, []string{"adguard", "hosts", "dnsmasq"}, c.Output.Formats)
	assert.Len(t, c.EnabledLists(), 5)
	assert.NotEmpty(t, c.HTTP.UserAgent)
}

func TestClassifyLines(t *testing.T) {
	in := strings.NewReader("||ads.example.com^\n\n! comment\nexample.com##.ad\n")
	var out bytes.Buffer
	require.NoError(t, classifyLines(in, &out, false))
	assert.Equal(t,
		"blocking\tnetwork-syntax\t||ads.example.com^\n"+
			"comment\tcomment\t! comment\n"+
			"cosmetic\tcosmetic\texample.com##.ad\n",
		out.String())

	out.Reset()
	require.NoError(t, classifyLines(strings.NewReader("||ADS.example.com^\n"), &out, true))
	assert.Equal(t, "blocking\tnetwork-syntax\t||ads.example.com\t||ADS.example.com^\n", out.String())
}
