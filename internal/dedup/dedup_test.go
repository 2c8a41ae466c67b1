package dedup

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bnema/filterdedup/internal/metadata"
	"github.com/bnema/filterdedup/internal/models"
	"github.com/bnema/filterdedup/internal/normalizer"
	"github.com/bnema/filterdedup/internal/sources"
	"github.com/bnema/filterdedup/internal/store"
)

var (
	day0     = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fixedNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
)

func rule(raw string, srcs ...string) models.StoredRule {
	return models.StoredRule{
		RawText:     raw,
		ContentHash: models.HashRule(raw),
		Kind:        models.KindBlocking,
		Metadata: models.RuleMetadata{
			Sources:    srcs,
			DateAdded:  day0,
			Enabled:    true,
			SourceInfo: models.DefaultSourceInfo(),
			Tags:       []string{},
		},
	}
}

func newTestDedup(opts ...Option) *Deduplicator {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return New(opts...)
}

func TestProcessMergesSources(t *testing.T) {
	d := newTestDedup()
	out := d.Process([]models.StoredRule{rule("||a.com^", "X"), rule("||a.com^", "Y")})

	require.Len(t, out, 1)
	assert.ElementsMatch(t, []string{"X", "Y"}, out[0].Metadata.Sources)

	st := d.Stats()
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.Duplicates)
	assert.Equal(t, 1, st.Merged)
	assert.Equal(t, 1, st.DuplicateGroups)
	assert.Equal(t, 1, st.UniqueRules)
	assert.InDelta(t, 50.0, st.DuplicatePercent, 0.001)
}

func TestProcessCanonicalEquivalence(t *testing.T) {
	d := newTestDedup()
	out := d.Process([]models.StoredRule{
		rule("||EXAMPLE.com^", "X"),
		rule("||www.example.com/", "Y"),
		rule("@@||example.com^", "Z"),
		rule("||other.com^", "X"),
	})

	require.Len(t, out, 3)
	assert.Equal(t, "||other.com^", out[2].RawText)
	assert.Equal(t, "@@||example.com^", out[1].RawText)
	assert.ElementsMatch(t, []string{"X", "Y"}, out[0].Metadata.Sources)
	assert.Equal(t, 1, d.Stats().Duplicates)
}

func TestTrustedRepresentativeWins(t *testing.T) {
	untrusted := rule("||a.com^", "X")
	trusted := rule("||a.com^", "Y")
	trusted.Metadata.SourceInfo.Trusted = true

	for _, order := range [][]models.StoredRule{{untrusted, trusted}, {trusted, untrusted}} {
		d := newTestDedup()
		out := d.Process(order)
		require.Len(t, out, 1)
		assert.True(t, out[0].Metadata.SourceInfo.Trusted)
	}
}

func TestTieBreak(t *testing.T) {
	t.Run("shorter raw text wins", func(t *testing.T) {
		d := newTestDedup()
		long := rule("||a.com^", "X")
		short := rule("||a.com", "X")
		// both lose the exact bonus
		out := d.Process([]models.StoredRule{long, short})
		require.Len(t, out, 1)
		assert.Equal(t, "||a.com", out[0].RawText)
		assert.Equal(t, []string{"||a.com^"}, out[0].Metadata.Alternatives)
	})

	t.Run("first seen wins a full tie", func(t *testing.T) {
		d := newTestDedup()
		first := rule("||A.com^", "X")
		second := rule("||a.com^", "X")
		out := d.Process([]models.StoredRule{first, second})
		require.Len(t, out, 1)
		assert.Equal(t, "||A.com^", out[0].RawText)
	})
}

func TestMergeMetadata(t *testing.T) {
	a := rule("||a.com^$important", "X")
	a.Metadata.Modifiers = []string{"important"}
	a.Metadata.DateAdded = day0.Add(48 * time.Hour)

	b := rule("||a.com^$script", "Y")
	b.Metadata.Modifiers = []string{"script"}
	b.Metadata.DateAdded = day0

	c := rule("||a.com^$script,important", "Z")
	c.Metadata.Modifiers = []string{"script", "important"}
	c.Metadata.DateAdded = time.Time{}

	d := newTestDedup()
	out := d.Process([]models.StoredRule{a, b, c})

	// mods differ so only identical option sets group
	require.Len(t, out, 3)

	a2 := a
	a2.RawText = "||a.com^$IMPORTANT"
	a2.Metadata.Sources = []string{"W"}
	a2.Metadata.DateAdded = day0
	out = d.Process([]models.StoredRule{a, a2})
	require.Len(t, out, 1)
	md := out[0].Metadata
	assert.Equal(t, day0, md.DateAdded)
	assert.ElementsMatch(t, []string{"X", "W"}, md.Sources)
	assert.Equal(t, []string{"important"}, md.Modifiers)
	assert.Len(t, md.Alternatives, 1)
}

func TestMergeFillsMissingDate(t *testing.T) {
	a := rule("||a.com^", "X")
	a.Metadata.DateAdded = time.Time{}
	b := rule("||a.com^", "Y")
	b.Metadata.DateAdded = time.Time{}

	d := newTestDedup()
	out := d.Process([]models.StoredRule{a, b})
	require.Len(t, out, 1)
	assert.Equal(t, fixedNow, out[0].Metadata.DateAdded)
	assert.Equal(t, fixedNow, out[0].Metadata.LastUpdated)
}

func TestMergeDoesNotAliasInput(t *testing.T) {
	in := []models.StoredRule{rule("||a.com^", "X"), rule("||a.com^", "Y")}
	newTestDedup().Process(in)
	assert.Equal(t, []string{"X"}, in[0].Metadata.Sources)
	assert.Equal(t, []string{"Y"}, in[1].Metadata.Sources)
}

func TestSkipped(t *testing.T) {
	d := newTestDedup()
	out := d.Process([]models.StoredRule{
		rule("", "X"),
		rule("   ", "X"),
		rule("||a.com^", "X"),
	})
	require.Len(t, out, 1)
	st := d.Stats()
	assert.Equal(t, 2, st.Skipped)
	assert.LessOrEqual(t, st.Skipped+st.UniqueRules, st.Total)
}

func TestDegradedKeysAreQuarantined(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	norm := normalizer.Func(func(raw string) normalizer.Result {
		if raw == "broken" {
			return normalizer.Result{Key: "||a.com", Outcome: normalizer.Degraded, Err: errors.New("boom")}
		}
		return normalizer.Normalize(raw)
	})
	d := newTestDedup(WithNormalizer(norm), WithLogger(zap.New(core)))

	out := d.Process([]models.StoredRule{
		rule("||a.com^", "X"),
		rule("broken", "X"),
		rule("broken", "Y"),
	})

	require.Len(t, out, 2)
	assert.Equal(t, "||a.com^", out[0].RawText)
	assert.Equal(t, []string{"X"}, out[0].Metadata.Sources)
	assert.ElementsMatch(t, []string{"X", "Y"}, out[1].Metadata.Sources)

	st := d.Stats()
	assert.Equal(t, 2, st.Degraded)
	assert.Equal(t, 1, st.Duplicates)
	assert.Equal(t, 2, logs.FilterMessage("normalization degraded").Len())
}

func TestConflictRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	d := newTestDedup(WithLogger(zap.New(core)))
	d.merge = func([]models.StoredRule, int) models.RuleMetadata {
		panic("merge failed")
	}

	bareX := models.StoredRule{RawText: "||a.com^", Metadata: models.RuleMetadata{Sources: []string{"X"}}}
	bareY := models.StoredRule{RawText: "||a.com^", Metadata: models.RuleMetadata{Sources: []string{"Y"}}}
	out := d.Process([]models.StoredRule{bareX, bareY, rule("||b.com^", "X")})

	require.Len(t, out, 2)
	assert.Equal(t, "||a.com^", out[0].RawText)
	assert.Equal(t, []string{"X"}, out[0].Metadata.Sources)
	assert.Equal(t, fixedNow, out[0].Metadata.DateAdded)
	assert.Equal(t, models.DefaultCategory, out[0].Metadata.SourceInfo.Category)
	assert.NotNil(t, out[0].Metadata.Tags)

	st := d.Stats()
	assert.Equal(t, 1, st.Conflicts)
	assert.Equal(t, 0, st.Merged)
	assert.Equal(t, 1, st.Duplicates)
	assert.Equal(t, 1, logs.FilterMessage("failed to merge duplicate group").Len())
}

func TestProcessWithCache(t *testing.T) {
	cache, err := normalizer.NewCache(normalizer.Default, 16)
	require.NoError(t, err)
	d := newTestDedup(WithNormalizer(cache))

	out := d.Process([]models.StoredRule{rule("||a.com^", "X"), rule("||a.com^", "Y"), rule("##.ad", "X")})
	assert.Len(t, out, 2)
	assert.Equal(t, 2, cache.Len())
}

func TestStoreOutputRoundTrip(t *testing.T) {
	f := metadata.NewFactory(sources.Builtin(), metadata.WithClock(func() time.Time { return day0 }))
	s := store.New(f)
	for _, l := range []string{
		"||a.com^",
		"||a.com^$script",
		"@@||a.com^$script",
		"example.com#$#abort-on-property-read foo",
		"example.com#%#//scriptlet('set-constant', 'x', 'false')",
		"||a.com^$csp=script-src 'self'",
		"||b.com^$csp=frame-src 'self'",
		"||a.com/x.js$redirect=noopjs",
		"||a.com^$removeparam=utm_source",
		"||a.com^$removeheader=refresh",
		"||a.com^$permissions=autoplay=()",
		"||a.com/api$replace=/ads//",
		`example.com$$script[tag-content="ad"]`,
		"example.com$$div.ads",
		"example.com##.ad",
		"example.com#@#.sponsored",
	} {
		s.AddRule(l, "X")
	}

	stored := s.UniqueRules()
	d := newTestDedup()
	out := d.Process(stored)
	assert.Equal(t, countByKind(stored), countByKind(out))
	assert.Zero(t, d.Stats().Duplicates)

	again := d.Process(out)
	assert.Equal(t, out, again)
}

func countByKind(rules []models.StoredRule) map[models.RuleKind]int {
	out := make(map[models.RuleKind]int)
	for _, r := range rules {
		out[r.Kind]++
	}
	return out
}
