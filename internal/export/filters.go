package export

import (
	"regexp"
	"strings"

	"github.com/bnema/filterdedup/internal/classifier"
	"github.com/bnema/filterdedup/internal/models"
)

var browserOnlyKinds = map[models.RuleKind]bool{
	models.KindCosmetic:      true,
	models.KindExtendedCSS:   true,
	models.KindHTMLFiltering: true,
	models.KindScriptlet:     true,
	models.KindRemoveParam:   true,
	models.KindParameter:     true,
	models.KindCSP:           true,
	models.KindRedirect:      true,
	models.KindReplace:       true,
	models.KindRemoveHeader:  true,
	models.KindPermissions:   true,
}

// network rule options a DNS resolver cannot honor
var networkBrowserModifiers = map[string]bool{
	"app": true, "header": true, "method": true, "popup": true,
	"strict-first-party": true, "strict-third-party": true,
	"document": true, "font": true, "image": true, "media": true,
	"object": true, "other": true, "ping": true, "script": true,
	"stylesheet": true, "subdocument": true, "websocket": true,
	"xmlhttprequest": true, "content": true, "elemhide": true,
}

var reAnchored = regexp.MustCompile(`^(@@)?\|\|`)

// FilterDNSRules keeps blocking and unblocking rules a DNS resolver can
// apply
func FilterDNSRules(rules []models.StoredRule) []models.StoredRule {
	return filter(rules, isDNSRule)
}

// FilterBrowserRules keeps every kind a content blocker can apply
func FilterBrowserRules(rules []models.StoredRule) []models.StoredRule {
	return filter(rules, func(r models.StoredRule) bool {
		return r.Kind == models.KindBlocking || r.Kind == models.KindUnblocking || browserOnlyKinds[r.Kind]
	})
}

// FilterBrowserOnlyRules keeps kinds that only a content blocker can apply
func FilterBrowserOnlyRules(rules []models.StoredRule) []models.StoredRule {
	return filter(rules, func(r models.StoredRule) bool {
		return browserOnlyKinds[r.Kind]
	})
}

func isDNSRule(r models.StoredRule) bool {
	if r.Kind != models.KindBlocking && r.Kind != models.KindUnblocking {
		return false
	}
	raw := r.RawText
	if raw == "" {
		return false
	}
	if strings.Contains(raw, "#") && !strings.Contains(raw, "$denyallow") {
		return false
	}
	if strings.Contains(raw, "$$") {
		return false
	}
	if strings.Contains(raw, "/") && !reAnchored.MatchString(raw) {
		return false
	}
	for _, name := range classifier.ModifierNames(raw) {
		if networkBrowserModifiers[name] || classifier.IsBrowserOnly(name) {
			return false
		}
	}
	return true
}

// Options narrow the exported rules by source reputation and tags
type Options struct {
	Categories        []string
	ExcludeCategories []string
	MinPriority       int
	Tags              []string
}

// Apply returns the rules matching every set option
func (o Options) Apply(rules []models.StoredRule) []models.StoredRule {
	return filter(rules, func(r models.StoredRule) bool {
		info := r.Metadata.SourceInfo
		if len(o.Categories) > 0 && !contains(o.Categories, info.Category) {
			return false
		}
		if contains(o.ExcludeCategories, info.Category) {
			return false
		}
		if o.MinPriority > 0 && info.Priority < o.MinPriority {
			return false
		}
		if len(o.Tags) > 0 && !containsAny(o.Tags, r.Metadata.Tags) {
			return false
		}
		return true
	})
}

func filter(rules []models.StoredRule, keep func(models.StoredRule) bool) []models.StoredRule {
	out := make([]models.StoredRule, 0, len(rules))
	for _, r := range rules {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsAny(list, candidates []string) bool {
	for _, c := range candidates {
		if contains(list, c) {
			return true
		}
	}
	return false
}
