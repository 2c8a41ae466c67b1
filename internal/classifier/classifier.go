// Package classifier assigns a rule kind to a single filter list line using
// ordered syntactic heuristics. It is a best-effort classification, not a
// grammar: the first matching step wins.
package classifier

import (
	"regexp"
	"strings"

	"github.com/bnema/filterdedup/internal/models"
)

var (
	reHTMLAttribute = regexp.MustCompile(`(?i)\[(tag-content|wildcards|max-length|min-length)=`)
	reSimpleDomain  = regexp.MustCompile(`(?i)^[a-z0-9_.-]+\.[a-z]{2,}$`)
	reIPv4          = regexp.MustCompile(`^(?:[0-9]{1,3}\.){3}[0-9]{1,3}$`)
	reDomainOrWild  = regexp.MustCompile(`^(\*\.)?[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*\.[a-zA-Z]{2,}$`)
	reHostname      = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)+\.?$`)
)

// Marker substrings
var (
	// a line starting with '#' is a comment unless it contains one of these
	hashRuleMarkers = []string{"##", "#?", "#@", "#$?#", "#$#", "#%#", "#.", "#,"}
	cosmeticMarkers = []string{"##", "#?#", "#@#", "#$?#", "#,", "#."}
	scriptMarkers   = []string{"#$#", "#%#"}
)

// Step names reported by Explain
const (
	StepEmpty            = "empty"
	StepComment          = "comment"
	StepHTMLFiltering    = "html-filtering"
	StepExtendedCSS      = "extended-css"
	StepCosmetic         = "cosmetic"
	StepScriptlet        = "scriptlet"
	StepBrowserModifier  = "browser-modifier"
	StepException        = "exception"
	StepDNSModifier      = "dns-modifier"
	StepEnginePrefix     = "engine-prefix"
	StepNetworkSyntax    = "network-syntax"
	StepModifierOnly     = "modifier-only"
	StepURLFragment      = "url-fragment"
	StepPatternHeuristic = "pattern-heuristic"
	StepHostname         = "hostname"
	StepUnrecognized     = "unrecognized"
)

// line is the precomputed view every step works on
type line struct {
	text        string
	modifiers   map[string]struct{}
	dnsOnly     bool
	browserOnly bool
}

func newLine(text string) *line {
	l := &line{text: text, modifiers: make(map[string]struct{})}
	for _, name := range ModifierNames(text) {
		l.modifiers[name] = struct{}{}
		if IsDNSOnly(name) {
			l.dnsOnly = true
		}
		if IsBrowserOnly(name) {
			l.browserOnly = true
		}
	}
	return l
}

func (l *line) hasModifier(names ...string) bool {
	for _, n := range names {
		if _, ok := l.modifiers[n]; ok {
			return true
		}
	}
	return false
}

// step is one ordered predicate. ok reports whether the step decided the
// classification; kind may be KindNone for a decided "not a rule".
type step struct {
	name  string
	match func(l *line) (kind models.RuleKind, ok bool)
}

// steps are evaluated in order; the order encodes precedence
var steps = []step{
	{StepEmpty, matchEmpty},
	{StepComment, matchComment},
	{StepHTMLFiltering, matchHTMLFiltering},
	{StepExtendedCSS, matchExtendedCSS},
	{StepCosmetic, matchAny(cosmeticMarkers, models.KindCosmetic)},
	{StepScriptlet, matchAny(scriptMarkers, models.KindScriptlet)},
	{StepBrowserModifier, matchBrowserModifier},
	{StepException, matchException},
	{StepDNSModifier, matchDNSModifier},
	{StepEnginePrefix, matchEnginePrefix},
	{StepNetworkSyntax, matchNetworkSyntax},
	{StepModifierOnly, matchModifierOnly},
	{StepURLFragment, matchURLFragment},
	{StepPatternHeuristic, matchPatternHeuristic},
	{StepHostname, matchHostname},
}

// Steps returns the names of the classification steps in evaluation order
func Steps() []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.name
	}
	return names
}

// Classify returns the kind of a single line, or models.KindNone when the
// line is empty or not recognized. It never panics.
func Classify(text string) models.RuleKind {
	kind, _ := Explain(text)
	return kind
}

// Explain classifies text and also returns the name of the step that decided.
func Explain(text string) (models.RuleKind, string) {
	l := newLine(strings.TrimSpace(text))
	for _, s := range steps {
		if kind, ok := s.match(l); ok {
			return kind, s.name
		}
	}
	return models.KindNone, StepUnrecognized
}

func matchEmpty(l *line) (models.RuleKind, bool) {
	return models.KindNone, l.text == ""
}

func matchComment(l *line) (models.RuleKind, bool) {
	t := l.text
	switch {
	case strings.HasPrefix(t, "!#"):
		return models.KindPreprocessor, true
	case strings.HasPrefix(t, "!+"):
		return models.KindHint, true
	case strings.HasPrefix(t, "!"):
		return models.KindComment, true
	case strings.HasPrefix(t, "#") && !containsAny(t, hashRuleMarkers):
		return models.KindComment, true
	case strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]"):
		return models.KindComment, true
	}
	return models.KindNone, false
}

func matchHTMLFiltering(l *line) (models.RuleKind, bool) {
	if strings.Contains(l.text, "$$") && reHTMLAttribute.MatchString(l.text) {
		return models.KindHTMLFiltering, true
	}
	return models.KindNone, false
}

func matchExtendedCSS(l *line) (models.RuleKind, bool) {
	if strings.Contains(l.text, "$$") {
		return models.KindExtendedCSS, true
	}
	return models.KindNone, false
}

func matchAny(markers []string, kind models.RuleKind) func(*line) (models.RuleKind, bool) {
	return func(l *line) (models.RuleKind, bool) {
		if containsAny(l.text, markers) {
			return kind, true
		}
		return models.KindNone, false
	}
}

// advancedModifiers map an option to its kind, in priority order
var advancedModifiers = []struct {
	names []string
	kind  models.RuleKind
}{
	{[]string{"csp"}, models.KindCSP},
	{[]string{"redirect", "redirect-rule"}, models.KindRedirect},
	{[]string{"replace"}, models.KindReplace},
	{[]string{"removeparam"}, models.KindRemoveParam},
	{[]string{"removeheader"}, models.KindRemoveHeader},
	{[]string{"permissions"}, models.KindPermissions},
}

func matchBrowserModifier(l *line) (models.RuleKind, bool) {
	if !l.browserOnly {
		return models.KindNone, false
	}
	for _, am := range advancedModifiers {
		if l.hasModifier(am.names...) {
			return am.kind, true
		}
	}
	if !isException(l.text) {
		return models.KindBlocking, true
	}
	return models.KindNone, false
}

func matchException(l *line) (models.RuleKind, bool) {
	if isException(l.text) {
		return models.KindUnblocking, true
	}
	return models.KindNone, false
}

func matchDNSModifier(l *line) (models.RuleKind, bool) {
	return models.KindBlocking, l.dnsOnly
}

func matchEnginePrefix(l *line) (models.RuleKind, bool) {
	ok := strings.HasPrefix(l.text, "sponsor=") || strings.HasPrefix(l.text, "ext=")
	return models.KindBlocking, ok
}

func matchNetworkSyntax(l *line) (models.RuleKind, bool) {
	// a leading "||" is covered by the "|" prefix, a trailing "^" by Contains
	ok := strings.HasPrefix(l.text, "|") || strings.Contains(l.text, "^")
	return models.KindBlocking, ok
}

func matchModifierOnly(l *line) (models.RuleKind, bool) {
	return models.KindBlocking, strings.HasPrefix(l.text, "$")
}

func matchURLFragment(l *line) (models.RuleKind, bool) {
	t := l.text
	ok := strings.HasPrefix(t, "://") ||
		(len(t) > 1 && strings.HasPrefix(t, "/") && strings.HasSuffix(t, "/")) ||
		strings.HasPrefix(t, "&") ||
		strings.HasPrefix(t, "=")
	return models.KindBlocking, ok
}

func matchPatternHeuristic(l *line) (models.RuleKind, bool) {
	pattern, _, _ := strings.Cut(l.text, "$")
	ok := strings.ContainsAny(pattern, "/*?_.-") || reSimpleDomain.MatchString(pattern)
	return models.KindBlocking, ok
}

func matchHostname(l *line) (models.RuleKind, bool) {
	t := l.text
	ok := reIPv4.MatchString(t) ||
		reDomainOrWild.MatchString(t) ||
		(strings.Contains(t, ".") && reHostname.MatchString(t))
	return models.KindBlocking, ok
}

func isException(s string) bool {
	return strings.HasPrefix(s, "@@")
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
