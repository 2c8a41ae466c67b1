// Package normalizer builds the canonical key used to decide whether two
// filter rules are the same for deduplication.
//
// A key is a '|' joined composite of the normalized core target and the
// extracted domain, modifiers, selector and extended selector components,
// prefixed with "@@" for exception rules. Keys are not rule syntax.
package normalizer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Placeholder is the core target used for rules that only carry options or
// selectors, so that they still deduplicate among themselves.
const Placeholder = "modifier_or_selector_rule"

// Outcome describes how a key was produced
type Outcome int

const (
	// Canonical keys follow the composite key shape
	Canonical Outcome = iota
	// Empty means the rule has nothing to key on and is not dedupe-able
	Empty
	// Degraded means normalization failed internally; Key holds the raw rule
	Degraded
)

func (o Outcome) String() string {
	switch o {
	case Canonical:
		return "canonical"
	case Empty:
		return "empty"
	case Degraded:
		return "degraded"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result is the output of a normalization
type Result struct {
	Key     string
	Outcome Outcome
	Err     error // set for Degraded
}

// Normalizer produces canonical keys
type Normalizer interface {
	Normalize(rule string) Result
}

// Func adapts a plain function to the Normalizer interface
type Func func(rule string) Result

// Normalize calls f
func (f Func) Normalize(rule string) Result { return f(rule) }

// Default is the stateless normalizer
var Default Normalizer = Func(Normalize)

// Parts are the components extracted from a rule before the core target is
// normalized
type Parts struct {
	Exception        bool
	Core             string
	Domain           string
	Modifiers        string
	Selector         string
	ExtendedSelector string
}

// Key joins the parts into the composite key
func (p Parts) Key() string {
	core := p.Core
	if core == "" {
		if p.Domain == "" && p.Modifiers == "" && p.Selector == "" && p.ExtendedSelector == "" {
			return ""
		}
		core = Placeholder
	}
	components := []string{core}
	if p.Domain != "" {
		components = append(components, "domain="+p.Domain)
	}
	if p.Modifiers != "" {
		components = append(components, "mods="+p.Modifiers)
	}
	if p.Selector != "" {
		components = append(components, "sel="+p.Selector)
	}
	if p.ExtendedSelector != "" {
		components = append(components, "extsel="+p.ExtendedSelector)
	}
	key := strings.Join(components, "|")
	if p.Exception {
		key = "@@" + key
	}
	return key
}

// selectorSeparators split a rule into target and selector section. Longer
// separators come first so "#@$#" is not taken for "#@#" or "##".
var selectorSeparators = []string{
	"#@$?#", "#@%#", "#@$#", "#@?#", "#$?#", "#@#", "#%#", "#$#", "#?#", "##", "$@$", "$$",
}

var (
	reOption      = regexp.MustCompile(`^~?([a-z0-9_-]+)(?:=(.*))?$`)
	reScheme      = regexp.MustCompile(`^(?:https?:)?//`)
	reWhitespace  = regexp.MustCompile(`\s+`)
	reTrailingSep = regexp.MustCompile(`[\^/]+$`)
)

// extract is swapped in tests to exercise the degraded path
var extract = Extract

// Normalize returns the canonical key of rule. It never panics: an internal
// failure yields a Degraded result carrying the unmodified rule.
func Normalize(rule string) (res Result) {
	if strings.TrimSpace(rule) == "" {
		return Result{Outcome: Empty}
	}
	defer func() {
		if r := recover(); r != nil {
			res = Result{Key: rule, Outcome: Degraded, Err: fmt.Errorf("normalize %q: %v", rule, r)}
		}
	}()

	key := extract(rule).Key()
	if key == "" {
		return Result{Outcome: Empty}
	}
	return Result{Key: key, Outcome: Canonical}
}

// Extract splits rule into its key components
func Extract(rule string) Parts {
	var p Parts
	s := strings.TrimSpace(rule)
	if strings.HasPrefix(s, "@@") {
		p.Exception = true
		s = s[2:]
	}

	head := s
	if idx, sep := findSeparator(s); idx >= 0 {
		head = s[:idx]
		body := normalizeSelector(s[idx+len(sep):])
		switch sep {
		case "#?#":
			p.ExtendedSelector = body
		case "#@?#":
			p.ExtendedSelector = sep + body
		case "##":
			p.Selector = body
		default:
			// keep the separator so exceptions and scriptlets never share a
			// key with a plain hide rule
			p.Selector = sep + body
		}
	}

	if idx := optionsIndex(head); idx >= 0 {
		p.Domain, p.Modifiers = parseOptions(head[idx+1:])
		head = head[:idx]
	}

	p.Core = normalizeCore(head)
	return p
}

// findSeparator returns the index of the earliest selector separator
func findSeparator(s string) (int, string) {
	for i := 0; i < len(s); i++ {
		if s[i] != '#' && s[i] != '$' {
			continue
		}
		for _, sep := range selectorSeparators {
			if strings.HasPrefix(s[i:], sep) {
				return i, sep
			}
		}
	}
	return -1, ""
}

// optionsIndex returns the index of the '$' that starts the option list,
// i.e. the first '$' followed by something shaped like an option.
func optionsIndex(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] != '$' {
			continue
		}
		first, _, _ := strings.Cut(s[i+1:], ",")
		if reOption.MatchString(strings.ToLower(strings.TrimSpace(first))) {
			return i
		}
	}
	return -1
}

// parseOptions returns the lower-cased domain= value and the sorted,
// comma-joined set of the other option names
func parseOptions(opts string) (domain, modifiers string) {
	seen := make(map[string]struct{})
	var names []string
	for _, part := range strings.Split(opts, ",") {
		m := reOption.FindStringSubmatch(strings.ToLower(strings.TrimSpace(part)))
		if m == nil {
			continue
		}
		name := m[1]
		if name == "domain" {
			if domain == "" {
				domain = strings.TrimSpace(m[2])
			}
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return domain, strings.Join(names, ",")
}

func normalizeSelector(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(strings.ToLower(s), " "))
}

// normalizeCore reduces the target pattern to scheme-less, www-less,
// query-less, lower-case form. Anchors ("||" or "|") are kept.
func normalizeCore(s string) string {
	if i := strings.Index(s, "!"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)

	anchor := ""
	switch {
	case strings.HasPrefix(s, "||"):
		anchor, s = "||", s[2:]
	case strings.HasPrefix(s, "|"):
		anchor, s = "|", s[1:]
	}

	lower := strings.ToLower(s)
	if loc := reScheme.FindStringIndex(lower); loc != nil {
		s = s[loc[1]:]
	}
	if strings.HasPrefix(strings.ToLower(s), "www.") {
		s = s[4:]
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	s = reTrailingSep.ReplaceAllString(s, "")
	s = strings.TrimRight(s, ".")
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return ""
	}
	return anchor + s
}
