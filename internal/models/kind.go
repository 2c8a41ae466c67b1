package models

// RuleKind is the classification assigned to a filter list line
type RuleKind string

// Rule kinds that are stored
const (
	KindBlocking      RuleKind = "blocking"
	KindUnblocking    RuleKind = "unblocking"
	KindCosmetic      RuleKind = "cosmetic"
	KindScriptlet     RuleKind = "scriptlet"
	KindCSP           RuleKind = "csp"
	KindRedirect      RuleKind = "redirect"
	KindReplace       RuleKind = "replace"
	KindRemoveHeader  RuleKind = "removeheader"
	KindRemoveParam   RuleKind = "removeparam"
	KindParameter     RuleKind = "parameter" // alias of removeparam
	KindHTMLFiltering RuleKind = "html-filtering"
	KindPermissions   RuleKind = "permissions"
	KindExtendedCSS   RuleKind = "extended-css"
	KindDomain        RuleKind = "domain"
	KindRegex         RuleKind = "regex"
	KindUnknown       RuleKind = "unknown"
)

// Non-rule classifications, never stored
const (
	KindNone         RuleKind = ""
	KindComment      RuleKind = "comment"
	KindPreprocessor RuleKind = "preprocessor"
	KindHint         RuleKind = "hint"
)

// IsRule reports whether the kind describes an actual rule rather than a
// comment, directive or unrecognized line.
func (k RuleKind) IsRule() bool {
	switch k {
	case KindNone, KindComment, KindPreprocessor, KindHint:
		return false
	}
	return true
}

// Canonical folds aliases onto their primary kind.
func (k RuleKind) Canonical() RuleKind {
	if k == KindParameter {
		return KindRemoveParam
	}
	return k
}

// String returns "null" for KindNone so it shows up in reports
func (k RuleKind) String() string {
	if k == KindNone {
		return "null"
	}
	return string(k)
}

// StoredKinds lists every kind the rule store partitions on, in output order.
var StoredKinds = []RuleKind{
	KindBlocking,
	KindUnblocking,
	KindCosmetic,
	KindScriptlet,
	KindCSP,
	KindRedirect,
	KindReplace,
	KindRemoveHeader,
	KindRemoveParam,
	KindHTMLFiltering,
	KindPermissions,
	KindExtendedCSS,
}
