package classifier

import (
	"regexp"
	"strings"
)

// dnsOnlyModifiers are only meaningful to DNS-level filter engines
var dnsOnlyModifiers = map[string]struct{}{
	"client":     {},
	"dnstype":    {},
	"dnsrewrite": {},
	"ctag":       {},
}

// browserOnlyModifiers need a browser extension to be enforced
var browserOnlyModifiers = map[string]struct{}{
	"app": {}, "header": {}, "method": {}, "popup": {},
	"strict-first-party": {}, "strict-third-party": {}, "to": {},
	"document": {}, "font": {}, "image": {}, "media": {}, "object": {},
	"other": {}, "ping": {}, "script": {}, "stylesheet": {},
	"subdocument": {}, "websocket": {}, "xmlhttprequest": {},
	"content": {}, "elemhide": {}, "extension": {}, "jsinject": {},
	"stealth": {}, "urlblock": {}, "genericblock": {}, "generichide": {},
	"specifichide": {}, "all": {}, "cookie": {}, "csp": {}, "hls": {},
	"inline-script": {}, "inline-font": {}, "jsonprune": {}, "xmlprune": {},
	"network": {}, "permissions": {}, "redirect": {}, "redirect-rule": {},
	"referrerpolicy": {}, "removeheader": {}, "removeparam": {},
	"replace": {}, "urltransform": {}, "noop": {}, "empty": {}, "mp4": {},
	"object-subrequest": {}, "webrtc": {},
}

// IsDNSOnly reports whether name is a DNS-only modifier
func IsDNSOnly(name string) bool {
	_, ok := dnsOnlyModifiers[strings.ToLower(name)]
	return ok
}

// IsBrowserOnly reports whether name is a browser-only modifier
func IsBrowserOnly(name string) bool {
	_, ok := browserOnlyModifiers[strings.ToLower(name)]
	return ok
}

// reOption matches one entry of a $-option list: name or name=value
var reOption = regexp.MustCompile(`^~?([a-z0-9_-]+)(?:=.*)?$`)

// ModifierNames returns the lower-cased option names found after every '$'
// in the line, in order of appearance. Values are discarded. Parsing of one
// option list stops at the first entry that is not an option.
func ModifierNames(line string) []string {
	var names []string
	for i := 0; i < len(line); i++ {
		if line[i] != '$' {
			continue
		}
		rest := line[i+1:]
		for _, part := range strings.Split(rest, ",") {
			m := reOption.FindStringSubmatch(strings.ToLower(strings.TrimSpace(part)))
			if m == nil {
				break
			}
			names = append(names, m[1])
		}
	}
	return names
}
