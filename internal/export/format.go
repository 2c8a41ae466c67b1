package export

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/miekg/dns"

	"github.com/bnema/filterdedup/internal/models"
)

// ErrUnknownFormat is returned by ParseFormat
var ErrUnknownFormat = errors.New("unknown export format")

// Format is an output syntax
type Format string

// Supported formats
const (
	FormatHosts        Format = "hosts"
	FormatDnsmasq      Format = "dnsmasq"
	FormatUnbound      Format = "unbound"
	FormatBind         Format = "bind"
	FormatPrivoxy      Format = "privoxy"
	FormatShadowrocket Format = "shadowrocket"
	FormatAdGuard      Format = "adguard"
	FormatABP          Format = "abp"
)

// AllFormats lists every supported format
var AllFormats = []Format{
	FormatHosts, FormatDnsmasq, FormatUnbound, FormatBind,
	FormatPrivoxy, FormatShadowrocket, FormatAdGuard, FormatABP,
}

// ParseFormat maps a name to a Format
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllFormats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ParseFormats maps names to formats, dropping repeats
func ParseFormats(names []string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, n := range names {
		f, err := ParseFormat(n)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// IsDNS reports whether the format only carries host names
func (f Format) IsDNS() bool {
	return f != FormatAdGuard && f != FormatABP
}

// CommentPrefix returns the line comment marker of the format
func (f Format) CommentPrefix() string {
	if f.IsDNS() {
		return "#"
	}
	return "!"
}

// FormatRule renders a rule in format f. An empty string means the rule has
// no representation in f.
func FormatRule(r models.StoredRule, f Format) string {
	if !f.IsDNS() {
		return r.RawText
	}
	// allow rules have no meaning in a block-only DNS list
	if r.IsException {
		return ""
	}
	host, ok := Hostname(r)
	if !ok {
		return ""
	}
	switch f {
	case FormatHosts:
		return "0.0.0.0 " + host
	case FormatDnsmasq:
		return "address=/" + host + "/0.0.0.0"
	case FormatUnbound:
		return `local-zone: "` + host + `" static`
	case FormatBind:
		return `zone "` + host + `" { type master; file "null.zone.file"; };`
	case FormatPrivoxy:
		return "{ +block { " + host + " } }"
	case FormatShadowrocket:
		return "DOMAIN," + host + ",REJECT"
	}
	return ""
}

// Hostname returns the DNS name a blocking or unblocking rule targets.
// Hosts file syntax ("0.0.0.0 example.com") is understood. Wildcards, IP
// literals and invalid names yield false.
func Hostname(r models.StoredRule) (string, bool) {
	if r.Kind != models.KindBlocking && r.Kind != models.KindUnblocking {
		return "", false
	}
	host := strings.TrimSpace(r.Domain)
	if fields := strings.Fields(host); len(fields) >= 2 {
		if _, err := netip.ParseAddr(fields[0]); err != nil {
			return "", false
		}
		host = fields[1]
	}
	host = strings.TrimSuffix(host, "^")
	host = strings.TrimSuffix(host, ".")
	if host == "" || strings.ContainsAny(host, "*/:?=&|") {
		return "", false
	}
	if _, err := netip.ParseAddr(host); err == nil {
		return "", false
	}
	if _, ok := dns.IsDomainName(host); !ok || !strings.Contains(host, ".") {
		return "", false
	}
	return strings.TrimSuffix(dns.CanonicalName(host), "."), true
}
