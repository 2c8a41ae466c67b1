package ingest

import (
	"regexp"
	"strings"
)

// Header holds the metadata a filter list declares in its leading comments
type Header struct {
	Title    string `json:"title,omitempty"`
	Version  string `json:"version,omitempty"`
	Homepage string `json:"homepage,omitempty"`
	Expires  string `json:"expires,omitempty"`
}

var headerFields = []struct {
	re    *regexp.Regexp
	field func(h *Header) *string
}{
	{regexp.MustCompile(`(?i)^!\s*Title:(.*)$`), func(h *Header) *string { return &h.Title }},
	{regexp.MustCompile(`(?i)^!\s*Version:(.*)$`), func(h *Header) *string { return &h.Version }},
	{regexp.MustCompile(`(?i)^!\s*Homepage:(.*)$`), func(h *Header) *string { return &h.Homepage }},
	{regexp.MustCompile(`(?i)^!\s*Expires:(.*)$`), func(h *Header) *string { return &h.Expires }},
}

// ParseHeader extracts the list header. The first occurrence of each field
// wins.
func ParseHeader(lines []string) Header {
	var h Header
	for _, l := range lines {
		h.add(l)
	}
	return h
}

// add records line if it is a header field not seen yet
func (h *Header) add(line string) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "!") {
		return
	}
	for _, f := range headerFields {
		m := f.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if dst := f.field(h); *dst == "" {
			*dst = strings.TrimSpace(m[1])
		}
		return
	}
}

// IsZero reports whether no field was found
func (h Header) IsZero() bool {
	return h == Header{}
}
