package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/filterdedup/internal/models"
)

// ListInfo describes the generated list in its header
type ListInfo struct {
	Title       string `mapstructure:"title" json:"title"`
	Description string `mapstructure:"description" json:"description"`
	MadeBy      string `mapstructure:"made_by" json:"made_by"`
	Homepage    string `mapstructure:"homepage" json:"homepage"`
	License     string `mapstructure:"license" json:"license"`
	Version     string `mapstructure:"version" json:"version"`
	Expires     string `mapstructure:"expires" json:"expires"`
}

// DefaultListInfo is used for unset header fields
func DefaultListInfo() ListInfo {
	return ListInfo{
		Title:       "filterdedup combined list",
		Description: "Deduplicated combination of the configured filter lists",
		Homepage:    "https://github.com/bnema/filterdedup",
		License:     "BSD-3-Clause",
		Version:     "1.0.0",
		Expires:     "1 day",
	}
}

// WithDefaults fills unset fields from DefaultListInfo
func (li ListInfo) WithDefaults() ListInfo {
	def := DefaultListInfo()
	set := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	set(&li.Title, def.Title)
	set(&li.Description, def.Description)
	set(&li.Homepage, def.Homepage)
	set(&li.License, def.License)
	set(&li.Version, def.Version)
	set(&li.Expires, def.Expires)
	return li
}

// Counts are the rule totals printed in a header
type Counts struct {
	Total      int `json:"total"`
	Blocking   int `json:"blocking"`
	Unblocking int `json:"unblocking"`
}

// CountRules tallies rules by kind
func CountRules(rules []models.StoredRule) Counts {
	c := Counts{Total: len(rules)}
	for _, r := range rules {
		switch r.Kind {
		case models.KindBlocking:
			c.Blocking++
		case models.KindUnblocking:
			c.Unblocking++
		}
	}
	return c
}

// Header renders the comment block written at the top of a list file
func Header(info ListInfo, f Format, counts Counts, updated time.Time) string {
	p := f.CommentPrefix()
	var b strings.Builder
	if f == FormatABP {
		b.WriteString("[Adblock Plus 2.0]\n")
	}
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s %s: %s\n", p, label, value)
		}
	}
	line("Title", info.Title)
	line("Description", info.Description)
	line("Made by", info.MadeBy)
	line("Homepage", info.Homepage)
	line("License", info.License)
	line("Version", info.Version)
	line("Expires", info.Expires)
	line("Last modified", updated.UTC().Format(time.RFC3339))
	line("Format", string(f))
	fmt.Fprintf(&b, "%s Total rules: %d\n", p, counts.Total)
	fmt.Fprintf(&b, "%s Blocking rules: %d\n", p, counts.Blocking)
	fmt.Fprintf(&b, "%s Unblocking rules: %d\n", p, counts.Unblocking)
	b.WriteString(p + "\n")
	return b.String()
}
