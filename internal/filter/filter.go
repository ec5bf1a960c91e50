// Package filter provides include filtering for anything that exposes named
// fields, such as calendar events and commits.
package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cpuguy83/timegrid/internal/config"
)

// Record is something rules can inspect by field name. Unknown fields read
// as the empty string.
type Record interface {
	Field(name string) string
}

// MatchType specifies how a filter rule matches.
type MatchType int

const (
	MatchContains MatchType = iota // Substring match (default)
	MatchExact                     // Exact string match
	MatchPrefix                    // Starts with
	MatchSuffix                    // Ends with
	MatchRegex                     // Regular expression
)

// Filter applies include rules to records.
type Filter struct {
	all   bool // "and" mode
	rules []rule
}

type rule struct {
	field           string
	matchType       MatchType
	pattern         string
	regex           *regexp.Regexp
	caseInsensitive bool
}

// New creates a new filter from configuration.
func New(cfg config.FilterConfig) (*Filter, error) {
	f := &Filter{}

	switch cfg.Mode {
	case "", "or":
	case "and":
		f.all = true
	default:
		return nil, fmt.Errorf("unknown filter mode %q (use and, or)", cfg.Mode)
	}

	for i, r := range cfg.Rules {
		compiled, err := compileRule(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		f.rules = append(f.rules, compiled)
	}

	return f, nil
}

func compileRule(r config.FilterRule) (rule, error) {
	compiled := rule{
		field:           r.Field,
		caseInsensitive: r.CaseInsensitive,
	}

	if r.Field == "" {
		return compiled, fmt.Errorf("missing field")
	}

	switch {
	case r.Regex != "":
		compiled.matchType = MatchRegex
		pattern := r.Regex
		if r.CaseInsensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return compiled, fmt.Errorf("invalid regex %q: %w", r.Regex, err)
		}
		compiled.regex = re
		return compiled, nil
	case r.Exact != "":
		compiled.matchType, compiled.pattern = MatchExact, r.Exact
	case r.Prefix != "":
		compiled.matchType, compiled.pattern = MatchPrefix, r.Prefix
	case r.Suffix != "":
		compiled.matchType, compiled.pattern = MatchSuffix, r.Suffix
	case r.Contains != "":
		compiled.matchType, compiled.pattern = MatchContains, r.Contains
	default:
		return compiled, fmt.Errorf("no match pattern specified (use contains, exact, prefix, suffix, or regex)")
	}

	if r.CaseInsensitive {
		compiled.pattern = strings.ToLower(compiled.pattern)
	}
	return compiled, nil
}

// Empty reports whether the filter has no rules and lets everything through.
func (f *Filter) Empty() bool {
	return f == nil || len(f.rules) == 0
}

// Match reports whether rec passes the include rules.
func (f *Filter) Match(rec Record) bool {
	if f.Empty() {
		return true
	}

	for _, r := range f.rules {
		ok := r.matches(rec)
		if f.all && !ok {
			return false
		}
		if !f.all && ok {
			return true
		}
	}
	return f.all
}

// Apply returns the records that match f, in their original order.
// A nil or empty filter returns records unchanged.
func Apply[T Record](f *Filter, records []T) []T {
	if f.Empty() {
		return records
	}

	var kept []T
	for _, rec := range records {
		if f.Match(rec) {
			kept = append(kept, rec)
		}
	}
	return kept
}

func (r *rule) matches(rec Record) bool {
	value := rec.Field(r.field)

	if r.matchType == MatchRegex {
		return r.regex.MatchString(value)
	}
	if r.caseInsensitive {
		value = strings.ToLower(value)
	}

	switch r.matchType {
	case MatchExact:
		return value == r.pattern
	case MatchPrefix:
		return strings.HasPrefix(value, r.pattern)
	case MatchSuffix:
		return strings.HasSuffix(value, r.pattern)
	default:
		return strings.Contains(value, r.pattern)
	}
}
