// SPDX-License-Identifier: MIT
// Copyright (c) 2026 connorhaigh
// Source: github.com/connorhaigh/gta-img

package img

import (
	"fmt"
	"strings"

	"github.com/woozymasta/pathrules"
)

// entryMatcher holds compiled selection rules.
type entryMatcher struct {
	matcher *pathrules.Matcher
}

// Select returns indices of entries whose names are selected by rules.
// Empty rules select every entry. Zero-valued opts match case-insensitively and
// default to exclude when any include rule is present, include otherwise.
func Select(entries []Entry, rules []pathrules.Rule, opts pathrules.MatcherOptions) ([]int, error) {
	matcher, err := newEntryMatcher(rules, selectMatcherOptions(rules, opts))
	if err != nil {
		return nil, err
	}

	out := make([]int, 0, len(entries))
	for i := range entries {
		if matcher.Match(entries[i].Name) {
			out = append(out, i)
		}
	}

	return out, nil
}

// newEntryMatcher compiles selection rules; nil means everything matches.
func newEntryMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*entryMatcher, error) {
	rules = normalizeSelectRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidRules, err)
	}

	return &entryMatcher{matcher: matcher}, nil
}

// Match reports whether an entry name is selected.
func (m *entryMatcher) Match(name string) bool {
	if m == nil || m.matcher == nil {
		return true
	}

	return m.matcher.Included(name, false)
}

// normalizeSelectRules trims patterns and drops empty ones.
func normalizeSelectRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := strings.TrimSpace(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// selectMatcherOptions fills zero-valued matcher options for entry selection.
func selectMatcherOptions(rules []pathrules.Rule, opts pathrules.MatcherOptions) pathrules.MatcherOptions {
	if opts == (pathrules.MatcherOptions{}) {
		opts.CaseInsensitive = true
	}

	if opts.DefaultAction == pathrules.ActionUnknown {
		opts.DefaultAction = pathrules.ActionInclude
		for _, rule := range rules {
			if rule.Action == pathrules.ActionInclude {
				opts.DefaultAction = pathrules.ActionExclude
				break
			}
		}
	}

	return opts
}
