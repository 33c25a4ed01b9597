package filter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/llstack/rtlpipe/internal/phase"
)

// Pattern represents a compiled filter condition supporting substring and regex matching.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
	lower string
}

// Compile transforms raw pattern strings into Pattern values. Patterns wrapped
// in slashes are regular expressions, anything else is a case-insensitive
// substring.
func Compile(patterns []string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
			expr := raw[1 : len(raw)-1]
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compile regexp %q: %w", raw, err)
			}
			result = append(result, Pattern{raw: raw, regex: re})
			continue
		}
		result = append(result, Pattern{raw: raw, lower: strings.ToLower(raw)})
	}
	return result, nil
}

// Match reports whether the pattern matches the supplied string.
func (p Pattern) Match(s string) bool {
	if s == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), p.lower)
}

func (p Pattern) String() string {
	return p.raw
}

// Phases keeps the phases selected by only/skip patterns, preserving order.
// Phases marked AlwaysRun are never filtered out.
func Phases(phases []phase.Phase, onlyPatterns, skipPatterns []Pattern) []phase.Phase {
	if len(phases) == 0 {
		return nil
	}
	result := make([]phase.Phase, 0, len(phases))
	for _, p := range phases {
		if p.AlwaysRun {
			result = append(result, p)
			continue
		}
		if len(onlyPatterns) > 0 && !matchesPhase(p, onlyPatterns) {
			continue
		}
		if len(skipPatterns) > 0 && matchesPhase(p, skipPatterns) {
			continue
		}
		result = append(result, p)
	}
	return result
}

func matchesPhase(p phase.Phase, patterns []Pattern) bool {
	for _, pattern := range patterns {
		if pattern.Match(p.Name) || pattern.Match(string(p.Kind)) || pattern.Match(p.Module) {
			return true
		}
	}
	return false
}
