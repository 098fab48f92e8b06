// Package parser extracts sheet and pack counts from free-text product names.
// Absence of a pattern is never an error: missing sheets yield nil, missing
// pack counts default to a single unit.
package parser

import (
	"regexp"
	"strconv"
)

var sheetsPattern = regexp.MustCompile(`(\d+)\s*매`)

// unitPatterns are tried in priority order; only the first match is used,
// patterns are never combined.
var unitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s*개`),
	regexp.MustCompile(`(\d+)\s*팩`),
	regexp.MustCompile(`[xX]\s*(\d+)`),
}

// SheetsPerUnit returns the count of the first "<digits>매" token in name,
// or nil when the token is absent.
func SheetsPerUnit(name string) *float64 {
	m := sheetsPattern.FindStringSubmatch(name)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

// Units returns the multi-pack unit count parsed from name, defaulting to 1.
func Units(name string) int {
	for _, p := range unitPatterns {
		m := p.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		v, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return v
	}
	return 1
}
