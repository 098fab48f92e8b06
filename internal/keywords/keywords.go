// Package keywords extracts per-cohort token frequencies from product names.
package keywords

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"price-insights-go/internal/cohort"
	"price-insights-go/internal/config"
	"price-insights-go/internal/types"
)

// Runs of anything but digits, latin letters and Hangul syllables split tokens.
var nonToken = regexp.MustCompile(`[^0-9a-z가-힣]+`)

// Tokenize lowercases text, splits it into alphanumeric/Hangul runs, and
// drops stopwords and single-rune tokens.
func Tokenize(text string, stopwords map[string]struct{}) []string {
	cleaned := nonToken.ReplaceAllString(strings.ToLower(text), " ")
	var tokens []string
	for _, tok := range strings.Fields(cleaned) {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if utf8.RuneCountInString(tok) < 2 {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Top counts tokens per cohort and emits the top-N by descending count with
// a 1-based rank. Ties keep first-encountered order within the cohort's row
// iteration.
func Top(rows []types.NormalizedRecord, cohorts map[types.CohortKey]*types.CohortStats, cfg config.Config) []types.KeywordRow {
	type counter struct {
		counts map[string]int
		order  []string // first-seen order
	}
	byCohort := make(map[types.CohortKey]*counter)
	for _, r := range rows {
		if r.ProductName == "" {
			continue
		}
		key := types.CohortKey{WeekStartDate: r.WeekStartDate, CategoryGroup: r.CategoryGroup}
		if _, ok := cohorts[key]; !ok {
			continue
		}
		c := byCohort[key]
		if c == nil {
			c = &counter{counts: make(map[string]int)}
			byCohort[key] = c
		}
		for _, tok := range Tokenize(r.ProductName, cfg.Stopwords) {
			if _, seen := c.counts[tok]; !seen {
				c.order = append(c.order, tok)
			}
			c.counts[tok]++
		}
	}

	var out []types.KeywordRow
	for _, key := range cohort.SortedKeys(cohorts) {
		c := byCohort[key]
		if c == nil {
			continue
		}
		ranked := make([]string, len(c.order))
		copy(ranked, c.order)
		sort.SliceStable(ranked, func(i, j int) bool {
			return c.counts[ranked[i]] > c.counts[ranked[j]]
		})
		for i, tok := range ranked {
			if i >= cfg.TopKeywords {
				break
			}
			out = append(out, types.KeywordRow{
				Key:       key,
				Token:     tok,
				Count:     c.counts[tok],
				TokenRank: i + 1,
			})
		}
	}
	return out
}
