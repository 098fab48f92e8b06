// Package correlation measures the rank-price association per cohort.
package correlation

import (
	"price-insights-go/internal/cohort"
	"price-insights-go/internal/stats"
	"price-insights-go/internal/types"
)

// Analyze emits one row per cohort, in key order. Cohorts with fewer than
// two rows carrying both a rank and a log unit price get an all-null row
// rather than being skipped, so missing data stays visible to the caller.
func Analyze(rows []types.NormalizedRecord, cohorts map[types.CohortKey]*types.CohortStats) []types.CorrelationRow {
	pairs := make(map[types.CohortKey][2][]float64)
	for _, r := range rows {
		if r.PageRank == nil || r.LogUnitPrice == nil {
			continue
		}
		key := types.CohortKey{WeekStartDate: r.WeekStartDate, CategoryGroup: r.CategoryGroup}
		if _, ok := cohorts[key]; !ok {
			continue
		}
		p := pairs[key]
		p[0] = append(p[0], *r.PageRank)
		p[1] = append(p[1], *r.LogUnitPrice)
		pairs[key] = p
	}

	keys := cohort.SortedKeys(cohorts)
	out := make([]types.CorrelationRow, 0, len(keys))
	for _, key := range keys {
		ranks, logs := pairs[key][0], pairs[key][1]
		row := types.CorrelationRow{Key: key, N: len(ranks)}
		if row.N >= 2 {
			row.SpearmanCorr, row.SpearmanP = stats.Spearman(ranks, logs)
			row.KendallCorr, row.KendallP = stats.KendallTauB(ranks, logs)
			row.Slope, row.R2 = stats.OLS(logs, ranks)
		}
		out = append(out, row)
	}
	return out
}
