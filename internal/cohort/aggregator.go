// Package cohort groups normalized rows by (week, category group) and
// computes each cohort's statistics in one pass. Rows without a category
// group join no cohort and keep null group-dependent fields downstream.
package cohort

import (
	"math"
	"sort"

	"price-insights-go/internal/config"
	"price-insights-go/internal/stats"
	"price-insights-go/internal/types"
)

const madScale = 1.4826 // consistency constant for normally distributed data

// BaseValue returns the row's segmentation base value, nil unless the row's
// sheet count was validated.
func BaseValue(r types.NormalizedRecord, base config.SegmentBase) *float64 {
	if !r.IsValidSheets {
		return nil
	}
	if base == config.SegmentBaseLogUnitPrice {
		return r.LogUnitPrice
	}
	return r.UnitPrice
}

// Build computes CohortStats for every distinct cohort among rows.
func Build(rows []types.NormalizedRecord, cfg config.Config) map[types.CohortKey]*types.CohortStats {
	groups := make(map[types.CohortKey][]int)
	for i, r := range rows {
		if r.CategoryGroup == "" {
			continue
		}
		key := types.CohortKey{WeekStartDate: r.WeekStartDate, CategoryGroup: r.CategoryGroup}
		groups[key] = append(groups[key], i)
	}

	out := make(map[types.CohortKey]*types.CohortStats, len(groups))
	for key, idx := range groups {
		out[key] = build(key, rows, idx, cfg)
	}
	return out
}

func build(key types.CohortKey, rows []types.NormalizedRecord, idx []int, cfg config.Config) *types.CohortStats {
	cs := &types.CohortStats{Key: key, RowCount: len(idx)}

	var logs, baseVals []float64
	for _, i := range idx {
		r := rows[i]
		if r.LogUnitPrice != nil {
			logs = append(logs, *r.LogUnitPrice)
		}
		if v := BaseValue(r, cfg.SegmentBase); v != nil {
			baseVals = append(baseVals, *v)
		}
		if r.PageRank != nil && *r.PageRank > 0 {
			cs.TotalWeightInv += 1 / *r.PageRank
			cs.TotalWeightInvSqrt += 1 / math.Sqrt(*r.PageRank)
		}
	}

	if m, ok := stats.Mean(logs); ok {
		cs.MeanLog = &m
	}
	if sd, ok := stats.PopStd(logs); ok && sd > 0 {
		cs.StdLog = &sd
	}
	if med, ok := stats.Median(logs); ok {
		cs.MedianLog = &med
	}
	if mad, ok := stats.MAD(logs); ok && mad > 0 {
		scaled := madScale * mad
		cs.MADLogScaled = &scaled
	}

	// Quantile-derived fields need at least two values; smaller cohorts
	// propagate nulls rather than guessing.
	if len(baseVals) >= 2 {
		if q, ok := stats.Quantile(baseVals, cfg.SegmentP50); ok {
			cs.P50 = &q
		}
		if q, ok := stats.Quantile(baseVals, cfg.SegmentP85); ok {
			cs.P85 = &q
		}
		cs.BandCuts = bandCuts(baseVals, cfg.BandQuantiles)
	}
	if len(logs) >= 2 {
		q1, _ := stats.Quantile(logs, 0.25)
		q3, _ := stats.Quantile(logs, 0.75)
		iqr := q3 - q1
		lower := q1 - 1.5*iqr
		upper := q3 + 1.5*iqr
		cs.Q1, cs.Q3, cs.IQR = &q1, &q3, &iqr
		cs.LowerBound, cs.UpperBound = &lower, &upper
	}
	return cs
}

// bandCuts computes the price-band cut points and forces them monotonically
// non-decreasing so ties and degenerate cohorts still bin cleanly.
func bandCuts(vals []float64, quantiles []float64) []float64 {
	cuts := make([]float64, len(quantiles))
	for i, q := range quantiles {
		cuts[i], _ = stats.Quantile(vals, q)
	}
	for i := 1; i < len(cuts); i++ {
		if cuts[i] < cuts[i-1] {
			cuts[i] = cuts[i-1]
		}
	}
	return cuts
}

// SortedKeys returns the cohort keys in (week, category group) order.
func SortedKeys(m map[types.CohortKey]*types.CohortStats) []types.CohortKey {
	keys := make([]types.CohortKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}
