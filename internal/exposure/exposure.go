// Package exposure computes rank-weighted share-of-voice per brand and the
// market-gap score per price band. Both normalize against per-cohort totals
// computed once during cohort aggregation and joined back by key, and every
// division is guarded: a zero denominator yields nil, never Inf.
package exposure

import (
	"math"
	"sort"

	"price-insights-go/internal/types"
)

// BrandShares computes one row per (cohort, brand), ordered by cohort key
// then brand.
func BrandShares(rows []types.NormalizedRecord, cohorts map[types.CohortKey]*types.CohortStats) []types.BrandShare {
	type brandKey struct {
		key   types.CohortKey
		brand string
	}
	acc := make(map[brandKey]*types.BrandShare)
	for _, r := range rows {
		key := types.CohortKey{WeekStartDate: r.WeekStartDate, CategoryGroup: r.CategoryGroup}
		cs, ok := cohorts[key]
		if !ok {
			continue
		}
		bk := brandKey{key: key, brand: r.Brand}
		share := acc[bk]
		if share == nil {
			share = &types.BrandShare{
				Key:                key,
				Brand:              r.Brand,
				TotalCount:         cs.RowCount,
				TotalWeightInv:     cs.TotalWeightInv,
				TotalWeightInvSqrt: cs.TotalWeightInvSqrt,
			}
			acc[bk] = share
		}
		share.ItemCount++
		if r.PageRank != nil && *r.PageRank > 0 {
			share.WeightInv += 1 / *r.PageRank
			share.WeightInvSqrt += 1 / math.Sqrt(*r.PageRank)
		}
	}

	out := make([]types.BrandShare, 0, len(acc))
	for _, share := range acc {
		share.SOV = ratio(float64(share.ItemCount), float64(share.TotalCount))
		share.WeightedSOVInvRank = ratio(share.WeightInv, share.TotalWeightInv)
		share.WeightedSOVInvSqrt = ratio(share.WeightInvSqrt, share.TotalWeightInvSqrt)
		out = append(out, *share)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key.Less(out[j].Key)
		}
		return out[i].Brand < out[j].Brand
	})
	return out
}

// BandGaps computes one row per (cohort, price band) over rows that received
// a band, ordered by cohort key then band label.
func BandGaps(rows []types.ClassifiedRow, cohorts map[types.CohortKey]*types.CohortStats) []types.BandGap {
	type bandKey struct {
		key  types.CohortKey
		band string
	}
	acc := make(map[bandKey]*types.BandGap)
	brands := make(map[bandKey]map[string]struct{})
	for _, r := range rows {
		if r.PriceBand == "" {
			continue
		}
		key := types.CohortKey{WeekStartDate: r.WeekStartDate, CategoryGroup: r.CategoryGroup}
		cs, ok := cohorts[key]
		if !ok {
			continue
		}
		bk := bandKey{key: key, band: r.PriceBand}
		gap := acc[bk]
		if gap == nil {
			gap = &types.BandGap{
				Key:                key,
				PriceBand:          r.PriceBand,
				TotalCount:         cs.RowCount,
				TotalWeightInvSqrt: cs.TotalWeightInvSqrt,
			}
			acc[bk] = gap
			brands[bk] = make(map[string]struct{})
		}
		gap.ItemCount++
		brands[bk][r.Brand] = struct{}{}
		if r.PageRank != nil && *r.PageRank > 0 {
			gap.WeightInvSqrt += 1 / math.Sqrt(*r.PageRank)
		}
	}

	out := make([]types.BandGap, 0, len(acc))
	for bk, gap := range acc {
		gap.BrandCount = len(brands[bk])
		gap.WeightedSOV = ratio(gap.WeightInvSqrt, gap.TotalWeightInvSqrt)
		gap.SupplyShare = ratio(float64(gap.ItemCount), float64(gap.TotalCount))
		if gap.WeightedSOV != nil && gap.SupplyShare != nil && *gap.SupplyShare > 0 {
			g := *gap.WeightedSOV / *gap.SupplyShare
			gap.GapScore = &g
		}
		out = append(out, *gap)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key.Less(out[j].Key)
		}
		return out[i].PriceBand < out[j].PriceBand
	})
	return out
}

// ratio divides num by den, nil unless den is positive.
func ratio(num, den float64) *float64 {
	if den <= 0 {
		return nil
	}
	v := num / den
	return &v
}
