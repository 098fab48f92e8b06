// Package classify assigns each row its segment, price band, outlier flag
// and rank bucket using the row's cohort statistics. A nil stats argument
// (row outside any cohort) yields null classifications but still buckets the
// rank, so every row stays represented in rank-distribution views.
package classify

import (
	"sort"

	"price-insights-go/internal/cohort"
	"price-insights-go/internal/config"
	"price-insights-go/internal/types"
)

// Classify derives the per-row classification from the cohort's statistics.
func Classify(r types.NormalizedRecord, cs *types.CohortStats, cfg config.Config) types.Classification {
	c := types.Classification{RankBucket: RankBucket(r.PageRank)}
	if cs == nil {
		return c
	}

	if r.LogUnitPrice != nil {
		if cs.MeanLog != nil && cs.StdLog != nil {
			z := (*r.LogUnitPrice - *cs.MeanLog) / *cs.StdLog
			c.ZLog = &z
		}
		if cs.MedianLog != nil && cs.MADLogScaled != nil {
			z := (*r.LogUnitPrice - *cs.MedianLog) / *cs.MADLogScaled
			c.RobustZ = &z
		}
		if cs.LowerBound != nil && cs.UpperBound != nil {
			c.IsOutlierIQR = *r.LogUnitPrice < *cs.LowerBound || *r.LogUnitPrice > *cs.UpperBound
		}
	}

	base := cohort.BaseValue(r, cfg.SegmentBase)
	c.Segment = segment(base, cs)
	c.PriceBand = priceBand(base, cs.BandCuts, cfg.BandLabels)
	return c
}

// segment compares the base value against the cohort's p50/p85 cut points.
// A missing base value or missing cut point yields no segment, never a
// default category.
func segment(base *float64, cs *types.CohortStats) string {
	if base == nil || cs.P50 == nil {
		return ""
	}
	if *base <= *cs.P50 {
		return config.SegmentMass
	}
	if cs.P85 == nil {
		return ""
	}
	if *base <= *cs.P85 {
		return config.SegmentPremium
	}
	return config.SegmentLuxury
}

// priceBand locates the base value among the cohort's cut points.
// Bins are right-closed and the index is clipped to the label range, so
// every non-null value resolves to exactly one band.
func priceBand(base *float64, cuts []float64, labels []string) string {
	if base == nil || cuts == nil {
		return ""
	}
	v := *base
	// insertion point after any equal cut, minus one
	i := sort.Search(len(cuts), func(i int) bool { return cuts[i] > v }) - 1
	if i < 0 {
		i = 0
	}
	if i >= len(labels) {
		i = len(labels) - 1
	}
	return labels[i]
}

// RankBucket maps a page rank onto the fixed 5-way buckets. Missing or
// non-positive ranks fold into "101+".
func RankBucket(rank *float64) string {
	if rank == nil {
		return config.RankBuckets[4]
	}
	switch v := *rank; {
	case v >= 1 && v <= 10:
		return config.RankBuckets[0]
	case v >= 11 && v <= 20:
		return config.RankBuckets[1]
	case v >= 21 && v <= 50:
		return config.RankBuckets[2]
	case v >= 51 && v <= 100:
		return config.RankBuckets[3]
	default:
		return config.RankBuckets[4]
	}
}
