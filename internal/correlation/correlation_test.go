package correlation

import (
	"math"
	"testing"

	"price-insights-go/internal/types"
)

func pairRow(week, group string, rank, logPrice float64) types.NormalizedRecord {
	return types.NormalizedRecord{
		ListingRecord: types.ListingRecord{WeekStartDate: week},
		CategoryGroup: group,
		PageRank:      &rank,
		LogUnitPrice:  &logPrice,
	}
}

func statsFor(keys ...types.CohortKey) map[types.CohortKey]*types.CohortStats {
	out := make(map[types.CohortKey]*types.CohortStats, len(keys))
	for _, k := range keys {
		out[k] = &types.CohortStats{Key: k}
	}
	return out
}

func TestEveryCohortAppears(t *testing.T) {
	kA := types.CohortKey{WeekStartDate: "w", CategoryGroup: "a"}
	kB := types.CohortKey{WeekStartDate: "w", CategoryGroup: "b"}
	rows := []types.NormalizedRecord{
		pairRow("w", "a", 1, 5),
		pairRow("w", "a", 2, 4),
		pairRow("w", "a", 3, 3),
		// cohort b has one pairable row only
		pairRow("w", "b", 1, 5),
	}
	got := Analyze(rows, statsFor(kA, kB))
	if len(got) != 2 {
		t.Fatalf("rows = %d, want one per cohort", len(got))
	}
	if got[0].Key != kA || got[1].Key != kB {
		t.Fatalf("order = %v, %v; want sorted by key", got[0].Key, got[1].Key)
	}
	small := got[1]
	if small.N != 1 {
		t.Fatalf("n = %d, want 1", small.N)
	}
	if small.SpearmanCorr != nil || small.KendallCorr != nil || small.Slope != nil || small.R2 != nil {
		t.Fatal("cohort with n<2 must emit an all-null row, not be skipped")
	}
}

func TestMonotoneNegativeAssociation(t *testing.T) {
	k := types.CohortKey{WeekStartDate: "w", CategoryGroup: "g"}
	rows := []types.NormalizedRecord{
		pairRow("w", "g", 1, 5),
		pairRow("w", "g", 2, 4),
		pairRow("w", "g", 3, 3),
		pairRow("w", "g", 4, 2),
		pairRow("w", "g", 5, 1),
	}
	got := Analyze(rows, statsFor(k))
	row := got[0]
	if row.N != 5 {
		t.Fatalf("n = %d, want 5", row.N)
	}
	if row.SpearmanCorr == nil || math.Abs(*row.SpearmanCorr+1) > 1e-12 {
		t.Fatalf("spearman = %v, want -1", row.SpearmanCorr)
	}
	if row.KendallCorr == nil || math.Abs(*row.KendallCorr+1) > 1e-12 {
		t.Fatalf("kendall = %v, want -1", row.KendallCorr)
	}
	// rank = -1 * logPrice + 6
	if row.Slope == nil || math.Abs(*row.Slope+1) > 1e-12 {
		t.Fatalf("slope = %v, want -1", row.Slope)
	}
	if row.R2 == nil || math.Abs(*row.R2-1) > 1e-12 {
		t.Fatalf("r2 = %v, want 1", row.R2)
	}
}

func TestRowsMissingEitherValueAreExcluded(t *testing.T) {
	k := types.CohortKey{WeekStartDate: "w", CategoryGroup: "g"}
	lp := 3.0
	noRank := types.NormalizedRecord{
		ListingRecord: types.ListingRecord{WeekStartDate: "w"},
		CategoryGroup: "g",
		LogUnitPrice:  &lp,
	}
	rank := 2.0
	noPrice := types.NormalizedRecord{
		ListingRecord: types.ListingRecord{WeekStartDate: "w"},
		CategoryGroup: "g",
		PageRank:      &rank,
	}
	rows := []types.NormalizedRecord{pairRow("w", "g", 1, 5), noRank, noPrice}
	got := Analyze(rows, statsFor(k))
	if got[0].N != 1 {
		t.Fatalf("n = %d, want 1 (only rows with both values count)", got[0].N)
	}
}
