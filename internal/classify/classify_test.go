package classify

import (
	"math"
	"testing"

	"price-insights-go/internal/config"
	"price-insights-go/internal/types"
)

func fp(v float64) *float64 { return &v }

func validRow(unitPrice float64) types.NormalizedRecord {
	lp := math.Log(unitPrice)
	return types.NormalizedRecord{
		IsValidSheets: true,
		UnitPrice:     fp(unitPrice),
		LogUnitPrice:  &lp,
	}
}

func TestSegmentThresholds(t *testing.T) {
	cfg := config.Default()
	cs := &types.CohortStats{P50: fp(100), P85: fp(200)}
	tests := []struct {
		price float64
		want  string
	}{
		{50, config.SegmentMass},
		{100, config.SegmentMass},    // boundary is inclusive
		{150, config.SegmentPremium},
		{200, config.SegmentPremium}, // boundary is inclusive
		{201, config.SegmentLuxury},
	}
	for _, tc := range tests {
		got := Classify(validRow(tc.price), cs, cfg)
		if got.Segment != tc.want {
			t.Fatalf("segment(%v) = %q, want %q", tc.price, got.Segment, tc.want)
		}
	}
}

func TestSegmentNullSafety(t *testing.T) {
	cfg := config.Default()
	// no p50: no segment, never a default category
	got := Classify(validRow(50), &types.CohortStats{}, cfg)
	if got.Segment != "" {
		t.Fatalf("segment without p50 = %q, want none", got.Segment)
	}
	// invalid sheets: no base value, no segment
	r := validRow(50)
	r.IsValidSheets = false
	got = Classify(r, &types.CohortStats{P50: fp(100), P85: fp(200)}, cfg)
	if got.Segment != "" {
		t.Fatalf("segment without base value = %q, want none", got.Segment)
	}
	// no cohort at all
	got = Classify(validRow(50), nil, cfg)
	if got.Segment != "" || got.PriceBand != "" || got.ZLog != nil {
		t.Fatal("row outside any cohort must keep null classifications")
	}
}

func TestPriceBandAssignment(t *testing.T) {
	cfg := config.Default()
	cs := &types.CohortStats{BandCuts: []float64{10, 20, 30, 40, 50, 60}}
	tests := []struct {
		price float64
		want  string
	}{
		{5, "P0-20"},   // below range clips to first band
		{10, "P0-20"},  // right-closed: equal to an edge belongs left
		{15, "P0-20"},
		{20, "P20-40"},
		{35, "P40-60"},
		{60, "P80-100"},
		{99, "P80-100"}, // above range clips to last band
	}
	for _, tc := range tests {
		got := Classify(validRow(tc.price), cs, cfg)
		if got.PriceBand != tc.want {
			t.Fatalf("band(%v) = %q, want %q", tc.price, got.PriceBand, tc.want)
		}
	}
	// degenerate tied cuts still resolve to exactly one band
	tied := &types.CohortStats{BandCuts: []float64{10, 10, 10, 10, 10, 10}}
	if got := Classify(validRow(10), tied, cfg); got.PriceBand != "P80-100" {
		t.Fatalf("band on tied cuts = %q, want P80-100", got.PriceBand)
	}
}

func TestOutlierStrictlyOutsideFences(t *testing.T) {
	cfg := config.Default()
	cs := &types.CohortStats{LowerBound: fp(-1), UpperBound: fp(7)}
	mk := func(lp float64) types.NormalizedRecord {
		return types.NormalizedRecord{LogUnitPrice: &lp}
	}
	if got := Classify(mk(100), cs, cfg); !got.IsOutlierIQR {
		t.Fatal("100 outside [-1,7] must be an outlier")
	}
	if got := Classify(mk(7), cs, cfg); got.IsOutlierIQR {
		t.Fatal("fence value itself is not an outlier")
	}
	if got := Classify(mk(3), cs, cfg); got.IsOutlierIQR {
		t.Fatal("3 inside [-1,7] is not an outlier")
	}
	// fences missing: never an outlier
	if got := Classify(mk(100), &types.CohortStats{}, cfg); got.IsOutlierIQR {
		t.Fatal("no fences, no outlier flag")
	}
}

func TestZScores(t *testing.T) {
	cfg := config.Default()
	cs := &types.CohortStats{
		MeanLog:      fp(2),
		StdLog:       fp(0.5),
		MedianLog:    fp(2),
		MADLogScaled: fp(0.25),
	}
	lp := 3.0
	got := Classify(types.NormalizedRecord{LogUnitPrice: &lp}, cs, cfg)
	if got.ZLog == nil || math.Abs(*got.ZLog-2) > 1e-12 {
		t.Fatalf("z = %v, want 2", got.ZLog)
	}
	if got.RobustZ == nil || math.Abs(*got.RobustZ-4) > 1e-12 {
		t.Fatalf("robust z = %v, want 4", got.RobustZ)
	}
	// null std: z not computable
	got = Classify(types.NormalizedRecord{LogUnitPrice: &lp}, &types.CohortStats{MeanLog: fp(2)}, cfg)
	if got.ZLog != nil {
		t.Fatalf("z = %v, want nil without std", *got.ZLog)
	}
}

func TestRankBucket(t *testing.T) {
	tests := []struct {
		rank *float64
		want string
	}{
		{fp(1), "1-10"},
		{fp(10), "1-10"},
		{fp(11), "11-20"},
		{fp(20), "11-20"},
		{fp(21), "21-50"},
		{fp(50), "21-50"},
		{fp(51), "51-100"},
		{fp(100), "51-100"},
		{fp(101), "101+"},
		{fp(0), "101+"},  // non-positive folds into 101+
		{fp(-3), "101+"},
		{nil, "101+"},    // missing folds into 101+
	}
	for _, tc := range tests {
		if got := RankBucket(tc.rank); got != tc.want {
			t.Fatalf("RankBucket(%v) = %q, want %q", tc.rank, got, tc.want)
		}
	}
}
