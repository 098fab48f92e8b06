package pipeline

import (
	"math"
	"reflect"
	"testing"

	"price-insights-go/internal/config"
	"price-insights-go/internal/types"
)

func listing(brand, name, price, rank string) types.ListingRecord {
	return types.ListingRecord{
		WeekStartDate: "2025-01-06",
		Category1:     "스킨케어",
		Category2:     "마스크팩",
		Brand:         brand,
		ProductName:   name,
		PriceRaw:      price,
		PageRankRaw:   rank,
		SourceFile:    "fixture.csv",
	}
}

// fixture is one cohort: four rows with parsable sheet counts (unit prices
// 1000..4000) and one row whose name carries no sheet count.
func fixture() []types.ListingRecord {
	return []types.ListingRecord{
		listing("CalmF", "캄프 진정 마스크팩 30매", "30000", "1"),
		listing("BrandA", "수분 마스크팩 30매", "60000", "2"),
		listing("BrandB", "보습 마스크팩 30매", "90000", "3"),
		listing("BrandC", "미백 마스크팩 30매", "120000", "4"),
		listing("BrandD", "탄력 마스크팩", "5000", "5"),
	}
}

func TestRunEndToEnd(t *testing.T) {
	cfg := config.Default()
	res, err := Run(cfg, fixture())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Rows) != 5 {
		t.Fatalf("rows = %d, want one per input listing", len(res.Rows))
	}
	if len(res.CohortKeys) != 1 {
		t.Fatalf("cohorts = %d, want 1", len(res.CohortKeys))
	}

	// unit prices 1000..4000: p50=2500, p85=3550
	wantSegments := []string{
		config.SegmentMass, config.SegmentMass,
		config.SegmentPremium, config.SegmentLuxury,
		"", // no sheet count, no segment
	}
	for i, want := range wantSegments {
		if got := res.Rows[i].Segment; got != want {
			t.Fatalf("segment[%d] = %q, want %q", i, got, want)
		}
	}

	if len(res.DataQuality) != 1 {
		t.Fatalf("data quality rows = %d, want 1", len(res.DataQuality))
	}
	dq := res.DataQuality[0]
	if dq.TotalCount != 5 {
		t.Fatalf("total = %d, want 5", dq.TotalCount)
	}
	if math.Abs(dq.HasSheetsRate-0.8) > 1e-12 || math.Abs(dq.MissingSheetsRate-0.2) > 1e-12 {
		t.Fatalf("sheet rates = %v/%v, want 0.8/0.2", dq.HasSheetsRate, dq.MissingSheetsRate)
	}
	if dq.InvalidSheetsRate != 0 || dq.OutlierRate != 0 {
		t.Fatalf("invalid/outlier rates = %v/%v, want 0", dq.InvalidSheetsRate, dq.OutlierRate)
	}

	if len(res.Correlations) != 1 {
		t.Fatalf("correlation rows = %d, want 1", len(res.Correlations))
	}
	corr := res.Correlations[0]
	if corr.N != 4 {
		t.Fatalf("n = %d, want 4 pairable rows", corr.N)
	}
	if corr.SpearmanCorr == nil || math.Abs(*corr.SpearmanCorr-1) > 1e-12 {
		t.Fatalf("spearman = %v, want 1 for monotone fixture", corr.SpearmanCorr)
	}

	if len(res.BrandShares) != 5 {
		t.Fatalf("brand shares = %d, want one per brand", len(res.BrandShares))
	}
	if len(res.Keywords) == 0 {
		t.Fatal("keywords must be extracted from product names")
	}
	if len(res.Outliers) != 0 {
		t.Fatalf("outliers = %d, want none in fixture", len(res.Outliers))
	}
}

func TestRunPositioningSummary(t *testing.T) {
	res, err := Run(config.Default(), fixture())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.PositioningSummary) != 1 {
		t.Fatalf("summary rows = %d, want 1 (all ranks in 1-10)", len(res.PositioningSummary))
	}
	s := res.PositioningSummary[0]
	if s.RankBucket != "1-10" || s.ItemCount != 4 {
		t.Fatalf("summary = %+v, want bucket 1-10 with 4 items", s)
	}
	if math.Abs(s.Median-2500) > 1e-9 {
		t.Fatalf("median = %v, want 2500", s.Median)
	}
	if math.Abs(s.Q1-1750) > 1e-9 || math.Abs(s.Q3-3250) > 1e-9 {
		t.Fatalf("quartiles = %v/%v, want 1750/3250", s.Q1, s.Q3)
	}
	if math.Abs(s.IQR-1500) > 1e-9 {
		t.Fatalf("iqr = %v, want 1500", s.IQR)
	}
}

func TestRunOwnBrandComparison(t *testing.T) {
	res, err := Run(config.Default(), fixture())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.OwnBrandRows) != 1 {
		t.Fatalf("own brand rows = %d, want 1", len(res.OwnBrandRows))
	}
	if len(res.OwnBrandComparison) != 1 {
		t.Fatalf("comparison rows = %d, want 1", len(res.OwnBrandComparison))
	}
	c := res.OwnBrandComparison[0]
	if math.Abs(c.MarketMedianUnitPrice-2500) > 1e-9 {
		t.Fatalf("market median = %v, want 2500", c.MarketMedianUnitPrice)
	}
	if c.OwnItemCount != 1 {
		t.Fatalf("own count = %d, want 1", c.OwnItemCount)
	}
	if c.OwnMedianUnitPrice == nil || math.Abs(*c.OwnMedianUnitPrice-1000) > 1e-9 {
		t.Fatalf("own median = %v, want 1000", c.OwnMedianUnitPrice)
	}
	if c.PremiumIndex == nil || math.Abs(*c.PremiumIndex-0.4) > 1e-9 {
		t.Fatalf("premium index = %v, want 0.4", c.PremiumIndex)
	}
}

func TestIsOwnBrand(t *testing.T) {
	patterns := config.Default().OwnBrandPatterns
	tests := []struct {
		brand string
		want  bool
	}{
		{"CalmF", true},
		{"Calm F", true}, // spaces are stripped before matching
		{"캄프", true},
		{"캄프코스메틱", true},
		{"BrandA", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := IsOwnBrand(tc.brand, patterns); got != tc.want {
			t.Fatalf("IsOwnBrand(%q) = %v, want %v", tc.brand, got, tc.want)
		}
	}
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := config.Default()
	first, err := Run(cfg, fixture())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := Run(cfg, fixture())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two runs over the same input must produce identical results")
	}
}

func TestRowsWithoutCategoryStayUngrouped(t *testing.T) {
	rec := fixture()[0]
	rec.Category1 = ""
	rec.Category2 = ""
	res, err := Run(config.Default(), []types.ListingRecord{rec})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(res.Rows))
	}
	if len(res.CohortKeys) != 0 {
		t.Fatalf("cohorts = %d, want 0 for uncategorized rows", len(res.CohortKeys))
	}
	r := res.Rows[0]
	if r.Segment != "" || r.PriceBand != "" || r.ZLog != nil {
		t.Fatal("uncategorized row must keep null classifications")
	}
	if len(res.BrandShares) != 0 || len(res.DataQuality) != 0 {
		t.Fatal("uncategorized rows must not appear in grouped tables")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.SegmentBase = "median_price"
	if _, err := Run(cfg, fixture()); err == nil {
		t.Fatal("Run must fail on an unknown segment base")
	}
}
