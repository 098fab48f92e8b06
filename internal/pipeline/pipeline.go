// Package pipeline runs the full analytics pass: normalize rows, build
// cohort statistics, classify every row, then derive the summary tables.
// Everything is computed in memory before anything is written, so a failed
// run never leaves partial artifacts behind.
package pipeline

import (
	"fmt"
	"strings"

	"price-insights-go/internal/classify"
	"price-insights-go/internal/cohort"
	"price-insights-go/internal/config"
	"price-insights-go/internal/correlation"
	"price-insights-go/internal/exposure"
	"price-insights-go/internal/keywords"
	"price-insights-go/internal/logger"
	"price-insights-go/internal/normalizer"
	"price-insights-go/internal/stats"
	"price-insights-go/internal/types"
)

// Result holds every derived table of one run. All slices are ordered
// deterministically: rows in input order, grouped tables by cohort key.
type Result struct {
	Rows       []types.ClassifiedRow
	CohortKeys []types.CohortKey
	Cohorts    map[types.CohortKey]*types.CohortStats

	PositioningSummary []types.PositioningSummaryRow
	Correlations       []types.CorrelationRow
	BrandShares        []types.BrandShare
	BandGaps           []types.BandGap
	Keywords           []types.KeywordRow

	OwnBrandRows       []types.ClassifiedRow
	OwnBrandComparison []types.OwnBrandComparisonRow
	Outliers           []types.ClassifiedRow
	DataQuality        []types.DataQualityRow
}

// Run executes the pipeline over the loaded listings.
func Run(cfg config.Config, recs []types.ListingRecord) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logger.New().WithRun("").WithField("component", "pipeline")
	log.WithField("input_rows", len(recs)).Info("starting analytics run")

	rows := normalizer.Normalize(recs, cfg)
	cohorts := cohort.Build(rows, cfg)
	keys := cohort.SortedKeys(cohorts)
	log.WithField("cohorts", len(cohorts)).Info("cohort statistics built")

	res := &Result{
		Rows:       make([]types.ClassifiedRow, len(rows)),
		CohortKeys: keys,
		Cohorts:    cohorts,
	}
	for i, r := range rows {
		key := types.CohortKey{WeekStartDate: r.WeekStartDate, CategoryGroup: r.CategoryGroup}
		res.Rows[i] = types.ClassifiedRow{
			NormalizedRecord: r,
			Classification:   classify.Classify(r, cohorts[key], cfg),
		}
	}

	res.PositioningSummary = positioningSummary(res.Rows, keys)
	res.Correlations = correlation.Analyze(rows, cohorts)
	res.BrandShares = exposure.BrandShares(rows, cohorts)
	res.BandGaps = exposure.BandGaps(res.Rows, cohorts)
	res.Keywords = keywords.Top(rows, cohorts, cfg)

	for _, r := range res.Rows {
		if IsOwnBrand(r.Brand, cfg.OwnBrandPatterns) {
			res.OwnBrandRows = append(res.OwnBrandRows, r)
		}
		if r.IsOutlierIQR {
			res.Outliers = append(res.Outliers, r)
		}
	}
	res.OwnBrandComparison = ownBrandComparison(res.Rows, keys, cfg)
	res.DataQuality = dataQuality(res.Rows, keys, cohorts)

	log.WithFields(map[string]interface{}{
		"brand_shares": len(res.BrandShares),
		"band_gaps":    len(res.BandGaps),
		"outliers":     len(res.Outliers),
		"keywords":     len(res.Keywords),
	}).Info("analytics run complete")
	return res, nil
}

// IsOwnBrand reports whether a brand name matches any configured own-brand
// pattern, comparing lowercased with spaces removed.
func IsOwnBrand(brand string, patterns []string) bool {
	norm := strings.ReplaceAll(strings.ToLower(brand), " ", "")
	for _, p := range patterns {
		if p != "" && strings.Contains(norm, p) {
			return true
		}
	}
	return false
}

// positioningSummary aggregates validated unit prices per (cohort, rank
// bucket): count, median, Q1, Q3 and IQR.
func positioningSummary(rows []types.ClassifiedRow, keys []types.CohortKey) []types.PositioningSummaryRow {
	type cell struct {
		key    types.CohortKey
		bucket string
	}
	vals := make(map[cell][]float64)
	for _, r := range rows {
		if !r.IsValidSheets || r.UnitPrice == nil || r.CategoryGroup == "" {
			continue
		}
		key := types.CohortKey{WeekStartDate: r.WeekStartDate, CategoryGroup: r.CategoryGroup}
		c := cell{key: key, bucket: r.RankBucket}
		vals[c] = append(vals[c], *r.UnitPrice)
	}

	var out []types.PositioningSummaryRow
	for _, key := range keys {
		for _, bucket := range config.RankBuckets {
			prices := vals[cell{key: key, bucket: bucket}]
			if len(prices) == 0 {
				continue
			}
			med, _ := stats.Median(prices)
			q1, _ := stats.Quantile(prices, 0.25)
			q3, _ := stats.Quantile(prices, 0.75)
			out = append(out, types.PositioningSummaryRow{
				Key:        key,
				RankBucket: bucket,
				ItemCount:  len(prices),
				Median:     med,
				Q1:         q1,
				Q3:         q3,
				IQR:        q3 - q1,
			})
		}
	}
	return out
}

// ownBrandComparison emits one row per cohort that has a market median,
// comparing the own brand's median unit price against it.
func ownBrandComparison(rows []types.ClassifiedRow, keys []types.CohortKey, cfg config.Config) []types.OwnBrandComparisonRow {
	market := make(map[types.CohortKey][]float64)
	own := make(map[types.CohortKey][]float64)
	ownCount := make(map[types.CohortKey]int)
	for _, r := range rows {
		if r.CategoryGroup == "" {
			continue
		}
		key := types.CohortKey{WeekStartDate: r.WeekStartDate, CategoryGroup: r.CategoryGroup}
		isOwn := IsOwnBrand(r.Brand, cfg.OwnBrandPatterns)
		if isOwn {
			ownCount[key]++
		}
		if !r.IsValidSheets || r.UnitPrice == nil {
			continue
		}
		market[key] = append(market[key], *r.UnitPrice)
		if isOwn {
			own[key] = append(own[key], *r.UnitPrice)
		}
	}

	var out []types.OwnBrandComparisonRow
	for _, key := range keys {
		marketMedian, ok := stats.Median(market[key])
		if !ok {
			continue
		}
		row := types.OwnBrandComparisonRow{
			Key:                   key,
			MarketMedianUnitPrice: marketMedian,
			OwnItemCount:          ownCount[key],
		}
		if ownMedian, ok := stats.Median(own[key]); ok {
			row.OwnMedianUnitPrice = &ownMedian
			if marketMedian > 0 {
				idx := ownMedian / marketMedian
				row.PremiumIndex = &idx
			}
		}
		out = append(out, row)
	}
	return out
}

// dataQuality turns per-row parse and outlier flags into per-cohort rates.
func dataQuality(rows []types.ClassifiedRow, keys []types.CohortKey, cohorts map[types.CohortKey]*types.CohortStats) []types.DataQualityRow {
	type tally struct{ hasSheets, unrealistic, outliers int }
	tallies := make(map[types.CohortKey]*tally)
	for _, r := range rows {
		if r.CategoryGroup == "" {
			continue
		}
		key := types.CohortKey{WeekStartDate: r.WeekStartDate, CategoryGroup: r.CategoryGroup}
		t := tallies[key]
		if t == nil {
			t = &tally{}
			tallies[key] = t
		}
		if r.HasSheets {
			t.hasSheets++
		}
		if r.IsUnrealisticSheets {
			t.unrealistic++
		}
		if r.IsOutlierIQR {
			t.outliers++
		}
	}

	out := make([]types.DataQualityRow, 0, len(keys))
	for _, key := range keys {
		total := cohorts[key].RowCount
		t := tallies[key]
		if t == nil {
			t = &tally{}
		}
		hasRate := float64(t.hasSheets) / float64(total)
		out = append(out, types.DataQualityRow{
			Key:               key,
			TotalCount:        total,
			HasSheetsRate:     hasRate,
			MissingSheetsRate: 1 - hasRate,
			InvalidSheetsRate: float64(t.unrealistic) / float64(total),
			OutlierRate:       float64(t.outliers) / float64(total),
		})
	}
	return out
}
